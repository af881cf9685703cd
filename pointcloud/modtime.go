package pointcloud

import "go.uber.org/atomic"

var modClock = atomic.NewUint64(0)

// NextModTime returns a modification time strictly greater than every value
// it returned before. Point sets and indexes stamp themselves with it so that
// staleness is a plain comparison.
func NextModTime() uint64 {
	return modClock.Inc()
}
