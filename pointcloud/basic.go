package pointcloud

import (
	"github.com/golang/geo/r3"
)

// BasicPointSet is the basic implementation of the PointSet interface backed by
// a Points array. Every mutation advances its modification time.
type BasicPointSet struct {
	points  Points
	meta    MetaData
	stale   bool
	modTime uint64
}

// NewBasicPointSet returns an empty, preallocated point set storing
// coordinates as dt.
func NewBasicPointSet(dt DataType, prealloc int) *BasicPointSet {
	return &BasicPointSet{
		points:  NewPoints(dt, prealloc),
		meta:    NewMetaData(),
		modTime: NextModTime(),
	}
}

// NewBasicPointSetFromPoints wraps existing storage. The set takes ownership
// of pts; callers should mutate it only through the set afterwards.
func NewBasicPointSetFromPoints(pts Points) *BasicPointSet {
	set := &BasicPointSet{points: pts, modTime: NextModTime()}
	set.meta = NewMetaData()
	for id := 0; id < pts.Len(); id++ {
		set.meta.Merge(pts.At(id))
	}
	return set
}

// Points returns the backing storage.
func (set *BasicPointSet) Points() Points {
	return set.points
}

// NumberOfPoints returns the number of points in the set.
func (set *BasicPointSet) NumberOfPoints() int {
	return set.points.Len()
}

// Bounds returns the tight bounds of the set.
func (set *BasicPointSet) Bounds() Bounds {
	if set.stale {
		set.meta = NewMetaData()
		for id := 0; id < set.points.Len(); id++ {
			set.meta.Merge(set.points.At(id))
		}
		set.stale = false
	}
	return set.meta.Bounds()
}

// ModTime returns when the set was last changed.
func (set *BasicPointSet) ModTime() uint64 {
	return set.modTime
}

// Append adds p to the end of the set and returns its id.
func (set *BasicPointSet) Append(p r3.Vector) int {
	id := set.points.Append(p)
	set.meta.Merge(set.points.At(id))
	set.modTime = NextModTime()
	return id
}

// Set overwrites the point at id, growing the set if needed.
func (set *BasicPointSet) Set(id int, p r3.Vector) {
	set.points.Set(id, p)
	// an overwrite can shrink the bounds, so recompute them lazily
	set.stale = true
	set.modTime = NextModTime()
}

// Modified advances the modification time without changing any point. Use it
// after mutating the backing Points directly.
func (set *BasicPointSet) Modified() {
	set.stale = true
	set.modTime = NextModTime()
}
