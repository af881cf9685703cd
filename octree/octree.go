// Package octree implements an incremental octree point locator: a spatial
// index over 3D points that supports duplicate detection during insertion as
// well as closest point, closest N points and points within radius queries.
//
// The locator is either built once over a pointcloud.PointSet (BuildLocator) or
// grown one point at a time while the coordinates are appended to a shared
// pointcloud.Points array (InitPointInsertion followed by the Insert* methods).
//
// Construction and insertion are not safe for concurrent use. Once no
// insertion is in progress, every query method may be called from multiple
// goroutines at the same time.
package octree

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// DefaultMaxPointsPerLeaf is the leaf capacity used when none is configured.
	DefaultMaxPointsPerLeaf = 128
	// MinMaxPointsPerLeaf and MaxMaxPointsPerLeaf bound the configurable leaf capacity.
	MinMaxPointsPerLeaf = 16
	MaxMaxPointsPerLeaf = 256

	// maxPointCount is the largest number of points a locator will index; ids
	// stay within the signed 32-bit range regardless of the platform int size.
	maxPointCount = math.MaxInt32

	// fudgeFactorScale times the largest root extent pads boundary coordinates.
	fudgeFactorScale = 1e-5
	// minSideSizeScale times the largest root extent is the thinnest root side.
	minSideSizeScale = 1e-2
)

var (
	// ErrNilPoints is returned when no coordinate storage is supplied.
	ErrNilPoints = errors.New("point storage is nil")
	// ErrInvalidBounds is returned for bounds whose minimum exceeds their maximum.
	ErrInvalidBounds = errors.New("bounds are empty or inverted")
	// ErrNoDataSet is returned by BuildLocator when no data set is attached.
	ErrNoDataSet = errors.New("no data set attached to locator")
	// ErrTooFewPoints is returned by BuildLocator for a data set with no points.
	ErrTooFewPoints = errors.New("data set has no points")
	// ErrTooManyPoints is returned when the point count exceeds the 32-bit id range.
	ErrTooManyPoints = errors.New("too many points for octree locator")
)
