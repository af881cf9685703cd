// Package pointcloud defines the coordinate storage and point set types that
// spatial indexes in this module are built over.
//
// A Points value is a flat, growable array of coordinates addressed by integer
// id. A PointSet pairs such an array with its bounds and a modification time so
// that indexes built over it can tell when they are stale.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in a set of points.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	inited bool // just to prevent someone creating the wrong way
}

// NewMetaData returns an empty MetaData whose bounds are inverted so the first
// merged point becomes both minimum and maximum.
func NewMetaData() MetaData {
	return MetaData{
		MinX:   math.MaxFloat64,
		MinY:   math.MaxFloat64,
		MinZ:   math.MaxFloat64,
		MaxX:   -math.MaxFloat64,
		MaxY:   -math.MaxFloat64,
		MaxZ:   -math.MaxFloat64,
		inited: true,
	}
}

// Merge updates the bounds to include p.
func (meta *MetaData) Merge(p r3.Vector) {
	if !meta.inited {
		*meta = NewMetaData()
	}
	if p.X > meta.MaxX {
		meta.MaxX = p.X
	}
	if p.Y > meta.MaxY {
		meta.MaxY = p.Y
	}
	if p.Z > meta.MaxZ {
		meta.MaxZ = p.Z
	}

	if p.X < meta.MinX {
		meta.MinX = p.X
	}
	if p.Y < meta.MinY {
		meta.MinY = p.Y
	}
	if p.Z < meta.MinZ {
		meta.MinZ = p.Z
	}
}

// Bounds returns the box spanned by every merged point. The result is empty
// when nothing has been merged.
func (meta MetaData) Bounds() Bounds {
	if !meta.inited {
		return NewMetaData().Bounds()
	}
	return Bounds{
		Min: r3.Vector{X: meta.MinX, Y: meta.MinY, Z: meta.MinZ},
		Max: r3.Vector{X: meta.MaxX, Y: meta.MaxY, Z: meta.MaxZ},
	}
}

// PointSet is a collection of points that an index can be built from. It
// exposes its backing coordinates, bounds, and when it last changed.
type PointSet interface {
	// Points returns the backing coordinate storage. Ids are positions in it.
	Points() Points

	// NumberOfPoints returns the number of points in the set.
	NumberOfPoints() int

	// Bounds returns the tight bounds of the points in the set.
	Bounds() Bounds

	// ModTime returns the modification time of the set, comparable with
	// values returned by NextModTime.
	ModTime() uint64
}
