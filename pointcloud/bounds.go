package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// Bounds is an axis aligned box given by its minimum and maximum corners.
type Bounds struct {
	Min, Max r3.Vector
}

// NewBounds returns the box [xMin, xMax] x [yMin, yMax] x [zMin, zMax].
func NewBounds(xMin, xMax, yMin, yMax, zMin, zMax float64) Bounds {
	return Bounds{
		Min: r3.Vector{X: xMin, Y: yMin, Z: zMin},
		Max: r3.Vector{X: xMax, Y: yMax, Z: zMax},
	}
}

// IsEmpty returns true if the box does not enclose any point, which is the
// case for the bounds of an empty set.
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Size returns the extent of the box along each axis.
func (b Bounds) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Center returns the geometric center of the box.
func (b Bounds) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// MaxDimension returns the largest extent of the box.
func (b Bounds) MaxDimension() float64 {
	size := b.Size()
	return math.Max(size.X, math.Max(size.Y, size.Z))
}

// Contains returns true if p lies in the closed box.
func (b Bounds) Contains(p r3.Vector) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X &&
		b.Min.Y <= p.Y && p.Y <= b.Max.Y &&
		b.Min.Z <= p.Z && p.Z <= b.Max.Z
}
