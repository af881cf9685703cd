package pointcloud

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// NewVector convenience method for creating a vector.
func NewVector(x, y, z float64) r3.Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// DataType is the element type coordinates are stored with.
type DataType uint8

// The supported coordinate element types.
const (
	Float64 = DataType(iota)
	Float32
)

func (dt DataType) String() string {
	switch dt {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(dt))
	}
}

// Points is a growable array of 3D coordinates addressed by id. Ids are dense:
// the valid ids are [0, Len()).
type Points interface {
	// DataType returns the element type coordinates are stored with.
	DataType() DataType

	// Len returns the number of stored points.
	Len() int

	// At returns the coordinate stored at id.
	At(id int) r3.Vector

	// Set stores p at id, growing the array if id is past the end.
	Set(id int, p r3.Vector)

	// Append stores p at the end of the array and returns its id.
	Append(p r3.Vector) int

	// Quantize rounds p to the precision of the storage, so that
	// Quantize(p) == At(Append(p)).
	Quantize(p r3.Vector) r3.Vector

	// ExactlyEqual returns true if the coordinate at id is bit for bit equal to
	// p after rounding p to the storage precision.
	ExactlyEqual(id int, p r3.Vector) bool

	// Bounds returns the tight bounds of all stored points.
	Bounds() Bounds

	// Reset removes every point.
	Reset()
}

// NewPoints returns empty coordinate storage of the given type with room for
// prealloc points.
func NewPoints(dt DataType, prealloc int) Points {
	if dt == Float32 {
		return &float32Points{coords: make([]float32, 0, 3*prealloc)}
	}
	return &float64Points{coords: make([]float64, 0, 3*prealloc)}
}

// NewPointsFromVectors returns float64 storage holding vs in order.
func NewPointsFromVectors(vs []r3.Vector) Points {
	pts := NewPoints(Float64, len(vs))
	for _, v := range vs {
		pts.Append(v)
	}
	return pts
}

type float64Points struct {
	coords []float64
}

func (pts *float64Points) DataType() DataType {
	return Float64
}

func (pts *float64Points) Len() int {
	return len(pts.coords) / 3
}

func (pts *float64Points) At(id int) r3.Vector {
	c := pts.coords[3*id : 3*id+3]
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
}

func (pts *float64Points) Set(id int, p r3.Vector) {
	if need := 3 * (id + 1); need > len(pts.coords) {
		pts.coords = append(pts.coords, make([]float64, need-len(pts.coords))...)
	}
	pts.coords[3*id], pts.coords[3*id+1], pts.coords[3*id+2] = p.X, p.Y, p.Z
}

func (pts *float64Points) Append(p r3.Vector) int {
	pts.coords = append(pts.coords, p.X, p.Y, p.Z)
	return pts.Len() - 1
}

func (pts *float64Points) Quantize(p r3.Vector) r3.Vector {
	return p
}

func (pts *float64Points) ExactlyEqual(id int, p r3.Vector) bool {
	c := pts.coords[3*id : 3*id+3]
	return c[0] == p.X && c[1] == p.Y && c[2] == p.Z
}

func (pts *float64Points) Bounds() Bounds {
	meta := NewMetaData()
	for id := 0; id < pts.Len(); id++ {
		meta.Merge(pts.At(id))
	}
	return meta.Bounds()
}

func (pts *float64Points) Reset() {
	pts.coords = pts.coords[:0]
}

type float32Points struct {
	coords []float32
}

func (pts *float32Points) DataType() DataType {
	return Float32
}

func (pts *float32Points) Len() int {
	return len(pts.coords) / 3
}

func (pts *float32Points) At(id int) r3.Vector {
	c := pts.coords[3*id : 3*id+3]
	return r3.Vector{X: float64(c[0]), Y: float64(c[1]), Z: float64(c[2])}
}

func (pts *float32Points) Set(id int, p r3.Vector) {
	if need := 3 * (id + 1); need > len(pts.coords) {
		pts.coords = append(pts.coords, make([]float32, need-len(pts.coords))...)
	}
	pts.coords[3*id], pts.coords[3*id+1], pts.coords[3*id+2] = float32(p.X), float32(p.Y), float32(p.Z)
}

func (pts *float32Points) Append(p r3.Vector) int {
	pts.coords = append(pts.coords, float32(p.X), float32(p.Y), float32(p.Z))
	return pts.Len() - 1
}

func (pts *float32Points) Quantize(p r3.Vector) r3.Vector {
	return r3.Vector{X: float64(float32(p.X)), Y: float64(float32(p.Y)), Z: float64(float32(p.Z))}
}

// ExactlyEqual compares in single precision, matching how the point was stored.
func (pts *float32Points) ExactlyEqual(id int, p r3.Vector) bool {
	c := pts.coords[3*id : 3*id+3]
	return c[0] == float32(p.X) && c[1] == float32(p.Y) && c[2] == float32(p.Z)
}

func (pts *float32Points) Bounds() Bounds {
	meta := NewMetaData()
	for id := 0; id < pts.Len(); id++ {
		meta.Merge(pts.At(id))
	}
	return meta.Bounds()
}

func (pts *float32Points) Reset() {
	pts.coords = pts.coords[:0]
}
