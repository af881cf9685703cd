package octree

import (
	"math"

	"github.com/golang/geo/r3"

	pc "go.viam.com/spatialindex/pointcloud"
)

// insertMode selects what a leaf does with the coordinate of a point it takes.
type insertMode uint8

const (
	// insertIndexOnly records an id whose coordinate is already stored.
	insertIndexOnly = insertMode(iota)
	// insertWithID stores the coordinate at a caller chosen id.
	insertWithID
	// insertNext appends the coordinate and uses the new id.
	insertNext
)

// store writes p to points as required by the mode and returns the id the
// point ends up with.
func (mode insertMode) store(points pc.Points, p r3.Vector, id int) int {
	switch mode {
	case insertWithID:
		points.Set(id, p)
	case insertNext:
		return points.Append(p)
	case insertIndexOnly:
	}
	return id
}

// node is one box of the octree. A leaf owns the ids of the points inside its
// box; an interior node owns exactly eight children that split its box at the
// center and holds no ids itself.
//
// A point p is inside the box iff min < p <= max on every axis, so a point on
// a shared face belongs to exactly one of the nodes sharing it.
type node struct {
	min, max r3.Vector

	// dataMin and dataMax are the tight bounds of the points under this node.
	dataMin, dataMax r3.Vector
	numPoints        int

	ids      []int
	children *[8]*node
}

func newLeafNode(minBounds, maxBounds r3.Vector) *node {
	return &node{
		min:     minBounds,
		max:     maxBounds,
		dataMin: r3.Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64},
		dataMax: r3.Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64},
		ids:     []int{},
	}
}

func (n *node) isLeaf() bool {
	return n.children == nil
}

func (n *node) center() r3.Vector {
	return n.min.Add(n.max).Mul(0.5)
}

// containsPoint uses the half-open (min, max] convention.
func (n *node) containsPoint(p r3.Vector) bool {
	return n.min.X < p.X && p.X <= n.max.X &&
		n.min.Y < p.Y && p.Y <= n.max.Y &&
		n.min.Z < p.Z && p.Z <= n.max.Z
}

// containsPointByData tests p against the closed box of the stored points.
func (n *node) containsPointByData(p r3.Vector) bool {
	return n.dataMin.X <= p.X && p.X <= n.dataMax.X &&
		n.dataMin.Y <= p.Y && p.Y <= n.dataMax.Y &&
		n.dataMin.Z <= p.Z && p.Z <= n.dataMax.Z
}

// childIndex returns the octant of p: bit 0 is set when p is above the center
// in x, bit 1 in y and bit 2 in z. A coordinate equal to the center goes to the
// lower octant, whose (min, max] range includes it.
func (n *node) childIndex(p r3.Vector) int {
	return octant(p, n.center())
}

func octant(p, c r3.Vector) int {
	idx := 0
	if p.X > c.X {
		idx |= 1
	}
	if p.Y > c.Y {
		idx |= 2
	}
	if p.Z > c.Z {
		idx |= 4
	}
	return idx
}

func (n *node) child(i int) *node {
	return n.children[i]
}

func (n *node) updateCounterAndDataBounds(p r3.Vector) {
	n.numPoints++
	n.dataMin = r3.Vector{X: math.Min(n.dataMin.X, p.X), Y: math.Min(n.dataMin.Y, p.Y), Z: math.Min(n.dataMin.Z, p.Z)}
	n.dataMax = r3.Vector{X: math.Max(n.dataMax.X, p.X), Y: math.Max(n.dataMax.Y, p.Y), Z: math.Max(n.dataMax.Z, p.Z)}
}

// containsDuplicatePointsOnly returns true if every point under n sits exactly
// at p. Such a leaf never splits: subdividing cannot separate them.
func (n *node) containsDuplicatePointsOnly(p r3.Vector) bool {
	return n.numPoints > 0 && n.dataMin == p && n.dataMax == p
}

// canSubdivide returns false once the box is too small for its center to
// differ from its corners in floating point.
func (n *node) canSubdivide() bool {
	c := n.center()
	return (n.min.X < c.X && c.X < n.max.X) ||
		(n.min.Y < c.Y && c.Y < n.max.Y) ||
		(n.min.Z < c.Z && c.Z < n.max.Z)
}

// createChildNodes turns a leaf into an interior node: eight octant leaves are
// created and the leaf's ids are moved into them by their stored coordinates.
// Child counts are rebuilt from the moved points, so they sum to n.numPoints.
func (n *node) createChildNodes(points pc.Points) {
	c := n.center()
	var children [8]*node
	for i := range children {
		lo, hi := n.min, n.max
		if i&1 == 0 {
			hi.X = c.X
		} else {
			lo.X = c.X
		}
		if i&2 == 0 {
			hi.Y = c.Y
		} else {
			lo.Y = c.Y
		}
		if i&4 == 0 {
			hi.Z = c.Z
		} else {
			lo.Z = c.Z
		}
		children[i] = newLeafNode(lo, hi)
	}
	for _, id := range n.ids {
		p := points.At(id)
		child := children[octant(p, c)]
		child.ids = append(child.ids, id)
		child.updateCounterAndDataBounds(p)
	}
	n.children = &children
	n.ids = nil
}

// insertPoint adds p below n and returns its id. The counts and data bounds of
// n and every node on the way down are updated after the point lands, so a
// parent's count is always the sum of its children's.
func (n *node) insertPoint(points pc.Points, p r3.Vector, maxPointsPerLeaf, id int, mode insertMode) int {
	if n.isLeaf() {
		if n.numPoints < maxPointsPerLeaf || n.containsDuplicatePointsOnly(p) || !n.canSubdivide() {
			id = mode.store(points, p, id)
			n.ids = append(n.ids, id)
			n.updateCounterAndDataBounds(p)
			return id
		}
		n.createChildNodes(points)
	}
	id = n.child(n.childIndex(p)).insertPoint(points, p, maxPointsPerLeaf, id, mode)
	n.updateCounterAndDataBounds(p)
	return id
}

// leafContaining descends by octant to the leaf whose box holds p. For a p
// outside n this is the leaf nearest to p along the descent.
func (n *node) leafContaining(p r3.Vector) *node {
	for !n.isLeaf() {
		n = n.child(n.childIndex(p))
	}
	return n
}

// deleteChildNodes drops every descendant of n. The caller decides whether n
// itself is discarded.
func (n *node) deleteChildNodes() {
	if n.children == nil {
		return
	}
	for _, child := range n.children {
		child.deleteChildNodes()
	}
	n.children = nil
}

func (n *node) box(useData bool) (r3.Vector, r3.Vector) {
	if useData {
		return n.dataMin, n.dataMax
	}
	return n.min, n.max
}

// distance2ToBoundary returns the squared distance from p to the boundary of
// the node's box, or of the box of its points if useData is set. For a p
// outside the box this is the distance to the box. For a p inside it is the
// distance to the nearest wall that is not also a wall of root, since nothing
// can lie beyond those; math.MaxFloat64 if every wall is shared. An empty node
// is math.MaxFloat64 away when useData is set.
func (n *node) distance2ToBoundary(p r3.Vector, root *node, useData bool) float64 {
	if useData && n.numPoints == 0 {
		return math.MaxFloat64
	}
	lo, hi := n.box(useData)
	if !(pc.Bounds{Min: lo, Max: hi}).Contains(p) {
		return outsideDistance2(p, lo, hi)
	}
	return innerDistance2(p, lo, hi, root)
}

// distance2ToInnerBoundary is distance2ToBoundary for a p known to be inside
// the node's box.
func (n *node) distance2ToInnerBoundary(p r3.Vector, root *node) float64 {
	return innerDistance2(p, n.min, n.max, root)
}

func innerDistance2(p, lo, hi r3.Vector, root *node) float64 {
	pv, lv, hv := components(p), components(lo), components(hi)
	rl, rh := components(root.min), components(root.max)
	best := math.MaxFloat64
	for i := 0; i < 3; i++ {
		if lv[i] != rl[i] {
			d := pv[i] - lv[i]
			best = math.Min(best, d*d)
		}
		if hv[i] != rh[i] {
			d := hv[i] - pv[i]
			best = math.Min(best, d*d)
		}
	}
	return best
}

func outsideDistance2(p, lo, hi r3.Vector) float64 {
	dx := axisDist(p.X, lo.X, hi.X)
	dy := axisDist(p.Y, lo.Y, hi.Y)
	dz := axisDist(p.Z, lo.Z, hi.Z)
	return dx*dx + dy*dy + dz*dz
}

func axisDist(k, lo, hi float64) float64 {
	if k < lo {
		return lo - k
	}
	if k <= hi {
		return 0
	}
	return k - hi
}

// minDistance2 is a lower bound on the squared distance from p to any point
// under n: zero when p is inside the box.
func (n *node) minDistance2(p r3.Vector, useData bool) float64 {
	if useData && n.numPoints == 0 {
		return math.MaxFloat64
	}
	lo, hi := n.box(useData)
	return outsideDistance2(p, lo, hi)
}

// maxDistance2 is an upper bound on the squared distance from p to any point
// under n: the distance to the farthest corner.
func (n *node) maxDistance2(p r3.Vector, useData bool) float64 {
	lo, hi := n.box(useData)
	dx := math.Max(math.Abs(p.X-lo.X), math.Abs(p.X-hi.X))
	dy := math.Max(math.Abs(p.Y-lo.Y), math.Abs(p.Y-hi.Y))
	dz := math.Max(math.Abs(p.Z-lo.Z), math.Abs(p.Z-hi.Z))
	return dx*dx + dy*dy + dz*dz
}

// exportAllPointIDsByInsertion appends the ids of every point under n to ids.
func (n *node) exportAllPointIDsByInsertion(ids []int) []int {
	if n.isLeaf() {
		return append(ids, n.ids...)
	}
	for _, child := range n.children {
		ids = child.exportAllPointIDsByInsertion(ids)
	}
	return ids
}

// exportAllPointIDsByDirectSet writes the ids of every point under n into ids
// starting at offset and returns the offset past the last one written. ids
// must have room for them.
func (n *node) exportAllPointIDsByDirectSet(offset int, ids []int) int {
	if n.isLeaf() {
		return offset + copy(ids[offset:], n.ids)
	}
	for _, child := range n.children {
		offset = child.exportAllPointIDsByDirectSet(offset, ids)
	}
	return offset
}

func components(v r3.Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
