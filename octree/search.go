package octree

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/tidwall/tinyqueue"
)

// findClosestPointInLeaf scans the leaf's points. It returns -1 and
// math.MaxFloat64 for an empty leaf.
func (l *Locator) findClosestPointInLeaf(leaf *node, x r3.Vector) (int, float64) {
	closest := -1
	minDist2 := math.MaxFloat64
	for _, id := range leaf.ids {
		if dist2 := l.points.At(id).Sub(x).Norm2(); dist2 < minDist2 {
			minDist2 = dist2
			closest = id
		}
	}
	return closest, minDist2
}

// sphereItem is a node queued for the expanding sphere search, keyed by the
// smallest distance any of its points can have to the query.
type sphereItem struct {
	node  *node
	dist2 float64
}

func (item *sphereItem) Less(b tinyqueue.Item) bool {
	return item.dist2 < b.(*sphereItem).dist2
}

// findClosestPointInSphere returns the point closest to x among those within
// radius2 of it, skipping the mask leaf. Nodes are visited nearest first and
// the search stops once the nearest unvisited node is farther than the best
// point found.
func (l *Locator) findClosestPointInSphere(x r3.Vector, radius2 float64, mask *node) (int, float64, bool) {
	closest := -1
	bound := radius2

	queue := tinyqueue.New(nil)
	if l.root.numPoints > 0 && l.root != mask {
		queue.Push(&sphereItem{node: l.root, dist2: l.root.minDistance2(x, true)})
	}
	for queue.Len() > 0 {
		item := queue.Pop().(*sphereItem)
		if item.dist2 > bound || (closest >= 0 && item.dist2 >= bound) {
			break
		}
		if !item.node.isLeaf() {
			for _, child := range item.node.children {
				if child.numPoints == 0 || child == mask {
					continue
				}
				if dist2 := child.minDistance2(x, true); dist2 <= bound {
					queue.Push(&sphereItem{node: child, dist2: dist2})
				}
			}
			continue
		}
		for _, id := range item.node.ids {
			dist2 := l.points.At(id).Sub(x).Norm2()
			if dist2 < bound || (closest < 0 && dist2 <= bound) {
				closest = id
				bound = dist2
			}
		}
	}
	if closest < 0 {
		return -1, math.MaxFloat64, false
	}
	return closest, bound, true
}

// clampToRoot moves x onto the root box, just inside its walls, to pick a
// starting leaf for a query from outside the tree.
func (l *Locator) clampToRoot(x r3.Vector) r3.Vector {
	v, lo, hi := components(x), components(l.root.min), components(l.root.max)
	for i := 0; i < 3; i++ {
		if v[i] <= lo[i] {
			v[i] = lo[i] + l.fudgeFactor
		} else if v[i] > hi[i] {
			v[i] = hi[i] - l.fudgeFactor
		}
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}

// FindClosestPoint returns the id of the indexed point closest to x, its
// squared distance and true. It returns -1, math.MaxFloat64 and false if
// nothing is indexed. A data set backed locator is rebuilt first if stale.
func (l *Locator) FindClosestPoint(x r3.Vector) (int, float64, bool) {
	l.buildIfNeeded()
	return l.FindClosestInsertedPoint(x)
}

// FindClosestInsertedPoint is FindClosestPoint against the tree as it stands,
// for use while points are being inserted.
func (l *Locator) FindClosestInsertedPoint(x r3.Vector) (int, float64, bool) {
	if l.root == nil || l.root.numPoints == 0 {
		return -1, math.MaxFloat64, false
	}

	var leaf *node
	var closest int
	var minDist2 float64
	if l.root.containsPoint(x) {
		leaf = l.root.leafContaining(x)
		closest, minDist2 = l.findClosestPointInLeaf(leaf, x)
		if minDist2 == 0 {
			return closest, 0, true
		}
		// nothing outside the leaf can beat a point closer than its walls
		if closest >= 0 && minDist2 <= leaf.distance2ToInnerBoundary(x, l.root) {
			return closest, minDist2, true
		}
	} else {
		leaf = l.root.leafContaining(l.clampToRoot(x))
		closest, minDist2 = l.findClosestPointInLeaf(leaf, x)
	}

	if id, dist2, ok := l.findClosestPointInSphere(x, minDist2, leaf); ok && (closest < 0 || dist2 < minDist2) {
		closest, minDist2 = id, dist2
	}
	return closest, minDist2, closest >= 0
}

// FindClosestPointWithinRadius returns the point closest to x among those at
// most radius away, with its squared distance, or -1 and false if there is
// none.
func (l *Locator) FindClosestPointWithinRadius(radius float64, x r3.Vector) (int, float64, bool) {
	return l.FindClosestPointWithinSquaredRadius(radius*radius, x)
}

// FindClosestPointWithinSquaredRadius is FindClosestPointWithinRadius with the
// radius given squared.
func (l *Locator) FindClosestPointWithinSquaredRadius(radius2 float64, x r3.Vector) (int, float64, bool) {
	l.buildIfNeeded()
	if l.root == nil || radius2 < 0 {
		return -1, math.MaxFloat64, false
	}
	return l.findClosestPointInSphere(x, radius2, nil)
}

// FindPointsWithinRadius returns the ids of every point at most radius away
// from x, in no particular order.
func (l *Locator) FindPointsWithinRadius(radius float64, x r3.Vector) []int {
	return l.FindPointsWithinSquaredRadius(radius*radius, x)
}

// FindPointsWithinSquaredRadius is FindPointsWithinRadius with the radius
// given squared.
func (l *Locator) FindPointsWithinSquaredRadius(radius2 float64, x r3.Vector) []int {
	l.buildIfNeeded()
	if l.root == nil || radius2 < 0 {
		return nil
	}
	return l.findPointsWithinSquaredRadius(l.root, radius2, x, nil)
}

// findPointsWithinSquaredRadius skips nodes wholly outside the sphere, takes
// nodes wholly inside it without checking their points, and recurses into the
// rest.
func (l *Locator) findPointsWithinSquaredRadius(n *node, radius2 float64, x r3.Vector, ids []int) []int {
	if n.numPoints == 0 || n.minDistance2(x, true) > radius2 {
		return ids
	}
	if n.maxDistance2(x, true) <= radius2 {
		return n.exportAllPointIDsByInsertion(ids)
	}
	if n.isLeaf() {
		for _, id := range n.ids {
			if l.points.At(id).Sub(x).Norm2() <= radius2 {
				ids = append(ids, id)
			}
		}
		return ids
	}
	for _, child := range n.children {
		ids = l.findPointsWithinSquaredRadius(child, radius2, x, ids)
	}
	return ids
}

// FindClosestNPoints returns the ids of the n points closest to x in
// ascending distance order; points at equal distance keep the order in which
// the search met them. If fewer than n points are indexed all of them are
// returned and a warning is logged.
func (l *Locator) FindClosestNPoints(n int, x r3.Vector) []int {
	l.buildIfNeeded()
	return l.findClosestNPoints(n, x)
}

func (l *Locator) findClosestNPoints(n int, x r3.Vector) []int {
	if l.root == nil || n <= 0 || l.root.numPoints == 0 {
		return nil
	}
	if total := l.root.numPoints; n > total {
		l.logger.Warnw("fewer points than requested", "requested", n, "available", total)
		n = total
	}

	start := l.findStartNode(n, x)

	sorted := newSortPoints(n)
	candidates := make([]int, start.numPoints)
	start.exportAllPointIDsByDirectSet(0, candidates)
	for _, id := range candidates {
		sorted.insertPoint(l.points.At(id).Sub(x).Norm2(), id)
	}

	queue := []*node{l.root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == start || current.minDistance2(x, true) > sorted.worstDist2() {
			continue
		}
		if current.isLeaf() {
			for _, id := range current.ids {
				sorted.insertPoint(l.points.At(id).Sub(x).Norm2(), id)
			}
			continue
		}
		for _, child := range current.children {
			if child.numPoints > 0 {
				queue = append(queue, child)
			}
		}
	}

	return sorted.exportIDs(make([]int, 0, n))
}

// findStartNode descends from the root towards x while the next node still
// holds at least n points, so the returned node is a compact set that already
// contains n candidates. From inside the root it follows the octant holding x;
// from outside it follows the child whose points are nearest.
func (l *Locator) findStartNode(n int, x r3.Vector) *node {
	var parent *node
	current := l.root
	inside := l.root.containsPoint(x)
	for !current.isLeaf() {
		var next *node
		if inside {
			next = current.child(current.childIndex(x))
		} else {
			best := math.MaxFloat64
			for _, child := range current.children {
				if dist2 := child.distance2ToBoundary(x, l.root, true); dist2 < best {
					best = dist2
					next = child
				}
			}
		}
		if next == nil || next.numPoints < n {
			break
		}
		parent, current = current, next
	}

	if current.numPoints == 0 && parent != nil {
		// landed in an empty octant: fall back to its nearest populated sibling
		best := math.MaxFloat64
		for _, sibling := range parent.children {
			if sibling.numPoints == 0 {
				continue
			}
			if dist2 := sibling.minDistance2(x, true); dist2 < best {
				best = dist2
				current = sibling
			}
		}
	}
	return current
}
