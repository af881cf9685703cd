package octree

import (
	"github.com/samber/lo"

	pc "go.viam.com/spatialindex/pointcloud"
	"go.viam.com/spatialindex/utils"
)

// walk visits n and its descendants depth first with their depth below the
// root. Returning false from fn skips the node's children.
func (n *node) walk(depth int, fn func(n *node, depth int) bool) {
	if !fn(n, depth) || n.isLeaf() {
		return
	}
	for _, child := range n.children {
		child.walk(depth+1, fn)
	}
}

// NumberOfNodes returns how many nodes, interior and leaf, the tree has.
func (l *Locator) NumberOfNodes() int {
	if l.root == nil {
		return 0
	}
	count := 0
	l.root.walk(0, func(*node, int) bool {
		count++
		return true
	})
	return count
}

// NumberOfLeafNodes returns how many leaves the tree has.
func (l *Locator) NumberOfLeafNodes() int {
	if l.root == nil {
		return 0
	}
	count := 0
	l.root.walk(0, func(n *node, _ int) bool {
		if n.isLeaf() {
			count++
		}
		return true
	})
	return count
}

// Depth returns the number of levels below the root; a lone root is depth 0
// and no tree is -1.
func (l *Locator) Depth() int {
	if l.root == nil {
		return -1
	}
	deepest := 0
	l.root.walk(0, func(_ *node, depth int) bool {
		deepest = utils.MaxInt(deepest, depth)
		return true
	})
	return deepest
}

// GenerateRepresentation returns the boxes of the nodes at the given depth
// below the root, together with any leaf that ends above it. A negative level
// returns the boxes of all leaves.
func (l *Locator) GenerateRepresentation(level int) []pc.Bounds {
	if l.root == nil {
		return nil
	}
	var nodes []*node
	l.root.walk(0, func(n *node, depth int) bool {
		if depth == level || (n.isLeaf() && (level < 0 || depth < level)) {
			nodes = append(nodes, n)
			return false
		}
		return true
	})
	return lo.Map(nodes, func(n *node, _ int) pc.Bounds {
		return pc.Bounds{Min: n.min, Max: n.max}
	})
}
