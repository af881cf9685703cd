package octree

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	pc "go.viam.com/spatialindex/pointcloud"
)

// randomPoints returns n points uniformly spread over [lo, hi)³.
func randomPoints(rng *rand.Rand, n int, lo, hi float64) []r3.Vector {
	vs := make([]r3.Vector, n)
	for i := range vs {
		vs[i] = pc.NewVector(
			lo+rng.Float64()*(hi-lo),
			lo+rng.Float64()*(hi-lo),
			lo+rng.Float64()*(hi-lo),
		)
	}
	return vs
}

// newInsertedLocator grows a locator one point at a time over the bounds of vs.
func newInsertedLocator(t *testing.T, vs []r3.Vector, maxPointsPerLeaf int) *Locator {
	t.Helper()
	l, err := NewLocator(&Config{MaxPointsPerLeaf: maxPointsPerLeaf}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	err = l.InitPointInsertion(pc.NewPoints(pc.Float64, len(vs)), pc.NewPointsFromVectors(vs).Bounds())
	test.That(t, err, test.ShouldBeNil)
	for i, v := range vs {
		test.That(t, l.InsertPointWithoutChecking(v), test.ShouldEqual, i)
	}
	return l
}

// newBuiltLocator builds a locator over a point set holding vs.
func newBuiltLocator(t *testing.T, vs []r3.Vector, maxPointsPerLeaf int) *Locator {
	t.Helper()
	l, err := NewLocator(&Config{MaxPointsPerLeaf: maxPointsPerLeaf}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	l.SetDataSet(pc.NewBasicPointSetFromPoints(pc.NewPointsFromVectors(vs)))
	test.That(t, l.BuildLocator(), test.ShouldBeNil)
	return l
}

// checkTreeInvariants verifies that every indexed point sits in the leaf found
// by descending from the root and that interior counts are sums of their
// children's.
func checkTreeInvariants(t *testing.T, l *Locator) {
	t.Helper()
	for id := 0; id < l.points.Len(); id++ {
		p := l.points.At(id)
		test.That(t, l.root.containsPoint(p), test.ShouldBeTrue)
		test.That(t, l.root.leafContaining(p).ids, test.ShouldContain, id)
	}
	l.root.walk(0, func(n *node, _ int) bool {
		if n.isLeaf() {
			test.That(t, n.numPoints, test.ShouldEqual, len(n.ids))
			return true
		}
		sum := 0
		for _, child := range n.children {
			sum += child.numPoints
			if child.numPoints > 0 {
				test.That(t, n.containsPointByData(child.dataMin), test.ShouldBeTrue)
				test.That(t, n.containsPointByData(child.dataMax), test.ShouldBeTrue)
			}
		}
		test.That(t, n.numPoints, test.ShouldEqual, sum)
		return true
	})
}

func bruteForceDistances(vs []r3.Vector, x r3.Vector) []float64 {
	dists := make([]float64, len(vs))
	for i, v := range vs {
		dists[i] = v.Sub(x).Norm2()
	}
	return dists
}

func bruteForceClosest(vs []r3.Vector, x r3.Vector) float64 {
	best := math.MaxFloat64
	for _, d := range bruteForceDistances(vs, x) {
		best = math.Min(best, d)
	}
	return best
}

func bruteForceWithinRadius(vs []r3.Vector, radius2 float64, x r3.Vector) []int {
	ids := []int{}
	for i, d := range bruteForceDistances(vs, x) {
		if d <= radius2 {
			ids = append(ids, i)
		}
	}
	return ids
}

func sortedCopy(ids []int) []int {
	out := append([]int{}, ids...)
	sort.Ints(out)
	return out
}
