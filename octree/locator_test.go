package octree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"

	pc "go.viam.com/spatialindex/pointcloud"
)

func TestNewLocator(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("defaults", func(t *testing.T) {
		l, err := NewLocator(nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.MaxPointsPerLeaf(), test.ShouldEqual, DefaultMaxPointsPerLeaf)
		test.That(t, l.Tolerance(), test.ShouldEqual, 0)
		test.That(t, l.BuildCubicOctree(), test.ShouldBeFalse)
		test.That(t, l.NumberOfPoints(), test.ShouldEqual, 0)
		_, ok := l.Bounds()
		test.That(t, ok, test.ShouldBeFalse)
	})

	t.Run("leaf capacity is clamped", func(t *testing.T) {
		l, err := NewLocator(&Config{MaxPointsPerLeaf: 1000}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.MaxPointsPerLeaf(), test.ShouldEqual, MaxMaxPointsPerLeaf)

		l.SetMaxPointsPerLeaf(1)
		test.That(t, l.MaxPointsPerLeaf(), test.ShouldEqual, MinMaxPointsPerLeaf)
		l.SetMaxPointsPerLeaf(64)
		test.That(t, l.MaxPointsPerLeaf(), test.ShouldEqual, 64)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewLocator(&Config{Tolerance: -1}, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "tolerance")
	})

	t.Run("nil logger", func(t *testing.T) {
		l, err := NewLocator(&Config{Tolerance: 0.5}, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.Tolerance(), test.ShouldEqual, 0.5)
	})
}

func TestInitPointInsertion(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("preconditions have no effect", func(t *testing.T) {
		l, err := NewLocator(nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(0, 1, 0, 1, 0, 1)), test.ShouldBeNil)
		test.That(t, l.InsertNextPoint(pc.NewVector(0.5, 0.5, 0.5)), test.ShouldEqual, 0)

		err = l.InitPointInsertion(nil, pc.NewBounds(0, 1, 0, 1, 0, 1))
		test.That(t, err, test.ShouldBeError, ErrNilPoints)
		test.That(t, l.NumberOfPoints(), test.ShouldEqual, 1)

		err = l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(1, 0, 0, 1, 0, 1))
		test.That(t, errors.Is(err, ErrInvalidBounds), test.ShouldBeTrue)
		test.That(t, l.NumberOfPoints(), test.ShouldEqual, 1)
		test.That(t, l.Points().Len(), test.ShouldEqual, 1)
	})

	t.Run("lower corner is pulled back", func(t *testing.T) {
		l, err := NewLocator(nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(0, 1, 0, 1, 0, 1)), test.ShouldBeNil)

		bounds, ok := l.Bounds()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, bounds.Min.X, test.ShouldAlmostEqual, -1e-5)
		test.That(t, bounds.Min.Y, test.ShouldAlmostEqual, -1e-5)
		test.That(t, bounds.Min.Z, test.ShouldAlmostEqual, -1e-5)
		test.That(t, bounds.Max, test.ShouldResemble, pc.NewVector(1, 1, 1))
		test.That(t, l.root.containsPoint(pc.NewVector(0, 0, 0)), test.ShouldBeTrue)
	})

	t.Run("thin sides are widened", func(t *testing.T) {
		l, err := NewLocator(nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(0, 2, 0, 1, 3, 3)), test.ShouldBeNil)

		bounds, _ := l.Bounds()
		test.That(t, bounds.Min.X, test.ShouldAlmostEqual, -2e-5)
		test.That(t, bounds.Max.X, test.ShouldAlmostEqual, 2)
		test.That(t, bounds.Min.Y, test.ShouldAlmostEqual, -2e-5)
		test.That(t, bounds.Min.Z, test.ShouldAlmostEqual, 2.99)
		test.That(t, bounds.Max.Z, test.ShouldAlmostEqual, 3.01)
	})

	t.Run("coincident bounds", func(t *testing.T) {
		l, err := NewLocator(nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(1, 1, 1, 1, 1, 1)), test.ShouldBeNil)

		bounds, _ := l.Bounds()
		test.That(t, bounds.Min.X, test.ShouldAlmostEqual, 0.995)
		test.That(t, bounds.Max.X, test.ShouldAlmostEqual, 1.005)
		test.That(t, l.root.containsPoint(pc.NewVector(1, 1, 1)), test.ShouldBeTrue)
	})

	t.Run("cubic", func(t *testing.T) {
		l, err := NewLocator(&Config{BuildCubicOctree: true}, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(0, 2, 0, 1, 0, 1)), test.ShouldBeNil)

		bounds, _ := l.Bounds()
		test.That(t, bounds.Min.X, test.ShouldAlmostEqual, -2e-5)
		test.That(t, bounds.Min.Y, test.ShouldAlmostEqual, -0.50002)
		test.That(t, bounds.Max.Y, test.ShouldAlmostEqual, 1.5)
		test.That(t, bounds.Min.Z, test.ShouldAlmostEqual, -0.50002)
		test.That(t, bounds.Max.Z, test.ShouldAlmostEqual, 1.5)
	})

	t.Run("center point goes to the high octant", func(t *testing.T) {
		l, err := NewLocator(nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(0, 1, 0, 1, 0, 1)), test.ShouldBeNil)

		p := pc.NewVector(0.5, 0.5, 0.5)
		for i := 0; i < 3; i++ {
			test.That(t, l.root.childIndex(p), test.ShouldEqual, 7)
		}
	})
}

func TestFreeSearchStructure(t *testing.T) {
	l := newInsertedLocator(t, randomPoints(rand.New(rand.NewSource(1)), 100, 0, 1), 16)
	test.That(t, l.NumberOfPoints(), test.ShouldEqual, 100)

	l.FreeSearchStructure()
	test.That(t, l.NumberOfPoints(), test.ShouldEqual, 0)
	test.That(t, l.Points(), test.ShouldBeNil)
	l.FreeSearchStructure()
	l.Initialize()

	id, dist2, ok := l.FindClosestPoint(pc.NewVector(0, 0, 0))
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, id, test.ShouldEqual, -1)
	test.That(t, dist2, test.ShouldEqual, math.MaxFloat64)
	test.That(t, l.FindPointsWithinRadius(1, pc.NewVector(0, 0, 0)), test.ShouldBeEmpty)
	test.That(t, l.FindClosestNPoints(3, pc.NewVector(0, 0, 0)), test.ShouldBeEmpty)
	test.That(t, l.InsertPointWithoutChecking(pc.NewVector(0, 0, 0)), test.ShouldEqual, -1)
	inserted, id := l.InsertUniquePoint(pc.NewVector(0, 0, 0))
	test.That(t, inserted, test.ShouldBeFalse)
	test.That(t, id, test.ShouldEqual, -1)
	id, ok = l.IsInsertedPoint(pc.NewVector(0, 0, 0))
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, id, test.ShouldEqual, -1)
}

func TestBuildLocator(t *testing.T) {
	logger := golog.NewTestLogger(t)

	t.Run("preconditions", func(t *testing.T) {
		l, err := NewLocator(nil, logger)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, l.BuildLocator(), test.ShouldBeError, ErrNoDataSet)

		l.SetDataSet(pc.NewBasicPointSet(pc.Float64, 0))
		test.That(t, l.BuildLocator(), test.ShouldBeError, ErrTooFewPoints)
		test.That(t, l.NumberOfPoints(), test.ShouldEqual, 0)
	})

	t.Run("rebuilds only when stale", func(t *testing.T) {
		vs := randomPoints(rand.New(rand.NewSource(2)), 500, -10, 10)
		set := pc.NewBasicPointSetFromPoints(pc.NewPointsFromVectors(vs))
		l, err := NewLocator(&Config{MaxPointsPerLeaf: 16}, logger)
		test.That(t, err, test.ShouldBeNil)
		l.SetDataSet(set)
		test.That(t, l.DataSet(), test.ShouldEqual, set)

		test.That(t, l.BuildLocator(), test.ShouldBeNil)
		test.That(t, l.NumberOfPoints(), test.ShouldEqual, 500)
		checkTreeInvariants(t, l)

		root := l.root
		test.That(t, l.BuildLocator(), test.ShouldBeNil)
		test.That(t, l.root, test.ShouldEqual, root)

		set.Append(pc.NewVector(20, 20, 20))
		id, dist2, ok := l.FindClosestPoint(pc.NewVector(20, 20, 21))
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, id, test.ShouldEqual, 500)
		test.That(t, dist2, test.ShouldAlmostEqual, 1)
		test.That(t, l.root, test.ShouldNotEqual, root)
		test.That(t, l.NumberOfPoints(), test.ShouldEqual, 501)

		root = l.root
		l.SetMaxPointsPerLeaf(32)
		test.That(t, l.BuildLocator(), test.ShouldBeNil)
		test.That(t, l.root, test.ShouldNotEqual, root)
		checkTreeInvariants(t, l)
	})
}

func TestInsertionInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, maxPts := range []int{16, 64, 256} {
		vs := randomPoints(rng, 2000, -5, 5)
		l := newInsertedLocator(t, vs, maxPts)
		test.That(t, l.NumberOfPoints(), test.ShouldEqual, len(vs))
		test.That(t, l.NumberOfLeafNodes(), test.ShouldBeGreaterThan, 1)
		checkTreeInvariants(t, l)
	}
}

func TestDuplicatesExceedLeafCapacity(t *testing.T) {
	l, err := NewLocator(&Config{MaxPointsPerLeaf: 16}, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(0, 1, 0, 1, 0, 1)), test.ShouldBeNil)

	p := pc.NewVector(0.3, 0.6, 0.9)
	for i := 0; i < l.MaxPointsPerLeaf()+50; i++ {
		test.That(t, l.InsertPointWithoutChecking(p), test.ShouldEqual, i)
	}
	test.That(t, l.NumberOfPoints(), test.ShouldEqual, l.MaxPointsPerLeaf()+50)
	test.That(t, l.NumberOfNodes(), test.ShouldEqual, 1)

	// a distinct point now splits the leaf but the duplicates stay together
	l.InsertPointWithoutChecking(pc.NewVector(0.9, 0.1, 0.1))
	test.That(t, l.NumberOfNodes(), test.ShouldEqual, 9)
	checkTreeInvariants(t, l)
}

func TestOutsideQuery(t *testing.T) {
	l, err := NewLocator(nil, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.InitPointInsertion(pc.NewPoints(pc.Float64, 0), pc.NewBounds(-1, 1, -1, 1, -1, 1)), test.ShouldBeNil)
	test.That(t, l.InsertNextPoint(pc.NewVector(0, 0, 0)), test.ShouldEqual, 0)

	id, dist2, ok := l.FindClosestPoint(pc.NewVector(5, 5, 5))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, id, test.ShouldEqual, 0)
	test.That(t, dist2, test.ShouldEqual, 75)

	_, _, ok = l.FindClosestPointWithinRadius(8, pc.NewVector(5, 5, 5))
	test.That(t, ok, test.ShouldBeFalse)
	id, dist2, ok = l.FindClosestPointWithinRadius(9, pc.NewVector(5, 5, 5))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, id, test.ShouldEqual, 0)
	test.That(t, dist2, test.ShouldEqual, 75)
}
