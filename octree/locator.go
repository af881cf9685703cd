package octree

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	pc "go.viam.com/spatialindex/pointcloud"
	"go.viam.com/spatialindex/utils"
)

// Locator is an incremental octree point locator. It owns its node tree and
// shares the coordinate storage handed to InitPointInsertion (or owned by the
// attached data set) with the caller; that storage must not be changed by
// anyone else while the locator uses it.
type Locator struct {
	logger golog.Logger

	maxPointsPerLeaf int
	tolerance        float64
	insertTolerance2 float64
	buildCubicOctree bool

	dataSet pc.PointSet
	points  pc.Points
	root    *node

	// maxDimSize is the largest extent of the bounds the root was sized from.
	maxDimSize  float64
	fudgeFactor float64

	modTime   uint64
	buildTime uint64
}

// NewLocator returns a locator configured by cfg, which may be nil for the
// defaults. A nil logger logs to the global logger.
func NewLocator(cfg *Config, logger golog.Logger) (*Locator, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Validate("octree"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = golog.Global()
	}
	l := &Locator{logger: logger}
	l.SetMaxPointsPerLeaf(cfg.MaxPointsPerLeaf)
	l.SetTolerance(cfg.Tolerance)
	l.SetBuildCubicOctree(cfg.BuildCubicOctree)
	return l, nil
}

func (l *Locator) modified() {
	l.modTime = pc.NextModTime()
}

// SetMaxPointsPerLeaf sets the leaf capacity, clamped to
// [MinMaxPointsPerLeaf, MaxMaxPointsPerLeaf]; zero selects the default. It
// applies to leaves filled after the call.
func (l *Locator) SetMaxPointsPerLeaf(n int) {
	if n == 0 {
		n = DefaultMaxPointsPerLeaf
	}
	clamped := utils.ClampInt(n, MinMaxPointsPerLeaf, MaxMaxPointsPerLeaf)
	if clamped != n {
		l.logger.Debugw("clamped max points per leaf", "requested", n, "used", clamped)
	}
	if clamped != l.maxPointsPerLeaf {
		l.maxPointsPerLeaf = clamped
		l.modified()
	}
}

// MaxPointsPerLeaf returns the leaf capacity.
func (l *Locator) MaxPointsPerLeaf() int {
	return l.maxPointsPerLeaf
}

// SetTolerance sets the duplicate distance used by InsertUniquePoint and
// IsInsertedPoint. Negative values are treated as zero.
func (l *Locator) SetTolerance(tolerance float64) {
	tolerance = math.Max(tolerance, 0)
	if tolerance != l.tolerance {
		l.tolerance = tolerance
		l.modified()
	}
	l.insertTolerance2 = utils.Square(tolerance)
}

// Tolerance returns the duplicate distance.
func (l *Locator) Tolerance() float64 {
	return l.tolerance
}

// SetBuildCubicOctree controls whether the root is padded into a cube.
func (l *Locator) SetBuildCubicOctree(cubic bool) {
	if cubic != l.buildCubicOctree {
		l.buildCubicOctree = cubic
		l.modified()
	}
}

// BuildCubicOctree returns whether the root is padded into a cube.
func (l *Locator) BuildCubicOctree() bool {
	return l.buildCubicOctree
}

// SetDataSet attaches the point set BuildLocator indexes.
func (l *Locator) SetDataSet(ds pc.PointSet) {
	l.dataSet = ds
	l.modified()
}

// DataSet returns the attached point set, if any.
func (l *Locator) DataSet() pc.PointSet {
	return l.dataSet
}

// Points returns the coordinate storage the locator indexes into.
func (l *Locator) Points() pc.Points {
	return l.points
}

// InitPointInsertion discards any existing tree and starts an empty one over
// bounds, indexing into points. Coordinates inserted afterwards are stored in
// points. The root box is bounds with its lower corner pulled back by a small
// fudge factor so that points on the lower faces are inside, with any side
// thinner than a hundredth of the largest one widened symmetrically to that
// size, and padded into a cube if BuildCubicOctree is set.
//
// It is not safe to call concurrently with any other method.
func (l *Locator) InitPointInsertion(points pc.Points, bounds pc.Bounds) error {
	if points == nil {
		l.logger.Errorw("cannot initialize point insertion", "error", ErrNilPoints)
		return ErrNilPoints
	}
	if bounds.IsEmpty() {
		l.logger.Errorw("cannot initialize point insertion", "error", ErrInvalidBounds, "bounds", bounds)
		return errors.Wrapf(ErrInvalidBounds, "bounds %v", bounds)
	}

	l.FreeSearchStructure()
	l.points = points

	lo, hi := components(bounds.Min), components(bounds.Max)
	dims := components(bounds.Size())
	maxDim := bounds.MaxDimension()
	if maxDim == 0 {
		// all points coincide; size the root as if the data spanned one unit
		maxDim = 1
	}

	if l.buildCubicOctree {
		for i := 0; i < 3; i++ {
			if dims[i] != maxDim {
				delta := maxDim - dims[i]
				lo[i] -= 0.5 * delta
				hi[i] += 0.5 * delta
				dims[i] = maxDim
			}
		}
	}

	l.maxDimSize = maxDim
	l.fudgeFactor = maxDim * fudgeFactorScale
	minSideSize := maxDim * minSideSizeScale
	for i := 0; i < 3; i++ {
		if dims[i] < minSideSize {
			mid := 0.5 * (lo[i] + hi[i])
			lo[i] = mid - 0.5*minSideSize
			hi[i] = mid + 0.5*minSideSize
		} else {
			lo[i] -= l.fudgeFactor
		}
	}

	l.root = newLeafNode(
		r3.Vector{X: lo[0], Y: lo[1], Z: lo[2]},
		r3.Vector{X: hi[0], Y: hi[1], Z: hi[2]},
	)
	return nil
}

// FreeSearchStructure deletes the tree and releases the coordinate storage.
// It is a no-op if nothing was built.
func (l *Locator) FreeSearchStructure() {
	if l.root != nil {
		l.root.deleteChildNodes()
		l.root = nil
	}
	l.points = nil
	l.buildTime = 0
}

// Initialize returns the locator to its unbuilt state; see FreeSearchStructure.
func (l *Locator) Initialize() {
	l.FreeSearchStructure()
}

// BuildLocator indexes every point of the attached data set, in id order. It
// does nothing if the tree is newer than both the locator's configuration and
// the data set.
//
// It is not safe to call concurrently with any other method.
func (l *Locator) BuildLocator() error {
	if l.dataSet == nil {
		l.logger.Errorw("cannot build locator", "error", ErrNoDataSet)
		return ErrNoDataSet
	}
	numPoints := l.dataSet.NumberOfPoints()
	if numPoints < 1 {
		l.logger.Errorw("cannot build locator", "error", ErrTooFewPoints)
		return ErrTooFewPoints
	}
	if numPoints > maxPointCount {
		l.logger.Errorw("cannot build locator", "error", ErrTooManyPoints, "points", numPoints, "max", maxPointCount)
		return errors.Wrapf(ErrTooManyPoints, "%d points", numPoints)
	}

	if l.root != nil && l.buildTime > l.modTime && l.buildTime > l.dataSet.ModTime() {
		return nil
	}

	points := l.dataSet.Points()
	if err := l.InitPointInsertion(points, l.dataSet.Bounds()); err != nil {
		return errors.Wrap(err, "cannot build locator")
	}
	for id := 0; id < numPoints; id++ {
		l.InsertIndexWithoutChecking(id, points.At(id))
	}
	l.buildTime = pc.NextModTime()
	l.logger.Debugw("built octree locator", "points", numPoints, "nodes", l.NumberOfNodes())
	return nil
}

// buildIfNeeded brings a data set backed tree up to date before a query.
func (l *Locator) buildIfNeeded() {
	if l.dataSet == nil {
		return
	}
	if err := l.BuildLocator(); err != nil {
		l.logger.Debugw("query on unbuilt locator", "error", err)
	}
}

// NumberOfPoints returns how many points are indexed.
func (l *Locator) NumberOfPoints() int {
	if l.root == nil {
		return 0
	}
	return l.root.numPoints
}

// Bounds returns the root box and true, or false if there is no tree.
func (l *Locator) Bounds() (pc.Bounds, bool) {
	if l.root == nil {
		return pc.Bounds{}, false
	}
	return pc.Bounds{Min: l.root.min, Max: l.root.max}, true
}

// insert routes the point by its coordinate rounded to the storage precision,
// so that the stored coordinate and the routed one agree.
func (l *Locator) insert(x r3.Vector, id int, mode insertMode) int {
	if l.root == nil {
		return -1
	}
	if mode != insertIndexOnly && l.points.Len() >= maxPointCount {
		l.logger.Errorw("cannot insert point", "error", ErrTooManyPoints)
		return -1
	}
	return l.root.insertPoint(l.points, l.points.Quantize(x), l.maxPointsPerLeaf, id, mode)
}

// InsertPointWithoutChecking appends x to the coordinate storage and indexes
// it without looking for duplicates. It returns the new id, or -1 if point
// insertion was not initialized.
func (l *Locator) InsertPointWithoutChecking(x r3.Vector) int {
	return l.insert(x, -1, insertNext)
}

// InsertIndexWithoutChecking indexes id, whose coordinate x is already in the
// coordinate storage, without looking for duplicates.
func (l *Locator) InsertIndexWithoutChecking(id int, x r3.Vector) {
	l.insert(x, id, insertIndexOnly)
}

// InsertPoint stores x at id and indexes it. The caller is expected to have
// ruled out duplicates with IsInsertedPoint.
func (l *Locator) InsertPoint(id int, x r3.Vector) {
	l.insert(x, id, insertWithID)
}

// InsertNextPoint appends x and indexes it, returning the new id. The caller
// is expected to have ruled out duplicates with IsInsertedPoint.
func (l *Locator) InsertNextPoint(x r3.Vector) int {
	return l.insert(x, -1, insertNext)
}

// InsertUniquePoint inserts x unless a duplicate already exists. It returns
// true and the new id if x was inserted, or false and the id of the existing
// duplicate. It returns false and -1 if point insertion was not initialized.
func (l *Locator) InsertUniquePoint(x r3.Vector) (bool, int) {
	if l.root == nil {
		return false, -1
	}
	if id, ok := l.IsInsertedPoint(x); ok {
		return false, id
	}
	id := l.insert(x, -1, insertNext)
	return id >= 0, id
}

// IsInsertedPoint returns the id of a point that duplicates x and true, or -1
// and false if there is none. With a zero tolerance a duplicate has bit for bit
// equal coordinates in the storage precision; otherwise it lies within the
// tolerance of x.
func (l *Locator) IsInsertedPoint(x r3.Vector) (int, bool) {
	if l.root == nil || l.root.numPoints == 0 {
		return -1, false
	}
	p := l.points.Quantize(x)
	leaf := l.root.leafContaining(p)
	if l.insertTolerance2 == 0 {
		if !leaf.containsPointByData(p) {
			return -1, false
		}
		for _, id := range leaf.ids {
			if l.points.ExactlyEqual(id, p) {
				return id, true
			}
		}
		return -1, false
	}

	id, dist2 := l.findClosestPointInLeaf(leaf, p)
	if id >= 0 && dist2 <= l.insertTolerance2 {
		return id, true
	}
	// a duplicate outside the leaf is at least as far as the leaf's walls
	if l.root.containsPoint(p) && leaf.distance2ToInnerBoundary(p, l.root) > l.insertTolerance2 {
		return -1, false
	}
	id, _, ok := l.findClosestPointInSphere(p, l.insertTolerance2, leaf)
	return id, ok
}
