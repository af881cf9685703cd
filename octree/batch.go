package octree

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/spatialindex/utils"
)

// Neighbor is the answer to one closest point query.
type Neighbor struct {
	ID        int
	Distance2 float64
	Found     bool
}

// queryParallel builds the tree once and then runs query for every index in
// [0, size) across utils.ParallelFactor goroutines. Each group stops at the
// first query after ctx is done.
func (l *Locator) queryParallel(ctx context.Context, size int, query func(i int)) error {
	l.buildIfNeeded()
	var groupErrs []error
	err := utils.GroupWorkParallel(
		ctx,
		size,
		func(numGroups int) {
			groupErrs = make([]error, numGroups)
		},
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				if groupErrs[groupNum] != nil {
					return
				}
				if err := ctx.Err(); err != nil {
					groupErrs[groupNum] = err
					return
				}
				query(workNum)
			}, nil
		},
	)
	if combined := multierr.Combine(groupErrs...); combined != nil {
		return combined
	}
	return err
}

// FindClosestPoints answers FindClosestPoint for every point of xs in
// parallel. Results line up with xs. No point may be inserted while it runs.
func (l *Locator) FindClosestPoints(ctx context.Context, xs []r3.Vector) ([]Neighbor, error) {
	results := make([]Neighbor, len(xs))
	err := l.queryParallel(ctx, len(xs), func(i int) {
		id, dist2, ok := l.FindClosestInsertedPoint(xs[i])
		results[i] = Neighbor{ID: id, Distance2: dist2, Found: ok}
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindClosestNPointsBatch answers FindClosestNPoints(n, x) for every x of xs
// in parallel. No point may be inserted while it runs.
func (l *Locator) FindClosestNPointsBatch(ctx context.Context, n int, xs []r3.Vector) ([][]int, error) {
	results := make([][]int, len(xs))
	err := l.queryParallel(ctx, len(xs), func(i int) {
		results[i] = l.findClosestNPoints(n, xs[i])
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// IDs returns the ids of the neighbors that were found.
func IDs(neighbors []Neighbor) []int {
	found := lo.Filter(neighbors, func(nb Neighbor, _ int) bool { return nb.Found })
	return lo.Map(found, func(nb Neighbor, _ int) int { return nb.ID })
}
