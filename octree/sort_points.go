package octree

import (
	"math"

	"github.com/google/btree"
)

// distanceBucket groups the ids found at one squared distance, in the order
// they were inserted.
type distanceBucket struct {
	dist2 float64
	ids   []int
}

// sortPoints keeps the n closest points offered to it, ordered by squared
// distance. Points tied with the n-th best are all kept until a closer point
// makes the whole tied bucket redundant, so nothing closer than the current
// n-th best is ever dropped.
type sortPoints struct {
	numDesired   int
	numInserted  int
	largestDist2 float64
	buckets      *btree.BTreeG[*distanceBucket]
}

func newSortPoints(n int) *sortPoints {
	return &sortPoints{
		numDesired:   n,
		largestDist2: -math.MaxFloat64,
		buckets: btree.NewG[*distanceBucket](8, func(a, b *distanceBucket) bool {
			return a.dist2 < b.dist2
		}),
	}
}

// insertPoint offers id at squared distance dist2.
func (sp *sortPoints) insertPoint(dist2 float64, id int) {
	if sp.numInserted >= sp.numDesired && dist2 > sp.largestDist2 {
		return
	}

	bucket, ok := sp.buckets.Get(&distanceBucket{dist2: dist2})
	if !ok {
		bucket = &distanceBucket{dist2: dist2}
		sp.buckets.ReplaceOrInsert(bucket)
	}
	bucket.ids = append(bucket.ids, id)
	sp.numInserted++
	if dist2 > sp.largestDist2 {
		sp.largestDist2 = dist2
	}

	if sp.numInserted > sp.numDesired {
		last, _ := sp.buckets.Max()
		if sp.numInserted-len(last.ids) >= sp.numDesired {
			sp.buckets.DeleteMax()
			sp.numInserted -= len(last.ids)
			last, _ = sp.buckets.Max()
			sp.largestDist2 = last.dist2
		}
	}
}

// worstDist2 is the pruning bound: a point farther than this cannot be among
// the n closest. Until n points have been seen every point can.
func (sp *sortPoints) worstDist2() float64 {
	if sp.numInserted < sp.numDesired {
		return math.MaxFloat64
	}
	return sp.largestDist2
}

// exportIDs appends the n closest ids to ids in ascending distance order.
func (sp *sortPoints) exportIDs(ids []int) []int {
	remaining := sp.numDesired
	sp.buckets.Ascend(func(bucket *distanceBucket) bool {
		for _, id := range bucket.ids {
			if remaining == 0 {
				return false
			}
			ids = append(ids, id)
			remaining--
		}
		return remaining > 0
	})
	return ids
}
