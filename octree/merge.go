package octree

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	pc "go.viam.com/spatialindex/pointcloud"
)

// MergeDuplicatePoints returns a copy of src with every point lying within
// tolerance of an earlier kept point removed, together with a map from each id
// of src to the id of the point it was merged into. The copy keeps the data
// type of src and the first point of each cluster.
func MergeDuplicatePoints(src pc.Points, tolerance float64, logger golog.Logger) (pc.Points, []int, error) {
	if src == nil {
		return nil, nil, ErrNilPoints
	}
	merged := pc.NewPoints(src.DataType(), src.Len())
	if src.Len() == 0 {
		return merged, []int{}, nil
	}

	locator, err := NewLocator(&Config{Tolerance: tolerance}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := locator.InitPointInsertion(merged, src.Bounds()); err != nil {
		return nil, nil, errors.Wrap(err, "cannot merge points")
	}

	pointMap := make([]int, src.Len())
	for id := 0; id < src.Len(); id++ {
		_, mergedID := locator.InsertUniquePoint(src.At(id))
		if mergedID < 0 {
			return nil, nil, errors.Errorf("cannot merge point %d", id)
		}
		pointMap[id] = mergedID
	}
	locator.logger.Debugw("merged duplicate points", "in", src.Len(), "out", merged.Len(), "tolerance", tolerance)
	return merged, pointMap, nil
}
