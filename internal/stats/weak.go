package stats

import (
	"sort"

	"github.com/verte-zerg/tuimath/internal/model"
)

// WeakOperations selects the top lowest-accuracy operations that have been
// answered at least once. Ties keep canonical operation order.
func WeakOperations(st model.Statistics, top int) []model.Operation {
	if top <= 0 || len(st.PerformanceByOperation) == 0 {
		return nil
	}
	candidates := make([]model.Operation, 0, len(st.PerformanceByOperation))
	for _, op := range model.AllOperations {
		if _, ok := st.PerformanceByOperation[op]; ok {
			candidates = append(candidates, op)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return st.PerformanceByOperation[candidates[i]] < st.PerformanceByOperation[candidates[j]]
	})
	if len(candidates) > top {
		candidates = candidates[:top]
	}
	return candidates
}
