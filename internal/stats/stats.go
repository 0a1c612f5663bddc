package stats

import (
	"math"
	"sort"

	"github.com/zdemat/interceptor/pkg/types"
)

// Summary holds the history-scoped aggregates for one run.
type Summary struct {
	// IndexedCount is how many records in the full history indexed
	// (non-NaN indexed field).
	IndexedCount int

	// MedianResolution is the median over every resolution ever recorded.
	// NaN while the history is empty; consumers render a placeholder.
	MedianResolution float64
}

// Aggregate computes the Summary over a run's full history, independent of
// the visible window.
func Aggregate(records []types.Record) Summary {
	sum := Summary{MedianResolution: math.NaN()}
	if len(records) == 0 {
		return sum
	}

	res := make([]float64, 0, len(records))
	for _, r := range records {
		if r.IsIndexed() {
			sum.IndexedCount++
		}
		res = append(res, r.Resolution)
	}
	sum.MedianResolution = Median(res)
	return sum
}

// Median returns the standard median: the middle value for odd counts, the
// mean of the two middle values for even counts, NaN for an empty input.
// The input slice is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return math.NaN()
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
