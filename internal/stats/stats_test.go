package stats

import (
	"math"
	"testing"

	"github.com/zdemat/interceptor/pkg/types"
)

func TestMedian_Odd(t *testing.T) {
	if got := Median([]float64{3.0, 1.0, 2.0}); got != 2.0 {
		t.Errorf("Median odd: got %v, want 2.0", got)
	}
}

func TestMedian_Even(t *testing.T) {
	if got := Median([]float64{1.0, 2.0}); got != 1.5 {
		t.Errorf("Median even: got %v, want 1.5", got)
	}
}

func TestMedian_Empty(t *testing.T) {
	if got := Median(nil); !math.IsNaN(got) {
		t.Errorf("Median empty: got %v, want NaN", got)
	}
}

func TestMedian_DoesNotMutateInput(t *testing.T) {
	in := []float64{3.0, 1.0, 2.0}
	Median(in)
	if in[0] != 3.0 || in[1] != 1.0 || in[2] != 2.0 {
		t.Errorf("Median reordered its input: %v", in)
	}
}

func TestAggregate(t *testing.T) {
	records := []types.Record{
		{FrameIdx: 1, SpotCount: 5, Indexed: math.NaN(), Resolution: 2.0},
		{FrameIdx: 2, SpotCount: 15, Indexed: 0.0, Resolution: 1.8},
	}
	sum := Aggregate(records)

	if sum.IndexedCount != 1 {
		t.Errorf("IndexedCount: got %d, want 1", sum.IndexedCount)
	}
	if sum.MedianResolution != 1.9 {
		t.Errorf("MedianResolution: got %v, want 1.9", sum.MedianResolution)
	}
}

func TestAggregate_EmptyHistory(t *testing.T) {
	sum := Aggregate(nil)
	if sum.IndexedCount != 0 {
		t.Errorf("IndexedCount: got %d, want 0", sum.IndexedCount)
	}
	if !math.IsNaN(sum.MedianResolution) {
		t.Errorf("MedianResolution on empty history: got %v, want NaN", sum.MedianResolution)
	}
}
