package diag

import (
	"fmt"

	"github.com/zdemat/interceptor/pkg/types"
)

// Hint is one human-readable insight about a run's current view, shown by
// the renderer next to the chart.
type Hint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning".
	Level string `json:"level"`
	// Title is a short label.
	Title string `json:"title"`
	// Detail is the full explanation.
	Detail string `json:"detail"`
}

// Hints derives insights from a run's current snapshot. Ordered: warnings
// first, then info.
func Hints(snap types.ViewSnapshot) []Hint {
	var hints []Hint

	if snap.MedianResolution == nil {
		hints = append(hints, Hint{
			Key:   "warming_up",
			Level: "info",
			Title: "Waiting for data",
			Detail: "No results have arrived for this run yet. Summary stats " +
				"appear after the first frame is processed.",
		})
		return hints
	}

	if snap.Empty {
		hints = append(hints, Hint{
			Key:   "empty_window",
			Level: "warning",
			Title: "Nothing in view",
			Detail: fmt.Sprintf("No frames fall inside the current window "+
				"[%.0f, %.0f]. Scroll back or switch zoom off to see the run.",
				snap.Bounds.XMin, snap.Bounds.XMax),
		})
		return hints
	}

	if snap.HitCount == 0 {
		hints = append(hints, Hint{
			Key:   "threshold_high",
			Level: "info",
			Title: "No hits in view",
			Detail: fmt.Sprintf("No visible frame reaches the current cutoff "+
				"of %d spots. Lower the threshold if hits are expected.",
				snap.Threshold),
		})
	}

	if len(hints) == 0 {
		hints = append(hints, Hint{
			Key:    "ok",
			Level:  "ok",
			Title:  "Tracking",
			Detail: "Frames are arriving and hits are visible in the current window.",
		})
	}
	return hints
}
