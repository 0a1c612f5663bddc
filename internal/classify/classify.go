package classify

import "github.com/zdemat/interceptor/pkg/types"

// Split is the classification of the visible window at one threshold.
//
// A record with spot count exactly at the threshold appears in both Accepted
// and Rejected. That boundary behavior mirrors the reference tracker, double
// count and all, pending product-owner sign-off on a change.
type Split struct {
	Accepted []types.Record
	Rejected []types.Record

	// YMax is the derived y-bound for the chart. Valid only when Drawable.
	YMax int

	// Drawable is false when no record falls inside the window; the caller
	// must treat the view as empty and skip drawing.
	Drawable bool
}

// Visible classifies records inside bounds (both ends exclusive) against
// threshold t: spot counts >= t are accepted, <= t rejected.
func Visible(records []types.Record, bounds types.Bounds, t int) Split {
	var sp Split
	maxSpots := 0
	for _, r := range records {
		if !bounds.Contains(r.FrameIdx) {
			continue
		}
		if r.SpotCount >= t {
			sp.Accepted = append(sp.Accepted, r)
		}
		if r.SpotCount <= t {
			sp.Rejected = append(sp.Rejected, r)
		}
		if r.SpotCount > maxSpots {
			maxSpots = r.SpotCount
		}
	}

	if len(sp.Accepted) == 0 && len(sp.Rejected) == 0 {
		return sp
	}

	sp.Drawable = true
	sp.YMax = yBound(maxSpots, t)
	return sp
}

// yBound gives the chart headroom above the taller of the threshold line and
// the highest visible spot count: a threshold above everything visible is a
// normal input, not an error.
func yBound(maxSpots, t int) int {
	if t > maxSpots {
		return t + t/10
	}
	return maxSpots + maxSpots/10
}
