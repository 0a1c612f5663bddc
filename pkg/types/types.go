package types

import "math"

// Record is one frame's diagnostic result as produced by the spotfinding
// backend: how many Bragg spots were found, whether the frame indexed, and
// the resolution estimate.
type Record struct {
	FrameIdx   int
	SpotCount  int
	Indexed    float64 // NaN = frame did not index
	Resolution float64 // high-resolution estimate in Ångström
}

// IsIndexed reports whether the frame's diffraction pattern indexed.
func (r Record) IsIndexed() bool { return !math.IsNaN(r.Indexed) }

// Key is the comparable identity of a Record, used for deduplication.
// Two records are the same only if every field matches. Floats are keyed by
// bit pattern so that NaN sentinels compare equal to each other.
type Key struct {
	FrameIdx   int
	SpotCount  int
	Indexed    uint64
	Resolution uint64
}

// Key returns the record's deduplication key.
func (r Record) Key() Key {
	return Key{
		FrameIdx:   r.FrameIdx,
		SpotCount:  r.SpotCount,
		Indexed:    math.Float64bits(r.Indexed),
		Resolution: math.Float64bits(r.Resolution),
	}
}

// TaggedRecord is a Record together with the run it belongs to, as routed by
// the registry. RunID <= 0 means the feed did not supply one and the registry
// assigns the next free id.
type TaggedRecord struct {
	RunID int
	Record
}

// Bounds is the visible frame-index window. Both ends are exclusive for
// visibility checks: a record is visible iff XMin < frame < XMax.
type Bounds struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
}

// Contains reports whether a frame index falls inside the window.
func (b Bounds) Contains(frame int) bool {
	f := float64(frame)
	return b.XMin < f && f < b.XMax
}

// Point is one plotted record in a snapshot series.
type Point struct {
	Frame int `json:"frame"`
	Spots int `json:"spots"`
}

// IndexedPoint is one visible indexed frame in the snapshot's indexed series.
type IndexedPoint struct {
	Frame   int     `json:"frame"`
	Indexed float64 `json:"indexed"`
}

// ViewSnapshot is the declarative "current view" the scheduler emits after
// every recomputation. Renderers are stateless consumers: they draw exactly
// what the snapshot says and nothing else.
//
// MedianResolution is nil while the run has no history. JSON cannot carry
// NaN, so the placeholder is null and the renderer shows a dash.
type ViewSnapshot struct {
	RunID int   `json:"run_id"`
	Runs  []int `json:"runs"` // all known run ids, ascending, for the tab bar

	Bounds Bounds  `json:"bounds"`
	YMax   float64 `json:"y_max"`

	// Empty means no record satisfies the visibility predicate; the renderer
	// must skip drawing rather than plot empty series.
	Empty bool `json:"empty"`

	Accepted      []Point        `json:"accepted"`
	Rejected      []Point        `json:"rejected"`
	IndexedSeries []IndexedPoint `json:"indexed_series"`

	Threshold        int      `json:"threshold"`
	HitCount         int      `json:"hit_count"`
	IndexedCount     int      `json:"indexed_count"`
	MedianResolution *float64 `json:"median_resolution"`

	GeneratedAt string `json:"generated_at"` // RFC3339
}
