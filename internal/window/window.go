package window

import "github.com/zdemat/interceptor/pkg/types"

// MinSpan is the narrowest zoom span (in frame units) a selection may have.
// Narrower selections are ignored.
const MinSpan = 5

// State identifies the window's current mode.
type State int

const (
	// FullView shows the entire run, [0, maxFrame+1].
	FullView State = iota
	// ZoomedFree shows a fixed sub-range chosen by the user.
	ZoomedFree
	// ZoomedLocked keeps the trailing edge on the newest frame; the window
	// slides forward automatically as records arrive.
	ZoomedLocked
)

func (s State) String() string {
	switch s {
	case FullView:
		return "full"
	case ZoomedFree:
		return "zoomed"
	case ZoomedLocked:
		return "locked"
	default:
		return "unknown"
	}
}

// Window is the view window for a single run.
//
// Window is not safe for concurrent use: the scheduler goroutine is the only
// writer, and readers go through the snapshots it emits.
type Window struct {
	state      state
	xMin, xMax float64
	chartRange float64 // defined only while zoomed
	maxFrame   int     // largest frame index observed so far
	hasData    bool
}

// state is the internal mode plus the lock flag, kept separate from the
// exported State so transitions stay simple booleans.
type state struct {
	zoom bool
	lock bool
}

// New returns a Window in FullView over an empty run.
func New() *Window {
	return &Window{xMin: 0, xMax: 1}
}

// State returns the window's current mode.
func (w *Window) State() State {
	switch {
	case !w.state.zoom:
		return FullView
	case w.state.lock:
		return ZoomedLocked
	default:
		return ZoomedFree
	}
}

// Bounds returns the current visible bounds.
func (w *Window) Bounds() types.Bounds {
	return types.Bounds{XMin: w.xMin, XMax: w.xMax}
}

// ChartRange returns the zoom span width. ok is false in FullView, where no
// span is defined.
func (w *Window) ChartRange() (float64, bool) {
	if !w.state.zoom {
		return 0, false
	}
	return w.chartRange, true
}

// Select applies a click-drag zoom span. Spans narrower than MinSpan are a
// no-op: state and bounds stay untouched. A valid span always lands in
// ZoomedFree, regardless of the previous state.
func (w *Window) Select(sMin, sMax float64) {
	if sMax-sMin < MinSpan {
		return
	}
	w.state.zoom = true
	w.state.lock = false
	w.chartRange = sMax - sMin
	w.xMin = sMin
	w.xMax = sMax
}

// SetRange applies the numeric chart-range control: zoom on with the given
// span, locked to the latest frame. Spans narrower than MinSpan are a no-op.
func (w *Window) SetRange(r float64) {
	if r < MinSpan {
		return
	}
	w.state.zoom = true
	w.state.lock = true
	w.chartRange = r
	w.recompute()
}

// Scroll re-centers the window on c. Ignored in FullView.
//
// With half = chartRange/2: a center exactly half a span from zero pins the
// window to [0, chartRange]; any other center yields [c-half, c+half].
// Scrolling to within one chartRange of the newest frame acquires the latest
// lock; scrolling away releases it.
func (w *Window) Scroll(c float64) {
	if !w.state.zoom {
		return
	}
	half := w.chartRange / 2
	if c-half == 0 {
		w.xMin = 0
		w.xMax = w.chartRange
	} else {
		w.xMin = c - half
		w.xMax = c + half
	}
	w.state.lock = c >= float64(w.maxFrame)-w.chartRange
	if w.state.lock {
		w.recompute()
	}
}

// Deactivate cancels zoom (toggle off or right-click): back to FullView with
// the chart range cleared.
func (w *Window) Deactivate() {
	w.state.zoom = false
	w.state.lock = false
	w.chartRange = 0
	w.recompute()
}

// Observe feeds the window the largest frame index currently in the store.
// Called on every merge; while ZoomedLocked the window slides forward, and in
// FullView the bounds track the full run.
func (w *Window) Observe(maxFrame int) {
	w.maxFrame = maxFrame
	w.hasData = true
	w.recompute()
}

// recompute re-derives bounds from the current mode. ZoomedFree bounds are
// user-owned and left alone.
func (w *Window) recompute() {
	if !w.hasData {
		return
	}
	switch {
	case !w.state.zoom:
		w.xMin = 0
		w.xMax = float64(w.maxFrame) + 1
	case w.state.lock:
		w.xMax = float64(w.maxFrame)
		w.xMin = w.xMax - w.chartRange
	}
}
