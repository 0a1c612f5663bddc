package scheduler

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/zdemat/interceptor/internal/classify"
	"github.com/zdemat/interceptor/internal/diag"
	"github.com/zdemat/interceptor/internal/run"
	"github.com/zdemat/interceptor/internal/stats"
	"github.com/zdemat/interceptor/pkg/types"
)

// DefaultTick is the default recomputation period.
const DefaultTick = 250 * time.Millisecond

// ingestBuf is the depth of the producer→scheduler batch queue. Sustained
// producer-faster-than-consumer pressure eventually blocks the producer here;
// merged history itself is unbounded.
const ingestBuf = 1024

// eventKind discriminates interactive events.
type eventKind int

const (
	evThreshold eventKind = iota
	evZoomSelect
	evScroll
	evRange
	evZoomOff
	evSelectRun
)

// event is one interactive input, applied on the scheduler goroutine.
type event struct {
	kind     eventKind
	runID    int // 0 = the currently selected run
	value    float64
	min, max float64
}

// Scheduler owns the recomputation loop for all runs.
type Scheduler struct {
	reg     *run.Registry
	metrics *diag.Metrics
	tick    time.Duration
	now     func() time.Time // injectable for deterministic tests

	ingest chan []types.TaggedRecord
	events chan event

	// selected is the run whose view is re-derived. Scheduler goroutine only.
	selected int

	publish func(types.ViewSnapshot)

	mu   sync.RWMutex
	last types.ViewSnapshot
}

// New creates a Scheduler over the given registry. tick <= 0 selects
// DefaultTick.
func New(reg *run.Registry, metrics *diag.Metrics, tick time.Duration) *Scheduler {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Scheduler{
		reg:     reg,
		metrics: metrics,
		tick:    tick,
		now:     time.Now,
		ingest:  make(chan []types.TaggedRecord, ingestBuf),
		events:  make(chan event, 64),
	}
}

// OnSnapshot registers the snapshot consumer. Must be called before Run; the
// callback runs on the scheduler goroutine and must not block.
func (s *Scheduler) OnSnapshot(fn func(types.ViewSnapshot)) { s.publish = fn }

// Ingest queues a batch of tagged records for routing. Safe from any
// goroutine; blocks when the queue is full.
func (s *Scheduler) Ingest(batch []types.TaggedRecord) {
	if len(batch) == 0 {
		return
	}
	s.ingest <- batch
}

// OnThreshold applies a new spot-count cutoff to a run (0 = selected) and
// recomputes immediately.
func (s *Scheduler) OnThreshold(runID, value int) {
	s.events <- event{kind: evThreshold, runID: runID, value: float64(value)}
}

// OnZoomSelect applies a click-drag zoom span to the selected run.
func (s *Scheduler) OnZoomSelect(min, max float64) {
	s.events <- event{kind: evZoomSelect, min: min, max: max}
}

// OnScroll re-centers the selected run's window.
func (s *Scheduler) OnScroll(center float64) {
	s.events <- event{kind: evScroll, value: center}
}

// OnRange applies the numeric chart-range control to the selected run:
// zoomed and locked to the latest frame.
func (s *Scheduler) OnRange(span float64) {
	s.events <- event{kind: evRange, value: span}
}

// OnZoomOff cancels zoom on the selected run.
func (s *Scheduler) OnZoomOff() {
	s.events <- event{kind: evZoomOff}
}

// OnSelectRun switches the selected run and re-derives its view from the
// full accumulated history.
func (s *Scheduler) OnSelectRun(runID int) {
	s.events <- event{kind: evSelectRun, runID: runID}
}

// Current returns the most recently published snapshot.
func (s *Scheduler) Current() types.ViewSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Snapshot derives a full-view snapshot for any run from its store alone,
// without touching the scheduler-owned window state. Used by the REST API;
// safe from any goroutine.
func (s *Scheduler) Snapshot(r *run.Run) types.ViewSnapshot {
	bounds := types.Bounds{XMin: 0, XMax: 1}
	if mx, ok := r.Store.MaxFrame(); ok {
		bounds.XMax = float64(mx) + 1
	}
	return s.derive(r, bounds)
}

// Run executes the loop until ctx is cancelled. The tick and all events are
// serialized here: an event arriving mid-tick waits for the in-flight
// recomputation to finish. Pending batches not yet drained when ctx ends are
// discarded; merged history is retained.
func (s *Scheduler) Run(ctx context.Context) {
	t := time.NewTicker(s.tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-s.ingest:
			s.route(batch)
		case ev := <-s.events:
			s.apply(ev)
		case <-t.C:
			s.mergeAll()
			s.emit()
		}
	}
}

// route resolves runs for a batch and enqueues records into pending buffers.
// Newly created runs are announced and become the selected run, matching the
// tracker's select-newest-tab behavior.
func (s *Scheduler) route(batch []types.TaggedRecord) {
	s.metrics.RecordsReceived.Add(int64(len(batch)))
	for _, id := range s.reg.Route(batch) {
		s.metrics.RunsCreated.Add(1)
		slog.Info("scheduler: new run", "run", id)
		s.selected = id
	}
}

// mergeAll drains every run's pending buffer into its store and updates the
// run's window with the newest frame. Only the selected run's view is
// re-derived afterwards.
func (s *Scheduler) mergeAll() {
	for _, r := range s.reg.All() {
		p := r.TakePending()
		if len(p) == 0 {
			continue
		}
		added := r.Store.Append(p)
		if dup := len(p) - added; dup > 0 {
			s.metrics.RecordsDeduplicated.Add(int64(dup))
		}
		if mx, ok := r.Store.MaxFrame(); ok {
			r.Window.Observe(mx)
		}
	}
}

// apply handles one interactive event: merge, mutate, recompute, emit.
func (s *Scheduler) apply(ev event) {
	s.mergeAll()

	id := ev.runID
	if id == 0 {
		id = s.selected
	}
	r, ok := s.reg.Get(id)
	if !ok {
		slog.Warn("scheduler: event for unknown run", "run", id)
		return
	}

	switch ev.kind {
	case evThreshold:
		r.SetThreshold(int(ev.value))
	case evZoomSelect:
		r.Window.Select(ev.min, ev.max)
	case evScroll:
		r.Window.Scroll(ev.value)
	case evRange:
		r.Window.SetRange(ev.value)
	case evZoomOff:
		r.Window.Deactivate()
	case evSelectRun:
		s.selected = id
	}
	s.emit()
}

// emit rebuilds the selected run's snapshot and publishes it.
func (s *Scheduler) emit() {
	r, ok := s.reg.Get(s.selected)
	if !ok {
		// No runs yet. Publish a bare snapshot so the renderer can show the
		// run list (empty) instead of stale data.
		s.store(types.ViewSnapshot{
			Empty:       true,
			Runs:        []int{},
			GeneratedAt: s.now().UTC().Format(time.RFC3339),
		})
		return
	}
	s.store(s.build(r))
}

func (s *Scheduler) store(snap types.ViewSnapshot) {
	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()
	s.metrics.SnapshotsPublished.Add(1)
	if s.publish != nil {
		s.publish(snap)
	}
}

// build derives the view for one run with bounds from its window. Scheduler
// goroutine only.
func (s *Scheduler) build(r *run.Run) types.ViewSnapshot {
	return s.derive(r, r.Window.Bounds())
}

// derive computes a snapshot at the given bounds: the accepted/rejected
// split and y-bound from the classifier, plus the history-scoped summary
// stats.
func (s *Scheduler) derive(r *run.Run, bounds types.Bounds) types.ViewSnapshot {
	records := r.Store.All()
	threshold := r.Threshold()

	snap := types.ViewSnapshot{
		RunID:       r.ID,
		Runs:        s.reg.IDs(),
		Bounds:      bounds,
		Threshold:   threshold,
		GeneratedAt: s.now().UTC().Format(time.RFC3339),
	}

	sum := stats.Aggregate(records)
	snap.IndexedCount = sum.IndexedCount
	if !math.IsNaN(sum.MedianResolution) {
		med := sum.MedianResolution
		snap.MedianResolution = &med
	}

	sp := classify.Visible(records, snap.Bounds, threshold)
	if !sp.Drawable {
		snap.Empty = true
		return snap
	}

	snap.YMax = float64(sp.YMax)
	snap.HitCount = len(sp.Accepted)
	snap.Accepted = toPoints(sp.Accepted)
	snap.Rejected = toPoints(sp.Rejected)
	for _, rec := range records {
		if rec.IsIndexed() && snap.Bounds.Contains(rec.FrameIdx) {
			snap.IndexedSeries = append(snap.IndexedSeries,
				types.IndexedPoint{Frame: rec.FrameIdx, Indexed: rec.Indexed})
		}
	}
	return snap
}

func toPoints(records []types.Record) []types.Point {
	out := make([]types.Point, len(records))
	for i, r := range records {
		out[i] = types.Point{Frame: r.FrameIdx, Spots: r.SpotCount}
	}
	return out
}
