package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/zdemat/interceptor/internal/diag"
	"github.com/zdemat/interceptor/internal/run"
	"github.com/zdemat/interceptor/pkg/types"
)

func newTestScheduler() *Scheduler {
	s := New(run.NewRegistry(10), diag.NewMetrics(), DefaultTick)
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func tagged(runID, frame, spots int, indexed, res float64) types.TaggedRecord {
	return types.TaggedRecord{
		RunID:  runID,
		Record: types.Record{FrameIdx: frame, SpotCount: spots, Indexed: indexed, Resolution: res},
	}
}

// tick performs one synchronous recomputation cycle.
func tick(s *Scheduler) {
	s.mergeAll()
	s.emit()
}

func TestScenario_FullView(t *testing.T) {
	// threshold=10, records (1,5,NaN,2.0) and (2,15,0.0,1.8), full view.
	s := newTestScheduler()
	s.route([]types.TaggedRecord{
		tagged(1, 1, 5, math.NaN(), 2.0),
		tagged(1, 2, 15, 0.0, 1.8),
	})
	tick(s)

	snap := s.Current()
	if snap.Empty {
		t.Fatal("snapshot: got empty, want drawable")
	}
	if len(snap.Accepted) != 1 || snap.Accepted[0] != (types.Point{Frame: 2, Spots: 15}) {
		t.Errorf("Accepted: got %+v, want [{2 15}]", snap.Accepted)
	}
	if len(snap.Rejected) != 1 || snap.Rejected[0] != (types.Point{Frame: 1, Spots: 5}) {
		t.Errorf("Rejected: got %+v, want [{1 5}]", snap.Rejected)
	}
	if snap.HitCount != 1 {
		t.Errorf("HitCount: got %d, want 1", snap.HitCount)
	}
	if snap.IndexedCount != 1 {
		t.Errorf("IndexedCount: got %d, want 1", snap.IndexedCount)
	}
	if snap.MedianResolution == nil || *snap.MedianResolution != 1.9 {
		t.Errorf("MedianResolution: got %v, want 1.9", snap.MedianResolution)
	}
	if snap.Bounds.XMax != 3 {
		t.Errorf("Bounds.XMax: got %v, want 3", snap.Bounds.XMax)
	}
}

func TestNewRunBecomesSelected(t *testing.T) {
	s := newTestScheduler()
	s.route([]types.TaggedRecord{tagged(3, 1, 5, math.NaN(), 2.0)})
	s.route([]types.TaggedRecord{tagged(8, 1, 5, math.NaN(), 2.0)})
	tick(s)

	if got := s.Current().RunID; got != 8 {
		t.Errorf("selected run: got %d, want 8", got)
	}
}

func TestSelectRun_RederivesFromHistory(t *testing.T) {
	s := newTestScheduler()
	s.route([]types.TaggedRecord{
		tagged(1, 1, 20, 0.0, 1.5),
		tagged(2, 1, 3, math.NaN(), 2.5),
	})
	tick(s)

	s.apply(event{kind: evSelectRun, runID: 1})
	snap := s.Current()
	if snap.RunID != 1 {
		t.Fatalf("RunID after switch: got %d, want 1", snap.RunID)
	}
	if snap.HitCount != 1 {
		t.Errorf("HitCount after switch: got %d, want 1", snap.HitCount)
	}
	if len(snap.Runs) != 2 {
		t.Errorf("Runs list: got %v, want two ids", snap.Runs)
	}
}

func TestThresholdEvent_RecomputesImmediately(t *testing.T) {
	s := newTestScheduler()
	s.route([]types.TaggedRecord{tagged(1, 1, 12, math.NaN(), 2.0)})

	// No tick yet: the event itself must merge pending and recompute.
	s.apply(event{kind: evThreshold, value: 20})

	snap := s.Current()
	if snap.Threshold != 20 {
		t.Errorf("Threshold: got %d, want 20", snap.Threshold)
	}
	if snap.HitCount != 0 {
		t.Errorf("HitCount above all spots: got %d, want 0", snap.HitCount)
	}
	if snap.YMax != 22 { // threshold branch: 20 + floor(0.1*20)
		t.Errorf("YMax: got %v, want 22", snap.YMax)
	}
}

func TestLockedWindow_SlidesOnMerge(t *testing.T) {
	s := newTestScheduler()
	s.route([]types.TaggedRecord{tagged(1, 100, 5, math.NaN(), 2.0)})
	tick(s)

	s.apply(event{kind: evRange, value: 30})
	s.route([]types.TaggedRecord{tagged(1, 160, 5, math.NaN(), 2.0)})
	tick(s)

	b := s.Current().Bounds
	if b.XMax != 160 || b.XMin != 130 {
		t.Errorf("locked bounds after merge: got [%v, %v], want [130, 160]", b.XMin, b.XMax)
	}
}

func TestEmit_NoRunsYet(t *testing.T) {
	s := newTestScheduler()
	tick(s)

	snap := s.Current()
	if !snap.Empty {
		t.Error("snapshot with no runs: want Empty")
	}
	if snap.Runs == nil || len(snap.Runs) != 0 {
		t.Errorf("Runs: got %v, want empty non-nil list", snap.Runs)
	}
}

func TestDedup_AcrossBatches(t *testing.T) {
	s := newTestScheduler()
	batch := []types.TaggedRecord{tagged(1, 1, 5, math.NaN(), 2.0)}
	s.route(batch)
	tick(s)
	s.route(batch)
	tick(s)

	r, _ := s.reg.Get(1)
	if r.Store.Len() != 1 {
		t.Errorf("store after redelivery: got %d records, want 1", r.Store.Len())
	}
	if got := s.metrics.RecordsDeduplicated.Load(); got != 1 {
		t.Errorf("deduplicated counter: got %d, want 1", got)
	}
}

func TestOnSnapshot_PublishesEveryRecomputation(t *testing.T) {
	s := newTestScheduler()
	var published []types.ViewSnapshot
	s.OnSnapshot(func(snap types.ViewSnapshot) { published = append(published, snap) })

	s.route([]types.TaggedRecord{tagged(1, 1, 15, 0.0, 1.8)})
	tick(s)
	s.apply(event{kind: evThreshold, value: 5})

	if len(published) != 2 {
		t.Fatalf("published: got %d snapshots, want 2", len(published))
	}
	if published[1].Threshold != 5 {
		t.Errorf("second snapshot threshold: got %d, want 5", published[1].Threshold)
	}
}

func TestAPISnapshot_IgnoresWindowState(t *testing.T) {
	s := newTestScheduler()
	s.route([]types.TaggedRecord{
		tagged(1, 1, 5, math.NaN(), 2.0),
		tagged(1, 50, 15, 0.0, 1.8),
	})
	tick(s)
	s.apply(event{kind: evZoomSelect, min: 40, max: 60})

	r, _ := s.reg.Get(1)
	snap := s.Snapshot(r)
	if snap.Bounds.XMin != 0 || snap.Bounds.XMax != 51 {
		t.Errorf("full-view bounds: got [%v, %v], want [0, 51]", snap.Bounds.XMin, snap.Bounds.XMax)
	}
	if len(snap.Accepted)+len(snap.Rejected) != 2 {
		t.Errorf("full-view split: got %d visible, want 2", len(snap.Accepted)+len(snap.Rejected))
	}
}
