package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zdemat/interceptor/internal/config"
	"github.com/zdemat/interceptor/internal/diag"
	"github.com/zdemat/interceptor/internal/run"
	"github.com/zdemat/interceptor/internal/scheduler"
	"github.com/zdemat/interceptor/pkg/types"
)

// seed creates a registry with one run holding merged history, bypassing the
// scheduler loop.
func seed(t *testing.T, threshold int, records []types.Record) (*run.Registry, *scheduler.Scheduler) {
	t.Helper()
	reg := run.NewRegistry(threshold)
	batch := make([]types.TaggedRecord, 0, len(records)+1)
	for _, r := range records {
		batch = append(batch, types.TaggedRecord{RunID: 3, Record: r})
	}
	if len(batch) == 0 {
		// Route needs at least one record to create the run; the placeholder
		// pending is discarded below so the store stays empty.
		batch = append(batch, types.TaggedRecord{RunID: 3})
	}
	reg.Route(batch)
	rn, ok := reg.Get(3)
	if !ok {
		t.Fatal("run 3 not created")
	}
	pending := rn.TakePending()
	if len(records) > 0 {
		rn.Store.Append(pending)
	}
	return reg, scheduler.New(reg, diag.NewMetrics(), time.Second)
}

func newHandler(reg *run.Registry, sched *scheduler.Scheduler) *Handler {
	h := New(reg, sched, []config.Beamline{
		{Name: "BL12-1", Host: "bl121proc00", Port: 8121},
	}, func() int { return 2 })
	h.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func do(t *testing.T, h *Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	reg, sched := seed(t, 10, []types.Record{
		{FrameIdx: 1, SpotCount: 5, Indexed: math.NaN(), Resolution: 2.0},
		{FrameIdx: 2, SpotCount: 15, Indexed: 0.0, Resolution: 1.8},
	})
	rr := do(t, newHandler(reg, sched), "GET", "/api/v1/health", "")

	if rr.Code != 200 {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunCount != 1 || resp.RecordCount != 2 || resp.ClientCount != 2 {
		t.Fatalf("health: got %+v", resp)
	}
	if resp.GeneratedAt != "2025-03-01T12:00:00Z" {
		t.Fatalf("generated_at: got %q", resp.GeneratedAt)
	}
}

func TestRuns_Summaries(t *testing.T) {
	reg, sched := seed(t, 10, []types.Record{
		{FrameIdx: 1, SpotCount: 5, Indexed: math.NaN(), Resolution: 2.0},
		{FrameIdx: 2, SpotCount: 15, Indexed: 0.0, Resolution: 1.8},
	})
	rr := do(t, newHandler(reg, sched), "GET", "/api/v1/runs", "")

	if rr.Code != 200 {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp []RunSummary
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("runs: got %d, want 1", len(resp))
	}
	got := resp[0]
	if got.RunID != 3 || got.Records != 2 || got.Threshold != 10 {
		t.Fatalf("summary: got %+v", got)
	}
	if got.HitCount != 1 || got.IndexedCount != 1 {
		t.Fatalf("counts: got hit=%d indexed=%d, want 1/1", got.HitCount, got.IndexedCount)
	}
	if got.MedianResolution == nil || *got.MedianResolution != 1.9 {
		t.Fatalf("median: got %v, want 1.9", got.MedianResolution)
	}
}

func TestRunDetail_IncludesHints(t *testing.T) {
	reg, sched := seed(t, 10, []types.Record{
		{FrameIdx: 1, SpotCount: 5, Indexed: math.NaN(), Resolution: 2.0},
		{FrameIdx: 2, SpotCount: 15, Indexed: 0.0, Resolution: 1.8},
	})
	rr := do(t, newHandler(reg, sched), "GET", "/api/v1/runs/3", "")

	if rr.Code != 200 {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp RunDetail
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Snapshot.RunID != 3 || resp.Snapshot.Empty {
		t.Fatalf("snapshot: got %+v", resp.Snapshot)
	}
	if len(resp.Hints) == 0 {
		t.Fatal("want at least one hint")
	}
}

func TestRunDetail_Unknown(t *testing.T) {
	reg, sched := seed(t, 10, nil)
	rr := do(t, newHandler(reg, sched), "GET", "/api/v1/runs/99", "")
	if rr.Code != 404 {
		t.Fatalf("status: got %d, want 404", rr.Code)
	}
}

func TestRunDetail_BadID(t *testing.T) {
	reg, sched := seed(t, 10, nil)
	rr := do(t, newHandler(reg, sched), "GET", "/api/v1/runs/nope", "")
	if rr.Code != 400 {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestThreshold_Accepted(t *testing.T) {
	reg, sched := seed(t, 10, nil)
	rr := do(t, newHandler(reg, sched), "POST", "/api/v1/runs/3/threshold", `{"value": 25}`)
	if rr.Code != 202 {
		t.Fatalf("status: got %d, want 202: %s", rr.Code, rr.Body.String())
	}
}

func TestThreshold_Negative(t *testing.T) {
	reg, sched := seed(t, 10, nil)
	rr := do(t, newHandler(reg, sched), "POST", "/api/v1/runs/3/threshold", `{"value": -1}`)
	if rr.Code != 400 {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
}

func TestBeamlines(t *testing.T) {
	reg, sched := seed(t, 10, nil)
	rr := do(t, newHandler(reg, sched), "GET", "/api/v1/beamlines", "")
	if rr.Code != 200 {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp []config.Beamline
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp) != 1 || resp[0].Name != "BL12-1" || resp[0].Port != 8121 {
		t.Fatalf("beamlines: got %+v", resp)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	reg, sched := seed(t, 10, nil)
	for _, path := range []string{"/api/v1/health", "/api/v1/runs", "/api/v1/beamlines"} {
		rr := do(t, newHandler(reg, sched), "DELETE", path, "")
		if rr.Code != 405 {
			t.Fatalf("%s: got %d, want 405", path, rr.Code)
		}
	}
}
