package diag

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zdemat/interceptor/pkg/types"
)

func TestMetricsHandler_TextExposition(t *testing.T) {
	m := NewMetrics()
	m.RecordsReceived.Add(42)
	m.RunsCreated.Add(3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"# TYPE interceptor_records_received_total counter",
		"interceptor_records_received_total 42",
		"interceptor_runs_created_total 3",
		"interceptor_snapshots_published_total 0",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\nbody:\n%s", want, body)
		}
	}
}

func TestMetricsHandler_MethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	NewMetrics().Handler().ServeHTTP(rr, httptest.NewRequest("POST", "/metrics", nil))
	if rr.Code != 405 {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

func TestHints_WarmingUp(t *testing.T) {
	hints := Hints(types.ViewSnapshot{Empty: true})
	if len(hints) != 1 || hints[0].Key != "warming_up" {
		t.Errorf("hints: got %+v, want single warming_up", hints)
	}
}

func TestHints_EmptyWindow(t *testing.T) {
	med := 1.9
	snap := types.ViewSnapshot{Empty: true, MedianResolution: &med}
	hints := Hints(snap)
	if len(hints) != 1 || hints[0].Key != "empty_window" {
		t.Errorf("hints: got %+v, want single empty_window", hints)
	}
}

func TestHints_NoHits(t *testing.T) {
	med := 1.9
	snap := types.ViewSnapshot{MedianResolution: &med, Threshold: 50, HitCount: 0}
	hints := Hints(snap)
	if len(hints) != 1 || hints[0].Key != "threshold_high" {
		t.Errorf("hints: got %+v, want single threshold_high", hints)
	}
}

func TestHints_OK(t *testing.T) {
	med := 1.9
	snap := types.ViewSnapshot{MedianResolution: &med, HitCount: 4}
	hints := Hints(snap)
	if len(hints) != 1 || hints[0].Key != "ok" {
		t.Errorf("hints: got %+v, want single ok", hints)
	}
}
