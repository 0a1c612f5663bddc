package api

import (
	"github.com/zdemat/interceptor/internal/diag"
	"github.com/zdemat/interceptor/pkg/types"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	RunCount    int    `json:"run_count"`
	RecordCount int    `json:"record_count"`
	ClientCount int    `json:"client_count"`
	GeneratedAt string `json:"generated_at"` // RFC3339
}

// RunSummary is one run entry in GET /api/v1/runs.
type RunSummary struct {
	RunID            int      `json:"run_id"`
	Records          int      `json:"records"`
	Threshold        int      `json:"threshold"`
	HitCount         int      `json:"hit_count"`
	IndexedCount     int      `json:"indexed_count"`
	MedianResolution *float64 `json:"median_resolution"`
}

// RunDetail is the payload for GET /api/v1/runs/{id}: the run's full-history
// view plus diagnostic hints.
type RunDetail struct {
	Snapshot types.ViewSnapshot `json:"snapshot"`
	Hints    []diag.Hint        `json:"hints"`
}

// ThresholdRequest is the body of POST /api/v1/runs/{id}/threshold.
type ThresholdRequest struct {
	Value int `json:"value"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
