package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/zdemat/interceptor/internal/config"
	"github.com/zdemat/interceptor/internal/diag"
	"github.com/zdemat/interceptor/internal/run"
	"github.com/zdemat/interceptor/internal/scheduler"
)

// Handler serves the read-mostly REST surface under /api/v1/.
type Handler struct {
	reg       *run.Registry
	sched     *scheduler.Scheduler
	beamlines []config.Beamline
	clients   func() int
	now       func() time.Time
}

// New creates a Handler. clients reports the number of connected stream
// subscribers and may be nil.
func New(reg *run.Registry, sched *scheduler.Scheduler, beamlines []config.Beamline, clients func() int) *Handler {
	if clients == nil {
		clients = func() int { return 0 }
	}
	return &Handler{
		reg:       reg,
		sched:     sched,
		beamlines: beamlines,
		clients:   clients,
		now:       time.Now,
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/health", h.handleHealth)
	mux.HandleFunc("/api/v1/runs", h.handleRuns)
	mux.HandleFunc("/api/v1/runs/", h.handleRun)
	mux.HandleFunc("/api/v1/beamlines", h.handleBeamlines)
}

// --- route handlers ---

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	records := 0
	for _, rn := range h.reg.All() {
		records += rn.Store.Len()
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		RunCount:    h.reg.Count(),
		RecordCount: records,
		ClientCount: h.clients(),
		GeneratedAt: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	runs := h.reg.All()
	out := make([]RunSummary, 0, len(runs))
	for _, rn := range runs {
		snap := h.sched.Snapshot(rn)
		out = append(out, RunSummary{
			RunID:            rn.ID,
			Records:          rn.Store.Len(),
			Threshold:        snap.Threshold,
			HitCount:         snap.HitCount,
			IndexedCount:     snap.IndexedCount,
			MedianResolution: snap.MedianResolution,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// handleRun serves /api/v1/runs/{id} and /api/v1/runs/{id}/threshold.
func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.Atoi(idStr)
	if err != nil || id < 1 {
		jsonErr(w, http.StatusBadRequest, "invalid run id")
		return
	}
	rn, ok := h.reg.Get(id)
	if !ok {
		jsonErr(w, http.StatusNotFound, "unknown run")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		snap := h.sched.Snapshot(rn)
		jsonResp(w, http.StatusOK, RunDetail{Snapshot: snap, Hints: diag.Hints(snap)})
	case action == "threshold" && r.Method == http.MethodPost:
		h.setThreshold(w, r, id)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) setThreshold(w http.ResponseWriter, r *http.Request, id int) {
	var req ThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Value < 0 {
		jsonErr(w, http.StatusBadRequest, "threshold must be non-negative")
		return
	}
	slog.Info("api: threshold update", "run", id, "value", req.Value)
	h.sched.OnThreshold(id, req.Value)
	jsonResp(w, http.StatusAccepted, req)
}

func (h *Handler) handleBeamlines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.beamlines == nil {
		jsonResp(w, http.StatusOK, []config.Beamline{})
		return
	}
	jsonResp(w, http.StatusOK, h.beamlines)
}

// --- helpers ---

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
