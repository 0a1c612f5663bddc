package receiver

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	"github.com/zdemat/interceptor/internal/diag"
	"github.com/zdemat/interceptor/pkg/types"
)

// maxBatchBytes caps one ingest request body.
const maxBatchBytes = 8 << 20

// Ingestor is where validated batches go. Implemented by the scheduler.
type Ingestor interface {
	Ingest(batch []types.TaggedRecord)
}

// WireRecord is one spotfinding result as the processing backend sends it.
// Required fields are pointers so that absence is distinguishable from zero;
// a null (or absent) indexed field is the "did not index" sentinel and maps
// to NaN internally, since JSON cannot carry NaN.
type WireRecord struct {
	RunNo    int      `json:"run_no"`
	FrameIdx *int     `json:"frame_idx"`
	NSpots   *int     `json:"n_spots"`
	Indexed  *float64 `json:"indexed"`
	HRes     *float64 `json:"hres"`
}

// Receiver handles POST /v1/records.
type Receiver struct {
	sink    Ingestor
	metrics *diag.Metrics
}

// New creates a Receiver forwarding to sink.
func New(sink Ingestor, metrics *diag.Metrics) *Receiver {
	return &Receiver{sink: sink, metrics: metrics}
}

// batchResponse is the per-batch confirmation body.
type batchResponse struct {
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var wire []WireRecord
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBytes))
	if err := dec.Decode(&wire); err != nil {
		// A body that doesn't parse at all is the one whole-batch rejection:
		// there are no individual records to salvage.
		jsonErr(w, http.StatusBadRequest, "invalid JSON batch")
		return
	}

	batch, dropped := Convert(wire)
	rc.metrics.RecordsMalformed.Add(int64(dropped))
	if dropped > 0 {
		slog.Warn("receiver: dropped malformed records", "dropped", dropped, "batch", len(wire))
	}

	if len(batch) > 0 {
		rc.sink.Ingest(batch)
	}
	jsonResp(w, http.StatusAccepted, batchResponse{Accepted: len(batch), Dropped: dropped})
}

// Convert validates wire records and maps them to tagged records. Records
// missing a required field are dropped individually; ingestion of the
// remainder continues. Returns the valid batch and the dropped count.
func Convert(wire []WireRecord) ([]types.TaggedRecord, int) {
	batch := make([]types.TaggedRecord, 0, len(wire))
	dropped := 0
	for _, wr := range wire {
		if wr.FrameIdx == nil || wr.NSpots == nil || wr.HRes == nil {
			dropped++
			continue
		}
		indexed := math.NaN()
		if wr.Indexed != nil {
			indexed = *wr.Indexed
		}
		batch = append(batch, types.TaggedRecord{
			RunID: wr.RunNo,
			Record: types.Record{
				FrameIdx:   *wr.FrameIdx,
				SpotCount:  *wr.NSpots,
				Indexed:    indexed,
				Resolution: *wr.HRes,
			},
		})
	}
	return batch, dropped
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, struct {
		Error string `json:"error"`
	}{Error: msg})
}
