package diag

import (
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Metrics holds the tracker's process-wide counters. All fields are updated
// atomically and may be bumped from any goroutine.
type Metrics struct {
	RecordsReceived     atomic.Int64 // records accepted off the wire
	RecordsMalformed    atomic.Int64 // records dropped for missing fields
	RecordsDeduplicated atomic.Int64 // re-delivered records filtered by the store
	RunsCreated         atomic.Int64
	SnapshotsPublished  atomic.Int64
}

// NewMetrics returns a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// gather builds the MetricFamily set for the exposition endpoint.
func (m *Metrics) gather() []*dto.MetricFamily {
	counter := func(name, help string, v int64) *dto.MetricFamily {
		return &dto.MetricFamily{
			Name: proto.String(name),
			Help: proto.String(help),
			Type: dto.MetricType_COUNTER.Enum(),
			Metric: []*dto.Metric{
				{Counter: &dto.Counter{Value: proto.Float64(float64(v))}},
			},
		}
	}

	return []*dto.MetricFamily{
		counter("interceptor_records_received_total",
			"Records accepted from the ingestion feed.",
			m.RecordsReceived.Load()),
		counter("interceptor_records_malformed_total",
			"Records dropped because a required field was missing.",
			m.RecordsMalformed.Load()),
		counter("interceptor_records_deduplicated_total",
			"Re-delivered records filtered out by tuple identity.",
			m.RecordsDeduplicated.Load()),
		counter("interceptor_runs_created_total",
			"Runs created by the registry.",
			m.RunsCreated.Load()),
		counter("interceptor_snapshots_published_total",
			"View snapshots emitted by the scheduler.",
			m.SnapshotsPublished.Load()),
	}
}

// Handler returns the GET /metrics handler, encoding the counters in
// Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range m.gather() {
			if err := enc.Encode(mf); err != nil {
				return
			}
		}
	})
}
