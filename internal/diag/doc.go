// Package diag exposes the tracker's own operational counters in Prometheus
// text exposition format, and derives human-readable per-run hints for the
// API. It owns no run state; everything here is observation.
package diag
