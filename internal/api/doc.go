// Package api serves the tracker's REST surface: health, the run list,
// per-run full-history views with diagnostic hints, threshold adjustment,
// and the configured beamline table. All responses are JSON.
package api
