// Package stats computes the per-run summary figures shown next to the
// chart: indexed count and median resolution over the full history. The hit
// count is window-scoped and comes from the classifier, not from here.
package stats
