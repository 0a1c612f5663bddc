// Package store holds the per-run record history: an ordered, append-only,
// deduplicated collection of spotfinding results. Arrival order is the only
// temporal ordering guarantee: records are never resorted by frame index.
package store
