// Package run maps run identifiers to their per-run state: record store,
// view window, live threshold, and the pending buffer of routed-but-unmerged
// records. Runs are created lazily on first sight of an id and persist for
// the process lifetime; there is no eviction.
package run
