// Package types defines the shared Go types exchanged between the tracker
// core, the ingestion receiver, and the renderer clients. These are the
// canonical in-memory representations of spotfinding results, separate from
// the JSON wire format used at the HTTP/WebSocket boundary.
package types
