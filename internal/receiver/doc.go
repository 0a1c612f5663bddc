// Package receiver is the HTTP ingestion endpoint for spotfinding results.
// It validates each record in an incoming batch, drops malformed ones
// individually, and forwards the remainder to the scheduler's ingest queue.
// It performs no windowing or classification of its own.
package receiver
