// Package scheduler drives the tracker's recomputation loop. A single
// goroutine owns all run mutation: it drains routed records into the stores
// on a fixed tick, applies interactive events (threshold, zoom, scroll, run
// switch) immediately, and emits a ViewSnapshot for the selected run after
// every recomputation. Producers only ever enqueue onto its channels.
package scheduler
