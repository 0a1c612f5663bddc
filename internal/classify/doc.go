// Package classify splits the currently-visible records into accepted and
// rejected sets against the live spot-count threshold, and derives the
// chart's y-bound from the visible data.
package classify
