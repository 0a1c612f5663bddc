// Package window implements the pan/zoom/scroll view window for one run's
// chart. It is a three-state machine (full view, free zoom, zoom locked to
// the latest frame) owning the visible x-bounds that the classifier and
// the renderer consume.
package window
