// Package ws is the WebSocket hub between the tracker core and its
// renderers. It pushes a ViewSnapshot to every connected client after each
// recomputation, and forwards the clients' interactive control messages
// (threshold, zoom span, scroll, run switch) to the scheduler. Renderers
// stay stateless: all windowing and classification happens server-side.
package ws
