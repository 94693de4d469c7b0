// Package event provides the synchronous publish/subscribe bus used to carry
// drawing-surface change notifications to the editor session.
//
// # Topics
//
// Events are addressed by hierarchical topics in dot notation:
//
//	canvas.object.added
//	canvas.object.modified
//	canvas.object.removed
//
// Subscriptions may use wildcards: "*" matches exactly one segment and "**"
// matches zero or more segments, so "canvas.**" receives every canvas event.
//
// # Delivery
//
// Publish runs every matching handler on the caller's goroutine, in priority
// order and then subscription order. This mirrors a UI event loop: a handler
// that mutates the canvas can cause further events to be published before
// Publish returns. Handler errors and panics are collected and returned
// without interrupting delivery to other subscribers.
package event
