// Package canvas implements the drawing surface versioned by the history
// engine.
//
// A Canvas holds an ordered object graph (bottom first), a page background
// and a viewport transform used for pan and zoom. It serializes to a JSON
// document of the form
//
//	{"version":"1","background":"#fff","objects":[{"type":"rect",...}]}
//
// keeping geometry properties plus an allow-list of extra keys, and renders
// through gg. Every mutation is announced on an event bus so an editor can
// turn changes into history entries. Loading a snapshot announces each
// restored object the same way, which is why the history manager guards
// saves during loads.
package canvas
