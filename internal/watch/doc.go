// Package watch monitors a set of directories recursively for changes to
// source files. Raw filesystem events are filtered by extension, cleaned of
// editor noise, debounced, and delivered as coalesced change events on a
// channel consumed by the supervisor.
package watch
