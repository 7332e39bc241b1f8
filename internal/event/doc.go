// Package event defines the editor lifecycle events the document watcher
// consumes and the SaveWait future used to intercept saves.
//
// Hosts publish events on a single channel; the watcher handles them one at
// a time in arrival order.
package event
