// Package fswatch watches a workspace for file changes and turns them into
// editor lifecycle events.
//
// Watcher wraps fsnotify with recursive directory watches and per-path
// debouncing. Router maps the debounced changes to events: a change to an
// .editorconfig file becomes DocumentSaved, a change to a workspace
// settings file becomes ConfigurationChanged, and writes to other files are
// passed to a callback.
package fswatch
