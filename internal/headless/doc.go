// Package headless is a file-backed editor host.
//
// It implements the host side of the document watcher contract without a
// user interface: documents are read from disk, lifecycle events are sent
// on a channel, and saves wait for pre-save edits before writing the file
// under an advisory lock. The ecsync command and end-to-end tests drive it.
package headless
