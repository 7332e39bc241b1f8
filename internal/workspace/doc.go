// Package workspace enumerates the files of a workspace.
//
// A Walker applies the workspace's .gitignore, a fixed set of directories
// that are never processed, and caller-supplied patterns. Binary files are
// skipped by sniffing their first bytes. The same ignore rules are exposed
// as a predicate for the file system watcher.
package workspace
