// Package transform computes the edits a document needs before it is saved.
//
// Each Rule reads a single EditorConfig property and proposes edits for a
// document snapshot. Rules never modify the snapshot; the host applies the
// combined edits atomically. A Pipeline runs rules in a fixed order and
// collects their edits, skipping any rule that reported an error.
package transform
