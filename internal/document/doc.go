// Package document provides the read-only document model that formatting
// rules operate on, and the edit types they produce.
//
// The package provides:
//
//   - Snapshot: an immutable view of a document's text, split into lines,
//     together with its path, language identifier and line ending style
//   - Point, Range and Selection in line/column coordinates (columns in bytes)
//   - Edit: either a positional text replacement or a document-wide
//     end-of-line directive
//   - Apply: atomic application of a set of edits to a snapshot
//
// Basic usage:
//
//	snap := document.NewSnapshot("/src/a.go", "go", "a  \nb\n")
//	edits := []document.Edit{
//	    document.NewDelete(document.NewRange(document.Point{Line: 0, Column: 1},
//	        document.Point{Line: 0, Column: 3})),
//	    document.SetEndOfLine(document.LineEndingCRLF),
//	}
//	next, err := document.Apply(snap, edits)
//	// next.Text() == "a\r\nb\r\n"
//
// Line Model:
//
// Lines are separated by "\r\n", "\n" or "\r". Line text never includes the
// terminator. A document ending in a terminator has a final empty line, and
// an empty document has exactly one empty line.
package document
