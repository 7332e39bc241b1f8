package document

import "fmt"

// EditKind distinguishes positional edits from end-of-line directives.
type EditKind uint8

const (
	// EditReplace replaces Range with NewText.
	EditReplace EditKind = iota
	// EditEndOfLine switches the whole document to EndOfLine.
	// It carries no range and is not a textual edit.
	EditEndOfLine
)

// String returns a string representation of the edit kind.
func (k EditKind) String() string {
	switch k {
	case EditReplace:
		return "replace"
	case EditEndOfLine:
		return "eol"
	default:
		return "unknown"
	}
}

// Edit is a single change proposed for a document.
type Edit struct {
	Kind      EditKind
	Range     Range      // The range to replace (EditReplace only)
	NewText   string     // The replacement text (EditReplace only)
	EndOfLine LineEnding // The target line ending (EditEndOfLine only)
}

// NewEdit creates an edit replacing r with newText.
func NewEdit(r Range, newText string) Edit {
	return Edit{Kind: EditReplace, Range: r, NewText: newText}
}

// NewInsert creates an edit inserting text at p.
func NewInsert(p Point, text string) Edit {
	return NewEdit(Range{Start: p, End: p}, text)
}

// NewDelete creates an edit deleting r.
func NewDelete(r Range) Edit {
	return NewEdit(r, "")
}

// SetEndOfLine creates a document-wide end-of-line directive.
func SetEndOfLine(le LineEnding) Edit {
	return Edit{Kind: EditEndOfLine, EndOfLine: le}
}

// IsEndOfLine returns true for end-of-line directives.
func (e Edit) IsEndOfLine() bool {
	return e.Kind == EditEndOfLine
}

// IsInsert returns true if this is a pure insertion.
func (e Edit) IsInsert() bool {
	return e.Kind == EditReplace && e.Range.IsEmpty() && e.NewText != ""
}

// IsDelete returns true if this is a pure deletion.
func (e Edit) IsDelete() bool {
	return e.Kind == EditReplace && !e.Range.IsEmpty() && e.NewText == ""
}

// IsNoOp returns true if this edit does nothing to the text.
func (e Edit) IsNoOp() bool {
	return e.Kind == EditReplace && e.Range.IsEmpty() && e.NewText == ""
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	switch {
	case e.IsEndOfLine():
		return fmt.Sprintf("SetEndOfLine(%s)", e.EndOfLine)
	case e.Range.IsEmpty():
		return fmt.Sprintf("Insert%s %q", e.Range.Start, e.NewText)
	case e.NewText == "":
		return fmt.Sprintf("Delete%s", e.Range)
	default:
		return fmt.Sprintf("Replace%s with %q", e.Range, e.NewText)
	}
}
