package document

import "fmt"

// Point represents a line and column position.
// Both Line and Column are 0-indexed.
// Column is measured in bytes from the start of the line.
type Point struct {
	Line   uint32 // 0-indexed line number
	Column uint32 // 0-indexed column (byte offset within line)
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Point) Before(other Point) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Point) After(other Point) bool {
	return p.Compare(other) > 0
}

// Range is a span between two points. Start is inclusive, End is exclusive.
type Range struct {
	Start Point
	End   Point
}

// NewRange creates a Range, ordering the points if needed.
func NewRange(a, b Point) Range {
	if b.Before(a) {
		a, b = b, a
	}
	return Range{Start: a, End: b}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%s-%s)", r.Start, r.End)
}

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// IsValid returns true if Start does not come after End.
func (r Range) IsValid() bool {
	return !r.Start.After(r.End)
}

// Contains returns true if p lies within [Start, End].
// The end point is included so that a caret at the end of a line counts
// as inside the line's range.
func (r Range) Contains(p Point) bool {
	return !p.Before(r.Start) && !p.After(r.End)
}

// Selection is a user selection. Anchor is where it started and Active is
// where the caret is. An empty selection is a plain caret.
type Selection struct {
	Anchor Point
	Active Point
}

// Caret returns an empty selection at p.
func Caret(p Point) Selection {
	return Selection{Anchor: p, Active: p}
}

// Range returns the ordered range covered by the selection.
func (s Selection) Range() Range {
	return NewRange(s.Anchor, s.Active)
}

// IsEmpty returns true if the selection is a caret.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Active
}
