package document

import (
	"errors"
	"path/filepath"
)

// Errors returned by snapshot operations.
var (
	ErrPointOutOfRange = errors.New("point out of range")
	ErrRangeInvalid    = errors.New("invalid range")
	ErrEditsOverlap    = errors.New("edits overlap")
)

// line is one line of a snapshot: text [start, end) followed by a
// terminator of eolLen bytes.
type line struct {
	start  int
	end    int
	eolLen int
}

// Snapshot is a read-only view of a document at a point in time.
// It is safe for concurrent access.
type Snapshot struct {
	path       string
	languageID string
	text       string
	lines      []line
	lineEnding LineEnding
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithLineEnding overrides the detected line ending style.
func WithLineEnding(le LineEnding) Option {
	return func(s *Snapshot) {
		s.lineEnding = le
	}
}

// NewSnapshot creates a snapshot of text. The line ending style is
// detected from the content unless WithLineEnding is given.
func NewSnapshot(path, languageID, text string, opts ...Option) *Snapshot {
	s := &Snapshot{
		path:       path,
		languageID: languageID,
		text:       text,
		lines:      splitLines(text),
		lineEnding: DetectLineEnding(text),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func splitLines(text string) []line {
	lines := make([]line, 0, 16)
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			lines = append(lines, line{start: start, end: i, eolLen: 1})
			start = i + 1
		case '\r':
			n := 1
			if i+1 < len(text) && text[i+1] == '\n' {
				n = 2
			}
			lines = append(lines, line{start: start, end: i, eolLen: n})
			i += n - 1
			start = i + 1
		}
	}
	return append(lines, line{start: start, end: len(text)})
}

// Path returns the document's file path.
func (s *Snapshot) Path() string {
	return s.path
}

// Name returns the base name of the document's path.
func (s *Snapshot) Name() string {
	return filepath.Base(s.path)
}

// LanguageID returns the document's language identifier.
func (s *Snapshot) LanguageID() string {
	return s.languageID
}

// LineEnding returns the snapshot's line ending style.
func (s *Snapshot) LineEnding() LineEnding {
	return s.lineEnding
}

// Text returns the full content.
func (s *Snapshot) Text() string {
	return s.text
}

// Len returns the byte length of the content.
func (s *Snapshot) Len() int {
	return len(s.text)
}

// IsEmpty returns true if the snapshot has no content.
func (s *Snapshot) IsEmpty() bool {
	return len(s.text) == 0
}

// LineCount returns the number of lines. It is never less than one.
func (s *Snapshot) LineCount() uint32 {
	return uint32(len(s.lines))
}

// LineText returns the text of a line without its terminator.
// It returns "" for lines out of range.
func (s *Snapshot) LineText(n uint32) string {
	if int(n) >= len(s.lines) {
		return ""
	}
	l := s.lines[n]
	return s.text[l.start:l.end]
}

// LineRange returns the range covering a line's text, excluding its
// terminator.
func (s *Snapshot) LineRange(n uint32) Range {
	return Range{
		Start: Point{Line: n},
		End:   Point{Line: n, Column: uint32(len(s.LineText(n)))},
	}
}

// End returns the point after the last character of the document.
func (s *Snapshot) End() Point {
	last := uint32(len(s.lines) - 1)
	return Point{Line: last, Column: uint32(len(s.LineText(last)))}
}

// Clamp returns the nearest valid point to p. Columns past the end of a
// line move to the end of that line and lines past the end of the
// document move to End.
func (s *Snapshot) Clamp(p Point) Point {
	if p.Line >= s.LineCount() {
		return s.End()
	}
	r := s.LineRange(p.Line)
	if r.Contains(p) {
		return p
	}
	return r.End
}

// EndsWithNewline returns true if the content ends in a line terminator.
func (s *Snapshot) EndsWithNewline() bool {
	if len(s.text) == 0 {
		return false
	}
	c := s.text[len(s.text)-1]
	return c == '\n' || c == '\r'
}

// WithLanguage returns a copy of the snapshot carrying another language
// identifier.
func (s *Snapshot) WithLanguage(languageID string) *Snapshot {
	cp := *s
	cp.languageID = languageID
	return &cp
}

// Offset converts a point to a byte offset.
func (s *Snapshot) Offset(p Point) (int, error) {
	if int(p.Line) >= len(s.lines) {
		return 0, ErrPointOutOfRange
	}
	l := s.lines[p.Line]
	if int(p.Column) > l.end-l.start {
		return 0, ErrPointOutOfRange
	}
	return l.start + int(p.Column), nil
}

// OffsetRange converts a range to byte offsets.
func (s *Snapshot) OffsetRange(r Range) (start, end int, err error) {
	if !r.IsValid() {
		return 0, 0, ErrRangeInvalid
	}
	if start, err = s.Offset(r.Start); err != nil {
		return 0, 0, err
	}
	if end, err = s.Offset(r.End); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
