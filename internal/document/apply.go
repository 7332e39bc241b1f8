package document

import (
	"fmt"
	"sort"
	"strings"
)

// Apply applies edits to s atomically and returns the resulting snapshot.
// Either every edit is applied or none is.
//
// Text edits are positioned against s and must not overlap; insertions at
// the same point are applied in the order given. End-of-line directives
// apply after the text edits and convert every terminator in the result;
// when several are given the last one wins.
func Apply(s *Snapshot, edits []Edit) (*Snapshot, error) {
	type span struct {
		start, end int
		text       string
		order      int
	}

	eol := s.lineEnding
	setEOL := false
	spans := make([]span, 0, len(edits))

	for i, e := range edits {
		if e.IsEndOfLine() {
			eol = e.EndOfLine
			setEOL = true
			continue
		}
		if e.IsNoOp() {
			continue
		}
		start, end, err := s.OffsetRange(e.Range)
		if err != nil {
			return nil, fmt.Errorf("edit %d %s: %w", i, e, err)
		}
		spans = append(spans, span{start: start, end: end, text: e.NewText, order: i})
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].start < spans[j].start
	})
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return nil, fmt.Errorf("edits %d and %d: %w", spans[i-1].order, spans[i].order, ErrEditsOverlap)
		}
	}

	var b strings.Builder
	b.Grow(len(s.text))
	pos := 0
	for _, sp := range spans {
		b.WriteString(s.text[pos:sp.start])
		b.WriteString(sp.text)
		pos = sp.end
	}
	b.WriteString(s.text[pos:])

	text := b.String()
	if setEOL {
		text = NormalizeLineEndings(text, eol)
	}
	return NewSnapshot(s.path, s.languageID, text, WithLineEnding(eol)), nil
}
