package transform

import (
	"strings"
	"unicode"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
)

// TrimTrailingWhitespace deletes trailing whitespace from every line when
// trim_trailing_whitespace is true. Each edit covers exactly the trailing
// run of one line so that hosts can remap selections.
type TrimTrailingWhitespace struct{}

// Name returns the rule name.
func (TrimTrailingWhitespace) Name() string { return "TrimTrailingWhitespace" }

// Transform implements Rule.
func (t TrimTrailingWhitespace) Transform(props *editorconfig.Properties, doc *document.Snapshot, _ SaveReason) Result {
	enabled, err := boolProperty(t.Name(), props, editorconfig.KeyTrimTrailingWhitespace)
	if err != nil {
		return Failed(err)
	}
	if !enabled || doc == nil {
		return NoEdits()
	}

	var edits []document.Edit
	for n := uint32(0); n < doc.LineCount(); n++ {
		text := doc.LineText(n)
		kept := strings.TrimRightFunc(text, isTrailingSpace)
		if len(kept) == len(text) {
			continue
		}
		edits = append(edits, document.NewDelete(document.Range{
			Start: document.Point{Line: n, Column: uint32(len(kept))},
			End:   document.Point{Line: n, Column: uint32(len(text))},
		}))
	}
	return WithEdits(edits...)
}

// isTrailingSpace matches the white space of an ECMAScript \s class:
// Unicode white space except NEL, plus the byte order mark.
func isTrailingSpace(r rune) bool {
	if r == '\u0085' {
		return false
	}
	return unicode.IsSpace(r) || r == '\ufeff'
}
