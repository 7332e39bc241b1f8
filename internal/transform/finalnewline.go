package transform

import (
	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
)

// InsertFinalNewline appends a line terminator when insert_final_newline is
// true and the last line is not empty. The terminator follows end_of_line
// when it names a known style and the document's own style otherwise.
// Saves after an idle delay are left alone so that typing is not disturbed.
type InsertFinalNewline struct{}

// Name returns the rule name.
func (InsertFinalNewline) Name() string { return "InsertFinalNewline" }

// Transform implements Rule.
func (f InsertFinalNewline) Transform(props *editorconfig.Properties, doc *document.Snapshot, reason SaveReason) Result {
	enabled, err := boolProperty(f.Name(), props, editorconfig.KeyInsertFinalNewline)
	if err != nil {
		return Failed(err)
	}
	if !enabled || doc == nil {
		return NoEdits()
	}
	if reason == SaveAfterDelay {
		return NoEdits().WithMessage("insert_final_newline skipped for auto save after delay")
	}
	if doc.IsEmpty() || doc.EndsWithNewline() {
		return NoEdits()
	}

	eol := doc.LineEnding()
	if le, ok := document.ParseLineEnding(props.String(editorconfig.KeyEndOfLine)); ok {
		eol = le
	}
	return WithEdits(document.NewInsert(doc.End(), eol.Sequence()))
}
