package transform

import (
	"strings"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
)

// SetEndOfLine emits an end-of-line directive for end_of_line = lf or crlf.
// Other values, including cr, produce nothing. The document content is not
// inspected.
type SetEndOfLine struct{}

// Name returns the rule name.
func (SetEndOfLine) Name() string { return "SetEndOfLine" }

// Transform implements Rule.
func (SetEndOfLine) Transform(props *editorconfig.Properties, _ *document.Snapshot, _ SaveReason) Result {
	switch strings.ToLower(props.String(editorconfig.KeyEndOfLine)) {
	case "lf":
		return WithEdits(document.SetEndOfLine(document.LineEndingLF))
	case "crlf":
		return WithEdits(document.SetEndOfLine(document.LineEndingCRLF))
	default:
		return NoEdits()
	}
}
