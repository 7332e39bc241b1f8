package transform

import (
	"fmt"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
)

// SaveReason describes what triggered a save.
type SaveReason uint8

const (
	// SaveManual is an explicit save by the user.
	SaveManual SaveReason = iota
	// SaveAfterDelay is an automatic save after an idle delay.
	SaveAfterDelay
	// SaveFocusOut is an automatic save when the editor lost focus.
	SaveFocusOut
)

// String returns a string representation of the save reason.
func (r SaveReason) String() string {
	switch r {
	case SaveManual:
		return "manual"
	case SaveAfterDelay:
		return "after-delay"
	case SaveFocusOut:
		return "focus-out"
	default:
		return "unknown"
	}
}

// ParseSaveReason parses the String form of a save reason.
func ParseSaveReason(s string) (SaveReason, error) {
	switch s {
	case "manual", "":
		return SaveManual, nil
	case "after-delay":
		return SaveAfterDelay, nil
	case "focus-out":
		return SaveFocusOut, nil
	default:
		return SaveManual, fmt.Errorf("unknown save reason %q", s)
	}
}

// Result is the outcome of running one rule.
type Result struct {
	// Edits proposed by the rule. Ignored when Err is set.
	Edits []document.Edit

	// Err is set when the rule could not interpret its property.
	Err error

	// Message is an optional diagnostic, independent of Err.
	Message string
}

// IsError returns true if the rule failed.
func (r Result) IsError() bool {
	return r.Err != nil
}

// NoEdits creates an empty result.
func NoEdits() Result {
	return Result{}
}

// WithEdits creates a result carrying edits.
func WithEdits(edits ...document.Edit) Result {
	return Result{Edits: edits}
}

// Failed creates an error result.
func Failed(err error) Result {
	return Result{Err: err}
}

// WithMessage returns a copy of the result with the specified message.
func (r Result) WithMessage(msg string) Result {
	r.Message = msg
	return r
}

// Rule is a single pre-save transformation. Rules are stateless.
type Rule interface {
	// Name identifies the rule in diagnostics.
	Name() string

	// Transform proposes edits for doc under props.
	Transform(props *editorconfig.Properties, doc *document.Snapshot, reason SaveReason) Result
}

// boolProperty reads a boolean property, wrapping interpretation errors
// with the rule name.
func boolProperty(rule string, props *editorconfig.Properties, key string) (bool, error) {
	v, _, err := props.Bool(key)
	if err != nil {
		return false, fmt.Errorf("%s: %w", rule, err)
	}
	return v, nil
}
