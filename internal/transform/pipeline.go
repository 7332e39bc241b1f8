package transform

import (
	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
)

// Step records the result of one rule within a pipeline run.
type Step struct {
	Rule   string
	Result Result
}

// Outcome is the result of a pipeline run.
type Outcome struct {
	// Edits holds the edits of every rule that succeeded, in rule order.
	Edits []document.Edit

	// Steps holds one entry per rule that ran.
	Steps []Step
}

// HasTextEdits reports whether any edit changes text, as opposed to only
// directing the end-of-line style.
func (o Outcome) HasTextEdits() bool {
	for _, e := range o.Edits {
		if !e.IsEndOfLine() && !e.IsNoOp() {
			return true
		}
	}
	return false
}

// Pipeline runs rules in a fixed order.
type Pipeline struct {
	rules []Rule
}

// NewPipeline creates a pipeline running rules in the given order.
func NewPipeline(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// DefaultPipeline returns the standard pre-save pipeline:
// SetEndOfLine, TrimTrailingWhitespace, InsertFinalNewline.
func DefaultPipeline() *Pipeline {
	return NewPipeline(SetEndOfLine{}, TrimTrailingWhitespace{}, InsertFinalNewline{})
}

// Rules returns the rules in execution order.
func (p *Pipeline) Rules() []Rule {
	out := make([]Rule, len(p.rules))
	copy(out, p.rules)
	return out
}

// Run applies every rule to doc. When props is nil or empty no rule is
// invoked and the outcome is empty. A rule that fails contributes no edits; the others
// still run.
func (p *Pipeline) Run(props *editorconfig.Properties, doc *document.Snapshot, reason SaveReason) Outcome {
	var out Outcome
	if props.IsEmpty() {
		return out
	}
	for _, rule := range p.rules {
		res := rule.Transform(props, doc, reason)
		out.Steps = append(out.Steps, Step{Rule: rule.Name(), Result: res})
		if res.IsError() {
			continue
		}
		out.Edits = append(out.Edits, res.Edits...)
	}
	return out
}
