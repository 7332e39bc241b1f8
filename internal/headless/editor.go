package headless

import (
	"sync"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/settings"
)

// Editor is an open document in the headless host.
type Editor struct {
	mu         sync.Mutex
	doc        *document.Snapshot
	opts       settings.EditorOptions
	optsSet    bool
	selections []document.Selection
}

func newEditor(doc *document.Snapshot) *Editor {
	return &Editor{
		doc:        doc,
		selections: []document.Selection{document.Caret(document.Point{})},
	}
}

// Document returns the editor's current document.
func (e *Editor) Document() *document.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

// SetOptions applies editor options.
func (e *Editor) SetOptions(opts settings.EditorOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
	e.optsSet = true
}

// Options returns the applied editor options and whether any were applied.
func (e *Editor) Options() (settings.EditorOptions, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts, e.optsSet
}

// Selections returns a copy of the editor's selections.
func (e *Editor) Selections() []document.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]document.Selection, len(e.selections))
	copy(out, e.selections)
	return out
}

// SetSelections replaces the editor's selections. Points that fall
// outside the current document are clamped into it.
func (e *Editor) SetSelections(sel []document.Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selections = clampSelections(e.doc, sel)
}

func (e *Editor) setDocument(doc *document.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = doc
	e.selections = clampSelections(doc, e.selections)
}

func clampSelections(doc *document.Snapshot, sel []document.Selection) []document.Selection {
	out := make([]document.Selection, len(sel))
	for i, s := range sel {
		if doc != nil {
			s = document.Selection{Anchor: doc.Clamp(s.Anchor), Active: doc.Clamp(s.Active)}
		}
		out[i] = s
	}
	return out
}
