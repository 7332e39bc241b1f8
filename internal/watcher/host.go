package watcher

import (
	"context"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
	"github.com/dshills/ecsync/internal/settings"
)

// Editor is an open editor in the host.
type Editor interface {
	// Document returns the editor's current document.
	Document() *document.Snapshot

	// SetOptions applies editor options.
	SetOptions(opts settings.EditorOptions)

	// Selections returns the editor's selections.
	Selections() []document.Selection

	// SetSelections replaces the editor's selections.
	SetSelections(sel []document.Selection)
}

// Host is the editor the watcher drives.
type Host interface {
	// ActiveEditor returns the focused editor, or nil when none is open.
	ActiveEditor() Editor

	// SetDocumentLanguage changes the language of doc and returns the
	// updated document. It fails for identifiers the host does not know.
	SetDocumentLanguage(ctx context.Context, doc *document.Snapshot, languageID string) (*document.Snapshot, error)
}

// Resolver supplies configuration for documents.
type Resolver interface {
	// ResolveCoreConfig returns the properties for doc, or nil when none
	// apply. onBeforeResolve is called before configuration files are read.
	ResolveCoreConfig(ctx context.Context, doc *document.Snapshot, onBeforeResolve func(rel string)) (*editorconfig.Properties, error)

	// ResolveTextEditorOptions merges defaults with the configuration of
	// doc. onEmptyConfig is called when no configuration applies.
	ResolveTextEditorOptions(ctx context.Context, doc *document.Snapshot, defaults settings.EditorOptions, onEmptyConfig func(rel string)) (settings.EditorOptions, *editorconfig.Properties, error)

	// PickWorkspaceDefaults reloads and returns workspace editor defaults.
	PickWorkspaceDefaults() (settings.EditorOptions, error)

	// RelativePath formats path for diagnostics.
	RelativePath(path string) string
}
