package settings

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
)

// Resolver combines EditorConfig resolution with workspace settings.
// It is what the document watcher consults for every event.
type Resolver struct {
	core  *editorconfig.Resolver
	store *Store
	root  string

	mu sync.Mutex
}

// NewResolver creates a resolver. root is used for relative paths in
// diagnostics; store may be nil when there are no workspace settings.
func NewResolver(core *editorconfig.Resolver, store *Store, root string) *Resolver {
	if core == nil {
		core = editorconfig.NewResolver()
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	return &Resolver{core: core, store: store, root: root}
}

// Core returns the underlying EditorConfig resolver.
func (r *Resolver) Core() *editorconfig.Resolver {
	return r.core
}

// RelativePath returns path relative to the workspace root, or path itself
// when it lies outside the root.
func (r *Resolver) RelativePath(path string) string {
	if path == "" {
		return "[no file]"
	}
	if r.root == "" {
		return path
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.ToSlash(rel)
}

// ResolveCoreConfig returns the EditorConfig properties for doc, or nil
// when none apply. Documents without a path never have configuration.
// onBeforeResolve, if non-nil, is called with the relative path before the
// file system is consulted.
func (r *Resolver) ResolveCoreConfig(ctx context.Context, doc *document.Snapshot, onBeforeResolve func(rel string)) (*editorconfig.Properties, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if doc == nil || doc.Path() == "" {
		return nil, nil
	}
	if onBeforeResolve != nil {
		onBeforeResolve(r.RelativePath(doc.Path()))
	}
	return r.core.Resolve(doc.Path())
}

// ResolveTextEditorOptions merges defaults with the configuration of doc.
// When no configuration applies, onEmptyConfig is called and defaults are
// returned unchanged. The resolved properties are returned so that callers
// can act on keys that are not editor options, such as language.
//
// A non-nil error with non-nil properties means some values could not be
// interpreted; the returned options hold everything that could.
func (r *Resolver) ResolveTextEditorOptions(ctx context.Context, doc *document.Snapshot, defaults EditorOptions, onEmptyConfig func(rel string)) (EditorOptions, *editorconfig.Properties, error) {
	props, err := r.ResolveCoreConfig(ctx, doc, nil)
	if err != nil {
		return defaults, nil, err
	}
	if props.IsEmpty() {
		if onEmptyConfig != nil && doc != nil {
			onEmptyConfig(r.RelativePath(doc.Path()))
		}
		return defaults, nil, nil
	}
	opts, err := FromProperties(props, defaults)
	return opts, props, err
}

// PickWorkspaceDefaults reloads workspace settings and returns the editor
// defaults. The EditorConfig cache is dropped as well, since callers use
// this on configuration changes.
func (r *Resolver) PickWorkspaceDefaults() (EditorOptions, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.core.Invalidate()
	if r.store == nil {
		return DefaultOptions(), nil
	}
	err := r.store.Reload()
	return r.store.Defaults(), err
}

// SettingsPaths returns the workspace settings files, if any.
func (r *Resolver) SettingsPaths() []string {
	if r.store == nil {
		return nil
	}
	return r.store.Paths()
}

// IsSettingsFile reports whether path is a workspace settings file.
func (r *Resolver) IsSettingsFile(path string) bool {
	return r.store != nil && r.store.IsSettingsFile(path)
}

// IsConfigFile reports whether path is an EditorConfig file.
func (r *Resolver) IsConfigFile(path string) bool {
	return r.core.IsConfigFile(path)
}
