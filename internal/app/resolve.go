package app

import (
	"context"
	"path/filepath"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
	"github.com/dshills/ecsync/internal/settings"
)

// Resolution describes the configuration that applies to one file.
type Resolution struct {
	Path        string                   `json:"path"`
	Properties  *editorconfig.Properties `json:"properties"`
	Options     settings.EditorOptions   `json:"options"`
	ConfigFiles []string                 `json:"configFiles"`
	Skipped     []string                 `json:"skipped,omitempty"`
}

// Resolve reports the EditorConfig properties and editor options for path
// without opening it. The file does not have to exist.
func (app *Application) Resolve(ctx context.Context, path string) (*Resolution, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	defaults, err := app.resolver.PickWorkspaceDefaults()
	if err != nil {
		app.log.Warn("loading workspace settings: %v", err)
	}

	doc := document.NewSnapshot(abs, app.host.Registry().Detect(abs), "")
	opts, props, err := app.resolver.ResolveTextEditorOptions(ctx, doc, defaults, nil)
	if err != nil && props == nil {
		return nil, err
	}

	files, ferr := app.core.ConfigFiles(abs)
	if ferr != nil {
		return nil, ferr
	}
	res := &Resolution{
		Path:        app.resolver.RelativePath(abs),
		Properties:  props,
		Options:     opts,
		ConfigFiles: make([]string, 0, len(files)),
	}
	for _, f := range files {
		res.ConfigFiles = append(res.ConfigFiles, app.resolver.RelativePath(f.Path))
		for _, s := range f.Skipped {
			res.Skipped = append(res.Skipped, s.Error())
		}
	}
	return res, err
}
