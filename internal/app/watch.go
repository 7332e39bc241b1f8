package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/dshills/ecsync/internal/fswatch"
	"github.com/dshills/ecsync/internal/workspace"
)

// Watch processes files as they change on disk until ctx is done.
// Changes to EditorConfig or settings files reload the configuration.
func (app *Application) Watch(ctx context.Context) error {
	if !app.IsRunning() {
		return ErrNotRunning
	}

	fw, err := fswatch.New(
		fswatch.WithDebounceDelay(app.opts.Debounce),
		fswatch.WithIgnore(app.walker.Ignored),
	)
	if err != nil {
		return &InitError{Component: "file watcher", Err: err}
	}
	defer fw.Close()

	if err := fw.WatchRecursive(app.Root()); err != nil {
		return &InitError{Component: "file watcher", Err: err}
	}
	for _, p := range app.resolver.SettingsPaths() {
		dir := filepath.Dir(p)
		if fw.IsWatching(dir) {
			continue
		}
		if err := fw.Watch(dir); err != nil && !errors.Is(err, fswatch.ErrPathNotExist) {
			app.log.Warn("watching %s: %v", dir, err)
		}
	}
	app.log.Info("watching %s: %d directories", app.Root(), len(fw.WatchedPaths()))
	defer func() {
		app.log.Info("stopped watching: %d changes, %d errors", fw.TotalEvents(), fw.TotalErrors())
	}()

	router := &fswatch.Router{
		IsConfigFile:   app.resolver.IsConfigFile,
		IsSettingsFile: app.resolver.IsSettingsFile,
		OnFile:         app.onFileChanged,
		OnError: func(err error) {
			app.log.Warn("file watcher: %v", err)
		},
	}
	err = router.Run(ctx, fw, app.events)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (app *Application) onFileChanged(ctx context.Context, ev fswatch.Event) {
	info, err := os.Stat(ev.Path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	if binary, err := workspace.IsBinaryFile(ev.Path); err != nil || binary {
		return
	}

	res := app.ProcessFile(ctx, ev.Path)
	switch {
	case res.Err != nil:
		app.log.Warn("%v", res.Err)
	case res.Written:
		app.log.Info("%s: fixed", res.Rel)
	}
}
