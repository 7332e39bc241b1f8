// Package app wires the EditorConfig watcher, the headless host and the
// workspace together for the ecsync command.
package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/ecsync/internal/editorconfig"
	"github.com/dshills/ecsync/internal/event"
	"github.com/dshills/ecsync/internal/headless"
	"github.com/dshills/ecsync/internal/logging"
	"github.com/dshills/ecsync/internal/settings"
	"github.com/dshills/ecsync/internal/transform"
	"github.com/dshills/ecsync/internal/watcher"
	"github.com/dshills/ecsync/internal/workspace"
)

// Options configures the application.
type Options struct {
	// Root is the workspace directory. Defaults to the current directory.
	Root string

	// SettingsPath replaces the workspace settings files when set.
	SettingsPath string

	// SaveTimeout bounds how long a save waits for pre-save edits.
	SaveTimeout time.Duration

	// LockTimeout bounds how long a save waits for the file lock.
	LockTimeout time.Duration

	// Debounce is the quiet period before a changed file is processed
	// in watch mode.
	Debounce time.Duration

	// NoGitignore disables the workspace .gitignore.
	NoGitignore bool

	// Ignore holds additional gitignore-style patterns.
	Ignore []string

	// DryRun computes changes without writing files.
	DryRun bool

	// Reason is the save reason reported to the pre-save pipeline.
	Reason transform.SaveReason

	// Logger receives the watcher's output. Defaults to stderr.
	Logger *logging.Logger
}

// Application owns one watcher session over a workspace.
type Application struct {
	opts Options
	log  *logging.Logger

	core     *editorconfig.Resolver
	store    *settings.Store
	resolver *settings.Resolver
	walker   *workspace.Walker
	host     *headless.Host
	watcher  *watcher.Watcher
	events   chan event.Event

	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	done    chan error
}

// New creates an application. Nothing runs until Start.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes components in dependency order.
func (app *Application) bootstrap() error {
	if app.opts.Root == "" {
		app.opts.Root = "."
	}
	app.log = app.opts.Logger
	if app.log == nil {
		app.log = logging.New(logging.DefaultConfig())
	}

	walker, err := workspace.NewWalker(app.opts.Root,
		workspace.WithGitignore(!app.opts.NoGitignore),
		workspace.WithIgnorePatterns(app.opts.Ignore...),
		workspace.WithLogger(app.log.WithComponent("workspace")),
	)
	if err != nil {
		return &InitError{Component: "workspace", Err: err}
	}
	app.walker = walker
	root := walker.Root()

	paths := settings.DefaultPaths(root)
	if app.opts.SettingsPath != "" {
		paths = []string{app.opts.SettingsPath}
	}
	app.store = settings.NewStore(nil, paths...)
	app.core = editorconfig.NewResolver()
	app.resolver = settings.NewResolver(app.core, app.store, root)

	app.events = make(chan event.Event)
	app.host = headless.New(app.events,
		headless.WithSaveTimeout(app.opts.SaveTimeout),
		headless.WithLockTimeout(app.opts.LockTimeout),
		headless.WithDryRun(app.opts.DryRun),
		headless.WithLogger(app.log.WithComponent("host")),
	)
	app.watcher = watcher.New(app.host, app.resolver,
		watcher.WithLogger(app.log),
		watcher.WithConfigFileName(app.core.FileName()),
	)
	return nil
}

// Start runs the watcher until Shutdown or ctx is done.
func (app *Application) Start(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.running.Load() {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	app.cancel = cancel
	app.done = done
	app.running.Store(true)

	go func() {
		err := app.watcher.Run(ctx, app.events)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		app.running.Store(false)
		done <- err
	}()
	return nil
}

// Shutdown stops the watcher and waits for it to return.
func (app *Application) Shutdown() error {
	app.mu.Lock()
	cancel, done := app.cancel, app.done
	app.cancel, app.done = nil, nil
	app.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	return <-done
}

// IsRunning reports whether the watcher is running.
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// Root returns the absolute workspace root.
func (app *Application) Root() string {
	return app.walker.Root()
}

// Resolver returns the settings resolver.
func (app *Application) Resolver() *settings.Resolver {
	return app.resolver
}

// Walker returns the workspace walker.
func (app *Application) Walker() *workspace.Walker {
	return app.walker
}

// Host returns the headless host.
func (app *Application) Host() *headless.Host {
	return app.host
}
