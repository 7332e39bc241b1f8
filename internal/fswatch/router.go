package fswatch

import (
	"context"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/event"
)

// Source is the event source recorded by the router.
const Source = "fswatch"

// Router turns file changes into lifecycle events.
type Router struct {
	// IsConfigFile reports whether a path is an EditorConfig file.
	IsConfigFile func(path string) bool

	// IsSettingsFile reports whether a path is a workspace settings file.
	IsSettingsFile func(path string) bool

	// OnFile is called for creates and writes of any other file.
	OnFile func(ctx context.Context, ev Event)

	// OnError is called for watcher errors.
	OnError func(err error)
}

// Route maps a file change to a lifecycle event. It returns nil for
// changes that are not configuration changes.
func (r *Router) Route(ev Event) event.Event {
	switch {
	case r.IsConfigFile != nil && r.IsConfigFile(ev.Path):
		return event.DocumentSaved{
			Metadata: event.NewMetadata(Source),
			Document: document.NewSnapshot(ev.Path, "", ""),
		}
	case r.IsSettingsFile != nil && r.IsSettingsFile(ev.Path):
		return event.ConfigurationChanged{
			Metadata: event.NewMetadata(Source),
			Paths:    []string{ev.Path},
		}
	default:
		return nil
	}
}

// Run forwards events from w until ctx is done or w is closed.
// Configuration events are sent to out; other writes go to OnFile.
func (r *Router) Run(ctx context.Context, w *Watcher, out chan<- event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if routed := r.Route(ev); routed != nil {
				select {
				case out <- routed:
				case <-ctx.Done():
					return ctx.Err()
				}
				continue
			}
			if r.OnFile != nil && (ev.Op.Has(OpCreate) || ev.Op.Has(OpWrite)) {
				r.OnFile(ctx, ev)
			}

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			if r.OnError != nil {
				r.OnError(err)
			}
		}
	}
}
