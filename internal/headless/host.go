package headless

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/event"
	"github.com/dshills/ecsync/internal/logging"
	"github.com/dshills/ecsync/internal/transform"
	"github.com/dshills/ecsync/internal/watcher"
)

// Source is the event source recorded by the host.
const Source = "headless"

// Errors returned by the host.
var (
	ErrUnknownLanguage = errors.New("unknown language identifier")
	ErrNotOpen         = errors.New("document is not open")
	ErrLockTimeout     = errors.New("timeout acquiring file lock")
)

// lockPollInterval is the interval between lock attempts.
const lockPollInterval = 10 * time.Millisecond

// SaveResult describes a completed save.
type SaveResult struct {
	// Path is the saved file.
	Path string

	// Edits are the pre-save edits that were applied.
	Edits []document.Edit

	// Changed is true when the content differs from what was opened.
	Changed bool

	// Written is true when the file was written to disk.
	Written bool
}

// Host is a file-backed editor host. It is safe for concurrent use, but
// events are delivered on a single channel in call order.
type Host struct {
	events      chan<- event.Event
	registry    *Registry
	saveTimeout time.Duration
	lockTimeout time.Duration
	dryRun      bool
	log         *logging.Logger

	mu      sync.Mutex
	editors map[string]*Editor
	order   []string
	active  *Editor
}

// Option configures a Host.
type Option func(*Host)

// WithRegistry sets the language registry.
func WithRegistry(r *Registry) Option {
	return func(h *Host) {
		if r != nil {
			h.registry = r
		}
	}
}

// WithSaveTimeout bounds how long Save waits for pre-save edits.
func WithSaveTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.saveTimeout = d
	}
}

// WithLockTimeout bounds how long Save waits for the file lock.
func WithLockTimeout(d time.Duration) Option {
	return func(h *Host) {
		if d > 0 {
			h.lockTimeout = d
		}
	}
}

// WithDryRun makes Save compute results without writing files.
func WithDryRun(dry bool) Option {
	return func(h *Host) {
		h.dryRun = dry
	}
}

// WithLogger sets the host logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// New creates a host that publishes lifecycle events on events.
func New(events chan<- event.Event, opts ...Option) *Host {
	h := &Host{
		events:      events,
		registry:    DefaultRegistry(),
		saveTimeout: event.DefaultSaveTimeout,
		lockTimeout: 5 * time.Second,
		log:         logging.Discard(),
		editors:     make(map[string]*Editor),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry returns the host's language registry.
func (h *Host) Registry() *Registry {
	return h.registry
}

// Open reads path, makes it the active editor and publishes
// ActiveEditorChanged. Opening an open document only focuses it.
func (h *Host) Open(ctx context.Context, path string) (*Editor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	ed, ok := h.editors[abs]
	h.mu.Unlock()

	if !ok {
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		ed = newEditor(document.NewSnapshot(abs, h.registry.Detect(abs), string(data)))

		h.mu.Lock()
		if existing, dup := h.editors[abs]; dup {
			ed = existing
		} else {
			h.editors[abs] = ed
			h.order = append(h.order, abs)
		}
		h.mu.Unlock()
	}

	h.mu.Lock()
	h.active = ed
	h.mu.Unlock()

	h.log.Debug("opened %s", abs)
	return ed, h.emit(ctx, event.ActiveEditorChanged{
		Metadata: event.NewMetadata(Source),
		Document: ed.Document(),
	})
}

// Close closes path. If it was active, the most recently opened remaining
// editor becomes active and ActiveEditorChanged is published for it, with
// a nil document when none remain.
func (h *Host) Close(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	h.mu.Lock()
	ed, ok := h.editors[abs]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotOpen, path)
	}
	delete(h.editors, abs)
	for i, p := range h.order {
		if p == abs {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	wasActive := h.active == ed
	if wasActive {
		h.active = nil
		if n := len(h.order); n > 0 {
			h.active = h.editors[h.order[n-1]]
		}
	}
	next := h.active
	h.mu.Unlock()

	if !wasActive {
		return nil
	}
	ev := event.ActiveEditorChanged{Metadata: event.NewMetadata(Source)}
	if next != nil {
		ev.Document = next.Document()
	}
	return h.emit(ctx, ev)
}

// Editor returns the open editor for path.
func (h *Host) Editor(path string) (*Editor, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	ed, ok := h.editors[abs]
	return ed, ok
}

// ActiveEditor implements watcher.Host.
func (h *Host) ActiveEditor() watcher.Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active == nil {
		return nil
	}
	return h.active
}

// SetDocumentLanguage implements watcher.Host. Only identifiers in the
// registry are accepted.
func (h *Host) SetDocumentLanguage(_ context.Context, doc *document.Snapshot, languageID string) (*document.Snapshot, error) {
	if !h.registry.Known(languageID) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, languageID)
	}
	updated := doc.WithLanguage(languageID)
	if ed, ok := h.Editor(doc.Path()); ok {
		ed.setDocument(ed.Document().WithLanguage(languageID))
		updated = ed.Document()
	}
	return updated, nil
}

// Focus publishes a window focus change.
func (h *Host) Focus(ctx context.Context, focused bool) error {
	return h.emit(ctx, event.WindowStateChanged{
		Metadata: event.NewMetadata(Source),
		Focused:  focused,
	})
}

// ConfigurationChanged publishes a settings change.
func (h *Host) ConfigurationChanged(ctx context.Context, paths ...string) error {
	return h.emit(ctx, event.ConfigurationChanged{
		Metadata: event.NewMetadata(Source),
		Paths:    paths,
	})
}

// Save runs the pre-save protocol for an open document: it publishes
// WillSaveDocument, waits for edits, applies them atomically and writes the
// file if its content changed. A pre-save handler that fails or times out
// never prevents the save; the document is then written unchanged.
func (h *Host) Save(ctx context.Context, path string, reason transform.SaveReason) (SaveResult, error) {
	ed, ok := h.Editor(path)
	if !ok {
		return SaveResult{}, fmt.Errorf("%w: %s", ErrNotOpen, path)
	}
	doc := ed.Document()
	result := SaveResult{Path: doc.Path()}

	wait := event.NewSaveWait(ctx, h.saveTimeout)
	err := h.emit(ctx, event.WillSaveDocument{
		Metadata: event.NewMetadata(Source),
		Document: doc,
		Reason:   reason,
		Wait:     wait,
	})
	if err != nil {
		wait.Cancel()
		return result, err
	}

	var applyErr error
	updated := doc
	edits, err := wait.Await()
	switch {
	case errors.Is(err, event.ErrSaveSkipped):
	case err != nil:
		h.log.Warn("%s: pre-save edits dropped: %v", doc.Path(), err)
	default:
		applied, aerr := document.Apply(doc, edits)
		if aerr != nil {
			h.log.Warn("%s: applying pre-save edits: %v", doc.Path(), aerr)
			applyErr = aerr
			break
		}
		updated = applied
		result.Edits = edits
	}
	result.Changed = updated.Text() != doc.Text()

	if h.dryRun {
		wait.MarkApplied(applyErr)
		return result, nil
	}

	if result.Changed {
		if err := h.write(ctx, doc.Path(), updated.Text()); err != nil {
			wait.MarkApplied(err)
			return result, err
		}
		result.Written = true
	}
	ed.setDocument(updated)
	wait.MarkApplied(applyErr)

	return result, h.emit(ctx, event.DocumentSaved{
		Metadata: event.NewMetadata(Source),
		Document: updated,
	})
}

// write replaces the file content while holding an advisory lock on it.
func (h *Host) write(ctx context.Context, path, text string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	lockCtx, cancel := context.WithTimeout(ctx, h.lockTimeout)
	defer cancel()

	lock := flock.New(path)
	locked, err := lock.TryLockContext(lockCtx, lockPollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrLockTimeout, path)
		}
		return fmt.Errorf("locking %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLockTimeout, path)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	h.log.Debug("wrote %s", path)
	return nil
}

func (h *Host) emit(ctx context.Context, ev event.Event) error {
	if h.events == nil {
		return nil
	}
	select {
	case h.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ watcher.Host = (*Host)(nil)
var _ watcher.Editor = (*Editor)(nil)
