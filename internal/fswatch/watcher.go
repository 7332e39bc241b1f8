package fswatch

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Common errors returned by watcher operations.
var (
	ErrWatcherClosed   = errors.New("watcher is closed")
	ErrAlreadyWatching = errors.New("path is already being watched")
	ErrNotWatching     = errors.New("path is not being watched")
	ErrPathNotExist    = errors.New("path does not exist")
)

// Op represents the type of file system operation.
type Op uint32

const (
	// OpCreate indicates a file or directory was created.
	OpCreate Op = 1 << iota
	// OpWrite indicates a file was written to.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Has returns true if the operation includes the given op.
func (op Op) Has(o Op) bool {
	return op&o == o
}

// Event represents a debounced file system change.
type Event struct {
	// Path is the absolute path of the affected file or directory.
	Path string

	// Op combines every operation seen during the debounce window.
	Op Op

	// Timestamp is when the last operation occurred.
	Timestamp time.Time
}

// IgnoreFunc reports whether a path should be skipped.
type IgnoreFunc func(path string, isDir bool) bool

// Config holds watcher configuration options.
type Config struct {
	// DebounceDelay is the quiet period after which an event is delivered.
	// Events for the same path within this window are coalesced.
	// Default: 100ms
	DebounceDelay time.Duration

	// BufferSize is the size of the event and error channels.
	// Default: 100
	BufferSize int

	// Ignore excludes paths from watching and from events.
	Ignore IgnoreFunc
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
		BufferSize:    100,
	}
}

// Option configures a watcher.
type Option func(*Config)

// WithDebounceDelay sets the debounce delay.
func WithDebounceDelay(d time.Duration) Option {
	return func(c *Config) {
		c.DebounceDelay = d
	}
}

// WithBufferSize sets the channel buffer size.
func WithBufferSize(size int) Option {
	return func(c *Config) {
		c.BufferSize = size
	}
}

// WithIgnore sets the ignore function.
func WithIgnore(fn IgnoreFunc) Option {
	return func(c *Config) {
		c.Ignore = fn
	}
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

// Watcher monitors directories with fsnotify and delivers debounced events.
type Watcher struct {
	mu sync.Mutex

	fsw    *fsnotify.Watcher
	config Config
	paths  map[string]bool

	pending map[string]*pendingEvent
	events  chan Event
	errors  chan error

	totalEvents int64
	totalErrors int64

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// New creates a watcher.
func New(opts ...Option) (*Watcher, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = DefaultConfig().DebounceDelay
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		config:  config,
		paths:   make(map[string]bool),
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, config.BufferSize),
		errors:  make(chan error, config.BufferSize),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Watch starts watching a single directory or file.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if w.paths[absPath] {
		return ErrAlreadyWatching
	}
	if err := w.fsw.Add(absPath); err != nil {
		return err
	}
	w.paths[absPath] = true
	return nil
}

// WatchRecursive watches a directory and every subdirectory that is not
// ignored. The .git directory is always skipped.
func (w *Watcher) WatchRecursive(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}
	if !info.IsDir() {
		return w.Watch(absRoot)
	}

	return filepath.WalkDir(absRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != absRoot && w.shouldIgnore(p, true) {
			return filepath.SkipDir
		}
		if werr := w.Watch(p); werr != nil && !errors.Is(werr, ErrAlreadyWatching) {
			w.recordError(werr)
		}
		return nil
	})
}

// Unwatch stops watching a path.
func (w *Watcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !w.paths[absPath] {
		return ErrNotWatching
	}
	delete(w.paths, absPath)

	// fsnotify drops watches on deleted directories by itself.
	if err := w.fsw.Remove(absPath); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		return err
	}
	return nil
}

// Events returns the debounced event channel. It is closed by Close.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel. It is closed by Close.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsWatching returns true if the path is being watched.
func (w *Watcher) IsWatching(path string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paths[absPath]
}

// WatchedPaths returns all watched paths, sorted.
func (w *Watcher) WatchedPaths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	paths := make([]string, 0, len(w.paths))
	for p := range w.paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// TotalEvents returns the number of events delivered.
func (w *Watcher) TotalEvents() int64 {
	return atomic.LoadInt64(&w.totalEvents)
}

// TotalErrors returns the number of errors seen.
func (w *Watcher) TotalErrors() int64 {
	return atomic.LoadInt64(&w.totalErrors)
}

// Close stops the watcher and closes its channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.closedWg.Wait()
	err := w.fsw.Close()

	// Timers may still be firing; take the lock so none sends after close.
	w.mu.Lock()
	close(w.events)
	close(w.errors)
	w.mu.Unlock()
	return err
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleFSEvent(fsEvent)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.recordError(err)
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleFSEvent(fsEvent fsnotify.Event) {
	op := convertOp(fsEvent.Op)
	if op == 0 {
		return
	}
	if (op.Has(OpRemove) || op.Has(OpRename)) && w.IsWatching(fsEvent.Name) {
		if err := w.Unwatch(fsEvent.Name); err != nil && !errors.Is(err, ErrWatcherClosed) {
			w.recordError(err)
		}
		return
	}

	info, statErr := os.Stat(fsEvent.Name)
	isDir := statErr == nil && info.IsDir()
	if w.shouldIgnore(fsEvent.Name, isDir) {
		return
	}

	if isDir {
		if op.Has(OpCreate) {
			_ = w.WatchRecursive(fsEvent.Name)
		}
		return
	}

	w.debounce(Event{Path: fsEvent.Name, Op: op, Timestamp: time.Now()})
}

func (w *Watcher) debounce(ev Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if p, ok := w.pending[ev.Path]; ok {
		p.event.Op |= ev.Op
		p.event.Timestamp = ev.Timestamp
		p.timer.Reset(w.config.DebounceDelay)
		return
	}

	path := ev.Path
	w.pending[path] = &pendingEvent{
		event: ev,
		timer: time.AfterFunc(w.config.DebounceDelay, func() { w.fire(path) }),
	}
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[path]
	if !ok || w.closed {
		return
	}
	delete(w.pending, path)

	select {
	case w.events <- p.event:
		atomic.AddInt64(&w.totalEvents, 1)
	default:
		atomic.AddInt64(&w.totalErrors, 1)
	}
}

func (w *Watcher) shouldIgnore(path string, isDir bool) bool {
	if isDir && filepath.Base(path) == ".git" {
		return true
	}
	return w.config.Ignore != nil && w.config.Ignore(path, isDir)
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

func (w *Watcher) recordError(error) {
	atomic.AddInt64(&w.totalErrors, 1)
}

func convertOp(fsOp fsnotify.Op) Op {
	var op Op
	if fsOp.Has(fsnotify.Create) {
		op |= OpCreate
	}
	if fsOp.Has(fsnotify.Write) {
		op |= OpWrite
	}
	if fsOp.Has(fsnotify.Remove) {
		op |= OpRemove
	}
	if fsOp.Has(fsnotify.Rename) {
		op |= OpRename
	}
	return op
}
