package event

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dshills/ecsync/internal/document"
)

// DefaultSaveTimeout bounds how long a host waits for pre-save edits.
const DefaultSaveTimeout = 1500 * time.Millisecond

// ErrSaveSkipped is returned by Await when the handler declined to
// contribute edits.
var ErrSaveSkipped = errors.New("save wait skipped")

// SaveWait is the future a pre-save handler resolves with edits.
//
// The handler calls WaitUntil or Skip exactly once; later calls are
// ignored. The host calls Await, applies the edits, then MarkApplied.
// If the deadline passes first, Await reports the context error and the
// host must not apply anything.
type SaveWait struct {
	ctx    context.Context
	cancel context.CancelFunc

	resolveOnce sync.Once
	resolved    chan struct{}
	edits       []document.Edit
	skipped     bool

	appliedOnce sync.Once
	applied     chan struct{}
	appliedErr  error
}

// NewSaveWait creates a wait bounded by timeout. A non-positive timeout
// uses DefaultSaveTimeout.
func NewSaveWait(parent context.Context, timeout time.Duration) *SaveWait {
	if timeout <= 0 {
		timeout = DefaultSaveTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	return &SaveWait{
		ctx:      ctx,
		cancel:   cancel,
		resolved: make(chan struct{}),
		applied:  make(chan struct{}),
	}
}

// Context is done when the wait is cancelled or its deadline passes.
// Handlers pass it to blocking work.
func (w *SaveWait) Context() context.Context {
	return w.ctx
}

// WaitUntil resolves the wait with edits.
func (w *SaveWait) WaitUntil(edits []document.Edit) {
	w.resolveOnce.Do(func() {
		w.edits = edits
		close(w.resolved)
	})
}

// Skip resolves the wait without edits.
func (w *SaveWait) Skip() {
	w.resolveOnce.Do(func() {
		w.skipped = true
		close(w.resolved)
	})
}

// Await blocks until the wait is resolved or its context is done.
// Edits are returned only if the wait was resolved in time.
func (w *SaveWait) Await() ([]document.Edit, error) {
	select {
	case <-w.resolved:
	case <-w.ctx.Done():
		select {
		case <-w.resolved:
		default:
			return nil, w.ctx.Err()
		}
	}
	if w.skipped {
		return nil, ErrSaveSkipped
	}
	return w.edits, nil
}

// MarkApplied records that the host finished applying the edits, with the
// error if applying failed, and releases the wait's resources.
func (w *SaveWait) MarkApplied(err error) {
	w.appliedOnce.Do(func() {
		w.appliedErr = err
		close(w.applied)
	})
	w.cancel()
}

// Cancel abandons the wait. Pending and future Await calls fail unless the
// wait was already resolved.
func (w *SaveWait) Cancel() {
	w.cancel()
}

// WaitApplied blocks until the host applied the edits or the wait's
// context is done. It returns nil when the edits were applied, the error
// passed to MarkApplied when they were not, or the context error.
func (w *SaveWait) WaitApplied() error {
	select {
	case <-w.applied:
		return w.appliedErr
	case <-w.ctx.Done():
		select {
		case <-w.applied:
			return w.appliedErr
		default:
			return w.ctx.Err()
		}
	}
}
