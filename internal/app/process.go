package app

import (
	"context"
	"errors"

	"github.com/dshills/ecsync/internal/headless"
)

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path    string
	Rel     string
	Edits   int
	Changed bool
	Written bool
	Err     error
}

// Report collects file results in processing order.
type Report struct {
	Files []FileResult
}

// Changed returns the results whose content changed or would change.
func (r *Report) Changed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Changed {
			out = append(out, f)
		}
	}
	return out
}

// Failed returns the results that ended in an error.
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Err joins the errors of every failed file.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Failed() {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Process saves every file named by args through the pre-save pipeline.
// Directories are expanded with the workspace ignore rules; no arguments
// means the whole workspace. Per-file failures are recorded in the report.
func (app *Application) Process(ctx context.Context, args []string) (*Report, error) {
	if !app.IsRunning() {
		return nil, ErrNotRunning
	}
	files, err := app.walker.Expand(ctx, args)
	if err != nil {
		return nil, err
	}

	report := &Report{Files: make([]FileResult, 0, len(files))}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Files = append(report.Files, app.ProcessFile(ctx, path))
	}
	return report, nil
}

// ProcessFile opens path in the host, saves it and closes it again.
func (app *Application) ProcessFile(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path, Rel: app.resolver.RelativePath(path)}

	if _, err := app.host.Open(ctx, path); err != nil {
		res.Err = &OperationError{Op: "open", Target: res.Rel, Err: err}
		return res
	}
	defer func() {
		if err := app.host.Close(ctx, path); err != nil && !errors.Is(err, headless.ErrNotOpen) {
			app.log.Debug("closing %s: %v", res.Rel, err)
		}
	}()

	saved, err := app.host.Save(ctx, path, app.opts.Reason)
	res.Edits = len(saved.Edits)
	res.Changed = saved.Changed
	res.Written = saved.Written
	if err != nil {
		res.Err = &OperationError{Op: "save", Target: res.Rel, Err: err}
	}
	return res
}
