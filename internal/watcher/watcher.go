package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/editorconfig"
	"github.com/dshills/ecsync/internal/event"
	"github.com/dshills/ecsync/internal/logging"
	"github.com/dshills/ecsync/internal/settings"
	"github.com/dshills/ecsync/internal/transform"
)

// ErrNilHost is returned by Run when the watcher has no host.
var ErrNilHost = errors.New("watcher: host is nil")

// Watcher applies EditorConfig settings in response to host events.
type Watcher struct {
	host     Host
	resolver Resolver
	pipeline *transform.Pipeline
	langs    *LanguageCache
	log      *logging.Logger
	cfgName  string

	mu       sync.Mutex
	defaults settings.EditorOptions
	doc      *document.Snapshot
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger used as the watcher's output channel.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithPipeline replaces the pre-save pipeline.
func WithPipeline(p *transform.Pipeline) Option {
	return func(w *Watcher) {
		if p != nil {
			w.pipeline = p
		}
	}
}

// WithLanguageCache shares a failed-language cache between watchers.
func WithLanguageCache(c *LanguageCache) Option {
	return func(w *Watcher) {
		if c != nil {
			w.langs = c
		}
	}
}

// WithConfigFileName sets the name of files whose save reloads the
// configuration.
func WithConfigFileName(name string) Option {
	return func(w *Watcher) {
		if name != "" {
			w.cfgName = name
		}
	}
}

// New creates a watcher.
func New(host Host, resolver Resolver, opts ...Option) *Watcher {
	w := &Watcher{
		host:     host,
		resolver: resolver,
		pipeline: transform.DefaultPipeline(),
		langs:    NewLanguageCache(),
		log:      logging.Discard(),
		cfgName:  editorconfig.DefaultFileName,
		defaults: settings.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Defaults returns the workspace defaults picked on the last
// configuration change.
func (w *Watcher) Defaults() settings.EditorOptions {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.defaults
}

// LanguageCache returns the watcher's failed-language cache.
func (w *Watcher) LanguageCache() *LanguageCache {
	return w.langs
}

// Start logs the watcher's start and picks the workspace defaults.
// Run calls it; callers that drive Handle directly call it once first.
func (w *Watcher) Start() {
	w.log.Line("Initializing document watcher...")
	w.onConfigChanged()
}

// Run starts the watcher and handles events until ctx is done or events
// is closed. A closed channel is a normal shutdown.
func (w *Watcher) Run(ctx context.Context, events <-chan event.Event) error {
	if w.host == nil {
		return ErrNilHost
	}
	w.Start()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			w.Handle(ctx, ev)
		}
	}
}

// Handle processes a single event.
func (w *Watcher) Handle(ctx context.Context, ev event.Event) {
	switch e := ev.(type) {
	case event.ActiveEditorChanged:
		w.handleActiveEditorChanged(ctx, e)
	case event.WindowStateChanged:
		w.handleWindowStateChanged(ctx, e)
	case event.ConfigurationChanged:
		w.onConfigChanged()
	case event.DocumentSaved:
		w.handleDocumentSaved(e)
	case event.WillSaveDocument:
		w.handleWillSave(e)
	default:
		w.log.Debug("ignoring event %T", ev)
	}
}

func (w *Watcher) handleActiveEditorChanged(ctx context.Context, e event.ActiveEditorChanged) {
	if e.Document == nil {
		return
	}
	w.setDoc(e.Document)
	w.init(ctx, e.Document)
}

func (w *Watcher) handleWindowStateChanged(ctx context.Context, e event.WindowStateChanged) {
	if !e.Focused {
		return
	}
	if doc := w.currentDoc(); doc != nil {
		w.init(ctx, doc)
	}
}

func (w *Watcher) handleDocumentSaved(e event.DocumentSaved) {
	if e.Document == nil || filepath.Base(e.Document.Path()) != w.cfgName {
		return
	}
	w.log.Line(w.cfgName + " file saved.")
	w.onConfigChanged()
}

// init applies editor options and language for doc.
func (w *Watcher) init(ctx context.Context, doc *document.Snapshot) {
	rel := w.resolver.RelativePath(doc.Path())

	opts, props, err := w.resolver.ResolveTextEditorOptions(ctx, doc, w.Defaults(), w.onEmptyConfig)
	if err != nil {
		w.log.Line(rel + ": " + err.Error())
		if props == nil {
			return
		}
	}
	w.applyTextEditorOptions(opts)

	if lang := props.String(editorconfig.KeyLanguage); lang != "" {
		w.coerceLanguage(ctx, doc, lang)
	}
}

func (w *Watcher) applyTextEditorOptions(opts settings.EditorOptions) {
	editor := w.host.ActiveEditor()
	if editor == nil {
		w.onNoActiveTextEditor()
		return
	}
	editor.SetOptions(opts)
	w.onSuccess(opts)
}

// coerceLanguage tries each configured language in order, skipping those
// that failed before. It stops at the first success or at the document's
// own language.
func (w *Watcher) coerceLanguage(ctx context.Context, doc *document.Snapshot, value string) {
	original := doc.LanguageID()
	for _, lang := range SplitLanguages(value) {
		if w.langs.Failed(lang) {
			continue
		}
		if lang == original {
			break
		}
		w.log.Line("trying to set language:", lang)
		updated, err := w.host.SetDocumentLanguage(ctx, doc, lang)
		if err != nil {
			w.log.Line(err.Error())
			w.langs.Add(lang)
			continue
		}
		w.log.Line("success!")
		if updated != nil {
			w.replaceDoc(doc, updated)
		}
		return
	}
}

// SplitLanguages splits a language property into lower-case identifiers.
func SplitLanguages(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if id := strings.ToLower(strings.TrimSpace(part)); id != "" {
			out = append(out, id)
		}
	}
	return out
}

func (w *Watcher) handleWillSave(e event.WillSaveDocument) {
	wait := e.Wait
	if wait == nil {
		return
	}
	if e.Document == nil {
		wait.Skip()
		return
	}

	var (
		selections []document.Selection
		active     = w.host.ActiveEditor()
	)
	if active != nil {
		if doc := active.Document(); doc != nil && doc.Path() == e.Document.Path() {
			selections = active.Selections()
		}
	}

	ctx := wait.Context()
	edits := w.calculatePreSaveTransformations(ctx, e.Document, e.Reason)
	if ctx.Err() != nil {
		w.log.Warn("%s: pre-save abandoned: %v", w.resolver.RelativePath(e.Document.Path()), ctx.Err())
		return
	}
	wait.WaitUntil(edits)

	if len(selections) == 0 {
		return
	}
	if err := wait.WaitApplied(); err != nil {
		w.log.Warn("%s: selections not restored: %v", w.resolver.RelativePath(e.Document.Path()), err)
		return
	}
	active.SetSelections(selections)
}

func (w *Watcher) calculatePreSaveTransformations(ctx context.Context, doc *document.Snapshot, reason transform.SaveReason) []document.Edit {
	rel := w.resolver.RelativePath(doc.Path())

	props, err := w.resolver.ResolveCoreConfig(ctx, doc, w.onBeforeResolve)
	if err != nil {
		w.log.Line(rel + ": " + err.Error())
		return nil
	}
	if props == nil {
		w.log.Line(rel + ": No configuration found for pre-save.")
		return nil
	}

	out := w.pipeline.Run(props, doc, reason)
	for _, step := range out.Steps {
		if step.Result.Err != nil {
			w.log.Line(rel + ": " + step.Result.Err.Error())
		}
		if step.Result.Message != "" {
			w.log.Line(rel + ": " + step.Result.Message)
		}
	}
	return out.Edits
}

func (w *Watcher) onConfigChanged() {
	defaults, err := w.resolver.PickWorkspaceDefaults()
	if err != nil {
		w.log.Warn("loading workspace settings: %v", err)
	}
	w.mu.Lock()
	w.defaults = defaults
	w.mu.Unlock()
	w.log.Line("Detected change in configuration:", defaults.String())
}

func (w *Watcher) onEmptyConfig(rel string) {
	w.log.Line(rel + ": No configuration.")
}

func (w *Watcher) onBeforeResolve(rel string) {
	w.log.Line(rel + ": Using EditorConfig core...")
}

func (w *Watcher) onNoActiveTextEditor() {
	w.log.Line("No more open editors.")
}

func (w *Watcher) onSuccess(opts settings.EditorOptions) {
	doc := w.currentDoc()
	if doc == nil {
		w.log.Line("[no file]: " + opts.String())
		return
	}
	w.log.Line(w.resolver.RelativePath(doc.Path()) + ": " + opts.String())
}

func (w *Watcher) currentDoc() *document.Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doc
}

func (w *Watcher) setDoc(doc *document.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.doc = doc
}

// replaceDoc swaps the tracked document for updated if it is still old.
func (w *Watcher) replaceDoc(old, updated *document.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.doc == old {
		w.doc = updated
	}
}
