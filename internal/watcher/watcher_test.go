package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/event"
	"github.com/dshills/ecsync/internal/logging"
	"github.com/dshills/ecsync/internal/settings"
	"github.com/dshills/ecsync/internal/transform"
)

type fakeEditor struct {
	mu         sync.Mutex
	doc        *document.Snapshot
	opts       []settings.EditorOptions
	selections []document.Selection
	restored   int
}

func (e *fakeEditor) Document() *document.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

func (e *fakeEditor) SetOptions(opts settings.EditorOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = append(e.opts, opts)
}

func (e *fakeEditor) Selections() []document.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]document.Selection(nil), e.selections...)
}

func (e *fakeEditor) SetSelections(sel []document.Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selections = sel
	e.restored++
}

func (e *fakeEditor) lastOptions() (settings.EditorOptions, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.opts) == 0 {
		return settings.EditorOptions{}, false
	}
	return e.opts[len(e.opts)-1], true
}

type fakeHost struct {
	mu     sync.Mutex
	editor *fakeEditor
	known  map[string]bool
	calls  []string
}

func (h *fakeHost) ActiveEditor() Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.editor == nil {
		return nil
	}
	return h.editor
}

func (h *fakeHost) SetDocumentLanguage(_ context.Context, doc *document.Snapshot, id string) (*document.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, id)
	if !h.known[id] {
		return nil, fmt.Errorf("unknown language id %q", id)
	}
	return doc.WithLanguage(id), nil
}

func (h *fakeHost) languageCalls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

type fixture struct {
	root    string
	host    *fakeHost
	watcher *Watcher
	rec     *logging.Recorder
}

func newFixture(t *testing.T, editorconfigText string) *fixture {
	t.Helper()
	root := t.TempDir()
	if editorconfigText != "" {
		writeFile(t, filepath.Join(root, ".editorconfig"), editorconfigText)
	}

	host := &fakeHost{known: map[string]bool{"py": true, "go": true, "plaintext": true}}
	log, rec := logging.NewRecorded()
	resolver := settings.NewResolver(nil, settings.NewStore(nil, settings.DefaultPaths(root)...), root)
	w := New(host, resolver, WithLogger(log))
	w.Start()
	return &fixture{root: root, host: host, watcher: w, rec: rec}
}

func (f *fixture) doc(name, lang, text string) *document.Snapshot {
	return document.NewSnapshot(filepath.Join(f.root, name), lang, text)
}

func (f *fixture) open(doc *document.Snapshot) *fakeEditor {
	ed := &fakeEditor{doc: doc}
	f.host.mu.Lock()
	f.host.editor = ed
	f.host.mu.Unlock()
	f.watcher.Handle(context.Background(), event.ActiveEditorChanged{Metadata: event.NewMetadata("test"), Document: doc})
	return ed
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_StartLogs(t *testing.T) {
	f := newFixture(t, "")
	lines := f.rec.Lines()
	if len(lines) < 2 {
		t.Fatalf("expected start lines, got %v", lines)
	}
	if !f.rec.Contains("Initializing document watcher...") {
		t.Error("missing init line")
	}
	if !f.rec.Contains(`Detected change in configuration: {"tabSize":4,"indentSize":4,"insertSpaces":true}`) {
		t.Errorf("missing defaults line: %v", lines)
	}
}

func TestWatcher_AppliesOptions(t *testing.T) {
	f := newFixture(t, "root = true\n[*.go]\nindent_style = tab\ntab_width = 8\n")
	ed := f.open(f.doc("main.go", "go", "package main\n"))

	opts, ok := ed.lastOptions()
	if !ok {
		t.Fatal("options were not applied")
	}
	if want := (settings.EditorOptions{TabSize: 8, IndentSize: 8, InsertSpaces: false}); opts != want {
		t.Errorf("options = %+v, want %+v", opts, want)
	}
	if !f.rec.Contains(`main.go: {"tabSize":8,"indentSize":8,"insertSpaces":false}`) {
		t.Errorf("missing success line: %v", f.rec.Lines())
	}
}

func TestWatcher_NoConfiguration(t *testing.T) {
	f := newFixture(t, "root = true\n[*.go]\nindent_style = tab\n")
	writeFile(t, filepath.Join(f.root, ".ecsync", "settings.toml"), "[editor]\ntabSize = 2\n")
	f.watcher.Handle(context.Background(), event.ConfigurationChanged{Metadata: event.NewMetadata("test")})

	ed := f.open(f.doc("notes.txt", "plaintext", "x"))

	if !f.rec.Contains("notes.txt: No configuration.") {
		t.Errorf("missing empty-config line: %v", f.rec.Lines())
	}
	opts, _ := ed.lastOptions()
	if opts != f.watcher.Defaults() || opts.TabSize != 2 {
		t.Errorf("defaults should apply, got %+v", opts)
	}
}

func TestWatcher_NoActiveEditor(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\nindent_size = 2\n")
	f.watcher.Handle(context.Background(), event.ActiveEditorChanged{Document: f.doc("a.txt", "plaintext", "")})

	if !f.rec.Contains("No more open editors.") {
		t.Errorf("expected no-editor line: %v", f.rec.Lines())
	}
}

func TestWatcher_WindowFocus(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\nindent_size = 2\n")

	f.watcher.Handle(context.Background(), event.WindowStateChanged{Focused: true})
	if f.rec.Contains("a.txt") {
		t.Fatal("focus without a document must do nothing")
	}

	ed := f.open(f.doc("a.txt", "plaintext", ""))
	f.watcher.Handle(context.Background(), event.WindowStateChanged{Focused: false})
	f.watcher.Handle(context.Background(), event.WindowStateChanged{Focused: true})

	ed.mu.Lock()
	n := len(ed.opts)
	ed.mu.Unlock()
	if n != 2 {
		t.Errorf("options applied %d times, want 2 (open + refocus)", n)
	}
}

func TestWatcher_LanguageCoercion(t *testing.T) {
	f := newFixture(t, "root = true\n[*.py]\nlanguage = Python, py\n")

	f.open(f.doc("a.py", "plaintext", ""))
	if got, want := f.host.languageCalls(), []string{"python", "py"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("first document calls = %v, want %v", got, want)
	}
	if !f.watcher.LanguageCache().Failed("python") || f.watcher.LanguageCache().Failed("py") {
		t.Errorf("cache = %v", f.watcher.LanguageCache().List())
	}
	if !f.rec.Contains("trying to set language: python") || f.rec.Count("success!") != 1 {
		t.Errorf("unexpected log: %v", f.rec.Lines())
	}
	if !f.rec.Contains(`unknown language id "python"`) {
		t.Error("host error should be logged")
	}

	f.open(f.doc("b.py", "plaintext", ""))
	if got, want := f.host.languageCalls(), []string{"python", "py", "py"}; !reflect.DeepEqual(got, want) {
		t.Errorf("second document calls = %v, want %v", got, want)
	}
}

func TestWatcher_LanguageStopsAtCurrent(t *testing.T) {
	f := newFixture(t, "root = true\n[*.py]\nlanguage = python, py, plaintext\n")

	f.open(f.doc("a.py", "py", ""))
	if got := f.host.languageCalls(); !reflect.DeepEqual(got, []string{"python"}) {
		t.Errorf("calls = %v, want [python]", got)
	}
}

func TestWatcher_LanguageStopsAtFirstSuccess(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\nlanguage = go, plaintext\n")

	f.open(f.doc("a.txt", "text", ""))
	if got := f.host.languageCalls(); !reflect.DeepEqual(got, []string{"go"}) {
		t.Errorf("calls = %v, want [go]", got)
	}
}

func TestWatcher_SharedLanguageCache(t *testing.T) {
	cache := NewLanguageCache()
	cache.Add("python")

	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".editorconfig"), "root = true\n[*]\nlanguage = python\n")
	host := &fakeHost{editor: &fakeEditor{}}
	w := New(host, settings.NewResolver(nil, nil, root), WithLanguageCache(cache))
	w.Handle(context.Background(), event.ActiveEditorChanged{Document: document.NewSnapshot(filepath.Join(root, "x"), "", "")})

	if len(host.languageCalls()) != 0 {
		t.Error("cached failures must not reach the host")
	}
}

func TestSplitLanguages(t *testing.T) {
	got := SplitLanguages(" Python ,, PY,  ")
	if want := []string{"python", "py"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLanguages = %v, want %v", got, want)
	}
	if SplitLanguages("") != nil {
		t.Error("empty value should give no identifiers")
	}
}

func (f *fixture) save(t *testing.T, doc *document.Snapshot, reason transform.SaveReason) ([]document.Edit, *event.SaveWait, chan struct{}) {
	t.Helper()
	wait := event.NewSaveWait(context.Background(), 2*time.Second)
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.watcher.Handle(context.Background(), event.WillSaveDocument{
			Metadata: event.NewMetadata("test"),
			Document: doc,
			Reason:   reason,
			Wait:     wait,
		})
	}()
	edits, err := wait.Await()
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	return edits, wait, done
}

func TestWatcher_PreSave(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\nend_of_line = crlf\ntrim_trailing_whitespace = true\ninsert_final_newline = true\n")
	doc := f.doc("a.txt", "plaintext", "a  \nb\t\n")

	edits, wait, done := f.save(t, doc, transform.SaveManual)
	wait.MarkApplied(nil)
	<-done

	if len(edits) != 3 || !edits[0].IsEndOfLine() || edits[0].EndOfLine != document.LineEndingCRLF {
		t.Fatalf("edits = %v", edits)
	}
	applied, err := document.Apply(doc, edits)
	if err != nil {
		t.Fatal(err)
	}
	if applied.Text() != "a\r\nb\r\n" {
		t.Errorf("applied = %q", applied.Text())
	}
	if !f.rec.Contains("a.txt: Using EditorConfig core...") {
		t.Errorf("missing resolve line: %v", f.rec.Lines())
	}
}

func TestWatcher_PreSaveRestoresSelections(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\ntrim_trailing_whitespace = true\n")
	doc := f.doc("a.txt", "plaintext", "ab  \n")
	ed := f.open(doc)
	sel := []document.Selection{document.Caret(document.Point{Line: 0, Column: 2})}
	ed.SetSelections(sel)
	ed.restored = 0

	_, wait, done := f.save(t, doc, transform.SaveManual)

	select {
	case <-done:
		t.Fatal("handler should wait for the edits to be applied")
	case <-time.After(20 * time.Millisecond):
	}

	ed.mu.Lock()
	ed.selections = nil
	ed.mu.Unlock()
	wait.MarkApplied(nil)
	<-done

	if got := ed.Selections(); !reflect.DeepEqual(got, sel) || ed.restored != 1 {
		t.Errorf("selections = %v (restored %d), want %v", got, ed.restored, sel)
	}
}

func TestWatcher_PreSaveApplyFailedKeepsSelections(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\ntrim_trailing_whitespace = true\n")
	doc := f.doc("a.txt", "plaintext", "ab  \n")
	ed := f.open(doc)
	ed.SetSelections([]document.Selection{document.Caret(document.Point{Line: 0, Column: 4})})
	ed.restored = 0

	_, wait, done := f.save(t, doc, transform.SaveManual)
	wait.MarkApplied(errors.New("disk full"))
	<-done

	if ed.restored != 0 {
		t.Error("selections must not be restored when the edits were not applied")
	}
	if !f.rec.Contains("selections not restored: disk full") {
		t.Errorf("missing warning: %v", f.rec.Lines())
	}
}

func TestWatcher_PreSaveOtherDocumentKeepsSelections(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\ntrim_trailing_whitespace = true\n")
	ed := f.open(f.doc("open.txt", "plaintext", ""))
	ed.SetSelections([]document.Selection{document.Caret(document.Point{})})
	ed.restored = 0

	_, wait, done := f.save(t, f.doc("other.txt", "plaintext", "x \n"), transform.SaveManual)
	<-done
	wait.MarkApplied(nil)

	if ed.restored != 0 {
		t.Error("selections of another document must not be touched")
	}
}

func TestWatcher_PreSaveNoConfiguration(t *testing.T) {
	f := newFixture(t, "")
	edits, wait, done := f.save(t, f.doc("a.txt", "plaintext", "x  "), transform.SaveManual)
	<-done
	wait.MarkApplied(nil)

	if len(edits) != 0 {
		t.Errorf("expected no edits, got %v", edits)
	}
	if !f.rec.Contains("a.txt: No configuration found for pre-save.") {
		t.Errorf("missing line: %v", f.rec.Lines())
	}
}

func TestWatcher_PreSaveRuleErrorDoesNotAbort(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\nend_of_line = lf\ntrim_trailing_whitespace = maybe\ninsert_final_newline = true\n")
	edits, wait, done := f.save(t, f.doc("a.txt", "plaintext", "x  "), transform.SaveManual)
	<-done
	wait.MarkApplied(nil)

	if len(edits) != 2 || !edits[0].IsEndOfLine() || !edits[1].IsInsert() {
		t.Errorf("sibling rules should still contribute, got %v", edits)
	}
	if !f.rec.Contains("a.txt: TrimTrailingWhitespace: invalid trim_trailing_whitespace value maybe") {
		t.Errorf("rule error not logged: %v", f.rec.Lines())
	}
}

func TestWatcher_PreSaveAfterDelayMessage(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\ninsert_final_newline = true\n")
	edits, wait, done := f.save(t, f.doc("a.txt", "plaintext", "x"), transform.SaveAfterDelay)
	<-done
	wait.MarkApplied(nil)

	if len(edits) != 0 {
		t.Errorf("expected no edits, got %v", edits)
	}
	if !f.rec.Contains("a.txt: insert_final_newline skipped") {
		t.Errorf("missing message: %v", f.rec.Lines())
	}
}

func TestWatcher_PreSaveCancelled(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\nend_of_line = lf\n")
	wait := event.NewSaveWait(context.Background(), time.Second)
	wait.Cancel()

	f.watcher.Handle(context.Background(), event.WillSaveDocument{Document: f.doc("a.txt", "", "x"), Wait: wait})

	if edits, err := wait.Await(); !errors.Is(err, context.Canceled) || edits != nil {
		t.Errorf("cancelled wait must yield no edits, got %v %v", edits, err)
	}
}

func TestWatcher_ConfigReload(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\nindent_size = 2\n")
	before := f.rec.Count("Detected change in configuration:")

	f.watcher.Handle(context.Background(), event.DocumentSaved{Document: f.doc("main.go", "go", "")})
	if f.rec.Count("Detected change in configuration:") != before {
		t.Error("saving a regular file must not reload")
	}

	writeFile(t, filepath.Join(f.root, ".editorconfig"), "root = true\n[*]\nindent_size = 6\n")
	f.watcher.Handle(context.Background(), event.DocumentSaved{Document: f.doc(".editorconfig", "", "")})
	if !f.rec.Contains(".editorconfig file saved.") || f.rec.Count("Detected change in configuration:") != before+1 {
		t.Errorf("expected reload: %v", f.rec.Lines())
	}

	ed := f.open(f.doc("a.txt", "plaintext", ""))
	if opts, _ := ed.lastOptions(); opts.IndentSize != 6 {
		t.Errorf("new configuration not picked up: %+v", opts)
	}
}

func TestWatcher_Run(t *testing.T) {
	f := newFixture(t, "root = true\n[*]\nindent_size = 3\n")
	events := make(chan event.Event)
	errCh := make(chan error, 1)
	go func() { errCh <- f.watcher.Run(context.Background(), events) }()

	ed := &fakeEditor{doc: f.doc("a.txt", "plaintext", "")}
	f.host.mu.Lock()
	f.host.editor = ed
	f.host.mu.Unlock()

	events <- event.ActiveEditorChanged{Document: ed.doc}
	close(events)

	if err := <-errCh; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if opts, ok := ed.lastOptions(); !ok || opts.IndentSize != 3 {
		t.Errorf("options = %+v, %v", opts, ok)
	}
}

func TestWatcher_RunCancelled(t *testing.T) {
	f := newFixture(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.watcher.Run(ctx, make(chan event.Event)); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}

	if err := New(nil, nil).Run(context.Background(), nil); !errors.Is(err, ErrNilHost) {
		t.Errorf("Run without host = %v", err)
	}
}

func TestLanguageCache(t *testing.T) {
	c := NewLanguageCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Add(fmt.Sprintf("lang%d", i%4))
			c.Failed("lang0")
		}(i)
	}
	wg.Wait()

	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4", c.Len())
	}
	if !c.Failed("lang3") || c.Failed("other") {
		t.Error("Failed mismatch")
	}
}
