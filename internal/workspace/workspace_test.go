package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}
}

func newTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		".gitignore":           "build/\n*.log\n",
		".editorconfig":        "root = true\n",
		"main.go":              "package main\n",
		"docs/readme.md":       "# docs\n",
		"build/out.txt":        "generated\n",
		"debug.log":            "log\n",
		"node_modules/x/a.js":  "x\n",
		".git/config":          "[core]\n",
		"src/pkg/util.go":      "package pkg\n",
		"src/pkg/util_test.go": "package pkg\n",
	}
	for name, content := range files {
		writeFile(t, filepath.Join(root, name), []byte(content))
	}
	writeFile(t, filepath.Join(root, "logo.png"), []byte{0x89, 'P', 'N', 'G', 0, 0, 0, 1})
	return root
}

func rels(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestIsBinary(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		want    bool
	}{
		{"empty", nil, false},
		{"text", []byte("hello\r\n\tworld\n"), false},
		{"utf8", []byte("caf\u00e9 \u4e16\u754c\n"), false},
		{"nul", []byte("abc\x00def"), true},
		{"control heavy", []byte("\x01\x02\x03\x04abc"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBinary(tt.content); got != tt.want {
				t.Errorf("IsBinary(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestWalker_Expand(t *testing.T) {
	root := newTree(t)
	w, err := NewWalker(root)
	if err != nil {
		t.Fatalf("NewWalker: %v", err)
	}

	files, err := w.Expand(context.Background(), nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{
		".editorconfig",
		".gitignore",
		"docs/readme.md",
		"main.go",
		"src/pkg/util.go",
		"src/pkg/util_test.go",
	}
	if got := rels(t, root, files); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestWalker_WithoutGitignore(t *testing.T) {
	root := newTree(t)
	w, err := NewWalker(root, WithGitignore(false), WithIgnorePatterns("docs/"))
	if err != nil {
		t.Fatal(err)
	}

	files, err := w.Expand(context.Background(), []string{root})
	if err != nil {
		t.Fatal(err)
	}
	got := rels(t, root, files)
	for _, name := range []string{"build/out.txt", "debug.log"} {
		if !contains(got, name) {
			t.Errorf("%s should be listed without .gitignore: %v", name, got)
		}
	}
	for _, name := range []string{"docs/readme.md", "node_modules/x/a.js", ".git/config", "logo.png"} {
		if contains(got, name) {
			t.Errorf("%s should be skipped: %v", name, got)
		}
	}
}

func TestWalker_WithBinaryFiles(t *testing.T) {
	root := newTree(t)
	w, err := NewWalker(root, WithBinaryFiles(true))
	if err != nil {
		t.Fatal(err)
	}
	files, err := w.Expand(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !contains(rels(t, root, files), "logo.png") {
		t.Errorf("binary file should be listed: %v", files)
	}
}

func TestWalker_ExplicitFilesAreKept(t *testing.T) {
	root := newTree(t)
	w, err := NewWalker(root)
	if err != nil {
		t.Fatal(err)
	}

	files, err := w.Expand(context.Background(), []string{
		filepath.Join(root, "debug.log"),
		filepath.Join(root, "src"),
		filepath.Join(root, "debug.log"),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"debug.log", "src/pkg/util.go", "src/pkg/util_test.go"}
	if got := rels(t, root, files); !reflect.DeepEqual(got, want) {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestWalker_Ignored(t *testing.T) {
	root := newTree(t)
	w, err := NewWalker(root)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"main.go", false, false},
		{"build", true, true},
		{"build/out.txt", false, true},
		{"debug.log", false, true},
		{"src/trace.log", false, true},
		{".git", true, true},
		{"node_modules", true, true},
		{"src", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := w.Ignored(filepath.Join(root, tt.path), tt.isDir); got != tt.want {
				t.Errorf("Ignored(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	if w.Ignored(root, true) {
		t.Error("the root itself is never ignored")
	}
	if w.Ignored(filepath.Join(filepath.Dir(root), "elsewhere.log"), false) {
		t.Error("paths outside the root are not matched")
	}
}

func TestWalker_OutsideRoot(t *testing.T) {
	root := newTree(t)
	w, err := NewWalker(filepath.Join(root, "src"))
	if err != nil {
		t.Fatal(err)
	}
	err = w.Walk(context.Background(), root, func(string) error { return nil })
	if !errors.Is(err, ErrOutsideRoot) {
		t.Errorf("err = %v, want ErrOutsideRoot", err)
	}
}

func TestWalker_Cancelled(t *testing.T) {
	root := newTree(t)
	w, err := NewWalker(root)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.Expand(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWalker_CallbackError(t *testing.T) {
	root := newTree(t)
	w, err := NewWalker(root)
	if err != nil {
		t.Fatal(err)
	}
	stop := errors.New("stop")
	calls := 0
	err = w.Walk(context.Background(), root, func(string) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
