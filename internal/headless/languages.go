package headless

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// PlainText is the language of files with no registered extension.
const PlainText = "plaintext"

// Registry maps file names to language identifiers and knows which
// identifiers are valid.
type Registry struct {
	mu       sync.RWMutex
	exts     map[string]string
	names    map[string]string
	patterns []namePattern
	known    map[string]bool
}

// namePattern selects a language by a glob over the lower-cased base name.
type namePattern struct {
	pattern string
	id      string
	glob    glob.Glob
}

// NewRegistry creates an empty registry that only knows PlainText.
func NewRegistry() *Registry {
	return &Registry{
		exts:  make(map[string]string),
		names: make(map[string]string),
		known: map[string]bool{PlainText: true},
	}
}

// DefaultRegistry returns a registry with common languages.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("go", ".go")
	r.Register("rust", ".rs")
	r.Register("typescript", ".ts")
	r.Register("typescriptreact", ".tsx")
	r.Register("javascript", ".js", ".mjs", ".cjs")
	r.Register("javascriptreact", ".jsx")
	r.Register("python", ".py", ".pyi")
	r.Register("ruby", ".rb")
	r.Register("java", ".java")
	r.Register("c", ".c")
	r.Register("cpp", ".cpp", ".cc", ".cxx", ".h", ".hpp")
	r.Register("csharp", ".cs")
	r.Register("swift", ".swift")
	r.Register("kotlin", ".kt", ".kts")
	r.Register("php", ".php")
	r.Register("lua", ".lua")
	r.Register("shellscript", ".sh", ".bash")
	r.Register("bat", ".bat", ".cmd")
	r.Register("json", ".json")
	r.Register("yaml", ".yaml", ".yml")
	r.Register("toml", ".toml")
	r.Register("xml", ".xml")
	r.Register("html", ".html", ".htm")
	r.Register("css", ".css")
	r.Register("markdown", ".md", ".markdown")
	r.Register("sql", ".sql")
	r.Register("ini", ".ini")
	r.RegisterName("dockerfile", "dockerfile")
	r.RegisterName("makefile", "makefile", "gnumakefile")
	r.RegisterName("properties", ".editorconfig")
	r.RegisterName("dotenv", ".env")

	// The patterns are constant and known to compile.
	_ = r.RegisterPattern("dockerfile", "dockerfile.*", "*.dockerfile")
	_ = r.RegisterPattern("dockercompose", "docker-compose*.{yml,yaml}", "compose*.{yml,yaml}")
	_ = r.RegisterPattern("dotenv", ".env.*")
	_ = r.RegisterPattern("makefile", "*.mk")
	_ = r.RegisterPattern("pip-requirements", "requirements*.txt")
	return r
}

// Register adds a language and the extensions that select it.
func (r *Registry) Register(id string, exts ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[id] = true
	for _, ext := range exts {
		r.exts[strings.ToLower(ext)] = id
	}
}

// RegisterName adds a language selected by exact base names.
func (r *Registry) RegisterName(id string, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[id] = true
	for _, name := range names {
		r.names[strings.ToLower(name)] = id
	}
}

// RegisterPattern adds a language selected by glob patterns over base
// names, such as "dockerfile.*". Patterns are matched case-insensitively
// in registration order, after exact names and before extensions.
func (r *Registry) RegisterPattern(id string, patterns ...string) error {
	compiled := make([]namePattern, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(p)
		g, err := glob.Compile(p)
		if err != nil {
			return fmt.Errorf("language %s: pattern %q: %w", id, p, err)
		}
		compiled = append(compiled, namePattern{pattern: p, id: id, glob: g})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[id] = true
	r.patterns = append(r.patterns, compiled...)
	return nil
}

// Known reports whether id is a registered language.
func (r *Registry) Known(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.known[id]
}

// Languages returns all registered identifiers, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.known))
	for id := range r.known {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Detect returns the language for path, or PlainText.
func (r *Registry) Detect(path string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	base := strings.ToLower(filepath.Base(path))
	if id, ok := r.names[base]; ok {
		return id
	}
	for _, p := range r.patterns {
		if p.glob.Match(base) {
			return p.id
		}
	}
	if id, ok := r.exts[strings.ToLower(filepath.Ext(path))]; ok {
		return id
	}
	return PlainText
}
