package settings

import (
	"path/filepath"
	"sync"
)

// Dir is the workspace directory holding settings files.
const Dir = ".ecsync"

// DefaultPaths returns the settings files looked up under root, lowest
// precedence first.
func DefaultPaths(root string) []string {
	dir := filepath.Join(root, Dir)
	return []string{
		filepath.Join(dir, "settings.yml"),
		filepath.Join(dir, "settings.yaml"),
		filepath.Join(dir, "settings.toml"),
	}
}

// Store holds the editor defaults derived from workspace settings files.
// It is safe for concurrent use.
type Store struct {
	fs    FileSystem
	paths []string

	mu       sync.RWMutex
	defaults EditorOptions
}

// NewStore creates a store reading paths in order; later files override
// earlier ones. A nil fsys reads from disk.
func NewStore(fsys FileSystem, paths ...string) *Store {
	if fsys == nil {
		fsys = OSFS{}
	}
	abs := make([]string, 0, len(paths))
	for _, p := range paths {
		if a, err := filepath.Abs(p); err == nil {
			p = a
		}
		abs = append(abs, p)
	}
	return &Store{
		fs:       fsys,
		paths:    abs,
		defaults: DefaultOptions(),
	}
}

// Paths returns the settings files the store reads.
func (s *Store) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// IsSettingsFile reports whether path is one of the store's files.
func (s *Store) IsSettingsFile(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, p := range s.paths {
		if p == abs {
			return true
		}
	}
	return false
}

// Reload reads every settings file and recomputes the defaults. Missing
// files are skipped. On a read or parse error the previous state is kept.
// Invalid [editor] values are reported but the valid ones still apply.
func (s *Store) Reload() error {
	merged := make(map[string]any)
	for _, path := range s.paths {
		loader, err := LoaderFor(s.fs, path)
		if err != nil {
			return err
		}
		data, err := loader.LoadFrom(path)
		if err != nil {
			return err
		}
		merged = DeepMerge(merged, data)
	}

	defaults, verr := editorSectionFrom(merged, DefaultOptions())

	s.mu.Lock()
	s.defaults = defaults
	s.mu.Unlock()

	return verr
}

// Defaults returns the editor defaults from the last successful Reload.
func (s *Store) Defaults() EditorOptions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}
