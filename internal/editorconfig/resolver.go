package editorconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// DefaultFileName is the name of configuration files.
const DefaultFileName = ".editorconfig"

// FileSystem is the file access the resolver needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Resolver computes the properties that apply to a file by walking its
// ancestor directories. Parsed files are cached until Invalidate is called.
// All methods are safe for concurrent use.
type Resolver struct {
	fs       FileSystem
	fileName string
	stopAt   string
	match    fnmatcher

	mu    sync.RWMutex
	cache map[string]*File // nil entry: file does not exist
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFileSystem sets the file system used to read configuration files.
func WithFileSystem(fsys FileSystem) Option {
	return func(r *Resolver) {
		if fsys != nil {
			r.fs = fsys
		}
	}
}

// WithFileName overrides the configuration file name.
func WithFileName(name string) Option {
	return func(r *Resolver) {
		if name != "" {
			r.fileName = name
		}
	}
}

// WithStopDir stops the upward walk after dir, as if its configuration
// file declared root = true.
func WithStopDir(dir string) Option {
	return func(r *Resolver) {
		if abs, err := filepath.Abs(dir); err == nil {
			r.stopAt = abs
		}
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		fs:       OSFS{},
		fileName: DefaultFileName,
		match:    newMatcher(),
		cache:    make(map[string]*File),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileName returns the configuration file name the resolver looks for.
func (r *Resolver) FileName() string {
	return r.fileName
}

// Resolve returns the properties that apply to path, or nil when no
// configuration file has a matching section.
func (r *Resolver) Resolve(path string) (*Properties, error) {
	files, abs, err := r.chain(path)
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	matched := false

	// Farthest file first so that nearer files win.
	for i := len(files) - 1; i >= 0; i-- {
		name, ok := relativeName(filepath.Dir(files[i].Path), abs)
		if !ok {
			continue
		}
		for _, sec := range files[i].Sections {
			if sec.selector == "" {
				continue
			}
			if ok, err := r.match.FnmatchCase(sec.selector, name); err != nil || !ok {
				continue
			}
			matched = true
			for _, pair := range sec.Pairs {
				if pair.Value == valueUnset {
					delete(values, pair.Key)
					continue
				}
				values[pair.Key] = pair.Value
			}
		}
	}

	if !matched {
		return nil, nil
	}
	normalize(values)
	if len(values) == 0 {
		return nil, nil
	}

	props := &Properties{values: make(map[string]any, len(values))}
	for k, v := range values {
		props.values[k] = v
	}
	return props, nil
}

// ConfigFiles returns the configuration files that Resolve would consult
// for path, nearest first.
func (r *Resolver) ConfigFiles(path string) ([]*File, error) {
	files, _, err := r.chain(path)
	return files, err
}

// Invalidate drops every cached file.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*File)
}

// IsConfigFile reports whether path names a configuration file.
func (r *Resolver) IsConfigFile(path string) bool {
	return filepath.Base(path) == r.fileName
}

// chain returns the configuration files from the directory of path
// upward, nearest first, ending at the first root file or the stop dir.
func (r *Resolver) chain(path string) ([]*File, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("resolving %s: %w", path, err)
	}

	var files []*File
	dir := filepath.Dir(abs)
	for {
		f, err := r.load(filepath.Join(dir, r.fileName))
		if err != nil {
			return nil, "", err
		}
		if f != nil {
			files = append(files, f)
			if f.Root {
				break
			}
		}
		if r.stopAt != "" && dir == r.stopAt {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return files, abs, nil
}

func (r *Resolver) load(path string) (*File, error) {
	r.mu.RLock()
	f, ok := r.cache[path]
	r.mu.RUnlock()
	if ok {
		return f, nil
	}

	data, err := r.fs.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f = nil
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	default:
		f, err = Parse(bytes.NewReader(data), path)
		if err != nil {
			return nil, err
		}
		for i := range f.Sections {
			sel := anchorSelector(f.Sections[i].Pattern)
			if _, merr := r.match.FnmatchCase(sel, "/"); merr != nil {
				f.Skipped = append(f.Skipped, &ParseError{
					Path:    path,
					Message: fmt.Sprintf("section %q: %v", f.Sections[i].Pattern, merr),
				})
				continue
			}
			f.Sections[i].selector = sel
		}
	}

	r.mu.Lock()
	r.cache[path] = f
	r.mu.Unlock()
	return f, nil
}

// normalize applies the EditorConfig defaults that relate indent_size
// and tab_width.
func normalize(values map[string]string) {
	style, hasStyle := values[KeyIndentStyle]
	size, hasSize := values[KeyIndentSize]
	width, hasWidth := values[KeyTabWidth]

	if hasStyle && style == "tab" && !hasSize {
		values[KeyIndentSize] = "tab"
		size, hasSize = "tab", true
	}
	if hasSize && !hasWidth && size != "tab" {
		values[KeyTabWidth] = size
	}
	if hasSize && size == "tab" && hasWidth {
		values[KeyIndentSize] = width
	}
}
