package settings

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileSystem is the file access settings loading needs.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader reads a settings file into a map.
type Loader interface {
	// LoadFrom reads settings from path.
	// Returns nil, nil if the file doesn't exist (not an error).
	LoadFrom(path string) (map[string]any, error)

	// LoadFromReader reads settings from a reader.
	LoadFromReader(r io.Reader) (map[string]any, error)
}

// LoaderFor returns the loader matching the extension of path.
func LoaderFor(fsys FileSystem, path string) (Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoader(fsys), nil
	case ".yaml", ".yml":
		return NewYAMLLoader(fsys), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// TOMLLoader loads settings from TOML files.
type TOMLLoader struct {
	fs FileSystem
}

// NewTOMLLoader creates a TOML loader. A nil fsys reads from disk.
func NewTOMLLoader(fsys FileSystem) *TOMLLoader {
	if fsys == nil {
		fsys = OSFS{}
	}
	return &TOMLLoader{fs: fsys}
}

// LoadFrom reads settings from path.
func (l *TOMLLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := readFile(l.fs, path)
	if data == nil || err != nil {
		return nil, err
	}
	return l.parse(path, data)
}

// LoadFromReader reads settings from an io.Reader.
func (l *TOMLLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return l.parse("<reader>", data)
}

func (l *TOMLLoader) parse(source string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := toml.Unmarshal(data, &out); err != nil {
		perr := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			perr.Line, perr.Column = derr.Position()
		}
		return nil, perr
	}
	return out, nil
}

// YAMLLoader loads settings from YAML files.
type YAMLLoader struct {
	fs FileSystem
}

// NewYAMLLoader creates a YAML loader. A nil fsys reads from disk.
func NewYAMLLoader(fsys FileSystem) *YAMLLoader {
	if fsys == nil {
		fsys = OSFS{}
	}
	return &YAMLLoader{fs: fsys}
}

// LoadFrom reads settings from path.
func (l *YAMLLoader) LoadFrom(path string) (map[string]any, error) {
	data, err := readFile(l.fs, path)
	if data == nil || err != nil {
		return nil, err
	}
	return l.parse(path, data)
}

// LoadFromReader reads settings from an io.Reader.
func (l *YAMLLoader) LoadFromReader(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return l.parse("<reader>", data)
}

func (l *YAMLLoader) parse(source string, data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	return out, nil
}

// readFile returns nil, nil for missing files.
func readFile(fsys FileSystem, path string) ([]byte, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}
