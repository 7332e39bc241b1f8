package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/dshills/ecsync/internal/logging"
)

// GitignoreFile is the ignore file read from the workspace root.
const GitignoreFile = ".gitignore"

// DefaultIgnores are patterns that are always ignored.
var DefaultIgnores = []string{
	".git/",
	".hg/",
	".svn/",
	"node_modules/",
}

// ErrOutsideRoot is returned for paths that are not below the root.
var ErrOutsideRoot = errors.New("path is outside the workspace")

// Walker lists workspace files.
type Walker struct {
	root         string
	useGitignore bool
	extra        []string
	skipBinary   bool
	log          *logging.Logger

	ignore *gitignore.GitIgnore
}

// Option configures a Walker.
type Option func(*Walker)

// WithGitignore enables or disables reading the root .gitignore.
func WithGitignore(enabled bool) Option {
	return func(w *Walker) {
		w.useGitignore = enabled
	}
}

// WithIgnorePatterns adds gitignore-style patterns.
func WithIgnorePatterns(patterns ...string) Option {
	return func(w *Walker) {
		w.extra = append(w.extra, patterns...)
	}
}

// WithBinaryFiles includes binary files in walks.
func WithBinaryFiles(include bool) Option {
	return func(w *Walker) {
		w.skipBinary = !include
	}
}

// WithLogger sets the walker's logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Walker) {
		if l != nil {
			w.log = l
		}
	}
}

// NewWalker creates a walker rooted at root. A missing .gitignore is not
// an error.
func NewWalker(root string, opts ...Option) (*Walker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace root %s: %w", root, err)
	}
	w := &Walker{
		root:         abs,
		useGitignore: true,
		skipBinary:   true,
		log:          logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}

	lines := append([]string(nil), DefaultIgnores...)
	if w.useGitignore {
		data, err := os.ReadFile(filepath.Join(abs, GitignoreFile))
		switch {
		case err == nil:
			lines = append(lines, strings.Split(string(data), "\n")...)
		case !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("reading %s: %w", GitignoreFile, err)
		}
	}
	lines = append(lines, w.extra...)
	w.ignore = gitignore.CompileIgnoreLines(lines...)
	return w, nil
}

// Root returns the absolute workspace root.
func (w *Walker) Root() string {
	return w.root
}

// Ignored reports whether path is excluded. It matches the signature of
// the file system watcher's ignore predicate.
func (w *Walker) Ignored(path string, isDir bool) bool {
	rel, err := w.rel(path)
	if err != nil || rel == "." {
		return false
	}
	if isDir {
		rel += "/"
	}
	return w.ignore.MatchesPath(rel)
}

// Walk calls fn for every file below start that is not ignored and, unless
// binary files are included, is text. Files are visited in lexical order.
func (w *Walker) Walk(ctx context.Context, start string, fn func(path string) error) error {
	abs, err := filepath.Abs(start)
	if err != nil {
		return err
	}
	if _, err := w.rel(abs); err != nil {
		return err
	}

	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			w.log.Warn("skipping %s: %v", path, err)
			if d != nil && d.IsDir() && path != abs {
				return filepath.SkipDir
			}
			return nil
		}
		if path != abs && w.Ignored(path, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if w.skipBinary {
			binary, err := IsBinaryFile(path)
			if err != nil {
				w.log.Warn("skipping %s: %v", path, err)
				return nil
			}
			if binary {
				w.log.Debug("skipping binary file %s", path)
				return nil
			}
		}
		return fn(path)
	})
}

// Expand turns command line arguments into a sorted, de-duplicated file
// list. Directories are walked; files named explicitly are kept even if
// they would be ignored. No arguments means the whole root.
func (w *Walker) Expand(ctx context.Context, args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{w.root}
	}

	seen := make(map[string]bool)
	var files []string
	add := func(path string) error {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
		return nil
	}

	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			_ = add(abs)
			continue
		}
		if err := w.Walk(ctx, abs, add); err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func (w *Walker) rel(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return filepath.ToSlash(rel), nil
}
