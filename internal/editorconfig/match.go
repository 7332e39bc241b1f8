package editorconfig

import (
	"path/filepath"
	"strings"

	ecore "github.com/editorconfig/editorconfig-core-go/v2"
)

// fnmatcher matches EditorConfig selectors against slash paths.
type fnmatcher interface {
	FnmatchCase(selector, name string) (bool, error)
}

// newMatcher returns the matcher used by resolvers. It caches compiled
// selectors.
func newMatcher() fnmatcher {
	return ecore.NewCachedParser()
}

// anchorSelector turns a section pattern into a selector rooted at the
// configuration file's directory: a pattern without "/" matches at any
// depth, a pattern with "/" is anchored.
func anchorSelector(pattern string) string {
	switch {
	case strings.HasPrefix(pattern, "/"):
		return pattern
	case strings.Contains(pattern, "/"):
		return "/" + pattern
	default:
		return "/**/" + pattern
	}
}

// relativeName returns abs relative to dir as a slash path with a leading
// "/", or false when abs is not below dir.
func relativeName(dir, abs string) (string, bool) {
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return "/" + rel, true
}
