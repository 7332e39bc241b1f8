package editorconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	ecore "github.com/editorconfig/editorconfig-core-go/v2"
)

// ParseError describes part of a configuration file that was skipped.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Pair is a single key/value assignment.
type Pair struct {
	Key   string
	Value string
}

// Section is a glob header followed by its assignments.
type Section struct {
	Pattern string
	Pairs   []Pair

	// selector is Pattern anchored at the file's directory, or "" when
	// the pattern does not compile.
	selector string
}

// File is a parsed .editorconfig file.
type File struct {
	// Path is the absolute path of the file.
	Path string

	// Root is true when the preamble declares root = true.
	Root bool

	// Sections holds the sections in file order.
	Sections []Section

	// Skipped lists lines and values that were ignored because they were
	// malformed.
	Skipped []*ParseError
}

// Parse reads an .editorconfig file. Lines that are not comments, section
// headers or assignments are dropped and recorded in File.Skipped, as are
// the parser's warnings about values it could not interpret. Those values
// are kept so the rules reading them can report them.
func Parse(r io.Reader, path string) (*File, error) {
	f := &File{Path: path}

	clean, err := dropMalformedLines(r, f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	ec, warning, err := ecore.ParseGraceful(bytes.NewReader(clean))
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error()}
	}
	if warning != nil {
		f.Skipped = append(f.Skipped, &ParseError{Path: path, Message: warning.Error()})
	}

	f.Root = ec.Root
	for _, def := range ec.Definitions {
		if def == nil {
			continue
		}
		f.Sections = append(f.Sections, Section{
			Pattern: def.Selector,
			Pairs:   pairsOf(def.Raw),
		})
	}
	return f, nil
}

// dropMalformedLines copies r, leaving out lines the INI reader would
// reject and recording them in f.Skipped.
func dropMalformedLines(r io.Reader, f *File) ([]byte, error) {
	var out bytes.Buffer
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		if msg := malformed(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff"))); msg != "" {
			f.Skipped = append(f.Skipped, &ParseError{Path: f.Path, Line: lineNo, Message: msg})
			out.WriteByte('\n')
			continue
		}
		out.WriteString(raw)
		out.WriteByte('\n')
	}
	return out.Bytes(), scanner.Err()
}

func malformed(line string) string {
	switch {
	case line == "" || line[0] == '#' || line[0] == ';':
		return ""
	case line[0] == '[':
		if strings.LastIndexByte(line, ']') <= 1 {
			return "malformed section header"
		}
		return ""
	}
	eq := strings.IndexAny(line, "=:")
	if eq < 0 {
		return "expected key = value"
	}
	key := strings.TrimSpace(line[:eq])
	switch {
	case key == "":
		return "empty key"
	case key[0] == '"' || key[0] == '`':
		return "quoted keys are not supported"
	}
	return ""
}

// pairsOf turns a section's raw properties into pairs sorted by key.
// Keys are lower-cased and so are the values of well-known keys.
func pairsOf(raw map[string]string) []Pair {
	pairs := make([]Pair, 0, len(raw))
	for k, v := range raw {
		key := strings.ToLower(k)
		if knownKeys[key] {
			v = strings.ToLower(v)
		}
		pairs = append(pairs, Pair{Key: key, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs
}
