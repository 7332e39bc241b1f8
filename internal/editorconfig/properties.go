package editorconfig

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	ecore "github.com/editorconfig/editorconfig-core-go/v2"
)

// Well-known property keys.
const (
	KeyIndentStyle            = "indent_style"
	KeyIndentSize             = "indent_size"
	KeyTabWidth               = "tab_width"
	KeyEndOfLine              = "end_of_line"
	KeyCharset                = "charset"
	KeyTrimTrailingWhitespace = "trim_trailing_whitespace"
	KeyInsertFinalNewline     = "insert_final_newline"
	KeyLanguage               = "language"
	KeyRoot                   = "root"
)

// valueUnset removes a key set by a less specific section or file.
const valueUnset = ecore.UnsetValue

// knownKeys are the keys whose values are case-insensitive.
var knownKeys = map[string]bool{
	KeyIndentStyle:            true,
	KeyIndentSize:             true,
	KeyTabWidth:               true,
	KeyEndOfLine:              true,
	KeyCharset:                true,
	KeyTrimTrailingWhitespace: true,
	KeyInsertFinalNewline:     true,
	KeyRoot:                   true,
}

// PropertyError reports a property value that cannot be interpreted.
type PropertyError struct {
	Key    string
	Value  any
	Reason string
}

func (e *PropertyError) Error() string {
	return fmt.Sprintf("invalid %s value %v: %s", e.Key, e.Value, e.Reason)
}

// Properties is an immutable set of resolved properties.
// A nil *Properties means that no configuration applies; every accessor
// treats it as empty.
type Properties struct {
	values map[string]any
}

// NewProperties returns properties holding a copy of values.
// Values are expected to be scalars: string, bool or a number.
func NewProperties(values map[string]any) *Properties {
	p := &Properties{values: make(map[string]any, len(values))}
	for k, v := range values {
		p.values[strings.ToLower(k)] = v
	}
	return p
}

// Len returns the number of properties.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.values)
}

// IsEmpty returns true if there are no properties.
func (p *Properties) IsEmpty() bool {
	return p.Len() == 0
}

// Lookup returns the raw value for key.
func (p *Properties) Lookup(key string) (any, bool) {
	if p == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

// Has reports whether key is set.
func (p *Properties) Has(key string) bool {
	_, ok := p.Lookup(key)
	return ok
}

// String returns the value for key formatted as a string, or "" if unset.
func (p *Properties) String(key string) string {
	v, ok := p.Lookup(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool interprets key as a boolean. set is false when the key is absent.
// Strings "true" and "false" are accepted in any case; anything else is a
// *PropertyError.
func (p *Properties) Bool(key string) (value, set bool, err error) {
	v, ok := p.Lookup(key)
	if !ok || v == nil {
		return false, false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, true, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, true, nil
		case "false":
			return false, true, nil
		}
	}
	return false, true, &PropertyError{Key: key, Value: v, Reason: "expected true or false"}
}

// Int interprets key as a positive integer. set is false when the key is
// absent. Non-numeric or non-positive values yield a *PropertyError.
func (p *Properties) Int(key string) (value int, set bool, err error) {
	v, ok := p.Lookup(key)
	if !ok || v == nil {
		return 0, false, nil
	}

	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, true, &PropertyError{Key: key, Value: v, Reason: "expected an integer"}
		}
		n = int(x)
	case string:
		parsed, perr := strconv.Atoi(strings.TrimSpace(x))
		if perr != nil {
			return 0, true, &PropertyError{Key: key, Value: v, Reason: "expected an integer"}
		}
		n = parsed
	default:
		return 0, true, &PropertyError{Key: key, Value: v, Reason: "expected an integer"}
	}

	if n <= 0 {
		return 0, true, &PropertyError{Key: key, Value: v, Reason: "must be positive"}
	}
	return n, true, nil
}

// Keys returns the property keys in sorted order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying values.
func (p *Properties) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p == nil {
		return out
	}
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the properties as a JSON object.
func (p *Properties) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}
