package settings

import (
	"errors"
	"fmt"
	"math"

	"github.com/dshills/ecsync/internal/editorconfig"
)

// Editor option defaults used when neither settings files nor
// EditorConfig provide a value.
const (
	DefaultTabSize      = 4
	DefaultInsertSpaces = true
)

// EditorOptions are the per-editor formatting options a host applies.
type EditorOptions struct {
	TabSize      int  `json:"tabSize"`
	IndentSize   int  `json:"indentSize"`
	InsertSpaces bool `json:"insertSpaces"`
}

// DefaultOptions returns the built-in editor options.
func DefaultOptions() EditorOptions {
	return EditorOptions{
		TabSize:      DefaultTabSize,
		IndentSize:   DefaultTabSize,
		InsertSpaces: DefaultInsertSpaces,
	}
}

// String formats the options for log lines.
func (o EditorOptions) String() string {
	return fmt.Sprintf(`{"tabSize":%d,"indentSize":%d,"insertSpaces":%t}`, o.TabSize, o.IndentSize, o.InsertSpaces)
}

// FromProperties overlays EditorConfig properties on defaults.
//
// indent_style selects spaces or tabs; indent_size=tab also selects tabs
// unless indent_style is space. indent_size sets IndentSize and TabSize,
// tab_width sets TabSize, and indent_size=tab takes tab_width.
//
// Malformed numbers are reported as an error alongside options built from
// everything that could be interpreted.
func FromProperties(props *editorconfig.Properties, defaults EditorOptions) (EditorOptions, error) {
	opts := defaults
	if props.IsEmpty() {
		return opts, nil
	}

	style := props.String(editorconfig.KeyIndentStyle)
	sizeIsTab := props.String(editorconfig.KeyIndentSize) == "tab"

	switch {
	case style == "space":
		opts.InsertSpaces = true
	case style == "tab" || sizeIsTab:
		opts.InsertSpaces = false
	}

	var errs []error
	width, widthSet, err := props.Int(editorconfig.KeyTabWidth)
	if err != nil {
		errs = append(errs, err)
	}
	widthOK := widthSet && err == nil

	if sizeIsTab {
		if widthOK {
			opts.IndentSize = width
			opts.TabSize = width
		}
		return opts, errors.Join(errs...)
	}

	size, sizeSet, err := props.Int(editorconfig.KeyIndentSize)
	if err != nil {
		errs = append(errs, err)
	}
	if sizeSet && err == nil {
		opts.IndentSize = size
		opts.TabSize = size
	}
	if widthOK {
		opts.TabSize = width
	}
	return opts, errors.Join(errs...)
}

// editorSectionFrom decodes the [editor] section of merged settings over
// base. Unknown keys are ignored.
func editorSectionFrom(data map[string]any, base EditorOptions) (EditorOptions, error) {
	opts := base
	raw, ok := data["editor"]
	if !ok {
		return opts, nil
	}
	section, ok := raw.(map[string]any)
	if !ok {
		return opts, &ValueError{Key: "editor", Value: raw, Reason: "expected a table"}
	}

	var errs []error
	indentSet := false
	if v, ok := section["tabSize"]; ok {
		if n, err := positiveInt("editor.tabSize", v); err != nil {
			errs = append(errs, err)
		} else {
			opts.TabSize = n
		}
	}
	if v, ok := section["indentSize"]; ok {
		if n, err := positiveInt("editor.indentSize", v); err != nil {
			errs = append(errs, err)
		} else {
			opts.IndentSize = n
			indentSet = true
		}
	}
	if !indentSet {
		opts.IndentSize = opts.TabSize
	}
	if v, ok := section["insertSpaces"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			errs = append(errs, &ValueError{Key: "editor.insertSpaces", Value: v, Reason: "expected a boolean"})
		} else {
			opts.InsertSpaces = b
		}
	}
	return opts, errors.Join(errs...)
}

func positiveInt(key string, v any) (int, error) {
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case uint64:
		n = int(x)
	case float64:
		if x != math.Trunc(x) {
			return 0, &ValueError{Key: key, Value: v, Reason: "expected an integer"}
		}
		n = int(x)
	default:
		return 0, &ValueError{Key: key, Value: v, Reason: "expected an integer"}
	}
	if n <= 0 {
		return 0, &ValueError{Key: key, Value: v, Reason: "must be positive"}
	}
	return n, nil
}
