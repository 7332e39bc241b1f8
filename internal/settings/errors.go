package settings

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned for settings files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported settings format")

// ParseError represents an error while parsing a settings file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValueError reports a settings value of the wrong type or range.
type ValueError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("settings %s = %v: %s", e.Key, e.Value, e.Reason)
}
