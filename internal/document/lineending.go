package document

import "strings"

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the name used in configuration files ("lf", "crlf", "cr").
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "crlf"
	case LineEndingCR:
		return "cr"
	default:
		return "lf"
	}
}

// Sequence returns the actual line ending characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// ParseLineEnding maps a configuration value to a LineEnding.
// Matching is case-insensitive; ok is false for anything else.
func ParseLineEnding(s string) (LineEnding, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lf":
		return LineEndingLF, true
	case "crlf":
		return LineEndingCRLF, true
	case "cr":
		return LineEndingCR, true
	}
	return LineEndingLF, false
}

// DetectLineEnding returns the most common line ending in the text.
// Returns LineEndingLF if no line endings are found.
func DetectLineEnding(text string) LineEnding {
	var lf, crlf, cr int

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				crlf++
				i++
			} else {
				cr++
			}
		case '\n':
			lf++
		}
	}

	if crlf > 0 && crlf >= lf && crlf >= cr {
		return LineEndingCRLF
	}
	if cr > 0 && cr > lf && cr > crlf {
		return LineEndingCR
	}
	return LineEndingLF
}

// NormalizeLineEndings rewrites every line terminator in s as le.
func NormalizeLineEndings(s string, le LineEnding) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if le == LineEndingLF {
		return s
	}
	return strings.ReplaceAll(s, "\n", le.Sequence())
}
