// Package editorconfig resolves EditorConfig properties for files.
//
// Resolution walks from a file's directory towards the file system root,
// reading every .editorconfig file on the way until one declares
// root = true. Sections are applied from the farthest file to the nearest
// and, within a file, top to bottom, so nearer and later sections win.
// The value "unset" removes a key set by an earlier section.
//
// Files are read with github.com/editorconfig/editorconfig-core-go/v2 and
// section headers are matched with its glob rules:
//
//	pattern      matches
//	-------      -------
//	"*"          any string without a path separator
//	"**"         any string, including path separators
//	"?"          any single character
//	"[abc]"      one of the listed characters; "[!abc]" negates
//	"{a,b}"      either alternative
//	"{1..10}"    an integer in the range
//
// A header without "/" matches files at any depth below the configuration
// file's directory. A header containing "/" is anchored at that directory.
package editorconfig
