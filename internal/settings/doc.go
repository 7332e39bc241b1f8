// Package settings turns resolved EditorConfig properties and workspace
// settings files into editor options.
//
// Workspace settings live in .ecsync/settings.toml (or .yaml/.yml) under the
// workspace root. Only the [editor] section is read:
//
//	[editor]
//	tabSize = 4
//	indentSize = 4
//	insertSpaces = true
//
// These values are the defaults that EditorConfig properties override.
package settings
