// Package watcher reacts to editor lifecycle events and keeps each
// document's editor options, language and saved content in line with its
// EditorConfig properties.
//
// A Watcher consumes events from a single channel, one at a time:
//
//   - ActiveEditorChanged and WindowStateChanged (focused) resolve editor
//     options for the document, apply them to the active editor, and try
//     the configured language identifiers.
//   - ConfigurationChanged, and DocumentSaved for an .editorconfig file,
//     reload the workspace defaults.
//   - WillSaveDocument runs the transformation pipeline and resolves the
//     event's SaveWait with the resulting edits.
package watcher
