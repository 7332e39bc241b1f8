package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/ecsync/internal/document"
	"github.com/dshills/ecsync/internal/transform"
)

// Topic identifies the kind of an event.
type Topic string

// Event topics.
const (
	TopicActiveEditorChanged  Topic = "editor.active.changed"
	TopicWindowStateChanged   Topic = "window.state.changed"
	TopicConfigurationChanged Topic = "config.changed"
	TopicDocumentSaved        Topic = "document.saved"
	TopicWillSaveDocument     Topic = "document.willsave"
)

// String returns the topic as a string.
func (t Topic) String() string {
	return string(t)
}

// Event is implemented by every lifecycle event.
type Event interface {
	EventTopic() Topic
	EventMetadata() Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies the component that published the event.
	Source string
}

// NewMetadata creates metadata with a fresh ID and the current time.
func NewMetadata(source string) Metadata {
	return Metadata{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Source:    source,
	}
}

// EventMetadata returns the event's metadata.
func (m Metadata) EventMetadata() Metadata {
	return m
}

// ActiveEditorChanged is published when the focused editor changes.
// Document is nil when no editor remains open.
type ActiveEditorChanged struct {
	Metadata
	Document *document.Snapshot
}

// EventTopic implements Event.
func (ActiveEditorChanged) EventTopic() Topic { return TopicActiveEditorChanged }

// WindowStateChanged is published when the host window gains or loses focus.
type WindowStateChanged struct {
	Metadata
	Focused bool
}

// EventTopic implements Event.
func (WindowStateChanged) EventTopic() Topic { return TopicWindowStateChanged }

// ConfigurationChanged is published when workspace settings change.
type ConfigurationChanged struct {
	Metadata

	// Paths lists the changed settings files, if known.
	Paths []string
}

// EventTopic implements Event.
func (ConfigurationChanged) EventTopic() Topic { return TopicConfigurationChanged }

// DocumentSaved is published after a document was written.
type DocumentSaved struct {
	Metadata
	Document *document.Snapshot
}

// EventTopic implements Event.
func (DocumentSaved) EventTopic() Topic { return TopicDocumentSaved }

// WillSaveDocument is published before a document is written. The handler
// must resolve Wait; the host blocks the write until it does or until the
// wait's deadline passes.
type WillSaveDocument struct {
	Metadata
	Document *document.Snapshot
	Reason   transform.SaveReason
	Wait     *SaveWait
}

// EventTopic implements Event.
func (WillSaveDocument) EventTopic() Topic { return TopicWillSaveDocument }
