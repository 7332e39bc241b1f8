package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/ecsync/internal/document"
)

func TestNewMetadata(t *testing.T) {
	a := NewMetadata("host")
	b := NewMetadata("host")

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("IDs should be unique and non-empty: %q %q", a.ID, b.ID)
	}
	if len(a.ID) != 36 {
		t.Errorf("expected a UUID, got %q", a.ID)
	}
	if a.Source != "host" || a.Timestamp.IsZero() {
		t.Errorf("unexpected metadata %+v", a)
	}
}

func TestEventTopics(t *testing.T) {
	tests := []struct {
		ev   Event
		want Topic
	}{
		{ActiveEditorChanged{}, TopicActiveEditorChanged},
		{WindowStateChanged{}, TopicWindowStateChanged},
		{ConfigurationChanged{}, TopicConfigurationChanged},
		{DocumentSaved{}, TopicDocumentSaved},
		{WillSaveDocument{}, TopicWillSaveDocument},
	}
	for _, tt := range tests {
		if got := tt.ev.EventTopic(); got != tt.want {
			t.Errorf("%T topic = %s, want %s", tt.ev, got, tt.want)
		}
	}

	ev := WindowStateChanged{Metadata: NewMetadata("x"), Focused: true}
	if ev.EventMetadata().Source != "x" {
		t.Error("metadata should be promoted")
	}
}

func TestSaveWait_Resolve(t *testing.T) {
	w := NewSaveWait(context.Background(), time.Second)
	edits := []document.Edit{document.SetEndOfLine(document.LineEndingLF)}

	go w.WaitUntil(edits)

	got, err := w.Await()
	if err != nil {
		t.Fatalf("Await failed: %v", err)
	}
	if len(got) != 1 || got[0] != edits[0] {
		t.Errorf("Await = %v", got)
	}

	w.WaitUntil(nil)
	w.Skip()
	if got, _ := w.Await(); len(got) != 1 {
		t.Error("later resolutions must be ignored")
	}
}

func TestSaveWait_Skip(t *testing.T) {
	w := NewSaveWait(context.Background(), time.Second)
	w.Skip()
	if _, err := w.Await(); !errors.Is(err, ErrSaveSkipped) {
		t.Errorf("expected ErrSaveSkipped, got %v", err)
	}
}

func TestSaveWait_Deadline(t *testing.T) {
	w := NewSaveWait(context.Background(), 10*time.Millisecond)

	edits, err := w.Await()
	if !errors.Is(err, context.DeadlineExceeded) || edits != nil {
		t.Fatalf("Await = %v, %v", edits, err)
	}

	w.WaitUntil([]document.Edit{document.SetEndOfLine(document.LineEndingCRLF)})
	if err := w.WaitApplied(); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitApplied = %v, want DeadlineExceeded", err)
	}
}

func TestSaveWait_Cancel(t *testing.T) {
	w := NewSaveWait(context.Background(), time.Minute)
	w.Cancel()
	if _, err := w.Await(); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if w.Context().Err() == nil {
		t.Error("context should be done after Cancel")
	}
}

func TestSaveWait_Applied(t *testing.T) {
	w := NewSaveWait(context.Background(), time.Second)
	w.WaitUntil(nil)

	done := make(chan error, 1)
	go func() { done <- w.WaitApplied() }()

	select {
	case err := <-done:
		t.Fatalf("WaitApplied returned %v before MarkApplied", err)
	case <-time.After(20 * time.Millisecond):
	}

	w.MarkApplied(nil)
	if err := <-done; err != nil {
		t.Errorf("WaitApplied = %v, want nil", err)
	}

	// Only the first MarkApplied counts.
	w.MarkApplied(errors.New("late"))
	if err := w.WaitApplied(); err != nil {
		t.Errorf("second MarkApplied must be ignored, got %v", err)
	}
}

func TestSaveWait_AppliedWithError(t *testing.T) {
	w := NewSaveWait(context.Background(), time.Second)
	w.WaitUntil(nil)
	boom := errors.New("write failed")
	w.MarkApplied(boom)

	if err := w.WaitApplied(); !errors.Is(err, boom) {
		t.Errorf("WaitApplied = %v, want %v", err, boom)
	}
}

func TestSaveWait_DefaultTimeout(t *testing.T) {
	w := NewSaveWait(context.Background(), 0)
	deadline, ok := w.Context().Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if d := time.Until(deadline); d <= 0 || d > DefaultSaveTimeout {
		t.Errorf("deadline in %v, want <= %v", d, DefaultSaveTimeout)
	}
	w.Cancel()
}
