package notify

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

type recorded struct {
	notes []string
	beeps int
}

func newTestReporter(desktop, sound bool) (*Reporter, *recorded, *bytes.Buffer) {
	var logs bytes.Buffer
	rec := &recorded{}
	r := NewReporter(slog.New(slog.NewTextHandler(&logs, nil)), desktop, sound)
	r.notifyFn = func(_, m string) error { rec.notes = append(rec.notes, m); return nil }
	r.beepFn = func() error { rec.beeps++; return nil }
	return r, rec, &logs
}

func TestReporterDesktopDisabled(t *testing.T) {
	r, rec, logs := newTestReporter(false, false)

	r.RecordingStarted("s1")
	r.Copied("s1", "hello world")
	r.Failed("s2", "Session failed", errors.New("boom"))

	if len(rec.notes) != 0 || rec.beeps != 0 {
		t.Errorf("desktop output while disabled: notes=%q beeps=%d", rec.notes, rec.beeps)
	}
	if !strings.Contains(logs.String(), "Session failed") {
		t.Errorf("failure not logged: %s", logs.String())
	}
}

func TestReporterDesktopEnabled(t *testing.T) {
	r, rec, _ := newTestReporter(true, true)

	r.RecordingStarted("s1")
	r.Copied("s1", "hello world")
	r.Discarded("s2", "no speech detected")
	r.Discarded("s3", "empty recording")
	r.Failed("s4", "Microphone error", errors.New("mic unplugged"))

	if rec.beeps != 1 {
		t.Errorf("beeps = %d, want 1", rec.beeps)
	}
	want := []string{"Copied: hello world", "No speech detected", "Microphone error: mic unplugged"}
	if len(rec.notes) != len(want) {
		t.Fatalf("notes = %q, want %q", rec.notes, want)
	}
	for i := range want {
		if rec.notes[i] != want[i] {
			t.Errorf("notes[%d] = %q, want %q", i, rec.notes[i], want[i])
		}
	}
}

func TestPreview(t *testing.T) {
	short := "short text"
	if got := preview(short); got != short {
		t.Errorf("preview(%q) = %q", short, got)
	}

	long := strings.Repeat("ü", 200)
	got := preview(long)
	if n := len([]rune(got)); n != previewLen {
		t.Errorf("preview length = %d runes, want %d", n, previewLen)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("preview(%d runes) = %q, want ... suffix", len(long), got)
	}
}
