// Package notify reports session outcomes to the console and, optionally,
// the desktop notification area.
package notify

import (
	"log/slog"
	"unicode/utf8"

	"github.com/gen2brain/beeep"
)

const title = "whisperclip"

// previewLen caps the transcript excerpt shown in a notification.
const previewLen = 80

// Reporter logs every session event and mirrors the user-facing ones as
// desktop notifications when enabled.
type Reporter struct {
	logger  *slog.Logger
	desktop bool
	sound   bool

	notifyFn func(title, message string) error
	beepFn   func() error
}

// NewReporter creates a Reporter. desktop enables notifications, sound the
// record-start beep.
func NewReporter(logger *slog.Logger, desktop, sound bool) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		logger:   logger,
		desktop:  desktop,
		sound:    sound,
		notifyFn: func(t, m string) error { return beeep.Notify(t, m, "") },
		beepFn:   func() error { return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration) },
	}
}

// RecordingStarted is called when the microphone opens.
func (r *Reporter) RecordingStarted(session string) {
	r.logger.Info("recording", "session", session)
	if r.sound {
		if err := r.beepFn(); err != nil {
			r.logger.Debug("beep failed", "error", err)
		}
	}
}

// Transcribing is called when the buffer is handed to the model.
func (r *Reporter) Transcribing(session string, frames int) {
	r.logger.Info("transcribing", "session", session, "frames", frames)
}

// Copied is called after text has been written to the clipboard.
func (r *Reporter) Copied(session, text string) {
	r.logger.Info("copied to clipboard", "session", session, "chars", utf8.RuneCountInString(text))
	r.desktopNotify("Copied: " + preview(text))
}

// Discarded is called when a session ends without anything to publish.
func (r *Reporter) Discarded(session, reason string) {
	r.logger.Info("session discarded", "session", session, "reason", reason)
	if reason == "no speech detected" {
		r.desktopNotify("No speech detected")
	}
}

// Failed is called when a session aborts with a session-local error. what
// is a short human label such as "Microphone error".
func (r *Reporter) Failed(session, what string, err error) {
	r.logger.Error(what, "session", session, "error", err)
	r.desktopNotify(what + ": " + err.Error())
}

func (r *Reporter) desktopNotify(msg string) {
	if !r.desktop {
		return
	}
	if err := r.notifyFn(title, msg); err != nil {
		r.logger.Debug("desktop notification failed", "error", err)
	}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLen-3]) + "..."
}
