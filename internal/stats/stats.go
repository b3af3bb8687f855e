// Package stats keeps running totals over the lifetime of the process.
package stats

import (
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"
)

// Recorder accumulates per-session outcomes. All methods are safe for
// concurrent use and on a nil receiver.
type Recorder struct {
	log *slog.Logger

	sessions  atomic.Uint64
	copies    atomic.Uint64
	discarded atomic.Uint64
	failures  atomic.Uint64
	chars     atomic.Uint64
	words     atomic.Uint64

	inferences     atomic.Uint64
	inferenceTotal atomic.Int64 // nanoseconds
	lastInference  atomic.Int64 // nanoseconds
	audioTotal     atomic.Int64 // nanoseconds
}

// Snapshot is a point-in-time copy of the totals.
type Snapshot struct {
	Sessions      uint64
	Copies        uint64
	Discarded     uint64
	Failures      uint64
	Chars         uint64
	Words         uint64
	LastInference time.Duration
	AvgInference  time.Duration
	AudioTotal    time.Duration
}

// NewRecorder constructs a Recorder using the provided logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{log: logger.With("component", "stats")}
}

// SessionStarted counts a new recording.
func (r *Recorder) SessionStarted() {
	if r == nil {
		return
	}
	r.sessions.Add(1)
}

// Inference records how long the model took on audio of the given length.
func (r *Recorder) Inference(took, audio time.Duration) {
	if r == nil {
		return
	}
	r.inferences.Add(1)
	r.inferenceTotal.Add(int64(took))
	r.lastInference.Store(int64(took))
	r.audioTotal.Add(int64(audio))
}

// Copied counts a successful clipboard write of text.
func (r *Recorder) Copied(text string) {
	if r == nil {
		return
	}
	r.copies.Add(1)
	r.chars.Add(uint64(utf8.RuneCountInString(text)))
	r.words.Add(uint64(len(strings.Fields(text))))
}

// Discarded counts a session that ended with nothing to publish.
func (r *Recorder) Discarded() {
	if r == nil {
		return
	}
	r.discarded.Add(1)
}

// Failed counts a session aborted by an error.
func (r *Recorder) Failed() {
	if r == nil {
		return
	}
	r.failures.Add(1)
}

// Snapshot returns the current totals.
func (r *Recorder) Snapshot() Snapshot {
	if r == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Sessions:      r.sessions.Load(),
		Copies:        r.copies.Load(),
		Discarded:     r.discarded.Load(),
		Failures:      r.failures.Load(),
		Chars:         r.chars.Load(),
		Words:         r.words.Load(),
		LastInference: time.Duration(r.lastInference.Load()),
		AudioTotal:    time.Duration(r.audioTotal.Load()),
	}
	if n := r.inferences.Load(); n > 0 {
		s.AvgInference = time.Duration(r.inferenceTotal.Load()) / time.Duration(n)
	}
	return s
}

// Log writes the totals at info level.
func (r *Recorder) Log() {
	if r == nil {
		return
	}
	s := r.Snapshot()
	r.log.Info("session totals",
		"sessions", s.Sessions,
		"copies", s.Copies,
		"discarded", s.Discarded,
		"failures", s.Failures,
		"chars", s.Chars,
		"words", s.Words,
		"audio", s.AudioTotal.Round(time.Millisecond),
		"avg_inference", s.AvgInference.Round(time.Millisecond),
	)
}
