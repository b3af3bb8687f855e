// Package session drives one record, transcribe, publish cycle per hotkey
// hold.
//
// The Controller is a three-state machine:
//
//	Idle --start--> Recording --stop--> Transcribing --done/failed--> Idle
//
// Start is honored only from Idle and stop only from Recording; anything
// else is ignored. Inference runs on a worker goroutine so the event loop
// keeps draining hotkey events while the model is busy.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chaz8081/whisperclip/internal/audio"
	"github.com/chaz8081/whisperclip/internal/clipboard"
	"github.com/chaz8081/whisperclip/internal/hotkey"
	"github.com/chaz8081/whisperclip/internal/stats"
	"github.com/chaz8081/whisperclip/internal/transcribe"
)

// State is the controller's position in the session cycle.
type State int

const (
	Idle State = iota
	Recording
	Transcribing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// Discard reasons passed to Reporter.Discarded.
const (
	ReasonEmpty    = "empty recording"
	ReasonNoSpeech = "no speech detected"
	ReasonShutdown = "shutdown"
)

// Capturer records audio between Start and Stop.
type Capturer interface {
	Start() error
	Stop() (audio.Buffer, error)
}

// Transcriber turns 16kHz mono samples into text.
type Transcriber interface {
	Process(samples []float32) (string, error)
}

// Publisher delivers the final text.
type Publisher interface {
	Write(text string) error
}

// Reporter is told about every session outcome.
type Reporter interface {
	RecordingStarted(session string)
	Transcribing(session string, frames int)
	Copied(session, text string)
	Discarded(session, reason string)
	Failed(session, what string, err error)
}

// Options tune a Controller. The zero value is usable.
type Options struct {
	// MaxDuration auto-stops a recording. Zero disables the limit.
	MaxDuration time.Duration
	// SaveDir, when set, receives a WAV copy of every transcribed buffer.
	SaveDir string
	// Clean post-processes model output. Defaults to strings.TrimSpace.
	Clean func(string) string
	// Stats, when set, accumulates session totals.
	Stats *stats.Recorder
	// OnState observes every transition. It runs under the controller lock
	// and must not call back into the Controller.
	OnState func(State)
	Logger  *slog.Logger
}

// Controller owns the session state. Create one with New.
type Controller struct {
	capture Capturer
	model   Transcriber
	out     Publisher
	report  Reporter
	opts    Options
	log     *slog.Logger

	mu      sync.Mutex
	state   State
	session string
	timer   *time.Timer

	wg sync.WaitGroup
}

// New creates an idle Controller.
func New(capture Capturer, model Transcriber, out Publisher, report Reporter, opts Options) *Controller {
	if opts.Clean == nil {
		opts.Clean = strings.TrimSpace
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		capture: capture,
		model:   model,
		out:     out,
		report:  report,
		opts:    opts,
		log:     logger.With("component", "session"),
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run consumes hotkey events until ctx is cancelled or events is closed.
// On return any open recording has been discarded and the in-flight
// transcription, if any, has finished.
func (c *Controller) Run(ctx context.Context, events <-chan hotkey.Event) {
	defer c.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case hotkey.EventStart:
				c.start()
			case hotkey.EventStop:
				c.stop(false)
			}
		}
	}
}

// Wait blocks until no transcription is in flight.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	c.log.Debug("state", "from", c.state, "to", s)
	c.state = s
	if c.opts.OnState != nil {
		c.opts.OnState(s)
	}
}

// start opens a recording. Reporter calls happen after the lock is
// released since notifications and beeps can block.
func (c *Controller) start() {
	c.mu.Lock()
	if c.state != Idle {
		c.log.Debug("start ignored", "state", c.state)
		c.mu.Unlock()
		return
	}

	id := uuid.NewString()
	if err := c.capture.Start(); err != nil {
		c.mu.Unlock()
		c.opts.Stats.Failed()
		c.report.Failed(id, describe(err), err)
		return
	}

	c.session = id
	c.setState(Recording)
	if c.opts.MaxDuration > 0 {
		c.timer = time.AfterFunc(c.opts.MaxDuration, func() { c.stop(true) })
	}
	c.mu.Unlock()

	c.opts.Stats.SessionStarted()
	c.report.RecordingStarted(id)
}

// stop finalizes the recording and hands the buffer to a worker. auto is
// set when the max-duration timer fired.
func (c *Controller) stop(auto bool) {
	c.mu.Lock()
	if c.state != Recording {
		c.mu.Unlock()
		if !auto {
			c.log.Debug("stop ignored", "state", c.State())
		}
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	id := c.session

	buf, err := c.capture.Stop()
	switch {
	case err != nil:
		c.setState(Idle)
		c.mu.Unlock()
		c.opts.Stats.Failed()
		c.report.Failed(id, describe(err), err)
		return
	case buf.Empty():
		c.setState(Idle)
		c.mu.Unlock()
		c.opts.Stats.Discarded()
		c.report.Discarded(id, ReasonEmpty)
		return
	}

	c.setState(Transcribing)
	c.wg.Add(1)
	c.mu.Unlock()

	if auto {
		c.log.Info("max recording duration reached", "session", id, "limit", c.opts.MaxDuration)
	}
	go c.transcribe(id, buf)
}

func (c *Controller) transcribe(id string, buf audio.Buffer) {
	defer c.wg.Done()
	defer func() {
		c.mu.Lock()
		c.session = ""
		c.setState(Idle)
		c.mu.Unlock()
	}()

	c.report.Transcribing(id, buf.Frames())

	if c.opts.SaveDir != "" {
		if path, err := audio.SaveWAV(c.opts.SaveDir, id, buf); err != nil {
			c.log.Warn("save recording failed", "session", id, "error", err)
		} else {
			c.log.Debug("recording saved", "session", id, "path", path)
		}
	}

	start := time.Now()
	text, err := c.model.Process(buf.ForModel())
	took := time.Since(start)
	c.opts.Stats.Inference(took, buf.Duration())
	c.log.Debug("inference done", "session", id, "took", took.Round(time.Millisecond), "audio", buf.Duration())
	if err != nil {
		c.opts.Stats.Failed()
		c.report.Failed(id, describe(err), err)
		return
	}

	text = c.opts.Clean(text)
	if text == "" {
		c.opts.Stats.Discarded()
		c.report.Discarded(id, ReasonNoSpeech)
		return
	}

	if err := c.out.Write(text); err != nil {
		var clipErr *clipboard.WriteError
		if !errors.As(err, &clipErr) || clipErr.Op != clipboard.OpPaste {
			c.opts.Stats.Failed()
			c.report.Failed(id, describe(err), err)
			return
		}
		c.log.Warn("auto-paste failed, text is on the clipboard", "session", id, "error", err)
	}
	c.opts.Stats.Copied(text)
	c.report.Copied(id, text)
}

// shutdown discards an open recording and waits for the worker.
func (c *Controller) shutdown() {
	c.mu.Lock()
	if c.state == Recording {
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		id := c.session
		if _, err := c.capture.Stop(); err != nil {
			c.log.Debug("stop on shutdown", "error", err)
		}
		c.session = ""
		c.setState(Idle)
		c.mu.Unlock()
		c.opts.Stats.Discarded()
		c.report.Discarded(id, ReasonShutdown)
	} else {
		c.mu.Unlock()
	}
	c.wg.Wait()
}

// describe labels a session-local error for the user.
func describe(err error) string {
	var (
		devErr  *audio.DeviceError
		infErr  *transcribe.InferenceError
		clipErr *clipboard.WriteError
	)
	switch {
	case errors.As(err, &devErr):
		return "Microphone error"
	case errors.As(err, &infErr):
		return "Transcription failed"
	case errors.As(err, &clipErr):
		return "Clipboard write failed"
	default:
		return "Session failed"
	}
}
