// Package hotkey provides a global single-key listener using gohook.
// It supports "hold" mode (press to start, release to stop) and
// "toggle" mode (press to start, press again to stop).
package hotkey

import (
	"fmt"
	"strings"
	"sync"
	"time"

	hook "github.com/robotn/gohook"
)

// EventType indicates whether recording should start or stop.
type EventType int

const (
	// EventStart signals that the hotkey was activated (start recording).
	EventStart EventType = iota
	// EventStop signals that the hotkey was deactivated (stop recording).
	EventStop
)

func (t EventType) String() string {
	switch t {
	case EventStart:
		return "start"
	case EventStop:
		return "stop"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted on the channel returned by Events.
type Event struct {
	Type EventType
}

// RegistrationError reports that the configured key could not be hooked.
// The program cannot function without it.
type RegistrationError struct {
	Key string
	Err error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("hotkey: register %q: %v", e.Key, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// DefaultRegisterTimeout bounds the wait for the OS hook to come up.
const DefaultRegisterTimeout = 3 * time.Second

// keycodes maps key names to uiohook virtual key codes.
var keycodes map[string]uint16 = hook.Keycode

// aliases accepts the key names written by older configs and the setup prompt.
var aliases = map[string]string{
	"right_ctrl":  "rctrl",
	"ctrl_r":      "rctrl",
	"right_alt":   "ralt",
	"alt_r":       "ralt",
	"right_shift": "rshift",
	"shift_r":     "rshift",
	"right_cmd":   "rcmd",
	"escape":      "esc",
}

// Lookup resolves a key name to its key code.
func Lookup(name string) (uint16, error) {
	key := normalize(name)
	if key == "" {
		return 0, fmt.Errorf("empty key name")
	}
	code, ok := keycodes[key]
	if !ok {
		return 0, fmt.Errorf("unknown key name %q", name)
	}
	return code, nil
}

// KeyName returns the canonical name for a key code, or "" if unknown.
func KeyName(code uint16) string {
	best := ""
	for name, c := range keycodes {
		if c != code {
			continue
		}
		// Several names can share a code; prefer the shortest, then lexical.
		if best == "" || len(name) < len(best) || (len(name) == len(best) && name < best) {
			best = name
		}
	}
	return best
}

func normalize(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		return alias
	}
	return key
}

// Listener watches one global key and emits start/stop events.
type Listener struct {
	key  string
	code uint16
	mode string // "hold" or "toggle"
	src  <-chan hook.Event
	ch   chan Event
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	down   bool
	active bool // toggle mode only
}

// NewListener creates a Listener for a single key and mode. It fails with a
// *RegistrationError when the key name is unknown to the hook.
func NewListener(key, mode string) (*Listener, error) {
	code, err := Lookup(key)
	if err != nil {
		return nil, &RegistrationError{Key: key, Err: err}
	}
	switch mode {
	case "hold", "toggle":
	default:
		return nil, &RegistrationError{Key: key, Err: fmt.Errorf("unsupported mode %q", mode)}
	}
	return &Listener{
		key:  normalize(key),
		code: code,
		mode: mode,
		ch:   make(chan Event, 16),
		done: make(chan struct{}),
	}, nil
}

// Key returns the normalized key name.
func (l *Listener) Key() string { return l.key }

// Events returns the channel that receives hotkey events.
// The channel is closed when the listener stops.
func (l *Listener) Events() <-chan Event {
	return l.ch
}

// Register installs the OS event hook and waits for it to report that it is
// enabled. gohook does not surface hook failures (no display, input
// monitoring denied), so a hook that stays silent for timeout is treated as
// a *RegistrationError.
func (l *Listener) Register(timeout time.Duration) error {
	evChan := hook.Start()
	if err := l.awaitEnabled(evChan, timeout); err != nil {
		hook.End()
		return err
	}
	l.src = evChan
	return nil
}

func (l *Listener) awaitEnabled(evChan <-chan hook.Event, timeout time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case ev, ok := <-evChan:
			if !ok {
				return &RegistrationError{Key: l.key, Err: fmt.Errorf("event hook closed")}
			}
			if ev.Kind == hook.HookEnabled {
				return nil
			}
			l.handle(ev)
		case <-deadline.C:
			return &RegistrationError{Key: l.key, Err: fmt.Errorf("event hook not enabled after %s (no display, or input monitoring not permitted)", timeout)}
		}
	}
}

// Start begins listening for the global hotkey, registering it first if
// Register was not called. This function blocks until Stop is called. Run
// it in a goroutine.
func (l *Listener) Start() {
	defer close(l.ch)

	if l.src == nil {
		l.src = hook.Start()
	}
	for {
		select {
		case ev, ok := <-l.src:
			if !ok {
				return
			}
			l.handle(ev)
		case <-l.done:
			hook.End()
			return
		}
	}
}

// handle translates one raw hook event. uiohook reports a physical press as
// KeyHold and the resulting character as KeyDown; modifier keys only produce
// KeyHold, so both count as a press.
func (l *Listener) handle(ev hook.Event) {
	if ev.Keycode != l.code {
		return
	}
	switch ev.Kind {
	case hook.KeyHold, hook.KeyDown:
		l.press()
	case hook.KeyUp:
		l.release()
	}
}

func (l *Listener) press() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down {
		return // auto-repeat
	}
	l.down = true

	if l.mode == "toggle" {
		if l.active {
			l.emit(EventStop)
		} else {
			l.emit(EventStart)
		}
		l.active = !l.active
		return
	}
	l.emit(EventStart)
}

func (l *Listener) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.down {
		return
	}
	l.down = false

	if l.mode == "hold" {
		l.emit(EventStop)
	}
}

// emit never blocks the hook thread; a full channel drops the event.
func (l *Listener) emit(t EventType) {
	select {
	case l.ch <- Event{Type: t}:
	default:
	}
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
