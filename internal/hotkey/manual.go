package hotkey

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Manual turns Enter presses read from a terminal into start/stop events,
// for use where no global hook is available. An empty line toggles
// recording; "q" ends input.
type Manual struct {
	in     io.Reader
	prompt io.Writer
	once   bool
	ch     chan Event
}

// NewManual reads lines from in and writes prompts to prompt. With once set
// the event channel closes after the first stop.
func NewManual(in io.Reader, prompt io.Writer, once bool) *Manual {
	if prompt == nil {
		prompt = io.Discard
	}
	return &Manual{in: in, prompt: prompt, once: once, ch: make(chan Event)}
}

// Events returns the channel that receives events. It is closed on "q",
// end of input, or after one cycle in once mode.
func (m *Manual) Events() <-chan Event {
	return m.ch
}

// Start reads until input ends. Run it in a goroutine.
func (m *Manual) Start() {
	defer close(m.ch)

	recording := false
	scanner := bufio.NewScanner(m.in)
	fmt.Fprintln(m.prompt, "Press Enter to start recording, q + Enter to quit.")
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch {
		case line == "q":
			return
		case line != "":
			fmt.Fprintln(m.prompt, "Press Enter to record or 'q' to quit.")
			continue
		}

		if !recording {
			m.ch <- Event{Type: EventStart}
			fmt.Fprintln(m.prompt, "Recording... press Enter to stop.")
		} else {
			m.ch <- Event{Type: EventStop}
			if m.once {
				return
			}
			fmt.Fprintln(m.prompt, "Press Enter to start recording, q + Enter to quit.")
		}
		recording = !recording
	}
}
