// Package clipboard publishes transcripts to the system clipboard and can
// optionally paste them into the focused application.
package clipboard

import (
	"fmt"
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/go-vgo/robotgo"
)

// Swapped out in tests.
var (
	writeAll = clipboard.WriteAll
	keyTap   = func(key string, mod string) error { return robotgo.KeyTap(key, mod) }
)

// pasteDelay gives the clipboard owner time to publish before the paste
// shortcut is sent.
const pasteDelay = 50 * time.Millisecond

// Operations reported in WriteError.Op.
const (
	OpWrite = "write"
	OpPaste = "paste"
)

// WriteError reports a failed clipboard operation. When Op is OpWrite the
// previous clipboard content is left as it was; when Op is OpPaste the text
// was copied but the paste shortcut could not be sent.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("clipboard: %s: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer writes text to the clipboard.
type Writer struct {
	autoPaste bool
}

// NewWriter creates a Writer. When autoPaste is set, every successful write
// is followed by the platform paste shortcut.
func NewWriter(autoPaste bool) *Writer {
	return &Writer{autoPaste: autoPaste}
}

// Write replaces the clipboard content with text. Empty text is a no-op.
func (w *Writer) Write(text string) error {
	if text == "" {
		return nil
	}

	if err := writeAll(text); err != nil {
		return &WriteError{Op: OpWrite, Err: err}
	}

	if w.autoPaste {
		time.Sleep(pasteDelay)
		if err := keyTap("v", pasteModifier(runtime.GOOS)); err != nil {
			return &WriteError{Op: OpPaste, Err: err}
		}
	}
	return nil
}

func pasteModifier(goos string) string {
	if goos == "darwin" {
		return "cmd"
	}
	return "ctrl"
}
