package hotkey

import (
	"context"
	"fmt"

	hook "github.com/robotn/gohook"
)

// CaptureKey blocks until the next key press and returns its name.
// Keys without a known name are skipped. Used by the setup flow.
func CaptureKey(ctx context.Context) (string, error) {
	evChan := hook.Start()
	defer hook.End()

	return captureFrom(ctx, evChan)
}

func captureFrom(ctx context.Context, evChan <-chan hook.Event) (string, error) {
	for {
		select {
		case ev, ok := <-evChan:
			if !ok {
				return "", &RegistrationError{Key: "capture", Err: fmt.Errorf("event hook closed")}
			}
			if ev.Kind != hook.KeyHold && ev.Kind != hook.KeyDown {
				continue
			}
			if name := KeyName(ev.Keycode); name != "" {
				return name, nil
			}
		case <-ctx.Done():
			return "", fmt.Errorf("hotkey: no key captured: %w", ctx.Err())
		}
	}
}
