// Package setup runs the interactive first-time configuration: capture
// device, hotkey, model variant and compute device.
package setup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chaz8081/whisperclip/internal/audio"
	"github.com/chaz8081/whisperclip/internal/config"
	"github.com/chaz8081/whisperclip/internal/models"
)

// DefaultKeyTimeout is how long the wizard waits for a hotkey press.
const DefaultKeyTimeout = 30 * time.Second

// DeviceLister enumerates capture devices.
type DeviceLister interface {
	ListDevices() ([]audio.Device, error)
}

// Wizard walks the user through configuration. In and Out are the
// terminal; the remaining fields reach the OS.
type Wizard struct {
	In  io.Reader
	Out io.Writer

	Devices    DeviceLister
	CaptureKey func(ctx context.Context) (string, error)
	Download   func(ctx context.Context, variant, dir string, out io.Writer) (string, error)
	KeyTimeout time.Duration

	scan *bufio.Scanner
}

// Run asks each question in turn and returns the updated config. cfg is
// not modified. Empty answers keep the current value.
func (w *Wizard) Run(ctx context.Context, cfg *config.Config) (*config.Config, error) {
	out := *cfg
	w.scan = bufio.NewScanner(w.In)

	fmt.Fprintln(w.Out, "=== whisperclip setup ===")
	fmt.Fprintln(w.Out, "Press Enter to keep the value shown in brackets.")

	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "Step 1: Audio device")
	w.chooseDevice(&out)

	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "Step 2: Hotkey")
	w.chooseHotkey(ctx, &out)

	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "Step 3: Model")
	w.chooseModel(&out)

	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "Step 4: Compute device")
	w.chooseCompute(&out)

	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}

	if err := w.offerDownload(ctx, &out); err != nil {
		return nil, err
	}

	w.summary(&out)
	return &out, nil
}

func (w *Wizard) chooseDevice(cfg *config.Config) {
	if w.Devices == nil {
		fmt.Fprintln(w.Out, "  Device listing unavailable, keeping current device.")
		return
	}
	devices, err := w.Devices.ListDevices()
	if err != nil {
		fmt.Fprintf(w.Out, "  No capture devices found (%v), keeping current device.\n", err)
		return
	}
	if len(devices) == 0 {
		fmt.Fprintln(w.Out, "  No capture devices found, keeping current device.")
		return
	}

	for _, d := range devices {
		mark := ""
		if d.Default {
			mark = " (system default)"
		}
		fmt.Fprintf(w.Out, "  [%2d] %s%s\n", d.Index, d.Name, mark)
	}

	current := "default"
	if cfg.Audio.DeviceIndex != config.DefaultDevice {
		current = strconv.Itoa(cfg.Audio.DeviceIndex)
	}
	for {
		answer, ok := w.ask(fmt.Sprintf("Device index, or \"default\" [%s]: ", current))
		if !ok || answer == "" {
			return
		}
		if answer == "default" {
			cfg.Audio.DeviceIndex = config.DefaultDevice
			return
		}
		idx, err := strconv.Atoi(answer)
		if err != nil || idx < 0 || idx >= len(devices) {
			fmt.Fprintf(w.Out, "  Invalid device index %q (0-%d)\n", answer, len(devices)-1)
			continue
		}
		cfg.Audio.DeviceIndex = idx
		fmt.Fprintf(w.Out, "  Selected: [%d] %s\n", idx, devices[idx].Name)
		return
	}
}

func (w *Wizard) chooseHotkey(ctx context.Context, cfg *config.Config) {
	if w.CaptureKey == nil {
		return
	}
	timeout := w.KeyTimeout
	if timeout <= 0 {
		timeout = DefaultKeyTimeout
	}

	fmt.Fprintf(w.Out, "  Press the key to use for dictation (current: %s, waiting %s)...\n", cfg.Hotkey.Key, timeout)
	fmt.Fprintln(w.Out, "  Common choices: f12, rctrl, ralt")

	kctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	key, err := w.CaptureKey(kctx)
	if err != nil {
		fmt.Fprintf(w.Out, "  No key captured (%v), keeping %s\n", err, cfg.Hotkey.Key)
		return
	}
	cfg.Hotkey.Key = key
	fmt.Fprintf(w.Out, "  Captured hotkey: %s\n", key)
}

func (w *Wizard) chooseModel(cfg *config.Config) {
	for _, v := range models.Variants() {
		fmt.Fprintf(w.Out, "  %-10s ~%5d MB  %s\n", v.Name, v.SizeMB, v.Note)
	}
	for {
		answer, ok := w.ask(fmt.Sprintf("Model [%s]: ", cfg.Transcribe.ModelVariant))
		if !ok || answer == "" {
			return
		}
		if _, known := models.Lookup(answer); !known {
			fmt.Fprintf(w.Out, "  Unknown model %q\n", answer)
			continue
		}
		cfg.Transcribe.ModelVariant = answer
		cfg.Transcribe.ModelPath = ""
		return
	}
}

func (w *Wizard) chooseCompute(cfg *config.Config) {
	for {
		answer, ok := w.ask(fmt.Sprintf("Compute device (auto/gpu/cpu) [%s]: ", cfg.Transcribe.ComputeDevice))
		if !ok || answer == "" {
			return
		}
		switch answer {
		case "auto", "gpu", "cpu":
			cfg.Transcribe.ComputeDevice = answer
			return
		}
		fmt.Fprintf(w.Out, "  Expected auto, gpu or cpu, got %q\n", answer)
	}
}

func (w *Wizard) offerDownload(ctx context.Context, cfg *config.Config) error {
	if w.Download == nil || cfg.Transcribe.Backend != "whisper" || cfg.Transcribe.ModelPath != "" {
		return nil
	}
	path := cfg.ResolveModelPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	answer, ok := w.ask(fmt.Sprintf("\nModel %s is not downloaded yet. Download now? [Y/n]: ", cfg.Transcribe.ModelVariant))
	if !ok || (answer != "" && !strings.HasPrefix(answer, "y")) {
		fmt.Fprintln(w.Out, "  Skipped. Run 'whisperclip download' later.")
		return nil
	}
	if _, err := w.Download(ctx, cfg.Transcribe.ModelVariant, filepath.Dir(path), w.Out); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	return nil
}

func (w *Wizard) summary(cfg *config.Config) {
	device := "default"
	if cfg.Audio.DeviceIndex != config.DefaultDevice {
		device = strconv.Itoa(cfg.Audio.DeviceIndex)
	}
	fmt.Fprintln(w.Out)
	fmt.Fprintln(w.Out, "Your settings:")
	fmt.Fprintf(w.Out, "  Audio device:   %s\n", device)
	fmt.Fprintf(w.Out, "  Hotkey:         %s (%s mode)\n", cfg.Hotkey.Key, cfg.Hotkey.Mode)
	fmt.Fprintf(w.Out, "  Model:          %s\n", cfg.Transcribe.ModelVariant)
	fmt.Fprintf(w.Out, "  Compute device: %s\n", cfg.Transcribe.ComputeDevice)
	fmt.Fprintf(w.Out, "  Language:       %s\n", cfg.Transcribe.Language)
}

// ask prints prompt and reads one trimmed, lowercased line. ok is false
// at end of input.
func (w *Wizard) ask(prompt string) (string, bool) {
	fmt.Fprint(w.Out, prompt)
	if !w.scan.Scan() {
		fmt.Fprintln(w.Out)
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(w.scan.Text())), true
}
