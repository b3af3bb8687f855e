// Package transcribe provides speech-to-text backends.
//
// Supported backends:
//   - whisper: whisper.cpp via Go bindings (default), loaded through an
//     ordered GPU/CPU probe list
//   - openai: an OpenAI-compatible /audio/transcriptions endpoint
package transcribe

import (
	"fmt"
	"log/slog"

	"github.com/chaz8081/whisperclip/internal/config"
)

// Transcriber converts audio samples to text.
type Transcriber interface {
	// Process transcribes mono 16kHz float32 audio samples to text.
	Process(samples []float32) (string, error)
	// Close releases backend resources.
	Close() error
}

// InferenceError reports that the model could not produce text for a
// session. It aborts that session only.
type InferenceError struct {
	Backend string
	Err     error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("transcribe: %s: %v", e.Backend, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

// New creates a Transcriber based on the config backend setting. For the
// whisper backend it returns the compute device the model was loaded on.
func New(cfg *config.Config, logger *slog.Logger) (Transcriber, string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tc := cfg.Transcribe

	switch tc.Backend {
	case "openai":
		t, err := NewOpenAITranscriber(tc.OpenAI, tc.Language)
		if err != nil {
			return nil, "", err
		}
		return t, "remote", nil
	case "whisper", "":
		opts := WhisperOptions{
			Language: tc.Language,
			Threads:  tc.Threads,
			Variant:  tc.ModelVariant,
		}
		probes := WhisperProbes(cfg.ResolveModelPath(), opts, logger)
		return LoadFirst(DeviceOrder(tc.ComputeDevice), probes, logger)
	default:
		return nil, "", fmt.Errorf("transcribe: unknown backend %q (supported: whisper, openai)", tc.Backend)
	}
}
