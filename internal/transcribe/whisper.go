package transcribe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// errNoGPUBuild is returned by the GPU probe when whisper.cpp was linked
// without a GPU backend.
var errNoGPUBuild = errors.New("whisper.cpp built without GPU support (rebuild with -tags whisper_gpu)")

// WhisperOptions tunes whisper.cpp inference.
type WhisperOptions struct {
	Language string // "" or "auto" detects; ignored by English-only models
	Threads  int    // 0 uses all cores
	Variant  string // informational, used for device warnings
}

// WhisperTranscriber wraps a whisper.cpp model for speech-to-text.
type WhisperTranscriber struct {
	model whisper.Model
	opts  WhisperOptions

	mu sync.Mutex // whisper contexts share model state
}

// NewWhisperTranscriber loads a whisper model from the given path.
// The caller must call Close() when done.
func NewWhisperTranscriber(modelPath string, opts WhisperOptions) (*WhisperTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: load whisper model %q: %w", modelPath, err)
	}
	return &WhisperTranscriber{model: model, opts: opts}, nil
}

// WhisperProbes returns the per-device loaders for a whisper model.
func WhisperProbes(modelPath string, opts WhisperOptions, logger *slog.Logger) map[string]Loader {
	return map[string]Loader{
		DeviceGPU: func() (Transcriber, error) {
			if !gpuBuild {
				return nil, errNoGPUBuild
			}
			return NewWhisperTranscriber(modelPath, opts)
		},
		DeviceCPU: func() (Transcriber, error) {
			if heavyVariant(opts.Variant) {
				logger.Warn("large whisper model on CPU may be slow; consider base or small", "variant", opts.Variant)
			}
			return NewWhisperTranscriber(modelPath, opts)
		},
	}
}

func heavyVariant(variant string) bool {
	return strings.HasPrefix(variant, "large") || strings.HasPrefix(variant, "medium")
}

// Close releases the whisper model resources.
func (t *WhisperTranscriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Process transcribes mono 16kHz float32 audio samples to text.
func (t *WhisperTranscriber) Process(samples []float32) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ctx, err := t.model.NewContext()
	if err != nil {
		return "", &InferenceError{Backend: "whisper", Err: fmt.Errorf("create context: %w", err)}
	}

	threads := t.opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	ctx.SetThreads(uint(threads))

	if t.model.IsMultilingual() {
		lang := t.opts.Language
		if lang == "" {
			lang = "auto"
		}
		if err := ctx.SetLanguage(lang); err != nil {
			return "", &InferenceError{Backend: "whisper", Err: fmt.Errorf("set language %q: %w", lang, err)}
		}
	}

	if err := ctx.Process(samples, nil, nil, nil); err != nil {
		return "", &InferenceError{Backend: "whisper", Err: fmt.Errorf("process: %w", err)}
	}

	var segments []string
	for {
		seg, err := ctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &InferenceError{Backend: "whisper", Err: fmt.Errorf("next segment: %w", err)}
		}
		segments = append(segments, seg.Text)
	}

	return strings.TrimSpace(strings.Join(segments, " ")), nil
}
