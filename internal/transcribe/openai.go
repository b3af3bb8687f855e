package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/chaz8081/whisperclip/internal/audio"
	"github.com/chaz8081/whisperclip/internal/config"
)

// OpenAITranscriber sends recordings to an OpenAI-compatible
// /audio/transcriptions endpoint.
type OpenAITranscriber struct {
	client   openai.Client
	model    string
	language string
	timeout  time.Duration
}

// NewOpenAITranscriber builds a remote transcriber. The API key is read from
// the environment variable named in cfg.APIKeyEnv.
func NewOpenAITranscriber(cfg config.OpenAIConfig, language string) (*OpenAITranscriber, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("transcribe: openai: environment variable %s is not set", cfg.APIKeyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return newOpenAITranscriber(cfg, language, opts...), nil
}

func newOpenAITranscriber(cfg config.OpenAIConfig, language string, opts ...option.RequestOption) *OpenAITranscriber {
	if language == "auto" {
		language = ""
	}
	return &OpenAITranscriber{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		language: language,
		timeout:  cfg.Timeout,
	}
}

// Process uploads the samples as a 16kHz mono WAV and returns the text.
func (t *OpenAITranscriber) Process(samples []float32) (string, error) {
	f, err := os.CreateTemp("", "whisperclip-*.wav")
	if err != nil {
		return "", &InferenceError{Backend: "openai", Err: fmt.Errorf("create temp file: %w", err)}
	}
	defer os.Remove(f.Name())
	defer f.Close()

	buf := audio.Buffer{Samples: samples, SampleRate: audio.ModelSampleRate, Channels: 1}
	if err := audio.EncodeWAV(f, buf); err != nil {
		return "", &InferenceError{Backend: "openai", Err: err}
	}
	if _, err := f.Seek(0, 0); err != nil {
		return "", &InferenceError{Backend: "openai", Err: fmt.Errorf("rewind: %w", err)}
	}

	ctx := context.Background()
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(f, "audio.wav", "audio/wav"),
		Model: openai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = openai.String(t.language)
	}

	res, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", &InferenceError{Backend: "openai", Err: err}
	}
	return strings.TrimSpace(res.Text), nil
}

// Close is a no-op; the HTTP client holds no resources.
func (t *OpenAITranscriber) Close() error { return nil }
