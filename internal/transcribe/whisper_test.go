package transcribe

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chaz8081/whisperclip/internal/audio"
)

// whisperModelPath resolves the base.en model under the project models dir.
func whisperModelPath(t *testing.T) string {
	t.Helper()
	path := filepath.Join("..", "..", "models", "ggml-base.en.bin")
	if _, err := os.Stat(path); err != nil {
		t.Skipf("model not found at %s (run 'whisperclip download base.en' first): %v", path, err)
	}
	return path
}

func TestNewWhisperTranscriber(t *testing.T) {
	path := whisperModelPath(t)

	tr, err := NewWhisperTranscriber(path, WhisperOptions{Language: "en"})
	if err != nil {
		t.Fatalf("NewWhisperTranscriber(%q) returned error: %v", path, err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
}

func TestNewWhisperTranscriberBadPath(t *testing.T) {
	_, err := NewWhisperTranscriber("/nonexistent/model.bin", WhisperOptions{})
	if err == nil {
		t.Fatal("NewWhisperTranscriber with bad path should return error")
	}
}

func TestWhisperProbesCPUBadPath(t *testing.T) {
	probes := WhisperProbes("/nonexistent/model.bin", WhisperOptions{Variant: "large-v3"}, quietLogger())

	_, device, err := LoadFirst(DeviceOrder("cpu"), probes, quietLogger())
	if err == nil {
		t.Fatalf("LoadFirst() on a missing model loaded on %q", device)
	}
	if !strings.Contains(err.Error(), "/nonexistent/model.bin") {
		t.Errorf("error %q should name the model path", err)
	}
}

func TestWhisperProbesGPUWithoutBuildTag(t *testing.T) {
	if gpuBuild {
		t.Skip("built with whisper_gpu")
	}
	probes := WhisperProbes("/nonexistent/model.bin", WhisperOptions{}, quietLogger())

	_, err := probes[DeviceGPU]()
	if !errors.Is(err, errNoGPUBuild) {
		t.Errorf("GPU probe error = %v, want errNoGPUBuild", err)
	}
}

func TestHeavyVariant(t *testing.T) {
	tests := map[string]bool{
		"tiny.en":  false,
		"base.en":  false,
		"small":    false,
		"medium":   true,
		"large-v3": true,
	}
	for variant, want := range tests {
		if got := heavyVariant(variant); got != want {
			t.Errorf("heavyVariant(%q) = %v, want %v", variant, got, want)
		}
	}
}

func TestWhisperProcessJFK(t *testing.T) {
	path := whisperModelPath(t)
	wavPath := filepath.Join("..", "..", "third_party", "whisper.cpp", "samples", "jfk.wav")
	buf, err := audio.ReadWAVFile(wavPath)
	if err != nil {
		t.Skipf("JFK sample not available: %v", err)
	}

	tr, err := NewWhisperTranscriber(path, WhisperOptions{Language: "en"})
	if err != nil {
		t.Fatalf("NewWhisperTranscriber: %v", err)
	}
	defer func() { _ = tr.Close() }()

	text, err := tr.Process(buf.ForModel())
	if err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if !strings.Contains(strings.ToLower(text), "ask not what your country") {
		t.Errorf("expected transcript to contain 'ask not what your country', got: %q", text)
	}
}

func TestWhisperProcessSilence(t *testing.T) {
	path := whisperModelPath(t)

	tr, err := NewWhisperTranscriber(path, WhisperOptions{})
	if err != nil {
		t.Fatalf("NewWhisperTranscriber: %v", err)
	}
	defer func() { _ = tr.Close() }()

	// Silence is still handed to the model; it must not error.
	if _, err := tr.Process(make([]float32, 16000)); err != nil {
		t.Fatalf("Process on silence returned error: %v", err)
	}
}
