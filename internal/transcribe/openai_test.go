package transcribe

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chaz8081/whisperclip/internal/config"
)

func testOpenAIConfig(baseURL string) config.OpenAIConfig {
	return config.OpenAIConfig{
		BaseURL:   baseURL + "/",
		Model:     "whisper-1",
		APIKeyEnv: "WHISPERCLIP_TEST_KEY",
		Timeout:   5 * time.Second,
	}
}

func TestOpenAITranscriberProcess(t *testing.T) {
	t.Setenv("WHISPERCLIP_TEST_KEY", "sk-test")

	var gotAuth, gotPath, gotModel, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"  hello world  "}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAITranscriber(testOpenAIConfig(srv.URL), "en")
	if err != nil {
		t.Fatalf("NewOpenAITranscriber() error = %v", err)
	}
	defer func() { _ = tr.Close() }()

	text, err := tr.Process(make([]float32, 1600))
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Process() = %q, want %q", text, "hello world")
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !strings.HasSuffix(gotPath, "/audio/transcriptions") {
		t.Errorf("path = %q, want .../audio/transcriptions", gotPath)
	}
	if gotModel != "whisper-1" || gotLang != "en" {
		t.Errorf("form model=%q language=%q", gotModel, gotLang)
	}
}

func TestOpenAITranscriberAutoLanguageOmitted(t *testing.T) {
	t.Setenv("WHISPERCLIP_TEST_KEY", "sk-test")

	langSent := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(1 << 20)
		_, langSent = r.MultipartForm.Value["language"]
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"bonjour"}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAITranscriber(testOpenAIConfig(srv.URL), "auto")
	if err != nil {
		t.Fatalf("NewOpenAITranscriber() error = %v", err)
	}
	if _, err := tr.Process(make([]float32, 160)); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if langSent {
		t.Error("language should not be sent for auto detection")
	}
}

func TestOpenAITranscriberHTTPError(t *testing.T) {
	t.Setenv("WHISPERCLIP_TEST_KEY", "sk-test")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad audio","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAITranscriber(testOpenAIConfig(srv.URL), "en")
	if err != nil {
		t.Fatalf("NewOpenAITranscriber() error = %v", err)
	}

	_, err = tr.Process(make([]float32, 160))
	var infErr *InferenceError
	if !errors.As(err, &infErr) {
		t.Fatalf("Process() error = %v, want *InferenceError", err)
	}
	if infErr.Backend != "openai" {
		t.Errorf("Backend = %q, want openai", infErr.Backend)
	}
}

func TestNewOpenAITranscriberMissingKey(t *testing.T) {
	t.Setenv("WHISPERCLIP_TEST_KEY", "")

	_, err := NewOpenAITranscriber(testOpenAIConfig("http://127.0.0.1:0"), "en")
	if err == nil || !strings.Contains(err.Error(), "WHISPERCLIP_TEST_KEY") {
		t.Errorf("NewOpenAITranscriber() error = %v, want missing key error", err)
	}
}

func TestNewUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Transcribe.Backend = "vosk"

	if _, _, err := New(cfg, quietLogger()); err == nil {
		t.Error("New() with unknown backend should fail")
	}
}

func TestNewOpenAIBackend(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := config.Default()
	cfg.Transcribe.Backend = "openai"

	tr, device, err := New(cfg, quietLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = tr.Close() }()
	if device != "remote" {
		t.Errorf("device = %q, want remote", device)
	}
}
