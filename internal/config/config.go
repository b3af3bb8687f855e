package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/whisperclip/internal/models"
)

// AppName is used for the config and data directory names.
const AppName = "whisperclip"

// DefaultDevice selects the system default capture device.
const DefaultDevice = -1

// Config holds all application configuration. It is loaded once at startup
// and treated as read-only afterwards.
type Config struct {
	Hotkey     HotkeyConfig     `yaml:"hotkey"`
	Audio      AudioConfig      `yaml:"audio"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Text       TextConfig       `yaml:"text"`
	Clipboard  ClipboardConfig  `yaml:"clipboard"`
	Notify     NotifyConfig     `yaml:"notify"`
	LogLevel   string           `yaml:"log_level"`
}

// HotkeyConfig holds hotkey-related settings.
type HotkeyConfig struct {
	Key  string `yaml:"key"`
	Mode string `yaml:"mode"` // "hold" or "toggle"
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	DeviceIndex int           `yaml:"device_index"` // -1 for the system default
	SampleRate  uint32        `yaml:"sample_rate"`
	Channels    uint32        `yaml:"channels"`
	MaxDuration time.Duration `yaml:"max_duration"` // 0 disables the limit
	SaveDir     string        `yaml:"save_dir"`     // when set, each session is also written as WAV
}

// TranscribeConfig selects and tunes the speech-to-text backend.
type TranscribeConfig struct {
	Backend       string       `yaml:"backend"` // "whisper" or "openai"
	ModelVariant  string       `yaml:"model_variant"`
	ModelPath     string       `yaml:"model_path"`     // overrides the variant lookup
	ComputeDevice string       `yaml:"compute_device"` // "auto", "gpu" or "cpu"
	Language      string       `yaml:"language"`
	Threads       int          `yaml:"threads"` // 0 uses all cores
	OpenAI        OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig configures the remote transcription backend. The API key is
// read from the environment variable named by APIKeyEnv, never from the file.
type OpenAIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	Timeout   time.Duration `yaml:"timeout"`
}

// TextConfig controls transcript post-processing.
type TextConfig struct {
	AutoCapitalize    bool `yaml:"auto_capitalize"`
	AutoPunctuate     bool `yaml:"auto_punctuate"`
	RemoveFillerWords bool `yaml:"remove_filler_words"`
}

// ClipboardConfig controls how text is published.
type ClipboardConfig struct {
	AutoPaste bool `yaml:"auto_paste"` // tap the paste shortcut after writing
}

// NotifyConfig controls user-visible feedback beyond the console.
type NotifyConfig struct {
	Enabled bool `yaml:"enabled"`
	Sound   bool `yaml:"sound"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the directory downloaded models are stored in.
func DefaultModelsDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("models")
	}
	return filepath.Join(home, ".local", "share", AppName, "models")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Hotkey: HotkeyConfig{
			Key:  "f12",
			Mode: "hold",
		},
		Audio: AudioConfig{
			DeviceIndex: DefaultDevice,
			SampleRate:  16000,
			Channels:    1,
			MaxDuration: 30 * time.Second,
		},
		Transcribe: TranscribeConfig{
			Backend:       "whisper",
			ModelVariant:  "base.en",
			ComputeDevice: "auto",
			Language:      "en",
			OpenAI: OpenAIConfig{
				Model:     "whisper-1",
				APIKeyEnv: "OPENAI_API_KEY",
				Timeout:   60 * time.Second,
			},
		},
		Text: TextConfig{
			AutoCapitalize: true,
			AutoPunctuate:  true,
		},
		Notify: NotifyConfig{
			Enabled: true,
		},
		LogLevel: "info",
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. A leading ~ in path settings is expanded to the home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Transcribe.ModelPath = expandTilde(cfg.Transcribe.ModelPath)
	cfg.Audio.SaveDir = expandTilde(cfg.Audio.SaveDir)

	return cfg, nil
}

const header = `# whisperclip configuration
# Hold hotkey.key, speak, release: the transcript lands on the clipboard.
# Regenerate interactively with: whisperclip setup
`

// Save writes cfg to path as YAML, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// WriteDefault writes the default config to DefaultConfigPath. If a config
// file already exists it is left untouched and ("", nil) is returned.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	if err := Save(path, Default()); err != nil {
		return "", err
	}
	return path, nil
}

// ResolveModelPath returns the model file to load: model_path when set,
// otherwise ggml-<model_variant>.bin in the default models directory.
func (c *Config) ResolveModelPath() string {
	if c.Transcribe.ModelPath != "" {
		return c.Transcribe.ModelPath
	}
	return filepath.Join(DefaultModelsDir(), "ggml-"+c.Transcribe.ModelVariant+".bin")
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Hotkey.Key) == "" {
		return fmt.Errorf("hotkey.key must not be empty")
	}

	switch c.Hotkey.Mode {
	case "hold", "toggle":
	default:
		return fmt.Errorf("hotkey.mode must be \"hold\" or \"toggle\", got %q", c.Hotkey.Mode)
	}

	if c.Audio.DeviceIndex < DefaultDevice {
		return fmt.Errorf("audio.device_index must be -1 (default) or >= 0, got %d", c.Audio.DeviceIndex)
	}

	if c.Audio.SampleRate == 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}

	if c.Audio.Channels == 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}

	if c.Audio.MaxDuration < 0 {
		return fmt.Errorf("audio.max_duration must not be negative")
	}

	if err := c.Transcribe.validate(); err != nil {
		return err
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

func (t *TranscribeConfig) validate() error {
	switch t.ComputeDevice {
	case "auto", "gpu", "cpu":
	default:
		return fmt.Errorf("transcribe.compute_device must be auto, gpu, or cpu, got %q", t.ComputeDevice)
	}

	if t.Threads < 0 {
		return fmt.Errorf("transcribe.threads must not be negative")
	}

	switch t.Backend {
	case "whisper":
		if t.ModelPath == "" && t.ModelVariant == "" {
			return fmt.Errorf("transcribe: whisper backend requires model_variant or model_path")
		}
		if t.ModelPath == "" {
			if _, ok := models.Lookup(t.ModelVariant); !ok {
				return fmt.Errorf("transcribe.model_variant %q is not a known whisper model", t.ModelVariant)
			}
		}
	case "openai":
		if t.OpenAI.Model == "" {
			return fmt.Errorf("transcribe.openai.model must not be empty")
		}
		if t.OpenAI.APIKeyEnv == "" {
			return fmt.Errorf("transcribe.openai.api_key_env must not be empty")
		}
		if t.OpenAI.Timeout < 0 {
			return fmt.Errorf("transcribe.openai.timeout must not be negative")
		}
	default:
		return fmt.Errorf("transcribe.backend must be \"whisper\" or \"openai\", got %q", t.Backend)
	}

	return nil
}

// ParseLogLevel maps a log_level string to a slog.Level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
