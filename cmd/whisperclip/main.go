// Command whisperclip records while a hotkey is held, transcribes the audio
// with whisper and puts the text on the clipboard.
//
// Usage:
//
//	whisperclip [run]          start the dictation loop (default)
//	whisperclip run --once     record once with Enter and exit
//	whisperclip setup          interactive configuration
//	whisperclip devices        list capture devices
//	whisperclip download [M]   download a whisper model
//	whisperclip transcribe F   transcribe a WAV file
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/chaz8081/whisperclip/internal/config"
)

const usage = `usage: whisperclip <command> [flags]

commands:
  run                 start the dictation loop (default)
                      --manual: press Enter to record instead of the hotkey
                      --once:   one Enter-driven recording, then exit
  setup               choose device, hotkey and model interactively
  devices             list audio capture devices
  download [variant]  download a whisper model (default: configured variant)
  transcribe FILE     transcribe a WAV file and print the text

Run 'whisperclip <command> -h' for command flags.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := "run"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "run":
		return cmdRun(args)
	case "setup":
		return cmdSetup(args)
	case "devices":
		return cmdDevices(args)
	case "download":
		return cmdDownload(args)
	case "transcribe":
		return cmdTranscribe(args)
	case "help":
		fmt.Print(usage)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}
}

// globalFlags are accepted by every command.
type globalFlags struct {
	configPath string
	debug      bool
}

func newFlagSet(name string) (*flag.FlagSet, *globalFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := &globalFlags{}
	fs.StringVar(&g.configPath, "config", "", "path to config file (default: ~/.config/whisperclip/config.yaml)")
	fs.BoolVar(&g.debug, "debug", false, "enable debug logging")
	return fs, g
}

// newLogger builds the console logger. --debug overrides log_level.
func newLogger(w io.Writer, level string, debug bool) *slog.Logger {
	lvl := config.ParseLogLevel(level)
	if debug {
		lvl = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
	}))
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, defaultPath, nil
	}

	return config.Default(), "", nil
}

// loadValidConfig loads and validates the config and builds the logger.
func loadValidConfig(g *globalFlags) (*config.Config, *slog.Logger, error) {
	cfg, path, err := loadConfig(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.LogLevel, g.debug)
	slog.SetDefault(logger)
	if path != "" {
		logger.Debug("config loaded", "path", path)
	} else {
		logger.Debug("no config file found, using defaults")
	}
	return cfg, logger, nil
}
