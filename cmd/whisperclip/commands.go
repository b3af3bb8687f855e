package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/chaz8081/whisperclip/internal/audio"
	"github.com/chaz8081/whisperclip/internal/clipboard"
	"github.com/chaz8081/whisperclip/internal/config"
	"github.com/chaz8081/whisperclip/internal/hotkey"
	"github.com/chaz8081/whisperclip/internal/models"
	"github.com/chaz8081/whisperclip/internal/notify"
	"github.com/chaz8081/whisperclip/internal/postprocess"
	"github.com/chaz8081/whisperclip/internal/session"
	"github.com/chaz8081/whisperclip/internal/setup"
	"github.com/chaz8081/whisperclip/internal/stats"
	"github.com/chaz8081/whisperclip/internal/transcribe"
)

// eventSource feeds start/stop events to the session controller.
type eventSource interface {
	Start()
	Events() <-chan hotkey.Event
}

func cmdRun(args []string) int {
	fs, g := newFlagSet("run")
	manual := fs.Bool("manual", false, "press Enter in this terminal to start and stop recording instead of using the global hotkey")
	once := fs.Bool("once", false, "record a single Enter-driven session, then exit (implies --manual)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *once {
		*manual = true
	}

	cfg, logger, err := loadValidConfig(g)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if g.configPath == "" {
		writeDefaultConfig(logger)
	}

	printBanner(cfg)

	var src eventSource
	if *manual {
		src = hotkey.NewManual(os.Stdin, os.Stdout, *once)
	} else {
		listener, err := hotkey.NewListener(cfg.Hotkey.Key, cfg.Hotkey.Mode)
		if err == nil {
			err = listener.Register(hotkey.DefaultRegisterTimeout)
		}
		if err != nil {
			var regErr *hotkey.RegistrationError
			if errors.As(err, &regErr) {
				logger.Error("cannot register hotkey", "key", regErr.Key, "error", regErr.Err)
			} else {
				logger.Error("cannot register hotkey", "error", err)
			}
			logger.Info("run 'whisperclip run --manual' to record with Enter instead")
			return 1
		}
		// Drain the hook while the model loads.
		go listener.Start()
		src = listener
	}

	modelStart := time.Now()
	tr, device, err := transcribe.New(cfg, logger)
	if err != nil {
		logger.Error("failed to load model", "path", cfg.ResolveModelPath(), "error", err)
		logger.Info("run 'whisperclip download' to fetch the configured model")
		return 1
	}
	defer tr.Close()
	logger.Info("model ready", "backend", cfg.Transcribe.Backend, "device", device,
		"took", time.Since(modelStart).Round(time.Millisecond))

	rec, err := audio.NewRecorder(cfg.Audio.DeviceIndex, cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		logger.Error("failed to initialize audio", "error", err)
		return 1
	}
	defer rec.Close()

	st := stats.NewRecorder(logger)
	ctrl := session.New(
		rec,
		tr,
		clipboard.NewWriter(cfg.Clipboard.AutoPaste),
		notify.NewReporter(logger, cfg.Notify.Enabled, cfg.Notify.Sound),
		session.Options{
			MaxDuration: cfg.Audio.MaxDuration,
			SaveDir:     cfg.Audio.SaveDir,
			Clean:       postprocess.New(cfg.Text).Apply,
			Stats:       st,
			Logger:      logger,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *manual {
		go src.Start()
		logger.Info("ready, press Enter to dictate")
	} else {
		logger.Info("ready, hold the hotkey to dictate", "hotkey", cfg.Hotkey.Key, "mode", cfg.Hotkey.Mode)
	}

	ctrl.Run(ctx, src.Events())
	st.Log()

	// The hook is not ended here: gohook's C cleanup can crash on exit and
	// the OS reclaims the event tap with the process.
	if ctx.Err() == nil && !*manual {
		logger.Error("hotkey listener stopped unexpectedly")
		return 1
	}
	logger.Info("goodbye")
	return 0
}

// writeDefaultConfig saves the built-in defaults to the default config path
// on first run so there is a file to edit.
func writeDefaultConfig(logger *slog.Logger) {
	path, err := config.WriteDefault()
	if err != nil {
		logger.Warn("could not write default config", "error", err)
		return
	}
	if path != "" {
		logger.Info("wrote default config, edit it or run 'whisperclip setup'", "path", path)
	}
}

func cmdSetup(args []string) int {
	fs, g := newFlagSet("setup")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, path, err := loadConfig(g.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if path == "" {
		path = g.configPath
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}
	slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel, g.debug))

	w := &setup.Wizard{
		In:         os.Stdin,
		Out:        os.Stdout,
		CaptureKey: hotkey.CaptureKey,
		Download:   models.Download,
		KeyTimeout: setup.DefaultKeyTimeout,
	}
	if rec, err := audio.NewRecorder(config.DefaultDevice, cfg.Audio.SampleRate, cfg.Audio.Channels); err != nil {
		slog.Warn("audio backend unavailable, skipping device selection", "error", err)
	} else {
		defer rec.Close()
		w.Devices = rec
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updated, err := w.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := config.Save(path, updated); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("\nConfiguration saved to %s\n", path)
	fmt.Println("Run 'whisperclip' to start dictating.")
	return 0
}

func cmdDevices(args []string) int {
	fs, g := newFlagSet("devices")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	cfg, _, err := loadValidConfig(g)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	rec, err := audio.NewRecorder(cfg.Audio.DeviceIndex, cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer rec.Close()

	devices, err := rec.ListDevices()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Println("No capture devices found.")
		return 0
	}
	for _, d := range devices {
		var marks []string
		if d.Default {
			marks = append(marks, "system default")
		}
		if d.Index == cfg.Audio.DeviceIndex {
			marks = append(marks, "configured")
		}
		line := fmt.Sprintf("[%2d] %s", d.Index, d.Name)
		if len(marks) > 0 {
			line += " (" + strings.Join(marks, ", ") + ")"
		}
		fmt.Println(line)
	}
	return 0
}

func cmdDownload(args []string) int {
	fs, g := newFlagSet("download")
	list := fs.Bool("list", false, "list available model variants")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		for _, v := range models.Variants() {
			fmt.Printf("%-10s ~%5d MB  %s\n", v.Name, v.SizeMB, v.Note)
		}
		return 0
	}

	cfg, _, err := loadValidConfig(g)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	variant := cfg.Transcribe.ModelVariant
	dir := config.DefaultModelsDir()
	if fs.NArg() > 0 {
		variant = fs.Arg(0)
	} else if cfg.Transcribe.ModelPath != "" {
		dir = filepath.Dir(cfg.Transcribe.ModelPath)
		fmt.Printf("Note: model_path is set to %s; downloading %s into %s\n", cfg.Transcribe.ModelPath, variant, dir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := models.Download(ctx, variant, dir, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Model ready: %s\n", path)
	return 0
}

func cmdTranscribe(args []string) int {
	fs, g := newFlagSet("transcribe")
	copyOut := fs.Bool("copy", false, "also write the text to the clipboard")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: whisperclip transcribe [flags] FILE.wav")
		return 2
	}

	cfg, logger, err := loadValidConfig(g)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	buf, err := audio.ReadWAVFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if buf.Empty() {
		fmt.Fprintln(os.Stderr, "no audio in", fs.Arg(0))
		return 1
	}

	tr, device, err := transcribe.New(cfg, logger)
	if err != nil {
		logger.Error("failed to load model", "path", cfg.ResolveModelPath(), "error", err)
		return 1
	}
	defer tr.Close()

	start := time.Now()
	text, err := tr.Process(buf.ForModel())
	if err != nil {
		logger.Error("transcription failed", "error", err)
		return 1
	}
	logger.Debug("transcribed", "device", device, "audio", buf.Duration(),
		"took", time.Since(start).Round(time.Millisecond))

	text = postprocess.New(cfg.Text).Apply(text)
	if text == "" {
		logger.Info("no speech detected")
		return 0
	}
	fmt.Println(text)

	if *copyOut {
		if err := clipboard.NewWriter(false).Write(text); err != nil {
			logger.Error("clipboard write failed", "error", err)
			return 1
		}
	}
	return 0
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config) {
	device := "default"
	if cfg.Audio.DeviceIndex != config.DefaultDevice {
		device = fmt.Sprintf("#%d", cfg.Audio.DeviceIndex)
	}
	model := cfg.Transcribe.OpenAI.Model + " (openai)"
	if cfg.Transcribe.Backend == "whisper" {
		model = cfg.ResolveModelPath()
	}
	fmt.Println("=== whisperclip ===")
	fmt.Printf("  Model:   %s\n", model)
	fmt.Printf("  Compute: %s\n", cfg.Transcribe.ComputeDevice)
	fmt.Printf("  Hotkey:  %s (%s mode)\n", cfg.Hotkey.Key, cfg.Hotkey.Mode)
	fmt.Printf("  Audio:   %s, %dHz, %dch, max %s\n", device, cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.MaxDuration)
	fmt.Printf("  Log:     %s\n", cfg.LogLevel)
	fmt.Println("===================")
}
