package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Baishnab1708/MyChatBot/pkg/assistant"
	"github.com/Baishnab1708/MyChatBot/pkg/audio"
	"github.com/Baishnab1708/MyChatBot/pkg/audio/portaudio"
	"github.com/Baishnab1708/MyChatBot/pkg/config"
	"github.com/Baishnab1708/MyChatBot/pkg/logging"
	"github.com/Baishnab1708/MyChatBot/pkg/runner"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "env file error:", err)
	}
	configPath := flag.String("config", "", "path to config YAML (defaults are used when empty)")
	logLevel := flag.String("log_level", "", "override log_level")
	noBanner := flag.Bool("no_banner", false, "skip the startup banner")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	source, sink, closeDevices, err := openDevices(cfg)
	if err != nil {
		logger.Error("audio_devices_failed", "error", err.Error())
		os.Exit(1)
	}
	defer closeDevices()

	opts := assistant.Options{
		Config: cfg,
		Source: source,
		Sink:   sink,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Logger: logger,
	}
	if !*noBanner {
		opts.Banner = os.Stdout
	}
	app, err := assistant.New(opts)
	if err != nil {
		logger.Error("assistant_init_failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := app.Run(ctx); err != nil {
		level := slog.LevelError
		if errors.Is(err, runner.ErrDrainTimeout) {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, "assistant_stopped", "error", err.Error())
		if level == slog.LevelError {
			closeDevices()
			os.Exit(1)
		}
	}
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.LoadConfig(path)
}

// openDevices opens the microphone and speaker when audio.device is
// portaudio. With "none" capture reports not-supported and speech is
// synthesized but not played.
func openDevices(cfg config.Config) (audio.Source, audio.Sink, func(), error) {
	if cfg.Audio.Device != "portaudio" {
		return nil, nil, func() {}, nil
	}
	paCfg := portaudio.Config{SampleRate: cfg.Audio.SampleRate, FramesPerBuffer: cfg.Audio.FramesPerBuffer}
	speaker, err := portaudio.NewSpeaker(paCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	mic := portaudio.NewMicrophone(paCfg)
	closed := false
	return mic, speaker, func() {
		if closed {
			return
		}
		closed = true
		_ = mic.Stop()
		_ = speaker.Close()
	}, nil
}
