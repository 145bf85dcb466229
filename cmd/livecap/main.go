package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/recapware/livecap/internal/audio"
	"github.com/recapware/livecap/internal/config"
	"github.com/recapware/livecap/internal/logging"
	"github.com/recapware/livecap/internal/session"
	"github.com/recapware/livecap/internal/submit"
	"github.com/recapware/livecap/internal/transcript"
	"github.com/recapware/livecap/internal/tray"
	"github.com/recapware/livecap/internal/whisper"

	"github.com/rs/zerolog"
)

var (
	// Version is set via ldflags at build time
	Version = "dev"
)

func main() {
	// Load config from XDG/Library/AppData
	cfg, err := config.Load()
	if err != nil {
		log := logging.New()
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logging.NewWithLevel(cfg.LogLevel)

	if err := audio.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize audio")
	}
	defer audio.Terminate()

	transcriber, err := whisper.New(cfg.Whisper, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize whisper")
	}
	defer transcriber.Close()

	tlog := transcript.NewLog()

	// Create tray UI first; it is the assembler's line listener
	trayUI := tray.New(tlog, Version, log)

	assembler := transcript.NewAssembler(tlog, cfg.Transcript.NoiseTokens, trayUI.OnLine)

	sess := session.New(session.Config{
		Config:  cfg,
		Catalog: audio.NewCatalog(),
		NewCapture: func(device audio.Device) audio.Capture {
			return audio.NewSession(device, cfg.Audio.SampleRate, cfg.Audio.BlockSize(), log)
		},
		Transcriber: transcriber,
		Assembler:   assembler,
		Transcript:  tlog,
		Logger:      log,
	})

	tracker := submit.New(cfg.Backend.URL, cfg.Backend.Token, tlog, log)

	trayUI.SetSession(sess)
	trayUI.SetTracker(tracker)

	// Device resolution failure is the one fatal startup error
	if err := sess.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start capture session")
	}

	log.Info().Str("version", Version).Msg("livecap started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup shutdown signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		shutdown(log, sess)
	}()

	// Tray UI MUST run on the main thread
	if err := trayUI.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Tray error")
	}
}

func shutdown(log zerolog.Logger, sess *session.Session) {
	log.Info().Msg("Shutting down...")
	if err := sess.Stop(); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
	os.Exit(0)
}
