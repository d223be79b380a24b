package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pulse/internal/config"
	"pulse/internal/logging"
	"pulse/internal/platform"
	"pulse/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "pulse: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A crash in the host loop still releases the audio device.
	defer func() {
		if p := recover(); p != nil {
			if err := session.Unload(); err != nil {
				log.Error("unload after crash", "error", err)
			}
			panic(p)
		}
	}()

	log.Info("starting", "slug", cfg.Slug, "audio_mode", cfg.AudioMode)
	return platform.Run(ctx, cfg, log)
}
