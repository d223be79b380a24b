// Package platform hosts the spectrum session on a real window: glfw and
// OpenGL on desktop, x/mobile on android.
package platform

import (
	"log/slog"

	"pulse/internal/audio"
	"pulse/internal/audio/device"
	"pulse/internal/config"
	"pulse/internal/input"
)

// newPipeline wires the hardware adapters into an acquisition pipeline.
// The returned func releases the capture backend.
func newPipeline(cfg config.Config, log *slog.Logger) (*audio.Pipeline, func()) {
	samples := audio.NewSampleCache(nil)
	if spk, err := device.NewSpeaker(config.SampleRate, cfg.DemoVolume); err != nil {
		log.Warn("audio output unavailable, demo track is silent", "error", err)
	} else {
		samples.SetOutput(spk)
	}

	mic := device.NewMicrophone()
	p := audio.NewPipeline(audio.PipelineOptions{
		Permissions: audio.StaticPermission(cfg.MicPermission),
		Capturer:    mic,
		Samples:     samples,
		Logger:      log,
	})
	return p, func() {
		if err := mic.Close(); err != nil {
			log.Warn("close capture backend", "error", err)
		}
	}
}

func inputOptions(cfg config.Config, sched input.FrameScheduler, pads input.GamepadReader, log *slog.Logger) input.Options {
	return input.Options{
		Scheduler:       sched,
		Gamepads:        pads,
		KeyboardSpeed:   cfg.KeyboardSpeed,
		KeyboardBoost:   cfg.KeyboardBoost,
		GamepadSpeed:    cfg.GamepadSpeed,
		GamepadDeadzone: cfg.GamepadDeadzone,
		Logger:          log,
	}
}
