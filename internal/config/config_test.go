package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AudioMode != ModeMicrophone {
		t.Fatalf("expected default mode %q, got %q", ModeMicrophone, cfg.AudioMode)
	}
	if cfg.AcquireTimeout != AcquireTimeout {
		t.Fatalf("expected default timeout %s, got %s", AcquireTimeout, cfg.AcquireTimeout)
	}
	if cfg.SilenceThreshold != SilenceThreshold {
		t.Fatalf("expected silence threshold %g, got %g", SilenceThreshold, cfg.SilenceThreshold)
	}
	if cfg.FFTSize != FFTSize || cfg.DefaultBins != DefaultBins {
		t.Fatalf("unexpected analysis sizes: fft=%d bins=%d", cfg.FFTSize, cfg.DefaultBins)
	}
	if cfg.BeatMinInterval != BeatMinInterval {
		t.Fatalf("expected beat interval %s, got %s", BeatMinInterval, cfg.BeatMinInterval)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PULSE_AUDIO_MODE", "sample")
	t.Setenv("PULSE_ACQUIRE_TIMEOUT", "250ms")
	t.Setenv("PULSE_REDUCED_MOTION", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AudioMode != ModeSample {
		t.Fatalf("expected sample mode, got %q", cfg.AudioMode)
	}
	if cfg.AcquireTimeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", cfg.AcquireTimeout)
	}
	if !cfg.ReducedMotion {
		t.Fatal("expected reduced motion")
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("PULSE_FFT_SIZE", "not-an-int")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"mode", map[string]string{"PULSE_AUDIO_MODE": "radio"}, "audio mode"},
		{"permission", map[string]string{"PULSE_MIC_PERMISSION": "maybe"}, "mic permission"},
		{"fft", map[string]string{"PULSE_FFT_SIZE": "300"}, "fft size"},
		{"timeout", map[string]string{"PULSE_ACQUIRE_TIMEOUT": "0s"}, "acquire timeout"},
		{"smoothing", map[string]string{"PULSE_BAND_SMOOTHING": "1.5"}, "band smoothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q error, got %v", tt.want, err)
			}
		})
	}
}
