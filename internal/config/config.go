package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Window defaults.
const (
	WindowWidth  = 960
	WindowHeight = 600
	WindowTitle  = "pulse"
)

// Audio acquisition.
const (
	SampleRate     = 44100
	AcquireTimeout = 5 * time.Second
	FFTSize        = 256 // analyser bin count is FFTSize/2
	DefaultBins    = 128
)

// Frequency fallback blending. Bins are on the 0..255 byte scale.
const (
	SilenceThreshold = 8.0
	SynthPeriod      = 4 * time.Second
)

// Band energy tracking.
const (
	BandSmoothing   = 0.35
	BeatThreshold   = 0.45
	BeatMinInterval = 150 * time.Millisecond
)

// Virtual stick integration, in normalized units per second.
const (
	KeyboardSpeed   = 1.2
	KeyboardBoost   = 2.5
	GamepadSpeed    = 1.6
	GamepadDeadzone = 0.15
)

// Audio modes accepted by PULSE_AUDIO_MODE.
const (
	ModeMicrophone = "microphone"
	ModeSample     = "sample"
	ModeNone       = "none"
)

// Config is the process configuration. Every field has a documented default
// above and can be overridden from the environment.
type Config struct {
	Slug  string `env:"PULSE_SLUG" envDefault:"spectrum"`
	Title string `env:"PULSE_TITLE" envDefault:"Spectrum"`

	AudioMode      string        `env:"PULSE_AUDIO_MODE" envDefault:"microphone"`
	AcquireTimeout time.Duration `env:"PULSE_ACQUIRE_TIMEOUT" envDefault:"5s"`
	MicPermission  string        `env:"PULSE_MIC_PERMISSION" envDefault:"prompt"`
	FFTSize        int           `env:"PULSE_FFT_SIZE" envDefault:"256"`
	DemoVolume     float64       `env:"PULSE_DEMO_VOLUME" envDefault:"0.3"`

	SilenceThreshold float64       `env:"PULSE_SILENCE_THRESHOLD" envDefault:"8"`
	DefaultBins      int           `env:"PULSE_DEFAULT_BINS" envDefault:"128"`
	SynthPeriod      time.Duration `env:"PULSE_SYNTH_PERIOD" envDefault:"4s"`

	BandSmoothing   float64       `env:"PULSE_BAND_SMOOTHING" envDefault:"0.35"`
	BeatThreshold   float64       `env:"PULSE_BEAT_THRESHOLD" envDefault:"0.45"`
	BeatMinInterval time.Duration `env:"PULSE_BEAT_MIN_INTERVAL" envDefault:"150ms"`

	KeyboardSpeed   float64 `env:"PULSE_KEYBOARD_SPEED" envDefault:"1.2"`
	KeyboardBoost   float64 `env:"PULSE_KEYBOARD_BOOST" envDefault:"2.5"`
	GamepadSpeed    float64 `env:"PULSE_GAMEPAD_SPEED" envDefault:"1.6"`
	GamepadDeadzone float64 `env:"PULSE_GAMEPAD_DEADZONE" envDefault:"0.15"`

	ReducedMotion bool `env:"PULSE_REDUCED_MOTION" envDefault:"false"`

	WindowWidth  int `env:"PULSE_WINDOW_WIDTH" envDefault:"960"`
	WindowHeight int `env:"PULSE_WINDOW_HEIGHT" envDefault:"600"`

	LogLevel string `env:"PULSE_LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"PULSE_LOG_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the runtime cannot operate with.
func (c Config) Validate() error {
	switch c.AudioMode {
	case ModeMicrophone, ModeSample, ModeNone:
	default:
		return fmt.Errorf("audio mode %q: want %s, %s or %s", c.AudioMode, ModeMicrophone, ModeSample, ModeNone)
	}
	switch c.MicPermission {
	case "granted", "denied", "prompt":
	default:
		return fmt.Errorf("mic permission %q: want granted, denied or prompt", c.MicPermission)
	}
	// The FFT size must be a power of two so the bin count is exact.
	if c.FFTSize < 32 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size %d: want a power of two >= 32", c.FFTSize)
	}
	if c.AcquireTimeout <= 0 {
		return fmt.Errorf("acquire timeout %s: must be positive", c.AcquireTimeout)
	}
	if c.SilenceThreshold <= 0 {
		return fmt.Errorf("silence threshold %g: must be positive", c.SilenceThreshold)
	}
	if c.DefaultBins <= 0 {
		return fmt.Errorf("default bins %d: must be positive", c.DefaultBins)
	}
	if c.BandSmoothing <= 0 || c.BandSmoothing > 1 {
		return fmt.Errorf("band smoothing %g: want (0, 1]", c.BandSmoothing)
	}
	return nil
}
