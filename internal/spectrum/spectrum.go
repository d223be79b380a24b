// Package spectrum is the built-in visual session: a bar spectrum of the
// audio feed with a marker following the merged input.
package spectrum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pulse/internal/anim"
	"pulse/internal/audio"
	"pulse/internal/config"
	"pulse/internal/input"
	"pulse/internal/logging"
	"pulse/internal/signal"
)

// Frame is everything the host draws for one tick. Bins is owned by the
// session and only valid during Draw.
type Frame struct {
	Bins    []uint8
	Energy  signal.BandEnergy
	Beat    bool
	Level   float64
	Input   input.State
	Elapsed float64
	Mode    audio.Mode
	Status  string
}

// Host is the renderer collaborator: it paces frames and draws them.
type Host interface {
	anim.Renderer
	Draw(f *Frame)
}

type Options struct {
	Config   config.Config
	Pipeline anim.SourceRequester
	Input    *input.Aggregator
	Now      func() time.Duration
	Logger   *slog.Logger
}

// Session wires the animation clock, frequency feed, beat tracker and input
// aggregator into one disposable unit.
type Session struct {
	host    Host
	cfg     config.Config
	clock   *anim.Clock
	feed    *anim.FrequencyFeed
	tracker *signal.Tracker
	input   *input.Aggregator
	ownsIn  bool
	log     *slog.Logger

	mu     sync.Mutex
	frame  Frame
	status string
	mode   audio.Mode

	disposeOnce sync.Once
}

func New(host Host, opts Options) *Session {
	cfg := opts.Config
	log := logging.Or(opts.Logger)
	agg, owns := opts.Input, false
	if agg == nil {
		agg, owns = input.NewAggregator(input.Options{Logger: log}), true
	}
	return &Session{
		host: host,
		cfg:  cfg,
		clock: anim.NewClock(host, anim.Options{
			Pipeline:      opts.Pipeline,
			Now:           opts.Now,
			ReducedMotion: cfg.ReducedMotion,
			Logger:        log,
		}),
		feed: anim.NewFrequencyFeed(cfg.SilenceThreshold, cfg.DefaultBins, signal.NewGenerator(cfg.SynthPeriod)),
		tracker: signal.NewTracker(signal.TrackerOptions{
			Smoothing:       cfg.BandSmoothing,
			BeatThreshold:   cfg.BeatThreshold,
			MinBeatInterval: cfg.BeatMinInterval,
		}),
		input:  agg,
		ownsIn: owns,
		log:    log,
	}
}

// Start runs the clock with the configured audio mode. A failed microphone
// falls back to the demo stream, and a failed demo stream to the synthetic
// signal alone; the reason is kept as status text.
func (s *Session) Start(ctx context.Context) error {
	modes := fallbackChain(s.cfg.AudioMode)
	var lastErr error
	for _, mode := range modes {
		opts := anim.AudioOptions{
			Mode:    mode,
			Timeout: s.cfg.AcquireTimeout,
			Source: audio.SourceOptions{
				Analyser: audio.AnalyserOptions{FFTSize: s.cfg.FFTSize},
				Capture:  audio.CaptureOptions{SampleRate: config.SampleRate, Channels: 1},
			},
		}
		_, err := s.clock.Start(ctx, s.render, opts)
		if err == nil {
			s.mu.Lock()
			s.mode = mode
			if lastErr == nil {
				s.status = ""
			}
			s.mu.Unlock()
			return nil
		}
		reason := audio.ReasonOf(err)
		if reason == "" {
			return fmt.Errorf("start %s session: %w", s.cfg.Slug, err)
		}
		s.log.Warn("audio source failed, falling back", "mode", mode, "reason", reason, "error", err)
		s.mu.Lock()
		s.status = Guidance(reason)
		s.mu.Unlock()
		lastErr = err
	}
	return fmt.Errorf("start %s session: %w", s.cfg.Slug, lastErr)
}

// fallbackChain lists the modes to try in order. The empty mode runs on the
// synthetic signal only and cannot fail on audio.
func fallbackChain(mode string) []audio.Mode {
	switch mode {
	case config.ModeMicrophone:
		return []audio.Mode{audio.ModeMicrophone, audio.ModeSample, ""}
	case config.ModeSample:
		return []audio.Mode{audio.ModeSample, ""}
	}
	return []audio.Mode{""}
}

// Guidance maps an acquisition failure onto status text.
func Guidance(reason audio.Reason) string {
	switch reason {
	case audio.ReasonUnsupported:
		return "Audio capture is not supported here. Playing the demo track instead."
	case audio.ReasonDenied:
		return "Microphone access was denied. Allow it in your system settings to react to live sound."
	case audio.ReasonTimeout:
		return "The microphone did not respond in time. Playing the demo track instead."
	case audio.ReasonUnavailable:
		return "No microphone could be opened. Check that one is connected."
	}
	return ""
}

func (s *Session) render(ctx *anim.Context) {
	bins := s.feed.Snapshot(ctx)
	raw := signal.BandsFromBins(bins)
	reading := s.tracker.Update(raw, time.Duration(ctx.Elapsed*float64(time.Second)))

	s.mu.Lock()
	f := &s.frame
	f.Bins = bins
	f.Energy = reading.Energy
	f.Beat = reading.IsBeat
	f.Level = 0
	if ctx.Source != nil {
		f.Level = ctx.Source.Analyser().Level()
	}
	f.Input = s.input.State()
	f.Elapsed = ctx.Elapsed
	f.Mode = s.mode
	f.Status = s.status
	s.mu.Unlock()

	s.host.Draw(f)
}

// Status returns the current guidance text, empty when audio is healthy.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Mode returns the audio mode the session ended up running with.
func (s *Session) Mode() audio.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Input() *input.Aggregator { return s.input }

func (s *Session) Clock() *anim.Clock { return s.clock }

func (s *Session) SetVisible(ctx context.Context, visible bool) error {
	if !visible {
		s.tracker.Reset()
	}
	return s.clock.SetVisible(ctx, visible)
}

func (s *Session) SetReducedMotion(on bool) {
	s.clock.SetReducedMotion(on)
}

// Dispose tears down animation, then audio, then input. An aggregator
// passed in through Options belongs to the caller and is only reset.
func (s *Session) Dispose() error {
	s.disposeOnce.Do(func() {
		s.clock.Stop()
		s.clock.ReleaseAudio()
		s.clock.Dispose()
		if s.ownsIn {
			s.input.Dispose()
		} else {
			s.input.Reset()
		}
		s.log.Debug("spectrum session disposed", "slug", s.cfg.Slug)
	})
	return nil
}

// ErrorType classifies a start failure for session error events.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, anim.ErrNoRenderTarget):
		return "render"
	case audio.ReasonOf(err) != "":
		return "audio"
	}
	return "start"
}
