package audio

import (
	"context"
	"sync"
)

// Mode selects where audio comes from.
type Mode string

const (
	ModeMicrophone Mode = "microphone"
	ModeSample     Mode = "sample"
)

// ContextState mirrors the run state of an audio source.
type ContextState int

const (
	StateRunning ContextState = iota
	StateSuspended
	StateClosed
)

func (s ContextState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Stream is a live mono sample feed.
type Stream interface {
	SampleRate() float64
	// Samples fills dst with the newest samples and reports how many were real.
	Samples(dst []float32) int
	Suspend() error
	Resume() error
	Close() error
}

// CaptureOptions configures a hardware capture request.
type CaptureOptions struct {
	SampleRate      float64
	Channels        int
	FramesPerBuffer int
}

// Capturer opens hardware input streams.
type Capturer interface {
	// Available reports whether capture is possible at all on this host.
	Available() bool
	Open(ctx context.Context, opts CaptureOptions) (Stream, error)
}

// PermissionState is the platform's answer for microphone access.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// PermissionQuerier reports the current microphone permission without prompting.
type PermissionQuerier interface {
	Query(ctx context.Context) (PermissionState, error)
}

// StaticPermission answers every query with the same state.
type StaticPermission PermissionState

func (p StaticPermission) Query(context.Context) (PermissionState, error) {
	return PermissionState(p), nil
}

// Source is an acquired audio feed plus its analyser. The caller owns it and
// must Release it.
type Source struct {
	mode     Mode
	stream   Stream
	analyser *Analyser

	mu    sync.Mutex
	state ContextState
	once  sync.Once
}

func newSource(mode Mode, stream Stream, opts AnalyserOptions) *Source {
	return &Source{
		mode:     mode,
		stream:   stream,
		analyser: NewAnalyser(stream, opts),
		state:    StateRunning,
	}
}

func (s *Source) Mode() Mode { return s.mode }

func (s *Source) Analyser() *Analyser { return s.analyser }

func (s *Source) State() ContextState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Suspend pauses the feed but keeps the device open for a quick Resume.
func (s *Source) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return nil
	}
	if err := s.stream.Suspend(); err != nil {
		return err
	}
	s.state = StateSuspended
	return nil
}

func (s *Source) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSuspended {
		return nil
	}
	if err := s.stream.Resume(); err != nil {
		return err
	}
	s.state = StateRunning
	return nil
}

// Release closes the underlying stream. Safe to call more than once.
func (s *Source) Release() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.state = StateClosed
		s.mu.Unlock()
		err = s.stream.Close()
	})
	return err
}
