//go:build !android

package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"pulse/internal/audio"
)

// Microphone captures the default input device through PortAudio.
type Microphone struct {
	mu      sync.Mutex
	inited  bool
	initErr error
}

func NewMicrophone() *Microphone {
	return &Microphone{}
}

func (m *Microphone) init() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inited {
		m.inited = true
		if err := portaudio.Initialize(); err != nil {
			m.initErr = fmt.Errorf("portaudio init: %w", err)
		}
	}
	return m.initErr
}

// Available reports whether an input device exists.
func (m *Microphone) Available() bool {
	if err := m.init(); err != nil {
		return false
	}
	dev, err := portaudio.DefaultInputDevice()
	return err == nil && dev != nil && dev.MaxInputChannels > 0
}

// Open starts a mono capture stream on the default input device.
func (m *Microphone) Open(ctx context.Context, opts audio.CaptureOptions) (audio.Stream, error) {
	if err := m.init(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("default input device: %w", err)
	}

	params := portaudio.LowLatencyParameters(dev, nil)
	params.Input.Channels = 1
	if opts.SampleRate > 0 {
		params.SampleRate = opts.SampleRate
	}
	if opts.FramesPerBuffer > 0 {
		params.FramesPerBuffer = opts.FramesPerBuffer
	}

	ms := &micStream{tap: audio.NewTap(4096), rate: params.SampleRate}
	stream, err := portaudio.OpenStream(params, ms.process)
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	ms.stream = stream
	return ms, nil
}

// Close shuts PortAudio down. Streams must be closed first.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inited || m.initErr != nil {
		return nil
	}
	m.inited = false
	return portaudio.Terminate()
}

type micStream struct {
	stream *portaudio.Stream
	tap    *audio.Tap
	rate   float64
	once   sync.Once
}

func (s *micStream) process(in []float32) {
	s.tap.Write(in)
}

func (s *micStream) SampleRate() float64 { return s.rate }

func (s *micStream) Samples(dst []float32) int { return s.tap.Latest(dst) }

func (s *micStream) Suspend() error { return s.stream.Stop() }

func (s *micStream) Resume() error { return s.stream.Start() }

func (s *micStream) Close() error {
	var err error
	s.once.Do(func() {
		if stopErr := s.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := s.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		s.tap.Reset()
	})
	return err
}
