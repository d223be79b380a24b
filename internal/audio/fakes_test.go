package audio

import (
	"context"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

// toneStream is a Stream producing a fixed sine tone.
type toneStream struct {
	rate   float64
	freq   float64
	amp    float64
	closed atomic.Int32
	mu     sync.Mutex
	paused bool
}

func (s *toneStream) SampleRate() float64 { return s.rate }

func (s *toneStream) Samples(dst []float32) int {
	for i := range dst {
		dst[i] = float32(s.amp * math.Sin(2*math.Pi*s.freq*float64(i)/s.rate))
	}
	return len(dst)
}

func (s *toneStream) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
	return nil
}

func (s *toneStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
	return nil
}

func (s *toneStream) Close() error {
	s.closed.Add(1)
	return nil
}

// fakeCapturer hands out toneStreams, optionally blocking until released.
type fakeCapturer struct {
	available bool
	err       error
	block     chan struct{}
	calls     atomic.Int32
	opened    chan *toneStream
}

func (c *fakeCapturer) Available() bool { return c.available }

func (c *fakeCapturer) Open(ctx context.Context, _ CaptureOptions) (Stream, error) {
	c.calls.Add(1)
	if c.block != nil {
		<-c.block
	}
	if c.err != nil {
		return nil, c.err
	}
	s := &toneStream{rate: 8000, freq: 1000, amp: 0.5}
	if c.opened != nil {
		c.opened <- s
	}
	return s, nil
}

type failingPermission struct{}

func (failingPermission) Query(context.Context) (PermissionState, error) {
	return "", context.DeadlineExceeded
}

type fakeOutput struct {
	plays  int
	closes int
	paused bool
}

func (o *fakeOutput) Play(io.Reader) (Playback, error) {
	o.plays++
	return &fakePlayback{out: o}, nil
}

type fakePlayback struct{ out *fakeOutput }

func (p *fakePlayback) Play()  { p.out.paused = false }
func (p *fakePlayback) Pause() { p.out.paused = true }
func (p *fakePlayback) Close() error {
	p.out.closes++
	return nil
}
