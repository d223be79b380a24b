package audio

import (
	"io"
	"sync"
	"time"
)

// Output plays a float32LE stereo stream, e.g. a speaker device.
type Output interface {
	Play(r io.Reader) (Playback, error)
}

// Playback controls one playing stream.
type Playback interface {
	Play()
	Pause()
	Close() error
}

// SampleRate of the demo stream.
const SampleRate = 44100

// SampleCache hands out the process-wide demo stream. The stream is created
// on first Acquire and torn down when the last holder closes it.
type SampleCache struct {
	mu     sync.Mutex
	refs   int
	paused int // holders that suspended their handle
	shared *demoStream
	output Output
	seed   uint64
	now    func() time.Time
}

// DefaultSamples is the shared cache used when a Pipeline is built without one.
var DefaultSamples = NewSampleCache(nil)

func NewSampleCache(output Output) *SampleCache {
	return &SampleCache{output: output, seed: 0x5A3D1E, now: time.Now}
}

// SetOutput routes future demo streams to output. A stream already playing
// keeps its current route.
func (c *SampleCache) SetOutput(output Output) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.output = output
}

// Refs reports how many holders currently share the demo stream.
func (c *SampleCache) Refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}

// Acquire returns a handle on the shared demo stream. Closing the handle
// more than once releases only one reference.
func (c *SampleCache) Acquire() (Stream, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shared == nil {
		s := newDemoStream(NewDemoTrack(SampleRate, c.seed), c.now)
		if c.output != nil {
			pb, err := c.output.Play(s)
			if err != nil {
				return nil, err
			}
			s.playback = pb
		}
		c.shared = s
	}
	c.refs++
	if err := c.syncLocked(); err != nil {
		c.refs--
		return nil, err
	}
	return &sampleHandle{demoStream: c.shared, cache: c}, nil
}

// syncLocked pauses the shared stream while every holder is suspended and
// runs it otherwise.
func (c *SampleCache) syncLocked() error {
	if c.shared == nil || c.refs == 0 {
		return nil
	}
	if c.paused >= c.refs {
		return c.shared.Suspend()
	}
	return c.shared.Resume()
}

func (c *SampleCache) setPaused(h *sampleHandle, paused bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h.closed || h.paused == paused {
		return nil
	}
	h.paused = paused
	if paused {
		c.paused++
	} else {
		c.paused--
	}
	return c.syncLocked()
}

func (c *SampleCache) release(h *sampleHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	h.closed = true
	if h.paused {
		c.paused--
	}
	c.refs--
	if c.shared == nil {
		return nil
	}
	if c.refs > 0 {
		return c.syncLocked()
	}
	s := c.shared
	c.shared = nil
	c.refs, c.paused = 0, 0
	return s.close()
}

// sampleHandle is one holder's view of the shared demo stream. Suspending
// a handle pauses the stream only once no other holder is running.
type sampleHandle struct {
	*demoStream
	cache *SampleCache
	once  sync.Once

	// guarded by cache.mu
	paused bool
	closed bool
}

func (h *sampleHandle) Suspend() error { return h.cache.setPaused(h, true) }

func (h *sampleHandle) Resume() error { return h.cache.setPaused(h, false) }

func (h *sampleHandle) Close() error {
	var err error
	h.once.Do(func() { err = h.cache.release(h) })
	return err
}

// demoStream feeds the demo track to an optional speaker and the analyser
// tap. Without a speaker it renders on demand, paced by the wall clock.
type demoStream struct {
	mu        sync.Mutex
	track     *DemoTrack
	tap       *Tap
	playback  Playback
	now       func() time.Time
	last      time.Time
	suspended bool
	scratch   []float32
}

func newDemoStream(track *DemoTrack, now func() time.Time) *demoStream {
	return &demoStream{
		track: track,
		tap:   NewTap(4096),
		now:   now,
		last:  now(),
	}
}

func (s *demoStream) SampleRate() float64 { return SampleRate }

// Read implements io.Reader for the speaker: float32LE stereo frames.
func (s *demoStream) Read(p []byte) (int, error) {
	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mono := s.grow(frames)
	s.track.Render(mono)
	for i, v := range mono {
		putStereoF32(p, i, v)
	}
	s.tap.Write(mono)
	return frames * 8, nil
}

func (s *demoStream) Samples(dst []float32) int {
	s.mu.Lock()
	if s.playback == nil && !s.suspended {
		s.advance()
	}
	s.mu.Unlock()
	return s.tap.Latest(dst)
}

// advance renders the samples that would have played since the last call.
func (s *demoStream) advance() {
	now := s.now()
	due := int(now.Sub(s.last).Seconds() * SampleRate)
	if due <= 0 {
		return
	}
	s.last = now
	due = min(due, len(s.tap.buf))
	mono := s.grow(due)
	s.track.Render(mono)
	s.tap.Write(mono)
}

func (s *demoStream) grow(n int) []float32 {
	if cap(s.scratch) < n {
		s.scratch = make([]float32, n)
	}
	return s.scratch[:n]
}

func (s *demoStream) Suspend() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suspended {
		return nil
	}
	s.suspended = true
	if s.playback != nil {
		s.playback.Pause()
	}
	return nil
}

func (s *demoStream) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.suspended {
		return nil
	}
	s.suspended = false
	s.last = s.now()
	if s.playback != nil {
		s.playback.Play()
	}
	return nil
}

func (s *demoStream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tap.Reset()
	if s.playback != nil {
		err := s.playback.Close()
		s.playback = nil
		return err
	}
	return nil
}
