package device

import (
	"fmt"
	"io"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"pulse/internal/audio"
)

const (
	channelCount = 2
	readyTimeout = 2 * time.Second
)

// Speaker plays float32LE stereo streams on the default output device.
// oto allows a single context per process, so create one Speaker only.
type Speaker struct {
	ctx    *oto.Context
	ready  chan struct{}
	volume float64
}

func NewSpeaker(sampleRate int, volume float64) (*Speaker, error) {
	ctx, ready, err := oto.NewContext(sampleRate, channelCount, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("oto context: %w", err)
	}
	return &Speaker{ctx: ctx, ready: ready, volume: volume}, nil
}

// Play starts r once the device is ready.
func (s *Speaker) Play(r io.Reader) (audio.Playback, error) {
	select {
	case <-s.ready:
	case <-time.After(readyTimeout):
		return nil, fmt.Errorf("oto context not ready after %s", readyTimeout)
	}
	player := s.ctx.NewPlayer(r)
	player.SetVolume(s.volume)
	player.Play()
	return player, nil
}
