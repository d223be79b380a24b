//go:build android

package device

import (
	"context"

	"pulse/internal/audio"
)

// Microphone is not wired on android; the pipeline reports it unsupported.
type Microphone struct{}

func NewMicrophone() *Microphone { return &Microphone{} }

func (m *Microphone) Available() bool { return false }

func (m *Microphone) Open(context.Context, audio.CaptureOptions) (audio.Stream, error) {
	return nil, audio.ErrUnsupported
}

func (m *Microphone) Close() error { return nil }
