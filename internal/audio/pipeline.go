package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"pulse/internal/logging"
)

// SourceOptions configures one RequestSource call.
type SourceOptions struct {
	Analyser AnalyserOptions
	Capture  CaptureOptions
}

// PipelineOptions wires the pipeline to its environment. Any field may be
// nil: no Capturer means microphone mode is unsupported, no Permissions means
// the permission state is unknown and capture is attempted.
type PipelineOptions struct {
	Permissions PermissionQuerier
	Capturer    Capturer
	Samples     *SampleCache
	Logger      *slog.Logger
}

// Pipeline acquires live or synthetic audio sources.
type Pipeline struct {
	perms    PermissionQuerier
	capturer Capturer
	samples  *SampleCache
	log      *slog.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	samples := opts.Samples
	if samples == nil {
		samples = DefaultSamples
	}
	return &Pipeline{
		perms:    opts.Permissions,
		capturer: opts.Capturer,
		samples:  samples,
		log:      logging.Or(opts.Logger),
	}
}

type acquired struct {
	stream Stream
	err    error
}

// RequestSource acquires a source for mode, failing with an *AccessError
// after timeout. A timeout <= 0 waits as long as ctx allows.
func (p *Pipeline) RequestSource(ctx context.Context, mode Mode, timeout time.Duration, opts SourceOptions) (*Source, error) {
	var acquire func(context.Context) (Stream, error)
	switch mode {
	case ModeMicrophone:
		if p.capturer == nil || !p.capturer.Available() {
			return nil, newAccessError(ReasonUnsupported, "audio capture is not supported on this device", nil)
		}
		// A denied permission is final; capturing would only re-prompt.
		if p.perms != nil {
			state, err := p.perms.Query(ctx)
			if err != nil {
				p.log.Debug("permission query failed", "error", err)
			} else if state == PermissionDenied {
				return nil, newAccessError(ReasonDenied, "microphone permission denied", nil)
			}
		}
		acquire = func(ctx context.Context) (Stream, error) {
			s, err := p.capturer.Open(ctx, opts.Capture)
			if err != nil {
				return nil, classify(err)
			}
			return s, nil
		}
	case ModeSample:
		acquire = func(context.Context) (Stream, error) {
			s, err := p.samples.Acquire()
			if err != nil {
				return nil, newAccessError(ReasonUnavailable, "sample stream unavailable", err)
			}
			return s, nil
		}
	default:
		return nil, fmt.Errorf("request source: unknown mode %q", mode)
	}

	stream, err := p.race(ctx, timeout, acquire)
	if err != nil {
		return nil, err
	}
	p.log.Debug("audio source acquired", "mode", mode, "sample_rate", stream.SampleRate())
	return newSource(mode, stream, opts.Analyser), nil
}

// race runs acquire against the timeout and ctx. The loser's result is
// drained in the background and any stream it produced is closed.
func (p *Pipeline) race(ctx context.Context, timeout time.Duration, acquire func(context.Context) (Stream, error)) (Stream, error) {
	done := make(chan acquired, 1)
	go func() {
		s, err := acquire(ctx)
		done <- acquired{stream: s, err: err}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case r := <-done:
		return r.stream, r.err
	case <-expired:
		go p.discard(done)
		return nil, newAccessError(ReasonTimeout, fmt.Sprintf("audio source not ready after %s", timeout), nil)
	case <-ctx.Done():
		go p.discard(done)
		return nil, fmt.Errorf("request source: %w", ctx.Err())
	}
}

func (p *Pipeline) discard(done <-chan acquired) {
	r := <-done
	if r.stream == nil {
		return
	}
	if err := r.stream.Close(); err != nil {
		p.log.Warn("close late audio source", "error", err)
		return
	}
	p.log.Debug("late audio source discarded")
}

// classify maps a capture failure onto the access taxonomy.
func classify(err error) *AccessError {
	var ae *AccessError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, ErrCaptureDenied) || errors.Is(err, fs.ErrPermission) {
		return newAccessError(ReasonDenied, "microphone access denied", err)
	}
	return newAccessError(ReasonUnavailable, "microphone unavailable", err)
}
