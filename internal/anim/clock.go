package anim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pulse/internal/audio"
	"pulse/internal/logging"
)

var (
	// ErrNoRenderTarget is returned by Start when there is nothing to drive.
	ErrNoRenderTarget = errors.New("no render target")
	// ErrDisposed is returned by Start when the clock was disposed while
	// it was waiting on the renderer or the audio source.
	ErrDisposed = errors.New("animation clock disposed")
)

// Renderer is the host surface that paces frames. The callback installed
// with SetFrameCallback runs once per host frame until cleared; hosts must
// not invoke it from inside SetFrameCallback.
type Renderer interface {
	SetFrameCallback(fn func())
	ClearFrameCallback()
}

// Readier is implemented by renderers that need setup before the first frame.
type Readier interface {
	Ready(ctx context.Context) error
}

// AudioAttacher is implemented by renderers that route the source into
// their scene, e.g. to play it back.
type AudioAttacher interface {
	AttachAudio(src *audio.Source)
}

// SourceRequester acquires audio; *audio.Pipeline implements it.
type SourceRequester interface {
	RequestSource(ctx context.Context, mode audio.Mode, timeout time.Duration, opts audio.SourceOptions) (*audio.Source, error)
}

// Context is handed to every frame callback. Elapsed is refreshed before each
// call; callbacks must treat the rest as read-only.
type Context struct {
	Session  Renderer
	Analyser FrequencySource
	Source   *audio.Source
	Elapsed  float64 // seconds since Start
}

// FrameFunc renders one frame.
type FrameFunc func(ctx *Context)

// AudioOptions selects the audio feed for Start. An empty Mode runs without audio.
type AudioOptions struct {
	Mode    audio.Mode
	Timeout time.Duration
	Source  audio.SourceOptions
}

type Options struct {
	Pipeline      SourceRequester
	Now           func() time.Duration // monotonic; defaults to time since construction
	ReducedMotion bool
	Logger        *slog.Logger
}

// Clock drives a session's frame callback and keeps its audio source in step
// with page visibility and the reduced-motion preference.
type Clock struct {
	mu       sync.Mutex
	renderer Renderer
	pipeline SourceRequester
	now      func() time.Duration
	log      *slog.Logger

	fn        FrameFunc
	ctx       *Context
	audio     AudioOptions
	start     time.Duration
	visible   bool
	reduced   bool
	installed bool
	released  bool // source dropped while hidden; reacquire on show
	disposed  bool
}

func NewClock(r Renderer, opts Options) *Clock {
	now := opts.Now
	if now == nil {
		base := time.Now()
		now = func() time.Duration { return time.Since(base) }
	}
	return &Clock{
		renderer: r,
		pipeline: opts.Pipeline,
		now:      now,
		log:      logging.Or(opts.Logger),
		visible:  true,
		reduced:  opts.ReducedMotion,
	}
}

// Start waits for the renderer, acquires audio and installs fn as the
// per-frame driver. Audio failures are returned to the caller, which
// decides on a fallback.
func (c *Clock) Start(ctx context.Context, fn FrameFunc, opts AudioOptions) (*Context, error) {
	if c.renderer == nil {
		return nil, ErrNoRenderTarget
	}
	if r, ok := c.renderer.(Readier); ok {
		if err := r.Ready(ctx); err != nil {
			return nil, fmt.Errorf("renderer ready: %w", err)
		}
	}

	actx := &Context{Session: c.renderer}
	if opts.Mode != "" {
		src, err := c.acquire(ctx, opts)
		if err != nil {
			return nil, err
		}
		actx.Source = src
		actx.Analyser = src.Analyser()
		if a, ok := c.renderer.(AudioAttacher); ok {
			a.AttachAudio(src)
		}
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		if actx.Source != nil {
			actx.Source.Release()
		}
		return nil, ErrDisposed
	}
	prev := c.ctx
	c.fn = fn
	c.ctx = actx
	c.audio = opts
	c.start = c.now()
	c.released = false
	static := c.reduced
	if c.allowed() {
		c.install()
	}
	c.mu.Unlock()

	// A restart replaces the previous source.
	if prev != nil && prev.Source != nil {
		if err := prev.Source.Release(); err != nil {
			c.log.Warn("release previous audio", "error", err)
		}
	}
	if static {
		c.renderStatic()
	}
	return actx, nil
}

func (c *Clock) acquire(ctx context.Context, opts AudioOptions) (*audio.Source, error) {
	if c.pipeline == nil {
		return nil, fmt.Errorf("acquire %s audio: no pipeline", opts.Mode)
	}
	return c.pipeline.RequestSource(ctx, opts.Mode, opts.Timeout, opts.Source)
}

// allowed reports whether frames may run. Callers hold c.mu.
func (c *Clock) allowed() bool {
	return c.ctx != nil && c.visible && !c.reduced && !c.disposed
}

func (c *Clock) install() {
	if c.installed {
		return
	}
	c.installed = true
	c.renderer.SetFrameCallback(c.frame)
}

func (c *Clock) uninstall() {
	if !c.installed {
		return
	}
	c.installed = false
	c.renderer.ClearFrameCallback()
}

func (c *Clock) frame() {
	c.mu.Lock()
	if !c.installed || c.ctx == nil {
		c.mu.Unlock()
		return
	}
	c.ctx.Elapsed = (c.now() - c.start).Seconds()
	fn, actx := c.fn, c.ctx
	c.mu.Unlock()
	fn(actx)
}

func (c *Clock) renderStatic() {
	c.mu.Lock()
	if c.ctx == nil || c.disposed {
		c.mu.Unlock()
		return
	}
	c.ctx.Elapsed = (c.now() - c.start).Seconds()
	fn, actx := c.fn, c.ctx
	c.mu.Unlock()
	fn(actx)
}

// Running reports whether the per-frame driver is installed.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.installed
}

// SetVisible reacts to the host being hidden or shown. Hiding stops frames
// and suspends a running source, releasing it if it cannot be suspended.
// Showing resumes or reacquires the source, then restarts frames if allowed.
func (c *Clock) SetVisible(ctx context.Context, visible bool) error {
	c.mu.Lock()
	if c.disposed || c.visible == visible {
		c.visible = visible
		c.mu.Unlock()
		return nil
	}
	c.visible = visible
	if !visible {
		c.uninstall()
		c.hideAudio()
		c.mu.Unlock()
		return nil
	}

	if c.ctx != nil && c.ctx.Source != nil && c.ctx.Source.State() == audio.StateSuspended {
		if err := c.ctx.Source.Resume(); err != nil {
			c.log.Warn("resume audio failed, reacquiring", "error", err)
			c.dropSource()
		}
	}
	reacquire := c.released && c.audio.Mode != ""
	opts := c.audio
	c.mu.Unlock()

	var err error
	if reacquire {
		var src *audio.Source
		src, err = c.acquire(ctx, opts)
		c.mu.Lock()
		switch {
		case err != nil:
			c.log.Warn("reacquire audio failed", "mode", opts.Mode, "error", err)
		case c.disposed || c.ctx == nil:
			src.Release()
		default:
			c.ctx.Source = src
			c.ctx.Analyser = src.Analyser()
			c.released = false
			if a, ok := c.renderer.(AudioAttacher); ok {
				a.AttachAudio(src)
			}
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	if c.allowed() {
		c.install()
	}
	c.mu.Unlock()
	return err
}

// hideAudio suspends the source, or releases it when it is not running.
// Callers hold c.mu.
func (c *Clock) hideAudio() {
	if c.ctx == nil || c.ctx.Source == nil {
		return
	}
	src := c.ctx.Source
	if src.State() == audio.StateRunning {
		err := src.Suspend()
		if err == nil {
			return
		}
		c.log.Warn("suspend audio failed, releasing", "error", err)
	}
	c.dropSource()
}

// dropSource releases the source and remembers to reacquire it. Callers hold c.mu.
func (c *Clock) dropSource() {
	if c.ctx == nil || c.ctx.Source == nil {
		return
	}
	if err := c.ctx.Source.Release(); err != nil {
		c.log.Warn("release audio", "error", err)
	}
	c.ctx.Source = nil
	c.ctx.Analyser = nil
	c.released = true
}

// SetReducedMotion stops frames and renders a single static one when on,
// and restarts frames on the existing context when off.
func (c *Clock) SetReducedMotion(on bool) {
	c.mu.Lock()
	c.reduced = on
	if on {
		c.uninstall()
		c.mu.Unlock()
		c.renderStatic()
		return
	}
	if c.allowed() {
		c.install()
	}
	c.mu.Unlock()
}

// Stop removes the per-frame driver. The audio source stays open.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.uninstall()
}

// ReleaseAudio closes the audio source, if any.
func (c *Clock) ReleaseAudio() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil || c.ctx.Source == nil {
		return
	}
	if err := c.ctx.Source.Release(); err != nil {
		c.log.Warn("release audio", "error", err)
	}
	c.ctx.Source = nil
	c.ctx.Analyser = nil
	c.released = false
}

// Dispose stops frames and releases audio. The clock cannot be restarted.
func (c *Clock) Dispose() {
	c.Stop()
	c.ReleaseAudio()
	c.mu.Lock()
	c.disposed = true
	c.mu.Unlock()
}
