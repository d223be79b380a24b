//go:build android

package platform

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/mobile/app"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"
	"golang.org/x/mobile/gl"

	"pulse/internal/config"
	"pulse/internal/input"
	"pulse/internal/platform/frames"
	"pulse/internal/session"
	"pulse/internal/spectrum"
)

type mobileHost struct {
	frames.Pacer

	readyOnce sync.Once
	glReady   chan struct{}

	mu     sync.Mutex
	last   spectrum.Frame
	width  int
	height int
}

func newMobileHost() *mobileHost {
	return &mobileHost{glReady: make(chan struct{})}
}

// Ready blocks until the first GL context is handed to the app.
func (h *mobileHost) Ready(ctx context.Context) error {
	select {
	case <-h.glReady:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *mobileHost) markReady() {
	h.readyOnce.Do(func() { close(h.glReady) })
}

func (h *mobileHost) Draw(f *spectrum.Frame) {
	h.mu.Lock()
	bins := append(h.last.Bins[:0], f.Bins...)
	h.last = *f
	h.last.Bins = bins
	h.mu.Unlock()
}

func (h *mobileHost) setSize(w, hgt int) {
	h.mu.Lock()
	h.width, h.height = w, hgt
	h.mu.Unlock()
}

// paint draws the last frame with scissored clears; no shader needed.
func (h *mobileHost) paint(glctx gl.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.width <= 0 || h.height <= 0 {
		return
	}
	f := &h.last
	glctx.Viewport(0, 0, h.width, h.height)
	glctx.Disable(gl.SCISSOR_TEST)
	bg := float32(0.04 + 0.10*f.Energy.Bass)
	if f.Beat {
		bg += 0.06
	}
	glctx.ClearColor(bg*0.6, bg*0.5, bg, 1)
	glctx.Clear(gl.COLOR_BUFFER_BIT)

	glctx.Enable(gl.SCISSOR_TEST)
	if n := len(f.Bins); n > 0 {
		w := float32(h.width) / float32(n)
		for i, b := range f.Bins {
			t := float32(i) / float32(n)
			barH := int32(float32(b) / 255 * float32(h.height))
			if barH <= 0 {
				continue
			}
			glctx.Scissor(int32(float32(i)*w), 0, max(int32(w*0.8), 1), barH)
			glctx.ClearColor(0.2+0.8*(1-t), 0.3+0.5*float32(f.Energy.Mid), 0.4+0.6*t, 1)
			glctx.Clear(gl.COLOR_BUFFER_BIT)
		}
	}
	if in := f.Input; in.HasPrimary {
		const size = 40
		x := int32((in.Primary.X + 1) / 2 * float64(h.width))
		y := int32((in.Primary.Y + 1) / 2 * float64(h.height))
		glctx.Scissor(x-size/2, y-size/2, size, size)
		if in.IsPressed {
			glctx.ClearColor(1, 0.6, 0.2, 1)
		} else {
			glctx.ClearColor(0.9, 0.95, 1, 1)
		}
		glctx.Clear(gl.COLOR_BUFFER_BIT)
	}
	glctx.Disable(gl.SCISSOR_TEST)
}

// Run drives the spectrum session from the android app loop. Mounting runs
// on its own goroutine because it waits for the first GL context, which
// only this loop can deliver.
func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	pipeline, closeAudio := newPipeline(cfg, log)
	defer closeAudio()

	host := newMobileHost()
	rt := session.NewRuntime(log)
	agg := input.NewAggregator(inputOptions(cfg, host, nil, log))

	var sess atomic.Pointer[spectrum.Session]
	go func() {
		s, err := spectrum.Mount(ctx, rt, host, spectrum.Options{
			Config:   cfg,
			Pipeline: pipeline,
			Input:    agg,
			Logger:   log,
		}, nil)
		if err != nil {
			log.Error("mount session", "error", err)
			return
		}
		sess.Store(s)
	}()

	app.Main(func(a app.App) {
		var glctx gl.Context
		start := time.Now()

		for e := range a.Events() {
			switch e := a.Filter(e).(type) {
			case lifecycle.Event:
				switch e.Crosses(lifecycle.StageVisible) {
				case lifecycle.CrossOn:
					c, ok := e.DrawContext.(gl.Context)
					if !ok {
						continue
					}
					glctx = c
					host.markReady()
					if s := sess.Load(); s != nil {
						// Showing may reacquire audio; keep the loop responsive.
						go func() {
							if err := s.SetVisible(ctx, true); err != nil {
								log.Warn("resume session", "error", err)
							}
						}()
					}
					a.Send(paint.Event{})
				case lifecycle.CrossOff:
					glctx = nil
					agg.Reset()
					if s := sess.Load(); s != nil {
						s.SetVisible(ctx, false)
					}
				}
				if e.To == lifecycle.StageDead {
					rt.Dispose("unload")
					agg.Dispose()
					return
				}

			case size.Event:
				host.setSize(e.WidthPx, e.HeightPx)
				agg.SetBounds(input.Rect{W: float64(e.WidthPx), H: float64(e.HeightPx)})

			case touch.Event:
				agg.HandleTouch(e)

			case key.Event:
				agg.HandleKey(e)

			case paint.Event:
				if glctx == nil || e.External {
					continue
				}
				host.Tick(time.Since(start))
				host.paint(glctx)
				a.Publish()
				a.Send(paint.Event{})
			}
		}
	})
	return nil
}
