//go:build !android

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"pulse/internal/config"
	"pulse/internal/input"
	"pulse/internal/platform/frames"
	"pulse/internal/session"
	"pulse/internal/spectrum"
)

// idleWait bounds how long the loop blocks on events while nothing animates.
const idleWait = 0.25 // seconds

type desktopHost struct {
	frames.Pacer
	window *glfw.Window
	log    *slog.Logger
	title  string

	readyOnce sync.Once
	readyErr  error
	scene     *barScene

	last   spectrum.Frame
	status string
	dirty  bool
}

// Ready initializes OpenGL on the window's context. It must run on the
// main thread.
func (h *desktopHost) Ready(context.Context) error {
	h.readyOnce.Do(func() {
		if err := gl.Init(); err != nil {
			h.readyErr = fmt.Errorf("gl init: %w", err)
			return
		}
		h.scene, h.readyErr = newBarScene()
	})
	return h.readyErr
}

// Draw renders f immediately and keeps a copy for window refreshes.
func (h *desktopHost) Draw(f *spectrum.Frame) {
	bins := append(h.last.Bins[:0], f.Bins...)
	h.last = *f
	h.last.Bins = bins
	if f.Status != h.status {
		h.status = f.Status
		title := h.title
		if f.Status != "" {
			title += " | " + f.Status
		}
		h.window.SetTitle(title)
	}
	h.render()
}

func (h *desktopHost) render() {
	if h.scene == nil {
		return
	}
	fbW, fbH := h.window.GetFramebufferSize()
	if fbW <= 0 || fbH <= 0 {
		return
	}
	h.scene.draw(&h.last, fbW, fbH)
	h.dirty = true
}

func (h *desktopHost) destroy() {
	if h.scene != nil {
		h.scene.destroy()
		h.scene = nil
	}
}

// Run opens the window, mounts the spectrum session and drives it until
// the window closes or ctx is done.
func Run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	runtime.LockOSThread()

	window, err := initWindow(cfg)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	pipeline, closeAudio := newPipeline(cfg, log)
	defer closeAudio()

	host := &desktopHost{window: window, log: log, title: cfg.Title}
	defer host.destroy()

	rt := session.NewRuntime(log)
	defer rt.Dispose("unload")
	rt.OnError(func(ev session.ErrorEvent) {
		log.Error("session failed to start", "slug", ev.Descriptor.Slug, "type", ev.Error.Type, "error", ev.Error.Err)
	})

	agg := input.NewAggregator(inputOptions(cfg, host, &gamepads{}, log))
	defer agg.Dispose()
	var sess *spectrum.Session
	reduced := cfg.ReducedMotion
	bindInput(window, agg, func(k glfw.Key) bool {
		switch k {
		case glfw.KeyEscape:
			if !rt.Back() {
				window.SetShouldClose(true)
			}
			return true
		case glfw.KeyF2:
			reduced = !reduced
			if sess != nil {
				sess.SetReducedMotion(reduced)
			}
			return true
		}
		return false
	})
	window.SetIconifyCallback(func(_ *glfw.Window, iconified bool) {
		if sess == nil {
			return
		}
		if err := sess.SetVisible(ctx, !iconified); err != nil {
			log.Warn("visibility change", "visible", !iconified, "error", err)
		}
	})
	window.SetRefreshCallback(func(*glfw.Window) {
		host.render()
	})

	sess, err = spectrum.Mount(ctx, rt, host, spectrum.Options{
		Config:   cfg,
		Pipeline: pipeline,
		Input:    agg,
		Logger:   log,
	}, func() { window.SetShouldClose(true) })
	if err != nil {
		return err
	}
	if anyGamepad() {
		agg.Wake()
	}

	start := time.Now()
	for !window.ShouldClose() && ctx.Err() == nil {
		if host.Idle() {
			glfw.WaitEventsTimeout(idleWait)
		} else {
			glfw.PollEvents()
		}
		host.Tick(time.Since(start))
		if host.dirty {
			window.SwapBuffers()
			host.dirty = false
		}
	}
	return nil
}
