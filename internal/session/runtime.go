package session

import (
	"fmt"
	"log/slog"
	"sync"

	"pulse/internal/logging"
)

// Runtime owns at most one active session and announces its lifecycle.
// Methods are safe to call from any goroutine; listeners run on the
// calling goroutine after the state change is visible.
type Runtime struct {
	mu        sync.Mutex
	log       *slog.Logger
	state     State
	desc      Descriptor
	onBack    func()
	container any
	active    *Handle

	loading  listeners[LoadingEvent]
	activeL  listeners[ActiveEvent]
	errored  listeners[ErrorEvent]
	disposed listeners[DisposedEvent]
}

func NewRuntime(log *slog.Logger) *Runtime {
	return &Runtime{log: logging.Or(log)}
}

// StartLoading begins a loading cycle for desc. The previous handle is
// forgotten without being disposed; call Dispose first to tear it down.
func (r *Runtime) StartLoading(desc Descriptor, onBack func()) {
	r.mu.Lock()
	r.state = StateLoading
	r.desc = desc
	r.onBack = onBack
	r.container = nil
	r.active = nil
	r.mu.Unlock()

	r.log.Debug("session loading", "slug", desc.Slug)
	r.loading.emit(LoadingEvent{Descriptor: desc})
}

// SetContainer records where the session is mounted.
func (r *Runtime) SetContainer(c any) {
	r.mu.Lock()
	r.container = c
	r.mu.Unlock()
}

// SetActiveSession takes ownership of c and returns its ref. A nil c
// recovers the handle registered process-wide, if any.
func (r *Runtime) SetActiveSession(c Candidate) any {
	var h *Handle
	if c != nil {
		h = c.handle()
	}
	if h == nil {
		h = Current()
	} else {
		Register(h)
	}

	var ref any
	if h != nil {
		ref = h.Ref
	}

	r.mu.Lock()
	r.state = StateActive
	r.active = h
	ev := ActiveEvent{Descriptor: r.desc, Ref: ref, Container: r.container}
	r.mu.Unlock()

	r.log.Info("session active", "slug", ev.Descriptor.Slug)
	r.activeL.emit(ev)
	return ref
}

// SetError marks the current loading cycle as failed. Nothing is disposed.
func (r *Runtime) SetError(info ErrorInfo) {
	r.mu.Lock()
	r.state = StateError
	desc := r.desc
	r.mu.Unlock()

	r.log.Warn("session failed", "slug", desc.Slug, "type", info.Type, "error", info)
	r.errored.emit(ErrorEvent{Descriptor: desc, Error: info})
}

// Dispose tears down the active session, falling back to the process-wide
// handle. Teardown errors and panics are logged, never returned. When the
// runtime is already idle no event is emitted.
func (r *Runtime) Dispose(reason string) {
	r.mu.Lock()
	h := r.active
	r.active = nil
	prev := r.state
	desc := r.desc
	r.state = StateIdle
	r.container = nil
	r.mu.Unlock()

	if h == nil {
		h = Current()
	}
	Register(nil)
	r.teardown(h, desc)

	if prev == StateIdle {
		return
	}
	r.log.Info("session disposed", "slug", desc.Slug, "reason", reason)
	r.disposed.emit(DisposedEvent{Reason: reason, Descriptor: desc})
}

func (r *Runtime) teardown(h *Handle, desc Descriptor) {
	if !h.CanDispose() {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("session teardown panicked", "slug", desc.Slug, "panic", fmt.Sprint(p))
		}
	}()
	if err := h.dispose(); err != nil {
		r.log.Error("session teardown failed", "slug", desc.Slug, "error", err)
	}
}

func (r *Runtime) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runtime) Descriptor() Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.desc
}

// Back invokes the back callback of the current loading cycle. It reports
// whether one was registered.
func (r *Runtime) Back() bool {
	r.mu.Lock()
	fn := r.onBack
	r.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

func (r *Runtime) OnLoading(fn func(LoadingEvent)) func()   { return r.loading.add(fn) }
func (r *Runtime) OnActive(fn func(ActiveEvent)) func()     { return r.activeL.add(fn) }
func (r *Runtime) OnError(fn func(ErrorEvent)) func()       { return r.errored.add(fn) }
func (r *Runtime) OnDisposed(fn func(DisposedEvent)) func() { return r.disposed.add(fn) }
