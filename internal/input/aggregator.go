package input

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/touch"

	"pulse/internal/config"
	"pulse/internal/logging"
	"pulse/internal/mathutil"
)

// FrameScheduler runs fn on the next host frame. Implementations must not
// call fn from inside RequestFrame.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Duration))
}

// PointerEvent is a raw pointer report in client coordinates. Phase reuses
// the touch phases: Begin presses, Move moves (or hovers when not pressed),
// End releases, or leaves when the pointer was only hovering.
type PointerEvent struct {
	ID     int64
	Kind   Kind
	Phase  touch.Type
	X, Y   float64
	Cancel bool
}

type Options struct {
	Scheduler FrameScheduler
	Gamepads  GamepadReader

	KeyboardSpeed   float64 // normalized units per second
	KeyboardBoost   float64
	GamepadSpeed    float64
	GamepadDeadzone float64

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.KeyboardSpeed <= 0 {
		o.KeyboardSpeed = config.KeyboardSpeed
	}
	if o.KeyboardBoost <= 0 {
		o.KeyboardBoost = config.KeyboardBoost
	}
	if o.GamepadSpeed <= 0 {
		o.GamepadSpeed = config.GamepadSpeed
	}
	if o.GamepadDeadzone <= 0 {
		o.GamepadDeadzone = config.GamepadDeadzone
	}
	return o
}

// Nominal frame length used when there is no previous frame to measure from.
const (
	nominalFrame = 16 * time.Millisecond
	maxFrame     = 100 * time.Millisecond
)

type stick int

const (
	stickNone stick = iota
	stickKeyboard
	stickGamepad
)

// Aggregator merges pointer, keyboard and gamepad input into one State per
// frame. Events may arrive from any goroutine; they are queued and applied
// in a single pass on the next scheduled frame.
type Aggregator struct {
	mu   sync.Mutex
	opts Options
	log  *slog.Logger

	bounds Rect
	queue  []any

	contacts []Pointer // in press order
	hover    *Pointer
	keys     keyboard
	pad      gamepadStick
	last     stick
	anchor   *Anchor

	state     State
	pressed   bool
	prev      Vec2
	hasPrev   bool
	lastFrame time.Duration
	hasFrame  bool

	scheduled bool
	disposed  bool

	listeners map[int]func(State)
	nextID    int
}

func NewAggregator(opts Options) *Aggregator {
	return &Aggregator{
		opts:      opts.withDefaults(),
		log:       logging.Or(opts.Logger),
		keys:      newKeyboard(),
		listeners: make(map[int]func(State)),
	}
}

// SetBounds updates the client rectangle used for normalization.
func (a *Aggregator) SetBounds(r Rect) {
	a.mu.Lock()
	a.bounds = r
	a.mu.Unlock()
}

func (a *Aggregator) Bounds() Rect {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bounds
}

// HandlePointer queues a pointer event.
func (a *Aggregator) HandlePointer(ev PointerEvent) {
	a.enqueue(ev)
}

// HandleTouch queues a touch event as a touch pointer.
func (a *Aggregator) HandleTouch(ev touch.Event) {
	a.enqueue(PointerEvent{
		ID:    int64(ev.Sequence),
		Kind:  KindTouch,
		Phase: ev.Type,
		X:     float64(ev.X),
		Y:     float64(ev.Y),
	})
}

// HandleKey queues a key event. Keys without a role are ignored.
func (a *Aggregator) HandleKey(ev key.Event) {
	if roleOf(ev.Code) == roleNone {
		return
	}
	a.enqueue(ev)
}

// Wake schedules a frame, e.g. after a gamepad was connected.
func (a *Aggregator) Wake() {
	a.mu.Lock()
	run := a.scheduleLocked()
	a.mu.Unlock()
	a.request(run)
}

type resetEvent struct{}

// Reset drops every held key and contact, e.g. when the host loses focus.
func (a *Aggregator) Reset() {
	a.enqueue(resetEvent{})
}

func (a *Aggregator) enqueue(ev any) {
	a.mu.Lock()
	if a.disposed {
		a.mu.Unlock()
		return
	}
	a.queue = append(a.queue, ev)
	run := a.scheduleLocked()
	a.mu.Unlock()
	a.request(run)
}

// scheduleLocked marks a frame as scheduled and reports whether the caller
// must request it.
func (a *Aggregator) scheduleLocked() bool {
	if a.scheduled || a.disposed || a.opts.Scheduler == nil {
		return false
	}
	a.scheduled = true
	return true
}

func (a *Aggregator) request(run bool) {
	if run {
		a.opts.Scheduler.RequestFrame(a.frame)
	}
}

// Scheduled reports whether a frame pass is pending.
func (a *Aggregator) Scheduled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scheduled
}

func (a *Aggregator) frame(now time.Duration) {
	a.mu.Lock()
	a.scheduled = false
	if a.disposed {
		a.mu.Unlock()
		return
	}
	st := a.process(now)
	run := false
	if a.activeLocked() {
		run = a.scheduleLocked()
	} else {
		a.hasFrame = false
	}
	fns := make([]func(State), 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
	a.request(run)
}

// activeLocked reports whether another frame is needed without new events.
func (a *Aggregator) activeLocked() bool {
	return len(a.contacts) > 0 || a.keys.active() || a.pad.connected
}

// Process applies queued events and recomputes the state immediately.
// Hosts that pace input themselves call it instead of providing a scheduler.
func (a *Aggregator) Process(now time.Duration) State {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return a.state
	}
	return a.process(now)
}

func (a *Aggregator) process(now time.Duration) State {
	dt := nominalFrame
	if a.hasFrame {
		dt = min(max(now-a.lastFrame, 0), maxFrame)
	}
	a.lastFrame, a.hasFrame = now, true

	for _, ev := range a.queue {
		switch ev := ev.(type) {
		case PointerEvent:
			a.applyPointer(ev)
		case key.Event:
			a.keys.apply(ev)
		case resetEvent:
			a.contacts = a.contacts[:0]
			a.hover = nil
			a.keys.reset()
		}
	}
	clear(a.queue)
	a.queue = a.queue[:0]

	secs := dt.Seconds()
	keyMoved := a.keys.step(secs, a.opts.KeyboardSpeed, a.opts.KeyboardBoost)
	a.pad.poll(a.opts.Gamepads, secs, a.opts.GamepadSpeed, a.opts.GamepadDeadzone)
	switch {
	case keyMoved || a.keys.active():
		a.last = stickKeyboard
	case a.pad.moving || a.pad.primary:
		a.last = stickGamepad
	}

	st := State{PointerCount: len(a.contacts)}
	if n := len(a.contacts); n > 0 {
		st.Pointers = make([]Pointer, n)
		for i, p := range a.contacts {
			p.Normalized = a.bounds.Normalize(p.Position)
			st.Pointers[i] = p
			st.Centroid = st.Centroid.Add(p.Position)
		}
		st.Centroid = st.Centroid.Scale(1 / float64(n))
		st.NormalizedCentroid = a.bounds.Normalize(st.Centroid)
	}

	switch {
	case len(a.contacts) > 0:
		st.Source = SourcePointer
		st.Primary = st.NormalizedCentroid
	case a.hover != nil:
		st.Source = SourceHover
		st.Primary = a.bounds.Normalize(a.hover.Position)
	case a.last == stickKeyboard:
		st.Source = SourceKeyboard
		st.Primary = a.keys.pos
	case a.last == stickGamepad:
		st.Source = SourceGamepad
		st.Primary = a.pad.pos
	}
	st.HasPrimary = st.Source != SourceNone

	st.Gesture = a.gesture(st)

	st.IsPressed = len(a.contacts) > 0 || a.keys.held(roleConfirm) || a.pad.primary
	st.JustPressed = st.IsPressed && !a.pressed
	st.JustReleased = !st.IsPressed && a.pressed
	if st.IsPressed && a.pressed && st.HasPrimary && a.hasPrev {
		st.DragDelta = st.Primary.Sub(a.prev)
	}
	a.pressed = st.IsPressed
	a.prev, a.hasPrev = st.Primary, st.HasPrimary

	a.state = st
	return st
}

func (a *Aggregator) applyPointer(ev PointerEvent) {
	pos := Vec2{ev.X, ev.Y}
	idx := a.contactIndex(ev.ID)
	if ev.Cancel {
		if idx >= 0 {
			a.removeContact(idx)
		}
		if a.hover != nil && a.hover.ID == ev.ID {
			a.hover = nil
		}
		return
	}

	switch ev.Phase {
	case touch.TypeBegin:
		if idx >= 0 {
			a.contacts[idx].Position = pos
		} else {
			a.contacts = append(a.contacts, Pointer{ID: ev.ID, Kind: ev.Kind, Position: pos})
		}
	case touch.TypeMove:
		if idx >= 0 {
			a.contacts[idx].Position = pos
		}
	case touch.TypeEnd:
		if idx >= 0 {
			a.removeContact(idx)
		} else if a.hover != nil && a.hover.ID == ev.ID {
			a.hover = nil
			return
		}
	}
	if ev.Kind.hovers() && !(ev.Phase == touch.TypeEnd && idx < 0) {
		a.hover = &Pointer{ID: ev.ID, Kind: ev.Kind, Position: pos}
	}
}

func (a *Aggregator) contactIndex(id int64) int {
	for i, p := range a.contacts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (a *Aggregator) removeContact(i int) {
	a.contacts = append(a.contacts[:i], a.contacts[i+1:]...)
}

// gesture tracks the two-contact anchor. The anchor lives exactly while at
// least two contacts are down.
func (a *Aggregator) gesture(st State) *Gesture {
	if len(st.Pointers) < 2 {
		a.anchor = nil
		return nil
	}
	p0, p1 := st.Pointers[0].Position, st.Pointers[1].Position
	d := p1.Sub(p0)
	dist := d.Len()
	angle := math.Atan2(d.Y, d.X)

	if a.anchor == nil {
		a.anchor = &Anchor{
			Centroid:           st.Centroid,
			NormalizedCentroid: st.NormalizedCentroid,
			Distance:           dist,
			Angle:              angle,
		}
	}
	g := &Gesture{
		Anchor:      *a.anchor,
		Scale:       1,
		Rotation:    mathutil.AngDiff(a.anchor.Angle, angle),
		Translation: st.NormalizedCentroid.Sub(a.anchor.NormalizedCentroid),
	}
	if a.anchor.Distance > 0 {
		g.Scale = dist / a.anchor.Distance
	}
	return g
}

// State returns the state computed on the last processed frame.
func (a *Aggregator) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Anchor returns the current gesture anchor, if any.
func (a *Aggregator) Anchor() (Anchor, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.anchor == nil {
		return Anchor{}, false
	}
	return *a.anchor, true
}

// OnUpdate registers fn to receive every processed state. The returned
// func unsubscribes it.
func (a *Aggregator) OnUpdate(fn func(State)) func() {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// Dispose stops scheduling and drops all listeners and pending events.
func (a *Aggregator) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	a.disposed = true
	a.queue = nil
	a.contacts = nil
	a.hover = nil
	a.anchor = nil
	clear(a.listeners)
	a.log.Debug("input aggregator disposed")
}
