package input

import (
	"math"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/touch"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

type fakeScheduler struct {
	pending  []func(time.Duration)
	requests int
}

func (s *fakeScheduler) RequestFrame(fn func(time.Duration)) {
	s.pending = append(s.pending, fn)
	s.requests++
}

// step runs the frames requested so far.
func (s *fakeScheduler) step(now time.Duration) {
	fns := s.pending
	s.pending = nil
	for _, fn := range fns {
		fn(now)
	}
}

type fakePads struct{ pads []GamepadSnapshot }

func (f *fakePads) Gamepads() []GamepadSnapshot { return f.pads }

func press(code key.Code) key.Event   { return key.Event{Code: code, Direction: key.DirPress} }
func release(code key.Code) key.Event { return key.Event{Code: code, Direction: key.DirRelease} }

func touchAt(seq int64, typ touch.Type, x, y float64) touch.Event {
	return touch.Event{Sequence: touch.Sequence(seq), Type: typ, X: float32(x), Y: float32(y)}
}

func newTestAggregator() (*Aggregator, *fakeScheduler) {
	s := &fakeScheduler{}
	a := NewAggregator(Options{Scheduler: s, KeyboardSpeed: 1, KeyboardBoost: 2, GamepadSpeed: 1, GamepadDeadzone: 0.2})
	a.SetBounds(Rect{W: 200, H: 200})
	return a, s
}

func TestNormalize(t *testing.T) {
	r := Rect{X: 10, Y: 20, W: 100, H: 50}
	tests := []struct {
		in, want Vec2
	}{
		{Vec2{10, 20}, Vec2{-1, 1}},
		{Vec2{110, 70}, Vec2{1, -1}},
		{Vec2{60, 45}, Vec2{0, 0}},
		{Vec2{500, -100}, Vec2{1, 1}},
	}
	for _, tt := range tests {
		if got := r.Normalize(tt.in); !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
			t.Errorf("Normalize(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := (Rect{}).Normalize(Vec2{5, 5}); got != (Vec2{}) {
		t.Errorf("expected zero for empty bounds, got %v", got)
	}
}

func TestGestureScaleAndRotation(t *testing.T) {
	a, s := newTestAggregator()

	a.HandleTouch(touchAt(1, touch.TypeBegin, 100, 100))
	a.HandleTouch(touchAt(2, touch.TypeBegin, 150, 100))
	s.step(0)

	st := a.State()
	if st.Gesture == nil {
		t.Fatal("expected a gesture with two contacts")
	}
	if _, ok := a.Anchor(); !ok {
		t.Fatal("expected an anchor with two contacts")
	}
	if !near(st.Gesture.Scale, 1) || !near(st.Gesture.Rotation, 0) {
		t.Fatalf("expected identity gesture at anchor time, got %+v", st.Gesture)
	}

	const a1, d1 = 0.5, 100.0
	a.HandleTouch(touchAt(2, touch.TypeMove, 100+d1*math.Cos(a1), 100+d1*math.Sin(a1)))
	s.step(16 * time.Millisecond)

	st = a.State()
	if st.Gesture == nil {
		t.Fatal("expected the gesture to continue")
	}
	if math.Abs(st.Gesture.Scale-d1/50) > 1e-4 {
		t.Errorf("scale = %g, want %g", st.Gesture.Scale, d1/50)
	}
	if math.Abs(st.Gesture.Rotation-a1) > 1e-4 {
		t.Errorf("rotation = %g, want %g", st.Gesture.Rotation, a1)
	}

	a.HandleTouch(touchAt(2, touch.TypeEnd, 0, 0))
	s.step(32 * time.Millisecond)
	if a.State().Gesture != nil {
		t.Fatal("expected no gesture with one contact")
	}
	if _, ok := a.Anchor(); ok {
		t.Fatal("expected the anchor to be dropped")
	}

	// A new second contact starts from a fresh reference.
	a.HandleTouch(touchAt(3, touch.TypeBegin, 100, 180))
	s.step(48 * time.Millisecond)
	g := a.State().Gesture
	if g == nil || !near(g.Scale, 1) || !near(g.Rotation, 0) {
		t.Fatalf("expected a fresh identity gesture, got %+v", g)
	}
	if !near(g.Anchor.Distance, 80) {
		t.Fatalf("expected the new anchor distance, got %g", g.Anchor.Distance)
	}
}

func TestGestureRotationWraps(t *testing.T) {
	a, s := newTestAggregator()
	a.HandleTouch(touchAt(1, touch.TypeBegin, 100, 100))
	a.HandleTouch(touchAt(2, touch.TypeBegin, 100+50*math.Cos(3), 100+50*math.Sin(3)))
	s.step(0)
	a.HandleTouch(touchAt(2, touch.TypeMove, 100+50*math.Cos(-3), 100+50*math.Sin(-3)))
	s.step(16 * time.Millisecond)

	want := 2*math.Pi - 6
	if got := a.State().Gesture.Rotation; math.Abs(got-want) > 1e-4 {
		t.Fatalf("rotation = %g, want %g", got, want)
	}
}

func TestGestureTranslation(t *testing.T) {
	a, s := newTestAggregator()
	a.HandleTouch(touchAt(1, touch.TypeBegin, 50, 100))
	a.HandleTouch(touchAt(2, touch.TypeBegin, 150, 100))
	s.step(0)
	a.HandleTouch(touchAt(1, touch.TypeMove, 100, 50))
	a.HandleTouch(touchAt(2, touch.TypeMove, 200, 50))
	s.step(16 * time.Millisecond)

	tr := a.State().Gesture.Translation
	if !near(tr.X, 0.5) || !near(tr.Y, 0.5) {
		t.Fatalf("translation = %v, want {0.5 0.5}", tr)
	}
}

func TestKeyboardDiagonalIsNormalized(t *testing.T) {
	a, _ := newTestAggregator()
	a.HandleKey(press(key.CodeRightArrow))
	a.HandleKey(press(key.CodeW))

	st := a.Process(0)
	if st.Source != SourceKeyboard {
		t.Fatalf("expected keyboard source, got %s", st.Source)
	}
	want := nominalFrame.Seconds()
	if got := st.Primary.Len(); math.Abs(got-want) > eps {
		t.Fatalf("diagonal step = %g, want %g", got, want)
	}
	if !near(st.Primary.X, st.Primary.Y) || st.Primary.X <= 0 {
		t.Fatalf("expected up-right movement, got %v", st.Primary)
	}

	a.HandleKey(press(key.CodeLeftShift))
	before := st.Primary
	st = a.Process(50 * time.Millisecond)
	if got := st.Primary.Sub(before).Len(); math.Abs(got-0.1) > eps {
		t.Fatalf("boosted step = %g, want 0.1", got)
	}
}

func TestKeyboardClampsAndConfirms(t *testing.T) {
	a, _ := newTestAggregator()
	a.HandleKey(press(key.CodeD))
	now := time.Duration(0)
	for i := 0; i < 30; i++ {
		a.Process(now)
		now += maxFrame
	}
	st := a.Process(now)
	if st.Primary.X != 1 || st.Primary.Y != 0 {
		t.Fatalf("expected clamp at the right edge, got %v", st.Primary)
	}
	if st.IsPressed {
		t.Fatal("direction keys must not press")
	}

	a.HandleKey(press(key.CodeSpacebar))
	if st = a.Process(now + maxFrame); !st.IsPressed || !st.JustPressed {
		t.Fatalf("expected confirm to press, got %+v", st)
	}
	a.HandleKey(press(key.CodeA)) // unrelated to confirm, still tracked
	a.HandleKey(release(key.CodeSpacebar))
	if st = a.Process(now + 2*maxFrame); st.IsPressed || !st.JustReleased {
		t.Fatalf("expected confirm release, got %+v", st)
	}
}

func TestGamepadDeadzoneAndSpeed(t *testing.T) {
	pads := &fakePads{pads: []GamepadSnapshot{{}, {Connected: true, AxisX: 0.1, AxisY: 0.6}}}
	a := NewAggregator(Options{Gamepads: pads, GamepadSpeed: 2, GamepadDeadzone: 0.2})

	st := a.Process(0)
	if st.Source != SourceGamepad {
		t.Fatalf("expected gamepad source, got %s", st.Source)
	}
	// 0.6 rescales to (0.6-0.2)/0.8 = 0.5; X stays in the deadzone.
	want := 0.5 * 2 * nominalFrame.Seconds()
	if st.Primary.X != 0 || math.Abs(st.Primary.Y-want) > eps {
		t.Fatalf("unexpected stick position %v, want {0 %g}", st.Primary, want)
	}

	pads.pads[1].Primary = true
	if st = a.Process(10 * time.Millisecond); !st.IsPressed || !st.JustPressed {
		t.Fatal("expected the primary button to press")
	}
}

func TestDeadzone(t *testing.T) {
	tests := []struct{ v, dz, want float64 }{
		{0.1, 0.2, 0},
		{-0.2, 0.2, 0},
		{0.6, 0.2, 0.5},
		{-1, 0.2, -1},
		{0.5, 0, 0.5},
	}
	for _, tt := range tests {
		if got := deadzone(tt.v, tt.dz); math.Abs(got-tt.want) > eps {
			t.Errorf("deadzone(%g, %g) = %g, want %g", tt.v, tt.dz, got, tt.want)
		}
	}
}

func TestSourcePrecedence(t *testing.T) {
	pads := &fakePads{pads: []GamepadSnapshot{{Connected: true, AxisX: 1}}}
	a := NewAggregator(Options{Gamepads: pads})
	a.SetBounds(Rect{W: 100, H: 100})

	if st := a.Process(0); st.Source != SourceGamepad {
		t.Fatalf("expected gamepad, got %s", st.Source)
	}

	a.HandleKey(press(key.CodeUpArrow))
	if st := a.Process(10 * time.Millisecond); st.Source != SourceKeyboard {
		t.Fatalf("expected keyboard over gamepad, got %s", st.Source)
	}

	a.HandlePointer(PointerEvent{ID: 1, Kind: KindMouse, Phase: touch.TypeMove, X: 25, Y: 25})
	st := a.Process(20 * time.Millisecond)
	if st.Source != SourceHover {
		t.Fatalf("expected hover over keyboard, got %s", st.Source)
	}
	if !near(st.Primary.X, -0.5) || !near(st.Primary.Y, 0.5) {
		t.Fatalf("unexpected hover position %v", st.Primary)
	}
	if st.PointerCount != 0 || st.Gesture != nil {
		t.Fatal("hover must not count as a contact")
	}

	a.HandleTouch(touchAt(7, touch.TypeBegin, 75, 75))
	if st := a.Process(30 * time.Millisecond); st.Source != SourcePointer || st.PointerCount != 1 {
		t.Fatalf("expected contact over hover, got %s with %d contacts", st.Source, st.PointerCount)
	}

	a.HandleTouch(touchAt(7, touch.TypeEnd, 75, 75))
	if st := a.Process(40 * time.Millisecond); st.Source != SourceHover {
		t.Fatalf("expected hover after the contact lifted, got %s", st.Source)
	}

	a.HandlePointer(PointerEvent{ID: 1, Kind: KindMouse, Phase: touch.TypeEnd})
	if st := a.Process(50 * time.Millisecond); st.Source != SourceKeyboard {
		t.Fatalf("expected keyboard after the mouse left, got %s", st.Source)
	}
}

func TestMouseButtonKeepsHover(t *testing.T) {
	a, s := newTestAggregator()
	a.HandlePointer(PointerEvent{ID: 0, Kind: KindMouse, Phase: touch.TypeBegin, X: 100, Y: 100})
	s.step(0)
	if st := a.State(); !st.IsPressed || st.Source != SourcePointer {
		t.Fatalf("expected a pressed mouse contact, got %+v", st)
	}
	a.HandlePointer(PointerEvent{ID: 0, Kind: KindMouse, Phase: touch.TypeEnd, X: 150, Y: 100})
	s.step(16 * time.Millisecond)
	st := a.State()
	if st.IsPressed || st.Source != SourceHover || !near(st.Primary.X, 0.5) {
		t.Fatalf("expected hover at the release point, got %+v", st)
	}
}

func TestEdgeFlagsAndDrag(t *testing.T) {
	a, s := newTestAggregator()
	a.HandleTouch(touchAt(1, touch.TypeBegin, 100, 100))
	s.step(0)
	st := a.State()
	if !st.IsPressed || !st.JustPressed || st.JustReleased {
		t.Fatalf("unexpected flags on press: %+v", st)
	}
	if st.DragDelta != (Vec2{}) {
		t.Fatalf("expected no drag on the press frame, got %v", st.DragDelta)
	}

	a.HandleTouch(touchAt(1, touch.TypeMove, 150, 50))
	s.step(16 * time.Millisecond)
	st = a.State()
	if !st.IsPressed || st.JustPressed {
		t.Fatalf("unexpected flags while held: %+v", st)
	}
	if !near(st.DragDelta.X, 0.5) || !near(st.DragDelta.Y, 0.5) {
		t.Fatalf("drag = %v, want {0.5 0.5}", st.DragDelta)
	}

	a.HandleTouch(touchAt(1, touch.TypeEnd, 150, 50))
	s.step(32 * time.Millisecond)
	st = a.State()
	if st.IsPressed || !st.JustReleased {
		t.Fatalf("unexpected flags on release: %+v", st)
	}
}

func TestCancelDropsContact(t *testing.T) {
	a, s := newTestAggregator()
	a.HandleTouch(touchAt(1, touch.TypeBegin, 10, 10))
	a.HandleTouch(touchAt(2, touch.TypeBegin, 20, 20))
	s.step(0)
	a.HandlePointer(PointerEvent{ID: 2, Kind: KindTouch, Cancel: true})
	s.step(16 * time.Millisecond)
	if st := a.State(); st.PointerCount != 1 || st.Gesture != nil {
		t.Fatalf("expected one contact and no gesture, got %d", st.PointerCount)
	}
}

func TestSchedulingCoalescesAndStopsWhenIdle(t *testing.T) {
	a, s := newTestAggregator()
	updates := 0
	unsubscribe := a.OnUpdate(func(State) { updates++ })

	a.HandleKey(press(key.CodeLeftArrow))
	a.HandleKey(press(key.CodeUpArrow))
	a.HandleKey(key.Event{Code: key.CodeF1, Direction: key.DirPress})
	if s.requests != 1 {
		t.Fatalf("expected one coalesced request, got %d", s.requests)
	}

	s.step(0)
	if updates != 1 {
		t.Fatalf("expected one update, got %d", updates)
	}
	if !a.Scheduled() || len(s.pending) != 1 {
		t.Fatal("expected a self-reschedule while keys are held")
	}

	a.HandleKey(release(key.CodeLeftArrow))
	a.HandleKey(release(key.CodeUpArrow))
	if len(s.pending) != 1 {
		t.Fatal("expected events to join the pending frame")
	}
	s.step(16 * time.Millisecond)
	if a.Scheduled() || len(s.pending) != 0 {
		t.Fatal("expected scheduling to stop once idle")
	}
	if updates != 2 {
		t.Fatalf("expected two updates, got %d", updates)
	}

	unsubscribe()
	a.HandleTouch(touchAt(1, touch.TypeBegin, 1, 1))
	s.step(32 * time.Millisecond)
	if updates != 2 {
		t.Fatal("expected no updates after unsubscribe")
	}
}

func TestConnectedGamepadKeepsPolling(t *testing.T) {
	pads := &fakePads{}
	s := &fakeScheduler{}
	a := NewAggregator(Options{Scheduler: s, Gamepads: pads})

	a.Wake()
	s.step(0)
	if a.Scheduled() {
		t.Fatal("expected no polling without a gamepad")
	}

	pads.pads = []GamepadSnapshot{{Connected: true}}
	a.Wake()
	for i := 1; i <= 3; i++ {
		s.step(time.Duration(i) * 16 * time.Millisecond)
		if !a.Scheduled() {
			t.Fatalf("expected polling to continue on frame %d", i)
		}
	}

	pads.pads = nil
	s.step(64 * time.Millisecond)
	if a.Scheduled() {
		t.Fatal("expected polling to stop after disconnect")
	}
}

func TestResetAndDispose(t *testing.T) {
	a, s := newTestAggregator()
	a.HandleKey(press(key.CodeS))
	a.HandleTouch(touchAt(1, touch.TypeBegin, 1, 1))
	s.step(0)

	a.Reset()
	s.step(16 * time.Millisecond)
	if st := a.State(); st.PointerCount != 0 || st.IsPressed {
		t.Fatalf("expected a cleared state, got %+v", st)
	}
	if a.Scheduled() {
		t.Fatal("expected no reschedule after reset")
	}

	a.Dispose()
	a.HandleKey(press(key.CodeS))
	if s.requests != 2 || a.Scheduled() {
		t.Fatal("expected no scheduling after dispose")
	}
}
