//go:build !android

package platform

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/touch"

	"pulse/internal/input"
)

// The mouse shares the pointer id space with touches; touch sequences
// are never negative.
const mouseID = -1

var keyCodes = map[glfw.Key]key.Code{
	glfw.KeyUp:         key.CodeUpArrow,
	glfw.KeyDown:       key.CodeDownArrow,
	glfw.KeyLeft:       key.CodeLeftArrow,
	glfw.KeyRight:      key.CodeRightArrow,
	glfw.KeyW:          key.CodeW,
	glfw.KeyA:          key.CodeA,
	glfw.KeyS:          key.CodeS,
	glfw.KeyD:          key.CodeD,
	glfw.KeyLeftShift:  key.CodeLeftShift,
	glfw.KeyRightShift: key.CodeRightShift,
	glfw.KeyEnter:      key.CodeReturnEnter,
	glfw.KeySpace:      key.CodeSpacebar,
}

func keyEvent(k glfw.Key, action glfw.Action) (key.Event, bool) {
	code, ok := keyCodes[k]
	if !ok {
		return key.Event{}, false
	}
	ev := key.Event{Code: code}
	switch action {
	case glfw.Press:
		ev.Direction = key.DirPress
	case glfw.Release:
		ev.Direction = key.DirRelease
	default:
		ev.Direction = key.DirNone
	}
	return ev, true
}

// bindInput routes the window's pointer and key callbacks into agg.
// onKey sees every key press first and may consume it.
func bindInput(window *glfw.Window, agg *input.Aggregator, onKey func(glfw.Key) bool) {
	w, h := window.GetSize()
	agg.SetBounds(input.Rect{W: float64(w), H: float64(h)})
	window.SetSizeCallback(func(_ *glfw.Window, width, height int) {
		agg.SetBounds(input.Rect{W: float64(width), H: float64(height)})
	})

	pressed := false
	window.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		agg.HandlePointer(input.PointerEvent{ID: mouseID, Kind: input.KindMouse, Phase: touch.TypeMove, X: x, Y: y})
	})
	window.SetMouseButtonCallback(func(win *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if button != glfw.MouseButtonLeft {
			return
		}
		x, y := win.GetCursorPos()
		ev := input.PointerEvent{ID: mouseID, Kind: input.KindMouse, X: x, Y: y}
		switch action {
		case glfw.Press:
			ev.Phase = touch.TypeBegin
			pressed = true
		case glfw.Release:
			ev.Phase = touch.TypeEnd
			pressed = false
		default:
			return
		}
		agg.HandlePointer(ev)
	})
	window.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if entered || pressed {
			return
		}
		agg.HandlePointer(input.PointerEvent{ID: mouseID, Kind: input.KindMouse, Phase: touch.TypeEnd})
	})
	window.SetKeyCallback(func(_ *glfw.Window, k glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Press && onKey != nil && onKey(k) {
			return
		}
		if ev, ok := keyEvent(k, action); ok {
			agg.HandleKey(ev)
		}
	})
	window.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if !focused {
			agg.Reset()
		}
	})
	glfw.SetJoystickCallback(func(glfw.Joystick, glfw.PeripheralEvent) {
		agg.Wake()
	})
}

// gamepads polls every present joystick with a gamepad mapping.
type gamepads struct {
	buf []input.GamepadSnapshot
}

func (g *gamepads) Gamepads() []input.GamepadSnapshot {
	g.buf = g.buf[:0]
	for joy := glfw.Joystick1; joy <= glfw.JoystickLast; joy++ {
		if !joy.Present() || !joy.IsGamepad() {
			continue
		}
		st := joy.GetGamepadState()
		if st == nil {
			continue
		}
		g.buf = append(g.buf, input.GamepadSnapshot{
			Connected: true,
			AxisX:     float64(st.Axes[glfw.AxisLeftX]),
			AxisY:     -float64(st.Axes[glfw.AxisLeftY]),
			Primary:   st.Buttons[glfw.ButtonA] == glfw.Press,
		})
	}
	return g.buf
}

// anyGamepad reports whether a gamepad is connected at startup.
func anyGamepad() bool {
	for joy := glfw.Joystick1; joy <= glfw.JoystickLast; joy++ {
		if joy.Present() && joy.IsGamepad() {
			return true
		}
	}
	return false
}
