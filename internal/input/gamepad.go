package input

import (
	"math"

	"pulse/internal/mathutil"
)

// GamepadSnapshot is one polled controller. Axes are in [-1, 1] with Y up.
type GamepadSnapshot struct {
	Connected bool
	AxisX     float64
	AxisY     float64
	Primary   bool
}

// GamepadReader polls the connected controllers.
type GamepadReader interface {
	Gamepads() []GamepadSnapshot
}

// deadzone zeroes small deflections and rescales the rest back onto [0, 1].
func deadzone(v, dz float64) float64 {
	a := math.Abs(v)
	if a <= dz {
		return 0
	}
	if dz >= 1 {
		return 0
	}
	return math.Copysign(math.Min((a-dz)/(1-dz), 1), v)
}

type gamepadStick struct {
	pos       Vec2
	connected bool
	moving    bool
	primary   bool
}

// poll reads the first connected pad and integrates its left stick.
func (g *gamepadStick) poll(r GamepadReader, dt, speed, dz float64) {
	g.connected, g.moving, g.primary = false, false, false
	if r == nil {
		return
	}
	for _, pad := range r.Gamepads() {
		if !pad.Connected {
			continue
		}
		g.connected = true
		g.primary = pad.Primary
		x, y := deadzone(pad.AxisX, dz), deadzone(pad.AxisY, dz)
		if x != 0 || y != 0 {
			g.moving = true
			g.pos = Vec2{
				mathutil.ClampF(g.pos.X+x*speed*dt, -1, 1),
				mathutil.ClampF(g.pos.Y+y*speed*dt, -1, 1),
			}
		}
		return
	}
}
