package input

import (
	"math"

	"golang.org/x/mobile/event/key"

	"pulse/internal/mathutil"
)

type keyRole int

const (
	roleNone keyRole = iota
	roleUp
	roleDown
	roleLeft
	roleRight
	roleBoost
	roleConfirm
)

func roleOf(code key.Code) keyRole {
	switch code {
	case key.CodeUpArrow, key.CodeW:
		return roleUp
	case key.CodeDownArrow, key.CodeS:
		return roleDown
	case key.CodeLeftArrow, key.CodeA:
		return roleLeft
	case key.CodeRightArrow, key.CodeD:
		return roleRight
	case key.CodeLeftShift, key.CodeRightShift:
		return roleBoost
	case key.CodeReturnEnter, key.CodeSpacebar:
		return roleConfirm
	}
	return roleNone
}

// keyboard is the virtual stick driven by arrows / WASD.
type keyboard struct {
	down map[key.Code]keyRole
	pos  Vec2
}

func newKeyboard() keyboard {
	return keyboard{down: make(map[key.Code]keyRole)}
}

// apply records a key transition. It reports whether the key is tracked.
func (k *keyboard) apply(ev key.Event) bool {
	role := roleOf(ev.Code)
	if role == roleNone {
		return false
	}
	switch ev.Direction {
	case key.DirRelease:
		delete(k.down, ev.Code)
	default:
		k.down[ev.Code] = role
	}
	return true
}

func (k *keyboard) held(role keyRole) bool {
	for _, r := range k.down {
		if r == role {
			return true
		}
	}
	return false
}

// direction returns the held direction, normalized so diagonals are no faster.
func (k *keyboard) direction() Vec2 {
	var d Vec2
	if k.held(roleRight) {
		d.X++
	}
	if k.held(roleLeft) {
		d.X--
	}
	if k.held(roleUp) {
		d.Y++
	}
	if k.held(roleDown) {
		d.Y--
	}
	if d.X != 0 && d.Y != 0 {
		d = d.Scale(1 / math.Sqrt2)
	}
	return d
}

// step integrates the stick over dt seconds. It reports whether a direction was held.
func (k *keyboard) step(dt, speed, boost float64) bool {
	d := k.direction()
	if d == (Vec2{}) {
		return false
	}
	s := speed * dt
	if k.held(roleBoost) {
		s *= boost
	}
	k.pos = Vec2{
		mathutil.ClampF(k.pos.X+d.X*s, -1, 1),
		mathutil.ClampF(k.pos.Y+d.Y*s, -1, 1),
	}
	return true
}

func (k *keyboard) active() bool { return len(k.down) > 0 }

func (k *keyboard) reset() {
	clear(k.down)
}
