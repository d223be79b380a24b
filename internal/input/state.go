package input

import (
	"math"

	"pulse/internal/mathutil"
)

// Vec2 is a 2D point or offset.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }

// Rect is the client-space area pointer positions are normalized against.
type Rect struct {
	X, Y, W, H float64
}

// Normalize maps a client position into [-1, 1] on both axes with Y up.
func (r Rect) Normalize(p Vec2) Vec2 {
	if r.W <= 0 || r.H <= 0 {
		return Vec2{}
	}
	nx := (p.X-r.X)/r.W*2 - 1
	ny := 1 - (p.Y-r.Y)/r.H*2
	return Vec2{mathutil.ClampF(nx, -1, 1), mathutil.ClampF(ny, -1, 1)}
}

// Kind is the device behind a pointer.
type Kind int

const (
	KindMouse Kind = iota
	KindPen
	KindTouch
)

func (k Kind) String() string {
	switch k {
	case KindMouse:
		return "mouse"
	case KindPen:
		return "pen"
	case KindTouch:
		return "touch"
	}
	return "unknown"
}

// hovers reports whether the device has a position while not pressed.
func (k Kind) hovers() bool { return k == KindMouse || k == KindPen }

// Source is the input that contributed the positional data of a frame.
type Source int

const (
	SourceNone Source = iota
	SourcePointer
	SourceHover
	SourceKeyboard
	SourceGamepad
)

func (s Source) String() string {
	switch s {
	case SourceNone:
		return "none"
	case SourcePointer:
		return "pointer"
	case SourceHover:
		return "hover"
	case SourceKeyboard:
		return "keyboard"
	case SourceGamepad:
		return "gamepad"
	}
	return "unknown"
}

// Pointer is one active contact.
type Pointer struct {
	ID         int64
	Kind       Kind
	Position   Vec2 // client coordinates
	Normalized Vec2
}

// Anchor is the reference pose of a two-contact gesture.
type Anchor struct {
	Centroid           Vec2
	NormalizedCentroid Vec2
	Distance           float64
	Angle              float64
}

// Gesture is the pose of the current two-contact interaction relative to its anchor.
type Gesture struct {
	Anchor      Anchor
	Scale       float64
	Rotation    float64 // radians, wrapped into (-Pi, Pi]
	Translation Vec2    // normalized units
}

// State is the merged input for one processed frame.
type State struct {
	Pointers           []Pointer
	PointerCount       int
	Centroid           Vec2
	NormalizedCentroid Vec2
	Primary            Vec2 // normalized
	HasPrimary         bool
	IsPressed          bool
	JustPressed        bool
	JustReleased       bool
	DragDelta          Vec2
	Source             Source
	Gesture            *Gesture
}
