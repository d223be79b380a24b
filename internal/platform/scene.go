//go:build !android

package platform

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"pulse/internal/spectrum"
)

// Each vertex: x, y, size, r, g, b, a.
const vertexFloats = 7

func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// barScene draws the spectrum bars and the input marker.
type barScene struct {
	barProg  uint32
	glowProg uint32
	vao      uint32
	vbo      uint32

	bars   []float32
	marker []float32
}

func newBarScene() (*barScene, error) {
	barProg, err := linkProgram(sceneVertSrc, barFragSrc)
	if err != nil {
		return nil, fmt.Errorf("bar program: %w", err)
	}
	glowProg, err := linkProgram(sceneVertSrc, glowFragSrc)
	if err != nil {
		gl.DeleteProgram(barProg)
		return nil, fmt.Errorf("glow program: %w", err)
	}
	s := &barScene{barProg: barProg, glowProg: glowProg}

	gl.GenVertexArrays(1, &s.vao)
	gl.GenBuffers(1, &s.vbo)
	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)

	stride := int32(vertexFloats * 4)
	// aPos (vec2)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, glOffset(0))
	// aSize (float)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 1, gl.FLOAT, false, stride, glOffset(2*4))
	// aColor (vec4)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, stride, glOffset(3*4))
	gl.BindVertexArray(0)

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.PROGRAM_POINT_SIZE)
	return s, nil
}

func (s *barScene) destroy() {
	gl.DeleteBuffers(1, &s.vbo)
	gl.DeleteVertexArrays(1, &s.vao)
	gl.DeleteProgram(s.barProg)
	gl.DeleteProgram(s.glowProg)
}

func (s *barScene) draw(f *spectrum.Frame, fbW, fbH int) {
	gl.Viewport(0, 0, int32(fbW), int32(fbH))
	bg := float32(0.04 + 0.10*f.Energy.Bass)
	if f.Beat {
		bg += 0.06
	}
	gl.ClearColor(bg*0.6, bg*0.5, bg, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.BindVertexArray(s.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, s.vbo)

	s.bars = appendBars(s.bars[:0], f)
	if len(s.bars) > 0 {
		gl.Disable(gl.BLEND)
		gl.UseProgram(s.barProg)
		gl.BufferData(gl.ARRAY_BUFFER, len(s.bars)*4, gl.Ptr(&s.bars[0]), gl.STREAM_DRAW)
		gl.DrawArrays(gl.TRIANGLES, 0, int32(len(s.bars)/vertexFloats))
	}

	s.marker = appendMarker(s.marker[:0], f)
	if len(s.marker) > 0 {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
		gl.UseProgram(s.glowProg)
		gl.BufferData(gl.ARRAY_BUFFER, len(s.marker)*4, gl.Ptr(&s.marker[0]), gl.STREAM_DRAW)
		gl.DrawArrays(gl.POINTS, 0, int32(len(s.marker)/vertexFloats))
	}
	gl.BindVertexArray(0)
}

func appendBars(buf []float32, f *spectrum.Frame) []float32 {
	n := len(f.Bins)
	if n == 0 {
		return buf
	}
	w := float32(2) / float32(n)
	gain := float32(0.85 + 0.15*f.Energy.Bass)
	for i, b := range f.Bins {
		t := float32(i) / float32(n)
		x0 := -1 + float32(i)*w
		x1 := x0 + w*0.8
		y0 := float32(-1)
		y1 := -1 + 2*float32(b)/255*gain
		r := 0.2 + 0.8*(1-t)
		g := 0.3 + 0.5*float32(f.Energy.Mid)
		bl := 0.4 + 0.6*t
		buf = append(buf,
			x0, y0, 0, r, g, bl, 1,
			x1, y0, 0, r, g, bl, 1,
			x1, y1, 0, r, g, bl, 1,
			x0, y0, 0, r, g, bl, 1,
			x1, y1, 0, r, g, bl, 1,
			x0, y1, 0, r, g, bl, 1,
		)
	}
	return buf
}

func appendMarker(buf []float32, f *spectrum.Frame) []float32 {
	in := f.Input
	if !in.HasPrimary {
		return buf
	}
	size := float32(36 + 48*f.Level)
	if in.Gesture != nil {
		size *= float32(in.Gesture.Scale)
	}
	r, g, b := float32(0.9), float32(0.95), float32(1.0)
	if in.IsPressed {
		r, g, b = 1.0, 0.6, 0.2
	}
	buf = append(buf, float32(in.Primary.X), float32(in.Primary.Y), size, r, g, b, 1)
	for _, p := range in.Pointers {
		buf = append(buf, float32(p.Normalized.X), float32(p.Normalized.Y), 18, 0.4, 0.8, 1.0, 0.8)
	}
	return buf
}
