package signal

import (
	"math"
	"time"

	"pulse/internal/mathutil"
)

// Generator produces the idle waveform shown when no usable signal exists.
// Output depends only on the bin count and the elapsed time, so two calls
// with the same arguments yield identical buffers.
type Generator struct {
	Period float64 // seconds per full cycle
	Peak   float64 // loudest possible bin value
}

func NewGenerator(period time.Duration) Generator {
	p := period.Seconds()
	if p <= 0 {
		p = 4
	}
	return Generator{Period: p, Peak: 180}
}

// Fill writes len(dst) synthetic bins for the given elapsed seconds.
func (g Generator) Fill(dst []uint8, elapsed float64) []uint8 {
	n := len(dst)
	if n == 0 {
		return dst
	}
	period := g.Period
	if period <= 0 {
		period = 4
	}
	phase := 2 * math.Pi * elapsed / period
	breath := 0.75 + 0.25*math.Sin(phase*0.5)
	span := float64(max(n-1, 1))
	for i := range dst {
		x := float64(i) / span
		v := 0.55 +
			0.22*math.Sin(phase+x*7) +
			0.13*math.Sin(2*phase-x*15+1.3) +
			0.07*math.Sin(3*phase+x*31+0.4)
		tilt := 1 - 0.65*x
		dst[i] = mathutil.ToByte(g.Peak * mathutil.ClampF(v, 0, 1) * tilt * breath)
	}
	return dst
}
