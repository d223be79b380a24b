package anim

import (
	"pulse/internal/audio"
	"pulse/internal/mathutil"
	"pulse/internal/signal"
)

// FrequencySource is the analyser surface the feed reads.
type FrequencySource interface {
	BinCount() int
	FrequencyData(dst []uint8) []uint8
}

// FrequencyFeed produces one frequency snapshot per frame, crossfading to a
// synthetic idle signal when the real one is missing or near silent.
//
// The returned slice is owned by the feed and overwritten by the next call.
type FrequencyFeed struct {
	Threshold   float64 // mean bin value at which the real signal fully takes over
	DefaultBins int     // size of the synthetic buffer when there is no analyser
	Synth       signal.Generator

	real  []uint8
	synth []uint8
	out   []uint8
}

func NewFrequencyFeed(threshold float64, defaultBins int, synth signal.Generator) *FrequencyFeed {
	return &FrequencyFeed{Threshold: threshold, DefaultBins: defaultBins, Synth: synth}
}

// Snapshot returns the frequency bins for the frame described by ctx.
func (f *FrequencyFeed) Snapshot(ctx *Context) []uint8 {
	var elapsed float64
	var src FrequencySource
	if ctx != nil {
		elapsed = ctx.Elapsed
		src = ctx.Analyser
	}
	if src == nil || src.BinCount() == 0 {
		return f.synthetic(f.DefaultBins, elapsed)
	}

	f.real = src.FrequencyData(f.real)
	if len(f.real) == 0 {
		return f.synthetic(f.DefaultBins, elapsed)
	}
	avg := audio.Mean(f.real)
	if avg >= f.Threshold {
		return f.real
	}

	w := mathutil.ClampF(avg/f.Threshold, 0, 1)
	synth := f.synthetic(len(f.real), elapsed)
	f.out = sized(f.out, len(f.real))
	for i, r := range f.real {
		f.out[i] = mathutil.ToByte(float64(synth[i])*(1-w) + float64(r)*w)
	}
	return f.out
}

func (f *FrequencyFeed) synthetic(n int, elapsed float64) []uint8 {
	f.synth = sized(f.synth, n)
	return f.Synth.Fill(f.synth, elapsed)
}

// sized returns b when it already has length n, otherwise a fresh buffer.
func sized(b []uint8, n int) []uint8 {
	if len(b) != n {
		return make([]uint8, n)
	}
	return b
}
