package audio

import (
	"math"
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"pulse/internal/mathutil"
	"pulse/internal/signal"
)

// Analyser defaults follow the usual byte-frequency conventions.
const (
	DefaultFFTSize     = 256
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

// AnalyserOptions tunes the spectrum estimate.
type AnalyserOptions struct {
	FFTSize     int     // power of two; BinCount is FFTSize/2
	Smoothing   float64 // time constant in [0, 1)
	MinDecibels float64
	MaxDecibels float64
}

func (o AnalyserOptions) withDefaults() AnalyserOptions {
	if o.FFTSize <= 0 {
		o.FFTSize = DefaultFFTSize
	}
	if o.Smoothing < 0 || o.Smoothing >= 1 {
		o.Smoothing = DefaultSmoothing
	}
	if o.MinDecibels == 0 && o.MaxDecibels == 0 {
		o.MinDecibels, o.MaxDecibels = DefaultMinDecibels, DefaultMaxDecibels
	}
	return o
}

// Analyser turns the newest window of a stream into byte frequency bins,
// an RMS level and a three-band summary.
type Analyser struct {
	mu     sync.Mutex
	stream Stream
	opts   AnalyserOptions

	fft    *fourier.FFT
	window []float64
	raw    []float32
	work   []float64
	coeffs []complex128
	smooth []float64
	last   []uint8
}

func NewAnalyser(stream Stream, opts AnalyserOptions) *Analyser {
	a := &Analyser{stream: stream}
	a.configure(opts.withDefaults())
	return a
}

func (a *Analyser) configure(opts AnalyserOptions) {
	n := opts.FFTSize
	a.opts = opts
	a.fft = fourier.NewFFT(n)
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	a.window = window.Hann(ones)
	a.raw = make([]float32, n)
	a.work = make([]float64, n)
	a.coeffs = make([]complex128, n/2+1)
	a.smooth = make([]float64, n/2)
	a.last = make([]uint8, n/2)
}

// SetFFTSize changes the analysis size, which changes BinCount.
func (a *Analyser) SetFFTSize(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n == a.opts.FFTSize || n <= 0 {
		return
	}
	opts := a.opts
	opts.FFTSize = n
	a.configure(opts)
}

// BinCount is the number of frequency bins FrequencyData produces.
func (a *Analyser) BinCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opts.FFTSize / 2
}

// FrequencyData writes the current spectrum into dst, reallocating only when
// its length differs from BinCount, and returns the filled slice.
func (a *Analyser) FrequencyData(dst []uint8) []uint8 {
	a.mu.Lock()
	defer a.mu.Unlock()
	bins := a.opts.FFTSize / 2
	if len(dst) != bins {
		dst = make([]uint8, bins)
	}

	a.stream.Samples(a.raw)
	for i, s := range a.raw {
		a.work[i] = float64(s) * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.work)

	tau := a.opts.Smoothing
	span := a.opts.MaxDecibels - a.opts.MinDecibels
	scale := 1 / float64(a.opts.FFTSize)
	for k := 0; k < bins; k++ {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.smooth[k] = tau*a.smooth[k] + (1-tau)*mag
		if a.smooth[k] <= 0 {
			dst[k] = 0
			continue
		}
		db := 20 * math.Log10(a.smooth[k])
		dst[k] = mathutil.ToByte((db - a.opts.MinDecibels) / span * 255)
	}
	copy(a.last, dst)
	return dst
}

// Level returns the RMS of the newest sample window, in [0, 1].
func (a *Analyser) Level() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stream.Samples(a.raw)
	var sum float64
	for _, s := range a.raw {
		sum += float64(s) * float64(s)
	}
	return mathutil.ClampF(math.Sqrt(sum/float64(len(a.raw))), 0, 1)
}

// Average is the mean of the most recent FrequencyData result.
func (a *Analyser) Average() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Mean(a.last)
}

// Bands summarizes the most recent FrequencyData result.
func (a *Analyser) Bands() signal.BandEnergy {
	a.mu.Lock()
	defer a.mu.Unlock()
	return signal.BandsFromBins(a.last)
}

// Mean returns the arithmetic mean of the bins, 0 for an empty slice.
func Mean(bins []uint8) float64 {
	if len(bins) == 0 {
		return 0
	}
	sum := 0
	for _, v := range bins {
		sum += int(v)
	}
	return float64(sum) / float64(len(bins))
}
