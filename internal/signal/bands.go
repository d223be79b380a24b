package signal

import (
	"time"

	"pulse/internal/mathutil"
)

// BandEnergy is a three-band level summary, each band in [0, 1].
type BandEnergy struct {
	Bass   float64
	Mid    float64
	Treble float64
}

// Reading is the result of one tracker update.
type Reading struct {
	Energy BandEnergy
	IsBeat bool
}

// TrackerOptions tunes smoothing and beat detection.
type TrackerOptions struct {
	Smoothing       float64 // weight of the new sample, (0, 1]
	BeatThreshold   float64 // raw bass level that counts as a beat
	MinBeatInterval time.Duration
}

// Tracker smooths raw band levels and detects bass beats.
type Tracker struct {
	opts     TrackerOptions
	energy   BandEnergy
	primed   bool
	lastBeat time.Duration
	beaten   bool
}

func NewTracker(opts TrackerOptions) *Tracker {
	if opts.Smoothing <= 0 || opts.Smoothing > 1 {
		opts.Smoothing = 1
	}
	return &Tracker{opts: opts}
}

// Update folds raw levels sampled at now into the smoothed energy.
// Beats are detected on the raw bass level, at most one per MinBeatInterval.
func (t *Tracker) Update(raw BandEnergy, now time.Duration) Reading {
	raw = BandEnergy{
		Bass:   mathutil.ClampF(raw.Bass, 0, 1),
		Mid:    mathutil.ClampF(raw.Mid, 0, 1),
		Treble: mathutil.ClampF(raw.Treble, 0, 1),
	}
	if !t.primed {
		t.energy = raw
		t.primed = true
	} else {
		a := t.opts.Smoothing
		t.energy = BandEnergy{
			Bass:   t.energy.Bass + (raw.Bass-t.energy.Bass)*a,
			Mid:    t.energy.Mid + (raw.Mid-t.energy.Mid)*a,
			Treble: t.energy.Treble + (raw.Treble-t.energy.Treble)*a,
		}
	}

	beat := false
	if raw.Bass >= t.opts.BeatThreshold && (!t.beaten || now-t.lastBeat >= t.opts.MinBeatInterval) {
		beat = true
		t.beaten = true
		t.lastBeat = now
	}
	return Reading{Energy: t.energy, IsBeat: beat}
}

// Energy returns the current smoothed levels.
func (t *Tracker) Energy() BandEnergy { return t.energy }

// Reset forgets all history.
func (t *Tracker) Reset() {
	*t = Tracker{opts: t.opts}
}

// BandsFromBins summarizes byte frequency bins into bass, mid and treble.
// Bass is the lowest tenth of the spectrum, mid runs to the halfway bin.
func BandsFromBins(bins []uint8) BandEnergy {
	n := len(bins)
	if n == 0 {
		return BandEnergy{}
	}
	bassEnd := max(1, n/10)
	midEnd := max(bassEnd+1, n/2)
	return BandEnergy{
		Bass:   meanBins(bins, 0, bassEnd),
		Mid:    meanBins(bins, bassEnd, midEnd),
		Treble: meanBins(bins, midEnd, n),
	}
}

func meanBins(bins []uint8, lo, hi int) float64 {
	hi = min(hi, len(bins))
	if hi <= lo {
		return 0
	}
	sum := 0
	for _, v := range bins[lo:hi] {
		sum += int(v)
	}
	return float64(sum) / float64(hi-lo) / 255
}
