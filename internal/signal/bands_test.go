package signal

import (
	"math"
	"testing"
	"time"
)

func TestTrackerBeatInterval(t *testing.T) {
	tr := NewTracker(TrackerOptions{Smoothing: 0.35, BeatThreshold: 0.45, MinBeatInterval: 150 * time.Millisecond})

	first := tr.Update(BandEnergy{Bass: 0.5}, 0)
	second := tr.Update(BandEnergy{Bass: 0.5}, 50*time.Millisecond)
	if !first.IsBeat {
		t.Fatal("expected first sample to be a beat")
	}
	if second.IsBeat {
		t.Fatal("expected second sample inside the interval to be suppressed")
	}
	third := tr.Update(BandEnergy{Bass: 0.5}, 200*time.Millisecond)
	if !third.IsBeat {
		t.Fatal("expected a beat once the interval elapsed")
	}
}

func TestTrackerBelowThreshold(t *testing.T) {
	tr := NewTracker(TrackerOptions{Smoothing: 0.5, BeatThreshold: 0.45, MinBeatInterval: 150 * time.Millisecond})
	if r := tr.Update(BandEnergy{Bass: 0.44}, 0); r.IsBeat {
		t.Fatal("expected no beat below threshold")
	}
}

func TestTrackerSmoothing(t *testing.T) {
	tr := NewTracker(TrackerOptions{Smoothing: 0.5, BeatThreshold: 2})
	tr.Update(BandEnergy{Bass: 0, Mid: 1, Treble: 0.5}, 0)
	r := tr.Update(BandEnergy{Bass: 1, Mid: 0, Treble: 0.5}, time.Millisecond)

	want := BandEnergy{Bass: 0.5, Mid: 0.5, Treble: 0.5}
	if math.Abs(r.Energy.Bass-want.Bass) > 1e-9 || math.Abs(r.Energy.Mid-want.Mid) > 1e-9 || math.Abs(r.Energy.Treble-want.Treble) > 1e-9 {
		t.Fatalf("expected %+v, got %+v", want, r.Energy)
	}
	if tr.Energy() != r.Energy {
		t.Fatal("Energy() should report the last reading")
	}

	tr.Reset()
	if tr.Energy() != (BandEnergy{}) {
		t.Fatalf("expected zero energy after reset, got %+v", tr.Energy())
	}
}

func TestTrackerClampsInput(t *testing.T) {
	tr := NewTracker(TrackerOptions{Smoothing: 1, BeatThreshold: 0.9})
	r := tr.Update(BandEnergy{Bass: 3, Mid: -1, Treble: 0.2}, 0)
	if r.Energy.Bass != 1 || r.Energy.Mid != 0 {
		t.Fatalf("expected clamped energy, got %+v", r.Energy)
	}
}

func TestBandsFromBins(t *testing.T) {
	bins := make([]uint8, 20)
	for i := range bins {
		switch {
		case i < 2:
			bins[i] = 255
		case i < 10:
			bins[i] = 51
		}
	}
	got := BandsFromBins(bins)
	if got.Bass != 1 {
		t.Errorf("expected bass 1, got %g", got.Bass)
	}
	if math.Abs(got.Mid-0.2) > 1e-9 {
		t.Errorf("expected mid 0.2, got %g", got.Mid)
	}
	if got.Treble != 0 {
		t.Errorf("expected treble 0, got %g", got.Treble)
	}
	if BandsFromBins(nil) != (BandEnergy{}) {
		t.Error("expected zero bands for empty input")
	}
}
