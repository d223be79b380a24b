package audio

import (
	"testing"
	"time"
)

type silentStream struct{ toneStream }

func (s *silentStream) Samples(dst []float32) int {
	clear(dst)
	return len(dst)
}

func TestAnalyserFindsTone(t *testing.T) {
	// 1000 Hz at 8000 Hz sample rate with a 256-point FFT lands in bin 32.
	stream := &toneStream{rate: 8000, freq: 1000, amp: 0.5}
	a := NewAnalyser(stream, AnalyserOptions{FFTSize: 256})

	var bins []uint8
	for i := 0; i < 10; i++ {
		bins = a.FrequencyData(bins)
	}
	if len(bins) != 128 || a.BinCount() != 128 {
		t.Fatalf("expected 128 bins, got %d", len(bins))
	}
	peak := 0
	for k := range bins {
		if bins[k] > bins[peak] {
			peak = k
		}
	}
	if peak < 31 || peak > 33 {
		t.Fatalf("expected peak near bin 32, got %d", peak)
	}
	if bins[peak] < 200 {
		t.Fatalf("expected a strong peak, got %d", bins[peak])
	}
	if bins[100] >= bins[peak] {
		t.Fatalf("expected bin 100 (%d) below the peak (%d)", bins[100], bins[peak])
	}

	level := a.Level()
	if level < 0.3 || level > 0.4 {
		t.Fatalf("expected RMS near 0.354, got %g", level)
	}
	if a.Average() <= 0 {
		t.Fatal("expected a positive average")
	}
	if b := a.Bands(); b.Mid <= 0 {
		t.Fatalf("expected mid energy for a 1 kHz tone, got %+v", b)
	}
}

func TestAnalyserReusesBuffer(t *testing.T) {
	a := NewAnalyser(&toneStream{rate: 8000, freq: 500, amp: 0.2}, AnalyserOptions{FFTSize: 64})
	buf := a.FrequencyData(nil)
	again := a.FrequencyData(buf)
	if &buf[0] != &again[0] {
		t.Fatal("expected the buffer to be reused when the size is unchanged")
	}

	a.SetFFTSize(128)
	resized := a.FrequencyData(again)
	if len(resized) != 64 {
		t.Fatalf("expected 64 bins after resize, got %d", len(resized))
	}
	if &resized[0] == &again[0] {
		t.Fatal("expected a new buffer after a size change")
	}
}

func TestAnalyserSilence(t *testing.T) {
	a := NewAnalyser(&silentStream{}, AnalyserOptions{})
	bins := a.FrequencyData(nil)
	if Mean(bins) != 0 {
		t.Fatalf("expected silent bins, got mean %g", Mean(bins))
	}
	if a.Level() != 0 {
		t.Fatalf("expected zero level, got %g", a.Level())
	}
}

func TestTapLatest(t *testing.T) {
	tap := NewTap(4)
	dst := make([]float32, 3)
	if n := tap.Latest(dst); n != 0 {
		t.Fatalf("expected no samples, got %d", n)
	}

	tap.Write([]float32{1, 2})
	n := tap.Latest(dst)
	if n != 2 || dst[0] != 0 || dst[1] != 1 || dst[2] != 2 {
		t.Fatalf("unexpected window %v (%d)", dst, n)
	}

	tap.Write([]float32{3, 4, 5})
	tap.Latest(dst)
	if dst[0] != 3 || dst[1] != 4 || dst[2] != 5 {
		t.Fatalf("unexpected window after wrap %v", dst)
	}

	tap.Write([]float32{6, 7, 8, 9, 10})
	all := make([]float32, 4)
	tap.Latest(all)
	if all[0] != 7 || all[3] != 10 {
		t.Fatalf("unexpected window after overflow %v", all)
	}

	tap.Reset()
	if n := tap.Latest(all); n != 0 {
		t.Fatalf("expected empty after reset, got %d", n)
	}
}

func TestDemoStreamAdvancesWithClock(t *testing.T) {
	now := time.Unix(0, 0)
	s := newDemoStream(NewDemoTrack(SampleRate, 1), func() time.Time { return now })
	dst := make([]float32, 512)
	if n := s.Samples(dst); n != 0 {
		t.Fatalf("expected no samples before time passes, got %d", n)
	}

	now = now.Add(50 * time.Millisecond)
	if n := s.Samples(dst); n != len(dst) {
		t.Fatalf("expected a full window, got %d", n)
	}
	nonzero := false
	for _, v := range dst {
		if v < -1 || v > 1 {
			t.Fatalf("sample %g out of range", v)
		}
		if v != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Fatal("expected audible demo output")
	}

	s.Suspend()
	before := make([]float32, 512)
	s.Samples(before)
	now = now.Add(50 * time.Millisecond)
	after := make([]float32, 512)
	s.Samples(after)
	for i := range before {
		if before[i] != after[i] {
			t.Fatal("expected a suspended stream to stop advancing")
		}
	}
}

func TestDemoStreamRead(t *testing.T) {
	s := newDemoStream(NewDemoTrack(SampleRate, 1), time.Now)
	p := make([]byte, 8*256)
	n, err := s.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
	dst := make([]float32, 256)
	if got := s.tap.Latest(dst); got != 256 {
		t.Fatalf("expected the read to feed the tap, got %d", got)
	}
}
