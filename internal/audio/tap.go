package audio

import "sync"

// Tap is a fixed-size ring of the most recent mono samples. Capture
// callbacks write into it and the analyser reads the newest window.
type Tap struct {
	mu   sync.Mutex
	buf  []float32
	head int // next write position
	full bool
}

func NewTap(size int) *Tap {
	return &Tap{buf: make([]float32, size)}
}

// Write appends samples, overwriting the oldest ones.
func (t *Tap) Write(samples []float32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.buf)
	if n == 0 {
		return
	}
	if len(samples) >= n {
		copy(t.buf, samples[len(samples)-n:])
		t.head = 0
		t.full = true
		return
	}
	for _, s := range samples {
		t.buf[t.head] = s
		t.head++
		if t.head == n {
			t.head = 0
			t.full = true
		}
	}
}

// Latest fills dst with the newest len(dst) samples, oldest first. Missing
// history is zero-filled at the front. It returns the number of real samples.
func (t *Tap) Latest(dst []float32) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.buf)
	avail := t.head
	if t.full {
		avail = n
	}
	want := min(len(dst), avail)
	pad := len(dst) - want
	clear(dst[:pad])
	start := t.head - want
	if start < 0 {
		start += n
	}
	for i := 0; i < want; i++ {
		dst[pad+i] = t.buf[(start+i)%n]
	}
	return want
}

// Reset drops all buffered samples.
func (t *Tap) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.buf)
	t.head = 0
	t.full = false
}
