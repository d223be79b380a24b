// Package frames paces the per-frame work of a host loop: the animation
// driver installed by the clock and the input passes requested by the
// aggregator.
package frames

import (
	"sync"
	"time"
)

// Pacer implements anim.Renderer and input.FrameScheduler for hosts that
// own a single frame loop. Callbacks always run from Tick.
type Pacer struct {
	mu      sync.Mutex
	frame   func()
	pending []func(time.Duration)
	running []func(time.Duration)
}

func (p *Pacer) SetFrameCallback(fn func()) {
	p.mu.Lock()
	p.frame = fn
	p.mu.Unlock()
}

func (p *Pacer) ClearFrameCallback() {
	p.mu.Lock()
	p.frame = nil
	p.mu.Unlock()
}

// RequestFrame queues fn for the next Tick.
func (p *Pacer) RequestFrame(fn func(now time.Duration)) {
	p.mu.Lock()
	p.pending = append(p.pending, fn)
	p.mu.Unlock()
}

// Idle reports whether the next Tick would do nothing, so the host may
// block on events instead of spinning.
func (p *Pacer) Idle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame == nil && len(p.pending) == 0
}

// Tick runs the queued input passes, then the animation driver. It reports
// whether the driver ran.
func (p *Pacer) Tick(now time.Duration) bool {
	p.mu.Lock()
	p.running, p.pending = p.pending, p.running[:0]
	run := p.running
	p.mu.Unlock()

	for i, fn := range run {
		fn(now)
		run[i] = nil
	}

	p.mu.Lock()
	frame := p.frame
	p.mu.Unlock()
	if frame == nil {
		return false
	}
	frame()
	return true
}
