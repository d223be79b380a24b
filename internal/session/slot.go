package session

import (
	"fmt"
	"sync"
)

// The process-wide active handle, reachable by code that holds no runtime
// reference, e.g. an unload hook.
var slot struct {
	mu sync.Mutex
	h  *Handle
}

// Register publishes h as the process-wide active handle. Nil clears it.
func Register(h *Handle) {
	slot.mu.Lock()
	slot.h = h
	slot.mu.Unlock()
}

// Current returns the process-wide active handle, or nil.
func Current() *Handle {
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.h
}

// Unload disposes and clears the process-wide handle without going through
// a Runtime, e.g. from a crash or signal path. Panics in the teardown are
// returned as errors.
func Unload() (err error) {
	slot.mu.Lock()
	h := slot.h
	slot.h = nil
	slot.mu.Unlock()
	if !h.CanDispose() {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("unload: teardown panicked: %v", p)
		}
	}()
	if err := h.dispose(); err != nil {
		return fmt.Errorf("unload: %w", err)
	}
	return nil
}
