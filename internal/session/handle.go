package session

import "io"

// Candidate is what a session constructor hands to SetActiveSession: either
// a Callable or a Disposable.
type Candidate interface {
	handle() *Handle
}

// Callable is a bare teardown function. It is both the ref and its own dispose.
type Callable func()

func (c Callable) handle() *Handle {
	if c == nil {
		return nil
	}
	return &Handle{Ref: c, dispose: func() error {
		c()
		return nil
	}}
}

// Disposable is a session object with an optional teardown.
type Disposable struct {
	Ref     any
	Dispose func() error
}

// A zero Disposable is treated like a nil candidate.
func (d Disposable) handle() *Handle {
	if d.Ref == nil && d.Dispose == nil {
		return nil
	}
	return &Handle{Ref: d.Ref, dispose: d.Dispose}
}

// FromValue resolves a dynamically typed session value into a Candidate.
// It returns nil for a nil value.
func FromValue(v any) Candidate {
	switch v := v.(type) {
	case nil:
		return nil
	case Candidate:
		return v
	case func():
		return Callable(v)
	case func() error:
		return Disposable{Ref: v, Dispose: v}
	case interface{ Dispose() error }:
		return Disposable{Ref: v, Dispose: v.Dispose}
	case interface{ Dispose() }:
		return Disposable{Ref: v, Dispose: func() error {
			v.Dispose()
			return nil
		}}
	case io.Closer:
		return Disposable{Ref: v, Dispose: v.Close}
	}
	return Disposable{Ref: v}
}

// Handle is the normalized form of an active session.
type Handle struct {
	Ref     any
	dispose func() error
}

// CanDispose reports whether the handle carries a teardown.
func (h *Handle) CanDispose() bool {
	return h != nil && h.dispose != nil
}
