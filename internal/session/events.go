package session

import "sync"

type LoadingEvent struct {
	Descriptor Descriptor
}

type ActiveEvent struct {
	Descriptor Descriptor
	Ref        any
	Container  any
}

type ErrorEvent struct {
	Descriptor Descriptor
	Error      ErrorInfo
}

type DisposedEvent struct {
	Reason     string
	Descriptor Descriptor
}

// listeners is a typed observer set.
type listeners[T any] struct {
	mu     sync.Mutex
	fns    map[int]func(T)
	nextID int
}

// add registers fn and returns its unsubscribe func.
func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.nextID
	l.nextID++
	l.fns[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners[T]) emit(ev T) {
	l.mu.Lock()
	fns := make([]func(T), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
