package spectrum

import (
	"context"

	"pulse/internal/session"
)

// Mount runs one loading cycle on rt: the previous session is disposed, a
// new one is started on host and handed to rt, or the failure is reported
// through rt.SetError.
func Mount(ctx context.Context, rt *session.Runtime, host Host, opts Options, onBack func()) (*Session, error) {
	rt.Dispose("swap")
	rt.StartLoading(session.Descriptor{Slug: opts.Config.Slug, Title: opts.Config.Title}, onBack)
	rt.SetContainer(host)

	s := New(host, opts)
	if err := s.Start(ctx); err != nil {
		s.Dispose()
		rt.SetError(session.ErrorInfo{Type: ErrorType(err), Message: err.Error(), Err: err})
		return nil, err
	}
	rt.SetActiveSession(session.Disposable{Ref: s, Dispose: s.Dispose})
	return s, nil
}
