package session

type State int

const (
	StateIdle    State = iota
	StateLoading       // session is being constructed
	StateActive        // exactly one handle owned
	StateError         // construction failed; waiting for a retry
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Descriptor identifies a session in event payloads.
type Descriptor struct {
	Slug  string
	Title string
}

// ErrorInfo describes a failed session construction.
type ErrorInfo struct {
	Type    string // e.g. "import", "audio", "render"
	Message string
	Err     error
}

func (e ErrorInfo) Error() string {
	switch {
	case e.Message != "":
		return e.Type + ": " + e.Message
	case e.Err != nil:
		return e.Type + ": " + e.Err.Error()
	}
	return e.Type
}

func (e ErrorInfo) Unwrap() error { return e.Err }
