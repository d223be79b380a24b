package audio

import (
	"errors"
	"fmt"
)

// Reason classifies why an audio source could not be acquired. The string
// values are stable; status UIs map them to guidance text.
type Reason string

const (
	ReasonUnsupported Reason = "unsupported"
	ReasonDenied      Reason = "denied"
	ReasonTimeout     Reason = "timeout"
	ReasonUnavailable Reason = "unavailable"
)

// Sentinels for errors.Is; they match any AccessError with the same reason.
var (
	ErrUnsupported = &AccessError{Reason: ReasonUnsupported}
	ErrDenied      = &AccessError{Reason: ReasonDenied}
	ErrTimeout     = &AccessError{Reason: ReasonTimeout}
	ErrUnavailable = &AccessError{Reason: ReasonUnavailable}
)

// ErrCaptureDenied is returned by capturers when the platform refused access
// to the input device.
var ErrCaptureDenied = errors.New("capture denied")

// AccessError is a classified acquisition failure.
type AccessError struct {
	Reason  Reason
	Message string
	Cause   error
}

func (e *AccessError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "audio source " + string(e.Reason)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *AccessError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an AccessError with the same reason.
func (e *AccessError) Is(target error) bool {
	if t, ok := target.(*AccessError); ok {
		return e.Reason == t.Reason
	}
	return false
}

func newAccessError(reason Reason, message string, cause error) *AccessError {
	return &AccessError{Reason: reason, Message: message, Cause: cause}
}

// ReasonOf extracts the reason from err, or "" if err is not an AccessError.
func ReasonOf(err error) Reason {
	var ae *AccessError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
