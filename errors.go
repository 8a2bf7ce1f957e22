package reactor

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrClosed is returned by Wait (and by a repeated Close) once the reactor
	// has been closed.
	ErrClosed = errors.New("reactor: reactor is closed")

	// ErrUnsupportedPlatform is returned by New on platforms without poll(2).
	ErrUnsupportedPlatform = errors.New("reactor: platform not supported")

	// ErrReentrantWait is returned when Wait is called from within a callback
	// dispatched by Wait.
	ErrReentrantWait = errors.New("reactor: cannot call Wait from within a callback")
)

// PollError reports a failure of the readiness-poll primitive. When Fd is
// non-negative it identifies the registered descriptor the kernel rejected,
// which the caller should unregister before calling Wait again.
type PollError struct {
	Err error
	Op  string
	Fd  int
}

// Error implements the error interface.
func (e *PollError) Error() string {
	if e.Fd >= 0 {
		return fmt.Sprintf("reactor: %s fd %d: %v", e.Op, e.Fd, e.Err)
	}
	return fmt.Sprintf("reactor: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *PollError) Unwrap() error {
	return e.Err
}

// CallbackError wraps an error returned by a dispatched callback, recording
// which registration produced it. Fd is -1 for timers, Timer is the zero
// TimerID for I/O callbacks.
type CallbackError struct {
	Err   error
	Timer TimerID
	Fd    int
	Kind  Kind
}

// Error implements the error interface.
func (e *CallbackError) Error() string {
	if e.Kind == KindTimer {
		return fmt.Sprintf("reactor: %s callback %s: %v", e.Kind, e.Timer, e.Err)
	}
	return fmt.Sprintf("reactor: %s callback fd %d: %v", e.Kind, e.Fd, e.Err)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *CallbackError) Unwrap() error {
	return e.Err
}
