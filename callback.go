package reactor

import "fmt"

// Callback is invoked by Wait when the registration it belongs to is ready.
// A non-nil error aborts the current dispatch pass and is returned by Wait,
// wrapped in a [*CallbackError].
type Callback func() error

// Func adapts a function that cannot fail into a Callback.
func Func(fn func()) Callback {
	if fn == nil {
		return nil
	}
	return func() error {
		fn()
		return nil
	}
}

// Kind identifies the table a callback was registered in.
type Kind uint8

const (
	// KindReader is the readable-interest set.
	KindReader Kind = iota + 1
	// KindWriter is the writable-interest set.
	KindWriter
	// KindError is the exceptional-condition set.
	KindError
	// KindTimer is the timer table.
	KindTimer
)

// String returns the lowercase name of the kind, as used in metrics.
func (k Kind) String() string {
	switch k {
	case KindReader:
		return "reader"
	case KindWriter:
		return "writer"
	case KindError:
		return "error"
	case KindTimer:
		return "timer"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}
