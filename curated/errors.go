package curated

import "fmt"

// Code classifies a curated error by the programmer-error condition it
// represents, the same role COP0's Excode plays for the CPU's own
// exceptions: a fixed, small vocabulary callers can switch on instead of
// matching against formatted message text.
type Code uint8

const (
	// CodeUninitialized marks an Initialize call that could not bind the
	// CPU to a bus because the bus given was nil.
	CodeUninitialized Code = iota + 1

	// CodeSaveStateTruncated marks a save-state stream too short to hold
	// its version header. A stream that runs out during a DoState call is
	// reported through that call's validity flag instead.
	CodeSaveStateTruncated
)

// curated is an implementation of the go language error interface.
type curated struct {
	code    Code
	message string
	wrapped error
}

// Errorf creates a new curated error tagged with code. The message is
// formatted immediately, unlike fmt.Errorf's lazy %w handling, since this
// package's callers care about the code for classification and the
// message only for logging.
func Errorf(code Code, format string, values ...interface{}) error {
	return curated{code: code, message: fmt.Sprintf(format, values...)}
}

// Wrap creates a curated error tagged with code that also carries err as
// its cause, reachable through Unwrap.
func Wrap(code Code, err error, format string, values ...interface{}) error {
	return curated{code: code, message: fmt.Sprintf(format, values...), wrapped: err}
}

// Error implements the go language error interface.
func (e curated) Error() string {
	if e.wrapped != nil {
		return e.message + ": " + e.wrapped.Error()
	}
	return e.message
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e curated) Unwrap() error {
	return e.wrapped
}

// Is reports whether err is a curated error tagged with code, looking
// through any chain of wrapped curated errors.
func Is(err error, code Code) bool {
	for err != nil {
		if e, ok := err.(curated); ok {
			if e.code == code {
				return true
			}
			err = e.wrapped
			continue
		}
		return false
	}
	return false
}
