// Package curated is a helper package for the plain Go error interface.
//
// Curated errors are created with Errorf(). This is similar to the Errorf()
// function in the fmt package: it takes a formatting pattern and placeholder
// values and returns an error, but it is also tagged with a Code drawn from
// a small fixed vocabulary of programmer-error conditions this module
// raises. Callers ask "was this error raised for reason X" with Is(err,
// CodeX) instead of matching against the formatted message text.
//
//	e := curated.Errorf(curated.CodeUninitialized, "cpu: Initialize called with a nil bus")
//	if curated.Is(e, curated.CodeUninitialized) { ... }
//
// Wrap() does the same but also records an underlying cause, reachable
// through errors.Unwrap and errors.Is/As against that cause's own type.
//
// This package exists for the handful of programmer-error conditions in
// this module that are not meant to be interpreted by the guest program:
// calling Initialize with a nil bus, and save-state streams too short to
// hold their version header.
// Faults that the emulated CPU itself is supposed to observe are captured
// into COP0 state, never returned as a Go error - see the cpu package.
package curated
