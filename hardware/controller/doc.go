// Package controller implements the byte-granular serial state machine for
// the dual-mode (digital/analog) gamepad. Every exchange with the outer
// serial interface is a single transfer(byte_in) -> (byte_out, ack) call;
// the controller advances exactly one step in a command-specific reply
// sequence per call, selected by whatever command byte it saw while in its
// Idle state. It also owns the digital/analog toggle, the configuration-mode
// commands that query and alter controller behaviour, and a small rumble
// subsystem that two generations of games address in two incompatible ways.
package controller
