package controller

// Button identifies one digital input. Its numeric value is the bit
// position within the active-low 16-bit button mask - except Analog, which
// carries no mask bit at all and only queues a mode toggle.
type Button uint8

// The full digital button set. Bit order matches the PSX pad's wire layout:
// byte 0 holds Select..Left, byte 1 holds L2..Square.
const (
	ButtonSelect Button = iota
	ButtonL3
	ButtonR3
	ButtonStart
	ButtonUp
	ButtonRight
	ButtonDown
	ButtonLeft
	ButtonL2
	ButtonR2
	ButtonL1
	ButtonR1
	ButtonTriangle
	ButtonCircle
	ButtonCross
	ButtonSquare
	ButtonAnalog
)

// Axis identifies one of the four analog stick axes, each reported as a
// single byte scaled from a -1..1 float input.
type Axis uint8

const (
	AxisRightX Axis = iota
	AxisRightY
	AxisLeftX
	AxisLeftY
	axisCount
)
