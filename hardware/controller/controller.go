package controller

import (
	"github.com/kestrel-emu/gopsx/notifications"
)

const (
	motorLarge = 0
	motorSmall = 1
	numMotors  = 2
)

// Identifier bytes returned as the low/high byte pair of every top-level
// command, selected by whichever mode the controller currently reports.
const (
	idDigital = 0x5A41
	idAnalog  = 0x5A73
	idConfig  = 0x5AF3
)

// AnalogController is a dual-mode (digital/analog) gamepad's serial front
// end: a byte-granular state machine that answers the outer SIO one byte
// at a time, plus the button/axis sampling and rumble bookkeeping that
// feeds it.
type AnalogController struct {
	notify notifications.Notify
	cfg    Config

	state fsmState

	analogMode        bool
	analogLocked      bool
	configurationMode bool
	commandParam      uint8

	buttonState uint16 // active low: 0 bit means pressed
	axisState   [axisCount]uint8

	analogToggleQueued bool

	rumbleUnlocked       bool
	legacyRumbleUnlocked bool
	rumbleConfig         [6]uint8
	largeMotorIndex      int8
	smallMotorIndex      int8
	motorState           [numMotors]uint8
}

// NewAnalogController is the preferred method of initialisation. notify may
// be nil; a nil sink simply discards every notice the controller raises.
func NewAnalogController(cfg Config, notify notifications.Notify) *AnalogController {
	cfg.Normalize()

	c := &AnalogController{cfg: cfg, notify: notify}
	for i := range c.axisState {
		c.axisState[i] = 0x80
	}

	if cfg.ForceAnalogOnReset && cfg.DisableAnalogModeForcing {
		c.notifyNotice(notifications.NoticeAnalogModeForcingDisabled)
	}

	c.Reset()
	return c
}

func (c *AnalogController) notifyNotice(n notifications.Notice) {
	if c.notify != nil {
		c.notify.Notify(n)
	}
}

// Reset returns the controller to its power-on state: Idle, digital mode
// (unless the host configuration forces analog and isn't itself
// overridden), rumble cleared, configuration mode left.
func (c *AnalogController) Reset() {
	c.state = stateIdle
	c.analogMode = false
	c.configurationMode = false
	c.commandParam = 0
	c.motorState = [numMotors]uint8{}

	c.resetRumbleConfig()

	if c.cfg.ForceAnalogOnReset && !c.cfg.DisableAnalogModeForcing {
		c.setAnalogMode(true)
	}
}

func (c *AnalogController) setAnalogMode(enabled bool) {
	if c.analogMode == enabled {
		return
	}
	c.analogMode = enabled
	c.notifyNotice(notifications.NoticeAnalogModeChanged)
}

// SetButtonState updates the active-low button mask, except Button::Analog
// which only queues a mode toggle for the next ResetTransferState call.
func (c *AnalogController) SetButtonState(button Button, pressed bool) {
	if button == ButtonAnalog {
		if pressed {
			c.analogToggleQueued = true
		}
		return
	}

	bit := uint16(1) << uint8(button)
	if pressed {
		c.buttonState &^= bit
	} else {
		c.buttonState |= bit
	}
}

// SetAxisState records a stick axis sample, scaled by the configured
// AxisScale and mapped from -1..1 into 0..255.
func (c *AnalogController) SetAxisState(axis Axis, value float32) {
	if axis >= axisCount {
		return
	}

	scaled := value * c.cfg.AxisScale
	if scaled > 1 {
		scaled = 1
	} else if scaled < -1 {
		scaled = -1
	}

	v := ((scaled + 1) / 2) * 255
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	c.axisState[axis] = uint8(v)
}

// ResetTransferState is called by the outer serial controller between
// selection frames, i.e. whenever chip-select deasserts. If the player
// queued a mode toggle since the last frame, it is applied now - unless
// the controller is locked into its current mode, in which case the toggle
// is discarded and a notice raised instead.
func (c *AnalogController) ResetTransferState() {
	if c.analogToggleQueued {
		if c.analogLocked {
			c.notifyNotice(notifications.NoticeAnalogToggleBlocked)
		} else {
			c.setAnalogMode(!c.analogMode)
			c.resetRumbleConfig()
		}
		c.analogToggleQueued = false
	}
	c.state = stateIdle
}

// Transfer advances the state machine by one serial byte, returning the
// byte the controller answers with and whether the frame continues.
// Unknown commands while Idle are ignored, not reported as an error: the
// controller simply returns 0xFF with ack clear, per real hardware.
func (c *AnalogController) Transfer(byteIn uint8) (byteOut uint8, ack bool) {
	h, ok := stateHandlers[c.state]
	if !ok {
		c.state = stateIdle
		return 0xFF, false
	}

	out, ack, next := h(c, byteIn)
	c.state = next
	return out, ack
}

// GetID returns the 16-bit identifier the controller would report for the
// two ID bytes of its current command reply, in host byte order (the wire
// format sends the low byte first).
func (c *AnalogController) GetID() uint16 {
	if c.configurationMode {
		return idConfig
	}
	if c.analogMode {
		return idAnalog
	}
	return idDigital
}

// GetButtonState returns the button mask in active-high form: a set bit
// means the button is currently pressed.
func (c *AnalogController) GetButtonState() uint16 {
	return c.buttonState ^ 0xFFFF
}

// GetAxisState returns the raw 0..255 sample last recorded for axis.
func (c *AnalogController) GetAxisState(axis Axis) uint8 {
	if axis >= axisCount {
		return 0
	}
	return c.axisState[axis]
}

// extraButtonMaskLSB computes the AND-mask applied to the buttons-LSB reply
// byte when AnalogDPadInDigitalMode substitutes the left stick for the
// d-pad. It is all-ones (no effect) unless the controller is in digital,
// non-configuration mode.
func (c *AnalogController) extraButtonMaskLSB() uint8 {
	if !c.cfg.AnalogDPadInDigitalMode || c.analogMode || c.configurationMode {
		return 0xFF
	}

	const negThreshold = 64
	const posThreshold = 192

	left := c.axisState[AxisLeftX] <= negThreshold
	right := c.axisState[AxisLeftX] >= posThreshold
	up := c.axisState[AxisLeftY] <= negThreshold
	down := c.axisState[AxisLeftY] >= posThreshold

	var bits uint8
	if left {
		bits |= 1 << uint8(ButtonLeft)
	}
	if right {
		bits |= 1 << uint8(ButtonRight)
	}
	if up {
		bits |= 1 << uint8(ButtonUp)
	}
	if down {
		bits |= 1 << uint8(ButtonDown)
	}
	return ^bits
}

func (c *AnalogController) resetRumbleConfig() {
	c.legacyRumbleUnlocked = false
	c.rumbleUnlocked = false
	for i := range c.rumbleConfig {
		c.rumbleConfig[i] = 0xFF
	}
	c.largeMotorIndex = -1
	c.smallMotorIndex = -1
	c.setMotorState(motorLarge, 0)
	c.setMotorState(motorSmall, 0)
}

func (c *AnalogController) setMotorState(motor int, value uint8) {
	c.motorState[motor] = value
}

// setMotorStateForConfigIndex applies a poll-byte value to whichever motor
// (if any) the new-style rumble unlock assigned to this byte position. The
// small motor only ever takes a boolean value from its low bit; the large
// motor takes the byte directly as an intensity.
func (c *AnalogController) setMotorStateForConfigIndex(index int, value uint8) {
	switch {
	case int(c.smallMotorIndex) == index:
		c.setMotorState(motorSmall, ifU8(value&0x01 != 0, 255, 0))
	case int(c.largeMotorIndex) == index:
		c.setMotorState(motorLarge, value)
	}
}

// VibrationStrength returns motor's current intensity run through the
// cubic conditioning curve used to compensate for a well-known XInput
// adapter's linear-to-physical motor response, biased by VibrationBias and
// normalized to 0..1.
func (c *AnalogController) VibrationStrength(motor int) float64 {
	if c.motorState[motor] == 0 {
		return 0
	}

	x := float64(c.motorState[motor]) + float64(c.cfg.VibrationBias)
	if x > 255 {
		x = 255
	}

	strength := 0.006474549734772402*x*x*x - 1.258165252213538*x*x + 156.82454281087692*x
	return strength / 65535
}
