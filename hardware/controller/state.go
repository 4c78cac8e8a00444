package controller

import "github.com/kestrel-emu/gopsx/savestate"

// DoState serializes the controller's full runtime state. Several fields
// were added to the original format after it was already in the field -
// the button mask at schema version 44, the rumble map/indices/toggle-queue
// at version 45 - so those use the Ex variants and fall back to the stated
// defaults when reading an older stream. It returns the stream's version
// tag and a validity flag, matching cpu.CPU.DoState's contract.
func (c *AnalogController) DoState(s *savestate.State) (int, bool) {
	s.DoBool(&c.analogMode)
	s.DoBool(&c.rumbleUnlocked)
	s.DoBoolEx(&c.legacyRumbleUnlocked, 44, false)
	s.DoBool(&c.configurationMode)
	s.DoU8(&c.commandParam)

	buttonState := c.buttonState
	s.DoU16Ex(&buttonState, 44, 0xFFFF)
	if s.Mode() == savestate.ModeRead {
		c.buttonState = buttonState
	}

	stateValue := int32(c.state)
	s.DoI32(&stateValue)
	if s.Mode() == savestate.ModeRead {
		c.state = fsmState(stateValue)
	}

	s.DoBytesEx(c.rumbleConfig[:], 45, 0xFF)
	s.DoI8Ex(&c.largeMotorIndex, 45, -1)
	s.DoI8Ex(&c.smallMotorIndex, 45, -1)
	s.DoBoolEx(&c.analogToggleQueued, 45, false)

	s.DoU8(&c.motorState[motorLarge])
	s.DoU8(&c.motorState[motorSmall])

	return int(s.Version()), s.OK()
}
