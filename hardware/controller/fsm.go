package controller

// fsmState names one position in the controller's per-command reply
// sequence. The source this is grounded on assembles its equivalent switch
// from three repeated preprocessor macros (a fixed-byte reply, an ID-MSB
// step, and a rumble-config read/write step); here those three shapes
// become three handler constructors instead, and every state's transition
// lives as one entry in stateHandlers rather than one macro-expanded case.
type fsmState int

const (
	stateIdle fsmState = iota

	stateGetStateIDMSB
	stateGetStateButtonsLSB
	stateGetStateButtonsMSB
	stateGetStateRightAxisX
	stateGetStateRightAxisY
	stateGetStateLeftAxisX
	stateGetStateLeftAxisY

	stateConfigModeIDMSB
	stateConfigModeSetMode

	stateSetAnalogModeIDMSB
	stateSetAnalogModeVal
	stateSetAnalogModeSel

	stateGetAnalogModeIDMSB
	stateGetAnalogMode1
	stateGetAnalogMode2
	stateGetAnalogMode3
	stateGetAnalogMode4
	stateGetAnalogMode5
	stateGetAnalogMode6

	stateCommand46IDMSB
	stateCommand461
	stateCommand462
	stateCommand463
	stateCommand464
	stateCommand465
	stateCommand466

	stateCommand47IDMSB
	stateCommand471
	stateCommand472
	stateCommand473
	stateCommand474
	stateCommand475
	stateCommand476

	stateCommand4CIDMSB
	stateCommand4CMode
	stateCommand4C1
	stateCommand4C2
	stateCommand4C3
	stateCommand4C4
	stateCommand4C5

	stateUnlockRumbleIDMSB
	stateGetSetRumble1
	stateGetSetRumble2
	stateGetSetRumble3
	stateGetSetRumble4
	stateGetSetRumble5
	stateGetSetRumble6

	statePad6Bytes
	statePad5Bytes
	statePad4Bytes
	statePad3Bytes
	statePad2Bytes
	statePad1Byte
)

// transferHandler is one state's reaction to an incoming serial byte: the
// byte to send back, whether the frame continues (ack), and the state to
// move to next.
type transferHandler func(c *AnalogController, byteIn uint8) (byteOut uint8, ack bool, next fsmState)

// fixedReply builds a handler for a state whose outgoing byte and next
// state never depend on anything but which state it is - the
// FIXED_REPLY_STATE macro's equivalent.
func fixedReply(reply uint8, ack bool, next fsmState) transferHandler {
	return func(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
		return reply, ack, next
	}
}

// idStateMSB builds a handler for the step right after a command byte was
// accepted, which always echoes the high byte of the current ID - the
// ID_STATE_MSB macro's equivalent.
func idStateMSB(next fsmState) transferHandler {
	return func(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
		return uint8(c.GetID() >> 8), true, next
	}
}

// replyRumbleConfig builds a handler for one of the first five rumble-map
// read/write slots: it swaps the stored config byte for the incoming one
// and records a motor assignment if the incoming byte selects one - the
// REPLY_RUMBLE_CONFIG macro's equivalent. The sixth slot additionally has
// to decide whether rumble unlocking stuck, so it is not built from this
// helper; see handleGetSetRumble6.
func replyRumbleConfig(index int, ack bool, next fsmState) transferHandler {
	return func(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
		out := c.rumbleConfig[index]
		c.rumbleConfig[index] = byteIn
		switch byteIn {
		case 0x00:
			c.smallMotorIndex = int8(index)
		case 0x01:
			c.largeMotorIndex = int8(index)
		}
		return out, ack, next
	}
}

func ifU8(cond bool, t, f uint8) uint8 {
	if cond {
		return t
	}
	return f
}

func handleIdle(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	switch {
	case byteIn == 0x42:
		return uint8(c.GetID()), true, stateGetStateIDMSB
	case byteIn == 0x43:
		return uint8(c.GetID()), true, stateConfigModeIDMSB
	case c.configurationMode && byteIn == 0x44:
		return uint8(c.GetID()), true, stateSetAnalogModeIDMSB
	case c.configurationMode && byteIn == 0x45:
		return uint8(c.GetID()), true, stateGetAnalogModeIDMSB
	case c.configurationMode && byteIn == 0x46:
		return uint8(c.GetID()), true, stateCommand46IDMSB
	case c.configurationMode && byteIn == 0x47:
		return uint8(c.GetID()), true, stateCommand47IDMSB
	case c.configurationMode && byteIn == 0x4C:
		return uint8(c.GetID()), true, stateCommand4CIDMSB
	case c.configurationMode && byteIn == 0x4D:
		c.rumbleUnlocked = true
		c.largeMotorIndex = -1
		c.smallMotorIndex = -1
		return uint8(c.GetID()), true, stateUnlockRumbleIDMSB
	default:
		return 0xFF, byteIn == 0x01, stateIdle
	}
}

func handleGetStateButtonsLSB(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	switch {
	case c.rumbleUnlocked:
		c.setMotorStateForConfigIndex(0, byteIn)
	case byteIn >= 0x40 && byteIn <= 0x7F:
		c.legacyRumbleUnlocked = true
	default:
		c.setMotorState(motorSmall, 0)
	}
	return uint8(c.buttonState) & c.extraButtonMaskLSB(), true, stateGetStateButtonsMSB
}

func handleGetStateButtonsMSB(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	switch {
	case c.rumbleUnlocked:
		c.setMotorStateForConfigIndex(1, byteIn)
	case c.legacyRumbleUnlocked:
		c.setMotorState(motorSmall, ifU8(byteIn&0x01 != 0, 255, 0))
		c.legacyRumbleUnlocked = false
	}

	out := uint8(c.buttonState >> 8)
	if c.analogMode || c.configurationMode {
		return out, true, stateGetStateRightAxisX
	}
	return out, false, stateIdle
}

func handleGetStateRightAxisX(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	if c.rumbleUnlocked {
		c.setMotorStateForConfigIndex(2, byteIn)
	}
	return c.axisState[AxisRightX], true, stateGetStateRightAxisY
}

func handleGetStateRightAxisY(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	if c.rumbleUnlocked {
		c.setMotorStateForConfigIndex(3, byteIn)
	}
	return c.axisState[AxisRightY], true, stateGetStateLeftAxisX
}

func handleGetStateLeftAxisX(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	if c.rumbleUnlocked {
		c.setMotorStateForConfigIndex(4, byteIn)
	}
	return c.axisState[AxisLeftX], true, stateGetStateLeftAxisY
}

func handleGetStateLeftAxisY(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	if c.rumbleUnlocked {
		c.setMotorStateForConfigIndex(5, byteIn)
	}
	return c.axisState[AxisLeftY], false, stateIdle
}

func handleConfigModeSetMode(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	wasConfig := c.configurationMode
	c.configurationMode = byteIn == 1
	if wasConfig {
		return 0x00, true, statePad5Bytes
	}
	return uint8(c.buttonState), true, stateGetStateButtonsMSB
}

func handleSetAnalogModeVal(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	if byteIn == 0x00 || byteIn == 0x01 {
		c.setAnalogMode(byteIn == 0x01)
	}
	return 0x00, true, stateSetAnalogModeSel
}

func handleSetAnalogModeSel(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	if byteIn == 0x02 || byteIn == 0x03 {
		c.analogLocked = byteIn == 0x03
	}
	return 0x00, true, statePad4Bytes
}

func handleGetAnalogMode3(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	return ifU8(c.analogMode, 1, 0), true, stateGetAnalogMode4
}

func handleCommand461(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	c.commandParam = byteIn
	return 0x00, true, stateCommand462
}

func handleCommand464(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	return ifU8(c.commandParam == 1, 1, 2), true, stateCommand465
}

func handleCommand465(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	return ifU8(c.commandParam == 1, 1, 0), true, stateCommand466
}

func handleCommand466(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	return ifU8(c.commandParam == 1, 0x14, 0x0A), false, stateIdle
}

func handleCommand4CMode(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	c.commandParam = byteIn
	return 0x00, true, stateCommand4C1
}

func handleCommand4C3(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	var out uint8
	switch c.commandParam {
	case 0x00:
		out = 0x04
	case 0x01:
		out = 0x07
	default:
		out = 0x00
	}
	return out, true, stateCommand4C4
}

// handleGetSetRumble6 is the sixth and final rumble-map slot. Unlike the
// first five, it also decides whether the unlock attempt actually stuck:
// if neither motor index ended up assigned, rumble_unlocked is dropped
// again so a game that sends garbage doesn't leave rumble in a half-
// configured state.
func handleGetSetRumble6(c *AnalogController, byteIn uint8) (uint8, bool, fsmState) {
	const index = 5
	out := c.rumbleConfig[index]
	c.rumbleConfig[index] = byteIn
	switch byteIn {
	case 0x00:
		c.smallMotorIndex = index
	case 0x01:
		c.largeMotorIndex = index
	}

	if c.largeMotorIndex == -1 {
		c.setMotorState(motorLarge, 0)
	}
	if c.smallMotorIndex == -1 {
		c.setMotorState(motorSmall, 0)
	}
	if c.largeMotorIndex == -1 && c.smallMotorIndex == -1 {
		c.rumbleUnlocked = false
	}

	return out, false, stateIdle
}

var stateHandlers = map[fsmState]transferHandler{
	stateIdle: handleIdle,

	stateGetStateIDMSB:     idStateMSB(stateGetStateButtonsLSB),
	stateGetStateButtonsLSB: handleGetStateButtonsLSB,
	stateGetStateButtonsMSB: handleGetStateButtonsMSB,
	stateGetStateRightAxisX: handleGetStateRightAxisX,
	stateGetStateRightAxisY: handleGetStateRightAxisY,
	stateGetStateLeftAxisX:  handleGetStateLeftAxisX,
	stateGetStateLeftAxisY:  handleGetStateLeftAxisY,

	stateConfigModeIDMSB:   idStateMSB(stateConfigModeSetMode),
	stateConfigModeSetMode: handleConfigModeSetMode,

	stateSetAnalogModeIDMSB: idStateMSB(stateSetAnalogModeVal),
	stateSetAnalogModeVal:   handleSetAnalogModeVal,
	stateSetAnalogModeSel:   handleSetAnalogModeSel,

	stateGetAnalogModeIDMSB: idStateMSB(stateGetAnalogMode1),
	stateGetAnalogMode1:     fixedReply(0x01, true, stateGetAnalogMode2),
	stateGetAnalogMode2:     fixedReply(0x02, true, stateGetAnalogMode3),
	stateGetAnalogMode3:     handleGetAnalogMode3,
	stateGetAnalogMode4:     fixedReply(0x02, true, stateGetAnalogMode5),
	stateGetAnalogMode5:     fixedReply(0x01, true, stateGetAnalogMode6),
	stateGetAnalogMode6:     fixedReply(0x00, false, stateIdle),

	stateCommand46IDMSB: idStateMSB(stateCommand461),
	stateCommand461:     handleCommand461,
	stateCommand462:     fixedReply(0x00, true, stateCommand463),
	stateCommand463:     fixedReply(0x01, true, stateCommand464),
	stateCommand464:     handleCommand464,
	stateCommand465:     handleCommand465,
	stateCommand466:     handleCommand466,

	stateCommand47IDMSB: idStateMSB(stateCommand471),
	stateCommand471:     fixedReply(0x00, true, stateCommand472),
	stateCommand472:     fixedReply(0x00, true, stateCommand473),
	stateCommand473:     fixedReply(0x02, true, stateCommand474),
	stateCommand474:     fixedReply(0x00, true, stateCommand475),
	stateCommand475:     fixedReply(0x01, true, stateCommand476),
	stateCommand476:     fixedReply(0x00, false, stateIdle),

	stateCommand4CIDMSB: idStateMSB(stateCommand4CMode),
	stateCommand4CMode:  handleCommand4CMode,
	stateCommand4C1:     fixedReply(0x00, true, stateCommand4C2),
	stateCommand4C2:     fixedReply(0x00, true, stateCommand4C3),
	stateCommand4C3:     handleCommand4C3,
	stateCommand4C4:     fixedReply(0x00, true, stateCommand4C5),
	stateCommand4C5:     fixedReply(0x00, false, stateIdle),

	stateUnlockRumbleIDMSB: idStateMSB(stateGetSetRumble1),
	stateGetSetRumble1:     replyRumbleConfig(0, true, stateGetSetRumble2),
	stateGetSetRumble2:     replyRumbleConfig(1, true, stateGetSetRumble3),
	stateGetSetRumble3:     replyRumbleConfig(2, true, stateGetSetRumble4),
	stateGetSetRumble4:     replyRumbleConfig(3, true, stateGetSetRumble5),
	stateGetSetRumble5:     replyRumbleConfig(4, true, stateGetSetRumble6),
	stateGetSetRumble6:     handleGetSetRumble6,

	statePad6Bytes: fixedReply(0x00, true, statePad5Bytes),
	statePad5Bytes: fixedReply(0x00, true, statePad4Bytes),
	statePad4Bytes: fixedReply(0x00, true, statePad3Bytes),
	statePad3Bytes: fixedReply(0x00, true, statePad2Bytes),
	statePad2Bytes: fixedReply(0x00, true, statePad1Byte),
	statePad1Byte:  fixedReply(0x00, false, stateIdle),
}
