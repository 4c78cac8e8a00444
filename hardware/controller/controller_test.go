package controller_test

import (
	"testing"

	"github.com/kestrel-emu/gopsx/hardware/controller"
	"github.com/kestrel-emu/gopsx/notifications"
)

// The three reply IDs the controller reports for its current mode. Mirrored
// here as locals rather than imported, since they are package-private on
// the controller side.
const (
	idDigital = 0x5A41
	idAnalog  = 0x5A73
	idConfig  = 0x5AF3
)

// noticeSink is a Notify that records every notice it sees, in order.
type noticeSink struct {
	notices []notifications.Notice
}

func (s *noticeSink) Notify(n notifications.Notice) error {
	s.notices = append(s.notices, n)
	return nil
}

func newController(t *testing.T) (*controller.AnalogController, *noticeSink) {
	t.Helper()
	sink := &noticeSink{}
	c := controller.NewAnalogController(controller.DefaultConfig(), sink)
	return c, sink
}

// frame sends a sequence of bytes through Transfer and returns the replies
// and ack flags in order. It does not call ResetTransferState - callers
// decide whether the simulated frame runs to its natural end or is cut
// short, same as a host deasserting chip-select early is free to do.
func frame(c *controller.AnalogController, bytes ...uint8) (out []uint8, ack []bool) {
	for _, b := range bytes {
		o, a := c.Transfer(b)
		out = append(out, o)
		ack = append(ack, a)
	}
	return out, ack
}

// enterConfigMode runs the three-byte command that puts the controller into
// configuration mode and ends the frame.
func enterConfigMode(c *controller.AnalogController) {
	frame(c, 0x01, 0x43, 0x00, 0x01)
	c.ResetTransferState()
}

// leaveConfigMode runs the matching command to leave configuration mode.
func leaveConfigMode(c *controller.AnalogController) {
	frame(c, 0x01, 0x43, 0x00, 0x00)
	c.ResetTransferState()
}

func TestConfigModeEntryAndExit(t *testing.T) {
	c, _ := newController(t)

	if got := c.GetID(); got != idDigital {
		t.Fatalf("GetID() = %#x before entering config, want digital %#x", got, idDigital)
	}

	enterConfigMode(c)
	if got := c.GetID(); got != idConfig {
		t.Errorf("GetID() = %#x after entering config, want %#x", got, idConfig)
	}

	leaveConfigMode(c)
	if got := c.GetID(); got != idDigital {
		t.Errorf("GetID() = %#x after leaving config, want digital %#x", got, idDigital)
	}
}

// TestAnalogModeQueryReflectsCurrentMode drives the 0x45 "get analog mode"
// command and checks that its third data byte - the only one that isn't a
// fixed reply - tracks whatever mode the controller is actually in.
func TestAnalogModeQueryReflectsCurrentMode(t *testing.T) {
	c, _ := newController(t)
	enterConfigMode(c)

	out, _ := frame(c, 0x01, 0x45, 0x00, 0x00, 0x00, 0x00)
	c.ResetTransferState()
	leaveConfigMode(c)

	// out[0] ack byte, out[1] idLo, out[2] idHi, out[3..] = 0x01, 0x02, mode
	if len(out) < 6 {
		t.Fatalf("got %d reply bytes, want at least 6", len(out))
	}
	if out[5] != 0 {
		t.Errorf("analog-mode query byte = %#x, want 0 (digital)", out[5])
	}

	// Now set analog mode and ask again.
	setAnalogMode(c, true, false)
	enterConfigMode(c)
	out, _ = frame(c, 0x01, 0x45, 0x00, 0x00, 0x00, 0x00)
	c.ResetTransferState()
	leaveConfigMode(c)
	if out[5] != 1 {
		t.Errorf("analog-mode query byte = %#x, want 1 (analog)", out[5])
	}
}

// setAnalogMode drives the 0x44 command, optionally locking the mode
// against further player-initiated toggles.
func setAnalogMode(c *controller.AnalogController, analog, lock bool) {
	enterConfigMode(c)

	val := uint8(0x00)
	if analog {
		val = 0x01
	}
	sel := uint8(0x02)
	if lock {
		sel = 0x03
	}
	frame(c, 0x01, 0x44, 0x00, val, sel)
	c.ResetTransferState()

	leaveConfigMode(c)
}

// TestAnalogLockBlocksToggle covers CTRL-S3: once configuration mode has
// locked the current mode, a queued player toggle is discarded instead of
// applied, and the host is told why.
func TestAnalogLockBlocksToggle(t *testing.T) {
	c, sink := newController(t)

	setAnalogMode(c, true, true)
	if got := c.GetID(); got != idAnalog {
		t.Fatalf("GetID() = %#x after setting analog+lock, want %#x", got, idAnalog)
	}

	c.SetButtonState(controller.ButtonAnalog, true)
	c.ResetTransferState()

	if got := c.GetID(); got != idAnalog {
		t.Errorf("GetID() = %#x after blocked toggle, want unchanged %#x", got, idAnalog)
	}

	found := false
	for _, n := range sink.notices {
		if n == notifications.NoticeAnalogToggleBlocked {
			found = true
		}
	}
	if !found {
		t.Errorf("expected NoticeAnalogToggleBlocked, got %v", sink.notices)
	}
}

// TestAnalogToggleAppliesWhenUnlocked is the mirror case: with no lock in
// effect, a queued toggle does flip the mode and raises the mode-changed
// notice instead.
func TestAnalogToggleAppliesWhenUnlocked(t *testing.T) {
	c, sink := newController(t)

	c.SetButtonState(controller.ButtonAnalog, true)
	c.ResetTransferState()

	if got := c.GetID(); got != idAnalog {
		t.Errorf("GetID() = %#x after unlocked toggle, want %#x", got, idAnalog)
	}

	found := false
	for _, n := range sink.notices {
		if n == notifications.NoticeAnalogModeChanged {
			found = true
		}
	}
	if !found {
		t.Errorf("expected NoticeAnalogModeChanged, got %v", sink.notices)
	}
}

// rumble motor indices mirrored from the controller package's own layout.
const (
	motorLarge = 0
	motorSmall = 1
)

// unlockRumble runs the 0x4D command with six config bytes and returns what
// the controller echoed back for each of the six slots - the value each
// slot held before this call overwrote it.
func unlockRumble(c *controller.AnalogController, cfg [6]uint8) (echoed [6]uint8) {
	out, _ := frame(c, 0x01, 0x4D, 0x00,
		cfg[0], cfg[1], cfg[2], cfg[3], cfg[4], cfg[5])
	c.ResetTransferState()
	copy(echoed[:], out[3:9])
	return echoed
}

// pollDigital runs a 0x42 poll, feeding motorByte0/motorByte1 as the two
// rumble-mappable input bytes sent while the controller replies with the
// button state.
func pollDigital(c *controller.AnalogController, motorByte0, motorByte1 uint8) {
	frame(c, 0x01, 0x42, 0x00, motorByte0, motorByte1, 0x00, 0x00, 0x00, 0x00)
	c.ResetTransferState()
}

// TestRumbleMapping covers CTRL-S2: the new-style 0x4D unlock maps the
// small motor to whichever poll-byte slot sends 0x00 and the large motor to
// whichever sends 0x01, and a subsequent poll drives both accordingly.
func TestRumbleMapping(t *testing.T) {
	c, _ := newController(t)
	enterConfigMode(c)

	echoed := unlockRumble(c, [6]uint8{0x00, 0x01, 0xFF, 0xFF, 0xFF, 0xFF})
	for i, want := range [6]uint8{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF} {
		if echoed[i] != want {
			t.Errorf("rumble slot %d echoed %#x before write, want default %#x", i, echoed[i], want)
		}
	}

	leaveConfigMode(c)

	// slot 0 -> small motor (bit 0 of the poll byte), slot 1 -> large motor
	// (the poll byte directly).
	pollDigital(c, 0x01, 0x80)
	if got := c.VibrationStrength(motorSmall); got <= 0 {
		t.Errorf("VibrationStrength(small) = %v, want > 0 after odd poll byte", got)
	}
	if got := c.VibrationStrength(motorLarge); got <= 0 {
		t.Errorf("VibrationStrength(large) = %v, want > 0 after nonzero poll byte", got)
	}

	low := c.VibrationStrength(motorLarge)
	pollDigital(c, 0x00, 0xFF)
	if got := c.VibrationStrength(motorSmall); got != 0 {
		t.Errorf("VibrationStrength(small) = %v, want 0 after even poll byte", got)
	}
	if high := c.VibrationStrength(motorLarge); high <= low {
		t.Errorf("VibrationStrength(large) = %v, want > previous %v for a larger poll byte", high, low)
	}
}

// TestRumbleUnlockIdempotentAllFF covers the all-0xFF round trip: six
// consecutive 0x4D cycles that never send 0x00 or 0x01 never assign either
// motor, so the unlock never actually sticks and a poll afterwards leaves
// both motors silent.
func TestRumbleUnlockIdempotentAllFF(t *testing.T) {
	c, _ := newController(t)
	enterConfigMode(c)

	for i := 0; i < 6; i++ {
		echoed := unlockRumble(c, [6]uint8{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
		for slot, got := range echoed {
			if got != 0xFF {
				t.Errorf("cycle %d slot %d echoed %#x, want 0xFF (no assignment ever took)", i, slot, got)
			}
		}
	}

	leaveConfigMode(c)

	pollDigital(c, 0x00, 0x00)
	if got := c.VibrationStrength(motorSmall); got != 0 {
		t.Errorf("VibrationStrength(small) = %v, want 0 with rumble never mapped", got)
	}
	if got := c.VibrationStrength(motorLarge); got != 0 {
		t.Errorf("VibrationStrength(large) = %v, want 0 with rumble never mapped", got)
	}
}

// TestDigitalPollAckPattern covers the byte-count side of CTRL poll
// behaviour: a digital-mode poll's frame ends - ack goes false - right
// after the button bytes, while an analog-mode poll's frame continues
// through all four axis bytes.
func TestDigitalPollAckPattern(t *testing.T) {
	c, _ := newController(t)

	_, ack := frame(c, 0x01, 0x42, 0x00, 0xFF, 0xFF)
	c.ResetTransferState()
	if len(ack) != 5 || ack[4] {
		t.Errorf("digital poll ack = %v, want frame to end (ack false) after the button bytes", ack)
	}

	setAnalogMode(c, true, false)

	_, ack = frame(c, 0x01, 0x42, 0x00, 0xFF, 0xFF, 0x00, 0x00, 0x00, 0x00)
	c.ResetTransferState()
	if len(ack) != 9 {
		t.Fatalf("analog poll produced %d replies, want 9", len(ack))
	}
	for i := 0; i < 8; i++ {
		if !ack[i] {
			t.Errorf("analog poll ack[%d] = false, want true before the last axis byte", i)
		}
	}
	if ack[8] {
		t.Errorf("analog poll ack[8] = true, want frame to end after the last axis byte")
	}
}

// TestUnrecognizedIdleByteIsIgnored covers the last round-trip property:
// any byte the Idle state doesn't recognize as a command is answered with
// 0xFF and ack clear, and leaves the state machine in Idle - a following
// valid command still works normally.
func TestUnrecognizedIdleByteIsIgnored(t *testing.T) {
	c, _ := newController(t)

	for _, b := range []uint8{0x00, 0x02, 0x99, 0xFE} {
		out, ack := c.Transfer(b)
		if out != 0xFF || ack {
			t.Errorf("Transfer(%#x) = (%#x, %v), want (0xFF, false)", b, out, ack)
		}
	}

	out, ack := frame(c, 0x01, 0x42)
	if len(out) != 2 || out[1] != uint8(idDigital&0xFF) || !ack[1] {
		t.Errorf("poll after garbage bytes = %v/%v, state machine did not stay in Idle", out, ack)
	}
}
