package cpu

import "github.com/kestrel-emu/gopsx/savestate"

// cop2State is implemented by a GTE collaborator that wants its own
// register file folded into the CPU's save-state record. A collaborator
// that doesn't implement it is skipped - the core treats COP2 state as the
// collaborator's own business, per the GTE being an opaque dependency.
type cop2State interface {
	DoState(s *savestate.State)
}

// DoState serializes the full CPU register and pipeline state: the general
// purpose registers, pc/hi/lo/npc, every COP0 register, the pipeline and
// load-delay shadow state, the cache control register and scratchpad
// bytes, and finally the GTE's own state if the attached collaborator
// supports it. Field order follows the layout the original implementation
// round-trips, not the order the registers are declared in elsewhere in
// this package. It returns the stream's version tag and a validity flag -
// false if any underlying read or write failed.
func (c *CPU) DoState(s *savestate.State) (int, bool) {
	pendingTicks := uint32(c.pendingTicks)
	downcount := uint32(c.downcount)
	s.DoU32(&pendingTicks)
	s.DoU32(&downcount)
	if s.Mode() == savestate.ModeRead {
		c.pendingTicks = int64(pendingTicks)
		c.downcount = int64(downcount)
	}

	s.DoU32Array(c.Regs.r[:])
	s.DoU32(&c.pc)
	s.DoU32(&c.Regs.Hi)
	s.DoU32(&c.Regs.Lo)
	s.DoU32(&c.npc)

	s.DoU32(&c.C0.BPC)
	s.DoU32(&c.C0.BDA)
	s.DoU32(&c.C0.TAR)
	s.DoU32(&c.C0.BadVaddr)
	s.DoU32(&c.C0.BDAM)
	s.DoU32(&c.C0.BPCM)
	s.DoU32(&c.C0.EPC)

	pridValue := uint32(prid)
	s.DoU32(&pridValue)

	c.doSRAndCauseState(s)
	s.DoU32(&c.C0.DCIC)

	s.DoU32(&c.nextInstruction)
	s.DoU32(&c.currentInstruction)
	s.DoU32(&c.currentInstructionPC)
	s.DoBool(&c.currentInBranchDelaySlot)
	s.DoBool(&c.currentWasBranchTaken)
	s.DoBool(&c.nextIsBranchDelaySlot)
	s.DoBool(&c.branchWasTaken)

	s.DoI32(&c.loadDelay.reg)
	s.DoU32(&c.loadDelay.oldValue)
	s.DoI32(&c.loadDelay.nextReg)
	s.DoU32(&c.loadDelay.nextOldValue)

	s.DoU32(&c.C0.CacheControl)
	s.DoBytes(c.C0.Scratchpad[:])

	if gte, ok := c.cop2.(cop2State); ok {
		gte.DoState(s)
	}

	return int(s.Version()), s.OK()
}

// doSRAndCauseState round-trips SR and CAUSE as their raw 32-bit guest-
// visible encodings. On read, FromUint32 alone is not enough for CAUSE:
// it only accepts the guest-writable software interrupt bits, so the
// hardware-set fields (Excode, the full Ip byte, CE, BD, BT) are restored
// directly from the decoded word instead.
func (c *CPU) doSRAndCauseState(s *savestate.State) {
	sr := c.C0.SR.ToUint32()
	cause := c.C0.Cause.ToUint32()
	s.DoU32(&sr)
	s.DoU32(&cause)

	if s.Mode() != savestate.ModeRead {
		return
	}

	c.C0.SR.FromUint32(sr)

	c.C0.Cause.Excode = uint8(cause>>2) & 0x1F
	c.C0.Cause.Ip = uint8(cause >> 8)
	c.C0.Cause.CE = uint8(cause>>28) & 0x3
	c.C0.Cause.BT = cause&(1<<30) != 0
	c.C0.Cause.BD = cause&(1<<31) != 0
}
