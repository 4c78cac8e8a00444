package cpu

import (
	"github.com/kestrel-emu/gopsx/bus"
	"github.com/kestrel-emu/gopsx/curated"
	"github.com/kestrel-emu/gopsx/gte"
)

// resetVector is the address the program counter starts at, both at
// power-on and whenever Reset is called.
const resetVector = 0xBFC00000

// CPU implements the R3000A-compatible interpreter. Register logic for
// coprocessor 0 is implemented by the StatusRegister and CauseRegister
// types, following the pattern established for this module's bitfield
// registers generally: named fields plus explicit pack/unpack accessors,
// never a raw union.
type CPU struct {
	Regs RegisterFile
	C0   COP0

	pc  uint32
	npc uint32

	pipeline
	loadDelay loadDelaySlot

	pendingTicks int64
	downcount    int64

	bus  bus.Bus
	cop2 gte.Coprocessor

	initialized bool
}

// NewCPU is the preferred method of initialisation for the CPU structure.
// cop2 may be nil if the host has no GTE to attach; COP2 instructions then
// still go through the CU2 usability check, and a permitted one does
// nothing beyond that (swc2 stores zero).
func NewCPU(cop2 gte.Coprocessor) *CPU {
	c := &CPU{cop2: cop2}
	c.loadDelay.reset()
	return c
}

// Initialize binds the bus the CPU will issue loads and stores through,
// and readies PRID for the guest to observe. It must be called exactly
// once, before the first call to Execute.
func (c *CPU) Initialize(b bus.Bus) error {
	if b == nil {
		return curated.Errorf(curated.CodeUninitialized, "cpu: Initialize called with a nil bus")
	}
	c.bus = b
	c.initialized = true
	c.Reset()
	return nil
}

// Reset clears the register file and pipeline state and sets pc to the
// BIOS reset vector. It does not unbind the bus or the GTE collaborator.
func (c *CPU) Reset() {
	c.Regs.reset()
	c.C0.reset()
	c.pipeline.reset()
	c.loadDelay.reset()

	c.pendingTicks = 0
	c.downcount = 0

	c.setPC(resetVector)
}

// SetExternalInterrupt asserts hardware interrupt line bit (2..7 within
// CAUSE.Ip) from outside the CPU's own step.
func (c *CPU) SetExternalInterrupt(bit uint8) {
	c.C0.Cause.Ip |= 1 << bit
}

// ClearExternalInterrupt deasserts hardware interrupt line bit.
func (c *CPU) ClearExternalInterrupt(bit uint8) {
	c.C0.Cause.Ip &^= 1 << bit
}

// Downcount is the CPU's remaining instruction budget for the current
// execution window.
func (c *CPU) Downcount() int64 { return c.downcount }

// SetDowncount replenishes the instruction budget; the outer scheduler
// calls this before each call to Execute.
func (c *CPU) SetDowncount(n int64) { c.downcount = n }

// Execute runs instructions until downcount goes negative, then returns to
// the caller.
func (c *CPU) Execute() {
	for c.downcount >= 0 {
		c.pendingTicks += 2
		c.downcount -= 2

		c.pipeline.advance()
		c.currentInstructionPC = c.pc

		if c.dispatchInterrupt() {
			continue
		}

		if !c.fetch() {
			continue
		}

		c.step(decodeWord(c.currentInstruction))

		c.loadDelay.advance()
	}
}

// fetch loads the next instruction word from npc into the pipeline,
// advancing pc/npc. It returns false if a fetch fault was raised, in which
// case the caller must not attempt to execute the stale current
// instruction.
//
// A fetch fault's EPC must be the fetching address itself - npc, not the
// instruction currently executing - with BD/BT/CE forced to false/false/0:
// the fault belongs to the fetch, which never sat in a branch delay slot of
// its own.
func (c *CPU) fetch() bool {
	if c.npc&0x3 != 0 {
		c.C0.BadVaddr = c.npc
		c.raiseExceptionFull(excAdEL, c.npc, false, false, 0)
		return false
	}

	word, ok := c.bus.ReadWord(c.npc)
	if !ok {
		c.raiseExceptionFull(excIBE, c.npc, false, false, 0)
		return false
	}

	c.nextInstruction = word
	c.pc = c.npc
	c.npc += 4
	return true
}

// setPC points npc at target and flushes the pipeline - the effect of a
// non-delayed jump such as a reset or an exception dispatch, where the
// instruction already in flight must never execute.
func (c *CPU) setPC(target uint32) {
	c.npc = target
	c.flushPipeline()
}

// flushPipeline discards the load-delay shadow and any in-flight branch
// classification, then immediately prefetches the instruction now sitting
// at npc so it is ready to become current on the next step.
func (c *CPU) flushPipeline() {
	c.loadDelay.reset()
	c.branchWasTaken = false
	c.nextIsBranchDelaySlot = false
	c.fetch()
}

// dispatchInterrupt implements the per-step interrupt check. It is
// deferred across COP2 instructions as a documented workaround: dispatching
// INT immediately before a COP2 op observed sort-order glitches against
// real hardware captures, so the check is skipped for one step whenever the
// upcoming instruction targets COP2.
func (c *CPU) dispatchInterrupt() bool {
	if gte.IsCOP2Instruction(c.currentInstruction) {
		return false
	}

	pending := c.C0.Cause.ToUint32() & c.C0.SR.ToUint32() & 0x0000FF00
	if c.C0.SR.IEc && pending != 0 {
		c.raiseExceptionFull(excINT, c.currentInstructionPC, c.currentInBranchDelaySlot, c.currentWasBranchTaken, 0)
		return true
	}
	return false
}

// Branch sets npc to target; the instruction already sitting at the old
// npc - whichever one gets fetched next - therefore executes in the delay
// slot. Unlike the original implementation, the caller does not have to
// separately set nextIsBranchDelaySlot before calling Branch: this method
// sets it itself, eliminating a class of bugs where the two calls drift
// apart.
func (c *CPU) Branch(target uint32) {
	c.nextIsBranchDelaySlot = true
	c.npc = target
	c.branchWasTaken = true
}

// raiseException is the implicit form of exception dispatch: it supplies
// the currently-executing instruction's own bookkeeping as BD/BT/CE.
func (c *CPU) raiseException(code uint8) {
	c.raiseExceptionFull(code, c.currentInstructionPC, c.currentInBranchDelaySlot, c.currentWasBranchTaken, 0)
}

// raiseExceptionFull is the explicit form of exception dispatch, taking
// every field the guest handler can observe.
func (c *CPU) raiseExceptionFull(code uint8, epc uint32, bd, bt bool, ce uint8) {
	c.C0.Cause.Excode = code & 0x1F
	c.C0.Cause.BD = bd
	c.C0.Cause.BT = bt
	c.C0.Cause.CE = ce

	if bd {
		epc -= 4
		c.C0.TAR = c.pc
	}
	c.C0.EPC = epc

	c.C0.SR.PushMode()

	// flush the pipeline - we don't want to execute the previously fetched
	// instruction
	c.setPC(c.C0.VectorBase() | 0x80)
}

// rfe restores the status register's mode stack, handling the COP0 RFE
// instruction.
func (c *CPU) rfe() {
	c.C0.SR.PopMode()
}

// PC returns the address fetch() most recently landed on - the reset
// vector immediately after Reset, the exception vector immediately after a
// fault or interrupt, and otherwise one instruction ahead of whatever is
// currently executing. While an instruction executes it is the address of
// its delay slot, which the interpreter uses as the base for branch and jump
// targets; exception reporting uses currentInstructionPC instead.
func (c *CPU) PC() uint32 { return c.pc }

// ReadGPR returns the value instruction operands should observe for
// register r: the pending load-delay shadow value if r is the register a
// load is still resolving into, otherwise the live register file value.
func (c *CPU) ReadGPR(r uint32) uint32 {
	if int32(r) == c.loadDelay.reg {
		return c.loadDelay.oldValue
	}
	return c.Regs.GPR(r)
}

// WriteGPR performs an ordinary, non-delayed register write.
func (c *CPU) WriteGPR(r uint32, v uint32) {
	c.Regs.WriteGPR(r, v)
}

// WriteGPRDelayed performs the write a load instruction makes: it updates
// the register file immediately (so lwl/lwr and later raw reads see it),
// but records the value r held before this write into the load-delay
// shadow, so ReadGPR on the *next* instruction still observes the old
// value.
func (c *CPU) WriteGPRDelayed(r uint32, v uint32) {
	prior := c.Regs.GPR(r)
	c.Regs.WriteGPR(r, v)
	c.loadDelay.set(int32(r), prior)
}

// alignment faults

func (c *CPU) checkAlign(addr uint32, width uint32, store bool) bool {
	if addr&(width-1) == 0 {
		return true
	}
	c.C0.BadVaddr = addr
	if store {
		c.raiseException(excAdES)
	} else {
		c.raiseException(excAdEL)
	}
	return false
}

// LoadByte reads a single byte, raising DBE on a bus failure.
func (c *CPU) LoadByte(addr uint32) (uint8, bool) {
	v, ok := c.bus.ReadByte(addr)
	if !ok {
		c.raiseException(excDBE)
		return 0, false
	}
	return v, true
}

// LoadHalfWord reads a halfword, raising AdEL on misalignment or DBE on a
// bus failure.
func (c *CPU) LoadHalfWord(addr uint32) (uint16, bool) {
	if !c.checkAlign(addr, 2, false) {
		return 0, false
	}
	v, ok := c.bus.ReadHalfWord(addr)
	if !ok {
		c.raiseException(excDBE)
		return 0, false
	}
	return v, true
}

// LoadWord reads a word, raising AdEL on misalignment or DBE on a bus
// failure.
func (c *CPU) LoadWord(addr uint32) (uint32, bool) {
	if !c.checkAlign(addr, 4, false) {
		return 0, false
	}
	v, ok := c.bus.ReadWord(addr)
	if !ok {
		c.raiseException(excDBE)
		return 0, false
	}
	return v, true
}

// LoadWordUnaligned reads the word at the 4-byte aligned address containing
// addr, for use by lwl/lwr, which never fault on alignment.
func (c *CPU) LoadWordUnaligned(addr uint32) (uint32, bool) {
	v, ok := c.bus.ReadWord(addr &^ 3)
	if !ok {
		c.raiseException(excDBE)
		return 0, false
	}
	return v, true
}

// StoreByte writes a single byte, raising DBE on a bus failure.
func (c *CPU) StoreByte(addr uint32, v uint8) bool {
	if !c.bus.WriteByte(addr, v) {
		c.raiseException(excDBE)
		return false
	}
	return true
}

// StoreHalfWord writes a halfword, raising AdES on misalignment or DBE on a
// bus failure.
func (c *CPU) StoreHalfWord(addr uint32, v uint16) bool {
	if !c.checkAlign(addr, 2, true) {
		return false
	}
	if !c.bus.WriteHalfWord(addr, v) {
		c.raiseException(excDBE)
		return false
	}
	return true
}

// StoreWord writes a word, raising AdES on misalignment or DBE on a bus
// failure.
func (c *CPU) StoreWord(addr uint32, v uint32) bool {
	if !c.checkAlign(addr, 4, true) {
		return false
	}
	if !c.bus.WriteWord(addr, v) {
		c.raiseException(excDBE)
		return false
	}
	return true
}

// StoreWordUnaligned writes the word at the 4-byte aligned address
// containing addr, for use by swl/swr, which never fault on alignment. The
// addressed word must already have been read back by the caller so it can
// be merged; v is the fully merged value to store.
func (c *CPU) StoreWordUnaligned(addr uint32, v uint32) bool {
	if !c.bus.WriteWord(addr&^3, v) {
		c.raiseException(excDBE)
		return false
	}
	return true
}

// PeekByte, PeekHalfWord and PeekWord are the "safe" memory access variants
// used by debugger and disassembler paths: they never raise an exception,
// returning false in place of a fault.
func (c *CPU) PeekByte(addr uint32) (uint8, bool) {
	return c.bus.ReadByte(addr)
}

func (c *CPU) PeekHalfWord(addr uint32) (uint16, bool) {
	if addr&1 != 0 {
		return 0, false
	}
	return c.bus.ReadHalfWord(addr)
}

func (c *CPU) PeekWord(addr uint32) (uint32, bool) {
	if addr&3 != 0 {
		return 0, false
	}
	return c.bus.ReadWord(addr)
}

// checkCoprocessorUsable enforces the CUx usability bits against user-mode
// access, raising CpU and returning false if access is denied. Kernel mode
// (KUc == false) always has coprocessor access regardless of CUx, for every
// coprocessor number alike.
func (c *CPU) checkCoprocessorUsable(usable bool, cop uint8) bool {
	if !c.C0.SR.KUc {
		return true
	}
	if usable {
		return true
	}
	c.raiseExceptionFull(excCpU, c.currentInstructionPC, c.currentInBranchDelaySlot, c.currentWasBranchTaken, cop)
	return false
}

