package cpu

// pipeline holds the two-stage fetch/execute shadow state a real R3000A
// exposes to software through exception reporting: the word currently
// executing, the word already fetched for next step, and whether each one
// sits in a branch delay slot.
type pipeline struct {
	currentInstruction   uint32
	currentInstructionPC uint32

	currentInBranchDelaySlot bool
	currentWasBranchTaken    bool

	nextInstruction       uint32
	nextIsBranchDelaySlot bool

	branchWasTaken bool
}

func (p *pipeline) reset() {
	*p = pipeline{}
}

// advance copies next_* into current_* and clears the next_* delay-slot
// flag, per step 2 of the main loop. It does not touch nextInstruction
// itself; the caller overwrites that with whatever fetch() returns.
func (p *pipeline) advance() {
	p.currentInstruction = p.nextInstruction
	p.currentInBranchDelaySlot = p.nextIsBranchDelaySlot
	p.currentWasBranchTaken = p.branchWasTaken
	p.nextIsBranchDelaySlot = false
	p.branchWasTaken = false
}

// loadDelaySlot is the two-level shadow that makes a load's destination
// register observe its prior value for exactly one instruction after the
// load. noLoadDelay marks an inactive slot.
type loadDelaySlot struct {
	reg      int32
	oldValue uint32

	nextReg      int32
	nextOldValue uint32
}

func (l *loadDelaySlot) reset() {
	l.reg = noLoadDelay
	l.oldValue = 0
	l.nextReg = noLoadDelay
	l.nextOldValue = 0
}

// advance shifts the pending slot in: whatever the previous instruction
// queued into next_* becomes the slot live for this step, and next_* is
// cleared so the current instruction can queue its own load (if any).
func (l *loadDelaySlot) advance() {
	l.reg = l.nextReg
	l.oldValue = l.nextOldValue
	l.nextReg = noLoadDelay
	l.nextOldValue = 0
}

// set records (r, priorValue) as the slot the instruction after this one
// will see. Register 0 is never delayed: writes to it are always dropped.
func (l *loadDelaySlot) set(r int32, priorValue uint32) {
	if r == 0 {
		return
	}
	l.nextReg = r
	l.nextOldValue = priorValue
}
