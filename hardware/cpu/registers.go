package cpu

// noLoadDelay is the sentinel register index meaning "no register", used by
// the pipeline's load-delay shadow to mark an inactive slot.
const noLoadDelay int32 = -1

// RegisterFile holds the 32 general purpose registers plus the pair of
// multiply/divide result halves. r[0] is hard-wired to zero: WriteGPR
// silently drops any write to it, the same way real R3000A silicon does.
type RegisterFile struct {
	r  [32]uint32
	Hi uint32
	Lo uint32
}

// GPR returns the raw value currently held in register r, bypassing any
// pending load-delay slot. CPU.ReadGPR is almost always the right call for
// instruction operands; GPR exists for save-state, debugger and lwl/lwr use,
// which must see the raw register file.
func (rf *RegisterFile) GPR(r uint32) uint32 {
	return rf.r[r&31]
}

// WriteGPR stores v into register r. Writes to r0 are silently dropped.
func (rf *RegisterFile) WriteGPR(r uint32, v uint32) {
	if r == 0 {
		return
	}
	rf.r[r&31] = v
}

// reset zeroes every general purpose register and both multiply/divide
// halves. r[0] is already zero and stays that way.
func (rf *RegisterFile) reset() {
	for i := range rf.r {
		rf.r[i] = 0
	}
	rf.Hi = 0
	rf.Lo = 0
}
