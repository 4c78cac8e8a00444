// Package gte declares the boundary between the CPU core and the geometry
// transformation engine that lives behind coprocessor 2. The core never
// interprets a COP2 instruction itself; it decodes just enough of the word
// to know the instruction belongs to COP2 and hands the rest to whatever
// Coprocessor the host plugged in, the same way the bus package hands off
// every load and store to a host-supplied collaborator.
package gte

// Coprocessor is implemented by the host's GTE. The core treats it as
// opaque: register numbering, the meaning of each control register and the
// cost of Execute in cycles are all the collaborator's business.
type Coprocessor interface {
	ReadDataRegister(reg uint32) uint32
	WriteDataRegister(reg uint32, value uint32)

	ReadControlRegister(reg uint32) uint32
	WriteControlRegister(reg uint32, value uint32)

	// Execute runs the COP2 operation encoded in the low 25 bits of instr.
	// The CPU does not interpret the opcode field itself beyond recognising
	// that it belongs to COP2; it is the collaborator's job to decode it.
	Execute(instr uint32)
}

// IsCOP2Instruction reports whether the primary opcode field of word
// addresses coprocessor 2. This is pure instruction-word decode, not
// dependent on any particular Coprocessor, so the CPU can answer "should I
// defer my pending interrupt past this instruction" even when no
// Coprocessor has been attached.
func IsCOP2Instruction(word uint32) bool {
	const opcodeMask = 0xFC000000
	const opcodeShift = 26

	op := (word & opcodeMask) >> opcodeShift
	switch op {
	case 0x12: // COP2 (LWC2/SWC2 use primary opcodes 0x32/0x3A, handled separately)
		return true
	case 0x32, 0x3A: // LWC2, SWC2
		return true
	default:
		return false
	}
}
