package cpu

// Primary six-bit opcode field values (bits 26..31).
const (
	opSPECIAL = 0x00
	opREGIMM  = 0x01
	opJ       = 0x02
	opJAL     = 0x03
	opBEQ     = 0x04
	opBNE     = 0x05
	opBLEZ    = 0x06
	opBGTZ    = 0x07
	opADDI    = 0x08
	opADDIU   = 0x09
	opSLTI    = 0x0A
	opSLTIU   = 0x0B
	opANDI    = 0x0C
	opORI     = 0x0D
	opXORI    = 0x0E
	opLUI     = 0x0F
	opCOP0    = 0x10
	opCOP1    = 0x11
	opCOP2    = 0x12
	opCOP3    = 0x13
	opLB      = 0x20
	opLH      = 0x21
	opLWL     = 0x22
	opLW      = 0x23
	opLBU     = 0x24
	opLHU     = 0x25
	opLWR     = 0x26
	opSB      = 0x28
	opSH      = 0x29
	opSWL     = 0x2A
	opSW      = 0x2B
	opSWR     = 0x2E
	opLWC0    = 0x30
	opLWC1    = 0x31
	opLWC2    = 0x32
	opLWC3    = 0x33
	opSWC0    = 0x38
	opSWC1    = 0x39
	opSWC2    = 0x3A
	opSWC3    = 0x3B
)

// Funct field values used when the primary opcode is SPECIAL (0x00).
const (
	fnSLL     = 0x00
	fnSRL     = 0x02
	fnSRA     = 0x03
	fnSLLV    = 0x04
	fnSRLV    = 0x06
	fnSRAV    = 0x07
	fnJR      = 0x08
	fnJALR    = 0x09
	fnSYSCALL = 0x0C
	fnBREAK   = 0x0D
	fnMFHI    = 0x10
	fnMTHI    = 0x11
	fnMFLO    = 0x12
	fnMTLO    = 0x13
	fnMULT    = 0x18
	fnMULTU   = 0x19
	fnDIV     = 0x1A
	fnDIVU    = 0x1B
	fnADD     = 0x20
	fnADDU    = 0x21
	fnSUB     = 0x22
	fnSUBU    = 0x23
	fnAND     = 0x24
	fnOR      = 0x25
	fnXOR     = 0x26
	fnNOR     = 0x27
	fnSLT     = 0x2A
	fnSLTU    = 0x2B
)

// rt field values used when the primary opcode is REGIMM (0x01).
const (
	rtBLTZ   = 0x00
	rtBGEZ   = 0x01
	rtBLTZAL = 0x10
	rtBGEZAL = 0x11
)

// rs field values used when the primary opcode is COP0 (0x10).
const (
	cop0MF  = 0x00
	cop0MT  = 0x04
	cop0RFE = 0x10
)

// Excode values. RI is the catch-all raised for any opcode or funct this
// table does not recognize.
const (
	excINT  = 0x00
	excAdEL = 0x04
	excAdES = 0x05
	excIBE  = 0x06
	excDBE  = 0x07
	excSys  = 0x08
	excBP   = 0x09
	excRI   = 0x0A
	excCpU  = 0x0B
	excOv   = 0x0C
)

// decode holds the fields of a single 32-bit instruction word, split out
// once at the start of step() so the interpreter switch never has to
// re-derive a field with a shift-and-mask.
type decode struct {
	word uint32

	op     uint32
	rs     uint32
	rt     uint32
	rd     uint32
	shamt  uint32
	funct  uint32
	imm16  uint32 // zero-extended
	simm16 int32  // sign-extended
	target uint32 // 26-bit jump target, words
}

func decodeWord(word uint32) decode {
	d := decode{word: word}
	d.op = word >> 26
	d.rs = (word >> 21) & 0x1F
	d.rt = (word >> 16) & 0x1F
	d.rd = (word >> 11) & 0x1F
	d.shamt = (word >> 6) & 0x1F
	d.funct = word & 0x3F
	d.imm16 = word & 0xFFFF
	d.simm16 = int32(int16(word & 0xFFFF))
	d.target = word & 0x03FFFFFF
	return d
}
