package cpu

// causeWriteMask restricts guest mtc0 writes to CAUSE to the two software
// interrupt pending bits (Ip[0:1]); every other field is hardware-set only,
// by raiseException or by SetExternalInterrupt/ClearExternalInterrupt.
const causeWriteMask = 0x00000300

// CauseRegister is coprocessor 0 register 13. It records which exception
// most recently vectored the CPU (Excode), the eight-bit pending interrupt
// field, and bookkeeping about whether the excepting instruction was in a
// branch delay slot.
type CauseRegister struct {
	Excode uint8 // 5 bits

	Ip uint8 // 8-bit pending interrupt field: Ip[0:1] software, Ip[2:7] hardware lines

	CE uint8 // coprocessor number for CpU exceptions
	BT bool  // branch taken
	BD bool  // exception occurred in a branch delay slot
}

func (c *CauseRegister) reset() {
	*c = CauseRegister{}
}

// ToUint32 packs the CauseRegister into the 32-bit layout a guest mfc0
// would observe.
func (c CauseRegister) ToUint32() uint32 {
	v := uint32(c.Excode&0x1F) << 2
	v |= uint32(c.Ip) << 8
	v |= uint32(c.CE&0x3) << 28
	if c.BT {
		v |= 1 << 30
	}
	if c.BD {
		v |= 1 << 31
	}
	return v
}

// FromUint32 unpacks v into the CauseRegister fields, ignoring any bits
// outside of causeWriteMask - a guest mtc0 to CAUSE can only toggle the
// software interrupt pending bits.
func (c *CauseRegister) FromUint32(v uint32) {
	v &= causeWriteMask
	c.Ip = (c.Ip &^ 0x3) | uint8(v>>8)
}
