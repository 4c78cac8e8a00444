package cpu

// srWriteMask limits which bits of SR a guest mtc0 can actually change.
// Reserved bits (6, 7, 23-27) stay at whatever Reset left them, which is
// zero.
const srWriteMask = 0xF07FFF3F

// StatusRegister is coprocessor 0 register 12. It carries the six-bit mode
// stack (current/previous/old pairs of interrupt-enable and kernel/user),
// the eight-bit interrupt mask, the four coprocessor-usability bits and the
// exception vector base selector. It is implemented as a structure with
// named fields and explicit pack/unpack accessors rather than a raw union,
// so that nothing about the host's own integer layout leaks into guest-
// visible behaviour.
type StatusRegister struct {
	IEc, KUc bool
	IEp, KUp bool
	IEo, KUo bool

	Im uint8 // eight-bit interrupt mask, IM0..IM7

	Isc bool // isolate cache
	Swc bool // swap caches
	PZ  bool
	CM  bool
	PE  bool
	TS  bool // TLB shutdown

	BEV bool // bootstrap exception vector

	CU0, CU1, CU2, CU3 bool
}

// ModeBits packs the six-bit current/previous/old mode stack into the
// layout it occupies within SR: bit0 IEc, bit1 KUc, bit2 IEp, bit3 KUp,
// bit4 IEo, bit5 KUo.
func (sr StatusRegister) ModeBits() uint8 {
	var v uint8
	if sr.IEc {
		v |= 0x01
	}
	if sr.KUc {
		v |= 0x02
	}
	if sr.IEp {
		v |= 0x04
	}
	if sr.KUp {
		v |= 0x08
	}
	if sr.IEo {
		v |= 0x10
	}
	if sr.KUo {
		v |= 0x20
	}
	return v
}

// SetModeBits unpacks the low six bits of v into the mode stack fields.
func (sr *StatusRegister) SetModeBits(v uint8) {
	sr.IEc = v&0x01 != 0
	sr.KUc = v&0x02 != 0
	sr.IEp = v&0x04 != 0
	sr.KUp = v&0x08 != 0
	sr.IEo = v&0x10 != 0
	sr.KUo = v&0x20 != 0
}

// PushMode shifts the mode stack left by two, the effect raising an
// exception has: previous becomes old, current becomes previous, and the
// new current is forced to kernel mode with interrupts disabled.
func (sr *StatusRegister) PushMode() {
	sr.SetModeBits((sr.ModeBits() << 2) & 0x3F)
}

// PopMode is the effect of rfe: it keeps the old pair in place and shifts
// the previous pair down into current, per "mode_bits = (mode_bits & 0x30)
// | (mode_bits >> 2)".
func (sr *StatusRegister) PopMode() {
	bits := sr.ModeBits()
	sr.SetModeBits((bits & 0x30) | (bits >> 2))
}

func (sr *StatusRegister) reset() {
	sr.FromUint32(0)
}

// ToUint32 packs the StatusRegister into the 32-bit layout a guest mfc0
// would observe.
func (sr StatusRegister) ToUint32() uint32 {
	v := uint32(sr.ModeBits())

	v |= uint32(sr.Im) << 8

	if sr.Isc {
		v |= 1 << 16
	}
	if sr.Swc {
		v |= 1 << 17
	}
	if sr.PZ {
		v |= 1 << 18
	}
	if sr.CM {
		v |= 1 << 19
	}
	if sr.PE {
		v |= 1 << 20
	}
	if sr.TS {
		v |= 1 << 21
	}
	if sr.BEV {
		v |= 1 << 22
	}
	if sr.CU0 {
		v |= 1 << 28
	}
	if sr.CU1 {
		v |= 1 << 29
	}
	if sr.CU2 {
		v |= 1 << 30
	}
	if sr.CU3 {
		v |= 1 << 31
	}

	return v
}

// FromUint32 unpacks v into the StatusRegister fields, ignoring any bits
// outside of srWriteMask.
func (sr *StatusRegister) FromUint32(v uint32) {
	v &= srWriteMask

	sr.SetModeBits(uint8(v))

	sr.Im = uint8(v >> 8)

	sr.Isc = v&(1<<16) != 0
	sr.Swc = v&(1<<17) != 0
	sr.PZ = v&(1<<18) != 0
	sr.CM = v&(1<<19) != 0
	sr.PE = v&(1<<20) != 0
	sr.TS = v&(1<<21) != 0
	sr.BEV = v&(1<<22) != 0
	sr.CU0 = v&(1<<28) != 0
	sr.CU1 = v&(1<<29) != 0
	sr.CU2 = v&(1<<30) != 0
	sr.CU3 = v&(1<<31) != 0
}
