package cpu

// Coprocessor 0 register numbers, as addressed by mtc0/mfc0's rd field.
const (
	cop0BPC      = 3
	cop0BDA      = 5
	cop0TAR      = 6
	cop0DCIC     = 7
	cop0BadVaddr = 8
	cop0BDAM     = 9
	cop0BPCM     = 11
	cop0SR       = 12
	cop0CAUSE    = 13
	cop0EPC      = 14
	cop0PRID     = 15
)

// prid is the fixed value the PRID register reports: R3000A revision 2.
const prid = 0x00000002

// dcicWriteMask restricts guest mtc0 writes to DCIC to the bits hardware
// actually lets software set; bits 16-22 are reserved and always read back
// zero regardless of what a guest writes there.
const dcicWriteMask = 0xFF80FFFF

// COP0 is the system control coprocessor. Most of its registers are plain
// storage - the BPC/BDA/BPCM/BDAM breakpoint comparators and the DCIC debug
// control register configure an on-chip hardware debugger this core never
// implements, so they only need to round-trip through save states and
// mtc0/mfc0 faithfully, never actually trap anything.
type COP0 struct {
	SR    StatusRegister
	Cause CauseRegister

	EPC      uint32
	TAR      uint32
	BadVaddr uint32
	BPC      uint32
	BDA      uint32
	BPCM     uint32
	BDAM     uint32
	DCIC     uint32

	// CacheControl is not a numbered COP0 register at all - it is mapped
	// into KSEG2 at a fixed physical address - but it lives alongside the
	// rest of COP0's state so that it round-trips through save states. It
	// is pure storage: mtc0/mfc0 cannot address it, and LoadWord/StoreWord
	// send its address to the Bus like any other.
	CacheControl uint32

	// Scratchpad backs the 1KB of data cache used as scratchpad RAM. It has
	// no behavior of its own in this core; it is pure storage round-tripped
	// through save states, and guest loads and stores never reach it.
	Scratchpad [1024]byte
}

func (c *COP0) reset() {
	c.SR.reset()
	c.Cause.reset()
	c.EPC = 0
	c.TAR = 0
	c.BadVaddr = 0
	c.BPC = 0
	c.BDA = 0
	c.BPCM = 0
	c.BDAM = 0
	c.DCIC = 0
	c.CacheControl = 0
	for i := range c.Scratchpad {
		c.Scratchpad[i] = 0
	}
}

// VectorBase returns the base address exceptions vector to, selected by
// SR.BEV.
func (c *COP0) VectorBase() uint32 {
	if c.SR.BEV {
		return 0xBFC00100
	}
	return 0x80000000
}

// Read returns the value a guest mfc0 targeting register rd observes.
func (c *COP0) Read(rd uint32) uint32 {
	switch rd {
	case cop0BPC:
		return c.BPC
	case cop0BDA:
		return c.BDA
	case cop0TAR:
		return c.TAR
	case cop0DCIC:
		return c.DCIC
	case cop0BadVaddr:
		return c.BadVaddr
	case cop0BDAM:
		return c.BDAM
	case cop0BPCM:
		return c.BPCM
	case cop0SR:
		return c.SR.ToUint32()
	case cop0CAUSE:
		return c.Cause.ToUint32()
	case cop0EPC:
		return c.EPC
	case cop0PRID:
		return prid
	default:
		return 0
	}
}

// Write applies a guest mtc0 targeting register rd. BadVaddr and PRID are
// read-only on real hardware; writes to them are dropped.
func (c *COP0) Write(rd uint32, v uint32) {
	switch rd {
	case cop0BPC:
		c.BPC = v
	case cop0BDA:
		c.BDA = v
	case cop0TAR:
		c.TAR = v
	case cop0DCIC:
		c.DCIC = (c.DCIC &^ dcicWriteMask) | (v & dcicWriteMask)
	case cop0BDAM:
		c.BDAM = v
	case cop0BPCM:
		c.BPCM = v
	case cop0SR:
		c.SR.FromUint32(v)
	case cop0CAUSE:
		c.Cause.FromUint32(v)
	case cop0EPC:
		c.EPC = v
	case cop0BadVaddr, cop0PRID:
		// read-only
	}
}
