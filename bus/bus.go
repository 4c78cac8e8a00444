// Package bus defines the memory-facing boundary of the CPU core. The core
// itself owns no RAM, BIOS image or peripheral mapping: every load and store
// the interpreter performs is routed through a Bus supplied by the host, the
// same way the teacher's cpu package never reaches into VCS memory directly
// but always goes through a bus-shaped collaborator.
package bus

// Bus is implemented by the host's memory map. Width-specific methods exist
// because the real hardware pulls an odd number of bytes off the data bus
// for halfword and byte accesses; the core relies on the callee to decode
// the address and report whether the access actually landed on something.
//
// A false ok return means the address is unmapped or otherwise rejected by
// the bus (an open bus read, a write to read-only space, a misrouted
// peripheral). The CPU turns that into a bus-error exception; it never
// panics or guesses at a default value.
type Bus interface {
	ReadByte(addr uint32) (value uint8, ok bool)
	ReadHalfWord(addr uint32) (value uint16, ok bool)
	ReadWord(addr uint32) (value uint32, ok bool)

	WriteByte(addr uint32, value uint8) (ok bool)
	WriteHalfWord(addr uint32, value uint16) (ok bool)
	WriteWord(addr uint32, value uint32) (ok bool)
}

// Segment identifies which of the four fixed KUSEG/KSEG0/KSEG1/KSEG2
// windows an address falls in, for the benefit of hosts that want to mirror
// the same physical page across more than one virtual window.
type Segment int

const (
	KUSEG Segment = iota
	KSEG0
	KSEG1
	KSEG2
)

// SegmentOf classifies a CPU-side virtual address by the fixed MIPS memory
// map window its leading address bits select.
func SegmentOf(addr uint32) Segment {
	switch {
	case addr < 0x80000000:
		return KUSEG
	case addr < 0xA0000000:
		return KSEG0
	case addr < 0xC0000000:
		return KSEG1
	default:
		return KSEG2
	}
}

// PhysicalAddress strips the segment bits that only matter to the CPU's own
// address translation, returning the address the bus itself should be
// indexed with. KSEG0 and KSEG1 both mirror the same physical range as
// KUSEG; KSEG2 (used only for the cache control register) is left as-is.
func PhysicalAddress(addr uint32) uint32 {
	switch SegmentOf(addr) {
	case KSEG0, KSEG1:
		return addr & 0x1FFFFFFF
	default:
		return addr
	}
}
