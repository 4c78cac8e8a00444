package cpu

// step decodes and executes one instruction. It is the body of the main
// loop's step 4; pipeline advance/load-delay advance happen around it in
// Execute.
func (c *CPU) step(d decode) {
	switch d.op {
	case opSPECIAL:
		c.execSpecial(d)
	case opREGIMM:
		c.execRegimm(d)
	case opJ:
		c.Branch((c.pc &^ 0x0FFFFFFF) | (d.target << 2))
	case opJAL:
		c.WriteGPR(31, c.pc+8)
		c.Branch((c.pc &^ 0x0FFFFFFF) | (d.target << 2))
	case opBEQ:
		c.branchIf(c.ReadGPR(d.rs) == c.ReadGPR(d.rt), d)
	case opBNE:
		c.branchIf(c.ReadGPR(d.rs) != c.ReadGPR(d.rt), d)
	case opBLEZ:
		c.branchIf(int32(c.ReadGPR(d.rs)) <= 0, d)
	case opBGTZ:
		c.branchIf(int32(c.ReadGPR(d.rs)) > 0, d)
	case opADDI:
		c.execAddImmediate(d, true)
	case opADDIU:
		c.execAddImmediate(d, false)
	case opSLTI:
		c.WriteGPR(d.rt, b2u(int32(c.ReadGPR(d.rs)) < d.simm16))
	case opSLTIU:
		c.WriteGPR(d.rt, b2u(c.ReadGPR(d.rs) < uint32(d.simm16)))
	case opANDI:
		c.WriteGPR(d.rt, c.ReadGPR(d.rs)&d.imm16)
	case opORI:
		c.WriteGPR(d.rt, c.ReadGPR(d.rs)|d.imm16)
	case opXORI:
		c.WriteGPR(d.rt, c.ReadGPR(d.rs)^d.imm16)
	case opLUI:
		c.WriteGPR(d.rt, d.imm16<<16)
	case opCOP0:
		c.execCOP0(d)
	case opCOP1, opCOP3:
		// no COP1/COP3 hardware exists on this console; the opcodes are
		// silently no-ops rather than RI, matching observed BIOS behaviour.
	case opCOP2:
		c.execCOP2(d)
	case opLB:
		c.execLoadByte(d, true)
	case opLBU:
		c.execLoadByte(d, false)
	case opLH:
		c.execLoadHalf(d, true)
	case opLHU:
		c.execLoadHalf(d, false)
	case opLW:
		c.execLoadWord(d)
	case opLWL:
		c.execLoadWordPartial(d, true)
	case opLWR:
		c.execLoadWordPartial(d, false)
	case opSB:
		addr := c.ReadGPR(d.rs) + uint32(d.simm16)
		c.StoreByte(addr, uint8(c.ReadGPR(d.rt)))
	case opSH:
		addr := c.ReadGPR(d.rs) + uint32(d.simm16)
		c.StoreHalfWord(addr, uint16(c.ReadGPR(d.rt)))
	case opSW:
		addr := c.ReadGPR(d.rs) + uint32(d.simm16)
		c.StoreWord(addr, c.ReadGPR(d.rt))
	case opSWL:
		c.execStoreWordPartial(d, true)
	case opSWR:
		c.execStoreWordPartial(d, false)
	case opLWC0, opSWC0, opLWC1, opSWC1, opLWC3, opSWC3:
		// no COP0/COP1/COP3 memory-transfer hardware exists; silent no-op.
	case opLWC2:
		c.execLWC2(d)
	case opSWC2:
		c.execSWC2(d)
	default:
		c.raiseException(excRI)
	}
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// branchIf is the common tail shared by every conditional branch: it
// computes the target relative to c.pc, which fetch has already advanced
// to the delay slot's address, and only
// actually branches when cond holds, exactly as BEQ/BNE/BLEZ/BGTZ/REGIMM
// all require.
func (c *CPU) branchIf(cond bool, d decode) {
	if cond {
		c.Branch(c.pc + uint32(d.simm16<<2))
	}
}

func (c *CPU) execRegimm(d decode) {
	taken := false
	switch d.rt & 0x1 {
	case rtBLTZ:
		taken = int32(c.ReadGPR(d.rs)) < 0
	case rtBGEZ:
		taken = int32(c.ReadGPR(d.rs)) >= 0
	}

	// the link-register update happens whenever bits [4:1] of rt select one
	// of the *AL forms, regardless of whether the branch itself is taken.
	if d.rt&0x1E == 0x10 {
		c.WriteGPR(31, c.pc+8)
	}

	if taken {
		c.Branch(c.pc + uint32(d.simm16<<2))
	}
}

func (c *CPU) execSpecial(d decode) {
	switch d.funct {
	case fnSLL:
		c.WriteGPR(d.rd, c.ReadGPR(d.rt)<<d.shamt)
	case fnSRL:
		c.WriteGPR(d.rd, c.ReadGPR(d.rt)>>d.shamt)
	case fnSRA:
		c.WriteGPR(d.rd, uint32(int32(c.ReadGPR(d.rt))>>d.shamt))
	case fnSLLV:
		c.WriteGPR(d.rd, c.ReadGPR(d.rt)<<(c.ReadGPR(d.rs)&0x1F))
	case fnSRLV:
		c.WriteGPR(d.rd, c.ReadGPR(d.rt)>>(c.ReadGPR(d.rs)&0x1F))
	case fnSRAV:
		c.WriteGPR(d.rd, uint32(int32(c.ReadGPR(d.rt))>>(c.ReadGPR(d.rs)&0x1F)))
	case fnJR:
		c.Branch(c.ReadGPR(d.rs))
	case fnJALR:
		target := c.ReadGPR(d.rs)
		c.WriteGPR(d.rd, c.pc+8)
		c.Branch(target)
	case fnSYSCALL:
		c.raiseException(excSys)
	case fnBREAK:
		c.raiseException(excBP)
	case fnMFHI:
		c.WriteGPR(d.rd, c.Regs.Hi)
	case fnMTHI:
		c.Regs.Hi = c.ReadGPR(d.rs)
	case fnMFLO:
		c.WriteGPR(d.rd, c.Regs.Lo)
	case fnMTLO:
		c.Regs.Lo = c.ReadGPR(d.rs)
	case fnMULT:
		result := int64(int32(c.ReadGPR(d.rs))) * int64(int32(c.ReadGPR(d.rt)))
		c.Regs.Lo = uint32(result)
		c.Regs.Hi = uint32(result >> 32)
	case fnMULTU:
		result := uint64(c.ReadGPR(d.rs)) * uint64(c.ReadGPR(d.rt))
		c.Regs.Lo = uint32(result)
		c.Regs.Hi = uint32(result >> 32)
	case fnDIV:
		c.execDiv(d)
	case fnDIVU:
		c.execDivu(d)
	case fnADD:
		c.execAddRegister(d, true)
	case fnADDU:
		c.execAddRegister(d, false)
	case fnSUB:
		c.execSubRegister(d, true)
	case fnSUBU:
		c.execSubRegister(d, false)
	case fnAND:
		c.WriteGPR(d.rd, c.ReadGPR(d.rs)&c.ReadGPR(d.rt))
	case fnOR:
		c.WriteGPR(d.rd, c.ReadGPR(d.rs)|c.ReadGPR(d.rt))
	case fnXOR:
		c.WriteGPR(d.rd, c.ReadGPR(d.rs)^c.ReadGPR(d.rt))
	case fnNOR:
		c.WriteGPR(d.rd, ^(c.ReadGPR(d.rs) | c.ReadGPR(d.rt)))
	case fnSLT:
		c.WriteGPR(d.rd, b2u(int32(c.ReadGPR(d.rs)) < int32(c.ReadGPR(d.rt))))
	case fnSLTU:
		c.WriteGPR(d.rd, b2u(c.ReadGPR(d.rs) < c.ReadGPR(d.rt)))
	default:
		c.raiseException(excRI)
	}
}

// addOverflowed applies the add-overflow detection formula: ((result ^
// old) & (result ^ operand)) & 0x80000000 != 0.
func addOverflowed(old, operand, result uint32) bool {
	return ((result^old)&(result^operand))&0x80000000 != 0
}

// subOverflowed is the sub variant of the same formula, using (old ^
// operand) in place of (result ^ operand).
func subOverflowed(old, operand, result uint32) bool {
	return ((result ^ old) & (old ^ operand)) & 0x80000000 != 0
}

func (c *CPU) execAddImmediate(d decode, trapOnOverflow bool) {
	old := c.ReadGPR(d.rs)
	operand := uint32(d.simm16)
	sum := old + operand

	if trapOnOverflow && addOverflowed(old, operand, sum) {
		c.raiseException(excOv)
		return
	}
	c.WriteGPR(d.rt, sum)
}

func (c *CPU) execAddRegister(d decode, trapOnOverflow bool) {
	old := c.ReadGPR(d.rs)
	operand := c.ReadGPR(d.rt)
	sum := old + operand

	if trapOnOverflow && addOverflowed(old, operand, sum) {
		c.raiseException(excOv)
		return
	}
	c.WriteGPR(d.rd, sum)
}

func (c *CPU) execSubRegister(d decode, trapOnOverflow bool) {
	old := c.ReadGPR(d.rs)
	operand := c.ReadGPR(d.rt)
	diff := old - operand

	if trapOnOverflow && subOverflowed(old, operand, diff) {
		c.raiseException(excOv)
		return
	}
	c.WriteGPR(d.rd, diff)
}

func (c *CPU) execDiv(d decode) {
	num := int32(c.ReadGPR(d.rs))
	denom := int32(c.ReadGPR(d.rt))

	switch {
	case denom == 0:
		if num >= 0 {
			c.Regs.Lo = 0xFFFFFFFF
		} else {
			c.Regs.Lo = 1
		}
		c.Regs.Hi = uint32(num)
	case num == -0x80000000 && denom == -1:
		c.Regs.Lo = 0x80000000
		c.Regs.Hi = 0
	default:
		c.Regs.Lo = uint32(num / denom)
		c.Regs.Hi = uint32(num % denom)
	}
}

func (c *CPU) execDivu(d decode) {
	num := c.ReadGPR(d.rs)
	denom := c.ReadGPR(d.rt)

	if denom == 0 {
		c.Regs.Lo = 0xFFFFFFFF
		c.Regs.Hi = num
		return
	}
	c.Regs.Lo = num / denom
	c.Regs.Hi = num % denom
}

func (c *CPU) execLoadByte(d decode, signed bool) {
	addr := c.ReadGPR(d.rs) + uint32(d.simm16)
	v, ok := c.LoadByte(addr)
	if !ok {
		return
	}
	if signed {
		c.WriteGPRDelayed(d.rt, uint32(int32(int8(v))))
	} else {
		c.WriteGPRDelayed(d.rt, uint32(v))
	}
}

func (c *CPU) execLoadHalf(d decode, signed bool) {
	addr := c.ReadGPR(d.rs) + uint32(d.simm16)
	v, ok := c.LoadHalfWord(addr)
	if !ok {
		return
	}
	if signed {
		c.WriteGPRDelayed(d.rt, uint32(int32(int16(v))))
	} else {
		c.WriteGPRDelayed(d.rt, uint32(v))
	}
}

func (c *CPU) execLoadWord(d decode) {
	addr := c.ReadGPR(d.rs) + uint32(d.simm16)
	v, ok := c.LoadWord(addr)
	if !ok {
		return
	}
	c.WriteGPRDelayed(d.rt, v)
}

// execLoadWordPartial implements lwl (left=true) and lwr (left=false). Both
// merge against the raw register file value, bypassing any pending load
// delay on the destination - the spec calls this out explicitly because it
// is the one place the load delay shadow is not consulted on a read.
func (c *CPU) execLoadWordPartial(d decode, left bool) {
	addr := c.ReadGPR(d.rs) + uint32(d.simm16)
	aligned, ok := c.LoadWordUnaligned(addr)
	if !ok {
		return
	}

	existing := c.Regs.GPR(d.rt)
	shift := (addr & 3) * 8

	var merged uint32
	if left {
		merged = (existing & (0x00FFFFFF >> shift)) | (aligned << (24 - shift))
	} else {
		merged = (existing & (0xFFFFFF00 << (24 - shift))) | (aligned >> shift)
	}

	c.WriteGPRDelayed(d.rt, merged)
}

// execStoreWordPartial implements swl (left=true) and swr (left=false).
func (c *CPU) execStoreWordPartial(d decode, left bool) {
	addr := c.ReadGPR(d.rs) + uint32(d.simm16)
	mem, ok := c.LoadWordUnaligned(addr)
	if !ok {
		return
	}

	reg := c.ReadGPR(d.rt)
	shift := (addr & 3) * 8

	var merged uint32
	if left {
		merged = (mem & (0xFFFFFF00 << shift)) | (reg >> (24 - shift))
	} else {
		merged = (mem & (0x00FFFFFF >> (24 - shift))) | (reg << shift)
	}

	c.StoreWordUnaligned(addr, merged)
}

func (c *CPU) execCOP0(d decode) {
	if !c.checkCoprocessorUsable(c.C0.SR.CU0, 0) {
		return
	}

	switch d.rs {
	case cop0MF:
		c.WriteGPRDelayed(d.rt, c.C0.Read(d.rd))
	case cop0MT:
		c.C0.Write(d.rd, c.ReadGPR(d.rt))
	case cop0RFE:
		c.rfe()
	default:
		c.raiseException(excRI)
	}
}

func (c *CPU) execCOP2(d decode) {
	if !c.checkCoprocessorUsable(c.C0.SR.CU2, 2) {
		return
	}
	if c.cop2 != nil {
		c.cop2.Execute(d.word)
	}
}

func (c *CPU) execLWC2(d decode) {
	if !c.checkCoprocessorUsable(c.C0.SR.CU2, 2) {
		return
	}
	addr := c.ReadGPR(d.rs) + uint32(d.simm16)
	v, ok := c.LoadWord(addr)
	if !ok {
		return
	}
	if c.cop2 != nil {
		c.cop2.WriteDataRegister(d.rt, v)
	}
}

func (c *CPU) execSWC2(d decode) {
	if !c.checkCoprocessorUsable(c.C0.SR.CU2, 2) {
		return
	}
	var v uint32
	if c.cop2 != nil {
		v = c.cop2.ReadDataRegister(d.rt)
	}
	addr := c.ReadGPR(d.rs) + uint32(d.simm16)
	c.StoreWord(addr, v)
}
