package cpu

// armMultiply implements MUL/MLA: 32x32->32 signed/unsigned multiply,
// optionally accumulating into Rd (§4.3).
func (c *CPU) armMultiply(opcode uint32) (int, bool) {
	accumulate := (opcode>>21)&1 == 1
	sBit := (opcode>>20)&1 == 1
	rd := int((opcode >> 16) & 0xF)
	rn := int((opcode >> 12) & 0xF)
	rs := int((opcode >> 8) & 0xF)
	rm := int(opcode & 0xF)

	result := c.Regs.R(rm) * c.Regs.R(rs)
	if accumulate {
		result += c.Regs.R(rn)
	}
	c.Regs.SetR(rd, result)

	if sBit {
		c.Regs.SetNZ(result)
	}
	return 2, false
}

// armMultiplyLong implements the 32x32->64 signed/unsigned multiply
// family (UMULL/UMLAL/SMULL/SMLAL), writing the result across RdHi:RdLo.
func (c *CPU) armMultiplyLong(opcode uint32) (int, bool) {
	signed := (opcode>>22)&1 == 1
	accumulate := (opcode>>21)&1 == 1
	sBit := (opcode>>20)&1 == 1
	rdHi := int((opcode >> 16) & 0xF)
	rdLo := int((opcode >> 12) & 0xF)
	rs := int((opcode >> 8) & 0xF)
	rm := int(opcode & 0xF)

	var result uint64
	if signed {
		result = uint64(int64(int32(c.Regs.R(rm))) * int64(int32(c.Regs.R(rs))))
	} else {
		result = uint64(c.Regs.R(rm)) * uint64(c.Regs.R(rs))
	}

	if accumulate {
		acc := uint64(c.Regs.R(rdHi))<<32 | uint64(c.Regs.R(rdLo))
		result += acc
	}

	lo := uint32(result)
	hi := uint32(result >> 32)
	c.Regs.SetR(rdLo, lo)
	c.Regs.SetR(rdHi, hi)

	if sBit {
		c.Regs.SetNZ(hi)
		if lo != 0 {
			c.Regs.SetFlags(hi&0x8000_0000 != 0, false, c.Regs.Carry(), c.Regs.Overflow())
		}
	}
	return 3, false
}

// armSingleDataSwap implements SWP/SWPB: an atomic read-modify-write
// of a word or byte at the address in Rn.
func (c *CPU) armSingleDataSwap(opcode uint32) (int, bool) {
	byteSwap := (opcode>>22)&1 == 1
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)
	rm := int(opcode & 0xF)

	addr := c.Regs.R(rn)
	if byteSwap {
		old := c.bus.ReadByte(addr)
		c.bus.WriteByte(addr, uint8(c.Regs.R(rm)))
		c.Regs.SetR(rd, uint32(old))
	} else {
		old := c.bus.ReadWord(addr & ^uint32(3))
		old = rotateRead(old, addr)
		c.bus.WriteWord(addr, c.Regs.R(rm))
		c.Regs.SetR(rd, old)
	}
	return 4, false
}
