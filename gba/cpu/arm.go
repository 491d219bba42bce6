package cpu

// stepARM decodes and executes one 32-bit ARM instruction, returning
// its cycle cost. A failed condition check consumes one sequential
// cycle with no other effect (§4.3).
func (c *CPU) stepARM(opcode uint32) int {
	cond := opcode >> 28
	if !c.conditionPasses(cond) {
		c.advance()
		return 1
	}

	cycles, branched := c.executeARM(opcode)
	if !branched {
		c.advance()
	}
	return cycles
}

// executeARM dispatches on the decode groups enumerated in §4.3, in
// the stated precedence (first match wins).
func (c *CPU) executeARM(opcode uint32) (cycles int, branched bool) {
	// Branch and exchange: cond 0001 0010 1111 1111 1111 0001 Rn
	if opcode&0x0FFF_FFF0 == 0x012F_FF10 {
		return c.armBranchExchange(opcode)
	}

	bits27_25 := (opcode >> 25) & 0x7
	bit4 := (opcode >> 4) & 1
	bit7 := (opcode >> 7) & 1

	if bits27_25 == 0b000 && bit7 == 1 && bit4 == 1 {
		bits6_5 := (opcode >> 5) & 0x3
		if bits6_5 == 0b00 {
			bits27_23 := (opcode >> 23) & 0x1F
			switch bits27_23 {
			case 0b00000:
				return c.armMultiply(opcode)
			case 0b00001:
				return c.armMultiplyLong(opcode)
			case 0b00010:
				return c.armSingleDataSwap(opcode)
			}
			c.undefinedInstruction()
			return 1, true
		}
		return c.armHalfwordSignedTransfer(opcode)
	}

	switch bits27_25 {
	case 0b000, 0b001:
		return c.armDataProcessing(opcode)
	case 0b010, 0b011:
		return c.armSingleDataTransfer(opcode)
	case 0b100:
		return c.armBlockDataTransfer(opcode)
	case 0b101:
		return c.armBranch(opcode)
	case 0b110:
		// Coprocessor data transfer: out of scope, undefined.
		c.undefinedInstruction()
		return 1, true
	case 0b111:
		if (opcode>>24)&1 == 1 {
			c.softwareInterrupt()
			return 3, true
		}
		c.undefinedInstruction()
		return 1, true
	}

	c.undefinedInstruction()
	return 1, true
}

// armBranchExchange implements BX: jump to the address in Rn, with
// bit 0 selecting Thumb state.
func (c *CPU) armBranchExchange(opcode uint32) (int, bool) {
	rn := opcode & 0xF
	target := c.Regs.R(int(rn))
	c.Regs.SetThumb(target&1 != 0)
	c.branchTo(target &^ 1)
	return 3, true
}

// armBranch implements B/BL: a 24-bit signed word offset, shifted left
// by 2 and added to the pipelined PC; BL additionally captures the
// return address in LR.
func (c *CPU) armBranch(opcode uint32) (int, bool) {
	link := (opcode>>24)&1 == 1
	offset := int32(opcode&0x00FF_FFFF) << 8 >> 8 // sign-extend 24 bits
	target := uint32(int64(c.pcOperand()) + int64(offset)*4)

	if link {
		c.Regs.SetLR(c.fetchAddr() + 4)
	}
	c.branchTo(target)
	return 3, true
}
