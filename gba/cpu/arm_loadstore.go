package cpu

// rotateRead applies the §4.3 misaligned-word-load rotation: a word
// read from address addr (already fetched from the aligned address)
// is rotated right by 8 * (addr & 3) bits before being delivered to
// the destination register.
func rotateRead(word uint32, addr uint32) uint32 {
	rot := uint8((addr & 3) * 8)
	if rot == 0 {
		return word
	}
	return (word >> rot) | (word << (32 - rot))
}

// armSingleDataTransfer implements LDR/STR: a register base plus or
// minus an offset (register-shifted or immediate), with pre/post
// indexing and writeback; byte or word width (§4.3).
func (c *CPU) armSingleDataTransfer(opcode uint32) (int, bool) {
	registerOffset := (opcode>>25)&1 == 1
	preIndex := (opcode>>24)&1 == 1
	up := (opcode>>23)&1 == 1
	byteWidth := (opcode>>22)&1 == 1
	writeback := (opcode>>21)&1 == 1
	load := (opcode>>20)&1 == 1
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)

	var offset uint32
	if registerOffset {
		shiftType := ShiftType((opcode >> 5) & 0x3)
		amount := (opcode >> 7) & 0x1F
		rm := int(opcode & 0xF)
		offset, _ = Shift(shiftType, c.Regs.R(rm), amount, c.Regs.Carry(), amount == 0)
	} else {
		offset = opcode & 0xFFF
	}

	base := c.Regs.R(rn)
	var transferAddr uint32
	if preIndex {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
	} else {
		transferAddr = base
	}

	branched := false
	if load {
		if byteWidth {
			value := uint32(c.bus.ReadByte(transferAddr))
			c.setLoadDest(rd, value, &branched)
		} else {
			value := c.bus.ReadWord(transferAddr &^ 3)
			value = rotateRead(value, transferAddr)
			c.setLoadDest(rd, value, &branched)
		}
	} else {
		value := c.Regs.R(rd)
		if rd == 15 {
			value = c.pcOperand()
		}
		if byteWidth {
			c.bus.WriteByte(transferAddr, uint8(value))
		} else {
			c.bus.WriteWord(transferAddr&^3, value)
		}
	}

	if !preIndex {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
		c.Regs.SetR(rn, transferAddr)
	} else if writeback {
		c.Regs.SetR(rn, transferAddr)
	}

	cycles := 1
	if load {
		cycles = 3
	}
	return cycles, branched
}

// setLoadDest writes a loaded value to Rd, or performs a pipeline
// reload if Rd is the program counter.
func (c *CPU) setLoadDest(rd int, value uint32, branched *bool) {
	if rd == 15 {
		c.branchTo(value)
		*branched = true
		return
	}
	c.Regs.SetR(rd, value)
}

// armHalfwordSignedTransfer implements LDRH/STRH/LDRSB/LDRSH: the
// half-word and signed-byte/half-word transfer family, distinguished
// by the SH field (bits 6-5) and the immediate/register offset flag
// (bit 22).
func (c *CPU) armHalfwordSignedTransfer(opcode uint32) (int, bool) {
	preIndex := (opcode>>24)&1 == 1
	up := (opcode>>23)&1 == 1
	immediateOffset := (opcode>>22)&1 == 1
	writeback := (opcode>>21)&1 == 1
	load := (opcode>>20)&1 == 1
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)
	sh := (opcode >> 5) & 0x3

	var offset uint32
	if immediateOffset {
		offset = ((opcode>>8)&0xF)<<4 | (opcode & 0xF)
	} else {
		rm := int(opcode & 0xF)
		offset = c.Regs.R(rm)
	}

	base := c.Regs.R(rn)
	var transferAddr uint32
	if preIndex {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
	} else {
		transferAddr = base
	}

	branched := false
	if load {
		var value uint32
		switch sh {
		case 0b01: // unsigned half-word
			value = uint32(c.bus.ReadHalf(transferAddr &^ 1))
		case 0b10: // signed byte
			value = uint32(int32(int8(c.bus.ReadByte(transferAddr))))
		case 0b11: // signed half-word
			value = uint32(int32(int16(c.bus.ReadHalf(transferAddr &^ 1))))
		}
		c.setLoadDest(rd, value, &branched)
	} else {
		value := c.Regs.R(rd)
		c.bus.WriteHalf(transferAddr&^1, uint16(value))
	}

	if !preIndex {
		if up {
			transferAddr = base + offset
		} else {
			transferAddr = base - offset
		}
		c.Regs.SetR(rn, transferAddr)
	} else if writeback {
		c.Regs.SetR(rn, transferAddr)
	}

	cycles := 1
	if load {
		cycles = 3
	}
	return cycles, branched
}
