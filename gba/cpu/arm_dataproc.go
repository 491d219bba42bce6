package cpu

// aluOp is one of the 16 data-processing opcodes (§4.3).
type aluOp uint8

const (
	aluAND aluOp = iota
	aluEOR
	aluSUB
	aluRSB
	aluADD
	aluADC
	aluSBC
	aluRSC
	aluTST
	aluTEQ
	aluCMP
	aluCMN
	aluORR
	aluMOV
	aluBIC
	aluMVN
)

// armDataProcessing decodes and executes a data-processing instruction:
// two source operands, a destination register, a 16-entry ALU opcode,
// and an S-bit controlling flag updates (§4.3).
func (c *CPU) armDataProcessing(opcode uint32) (int, bool) {
	immediate := (opcode>>25)&1 == 1
	op := aluOp((opcode >> 21) & 0xF)
	sBit := (opcode>>20)&1 == 1
	rn := int((opcode >> 16) & 0xF)
	rd := int((opcode >> 12) & 0xF)

	carryIn := c.Regs.Carry()
	operand2, shiftCarry := c.resolveOperand2(opcode, immediate, carryIn)
	operand1 := c.Regs.R(rn)

	var result uint32
	var carryOut, overflow bool
	writesRd := true

	switch op {
	case aluAND:
		result = operand1 & operand2
		carryOut = shiftCarry
	case aluEOR:
		result = operand1 ^ operand2
		carryOut = shiftCarry
	case aluSUB:
		result, carryOut, overflow = SubFlags(operand1, operand2, true, false)
	case aluRSB:
		result, carryOut, overflow = SubFlags(operand2, operand1, true, false)
	case aluADD:
		result, carryOut, overflow = AddFlags(operand1, operand2, false, false)
	case aluADC:
		result, carryOut, overflow = AddFlags(operand1, operand2, carryIn, true)
	case aluSBC:
		result, carryOut, overflow = SubFlags(operand1, operand2, carryIn, true)
	case aluRSC:
		result, carryOut, overflow = SubFlags(operand2, operand1, carryIn, true)
	case aluTST:
		result = operand1 & operand2
		carryOut = shiftCarry
		writesRd = false
	case aluTEQ:
		result = operand1 ^ operand2
		carryOut = shiftCarry
		writesRd = false
	case aluCMP:
		result, carryOut, overflow = SubFlags(operand1, operand2, true, false)
		writesRd = false
	case aluCMN:
		result, carryOut, overflow = AddFlags(operand1, operand2, false, false)
		writesRd = false
	case aluORR:
		result = operand1 | operand2
		carryOut = shiftCarry
	case aluMOV:
		result = operand2
		carryOut = shiftCarry
	case aluBIC:
		result = operand1 &^ operand2
		carryOut = shiftCarry
	case aluMVN:
		result = ^operand2
		carryOut = shiftCarry
	}

	branched := false
	if writesRd && rd == 15 {
		if sBit {
			_ = c.Regs.SetCPSR(c.Regs.SPSR(), false, false)
		}
		c.branchTo(result)
		branched = true
	} else if writesRd {
		c.Regs.SetR(rd, result)
	}

	if sBit && !(writesRd && rd == 15) {
		switch op {
		case aluADD, aluADC, aluSUB, aluSBC, aluRSB, aluRSC, aluCMP, aluCMN:
			c.Regs.SetFlags(result&0x8000_0000 != 0, result == 0, carryOut, overflow)
		default:
			c.Regs.SetNZ(result)
			c.Regs.SetCarry(carryOut)
		}
	}

	return 1, branched
}

// resolveOperand2 decodes the second ALU operand: an 8-bit immediate
// rotated right by an even amount, or a register optionally shifted by
// an immediate or by another register's low byte (§4.3).
func (c *CPU) resolveOperand2(opcode uint32, immediate bool, carryIn bool) (value uint32, carryOut bool) {
	if immediate {
		imm8 := opcode & 0xFF
		rotate := ((opcode >> 8) & 0xF) * 2
		if rotate == 0 {
			return imm8, carryIn
		}
		rotated := rotateImmediate(imm8, rotate)
		return rotated, rotated&0x8000_0000 != 0
	}

	rm := int(opcode & 0xF)
	shiftType := ShiftType((opcode >> 5) & 0x3)
	byRegister := (opcode>>4)&1 == 1

	rmValue := c.Regs.R(rm)
	// A register-specified shift amount reads Rm normally; PC as Rm in
	// this form reads the same pipelined value already captured by
	// R(15) (the extra prefetch-stage offset some real hardware
	// exhibits is in the non-goal category, §1).

	if byRegister {
		rs := int((opcode >> 8) & 0xF)
		amount := c.Regs.R(rs) & 0xFF
		value, carryOut = Shift(shiftType, rmValue, amount, carryIn, false)
		return
	}

	amount := (opcode >> 7) & 0x1F
	value, carryOut = Shift(shiftType, rmValue, amount, carryIn, amount == 0)
	return
}

func rotateImmediate(value uint32, amount uint32) uint32 {
	amount &= 31
	if amount == 0 {
		return value
	}
	return (value >> amount) | (value << (32 - amount))
}
