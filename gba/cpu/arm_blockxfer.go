package cpu

// armBlockDataTransfer implements LDM/STM: a register list transferred
// to/from consecutive words, with pre/post indexing, up/down direction,
// writeback, and an S-bit that forces User-bank register access
// (§4.3).
func (c *CPU) armBlockDataTransfer(opcode uint32) (int, bool) {
	preIndex := (opcode>>24)&1 == 1
	up := (opcode>>23)&1 == 1
	sBit := (opcode>>22)&1 == 1
	writeback := (opcode>>21)&1 == 1
	load := (opcode>>20)&1 == 1
	rn := int((opcode >> 16) & 0xF)
	regList := uint16(opcode & 0xFFFF)

	count := 0
	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) != 0 {
			count++
		}
	}
	if count == 0 {
		// An empty register list is architecturally undefined; treat
		// it as a no-op transfer of r15 worth of address movement,
		// matching common real-hardware behavior (count treated as 16).
		count = 16
	}

	base := c.Regs.R(rn)
	var start uint32
	if up {
		start = base
	} else {
		start = base - 4*uint32(count)
	}
	if preIndex == up {
		start += 4
	}

	r15InList := regList&(1<<15) != 0
	forceUserBank := sBit && !(load && r15InList)

	addr := start
	branched := false
	for i := 0; i < 16; i++ {
		if regList&(1<<uint(i)) == 0 {
			continue
		}
		if load {
			value := c.bus.ReadWord(addr &^ 3)
			switch {
			case i == 15:
				c.branchTo(value)
				branched = true
				if sBit {
					_ = c.Regs.SetCPSR(c.Regs.SPSR(), false, false)
				}
			case forceUserBank:
				c.Regs.SetUserRegister(i, value)
			default:
				c.Regs.SetR(i, value)
			}
		} else {
			var value uint32
			switch {
			case i == 15:
				value = c.pcOperand()
			case forceUserBank:
				value = c.Regs.UserRegister(i)
			default:
				value = c.Regs.R(i)
			}
			c.bus.WriteWord(addr&^3, value)
		}
		addr += 4
	}

	if writeback {
		if up {
			c.Regs.SetR(rn, base+4*uint32(count))
		} else {
			c.Regs.SetR(rn, base-4*uint32(count))
		}
	}

	cycles := count
	if load {
		cycles++
	}
	return cycles, branched
}
