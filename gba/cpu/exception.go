package cpu

// ExceptionKind is one of the seven ARM7TDMI exception entry points
// (§4.2).
type ExceptionKind uint8

const (
	ExceptionReset ExceptionKind = iota
	ExceptionUndefinedInstr
	ExceptionSoftwareInterrupt
	ExceptionPrefetchAbort
	ExceptionDataAbort
	ExceptionInterrupt
	ExceptionFastInterrupt
)

type exceptionInfo struct {
	vector     uint32
	targetMode Mode
}

var exceptionTable = map[ExceptionKind]exceptionInfo{
	ExceptionReset:             {0x00, ModeSupervisor},
	ExceptionUndefinedInstr:    {0x04, ModeUndefined},
	ExceptionSoftwareInterrupt: {0x08, ModeSupervisor},
	ExceptionPrefetchAbort:     {0x0C, ModeAbort},
	ExceptionDataAbort:         {0x10, ModeAbort},
	ExceptionInterrupt:         {0x18, ModeIRQ},
	ExceptionFastInterrupt:     {0x1C, ModeFIQ},
}

// EnterException executes the §4.2 entry sequence. fetchAddr is the
// address of the instruction that caused (or, for Interrupt/
// FastInterrupt, was about to execute when) the exception was
// recognized; instrSize is 4 for ARM state and 2 for Thumb state at
// the moment of entry.
func (c *CPU) EnterException(kind ExceptionKind, fetchAddr uint32, instrSize uint32) {
	info := exceptionTable[kind]

	lr := linkRegisterFor(kind, fetchAddr, instrSize)

	savedCPSR := c.Regs.CPSR()

	// SwitchMode banks the departing mode's SP/LR/SPSR and loads the
	// target mode's; the banked SPSR slot is then overwritten below
	// with the just-captured CPSR, and LR with the computed return
	// address.
	_ = c.Regs.SwitchMode(info.targetMode)

	c.Regs.SetSPSR(savedCPSR)
	c.Regs.SetLR(lr)

	c.Regs.SetIRQDisabled(true)
	if kind == ExceptionFastInterrupt {
		c.Regs.SetFIQDisabled(true)
	}
	c.Regs.SetThumb(false)

	c.branchTo(info.vector)
}

// linkRegisterFor computes the banked LR per the per-kind offsets
// described in §4.2/§4.7 and verified against the literal SWI/IRQ
// scenarios in §8: SWI/UND resume at the instruction following the one
// that trapped; hardware IRQ/FIQ entry always uses a fixed +4 over the
// address of the not-yet-executed instruction, independent of the
// interrupted code's instruction state.
func linkRegisterFor(kind ExceptionKind, fetchAddr uint32, instrSize uint32) uint32 {
	switch kind {
	case ExceptionSoftwareInterrupt, ExceptionUndefinedInstr:
		return fetchAddr + instrSize
	case ExceptionPrefetchAbort:
		return fetchAddr + instrSize
	case ExceptionDataAbort:
		return fetchAddr + instrSize + 4
	case ExceptionInterrupt, ExceptionFastInterrupt:
		return fetchAddr + 4
	default:
		return fetchAddr
	}
}
