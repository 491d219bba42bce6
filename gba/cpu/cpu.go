// Package cpu implements the ARM7TDMI execution model: the banked
// register file, the exception entry sequence, and the ARM/Thumb
// decoders and executors (§3, §4.1-§4.4 of the core specification).
package cpu

import "log/slog"

// Bus is the seam the CPU uses to reach memory. The concrete
// implementation lives in package bus; this interface exists so cpu
// has no import-time dependency on it, mirroring the teacher's
// MMU-as-collaborator pattern (jeebie/cpu took a *memory.MMU directly;
// here an interface keeps bus and cpu independently testable).
type Bus interface {
	ReadByte(address uint32) uint8
	WriteByte(address uint32, value uint8)
	ReadHalf(address uint32) uint16
	WriteHalf(address uint32, value uint16)
	ReadWord(address uint32) uint32
	WriteWord(address uint32, value uint32)
	PrefetchInstruction(address uint32)
}

// CPU holds the ARM7TDMI register file and drives the fetch-decode-
// execute cycle for both instruction states.
type CPU struct {
	Regs *RegisterFile
	bus  Bus

	cycles uint64
}

// New returns a CPU wired to the given bus, in the documented ARM7TDMI
// reset state (§3 Lifecycle). Use Reset to (re)initialize register
// values.
func New(bus Bus) *CPU {
	c := &CPU{Regs: NewRegisterFile(), bus: bus}
	return c
}

// Post-BIOS-boot register values, used when Reset is asked to skip the
// BIOS boot sequence (§3 Lifecycle).
const (
	postBootSP    uint32 = 0x0300_7F00
	postBootSPirq uint32 = 0x0300_7FA0
	postBootSPfiq uint32 = 0x0300_7F00
	postBootPC    uint32 = 0x0800_0000
)

// Reset reinitializes the CPU to power-on state. When skipBIOS is
// true, the documented post-boot register values are installed and
// the PC jumps straight to the cartridge entry point instead of 0x00
// (the BIOS vector); the caller is responsible for zeroing the top
// 512 bytes of internal WRAM, per §3.
func (c *CPU) Reset(skipBIOS bool) {
	c.Regs = NewRegisterFile()
	c.cycles = 0

	if !skipBIOS {
		c.Regs.SetThumb(false)
		c.branchTo(0x00)
		return
	}

	c.Regs.SetSP(postBootSP)
	_ = c.Regs.SwitchMode(ModeIRQ)
	c.Regs.SetSP(postBootSPirq)
	_ = c.Regs.SwitchMode(ModeFIQ)
	c.Regs.SetSP(postBootSPfiq)
	_ = c.Regs.SwitchMode(ModeSystem)
	c.Regs.SetSP(postBootSP)

	c.Regs.SetThumb(false)
	c.branchTo(postBootPC)
}

// instrSize returns 4 in ARM state, 2 in Thumb state.
func (c *CPU) instrSize() uint32 {
	if c.Regs.Thumb() {
		return 2
	}
	return 4
}

// pcOperand is the value an instruction sees when it reads r15: the
// address of the currently executing instruction plus two instruction
// widths (§4.3 pipeline model). The register file stores r15 already
// in this "pipelined" form, so this is just a direct read.
func (c *CPU) pcOperand() uint32 { return c.Regs.PC() }

// fetchAddr is the address the instruction actually occupies, derived
// by undoing the pipeline offset from the stored (pipelined) PC.
func (c *CPU) fetchAddr() uint32 { return c.Regs.PC() - 2*c.instrSize() }

// branchTo implements the §4.3/§9 "pipeline reload" contract: any
// write to the program counter invalidates the prefetch window. The
// target is aligned to the current instruction size, then advanced by
// two instruction widths so that subsequent pcOperand()/fetchAddr()
// reads are correct.
func (c *CPU) branchTo(target uint32) {
	size := c.instrSize()
	aligned := target &^ (size - 1)
	c.Regs.SetPC(aligned + 2*size)
}

// Step executes exactly one instruction (or one idle cycle if the
// condition check fails) and returns the number of cycles it
// consumed.
func (c *CPU) Step() int {
	addr := c.fetchAddr()
	c.bus.PrefetchInstruction(addr)

	if c.Regs.Thumb() {
		opcode := c.bus.ReadHalf(addr)
		return c.stepThumb(opcode)
	}

	opcode := c.bus.ReadWord(addr)
	return c.stepARM(opcode)
}

// advance moves the pipeline forward by one instruction without a
// full reload (the normal, non-branching case).
func (c *CPU) advance() {
	c.Regs.SetPC(c.Regs.PC() + c.instrSize())
}

// GetPC exposes the pipelined PC value for debug/frontend use,
// matching the teacher's GetPC() accessor (jeebie/core.go).
func (c *CPU) GetPC() uint32 { return c.Regs.PC() }

// IRQDisabled exposes the CPSR IRQ-disable bit for the top-level step
// loop's interrupt-delivery gate (§4.7): the irq package tracks
// enable/request/master-enable but has no visibility into the
// register file, so this is the seam the loop uses to complete the
// "IRQ-disabled in CPSR is clear" condition.
func (c *CPU) IRQDisabled() bool { return c.Regs.IRQDisabled() }

// conditionPasses evaluates the standard 16-entry ARM condition table
// against the four NZCV flags (§4.3).
func (c *CPU) conditionPasses(cond uint32) bool {
	n, z, carry, v := c.Regs.Negative(), c.Regs.Zero(), c.Regs.Carry(), c.Regs.Overflow()
	switch cond {
	case 0x0: // EQ
		return z
	case 0x1: // NE
		return !z
	case 0x2: // CS/HS
		return carry
	case 0x3: // CC/LO
		return !carry
	case 0x4: // MI
		return n
	case 0x5: // PL
		return !n
	case 0x6: // VS
		return v
	case 0x7: // VC
		return !v
	case 0x8: // HI
		return carry && !z
	case 0x9: // LS
		return !carry || z
	case 0xA: // GE
		return n == v
	case 0xB: // LT
		return n != v
	case 0xC: // GT
		return !z && n == v
	case 0xD: // LE
		return z || n != v
	case 0xE: // AL
		return true
	case 0xF: // NV (unconditional for the decoded group the spec covers)
		return true
	default:
		return false
	}
}

// RaiseInterrupt is invoked by the top-level step loop when the IRQ
// controller reports that an enabled interrupt is pending and the
// CPSR's IRQ-disable bit is clear (§4.7). It enters the Interrupt
// exception with the fixed +4 LR offset.
func (c *CPU) RaiseInterrupt() {
	slog.Debug("cpu: entering IRQ exception", "pc", c.fetchAddr())
	c.EnterException(ExceptionInterrupt, c.fetchAddr(), c.instrSize())
}

// softwareInterrupt traps to the SoftwareInterrupt exception, used by
// the ARM/Thumb SWI decode arms.
func (c *CPU) softwareInterrupt() {
	c.EnterException(ExceptionSoftwareInterrupt, c.fetchAddr(), c.instrSize())
}

// undefinedInstruction traps to the UndefinedInstr exception for any
// undecoded bit pattern.
func (c *CPU) undefinedInstruction() {
	slog.Debug("cpu: undefined instruction", "pc", c.fetchAddr())
	c.EnterException(ExceptionUndefinedInstr, c.fetchAddr(), c.instrSize())
}
