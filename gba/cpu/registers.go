package cpu

import "fmt"

// Mode is one of the seven ARM7TDMI operation modes, encoded exactly as
// the 5-bit CPSR mode field (§6 of the core specification).
type Mode uint8

const (
	ModeUser       Mode = 0b10000
	ModeFIQ        Mode = 0b10001
	ModeIRQ        Mode = 0b10010
	ModeSupervisor Mode = 0b10011
	ModeAbort      Mode = 0b10111
	ModeUndefined  Mode = 0b11011
	ModeSystem     Mode = 0b11111
)

// CPSR bit positions.
const (
	flagSigned uint8 = 31
	flagZero   uint8 = 30
	flagCarry  uint8 = 29
	flagOver   uint8 = 28
	flagIRQDis uint8 = 7
	flagFIQDis uint8 = 6
	flagThumb  uint8 = 5
)

const modeMask uint32 = 0x1F

// String names the operation mode, for debug/frontend display.
func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "User"
	case ModeFIQ:
		return "FIQ"
	case ModeIRQ:
		return "IRQ"
	case ModeSupervisor:
		return "SVC"
	case ModeAbort:
		return "ABT"
	case ModeUndefined:
		return "UND"
	case ModeSystem:
		return "SYS"
	default:
		return "???"
	}
}

// bankIndex maps an operation mode to its register bank slot (§3:
// User and System share bank 0).
func bankIndex(m Mode) (int, error) {
	switch m {
	case ModeUser, ModeSystem:
		return 0, nil
	case ModeFIQ:
		return 1, nil
	case ModeIRQ:
		return 2, nil
	case ModeSupervisor:
		return 3, nil
	case ModeAbort:
		return 4, nil
	case ModeUndefined:
		return 5, nil
	default:
		return 0, fmt.Errorf("cpu: invalid operation mode bits %#x", uint8(m))
	}
}

// bank holds the registers that are private to one operation mode:
// the banked stack pointer, link register, and saved program status
// register. SPSR for User/System is architecturally undefined; this
// implementation treats slot 0's spsr as a plain write-retaining cell
// for test reproducibility (§4.1).
type bank struct {
	sp, lr uint32
	spsr   uint32
}

// RegisterFile is the ARM7TDMI's 16 general registers plus CPSR/SPSR
// and the hidden banks for the six bankable mode groups, laid out as a
// fixed 6-slot array per the design notes in §9 (avoid polymorphic
// banked accessors; bankIndex over the mode enum is sufficient).
type RegisterFile struct {
	r    [16]uint32
	cpsr uint32

	banks   [6]bank
	fiqBank [5]uint32 // hidden r8-r12 used only while in FIQ mode
}

// NewRegisterFile returns a zeroed register file in Supervisor mode
// with IRQ/FIQ disabled, matching the ARM7TDMI reset state (the
// top-level Reset operation overwrites PC/SP afterwards).
func NewRegisterFile() *RegisterFile {
	rf := &RegisterFile{}
	rf.cpsr = uint32(ModeSupervisor) | (1 << flagIRQDis) | (1 << flagFIQDis)
	return rf
}

// R reads general register i (0..15).
func (rf *RegisterFile) R(i int) uint32 { return rf.r[i] }

// SetR writes general register i (0..15).
func (rf *RegisterFile) SetR(i int, v uint32) { rf.r[i] = v }

// PC returns register 15 as stored. The CPU layer keeps r15 in its
// pipelined form (current instruction plus two instruction widths), so
// this is already the "PC as operand" value (§4.3).
func (rf *RegisterFile) PC() uint32 { return rf.r[15] }

// SetPC writes register 15 directly, bypassing pipeline reload
// bookkeeping (the CPU layer is responsible for that, per §4.3).
func (rf *RegisterFile) SetPC(v uint32) { rf.r[15] = v }

// SP and LR are the conventional names for r13/r14.
func (rf *RegisterFile) SP() uint32     { return rf.r[13] }
func (rf *RegisterFile) SetSP(v uint32) { rf.r[13] = v }
func (rf *RegisterFile) LR() uint32     { return rf.r[14] }
func (rf *RegisterFile) SetLR(v uint32) { rf.r[14] = v }

// Mode returns the current operation mode from CPSR bits 4..0.
func (rf *RegisterFile) Mode() Mode { return Mode(rf.cpsr & modeMask) }

// Thumb reports whether the CPU is in Thumb instruction state (CPSR
// bit 5).
func (rf *RegisterFile) Thumb() bool { return rf.cpsr&(1<<flagThumb) != 0 }

// SetThumb switches the instruction state bit without touching any
// other CPSR field.
func (rf *RegisterFile) SetThumb(thumb bool) {
	if thumb {
		rf.cpsr |= 1 << flagThumb
	} else {
		rf.cpsr &^= 1 << flagThumb
	}
}

// Condition flags.
func (rf *RegisterFile) Negative() bool { return rf.cpsr&(1<<flagSigned) != 0 }
func (rf *RegisterFile) Zero() bool     { return rf.cpsr&(1<<flagZero) != 0 }
func (rf *RegisterFile) Carry() bool    { return rf.cpsr&(1<<flagCarry) != 0 }
func (rf *RegisterFile) Overflow() bool { return rf.cpsr&(1<<flagOver) != 0 }

// SetFlags writes all four condition flags at once, as most ALU ops do
// when their S-bit is set.
func (rf *RegisterFile) SetFlags(n, z, c, v bool) {
	rf.cpsr = setBit(rf.cpsr, flagSigned, n)
	rf.cpsr = setBit(rf.cpsr, flagZero, z)
	rf.cpsr = setBit(rf.cpsr, flagCarry, c)
	rf.cpsr = setBit(rf.cpsr, flagOver, v)
}

// SetNZ updates just the N and Z flags from a result value, as logical
// ops (MOV, AND, ORR, ...) do.
func (rf *RegisterFile) SetNZ(result uint32) {
	rf.cpsr = setBit(rf.cpsr, flagSigned, result&0x8000_0000 != 0)
	rf.cpsr = setBit(rf.cpsr, flagZero, result == 0)
}

func (rf *RegisterFile) SetCarry(c bool) { rf.cpsr = setBit(rf.cpsr, flagCarry, c) }

func setBit(v uint32, pos uint8, on bool) uint32 {
	if on {
		return v | (1 << pos)
	}
	return v &^ (1 << pos)
}

// IRQDisabled and FIQDisabled report the CPSR interrupt-mask bits.
func (rf *RegisterFile) IRQDisabled() bool { return rf.cpsr&(1<<flagIRQDis) != 0 }
func (rf *RegisterFile) FIQDisabled() bool { return rf.cpsr&(1<<flagFIQDis) != 0 }

func (rf *RegisterFile) SetIRQDisabled(d bool) { rf.cpsr = setBit(rf.cpsr, flagIRQDis, d) }
func (rf *RegisterFile) SetFIQDisabled(d bool) { rf.cpsr = setBit(rf.cpsr, flagFIQDis, d) }

// CPSR returns the full 32-bit current program status register.
func (rf *RegisterFile) CPSR() uint32 { return rf.cpsr }

// SetCPSR overwrites the whole CPSR (a raw MSR-style write). controlOnly
// restricts the write to bits 7..0 (interrupt masks, state, mode); flagsOnly
// restricts it to bits 31..24 (condition flags) — the two MSR variants
// named in §4.1. Passing both false performs a full 32-bit write.
// Returns an error if the resulting mode field does not decode to one
// of the seven known modes (§7's "malformed CPSR write" fatal case);
// on error the CPSR is left unmodified.
func (rf *RegisterFile) SetCPSR(value uint32, controlOnly, flagsOnly bool) error {
	next := rf.cpsr
	switch {
	case flagsOnly:
		next = (next &^ 0xFF00_0000) | (value & 0xFF00_0000)
	case controlOnly:
		next = (next &^ 0x0000_00FF) | (value & 0x0000_00FF)
	default:
		next = value
	}

	if _, err := bankIndex(Mode(next & modeMask)); err != nil {
		return err
	}

	oldMode := rf.Mode()
	rf.cpsr = next
	newMode := rf.Mode()
	if oldMode != newMode {
		if err := rf.switchBanks(oldMode, newMode); err != nil {
			return err
		}
	}
	return nil
}

// SwitchMode performs a full mode switch: bank the departing mode's
// SP/LR/SPSR, load the incoming mode's, swap the FIQ r8-r12 bank if
// either side of the switch is FIQ, and finally update the CPSR mode
// field (§4.1 algorithm).
func (rf *RegisterFile) SwitchMode(newMode Mode) error {
	oldMode := rf.Mode()
	if oldMode == newMode {
		return nil
	}
	if err := rf.switchBanks(oldMode, newMode); err != nil {
		return err
	}
	rf.cpsr = (rf.cpsr &^ modeMask) | uint32(newMode)
	return nil
}

// switchBanks implements the §4.1 algorithm shared by SetCPSR and
// SwitchMode: compute old/new bank indices, no-op if equal (User<->System),
// swap r8-r12 on FIQ entry/exit, save the departing bank, load the
// incoming one.
func (rf *RegisterFile) switchBanks(oldMode, newMode Mode) error {
	oldBank, err := bankIndex(oldMode)
	if err != nil {
		return err
	}
	newBank, err := bankIndex(newMode)
	if err != nil {
		return err
	}
	if oldBank == newBank {
		return nil
	}

	if oldMode == ModeFIQ || newMode == ModeFIQ {
		for i := 0; i < 5; i++ {
			rf.r[8+i], rf.fiqBank[i] = rf.fiqBank[i], rf.r[8+i]
		}
	}

	rf.banks[oldBank] = bank{sp: rf.r[13], lr: rf.r[14], spsr: rf.banks[oldBank].spsr}
	rf.banks[oldBank].sp = rf.r[13]
	rf.banks[oldBank].lr = rf.r[14]

	rf.r[13] = rf.banks[newBank].sp
	rf.r[14] = rf.banks[newBank].lr

	return nil
}

// UserRegister reads register i as the User-mode bank would see it,
// regardless of the current operation mode. This backs the S-bit
// "force user bank" behavior of LDM/STM (§4.3): r0-r7, r15 are shared
// across all modes; r8-r12 come from the hidden FIQ bank only when the
// CPU is currently in FIQ mode (otherwise they are already the User
// values); r13/r14 come from bank 0.
func (rf *RegisterFile) UserRegister(i int) uint32 {
	switch {
	case i >= 8 && i <= 12 && rf.Mode() == ModeFIQ:
		return rf.fiqBank[i-8]
	case i == 13:
		return rf.banks[0].sp
	case i == 14:
		return rf.banks[0].lr
	default:
		return rf.r[i]
	}
}

// SetUserRegister writes register i as the User-mode bank, mirroring
// UserRegister's resolution rules.
func (rf *RegisterFile) SetUserRegister(i int, value uint32) {
	switch {
	case i >= 8 && i <= 12 && rf.Mode() == ModeFIQ:
		rf.fiqBank[i-8] = value
	case i == 13:
		rf.banks[0].sp = value
	case i == 14:
		rf.banks[0].lr = value
	default:
		rf.r[i] = value
	}
}

// SPSR returns the saved program status register of the current mode.
func (rf *RegisterFile) SPSR() uint32 {
	idx, err := bankIndex(rf.Mode())
	if err != nil {
		return 0
	}
	return rf.banks[idx].spsr
}

// SetSPSR writes the saved program status register of the current
// mode.
func (rf *RegisterFile) SetSPSR(value uint32) {
	idx, err := bankIndex(rf.Mode())
	if err != nil {
		return
	}
	rf.banks[idx].spsr = value
}
