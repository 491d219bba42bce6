package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeBus is a flat byte-addressable memory standing in for package bus
// in CPU-level tests, so cpu can be exercised without pulling in the
// region-routing logic that lives one layer up.
type fakeBus struct {
	mem [0x1_0000]byte
}

func newFakeBus() *fakeBus { return &fakeBus{} }

func (b *fakeBus) ReadByte(addr uint32) uint8  { return b.mem[addr&0xFFFF] }
func (b *fakeBus) WriteByte(addr uint32, v uint8) { b.mem[addr&0xFFFF] = v }

func (b *fakeBus) ReadHalf(addr uint32) uint16 {
	addr &= 0xFFFF
	return uint16(b.mem[addr]) | uint16(b.mem[addr+1])<<8
}
func (b *fakeBus) WriteHalf(addr uint32, v uint16) {
	addr &= 0xFFFF
	b.mem[addr] = uint8(v)
	b.mem[addr+1] = uint8(v >> 8)
}

func (b *fakeBus) ReadWord(addr uint32) uint32 {
	addr &= 0xFFFF
	return uint32(b.mem[addr]) | uint32(b.mem[addr+1])<<8 | uint32(b.mem[addr+2])<<16 | uint32(b.mem[addr+3])<<24
}
func (b *fakeBus) WriteWord(addr uint32, v uint32) {
	addr &= 0xFFFF
	b.mem[addr] = uint8(v)
	b.mem[addr+1] = uint8(v >> 8)
	b.mem[addr+2] = uint8(v >> 16)
	b.mem[addr+3] = uint8(v >> 24)
}

func (b *fakeBus) PrefetchInstruction(addr uint32) {}

func (b *fakeBus) putThumb(addr uint32, opcode uint16) { b.WriteHalf(addr, opcode) }

func newThumbCPU(bus *fakeBus, pc uint32) *CPU {
	c := New(bus)
	c.Regs.SetThumb(true)
	c.branchTo(pc)
	return c
}

func TestThumbMoveShiftedRegisterLSL(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0x0108) // LSL r0, r1, #4
	c.Regs.SetR(1, 0x0000_0001)

	cycles := c.Step()

	assert.Equal(t, 1, cycles)
	assert.Equal(t, uint32(0x10), c.Regs.R(0))
	assert.False(t, c.Regs.Carry(), "shifting out only zero bits must clear carry")
	assert.False(t, c.Regs.Zero())
	assert.False(t, c.Regs.Negative())
}

func TestThumbAddRegisterWraparound(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0x1888) // ADD r0, r1, r2
	c.Regs.SetR(1, 0xFFFF_FFFF)
	c.Regs.SetR(2, 1)

	c.Step()

	assert.Equal(t, uint32(0), c.Regs.R(0))
	assert.True(t, c.Regs.Zero())
	assert.True(t, c.Regs.Carry(), "unsigned wraparound sets carry")
	assert.False(t, c.Regs.Overflow(), "operands have opposite signs, so signed overflow cannot occur")
}

func TestSoftwareInterruptEntrySequence(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0xDF05) // SWI #5

	preCPSR := c.Regs.CPSR()
	cycles := c.Step()

	assert.Equal(t, 3, cycles)
	assert.Equal(t, ModeSupervisor, c.Regs.Mode())
	assert.False(t, c.Regs.Thumb(), "exception entry always switches to ARM state")
	assert.True(t, c.Regs.IRQDisabled())
	assert.Equal(t, preCPSR, c.Regs.SPSR(), "SPSR_svc must capture the pre-exception CPSR")
	assert.Equal(t, uint32(0x100+2), c.Regs.LR(), "SWI's LR resumes at the instruction after the trapping one")
	assert.Equal(t, uint32(0x08+2*4), c.Regs.PC(), "PC lands on the SWI vector, pipelined by two ARM instruction widths")
}

func TestRaiseInterruptUsesFixedPlusFourOffset(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x200)
	preFetch := c.fetchAddr()

	c.RaiseInterrupt()

	assert.Equal(t, ModeIRQ, c.Regs.Mode())
	assert.True(t, c.Regs.IRQDisabled())
	assert.Equal(t, preFetch+4, c.Regs.LR())
	assert.Equal(t, uint32(0x18+2*4), c.Regs.PC())
}

func TestResetSkipBIOSInstallsPostBootState(t *testing.T) {
	bus := newFakeBus()
	c := New(bus)

	c.Reset(true)

	assert.Equal(t, ModeSystem, c.Regs.Mode())
	assert.Equal(t, postBootSP, c.Regs.SP())
	assert.False(t, c.Regs.Thumb())
	assert.Equal(t, postBootPC+8, c.Regs.PC(), "PC is pipelined by two ARM instruction widths after branchTo")
}

func TestResetWithoutSkipBIOSEntersAtVectorZero(t *testing.T) {
	bus := newFakeBus()
	c := New(bus)

	c.Reset(false)

	assert.Equal(t, uint32(8), c.Regs.PC())
}
