package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThumbBXStaysInThumbStateWhenTargetBitZeroIsSet(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0x4708) // BX r1
	c.Regs.SetR(1, 0x301)

	cycles := c.Step()

	assert.Equal(t, 3, cycles)
	assert.True(t, c.Regs.Thumb())
	assert.Equal(t, uint32(0x304), c.Regs.PC())
}

func TestThumbLoadStoreImmOffsetWordRoundTrip(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0x6048) // STR r0, [r1, #4]
	bus.putThumb(0x102, 0x684A) // LDR r2, [r1, #4]
	c.Regs.SetR(1, 0x2000)
	c.Regs.SetR(0, 0xDEAD_BEEF)

	c.Step()
	c.Step()

	assert.Equal(t, uint32(0xDEAD_BEEF), c.Regs.R(2))
}

func TestThumbPushPopRoundTripsThroughMemory(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0xB403) // PUSH {r0, r1}
	bus.putThumb(0x102, 0xBC03) // POP {r0, r1}
	c.Regs.SetSP(0x2000)
	c.Regs.SetR(0, 0xAAAA)
	c.Regs.SetR(1, 0xBBBB)

	c.Step() // PUSH

	assert.Equal(t, uint32(0x1FF8), c.Regs.SP())
	assert.Equal(t, uint32(0xAAAA), bus.ReadWord(0x1FF8))
	assert.Equal(t, uint32(0xBBBB), bus.ReadWord(0x1FFC))

	c.Regs.SetR(0, 0)
	c.Regs.SetR(1, 0)
	c.Step() // POP

	assert.Equal(t, uint32(0x2000), c.Regs.SP(), "POP restores SP to its pre-PUSH value")
	assert.Equal(t, uint32(0xAAAA), c.Regs.R(0))
	assert.Equal(t, uint32(0xBBBB), c.Regs.R(1))
}

func TestThumbConditionalBranchTakenWhenConditionHolds(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0xD005) // BEQ +10
	c.Regs.SetFlags(false, true, false, false)

	cycles := c.Step()

	assert.Equal(t, 3, cycles)
	assert.Equal(t, uint32(0x112), c.Regs.PC())
}

func TestThumbConditionalBranchNotTakenWhenConditionFails(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0xD005) // BEQ +10
	c.Regs.SetFlags(false, false, false, false)

	cycles := c.Step()

	assert.Equal(t, 1, cycles)
	assert.Equal(t, uint32(0x106), c.Regs.PC(), "a failed condition just advances past the branch")
}

func TestThumbUnconditionalBranch(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0xE003) // B +6

	cycles := c.Step()

	assert.Equal(t, 3, cycles)
	assert.Equal(t, uint32(0x10E), c.Regs.PC())
}

func TestThumbLongBranchLinkTwoInstructionSequence(t *testing.T) {
	bus := newFakeBus()
	c := newThumbCPU(bus, 0x100)
	bus.putThumb(0x100, 0xF000) // BL high half, offset 0
	bus.putThumb(0x102, 0xF805) // BL low half, offset 5

	firstCycles := c.Step()
	assert.Equal(t, 1, firstCycles)
	assert.Equal(t, uint32(0x104), c.Regs.LR(), "the high half stashes pcOperand() in LR before the low half arrives")

	secondCycles := c.Step()
	assert.Equal(t, 3, secondCycles)
	assert.Equal(t, uint32(0x105), c.Regs.LR(), "the low half's LR is the return address with bit 0 forced for Thumb state")
	assert.Equal(t, uint32(0x112), c.Regs.PC())
}
