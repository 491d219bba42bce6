package video

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gba-emu/go-gba/gba/addr"
)

type fakeIRQ struct {
	requested []uint8
}

func (f *fakeIRQ) Request(source uint8) { f.requested = append(f.requested, source) }

type fakeDMA struct {
	vblanks, hblanks int
}

func (f *fakeDMA) NotifyVBlank() { f.vblanks++ }
func (f *fakeDMA) NotifyHBlank() { f.hblanks++ }

func TestStepEntersHBlankPartwayThroughTheLine(t *testing.T) {
	irqr := &fakeIRQ{}
	dma := &fakeDMA{}
	u := New(irqr, dma)
	u.WriteByte(dispstatOffset, dispstatHBlankIRQ)

	u.Step(hdrawCycles - 1)
	assert.Equal(t, uint8(0), u.ReadByte(dispstatOffset)&dispstatHBlank, "hblank has not started yet")

	u.Step(1)
	assert.NotEqual(t, uint8(0), u.ReadByte(dispstatOffset)&dispstatHBlank)
	assert.Equal(t, []uint8{uint8(addr.IRQHBlank)}, irqr.requested)
	assert.Equal(t, 1, dma.hblanks)
}

func TestLineAdvancesAfterFullLineOfCycles(t *testing.T) {
	u := New(&fakeIRQ{}, &fakeDMA{})

	u.Step(lineCycles)

	assert.Equal(t, 1, u.Line())
}

func TestVBlankFiresAtLine160AndNotifiesDMA(t *testing.T) {
	irqr := &fakeIRQ{}
	dma := &fakeDMA{}
	u := New(irqr, dma)
	u.WriteByte(dispstatOffset, dispstatVBlankIRQ)

	for i := 0; i < 160; i++ {
		u.Step(lineCycles)
	}

	assert.Equal(t, 160, u.Line())
	assert.NotEqual(t, uint8(0), u.ReadByte(dispstatOffset)&dispstatVBlank)
	assert.Equal(t, 1, dma.vblanks)
	assert.NotEmpty(t, irqr.requested)
}

func TestLineWrapsAfterTotalLines(t *testing.T) {
	u := New(&fakeIRQ{}, &fakeDMA{})

	for i := 0; i < totalLines; i++ {
		u.Step(lineCycles)
	}

	assert.Equal(t, 0, u.Line())
}

func TestVCountMatchSetsStatusAndFiresIRQ(t *testing.T) {
	irqr := &fakeIRQ{}
	u := New(irqr, &fakeDMA{})
	u.WriteByte(dispstatOffset, dispstatVCountIRQ)
	u.WriteByte(dispstatOffset+1, 10) // LYC = 10

	for i := 0; i < 10; i++ {
		u.Step(lineCycles)
	}

	assert.Equal(t, 10, u.Line())
	assert.NotEqual(t, uint8(0), u.ReadByte(dispstatOffset)&dispstatVCountHit)
	assert.NotEmpty(t, irqr.requested)
}

func TestDISPSTATStatusBitsAreNotDirectlyWritable(t *testing.T) {
	u := New(&fakeIRQ{}, &fakeDMA{})
	u.WriteByte(dispstatOffset, 0xFF)

	assert.Equal(t, uint8(0), u.ReadByte(dispstatOffset)&0x07, "bits 0-2 are hardware status and reject direct writes")
	assert.NotEqual(t, uint8(0), u.ReadByte(dispstatOffset)&0xF8, "the IRQ-enable bits above bit 2 are writable")
}

func TestVCOUNTIsReadOnlyFromTheBus(t *testing.T) {
	u := New(&fakeIRQ{}, &fakeDMA{})
	u.WriteByte(vcountOffset, 0x42)

	assert.Equal(t, uint8(0), u.ReadByte(vcountOffset))
}
