package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeIRQ struct {
	requested []uint8
}

func (f *fakeIRQ) Request(source uint8) { f.requested = append(f.requested, source) }

func TestCounterIncrementsAtSelectedPrescaler(t *testing.T) {
	u := New(&fakeIRQ{}, 3)
	u.WriteReload(0, 0)
	u.WriteControl(0, 0) // prescaler /1, no cascade, no irq, enabled below
	u.WriteControl(0, 1<<7)

	u.Tick(5)

	assert.Equal(t, uint16(5), u.ReadCounter(0))
}

func TestEnablingReloadsCounterFromReloadRegister(t *testing.T) {
	u := New(&fakeIRQ{}, 3)
	u.WriteReload(0, 0xFFF0)
	u.WriteControl(0, 1<<7)

	assert.Equal(t, uint16(0xFFF0), u.ReadCounter(0))
}

func TestOverflowWrapsToReloadAndRequestsIRQ(t *testing.T) {
	irqr := &fakeIRQ{}
	u := New(irqr, 3)
	u.WriteReload(0, 0xFFFE)
	u.WriteControl(0, (1<<7)|(1<<6)) // enabled, IRQ on overflow, prescaler /1

	u.Tick(1) // counter -> 0xFFFF
	assert.Empty(t, irqr.requested)

	u.Tick(1) // counter -> overflow, reload to 0xFFFE
	assert.Equal(t, []uint8{3}, irqr.requested)
	assert.Equal(t, uint16(0xFFFE), u.ReadCounter(0))
}

func TestCascadeIncrementsNextChannelOnOverflow(t *testing.T) {
	irqr := &fakeIRQ{}
	u := New(irqr, 3)
	u.WriteReload(0, 0xFFFF)
	u.WriteControl(0, 1<<7) // timer 0 enabled, prescaler /1

	u.WriteReload(1, 0)
	u.WriteControl(1, (1<<7)|(1<<2)) // timer 1 enabled, cascade

	u.Tick(1) // timer 0 overflows once

	assert.Equal(t, uint16(1), u.ReadCounter(1), "timer 1's cascade increment fires exactly once per timer 0 overflow")
}

func TestPrescalerDividesCycles(t *testing.T) {
	u := New(&fakeIRQ{}, 3)
	u.WriteReload(0, 0)
	u.WriteControl(0, (1<<7)|0x1) // prescaler select 1 -> /64

	u.Tick(63)
	assert.Equal(t, uint16(0), u.ReadCounter(0), "63 cycles have not accumulated a full /64 tick yet")

	u.Tick(1)
	assert.Equal(t, uint16(1), u.ReadCounter(0))
}

func TestCascadeBitIgnoredOnChannelZero(t *testing.T) {
	u := New(&fakeIRQ{}, 3)
	u.WriteControl(0, (1<<7)|(1<<2)) // channel 0 cannot cascade: it has no predecessor

	u.Tick(1)
	assert.Equal(t, uint16(1), u.ReadCounter(0), "channel 0 must still tick normally, not wait for a nonexistent predecessor")
}
