package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadROMPastImageLengthReturnsZero(t *testing.T) {
	c := New([]byte{0xAA, 0xBB})

	assert.Equal(t, uint8(0xAA), c.ReadROM(0))
	assert.Equal(t, uint8(0xBB), c.ReadROM(1))
	assert.Equal(t, uint8(0), c.ReadROM(2))
}

func TestSRAMRoundTripAndSaveLoad(t *testing.T) {
	c := New(nil)
	c.WriteSRAM(10, 0x7F)

	assert.Equal(t, uint8(0x7F), c.ReadSRAM(10))

	saved := c.Save()
	fresh := New(nil)
	fresh.LoadSave(saved)

	assert.Equal(t, uint8(0x7F), fresh.ReadSRAM(10))
}

func TestSRAMOffsetWraps(t *testing.T) {
	c := New(nil)
	c.WriteSRAM(sramSize, 0x11)

	assert.Equal(t, uint8(0x11), c.ReadSRAM(0))
}

func TestHintEEPROMDoesNotPanic(t *testing.T) {
	c := New(nil)
	c.HintEEPROM(64)
	assert.Equal(t, uint32(64), c.lastEEPROMHint)
}
