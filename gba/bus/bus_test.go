package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gba-emu/go-gba/gba/addr"
)

// fakeIO is a minimal IOHandler stand-in: a flat register array plus a
// settable background mode, enough to exercise the bus's routing and
// special-write rules without pulling in the real video/DMA/timer/
// keypad/IRQ collaborators.
type fakeIO struct {
	regs   [0x400]byte
	bgMode uint8
}

func (f *fakeIO) ReadByte(address uint32) uint8  { return f.regs[address&0x3FF] }
func (f *fakeIO) WriteByte(address uint32, v uint8) { f.regs[address&0x3FF] = v }
func (f *fakeIO) ReadHalf(address uint32) uint16 {
	o := address & 0x3FF
	return uint16(f.regs[o]) | uint16(f.regs[o+1])<<8
}
func (f *fakeIO) WriteHalf(address uint32, v uint16) {
	o := address & 0x3FF
	f.regs[o], f.regs[o+1] = uint8(v), uint8(v>>8)
}
func (f *fakeIO) ReadWord(address uint32) uint32 {
	o := address & 0x3FF
	return uint32(f.regs[o]) | uint32(f.regs[o+1])<<8 | uint32(f.regs[o+2])<<16 | uint32(f.regs[o+3])<<24
}
func (f *fakeIO) WriteWord(address uint32, v uint32) {
	o := address & 0x3FF
	f.regs[o], f.regs[o+1], f.regs[o+2], f.regs[o+3] = uint8(v), uint8(v>>8), uint8(v>>16), uint8(v>>24)
}
func (f *fakeIO) BGMode() uint8 { return f.bgMode }

// fakeCart is a flat ROM+SRAM stand-in for gba/cart.Cartridge.
type fakeCart struct {
	rom  []byte
	sram [0x1_0000]byte
}

func (c *fakeCart) ReadROM(offset uint32) uint8 { return c.rom[offset] }
func (c *fakeCart) ReadSRAM(offset uint32) uint8 { return c.sram[offset] }
func (c *fakeCart) WriteSRAM(offset uint32, v uint8) { c.sram[offset] = v }
func (c *fakeCart) ROMSize() uint32 { return uint32(len(c.rom)) }

func newTestBus() (*Bus, *fakeIO, *fakeCart) {
	io := &fakeIO{}
	cart := &fakeCart{rom: make([]byte, 0x1000)}
	return New(io, cart), io, cart
}

func TestEWRAMRoundTrip(t *testing.T) {
	b, _, _ := newTestBus()
	b.WriteWord(addr.EWRAMBase+0x100, 0xCAFEBABE)
	assert.Equal(t, uint32(0xCAFEBABE), b.ReadWord(addr.EWRAMBase+0x100))
}

func TestIWRAMMirrors(t *testing.T) {
	b, _, _ := newTestBus()
	b.WriteByte(addr.IWRAMBase, 0x42)
	assert.Equal(t, uint8(0x42), b.ReadByte(addr.IWRAMBase+iwramSize))
}

func TestUnmappedReadReturnsFF(t *testing.T) {
	b, _, _ := newTestBus()
	assert.Equal(t, uint8(0xFF), b.ReadByte(0x1000_0000))
}

func TestPaletteByteWriteDuplicatesAcrossHalfword(t *testing.T) {
	b, _, _ := newTestBus()
	b.WriteByte(addr.PaletteBase+4, 0x55)
	assert.Equal(t, uint16(0x5555), b.ReadHalf(addr.PaletteBase+4))
}

func TestVRAMByteWriteIgnoredPastOBJBoundaryInTileMode(t *testing.T) {
	b, io, _ := newTestBus()
	io.bgMode = 0 // tile mode: OBJ boundary at 0x10000

	b.WriteByte(addr.VRAMBase+0x1_0000, 0x77)
	assert.Equal(t, uint8(0), b.ReadByte(addr.VRAMBase+0x1_0000), "byte writes at/past the OBJ boundary in tile modes are dropped")

	b.WriteByte(addr.VRAMBase+0x0FFF, 0x77)
	assert.Equal(t, uint8(0x77), b.ReadByte(addr.VRAMBase+0x0FFF), "byte writes below the OBJ boundary duplicate across the half-word")
	assert.Equal(t, uint8(0x77), b.ReadByte(addr.VRAMBase+0x0FFE))
}

func TestVRAMByteWriteAllowedPastTileBoundaryInBitmapMode(t *testing.T) {
	b, io, _ := newTestBus()
	io.bgMode = 3 // bitmap mode: OBJ boundary moves to 0x14000

	b.WriteByte(addr.VRAMBase+0x1_0000, 0x99)
	assert.Equal(t, uint8(0x99), b.ReadByte(addr.VRAMBase+0x1_0000), "bitmap modes allow byte writes below the higher 0x14000 boundary")
}

func TestOAMByteWriteIsIgnored(t *testing.T) {
	b, _, _ := newTestBus()
	b.WriteHalf(addr.OAMBase, 0xBEEF)
	b.WriteByte(addr.OAMBase, 0x00)
	assert.Equal(t, uint16(0xBEEF), b.ReadHalf(addr.OAMBase), "OAM byte writes must not disturb existing half-word contents")
}

func TestROMReadsBackingCartridge(t *testing.T) {
	b, _, cart := newTestBus()
	cart.rom[0x10] = 0xAB
	assert.Equal(t, uint8(0xAB), b.ReadByte(addr.ROMBase+0x10))
}

func TestROMReadPastCartridgeSizeReturnsZero(t *testing.T) {
	b, _, _ := newTestBus()
	assert.Equal(t, uint8(0), b.ReadByte(addr.ROMBase+0x5000))
}

func TestSRAMRoundTrip(t *testing.T) {
	b, _, _ := newTestBus()
	b.WriteByte(addr.SRAMBase+5, 0x9A)
	assert.Equal(t, uint8(0x9A), b.ReadByte(addr.SRAMBase+5))
}

func TestIODelegatesToIOHandler(t *testing.T) {
	b, _, _ := newTestBus()
	b.WriteHalf(addr.IOBase+addr.IE, 0x1234)
	assert.Equal(t, uint16(0x1234), b.ReadHalf(addr.IOBase+addr.IE))
}

func TestMisalignedHalfReadRoundsDown(t *testing.T) {
	b, _, _ := newTestBus()
	b.WriteWord(addr.EWRAMBase, 0x1122_3344)
	assert.Equal(t, b.ReadHalf(addr.EWRAMBase), b.ReadHalf(addr.EWRAMBase+1), "a misaligned half read rounds its address down to the containing half-word")
}
