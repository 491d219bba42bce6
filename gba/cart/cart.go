// Package cart implements the cartridge collaborator named in §6 of
// the core specification: a flat ROM image plus a single SRAM-style
// backup store, generalized from the teacher's mapper-aware cartridge
// (jeebie/memory/cartridge.go and mbc.go select among MBC0/1/2/3/5) to
// the GBA's simpler, bank-free ROM mirror plus one battery-backed
// region. Detecting and emulating EEPROM/Flash backup types precisely
// is out of scope (§9 Non-goals); the DMA engine's EEPROM hint
// (HintEEPROM) is recorded but otherwise unused here.
package cart

// Cartridge holds a loaded ROM image and its battery-backed save data.
type Cartridge struct {
	rom  []byte
	sram []byte

	lastEEPROMHint uint32 // most recent DMA block-count hint, diagnostic only
}

const sramSize = 0x0001_0000

// New constructs a Cartridge from a ROM image, allocating a full
// 64 KiB SRAM window regardless of what the cartridge actually backs
// (§9: exact backup-chip identification is out of scope).
func New(rom []byte) *Cartridge {
	return &Cartridge{
		rom:  rom,
		sram: make([]byte, sramSize),
	}
}

// ROMSize reports the loaded image's size in bytes.
func (c *Cartridge) ROMSize() uint32 { return uint32(len(c.rom)) }

// ReadROM reads one byte from the ROM image; offset is relative to the
// cartridge's own base, already folded by the bus's wait-state mirror
// handling.
func (c *Cartridge) ReadROM(offset uint32) uint8 {
	if int(offset) >= len(c.rom) {
		return 0
	}
	return c.rom[offset]
}

// ReadSRAM/WriteSRAM access the battery-backed save region.
func (c *Cartridge) ReadSRAM(offset uint32) uint8 {
	return c.sram[offset%sramSize]
}

func (c *Cartridge) WriteSRAM(offset uint32, value uint8) {
	c.sram[offset%sramSize] = value
}

// Save returns a copy of the current SRAM contents, for a frontend to
// persist between sessions.
func (c *Cartridge) Save() []byte {
	out := make([]byte, len(c.sram))
	copy(out, c.sram)
	return out
}

// LoadSave restores previously-saved SRAM contents.
func (c *Cartridge) LoadSave(data []byte) {
	copy(c.sram, data)
}

// HintEEPROM implements dma.EEPROMHinter: the DMA engine's best-effort
// signal that a transfer targeting the EEPROM address window just
// happened, carrying the block count a real EEPROM chip would use to
// infer its own address width. Recorded for diagnostics only, since
// this core does not model EEPROM's serial protocol (§9).
func (c *Cartridge) HintEEPROM(blockCount uint32) {
	c.lastEEPROMHint = blockCount
}
