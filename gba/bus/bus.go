// Package bus implements the GBA system bus: the region router that
// dispatches every CPU, DMA, and debug access to the right backing
// store, with the byte/half/word semantics §4.5 of the core
// specification requires (mirroring, alignment, and the special VRAM/
// OAM/palette write rules).
package bus

import (
	"fmt"
	"log/slog"

	"github.com/gba-emu/go-gba/gba/addr"
)

type region uint8

const (
	regionBIOS region = iota
	regionEWRAM
	regionIWRAM
	regionIO
	regionPalette
	regionVRAM
	regionOAM
	regionROM
	regionSRAM
	regionUnmapped
)

// Sizes of the backing stores, per §3's memory region table.
const (
	biosSize    = 0x0000_4000
	ewramSize   = 0x0004_0000
	iwramSize   = 0x0000_8000
	paletteSize = 0x0000_0400
	vramSize    = 0x0001_8000
	oamSize     = 0x0000_0400
	sramSize    = 0x0001_0000
)

// IOHandler is satisfied by the IO sub-dispatch (bus/io.go) and lets
// bus.Bus delegate all 0x0400_0000-range accesses to the DMA/IRQ/timer/
// keypad/video collaborators without those packages importing bus.
type IOHandler interface {
	ReadByte(address uint32) uint8
	WriteByte(address uint32, value uint8)
	ReadHalf(address uint32) uint16
	WriteHalf(address uint32, value uint16)
	ReadWord(address uint32) uint32
	WriteWord(address uint32, value uint32)

	// BGMode reports DISPCNT's low 3 bits, needed by the bus to decide
	// where the VRAM OBJ/bitmap boundary falls for the byte-write
	// duplicate-vs-ignore rule (§4.5).
	BGMode() uint8
}

// Cartridge is satisfied by gba/cart.Cartridge: a flat ROM+SRAM store
// with an unknown-backup-type Non-goal (§9).
type Cartridge interface {
	ReadROM(offset uint32) uint8
	ReadSRAM(offset uint32) uint8
	WriteSRAM(offset uint32, value uint8)
	ROMSize() uint32
}

// Bus is the GBA's unified address space. It holds the general-purpose
// RAM regions directly and delegates the IO and cartridge ranges to
// their owning collaborators, matching the teacher's regionMap-plus-
// switch structure generalized to the GBA's nine regions (§4.5).
type Bus struct {
	bios    []byte
	ewram   []byte
	iwram   []byte
	palette []byte
	vram    []byte
	oam     []byte

	io   IOHandler
	cart Cartridge

	lastFetched uint32 // last word fetched by PrefetchInstruction, for open-bus BIOS reads
	inBIOS      bool
}

// New constructs a Bus with freshly zeroed RAM regions.
func New(io IOHandler, cart Cartridge) *Bus {
	return &Bus{
		bios:    make([]byte, biosSize),
		ewram:   make([]byte, ewramSize),
		iwram:   make([]byte, iwramSize),
		palette: make([]byte, paletteSize),
		vram:    make([]byte, vramSize),
		oam:     make([]byte, oamSize),
		io:      io,
		cart:    cart,
	}
}

// LoadBIOS copies a BIOS image into the protected boot ROM region.
func (b *Bus) LoadBIOS(data []byte) {
	copy(b.bios, data)
}

// classify resolves the top byte of an address to a region, applying
// the mirroring rules from §3 (EWRAM/IWRAM repeat across their
// allotted window; the three ROM wait-state mirrors all read the same
// cartridge image; SRAM is mirrored across its 64 KiB window).
func classify(address uint32) region {
	switch {
	case address < 0x0000_4000:
		return regionBIOS
	case address >= 0x0200_0000 && address < 0x0300_0000:
		return regionEWRAM
	case address >= 0x0300_0000 && address < 0x0400_0000:
		return regionIWRAM
	case address >= 0x0400_0000 && address < 0x0500_0000:
		return regionIO
	case address >= 0x0500_0000 && address < 0x0600_0000:
		return regionPalette
	case address >= 0x0600_0000 && address < 0x0700_0000:
		return regionVRAM
	case address >= 0x0700_0000 && address < 0x0800_0000:
		return regionOAM
	case address >= 0x0800_0000 && address < 0x0E00_0000:
		return regionROM
	case address >= 0x0E00_0000 && address < 0x0F00_0000:
		return regionSRAM
	default:
		return regionUnmapped
	}
}

// vramOffset folds an offset into the 128 KiB VRAM window down to an
// index in the 96 KiB backing slice: the window's last 32 KiB
// (0x18000-0x1FFFF) repeats the 32 KiB before it (0x10000-0x17FFF),
// rather than forming a clean power-of-two mirror.
func vramOffset(offset uint32) uint32 {
	offset %= 0x0002_0000
	if offset >= vramSize {
		offset -= 0x0000_8000
	}
	return offset
}

// ReadByte reads one byte, per the region-specific rules of §4.5.
func (b *Bus) ReadByte(address uint32) uint8 {
	switch classify(address) {
	case regionBIOS:
		return b.biosRead(address)
	case regionEWRAM:
		return b.ewram[address%ewramSize]
	case regionIWRAM:
		return b.iwram[address%iwramSize]
	case regionIO:
		return b.io.ReadByte(address)
	case regionPalette:
		return b.palette[(address-addr.PaletteBase)%paletteSize]
	case regionVRAM:
		return b.vram[vramOffset(address-addr.VRAMBase)]
	case regionOAM:
		return b.oam[(address-addr.OAMBase)%oamSize]
	case regionROM:
		off := (address - addr.ROMBase) % 0x0200_0000
		if off >= b.cart.ROMSize() {
			return 0
		}
		return b.cart.ReadROM(off)
	case regionSRAM:
		return b.cart.ReadSRAM((address - addr.SRAMBase) % sramSize)
	default:
		slog.Debug("bus: read from unmapped address", "addr", fmt.Sprintf("0x%08X", address))
		return 0xFF
	}
}

func (b *Bus) biosRead(address uint32) uint8 {
	if b.inBIOS {
		return b.bios[address%biosSize]
	}
	// Reading the BIOS region from outside it returns the last
	// prefetched opcode word instead of the real contents (§4.5 open-
	// bus note); this is the coarse approximation the spec allows.
	shift := (address & 3) * 8
	return uint8(b.lastFetched >> shift)
}

// WriteByte writes one byte. Palette and VRAM duplicate a byte write
// across both halves of the containing half-word; OAM ignores byte
// writes entirely — both per §4.5's special write rules.
func (b *Bus) WriteByte(address uint32, value uint8) {
	switch classify(address) {
	case regionBIOS:
		// BIOS is read-only to everything but the boot loader that
		// populated it.
	case regionEWRAM:
		b.ewram[address%ewramSize] = value
	case regionIWRAM:
		b.iwram[address%iwramSize] = value
	case regionIO:
		b.io.WriteByte(address, value)
	case regionPalette:
		off := (address - addr.PaletteBase) % paletteSize
		half := uint16(value) | uint16(value)<<8
		writeHalf16(b.palette, off&^1, half)
	case regionVRAM:
		off := vramOffset(address - addr.VRAMBase)
		if vramByteWriteIgnored(off, b.io.BGMode()) {
			return
		}
		half := uint16(value) | uint16(value)<<8
		writeHalf16(b.vram, off&^1, half)
	case regionOAM:
		// byte writes to OAM have no effect on real hardware.
	case regionROM:
		// cartridge ROM is not writable through the memory map.
	case regionSRAM:
		b.cart.WriteSRAM((address-addr.SRAMBase)%sramSize, value)
	}
}

// ReadHalf reads a 16-bit half-word, misaligned addresses rounded down
// to the containing boundary per §4.5.
func (b *Bus) ReadHalf(address uint32) uint16 {
	address &^= 1
	return uint16(b.ReadByte(address)) | uint16(b.ReadByte(address+1))<<8
}

// WriteHalf writes a 16-bit half-word. Palette, VRAM and OAM handle
// half-word writes natively (a plain in-place store) rather than going
// through WriteByte's duplicate-or-ignore rules, which apply only to
// genuine byte writes (§4.5).
func (b *Bus) WriteHalf(address uint32, value uint16) {
	address &^= 1
	switch classify(address) {
	case regionIO:
		b.io.WriteHalf(address, value)
	case regionPalette:
		off := (address - addr.PaletteBase) % paletteSize
		writeHalf16(b.palette, off, value)
	case regionVRAM:
		off := vramOffset(address - addr.VRAMBase)
		writeHalf16(b.vram, off, value)
	case regionOAM:
		off := (address - addr.OAMBase) % oamSize
		writeHalf16(b.oam, off, value)
	default:
		b.WriteByte(address, uint8(value))
		b.WriteByte(address+1, uint8(value>>8))
	}
}

// ReadWord reads a 32-bit word, misaligned addresses rounded down to
// the containing boundary; callers needing the ARM misaligned-load
// rotate-right behavior apply it themselves (cpu.rotateRead).
func (b *Bus) ReadWord(address uint32) uint32 {
	address &^= 3
	switch classify(address) {
	case regionIO:
		return b.io.ReadWord(address)
	default:
		return uint32(b.ReadByte(address)) |
			uint32(b.ReadByte(address+1))<<8 |
			uint32(b.ReadByte(address+2))<<16 |
			uint32(b.ReadByte(address+3))<<24
	}
}

// WriteWord writes a 32-bit word. Palette, VRAM and OAM store it
// directly, for the same reason WriteHalf does (§4.5).
func (b *Bus) WriteWord(address uint32, value uint32) {
	address &^= 3
	switch classify(address) {
	case regionIO:
		b.io.WriteWord(address, value)
	case regionPalette:
		off := (address - addr.PaletteBase) % paletteSize
		writeWord32(b.palette, off, value)
	case regionVRAM:
		off := vramOffset(address - addr.VRAMBase)
		writeWord32(b.vram, off, value)
	case regionOAM:
		off := (address - addr.OAMBase) % oamSize
		writeWord32(b.oam, off, value)
	default:
		b.WriteByte(address, uint8(value))
		b.WriteByte(address+1, uint8(value>>8))
		b.WriteByte(address+2, uint8(value>>16))
		b.WriteByte(address+3, uint8(value>>24))
	}
}

// vramObjBoundary is the offset (into the 96 KiB VRAM window) where
// OBJ tile data begins: 0x10000 in the tile background modes (0-2),
// 0x14000 in the bitmap modes (3-5). Byte writes at or past this
// boundary are dropped entirely; byte writes below it duplicate across
// the enclosing half-word (§4.5).
func vramObjBoundary(bgMode uint8) uint32 {
	if bgMode >= 3 {
		return 0x0001_4000
	}
	return 0x0001_0000
}

func vramByteWriteIgnored(offset uint32, bgMode uint8) bool {
	return offset >= vramObjBoundary(bgMode)
}

// PrefetchInstruction tracks whether execution is currently inside the
// BIOS and, for fetches from within the BIOS, records the fetched word,
// backing the open-bus BIOS-read approximation above. Fetches from
// outside the BIOS leave the recorded word unchanged.
func (b *Bus) PrefetchInstruction(address uint32) {
	b.inBIOS = address < biosSize
	if classify(address) == regionBIOS {
		if address&2 == 0 {
			b.lastFetched = uint32(b.bios[address%biosSize]) |
				uint32(b.bios[(address+1)%biosSize])<<8 |
				uint32(b.bios[(address+2)%biosSize])<<16 |
				uint32(b.bios[(address+3)%biosSize])<<24
		}
	}
}

func writeHalf16(mem []byte, offset uint32, value uint16) {
	mem[offset] = uint8(value)
	mem[offset+1] = uint8(value >> 8)
}

func writeWord32(mem []byte, offset uint32, value uint32) {
	mem[offset] = uint8(value)
	mem[offset+1] = uint8(value >> 8)
	mem[offset+2] = uint8(value >> 16)
	mem[offset+3] = uint8(value >> 24)
}
