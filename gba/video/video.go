// Package video is the video collaborator named in §1/§6 of the core
// specification: it owns the DISPCNT/DISPSTAT/VCOUNT/BGxCNT register
// range and the scanline timing that drives vblank/hblank/vcount IRQs
// and DMA triggers. Pixel rendering is explicitly out of the core's
// scope (§1 Non-goals), so this package never produces a frame buffer;
// it is modeled the way the teacher's jeebie/video/gpu.go models PPU
// *timing* (a cycle counter driving a scanline state machine), stripped
// of the pixel-fetch pipeline that has no home here.
package video

import "github.com/gba-emu/go-gba/gba/addr"

// Real GBA scanline timing: 4 cycles/dot, 240 visible + 68 blanking
// dots per line, 160 visible + 68 blanking lines per frame.
const (
	hdrawCycles    = 960
	hblankCycles   = 272
	lineCycles     = hdrawCycles + hblankCycles
	visibleLines   = 160
	totalLines     = 228
	regSpan        = 0x58 // 0x000..=0x056 inclusive, rounded to a half-word
	dispstatOffset = addr.DISPSTAT
	vcountOffset   = addr.VCOUNT
)

// IRQRequester is satisfied by gba/irq.Controller.
type IRQRequester interface {
	Request(source uint8)
}

// DMANotifier is satisfied by gba/dma.Engine: the two trigger edges
// the video collaborator can raise (§4.6).
type DMANotifier interface {
	NotifyVBlank()
	NotifyHBlank()
}

// Unit owns the video I/O register range and the scanline timer. It
// holds its registers as a flat byte buffer in the spirit of §4.5's
// "catch-all byte buffer" pattern, since the pixel semantics of each
// register are out of the core's scope.
type Unit struct {
	regs [regSpan]byte

	line   int
	cycles int

	irq IRQRequester
	dma DMANotifier
}

// New constructs a video Unit wired to raise IRQs and notify DMA.
func New(irq IRQRequester, dma DMANotifier) *Unit {
	return &Unit{irq: irq, dma: dma}
}

// Reset returns the video registers and scanline timer to power-on
// state.
func (u *Unit) Reset() {
	for i := range u.regs {
		u.regs[i] = 0
	}
	u.line = 0
	u.cycles = 0
}

// BGMode returns DISPCNT's low 3 bits, the bus's hook for the VRAM
// byte-write OBJ/bitmap boundary rule (§4.5).
func (u *Unit) BGMode() uint8 {
	return u.regs[addr.DISPCNT] & 0x7
}

// Line reports the current scanline (VCOUNT's value), for
// frontend/debug use.
func (u *Unit) Line() int { return u.line }

const (
	dispstatVBlank    = 1 << 0
	dispstatHBlank    = 1 << 1
	dispstatVCountHit = 1 << 2
	dispstatVBlankIRQ = 1 << 3
	dispstatHBlankIRQ = 1 << 4
	dispstatVCountIRQ = 1 << 5
)

// Step advances the scanline timer by cycles system cycles, raising
// hblank/vblank/vcount-match IRQs and DMA trigger notifications at the
// documented boundaries (§5 step ordering, §4.6 DMA trigger sources).
func (u *Unit) Step(cycles int) {
	u.cycles += cycles
	for u.cycles >= lineCycles {
		u.cycles -= lineCycles
		u.enterHBlank(false)
		u.advanceLine()
	}
	if u.cycles >= hdrawCycles && u.regs[dispstatOffset]&dispstatHBlank == 0 {
		u.enterHBlank(true)
	}
}

func (u *Unit) enterHBlank(fireDMA bool) {
	wasSet := u.regs[dispstatOffset]&dispstatHBlank != 0
	u.regs[dispstatOffset] |= dispstatHBlank
	if wasSet {
		return
	}
	if u.regs[dispstatOffset]&dispstatHBlankIRQ != 0 {
		u.irq.Request(uint8(addr.IRQHBlank))
	}
	// hblank DMA triggers only on non-vblank lines (§4.6).
	if fireDMA && u.line < visibleLines {
		u.dma.NotifyHBlank()
	}
}

func (u *Unit) advanceLine() {
	u.line++
	u.regs[dispstatOffset] &^= dispstatHBlank
	if u.line >= totalLines {
		u.line = 0
		u.regs[dispstatOffset] &^= dispstatVBlank
	}
	u.regs[vcountOffset] = byte(u.line)

	if u.line == visibleLines {
		u.regs[dispstatOffset] |= dispstatVBlank
		if u.regs[dispstatOffset]&dispstatVBlankIRQ != 0 {
			u.irq.Request(uint8(addr.IRQVBlank))
		}
		u.dma.NotifyVBlank()
	}

	lyc := int(u.regs[dispstatOffset+1])
	if u.line == lyc {
		u.regs[dispstatOffset] |= dispstatVCountHit
		if u.regs[dispstatOffset]&dispstatVCountIRQ != 0 {
			u.irq.Request(uint8(addr.IRQVCount))
		}
	} else {
		u.regs[dispstatOffset] &^= dispstatVCountHit
	}
}

// ReadByte/WriteByte/ReadHalf/WriteHalf/ReadWord/WriteWord implement
// the plain register-buffer access the bus's IO sub-dispatch expects;
// VCOUNT and DISPSTAT's hardware-controlled bits are read-only from
// the bus's perspective (writes to them are accepted but only affect
// the writable bit subset, matching real hardware's partially-RO
// status registers).
func (u *Unit) ReadByte(offset uint32) uint8 {
	if int(offset) >= len(u.regs) {
		return 0
	}
	return u.regs[offset]
}

func (u *Unit) WriteByte(offset uint32, value uint8) {
	if int(offset) >= len(u.regs) {
		return
	}
	if offset == dispstatOffset {
		// bits 0-2 are hardware status, not writable; bits 3-7 (IRQ
		// enables) and the LYC byte that follows are.
		u.regs[offset] = (u.regs[offset] & 0x07) | (value &^ 0x07)
		return
	}
	if offset == vcountOffset {
		return
	}
	u.regs[offset] = value
}

func (u *Unit) ReadHalf(offset uint32) uint16 {
	return uint16(u.ReadByte(offset)) | uint16(u.ReadByte(offset+1))<<8
}

func (u *Unit) WriteHalf(offset uint32, value uint16) {
	u.WriteByte(offset, uint8(value))
	u.WriteByte(offset+1, uint8(value>>8))
}

func (u *Unit) ReadWord(offset uint32) uint32 {
	return uint32(u.ReadHalf(offset)) | uint32(u.ReadHalf(offset+2))<<16
}

func (u *Unit) WriteWord(offset uint32, value uint32) {
	u.WriteHalf(offset, uint16(value))
	u.WriteHalf(offset+2, uint16(value>>16))
}
