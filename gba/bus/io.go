package bus

import "github.com/gba-emu/go-gba/gba/addr"

// videoUnit, dmaEngine, timerUnit, keypadUnit and irqController name
// the minimal surfaces the IO sub-dispatch needs from each
// collaborator, so this package depends only on method sets, not on
// the collaborator packages themselves — the same decoupling the bus
// itself uses for Cartridge above.
type videoUnit interface {
	BGMode() uint8
	ReadByte(offset uint32) uint8
	WriteByte(offset uint32, value uint8)
	ReadHalf(offset uint32) uint16
	WriteHalf(offset uint32, value uint16)
	ReadWord(offset uint32) uint32
	WriteWord(offset uint32, value uint32)
}

type dmaEngine interface {
	ReadByte(offset uint32) uint8
	WriteByte(offset uint32, value uint8)
	ReadHalf(offset uint32) uint16
	WriteHalf(offset uint32, value uint16)
	ReadWord(offset uint32) uint32
	WriteWord(offset uint32, value uint32)
}

type timerUnit interface {
	ReadCounter(index int) uint16
	WriteReload(index int, value uint16)
	ReadControl(index int) uint16
	WriteControl(index int, value uint16)
}

type keypadUnit interface {
	ReadHalf(offset uint32) uint16
	WriteHalf(offset uint32, value uint16)
}

type irqController interface {
	ReadIE() uint16
	WriteIE(v uint16)
	ReadIF() uint16
	WriteIF(v uint16)
	ReadIME() uint16
	WriteIME(v uint16)
	WriteHaltCnt(value uint8)
}

// IO is the 0x0400_0000-range sub-dispatch: it owns no state of its
// own beyond an open-ended catch-all buffer for registers this core
// does not model (sound, serial, the handful of unused gaps), and
// routes everything else to the owning collaborator by offset, the
// way the teacher's mem.go dispatches on address ranges to PPU/timer/
// joypad handlers.
type IO struct {
	video  videoUnit
	dma    dmaEngine
	timer  timerUnit
	keypad keypadUnit
	irq    irqController

	// catch-all backing store for registers with no modeled behavior
	// (sound channels, serial I/O, waitstate control, etc.) so reads
	// at least echo back the last value written instead of always 0.
	unhandled [0x800]byte
}

// NewIO constructs the sub-dispatch wired to its five collaborators.
func NewIO(video videoUnit, dma dmaEngine, timer timerUnit, keypad keypadUnit, irq irqController) *IO {
	return &IO{video: video, dma: dma, timer: timer, keypad: keypad, irq: irq}
}

// BGMode satisfies bus.IOHandler, delegating to the video collaborator
// for the VRAM byte-write boundary rule (§4.5).
func (io *IO) BGMode() uint8 { return io.video.BGMode() }

func classifyIO(offset uint32) (kind string, rel uint32) {
	switch {
	case offset < addr.DMA0SAD:
		return "video", offset
	case offset >= addr.DMA0SAD && offset < addr.DMA0SAD+4*addr.DMAStride:
		return "dma", offset
	case offset >= addr.TM0CNT_L && offset < addr.TM0CNT_L+4*addr.TimerStride:
		return "timer", offset - addr.TM0CNT_L
	case offset >= addr.KEYINPUT && offset <= addr.KEYCNT+1:
		return "keypad", offset - addr.KEYINPUT
	case offset == addr.IE || offset == addr.IE+1:
		return "ie", 0
	case offset == addr.IF || offset == addr.IF+1:
		return "if", 0
	case offset == addr.IME || offset == addr.IME+1:
		return "ime", 0
	case offset == addr.HALTCNT:
		return "haltcnt", 0
	default:
		return "unhandled", offset
	}
}

func (io *IO) timerIndex(rel uint32) (index int, isControl bool) {
	return int(rel / addr.TimerStride), (rel % addr.TimerStride) >= 2
}

func (io *IO) ReadByte(address uint32) uint8 {
	offset := address - addr.IOBase
	kind, rel := classifyIO(offset)
	switch kind {
	case "video":
		return io.video.ReadByte(rel)
	case "dma":
		return io.dma.ReadByte(rel)
	case "timer":
		return uint8(io.readTimerHalf(rel) >> (8 * (rel & 1)))
	case "keypad":
		return uint8(io.keypad.ReadHalf(rel&^1) >> (8 * (rel & 1)))
	case "ie":
		return byteOf(io.irq.ReadIE(), offset)
	case "if":
		return byteOf(io.irq.ReadIF(), offset)
	case "ime":
		return byteOf(io.irq.ReadIME(), offset-addr.IME)
	default:
		if int(offset) < len(io.unhandled) {
			return io.unhandled[offset]
		}
		return 0
	}
}

func byteOf(v uint16, parity uint32) uint8 {
	if parity&1 == 0 {
		return uint8(v)
	}
	return uint8(v >> 8)
}

func (io *IO) readTimerHalf(rel uint32) uint16 {
	index, isControl := io.timerIndex(rel)
	if isControl {
		return io.timer.ReadControl(index)
	}
	return io.timer.ReadCounter(index)
}

func (io *IO) WriteByte(address uint32, value uint8) {
	offset := address - addr.IOBase
	kind, rel := classifyIO(offset)
	switch kind {
	case "video":
		io.video.WriteByte(rel, value)
	case "dma":
		io.dma.WriteByte(rel, value)
	case "timer":
		io.writeTimerByte(rel, value)
	case "keypad":
		half := io.keypad.ReadHalf(rel &^ 1)
		half = patchByte(half, rel&1, value)
		io.keypad.WriteHalf(rel&^1, half)
	case "ie":
		io.irq.WriteIE(patchByte(io.irq.ReadIE(), offset-addr.IE, value))
	case "if":
		// IF is write-1-clears; only the byte actually written
		// contributes bits to clear.
		v := uint16(value)
		if offset-addr.IF == 1 {
			v <<= 8
		}
		io.irq.WriteIF(v)
	case "ime":
		io.irq.WriteIME(patchByte(io.irq.ReadIME(), offset-addr.IME, value))
	case "haltcnt":
		io.irq.WriteHaltCnt(value)
	default:
		if int(offset) < len(io.unhandled) {
			io.unhandled[offset] = value
		}
	}
}

func patchByte(v uint16, parity uint32, b uint8) uint16 {
	if parity&1 == 0 {
		return (v &^ 0xFF) | uint16(b)
	}
	return (v &^ 0xFF00) | uint16(b)<<8
}

func (io *IO) writeTimerByte(rel uint32, value uint8) {
	index, isControl := io.timerIndex(rel)
	parity := rel & 1
	if isControl {
		io.timer.WriteControl(index, patchByte(io.timer.ReadControl(index), parity, value))
		return
	}
	io.timer.WriteReload(index, patchByte(io.timer.ReadCounter(index), parity, value))
}

func (io *IO) ReadHalf(address uint32) uint16 {
	offset := address - addr.IOBase
	kind, rel := classifyIO(offset)
	switch kind {
	case "video":
		return io.video.ReadHalf(rel)
	case "dma":
		return io.dma.ReadHalf(rel)
	case "timer":
		return io.readTimerHalf(rel)
	case "keypad":
		return io.keypad.ReadHalf(rel)
	case "ie":
		return io.irq.ReadIE()
	case "if":
		return io.irq.ReadIF()
	case "ime":
		return io.irq.ReadIME()
	default:
		return uint16(io.ReadByte(address)) | uint16(io.ReadByte(address+1))<<8
	}
}

func (io *IO) WriteHalf(address uint32, value uint16) {
	offset := address - addr.IOBase
	kind, rel := classifyIO(offset)
	switch kind {
	case "video":
		io.video.WriteHalf(rel, value)
	case "dma":
		io.dma.WriteHalf(rel, value)
	case "timer":
		index, isControl := io.timerIndex(rel)
		if isControl {
			io.timer.WriteControl(index, value)
		} else {
			io.timer.WriteReload(index, value)
		}
	case "keypad":
		io.keypad.WriteHalf(rel, value)
	case "ie":
		io.irq.WriteIE(value)
	case "if":
		io.irq.WriteIF(value)
	case "ime":
		io.irq.WriteIME(value)
	default:
		io.WriteByte(address, uint8(value))
		io.WriteByte(address+1, uint8(value>>8))
	}
}

func (io *IO) ReadWord(address uint32) uint32 {
	offset := address - addr.IOBase
	kind, rel := classifyIO(offset)
	switch kind {
	case "video":
		return io.video.ReadWord(rel)
	case "dma":
		return io.dma.ReadWord(rel)
	default:
		return uint32(io.ReadHalf(address)) | uint32(io.ReadHalf(address+2))<<16
	}
}

func (io *IO) WriteWord(address uint32, value uint32) {
	offset := address - addr.IOBase
	kind, rel := classifyIO(offset)
	switch kind {
	case "video":
		io.video.WriteWord(rel, value)
	case "dma":
		io.dma.WriteWord(rel, value)
	default:
		io.WriteHalf(address, uint16(value))
		io.WriteHalf(address+2, uint16(value>>16))
	}
}
