// Package dma implements the four-channel DMA engine described in
// §4.6 of the core specification: independent source/destination
// address controls, repeat and IRQ-on-complete behavior, and the four
// trigger conditions (immediate, vblank, hblank, audio FIFO).
//
// The engine never touches the bus directly — per the §4.6/§9 "emission
// contract" and the composite-bus-aliasing design note, Step returns a
// transfer Descriptor that the caller (the top-level step loop in
// gba.go) executes against a freshly-constructed bus view. This mirrors
// the teacher's habit of keeping collaborators decoupled through small
// interfaces (jeebie/memory/timer.go's TimerInterruptHandler callback)
// rather than holding a live reference to shared, aliased state.
package dma

import "github.com/gba-emu/go-gba/gba/addr"

// TransferState is a DMA channel's current activity (§3).
type TransferState uint8

const (
	Idle TransferState = iota
	Starting
	InProgress
)

// AddrCtrl is one of the four 2-bit address-control codes shared by
// source and destination (§3). Value 3 ("increment with reload") is
// illegal on a source control field; the engine does not reject it
// there (that would require returning an error from a register write,
// which §7 reserves for the two named fatal conditions) but never
// produces reload behavior for it since only destination controls are
// consulted for the reload-on-repeat rule.
type AddrCtrl uint8

const (
	CtrlIncrement AddrCtrl = iota
	CtrlDecrement
	CtrlFixed
	CtrlIncrementReload
)

// Real GBA DMAxCNT_H bit layout (GBATEK); the channel register block
// is 12 bytes: SAD(4) DAD(4) CNT_L(2) CNT_H(2).
const (
	ctrlDestShift    = 5
	ctrlSrcShift     = 7
	ctrlRepeatBit    = 1 << 9
	ctrlWordBit      = 1 << 10
	ctrlCartDRQBit   = 1 << 11
	ctrlTimingShift  = 12
	ctrlTimingMask   = 0x3
	ctrlIRQBit       = 1 << 14
	ctrlEnableBit    = 1 << 15
	addrCtrlFieldMsk = 0x3
)

// Timing modes (§3), the bits2-shifted values of DMAxCNT_H bits 13-12.
const (
	TimingImmediate uint8 = iota
	TimingVBlank
	TimingHBlank
	TimingSpecial
)

const (
	maxBlocksNormal  = 0x4000
	maxBlocksChannel3 = 0x1_0000
)

// Channel holds one DMA channel's configurable registers (written via
// the bus, truncated/masked at enable time per §3) and its running
// transfer state.
type Channel struct {
	index int

	rawSrc   uint32 // SAD as last written, before truncation
	rawDst   uint32 // DAD as last written, before truncation
	rawCount uint16 // CNT_L as last written
	control  uint16 // CNT_H as last written

	curSrc, curDst  uint32
	remainingBlocks uint32
	state           TransferState

	audioFIFO bool // latched at trigger time: channel 1/2, special timing, FIFO A/B dest
}

// IRQRequester is satisfied by gba/irq.Controller.
type IRQRequester interface {
	Request(source uint8)
}

// EEPROMHinter is satisfied by gba/cart.Cartridge: the §4.6 "EEPROM
// hint" that passes a transfer's block count to the cartridge when its
// destination lies in the EEPROM window. gba/cart records the count for
// diagnostics only; it does not size an EEPROM address window from it.
type EEPROMHinter interface {
	HintEEPROM(blockCount uint32)
}

// Descriptor is the transfer effect a Step call emits: the caller
// executes it against the bus immediately afterward (§4.6, §9).
type Descriptor struct {
	Src, Dst uint32
	Units    int
	Stride   uint32 // 4 (word) or 2 (half-word)
}

// Engine owns the four DMA channels and arbitrates which one (if any)
// transfers on a given host step.
type Engine struct {
	channels [4]Channel
	irq      IRQRequester
	cart     EEPROMHinter
}

// New constructs an Engine wired to raise completion IRQs through irq
// and to hint EEPROM sizing to cart (may be nil if no cartridge is
// attached yet).
func New(irq IRQRequester, cart EEPROMHinter) *Engine {
	e := &Engine{irq: irq, cart: cart}
	for i := range e.channels {
		e.channels[i] = Channel{index: i}
	}
	return e
}

// SetCartridge rewires the EEPROM-hint collaborator, used when a ROM
// is loaded after the engine was constructed.
func (e *Engine) SetCartridge(cart EEPROMHinter) { e.cart = cart }

// Reset returns all four channels to power-on state.
func (e *Engine) Reset() {
	for i := range e.channels {
		e.channels[i] = Channel{index: i}
	}
}

// ChannelActive reports whether channel index is currently Starting or
// InProgress, for debug/frontend display.
func (e *Engine) ChannelActive(index int) bool {
	return e.channels[index].state != Idle
}

func maxBlocks(index int) uint32 {
	if index == 3 {
		return maxBlocksChannel3
	}
	return maxBlocksNormal
}

func srcTruncMask(index int) uint32 {
	if index == 0 {
		return 0x07FF_FFFF // 27 bits
	}
	return 0x0FFF_FFFF // 28 bits
}

// --- register access, offsets relative to addr.IOBase ---

func channelAt(offset uint32) (index int, field uint32, ok bool) {
	if offset < addr.DMA0SAD || offset >= addr.DMA0SAD+4*addr.DMAStride {
		return 0, 0, false
	}
	rel := offset - addr.DMA0SAD
	return int(rel / addr.DMAStride), rel % addr.DMAStride, true
}

// ReadByte/WriteByte/ReadHalf/WriteHalf/ReadWord/WriteWord implement
// the bus IO sub-dispatch contract for the DMA register block
// (0x0B0-0x0DF). SAD/DAD/CNT_L are architecturally write-only; per §1's
// non-goal on open-bus accuracy, reads of them simply return the last
// written value rather than modeling genuine open-bus garbage.
func (e *Engine) ReadByte(offset uint32) uint8 {
	idx, field, ok := channelAt(offset)
	if !ok {
		return 0
	}
	ch := &e.channels[idx]
	switch {
	case field < 4:
		return uint8(ch.rawSrc >> (8 * field))
	case field < 8:
		return uint8(ch.rawDst >> (8 * (field - 4)))
	case field < 10:
		return uint8(ch.rawCount >> (8 * (field - 8)))
	default:
		return uint8(ch.control >> (8 * (field - 10)))
	}
}

func (e *Engine) WriteByte(offset uint32, value uint8) {
	idx, field, ok := channelAt(offset)
	if !ok {
		return
	}
	ch := &e.channels[idx]
	shift := 8 * (field % 4)
	switch {
	case field < 4:
		ch.rawSrc = setByteAt(ch.rawSrc, shift, value)
	case field < 8:
		ch.rawDst = setByteAt(ch.rawDst, shift, value)
	case field < 10:
		ch.rawCount = uint16(setByteAt(uint32(ch.rawCount), shift%16, value))
	default:
		prev := ch.control
		ch.control = uint16(setByteAt(uint32(ch.control), shift%16, value))
		e.onControlWritten(ch, prev)
	}
}

func setByteAt(v uint32, shift uint32, b uint8) uint32 {
	mask := uint32(0xFF) << shift
	return (v &^ mask) | (uint32(b) << shift)
}

func (e *Engine) ReadHalf(offset uint32) uint16 {
	return uint16(e.ReadByte(offset)) | uint16(e.ReadByte(offset+1))<<8
}

func (e *Engine) WriteHalf(offset uint32, value uint16) {
	idx, field, ok := channelAt(offset)
	if !ok {
		return
	}
	ch := &e.channels[idx]
	switch {
	case field < 4:
		ch.rawSrc = setHalfAt(ch.rawSrc, field, value)
	case field < 8:
		ch.rawDst = setHalfAt(ch.rawDst, field-4, value)
	case field == 8:
		ch.rawCount = value
	case field == 10:
		prev := ch.control
		ch.control = value
		e.onControlWritten(ch, prev)
	}
}

func setHalfAt(v uint32, fieldOffset uint32, half uint16) uint32 {
	if fieldOffset%4 == 0 {
		return (v &^ 0x0000_FFFF) | uint32(half)
	}
	return (v &^ 0xFFFF_0000) | uint32(half)<<16
}

func (e *Engine) ReadWord(offset uint32) uint32 {
	return uint32(e.ReadHalf(offset)) | uint32(e.ReadHalf(offset+2))<<16
}

func (e *Engine) WriteWord(offset uint32, value uint32) {
	idx, field, ok := channelAt(offset)
	if !ok {
		return
	}
	ch := &e.channels[idx]
	switch field {
	case 0:
		ch.rawSrc = value
	case 4:
		ch.rawDst = value
	case 8:
		ch.rawCount = uint16(value)
		prev := ch.control
		ch.control = uint16(value >> 16)
		e.onControlWritten(ch, prev)
	}
}

// onControlWritten implements the §4.6 enable-edge rule: bit 15
// (equivalently, bit 7 of the control register's high byte) rising
// from 0 to 1 arms the channel.
func (e *Engine) onControlWritten(ch *Channel, prev uint16) {
	wasEnabled := prev&ctrlEnableBit != 0
	nowEnabled := ch.control&ctrlEnableBit != 0

	if nowEnabled && !wasEnabled {
		e.armChannel(ch)
	} else if !nowEnabled && wasEnabled {
		ch.state = Idle
	}
}

func (ch *Channel) timing() uint8 {
	return uint8((ch.control >> ctrlTimingShift) & ctrlTimingMask)
}

func (ch *Channel) destCtrl() AddrCtrl { return AddrCtrl((ch.control >> ctrlDestShift) & addrCtrlFieldMsk) }
func (ch *Channel) srcCtrl() AddrCtrl  { return AddrCtrl((ch.control >> ctrlSrcShift) & addrCtrlFieldMsk) }
func (ch *Channel) repeat() bool       { return ch.control&ctrlRepeatBit != 0 }
func (ch *Channel) wordTransfer() bool { return ch.control&ctrlWordBit != 0 }
func (ch *Channel) irqOnComplete() bool { return ch.control&ctrlIRQBit != 0 }
func (ch *Channel) enabled() bool      { return ch.control&ctrlEnableBit != 0 }

// isAudioFIFO reports whether this channel, under its current
// configuration, is an audio-FIFO channel per §4.6: channel 1 or 2,
// special timing, destination exactly FIFO A or FIFO B.
func (ch *Channel) isAudioFIFO() bool {
	if ch.index != 1 && ch.index != 2 {
		return false
	}
	if ch.timing() != TimingSpecial {
		return false
	}
	dst := ch.rawDst & srcTruncMask(ch.index)
	return dst == addr.FIFOABase || dst == addr.FIFOBBase
}

// armChannel copies the initial registers into the running state (§4.2
// "on enable" sequence) and, for immediate timing, starts the transfer
// right away.
func (e *Engine) armChannel(ch *Channel) {
	srcMask := srcTruncMask(ch.index)
	ch.curSrc = ch.rawSrc & srcMask
	ch.curDst = ch.rawDst & srcMask

	ch.audioFIFO = ch.isAudioFIFO()

	blocks := uint32(ch.rawCount)
	if blocks == 0 || blocks > maxBlocks(ch.index) {
		blocks = maxBlocks(ch.index)
	}
	if ch.audioFIFO {
		blocks = 4
	}
	ch.remainingBlocks = blocks

	if e.cart != nil && ch.curDst >= addr.EEPROMWindowStart && ch.curDst <= addr.EEPROMWindowEnd {
		e.cart.HintEEPROM(blocks)
	}

	if ch.timing() == TimingImmediate {
		ch.state = Starting
	} else {
		ch.state = Idle
	}
}

// arm transitions an Idle, enabled channel to Starting — used by the
// trigger-notification methods below. A channel that is not currently
// enabled, or already Starting/InProgress, is left alone.
func (ch *Channel) arm() {
	if ch.enabled() && ch.state == Idle {
		ch.state = Starting
	}
}

// NotifyVBlank arms every enabled channel in vblank timing mode
// (§4.6).
func (e *Engine) NotifyVBlank() {
	for i := range e.channels {
		ch := &e.channels[i]
		if ch.timing() == TimingVBlank {
			ch.arm()
		}
	}
}

// NotifyHBlank arms every enabled channel in hblank timing mode.
func (e *Engine) NotifyHBlank() {
	for i := range e.channels {
		ch := &e.channels[i]
		if ch.timing() == TimingHBlank {
			ch.arm()
		}
	}
}

// NotifyFIFOAEmpty arms the audio-FIFO channel(s) targeting FIFO A.
func (e *Engine) NotifyFIFOAEmpty() { e.notifyFIFO(addr.FIFOABase) }

// NotifyFIFOBEmpty arms the audio-FIFO channel(s) targeting FIFO B.
func (e *Engine) NotifyFIFOBEmpty() { e.notifyFIFO(addr.FIFOBBase) }

func (e *Engine) notifyFIFO(fifoAddr uint32) {
	for i := 1; i <= 2; i++ {
		ch := &e.channels[i]
		if ch.enabled() && ch.timing() == TimingSpecial && ch.isAudioFIFO() && ch.rawDst&srcTruncMask(ch.index) == fifoAddr {
			ch.remainingBlocks = 4
			ch.state = Starting
		}
	}
}

// unitsPerStep bounds how many transfer units a single Step call moves
// for a non-audio-FIFO channel, matching §4.6's "transfer
// min(remaining_blocks, cycles_budget) units per step" without
// modeling genuine per-unit bus cycle costs (§1 non-goal).
const unitsPerStep = 4

// Step advances at most one channel by one sub-step, per the §4.6
// arbitration rule (scan 0->3, first non-Idle wins). It returns the
// transfer descriptor for the caller to execute against the bus, and
// whether any channel is currently active (true suspends the CPU for
// this host step, per §5).
func (e *Engine) Step() (*Descriptor, bool) {
	for i := range e.channels {
		ch := &e.channels[i]
		if ch.state == Idle {
			continue
		}
		ch.state = InProgress
		return e.transferStep(ch), true
	}
	return nil, false
}

func (e *Engine) transferStep(ch *Channel) *Descriptor {
	stride := uint32(2)
	if ch.wordTransfer() || ch.audioFIFO {
		stride = 4
	}

	units := unitsPerStep
	if ch.audioFIFO {
		units = 4
	}
	if units > int(ch.remainingBlocks) {
		units = int(ch.remainingBlocks)
	}

	desc := &Descriptor{Src: ch.curSrc, Dst: ch.curDst, Units: units, Stride: stride}

	destCtrl := ch.destCtrl()
	if ch.audioFIFO {
		destCtrl = CtrlFixed
	}
	ch.curSrc = advanceAddr(ch.curSrc, ch.srcCtrl(), stride, units)
	ch.curDst = advanceAddr(ch.curDst, destCtrl, stride, units)

	ch.remainingBlocks -= uint32(units)
	if ch.remainingBlocks == 0 {
		e.completeChannel(ch)
	}

	return desc
}

// advanceAddr applies one of the four address-control codes across
// count transferred units, wrapping modulo 2^32 (§3).
func advanceAddr(addr uint32, ctrl AddrCtrl, stride uint32, count int) uint32 {
	delta := stride * uint32(count)
	switch ctrl {
	case CtrlIncrement, CtrlIncrementReload:
		return addr + delta
	case CtrlDecrement:
		return addr - delta
	default: // CtrlFixed
		return addr
	}
}

func (e *Engine) completeChannel(ch *Channel) {
	ch.state = Idle
	if ch.repeat() && !ch.audioFIFO {
		ch.remainingBlocks = uint32(ch.rawCount)
		if ch.remainingBlocks == 0 || ch.remainingBlocks > maxBlocks(ch.index) {
			ch.remainingBlocks = maxBlocks(ch.index)
		}
		if ch.destCtrl() == CtrlIncrementReload {
			ch.curDst = ch.rawDst & srcTruncMask(ch.index)
		}
	} else if !ch.repeat() {
		ch.control &^= ctrlEnableBit
	}

	if ch.irqOnComplete() {
		e.irq.Request(uint8(addr.IRQDma0) + uint8(ch.index))
	}
}
