// Package gba composes the ARM7TDMI core, bus, DMA engine, IRQ
// controller and the tick-driven collaborators (video, timer, keypad,
// cartridge) into a single steppable emulator. One host step runs, in
// order: IRQ delivery decision -> one DMA sub-step -> one CPU
// instruction (unless halted or that DMA sub-step ran a channel) ->
// video sub-step -> timer sub-step. Keypad input is latched on each
// PressKey/ReleaseKey edge rather than polled per step.
//
// The ground-truth reference core this domain was distilled from
// evaluates IRQ delivery at the end of its step instead of the start
// (see DESIGN.md); this core keeps IRQ-first: a tick that delivers an
// interrupt runs the first instruction at the IRQ vector, where an
// end-of-tick check would first run one more instruction of the
// interrupted code. The halt/wake test in gba_test.go pins this.
//
// This mirrors the teacher's root Emulator (jeebie/core.go): a small
// struct wiring cpu/gpu/mmu together behind RunUntilFrame, generalized
// here to the GBA's larger collaborator set and its explicit DMA/CPU
// mutual exclusion.
package gba

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gba-emu/go-gba/gba/addr"
	"github.com/gba-emu/go-gba/gba/bus"
	"github.com/gba-emu/go-gba/gba/cart"
	"github.com/gba-emu/go-gba/gba/cpu"
	"github.com/gba-emu/go-gba/gba/dma"
	"github.com/gba-emu/go-gba/gba/irq"
	"github.com/gba-emu/go-gba/gba/keypad"
	"github.com/gba-emu/go-gba/gba/timer"
	"github.com/gba-emu/go-gba/gba/video"
)

// cyclesPerStep is the coarse per-host-step cycle budget handed to the
// video and timer sub-steppers. The core does not model per-
// instruction cycle costs precisely (§1 Non-goal on prefetch timing),
// so a single representative budget drives peripheral advancement once
// per host step rather than being derived from the executed
// instruction's real timing.
const cyclesPerStep = 4

// Emulator is the root struct: it owns every piece of CORE state and
// drives the fixed step ordering from §5.
type Emulator struct {
	CPU   *cpu.CPU
	Bus   *bus.Bus
	DMA   *dma.Engine
	IRQ   *irq.Controller
	Video *video.Unit
	Timer *timer.Unit
	Keys  *keypad.Unit
	Cart  *cart.Cartridge

	instructionCount uint64
	frameCount       uint64
}

// New constructs a fully-wired Emulator with an empty cartridge slot.
// Call LoadROM before Reset to run real code; without a cartridge the
// bus still functions (ROM reads return 0, since Cartridge.ROMSize is
// 0 and the bus returns 0 for ROM offsets past the image).
func New() *Emulator {
	e := &Emulator{}
	e.wire(cart.New(nil))
	return e
}

// NewWithROM constructs an Emulator with rom already loaded.
func NewWithROM(rom []byte) *Emulator {
	e := &Emulator{}
	e.wire(cart.New(rom))
	return e
}

func (e *Emulator) wire(c *cart.Cartridge) {
	e.IRQ = irq.New()
	e.DMA = dma.New(e.IRQ, c)
	e.Video = video.New(e.IRQ, e.DMA)
	e.Timer = timer.New(e.IRQ, uint8(addr.IRQTimer0))
	e.Keys = keypad.New(e.IRQ, uint8(addr.IRQKeypad))
	e.Cart = c

	io := bus.NewIO(e.Video, e.DMA, e.Timer, e.Keys, e.IRQ)
	e.Bus = bus.New(io, c)
	e.CPU = cpu.New(e.Bus)
}

// LoadROM replaces the cartridge image, rewiring the DMA engine's
// EEPROM-hint collaborator and the bus's cartridge seam to the new
// image.
func (e *Emulator) LoadROM(rom []byte) {
	e.Cart = cart.New(rom)
	e.DMA.SetCartridge(e.Cart)
	e.Bus = bus.New(bus.NewIO(e.Video, e.DMA, e.Timer, e.Keys, e.IRQ), e.Cart)
	e.CPU = cpu.New(e.Bus)
}

// LoadBIOS installs a BIOS image into the protected boot ROM region.
func (e *Emulator) LoadBIOS(data []byte) {
	e.Bus.LoadBIOS(data)
}

// Reset reinitializes every subsystem to power-on state (§3
// Lifecycle). skipBIOS mirrors the CPU's own skip-boot option and
// additionally zeroes the top 512 bytes of internal WRAM, which the
// real BIOS boot sequence would otherwise have done.
func (e *Emulator) Reset(skipBIOS bool) {
	e.IRQ.Reset()
	e.Video.Reset()
	e.Timer.Reset()
	e.Keys.Reset()
	e.DMA.Reset()
	e.CPU.Reset(skipBIOS)
	e.instructionCount = 0
	e.frameCount = 0

	if skipBIOS {
		for off := uint32(0); off < 0x200; off++ {
			e.Bus.WriteByte(addr.IWRAMBase+0x7E00+off, 0)
		}
	}
}

// Step advances the emulator by exactly one host tick, implementing
// the §5 ordering. It returns the number of CPU cycles the tick
// consumed: 0 when Stopped, and cyclesPerStep when the CPU did not run
// because it was halted or a DMA channel was active.
func (e *Emulator) Step() int {
	// IRQ delivery: only meaningful once a source is actually pending;
	// gated on CPSR's IRQ-disable bit here since the irq package has
	// no visibility into the register file (§4.7).
	if e.IRQ.Pending() && !e.CPU.IRQDisabled() {
		e.CPU.RaiseInterrupt()
	}

	state := e.IRQ.State()
	if state == irq.Stopped {
		// Stopped masks CPU and peripheral stepping alike (§3); only a
		// pending-and-enabled source can end it (irq.Controller.Request
		// flips State() back to Running when it latches one).
		return 0
	}

	desc, dmaActive := e.DMA.Step()
	if desc != nil {
		e.runTransfer(desc)
	}

	cycles := 0
	if state == irq.Running && !dmaActive {
		cycles = e.CPU.Step()
		e.instructionCount++
	} else {
		cycles = cyclesPerStep
	}

	e.Video.Step(cyclesPerStep)
	e.Timer.Tick(uint32(cyclesPerStep))

	return cycles
}

// runTransfer executes a DMA Descriptor against the bus: one read
// followed by one write per unit, at the descriptor's stride, exactly
// as §4.6/§9's "emission contract" describes (the engine never touches
// the bus itself; the step loop applies the effect immediately after
// the engine's own state update).
func (e *Emulator) runTransfer(d *dma.Descriptor) {
	src, dst := d.Src, d.Dst
	for i := 0; i < d.Units; i++ {
		if d.Stride == 4 {
			e.Bus.WriteWord(dst, e.Bus.ReadWord(src))
		} else {
			e.Bus.WriteHalf(dst, e.Bus.ReadHalf(src))
		}
		src += d.Stride
		dst += d.Stride
	}
}

// RunFrame steps the emulator until one full video frame (all 228
// scanlines) has elapsed, mirroring the teacher's RunUntilFrame
// (jeebie/core.go), generalized from a fixed cycle budget to watching
// the video collaborator's own scanline counter wrap.
func (e *Emulator) RunFrame() {
	startLine := e.Video.Line()
	sawOtherLine := false
	for {
		e.Step()
		line := e.Video.Line()
		if line != startLine {
			sawOtherLine = true
		}
		if sawOtherLine && line == startLine {
			break
		}
	}
	e.frameCount++
	if e.frameCount%60 == 0 {
		slog.Debug("gba: frame completed", "frame", e.frameCount, "pc", fmt.Sprintf("0x%08X", e.CPU.GetPC()))
	}
}

// PressKey and ReleaseKey latch keypad input, per §5's "keypad latches
// input state into IRQ requests" step. Unlike the real hardware (which
// samples KEYINPUT once a frame), this core re-evaluates the KEYCNT
// interrupt condition immediately on every edge, matching the keypad
// package's own Press/Release contract.
func (e *Emulator) PressKey(b keypad.Button)   { e.Keys.Press(b) }
func (e *Emulator) ReleaseKey(b keypad.Button) { e.Keys.Release(b) }

// InstructionCount and FrameCount expose run counters for frontends
// and headless CLI reporting, matching the teacher's GetInstructionCount/
// GetFrameCount accessors (jeebie/core.go).
func (e *Emulator) InstructionCount() uint64 { return e.instructionCount }
func (e *Emulator) FrameCount() uint64       { return e.frameCount }

// LoadROMFile reads a ROM image from disk and installs it, a small
// convenience the CLI entry point and tests both want without
// duplicating os.ReadFile plumbing.
func (e *Emulator) LoadROMFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("gba: failed to read ROM %q: %w", path, err)
	}
	e.LoadROM(data)
	return nil
}
