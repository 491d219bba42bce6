// Package frontend defines the output-agnostic interface the CLI
// entry point drives the emulator through, modeled directly on the
// teacher's backend.Backend interface (jeebie/backend/backend.go):
// a small Init/Update/Cleanup lifecycle that keeps every concrete
// output surface (headless, terminal) decoupled from package gba.
//
// Pixel rendering is out of the core's scope (§1 Non-goals), so
// Update here takes no frame buffer; frontends instead receive a
// DebugState snapshot (registers, CPSR flags, DMA channel state,
// pending IRQs) to render as a debug dashboard.
package frontend

import "github.com/gba-emu/go-gba/gba"

// Frontend is a complete emulator-driving platform: it decides how
// often to call RunFrame and renders the DebugState snapshot it gets
// back.
type Frontend interface {
	// Init prepares the frontend (opens a terminal screen, etc).
	Init() error

	// Update is called once per host frame. It reads emu's current
	// debug state, renders it, and returns whether the frontend wants
	// the run loop to keep going.
	Update(emu *gba.Emulator) (keepRunning bool, err error)

	// Cleanup releases any resources Init acquired.
	Cleanup() error
}

// DebugState is the read-only snapshot a Frontend renders each
// Update, extracted from the emulator without exposing its full
// internal surface (mirrors backend.DebugDataProvider's
// ExtractDebugData contract).
type DebugState struct {
	PC, CPSR        uint32
	Mode            string
	Thumb           bool
	N, Z, C, V      bool
	IRQDisabled     bool
	HaltState       string
	Line            int
	Instructions    uint64
	Frames          uint64
	DMAChannelsBusy [4]bool
	PendingIRQs     uint16
}

// Extract builds a DebugState snapshot from the emulator's public
// collaborators, the seam every Frontend implementation renders
// through.
func Extract(emu *gba.Emulator) DebugState {
	regs := emu.CPU.Regs
	var busy [4]bool
	for i := range busy {
		busy[i] = emu.DMA.ChannelActive(i)
	}
	return DebugState{
		PC:              emu.CPU.GetPC(),
		CPSR:            regs.CPSR(),
		Mode:            regs.Mode().String(),
		Thumb:           regs.Thumb(),
		N:               regs.Negative(),
		Z:               regs.Zero(),
		C:               regs.Carry(),
		V:               regs.Overflow(),
		IRQDisabled:     regs.IRQDisabled(),
		HaltState:       emu.IRQ.State().String(),
		Line:            emu.Video.Line(),
		Instructions:    emu.InstructionCount(),
		Frames:          emu.FrameCount(),
		DMAChannelsBusy: busy,
		PendingIRQs:     emu.IRQ.ReadIE() & emu.IRQ.ReadIF(),
	}
}
