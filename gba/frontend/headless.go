package frontend

import (
	"log/slog"

	"github.com/gba-emu/go-gba/gba"
)

// Headless is the always-available, no-third-party-dependency
// Frontend: it runs the emulator to completion logging progress
// through log/slog, matching the teacher's own headless run mode
// (cmd/jeebie/main.go's --headless path) without a rendering surface.
type Headless struct {
	TotalFrames int

	frames int
}

// NewHeadless returns a Headless frontend that stops after totalFrames
// RunFrame calls (0 means unbounded — the caller must stop it some
// other way).
func NewHeadless(totalFrames int) *Headless {
	return &Headless{TotalFrames: totalFrames}
}

func (h *Headless) Init() error { return nil }

// Update runs exactly one frame and logs progress every 60 frames,
// mirroring cmd/jeebie/main.go's "Frame progress" log line.
func (h *Headless) Update(emu *gba.Emulator) (bool, error) {
	emu.RunFrame()
	h.frames++

	if h.frames%60 == 0 {
		state := Extract(emu)
		slog.Info("gba: frame progress", "frame", h.frames, "pc", state.PC, "mode", state.Mode)
	}

	if h.TotalFrames > 0 && h.frames >= h.TotalFrames {
		return false, nil
	}
	return true, nil
}

func (h *Headless) Cleanup() error { return nil }
