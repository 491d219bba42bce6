// Package terminal implements a tcell-backed debug dashboard
// frontend: a textual view of the register file, CPSR flags, DMA
// channel activity and pending IRQs, refreshed once per host frame.
// It is a direct descendant of the teacher's terminal backend
// (jeebie/backend/terminal/terminal.go), stripped of pixel rendering
// (out of the core's scope, §1) and narrowed to the debug-dashboard
// role the core's Frontend interface asks for.
package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/gba-emu/go-gba/gba"
	"github.com/gba-emu/go-gba/gba/frontend"
)

// Frontend renders gba's DebugState to a tcell terminal screen and
// turns 'q'/Ctrl-C into a stop request. Input routing to the emulated
// keypad is out of this dashboard's scope — it renders CORE state, it
// does not drive gameplay.
type Frontend struct {
	screen tcell.Screen
}

// New returns an uninitialized terminal Frontend; call Init before
// the first Update.
func New() *Frontend {
	return &Frontend{}
}

func (f *Frontend) Init() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: failed to initialize screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: failed to init screen: %w", err)
	}
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	screen.Clear()
	f.screen = screen
	return nil
}

// Update polls for a quit keypress, runs one emulated frame, then
// redraws the debug dashboard from the emulator's current DebugState.
func (f *Frontend) Update(emu *gba.Emulator) (bool, error) {
	for f.screen.HasPendingEvent() {
		switch ev := f.screen.PollEvent().(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
				return false, nil
			}
		case *tcell.EventResize:
			f.screen.Sync()
		}
	}

	emu.RunFrame()
	f.render(frontend.Extract(emu))
	f.screen.Show()
	return true, nil
}

func (f *Frontend) render(s frontend.DebugState) {
	f.screen.Clear()
	row := 0
	put := func(format string, args ...any) {
		line := fmt.Sprintf(format, args...)
		for col, r := range line {
			f.screen.SetContent(col, row, r, nil, tcell.StyleDefault)
		}
		row++
	}

	put("go-gba debug dashboard  (q to quit)")
	row++
	put("PC   %08X   CPSR %08X   mode %-3s  %s", s.PC, s.CPSR, s.Mode, thumbLabel(s.Thumb))
	put("flags N=%s Z=%s C=%s V=%s   IRQdis=%s   halt=%s", bit(s.N), bit(s.Z), bit(s.C), bit(s.V), bit(s.IRQDisabled), s.HaltState)
	row++
	put("scanline %3d   frame %8d   instrs %12d", s.Line, s.Frames, s.Instructions)
	row++
	put("DMA  ch0=%s ch1=%s ch2=%s ch3=%s", busy(s.DMAChannelsBusy[0]), busy(s.DMAChannelsBusy[1]), busy(s.DMAChannelsBusy[2]), busy(s.DMAChannelsBusy[3]))
	put("pending IRQs  %014b", s.PendingIRQs)
}

func thumbLabel(thumb bool) string {
	if thumb {
		return "Thumb"
	}
	return "ARM"
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func busy(b bool) string {
	if b {
		return "busy"
	}
	return "idle"
}

func (f *Frontend) Cleanup() error {
	if f.screen != nil {
		f.screen.Fini()
	}
	return nil
}
