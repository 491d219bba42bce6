package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/gba-emu/go-gba/gba"
	"github.com/gba-emu/go-gba/gba/frontend"
	"github.com/gba-emu/go-gba/gba/frontend/terminal"
)

func main() {
	app := cli.NewApp()
	app.Name = "gba"
	app.Description = "A Game Boy Advance core (CPU/bus/DMA) driver"
	app.Usage = "gba [options] <ROM file>"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "bios",
			Usage: "Path to a BIOS image (optional; omit with --skip-bios)",
		},
		cli.BoolFlag{
			Name:  "skip-bios",
			Usage: "Jump straight to the cartridge entry point instead of running the BIOS boot sequence",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (0 = interactive terminal dashboard)",
			Value: 0,
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "One of debug, info, warn, error",
			Value: "info",
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gba: fatal error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if err := configureLogging(c.String("log-level")); err != nil {
		return err
	}

	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() > 0 {
			romPath = c.Args().Get(0)
		} else {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
	}

	emu := gba.New()
	if err := emu.LoadROMFile(romPath); err != nil {
		return err
	}

	if biosPath := c.String("bios"); biosPath != "" {
		data, err := os.ReadFile(biosPath)
		if err != nil {
			return err
		}
		emu.LoadBIOS(data)
	}

	emu.Reset(c.Bool("skip-bios"))

	var fe frontend.Frontend
	if frames := c.Int("frames"); frames > 0 {
		fe = frontend.NewHeadless(frames)
		slog.Info("gba: running headless", "rom", romPath, "frames", frames)
	} else {
		fe = terminal.New()
	}

	if err := fe.Init(); err != nil {
		return err
	}
	defer fe.Cleanup()

	for {
		keepRunning, err := fe.Update(emu)
		if err != nil {
			return err
		}
		if !keepRunning {
			break
		}
	}

	return nil
}

func configureLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}
