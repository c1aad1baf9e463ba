package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/sqweek/dialog"

	"github.com/kapitanov/chip8/internal/hal"
	"github.com/kapitanov/chip8/internal/hal/terminal"
	"github.com/kapitanov/chip8/internal/runner"
	"github.com/kapitanov/chip8/internal/vm"
)

type frontend interface {
	runner.HAL
	Shutdown()
}

func main() {
	cmd := &cobra.Command{
		Use:           fmt.Sprintf("%s [PATH_TO_ROM_FILE]", filepath.Base(os.Args[0])),
		Short:         "Run emulator",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	verbose := cmd.Flags().BoolP("verbose", "v", false, "enable verbose logging")
	speed := cmd.Flags().IntP("speed", "s", runner.DefaultSpeed, "instructions per frame")
	seed := cmd.Flags().Uint64("seed", 0, "random seed for CXNN, 0 uses a random seed")
	useTerminal := cmd.Flags().BoolP("terminal", "t", false, "render into the terminal instead of a window")

	cmd.RunE = func(_ *cobra.Command, args []string) error {
		loggerOpts := &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}
		if *verbose {
			loggerOpts.Level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, loggerOpts)))

		if *speed < 1 || *speed > runner.MaxSpeed {
			return fmt.Errorf("speed must be between 1 and %d, got %d", runner.MaxSpeed, *speed)
		}

		var path string
		if len(args) > 0 {
			path = args[0]
		} else {
			var err error
			path, err = dialog.File().Filter("CHIP-8 ROM", "ch8").Title("Load ROM").Load()
			if errors.Is(err, dialog.ErrCancelled) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("unable to select rom: %w", err)
			}
		}

		bs, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to load file %q: %w", path, err)
		}

		machine := vm.New()
		if *seed != 0 {
			machine.SetRandom(vm.NewSeededSource(*seed))
		}

		h, err := newFrontend(*useTerminal)
		if err != nil {
			return fmt.Errorf("unable to initialize hal: %w", err)
		}
		defer h.Shutdown()

		r := runner.New(machine, h, bs, *speed)

		for {
			err = r.Run()

			if errors.Is(err, runner.ErrQuit) {
				return nil
			}

			if errors.Is(err, runner.ErrReboot) {
				slog.Info("reboot")
				continue
			}

			return err
		}
	}

	cmd.SetArgs(os.Args[1:])
	if err := cmd.Execute(); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func newFrontend(useTerminal bool) (frontend, error) {
	if useTerminal {
		return terminal.New()
	}
	return hal.New()
}
