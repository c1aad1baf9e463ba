// Package runner drives a CHIP-8 machine at 60 frames per second on top of
// a HAL frontend.
package runner

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kapitanov/chip8/internal/vm"
)

const (
	FramesPerSecond = 60

	DefaultSpeed = 10
	MaxSpeed     = 100
)

var (
	ErrReboot = errors.New("reboot")
	ErrQuit   = errors.New("quit")
)

// HAL is the frontend the runner talks to once per frame.
type HAL interface {
	ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error
	Draw(display *vm.Display) error
	WaitForNextFrame() error
}

// Stats are the instruction and redraw rates over the last full second.
type Stats struct {
	OpsPerSecond     int
	RedrawsPerSecond int
}

type Runner struct {
	machine *vm.VM
	hal     HAL
	rom     []byte
	speed   int

	keypad keypad

	frames int
	ops    int
	draws  int
	stats  Stats
}

// New returns a runner that executes speed instructions per frame.
func New(machine *vm.VM, hal HAL, rom []byte, speed int) *Runner {
	return &Runner{
		machine: machine,
		hal:     hal,
		rom:     rom,
		speed:   speed,
		keypad:  newKeypad(),
	}
}

func (r *Runner) Stats() Stats {
	return r.stats
}

// Run boots the ROM and runs frames until the HAL reports an error such as
// ErrQuit or ErrReboot. A fatal machine error leaves the last frame on
// screen and waits for the user to reboot or quit.
func (r *Runner) Run() error {
	if err := r.boot(); err != nil {
		return err
	}

	for {
		err := r.runFrame()
		if err == nil {
			continue
		}

		if fault := r.machine.Fault(); fault != nil {
			slog.Error("machine halted", "err", fault)
			return r.waitForReboot()
		}

		return err
	}
}

func (r *Runner) boot() error {
	r.machine.Reset()
	r.keypad = newKeypad()

	slog.Info("load program", "at", fmt.Sprintf("0x%04x", vm.ProgramStart), "n", len(r.rom))
	if err := r.machine.LoadROM(r.rom); err != nil {
		return fmt.Errorf("unable to load program: %w", err)
	}

	return r.hal.Draw(r.machine.Display())
}

func (r *Runner) runFrame() error {
	if err := r.hal.ReadInput(r.keypad.press, r.keypad.release); err != nil {
		return err
	}

	for i := 0; i < r.speed; i++ {
		result, err := r.machine.Tick(r.keypad.current())
		if err != nil {
			return err
		}
		r.ops++

		if result == vm.TickAwaitingKey {
			break
		}
	}

	r.machine.DecayTimers()

	if r.machine.Redraw() {
		if err := r.hal.Draw(r.machine.Display()); err != nil {
			return err
		}
		r.machine.ClearRedraw()
		r.draws++
	}

	r.countFrame()

	return r.hal.WaitForNextFrame()
}

func (r *Runner) countFrame() {
	r.frames++
	if r.frames < FramesPerSecond {
		return
	}

	r.stats = Stats{
		OpsPerSecond:     r.ops,
		RedrawsPerSecond: r.draws,
	}
	slog.Debug("stats", "ops/s", r.stats.OpsPerSecond, "redraws/s", r.stats.RedrawsPerSecond)

	r.frames = 0
	r.ops = 0
	r.draws = 0
}

func (r *Runner) waitForReboot() error {
	for {
		if err := r.hal.ReadInput(func(_ vm.Key) {}, func(_ vm.Key) {}); err != nil {
			return err
		}

		if err := r.hal.WaitForNextFrame(); err != nil {
			return err
		}
	}
}
