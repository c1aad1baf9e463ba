package runner

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/kapitanov/chip8/internal/vm"
)

// fakeHAL replays scripted key events and quits after a number of frames.
type fakeHAL struct {
	frames   int
	quitAt   int
	presses  map[int][]vm.Key
	releases map[int][]vm.Key
	draws    int
	lastDraw [vm.ScreenWidth * vm.ScreenHeight]bool
	quitErr  error
}

func (f *fakeHAL) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	if f.frames >= f.quitAt {
		if f.quitErr != nil {
			return f.quitErr
		}
		return ErrQuit
	}

	for _, k := range f.presses[f.frames] {
		keyDown(k)
	}
	for _, k := range f.releases[f.frames] {
		keyUp(k)
	}
	return nil
}

func (f *fakeHAL) Draw(display *vm.Display) error {
	f.draws++
	f.lastDraw = display.Pixels()
	return nil
}

func (f *fakeHAL) WaitForNextFrame() error {
	f.frames++
	return nil
}

func romOf(words ...uint16) []byte {
	var rom []byte
	for _, w := range words {
		rom = append(rom, uint8(w>>8), uint8(w))
	}
	return rom
}

func newMachine() *vm.VM {
	machine := vm.New()
	machine.SetObserver(nil)
	machine.SetRandom(vm.NewSeededSource(7))
	return machine
}

func TestRunExecutesSpeedInstructionsPerFrame(t *testing.T) {
	// 7001 loops on itself: V0 counts executed instructions
	machine := newMachine()
	hal := &fakeHAL{quitAt: 3}
	r := New(machine, hal, romOf(0x7001, 0x1200), 4)

	err := r.Run()
	assert.True(t, errors.Is(err, ErrQuit))
	// 3 frames x 4 instructions, half of them are the add
	assert.Equal(t, uint8(6), machine.Register(0))
}

func TestRunDecaysTimersOncePerFrame(t *testing.T) {
	machine := newMachine()
	hal := &fakeHAL{quitAt: 5}
	// V0 = 30; delay = V0; spin
	r := New(machine, hal, romOf(0x601E, 0xF015, 0x1204), 20)

	assert.True(t, errors.Is(r.Run(), ErrQuit))
	assert.Equal(t, uint8(25), machine.DelayTimer())
}

func TestRunForwardsRedraws(t *testing.T) {
	machine := newMachine()
	hal := &fakeHAL{quitAt: 2}
	// I = glyph 0; draw at (0,0); spin
	r := New(machine, hal, romOf(0xA000, 0xD005, 0x1204), 3)

	assert.True(t, errors.Is(r.Run(), ErrQuit))
	// boot frame plus the draw
	assert.Equal(t, 2, hal.draws)
	assert.True(t, hal.lastDraw[0])
	assert.False(t, machine.Redraw())
}

func TestRunWaitsForKey(t *testing.T) {
	machine := newMachine()
	hal := &fakeHAL{
		quitAt:   4,
		presses:  map[int][]vm.Key{2: {vm.Key9}},
		releases: map[int][]vm.Key{3: {vm.Key9}},
	}
	r := New(machine, hal, romOf(0xF30A, 0x7401, 0x1202), 10)

	assert.True(t, errors.Is(r.Run(), ErrQuit))
	assert.Equal(t, uint8(9), machine.Register(3))
	assert.True(t, machine.Register(4) > 0)
}

func TestRunHaltsOnFatalError(t *testing.T) {
	machine := newMachine()
	hal := &fakeHAL{quitAt: 10, quitErr: ErrReboot}
	r := New(machine, hal, romOf(0x00EE), 1)

	err := r.Run()
	assert.True(t, errors.Is(err, ErrReboot))
	assert.True(t, errors.Is(machine.Fault(), vm.ErrStackUnderflow))
	assert.Equal(t, 10, hal.frames)
}

func TestRunRejectsOversizedROM(t *testing.T) {
	machine := newMachine()
	hal := &fakeHAL{quitAt: 1}
	r := New(machine, hal, make([]byte, vm.MemorySize), 1)

	err := r.Run()
	assert.True(t, errors.Is(err, vm.ErrROMTooLarge))
}

func TestStatsPublishedEverySecond(t *testing.T) {
	machine := newMachine()
	hal := &fakeHAL{quitAt: FramesPerSecond}
	r := New(machine, hal, romOf(0x1200), 5)

	assert.True(t, errors.Is(r.Run(), ErrQuit))
	assert.Equal(t, Stats{OpsPerSecond: 5 * FramesPerSecond, RedrawsPerSecond: 0}, r.Stats())
}
