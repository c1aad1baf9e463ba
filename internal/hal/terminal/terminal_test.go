package terminal

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"

	"github.com/kapitanov/chip8/internal/runner"
	"github.com/kapitanov/chip8/internal/vm"
)

func TestRenderHalfBlocks(t *testing.T) {
	var d vm.Display
	// (0,0) top only, (1,1) bottom only, (2,0)+(2,1) both
	d.Draw(0, 0, []uint8{0xA0, 0x60})

	var out bytes.Buffer
	term := newTerminal(&out, nil)
	assert.NoError(t, term.Draw(&d))

	frame := out.String()
	assert.True(t, strings.HasPrefix(frame, "\x1b[H"))

	lines := strings.Split(strings.TrimPrefix(frame, "\x1b[H"), "\r\n")
	assert.Equal(t, Rows+1, len(lines))

	want := "▀▄█" + strings.Repeat(" ", Columns-3)
	if diff := cmp.Diff(want, lines[0]); diff != "" {
		t.Errorf("first row (-want, +got)\n%s", diff)
	}
	assert.Equal(t, strings.Repeat(" ", Columns), lines[1])
}

type keyLog struct {
	down []vm.Key
	up   []vm.Key
}

func (l *keyLog) keyDown(k vm.Key) { l.down = append(l.down, k) }
func (l *keyLog) keyUp(k vm.Key)   { l.up = append(l.up, k) }

func TestReadInputHoldsKeys(t *testing.T) {
	input := make(chan byte, 8)
	term := newTerminal(&bytes.Buffer{}, input)
	log := &keyLog{}

	input <- 'W'
	assert.NoError(t, term.ReadInput(log.keyDown, log.keyUp))
	if diff := cmp.Diff([]vm.Key{vm.Key5}, log.down); diff != "" {
		t.Errorf("(-want, +got)\n%s", diff)
	}

	// auto repeat keeps the key held without a second press
	input <- 'w'
	assert.NoError(t, term.ReadInput(log.keyDown, log.keyUp))
	assert.Equal(t, 1, len(log.down))

	for i := 0; i < holdFrames; i++ {
		assert.NoError(t, term.ReadInput(log.keyDown, log.keyUp))
	}
	if diff := cmp.Diff([]vm.Key{vm.Key5}, log.up); diff != "" {
		t.Errorf("(-want, +got)\n%s", diff)
	}
}

func TestReadInputControlKeys(t *testing.T) {
	input := make(chan byte, 8)
	term := newTerminal(&bytes.Buffer{}, input)
	log := &keyLog{}

	input <- backspace
	assert.True(t, errors.Is(term.ReadInput(log.keyDown, log.keyUp), runner.ErrReboot))

	input <- ctrlC
	assert.True(t, errors.Is(term.ReadInput(log.keyDown, log.keyUp), runner.ErrQuit))

	close(input)
	assert.True(t, errors.Is(term.ReadInput(log.keyDown, log.keyUp), runner.ErrQuit))
}
