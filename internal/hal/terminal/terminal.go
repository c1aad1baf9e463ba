// Package terminal renders the display into a text terminal with half-block
// characters and reads the keypad from raw stdin.
package terminal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/kapitanov/chip8/internal/runner"
	"github.com/kapitanov/chip8/internal/vm"
)

const (
	// Columns and Rows are the terminal cells needed for one frame.
	Columns = vm.ScreenWidth
	Rows    = vm.ScreenHeight / 2

	// A terminal only reports key presses, so a key counts as held for
	// this many frames after its last byte arrived.
	holdFrames = 6

	ctrlC     = 0x03
	backspace = 0x7F
	ctrlH     = 0x08
)

var ErrTooSmall = errors.New("terminal too small")

var _ runner.HAL = (*Terminal)(nil)

type Terminal struct {
	fd       int
	oldState *term.State
	out      io.Writer
	input    <-chan byte
	held     [vm.KeyCount]int
	pacer    *runner.Pacer
}

// New switches stdin to raw mode and clears the screen. Shutdown restores
// the terminal.
func New() (*Terminal, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}

	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return nil, fmt.Errorf("unable to read terminal size: %w", err)
	}
	if w < Columns || h < Rows {
		return nil, fmt.Errorf("%w: %dx%d, need %dx%d", ErrTooSmall, w, h, Columns, Rows)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("unable to set raw mode: %w", err)
	}
	slog.Debug("terminal: raw mode", "cols", w, "rows", h)

	t := newTerminal(os.Stdout, readStdin())
	t.fd = fd
	t.oldState = oldState

	// clear screen, hide cursor
	fmt.Fprint(t.out, "\x1b[2J\x1b[?25l")
	return t, nil
}

func newTerminal(out io.Writer, input <-chan byte) *Terminal {
	return &Terminal{
		out:   out,
		input: input,
		pacer: runner.NewPacer(),
	}
}

// readStdin feeds stdin bytes to the returned channel. The reader blocks in
// Read and only ends with the process.
func readStdin() <-chan byte {
	ch := make(chan byte, 64)

	go func() {
		defer close(ch)
		buf := make([]byte, 16)

		for {
			n, err := os.Stdin.Read(buf)
			for _, b := range buf[:n] {
				ch <- b
			}
			if err != nil {
				return
			}
		}
	}()

	return ch
}

func (t *Terminal) Shutdown() {
	// show cursor, move below the frame
	fmt.Fprintf(t.out, "\x1b[?25h\x1b[%d;1H\r\n", Rows+1)

	if t.oldState != nil {
		if err := term.Restore(t.fd, t.oldState); err != nil {
			slog.Error("failed to restore terminal", "err", err)
		}
	}
}

func (t *Terminal) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	for k := range t.held {
		if t.held[k] == 0 {
			continue
		}

		t.held[k]--
		if t.held[k] == 0 {
			keyUp(vm.Key(k))
		}
	}

	for {
		select {
		case b, ok := <-t.input:
			if !ok {
				return runner.ErrQuit
			}
			if err := t.processByte(b, keyDown); err != nil {
				return err
			}

		default:
			return nil
		}
	}
}

func (t *Terminal) processByte(b byte, keyDown func(vm.Key)) error {
	switch b {
	case ctrlC:
		slog.Debug("terminal: exit requested")
		return runner.ErrQuit
	case backspace, ctrlH:
		slog.Debug("terminal: reboot requested")
		return runner.ErrReboot
	}

	key, ok := keyMap[toLower(b)]
	if !ok {
		return nil
	}

	if t.held[key] == 0 {
		keyDown(key)
	}
	t.held[key] = holdFrames
	return nil
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// Same physical layout as the window frontend.
var keyMap = map[byte]vm.Key{
	'x': vm.Key0,
	'1': vm.Key1,
	'2': vm.Key2,
	'3': vm.Key3,
	'q': vm.Key4,
	'w': vm.Key5,
	'e': vm.Key6,
	'a': vm.Key7,
	's': vm.Key8,
	'd': vm.Key9,
	'z': vm.KeyA,
	'c': vm.KeyB,
	'4': vm.KeyC,
	'r': vm.KeyD,
	'f': vm.KeyE,
	'v': vm.KeyF,
}

func (t *Terminal) Draw(display *vm.Display) error {
	if _, err := io.WriteString(t.out, render(display)); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// render packs two display rows into each text row.
func render(display *vm.Display) string {
	var sb strings.Builder
	sb.WriteString("\x1b[H")

	for y := 0; y < vm.ScreenHeight; y += 2 {
		for x := 0; x < vm.ScreenWidth; x++ {
			top := display.Pixel(x, y)
			bottom := display.Pixel(x, y+1)

			switch {
			case top && bottom:
				sb.WriteRune('█')
			case top:
				sb.WriteRune('▀')
			case bottom:
				sb.WriteRune('▄')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteString("\r\n")
	}

	return sb.String()
}

func (t *Terminal) WaitForNextFrame() error {
	t.pacer.Wait()
	return nil
}
