package hal

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/kapitanov/chip8/internal/runner"
	"github.com/kapitanov/chip8/internal/vm"
)

const (
	WindowWidth  = 1024
	WindowHeight = 512
)

var _ runner.HAL = (*HAL)(nil)

// HAL is the SDL window frontend.
type HAL struct {
	window          *sdl.Window
	renderer        *sdl.Renderer
	texture         *sdl.Texture
	backBuffer      []uint32
	backBufferPitch int
	pacer           *runner.Pacer
}

func New() (*HAL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return nil, fmt.Errorf("failed to init sdl: %w", err)
	}

	window, err := sdl.CreateWindow("CHIP-8", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, WindowWidth, WindowHeight, sdl.WINDOW_SHOWN)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl window: %w", err)
	}
	slog.Debug("hal: create window")

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl renderer: %w", err)
	}
	err = renderer.SetLogicalSize(WindowWidth, WindowHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to resize sdl renderer: %w", err)
	}
	slog.Debug("hal: create renderer")

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING, vm.ScreenWidth, vm.ScreenHeight)
	if err != nil {
		return nil, fmt.Errorf("failed to create sdl texture: %w", err)
	}
	slog.Debug("hal: create texture")

	return &HAL{
		window:          window,
		renderer:        renderer,
		texture:         texture,
		backBuffer:      make([]uint32, vm.ScreenWidth*vm.ScreenHeight),
		backBufferPitch: int(vm.ScreenWidth) * int(unsafe.Sizeof(uint32(0))),
		pacer:           runner.NewPacer(),
	}, nil
}

func (hal *HAL) Shutdown() {
	if err := hal.texture.Destroy(); err != nil {
		slog.Error("failed to destroy sdl texture", "err", err)
	}

	if err := hal.renderer.Destroy(); err != nil {
		slog.Error("failed to destroy sdl renderer", "err", err)
	}

	if err := hal.window.Destroy(); err != nil {
		slog.Error("failed to destroy sdl window", "err", err)
	}

	sdl.Quit()
}

func (hal *HAL) ReadInput(keyDown func(vm.Key), keyUp func(vm.Key)) error {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch e.GetType() {
		case sdl.QUIT:
			slog.Debug("hal: exit requested")
			return runner.ErrQuit

		case sdl.KEYDOWN:
			ke := e.(*sdl.KeyboardEvent)
			if ke.Repeat != 0 {
				continue
			}
			if err := hal.processKeyDown(ke, keyDown); err != nil {
				return err
			}

		case sdl.KEYUP:
			hal.processKeyUp(e.(*sdl.KeyboardEvent), keyUp)
		}
	}

	return nil
}

func (hal *HAL) processKeyDown(e *sdl.KeyboardEvent, callback func(vm.Key)) error {
	switch e.Keysym.Scancode {
	case sdl.SCANCODE_BACKSPACE:
		slog.Debug("hal: reboot requested")
		return runner.ErrReboot
	case sdl.SCANCODE_ESCAPE:
		slog.Debug("hal: exit requested")
		return runner.ErrQuit
	}

	if key, ok := keyMap[e.Keysym.Scancode]; ok {
		callback(key)
	}

	return nil
}

func (hal *HAL) processKeyUp(e *sdl.KeyboardEvent, callback func(vm.Key)) {
	if key, ok := keyMap[e.Keysym.Scancode]; ok {
		callback(key)
	}
}

// Physical                Logical
// ================        =================
// | 1 | 2 | 3 | 4 |       | 1 | 2 | 3 | C |
// | q | w | e | r |       | 4 | 5 | 6 | D |
// | a | s | d | f |  <=>  | 7 | 8 | 9 | E |
// | z | x | c | v |       | A | 0 | B | F |
// ================        =================
var keyMap = map[sdl.Scancode]vm.Key{
	sdl.SCANCODE_X: vm.Key0,
	sdl.SCANCODE_1: vm.Key1,
	sdl.SCANCODE_2: vm.Key2,
	sdl.SCANCODE_3: vm.Key3,
	sdl.SCANCODE_Q: vm.Key4,
	sdl.SCANCODE_W: vm.Key5,
	sdl.SCANCODE_E: vm.Key6,
	sdl.SCANCODE_A: vm.Key7,
	sdl.SCANCODE_S: vm.Key8,
	sdl.SCANCODE_D: vm.Key9,
	sdl.SCANCODE_Z: vm.KeyA,
	sdl.SCANCODE_C: vm.KeyB,
	sdl.SCANCODE_4: vm.KeyC,
	sdl.SCANCODE_R: vm.KeyD,
	sdl.SCANCODE_F: vm.KeyE,
	sdl.SCANCODE_V: vm.KeyF,
}

func (hal *HAL) Draw(display *vm.Display) error {
	const (
		bgColor = uint32(0x000000)
		fgColor = uint32(0xbea700)
	)

	pixels := display.Pixels()
	for i, on := range pixels {
		color := bgColor
		if on {
			color = fgColor
		}

		hal.backBuffer[i] = color
	}

	backBufferPtr := unsafe.Pointer(&hal.backBuffer[0])
	if err := hal.texture.Update(nil, backBufferPtr, hal.backBufferPitch); err != nil {
		return fmt.Errorf("failed to update sdl texture: %w", err)
	}

	if err := hal.renderer.Clear(); err != nil {
		return fmt.Errorf("failed to clear sdl renderer: %w", err)
	}

	if err := hal.renderer.Copy(hal.texture, nil, nil); err != nil {
		return fmt.Errorf("failed to copy sdl texture to renderer: %w", err)
	}

	hal.renderer.Present()
	return nil
}

func (hal *HAL) WaitForNextFrame() error {
	hal.pacer.Wait()
	return nil
}
