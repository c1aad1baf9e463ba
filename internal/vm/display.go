package vm

const (
	ScreenWidth  = 64
	ScreenHeight = 32

	spriteWidth = 8
)

// Display is the 64x32 monochrome frame buffer, row-major.
//
// The redraw flag is raised by every operation that may change a pixel and
// is lowered only by the consumer once it has presented the frame.
type Display struct {
	pixels [ScreenWidth * ScreenHeight]bool
	redraw bool
}

func (d *Display) Clear() {
	for i := range d.pixels {
		d.pixels[i] = false
	}
	d.redraw = true
}

// Draw XORs an 8-pixel-wide sprite onto the display, one row per byte with
// the most significant bit leftmost. The origin wraps around the screen,
// pixels that extend past the right or bottom edge are dropped. It reports
// whether any set pixel was turned off.
func (d *Display) Draw(x, y uint8, rows []uint8) bool {
	originX := int(x) % ScreenWidth
	originY := int(y) % ScreenHeight

	collision := false
	for row, bits := range rows {
		py := originY + row
		if py >= ScreenHeight {
			break
		}

		for col := 0; col < spriteWidth; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}

			px := originX + col
			if px >= ScreenWidth {
				break
			}

			i := py*ScreenWidth + px
			if d.pixels[i] {
				collision = true
			}
			d.pixels[i] = !d.pixels[i]
		}
	}

	d.redraw = true
	return collision
}

// Pixel reports the state of (x, y). Out of range coordinates read as unset.
func (d *Display) Pixel(x, y int) bool {
	if x < 0 || x >= ScreenWidth || y < 0 || y >= ScreenHeight {
		return false
	}
	return d.pixels[y*ScreenWidth+x]
}

// Pixels returns a copy of the frame buffer.
func (d *Display) Pixels() [ScreenWidth * ScreenHeight]bool {
	return d.pixels
}

func (d *Display) Redraw() bool { return d.redraw }

func (d *Display) ClearRedraw() { d.redraw = false }

func (d *Display) reset() {
	d.pixels = [ScreenWidth * ScreenHeight]bool{}
	d.redraw = false
}
