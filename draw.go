package st7735

import (
	"errors"
	"image"
	"image/color"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/display"
	"periph.io/x/devices/v3/st7735/gfx"
	"periph.io/x/devices/v3/st7735/image565"
	"tinygo.org/x/drivers"
)

var (
	_ gfx.Canvas        = &Dev{}
	_ display.Drawer    = &Dev{}
	_ drivers.Displayer = &Dev{}
)

// DrawPixel sets the pixel at (x, y) to c.
func (d *Dev) DrawPixel(x, y int, c image565.Color) error {
	if d.halted {
		return ErrHalted
	}
	if err := d.CheckRange(x, y); err != nil {
		return err
	}
	if err := d.setWindow(x, x, y, y); err != nil {
		return err
	}
	return d.streamColor(c, 1)
}

// ClearScreen fills the whole screen with c and makes it the background color.
func (d *Dev) ClearScreen(c image565.Color) error {
	if d.halted {
		return ErrHalted
	}
	w, h := d.rect.Dx(), d.rect.Dy()
	if err := d.setWindow(0, w-1, 0, h-1); err != nil {
		return err
	}
	if err := d.streamColor(c, w*h); err != nil {
		return err
	}
	d.bg = c
	return nil
}

// Background returns the color set by the last ClearScreen.
func (d *Dev) Background() image565.Color {
	return d.bg
}

// FillRect fills the rectangle with corners (x0, y0) and (x1, y1) inclusive.
// Corners may be given in any order.
func (d *Dev) FillRect(x0, y0, x1, y1 int, c image565.Color) error {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if err := d.SetWindow(x0, x1, y0, y1); err != nil {
		return err
	}
	return d.streamColor(c, (x1-x0+1)*(y1-y0+1))
}

// HLine draws a horizontal line from x0 to x1 inclusive on row y.
func (d *Dev) HLine(x0, x1, y int, c image565.Color) error {
	return d.FillRect(x0, y, x1, y, c)
}

// VLine draws a vertical line from y0 to y1 inclusive on column x.
func (d *Dev) VLine(x, y0, y1 int, c image565.Color) error {
	return d.FillRect(x, y0, x, y1, c)
}

// DrawLine draws a line between two on-screen points.
func (d *Dev) DrawLine(x0, y0, x1, y1 int, c image565.Color) error {
	if d.halted {
		return ErrHalted
	}
	return gfx.Line(d, x0, y0, x1, y1, c)
}

// DrawRect draws the outline of a rectangle.
func (d *Dev) DrawRect(x0, y0, x1, y1 int, c image565.Color) error {
	if d.halted {
		return ErrHalted
	}
	return gfx.Rect(d, x0, y0, x1, y1, c)
}

// SetPosition moves the text cursor.
func (d *Dev) SetPosition(x, y int) error {
	return d.text.SetPosition(x, y)
}

// Position returns the text cursor.
func (d *Dev) Position() (x, y int) {
	return d.text.Position()
}

// DrawChar draws ch at the text cursor and advances it.
func (d *Dev) DrawChar(ch byte, c image565.Color, size Size) error {
	if d.halted {
		return ErrHalted
	}
	return d.text.DrawChar(ch, c, size)
}

// DrawString draws s at the text cursor, without wrapping. Nothing is drawn
// if s does not fit.
func (d *Dev) DrawString(s string, c image565.Color, size Size) error {
	if d.halted {
		return ErrHalted
	}
	return d.text.DrawString(s, c, size)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image565.Model
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw draws an image onto the display.
// The dst rectangle specifies the destination region on the display.
// The src image is positioned at src point sp within the destination.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return ErrHalted
	}

	// Clip to display bounds
	r := dst.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	sp = sp.Add(r.Min.Sub(dst.Min))

	pixels := toWire(r, src, sp)
	if err := d.setWindow(r.Min.X, r.Max.X-1, r.Min.Y, r.Max.Y-1); err != nil {
		return err
	}
	return d.writeRAM(pixels)
}

// toWire converts the part of src that lands on r into RAM order.
func toWire(r image.Rectangle, src image.Image, sp image.Point) []byte {
	w := r.Dx()
	out := make([]byte, 2*w*r.Dy())

	// Fast path: rows can be copied from an RGB565 source
	if img, ok := src.(*image565.Image); ok {
		sr := image.Rectangle{Min: sp, Max: sp.Add(r.Size())}
		if sr.In(img.Rect) {
			for y := 0; y < r.Dy(); y++ {
				i := img.PixOffset(sp.X, sp.Y+y)
				copy(out[2*w*y:2*w*(y+1)], img.Pix[i:i+2*w])
			}
			return out
		}
	}

	i := 0
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < w; x++ {
			c := image565.Model.Convert(src.At(sp.X+x, sp.Y+y)).(image565.Color)
			out[i], out[i+1] = c.Bytes()
			i += 2
		}
	}
	return out
}

// Size returns the screen size, for TinyGo drawing libraries.
func (d *Dev) Size() (x, y int16) {
	return int16(d.rect.Dx()), int16(d.rect.Dy())
}

// SetPixel sets a single pixel, for TinyGo drawing libraries. Off-screen
// pixels are ignored; other failures are logged since the interface has no
// error return.
func (d *Dev) SetPixel(x, y int16, c color.RGBA) {
	err := d.DrawPixel(int(x), int(y), image565.RGB(c.R, c.G, c.B))
	if err != nil && !errors.Is(err, ErrOutOfRange) {
		d.log.WithFields(logrus.Fields{"x": x, "y": y}).WithError(err).Error("st7735: set pixel")
	}
}

// Display is a no-op: drawing goes straight to the frame memory.
func (d *Dev) Display() error {
	return nil
}
