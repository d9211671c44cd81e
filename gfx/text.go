package gfx

import (
	"errors"

	"periph.io/x/devices/v3/st7735/font"
	"periph.io/x/devices/v3/st7735/image565"
)

// Size scales each font pixel into an X by Y block.
type Size struct {
	X, Y int
}

// Font sizes.
var (
	X1 = Size{X: 1, Y: 1} // Normal
	X2 = Size{X: 1, Y: 2} // Double height
	X3 = Size{X: 2, Y: 2} // Double height and width
)

// maxScale bounds each Size component so that one scaled glyph cell still
// fits within the largest ST7735 frame memory side of 162 pixels.
const maxScale = 162 / (font.Width + font.Spacing)

func (s Size) valid() bool {
	return s.X > 0 && s.Y > 0 && s.X <= maxScale && s.Y <= maxScale
}

// advance is the cursor step after one character.
func (s Size) advance() int {
	return (font.Width + font.Spacing) * s.X
}

// Text renders the 5x8 font on a Canvas and tracks the text cursor.
//
// The zero value is not usable; create one with NewText.
type Text struct {
	cv   Canvas
	x, y int
}

// NewText returns a Text drawing on cv with the cursor at the origin.
func NewText(cv Canvas) *Text {
	return &Text{cv: cv}
}

// Position returns the text cursor.
func (t *Text) Position() (x, y int) {
	return t.x, t.y
}

// SetPosition moves the text cursor. The cursor is left unchanged when (x, y)
// is off screen.
func (t *Text) SetPosition(x, y int) error {
	if err := t.cv.CheckRange(x, y); err != nil {
		return err
	}
	t.x, t.y = x, y
	return nil
}

// DrawChar draws ch at the cursor and advances the cursor by one character
// cell. Glyph pixels falling off screen are skipped.
func (t *Text) DrawChar(ch byte, c image565.Color, size Size) error {
	g, ok := font.Lookup(ch)
	if !ok || !size.valid() {
		return ErrOutOfRange
	}
	for col := font.Width - 1; col >= 0; col-- {
		for row := font.Height - 1; row >= 0; row-- {
			if !g.Set(col, row) {
				continue
			}
			if err := t.block(t.x+col*size.X, t.y+row*size.Y, size, c); err != nil {
				return err
			}
		}
	}
	t.x += size.advance()
	return nil
}

// block plots one scaled font pixel.
func (t *Text) block(x, y int, size Size, c image565.Color) error {
	for dy := 0; dy < size.Y; dy++ {
		for dx := 0; dx < size.X; dx++ {
			err := t.cv.DrawPixel(x+dx, y+dy, c)
			if err != nil && !errors.Is(err, ErrOutOfRange) {
				return err
			}
		}
	}
	return nil
}

// DrawString draws s left to right from the cursor, without wrapping.
//
// The whole string is checked first: its bounding box, including the
// trailing spacing column, must lie on screen and every byte must have a
// glyph. Nothing is drawn when the check fails.
func (t *Text) DrawString(s string, c image565.Color, size Size) error {
	if !size.valid() {
		return ErrOutOfRange
	}
	if len(s) == 0 {
		return nil
	}
	// Last pixel covered by the box.
	maxX := t.x + size.advance()*len(s) - 1
	maxY := t.y + font.Height*size.Y - 1
	if err := t.cv.CheckRange(maxX, maxY); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		if !font.Printable(s[i]) {
			return ErrOutOfRange
		}
	}
	for i := 0; i < len(s); i++ {
		if err := t.DrawChar(s[i], c, size); err != nil {
			return err
		}
	}
	return nil
}
