// Package gfx draws lines and bitmap text on any pixel surface that can plot
// a single pixel and report whether a coordinate is on screen.
package gfx

import (
	"errors"

	"periph.io/x/devices/v3/st7735/image565"
)

var (
	// ErrOutOfRange is returned when a coordinate, window, scale or character
	// code falls outside what the screen or the font can represent.
	ErrOutOfRange = errors.New("gfx: out of range")
	// ErrInvalidWindow is returned when a window start exceeds its end.
	ErrInvalidWindow = errors.New("gfx: invalid window")
)

// Canvas is the surface the graphics primitives draw on.
type Canvas interface {
	// DrawPixel sets the pixel at (x, y). It returns ErrOutOfRange without
	// side effects when (x, y) is off screen.
	DrawPixel(x, y int, c image565.Color) error
	// CheckRange returns ErrOutOfRange when (x, y) is off screen.
	CheckRange(x, y int) error
}

// Line draws a line from (x0, y0) to (x1, y1) inclusive using Bresenham's
// algorithm. Both endpoints are checked before anything is drawn.
func Line(cv Canvas, x0, y0, x1, y1 int, c image565.Color) error {
	if err := cv.CheckRange(x0, y0); err != nil {
		return err
	}
	if err := cv.CheckRange(x1, y1); err != nil {
		return err
	}

	dx, sx := abs(x1-x0), step(x0, x1)
	dy, sy := abs(y1-y0), step(y0, y1)
	e := dx - dy

	if err := cv.DrawPixel(x0, y0, c); err != nil {
		return err
	}
	for x0 != x1 || y0 != y1 {
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x0 += sx
		}
		if e2 < dx {
			e += dx
			y0 += sy
		}
		if err := cv.DrawPixel(x0, y0, c); err != nil {
			return err
		}
	}
	return nil
}

// Rect draws the outline of the rectangle with corners (x0, y0) and (x1, y1).
func Rect(cv Canvas, x0, y0, x1, y1 int, c image565.Color) error {
	if err := cv.CheckRange(x0, y0); err != nil {
		return err
	}
	if err := cv.CheckRange(x1, y1); err != nil {
		return err
	}
	edges := [4][4]int{
		{x0, y0, x1, y0},
		{x1, y0, x1, y1},
		{x1, y1, x0, y1},
		{x0, y1, x0, y0},
	}
	for _, e := range edges {
		if err := Line(cv, e[0], e[1], e[2], e[3], c); err != nil {
			return err
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// step is -1 when walking from a to b decreases, +1 otherwise.
func step(a, b int) int {
	if a > b {
		return -1
	}
	return 1
}
