// Package st7735 controls a ST7735 TFT LCD via SPI.
//
// The ST7735 is a 262K color single-chip TFT controller with 132x162 pixels
// of frame memory. This driver runs it in 16-bit RGB565 mode.
//
// See the examples for how to use this package.
package st7735

import (
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/devices/v3/st7735/gfx"
	"periph.io/x/devices/v3/st7735/image565"
)

const (
	softwareRst   = 0x01
	sleepOut      = 0x11
	displayOff    = 0x28
	displayOn     = 0x29
	columnAddress = 0x2A
	rowAddress    = 0x2B
	memoryWrite   = 0x2C
	memoryDAC     = 0x36
	pixelFormat   = 0x3A

	// pixelFormat argument: 16 bits per pixel.
	colorMode16Bit = 0x05

	// memoryDAC argument.
	//
	//	D7  D6  D5  D4  D3  D2  D1  D0
	//	MY  MX  MV  ML RGB  MH   -   -
	//
	// 0xA0 sets MY and MV: origin top-left, rows left to right, top to
	// bottom, RGB filter order, on the 160x128 landscape panel.
	orientation = 0xA0

	// Largest panel dimension addressable by the frame memory.
	maxSide = 162

	// streamChunk is the number of bytes buffered per data frame when
	// streaming a solid color.
	streamChunk = 4096
)

var (
	// ErrOutOfRange is returned when a coordinate, window, size or character
	// code is outside the screen or font bounds.
	ErrOutOfRange = gfx.ErrOutOfRange
	// ErrInvalidWindow is returned when a window start exceeds its end.
	ErrInvalidWindow = gfx.ErrInvalidWindow
	// ErrHalted is returned by drawing calls after Halt.
	ErrHalted = errors.New("st7735: halted")
)

// Size scales the bitmap font; see gfx.Size.
type Size = gfx.Size

// Font sizes.
var (
	X1 = gfx.X1
	X2 = gfx.X2
	X3 = gfx.X3
)

// sleep is replaced in tests.
var sleep = time.Sleep

// Opts is the configuration for the ST7735 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 160, must be ≤162)
	H int // Height (default: 128, must be ≤162)

	// Optional pins
	RST gpio.PinOut // Reset pin, active low (nil if not used)
	CS  gpio.PinOut // Chip select pin, active low (nil if the SPI port drives it)

	// Background is the color the screen is cleared to by Init.
	Background image565.Color

	// Logger receives debug output. Defaults to a discarding logger.
	Logger logrus.FieldLogger
}

// command is one controller command with its argument bytes and the settle
// time to wait once it has been sent.
type command struct {
	cmd   byte
	data  []byte
	delay time.Duration
}

// initSequence follows the hardware reset and precedes the first screen clear.
var initSequence = []command{
	{cmd: softwareRst, delay: 150 * time.Millisecond},
	{cmd: sleepOut, delay: 200 * time.Millisecond},
	{cmd: pixelFormat, data: []byte{colorMode16Bit}, delay: 10 * time.Millisecond},
	{cmd: memoryDAC, data: []byte{orientation}},
	{cmd: displayOn, delay: 200 * time.Millisecond},
}

// Dev is the device handle for the ST7735 display.
type Dev struct {
	t   Transport
	rst gpio.PinOut
	log logrus.FieldLogger

	rect image.Rectangle
	bg   image565.Color
	text *gfx.Text

	halted bool
}

// NewSPI creates a new ST7735 device connected via SPI and initializes it.
//
// The SPI port is configured for 20MHz, Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (160x128 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 160, H: 128}
	}
	if dc == nil {
		return nil, errors.New("st7735: dc pin is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	c, err := p.Connect(20*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735: could not connect to device: %w", err)
	}
	return New(NewSPITransport(c, dc, opts.CS), opts)
}

// New creates a device speaking over t and initializes it.
//
// opts can be nil to use defaults (160x128 display).
func New(t Transport, opts *Opts) (*Dev, error) {
	d, err := newDev(t, opts)
	if err != nil {
		return nil, err
	}
	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

func newDev(t Transport, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{W: 160, H: 128}
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}

	d := &Dev{
		t:    t,
		rst:  opts.RST,
		log:  log,
		rect: image.Rect(0, 0, opts.W, opts.H),
		bg:   opts.Background,
	}
	d.text = gfx.NewText(d)
	return d, nil
}

func (o *Opts) validate() error {
	if o.W <= 0 || o.W > maxSide {
		return fmt.Errorf("st7735: width must be between 1 and %d", maxSide)
	}
	if o.H <= 0 || o.H > maxSide {
		return fmt.Errorf("st7735: height must be between 1 and %d", maxSide)
	}
	return nil
}

// Reset pulses the reset line. It does nothing when no reset pin is
// configured.
func (d *Dev) Reset() error {
	if d.rst == nil {
		return nil
	}
	d.log.Debug("st7735: hardware reset")
	for i, l := range []gpio.Level{gpio.High, gpio.Low, gpio.High} {
		if err := d.rst.Out(l); err != nil {
			return fmt.Errorf("st7735: failed to drive RST %s: %w", l, err)
		}
		if i < 2 {
			sleep(200 * time.Millisecond)
		}
	}
	return nil
}

// Init resets the controller, configures 16-bit color and the memory access
// order, turns the display on and clears it to the background color.
//
// Init also brings a halted device back.
func (d *Dev) Init() error {
	d.log.WithFields(logrus.Fields{
		"width":  d.rect.Dx(),
		"height": d.rect.Dy(),
	}).Debug("st7735: init")

	if err := d.Reset(); err != nil {
		return err
	}
	for _, c := range initSequence {
		if err := d.send(c); err != nil {
			return err
		}
	}
	d.halted = false
	return d.ClearScreen(d.bg)
}

// DisplayOn turns the panel output on.
func (d *Dev) DisplayOn() error {
	return d.send(command{cmd: displayOn, delay: 200 * time.Millisecond})
}

// DisplayOff turns the panel output off. Frame memory is kept.
func (d *Dev) DisplayOff() error {
	return d.send(command{cmd: displayOff, delay: 200 * time.Millisecond})
}

// Halt turns the display off.
// After calling Halt, drawing calls return ErrHalted until Init is called.
func (d *Dev) Halt() error {
	d.halted = true
	return d.DisplayOff()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("st7735.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

// SetScreenSize changes the logical screen size used for range checks.
// The text cursor returns to the origin if it falls outside the new size.
func (d *Dev) SetScreenSize(width, height int) error {
	o := Opts{W: width, H: height}
	if err := o.validate(); err != nil {
		return err
	}
	d.rect = image.Rect(0, 0, width, height)
	if x, y := d.text.Position(); d.CheckRange(x, y) != nil {
		return d.text.SetPosition(0, 0)
	}
	return nil
}

// CheckRange returns ErrOutOfRange unless (x, y) is on screen.
func (d *Dev) CheckRange(x, y int) error {
	if x < 0 || y < 0 || x >= d.rect.Dx() || y >= d.rect.Dy() {
		return ErrOutOfRange
	}
	return nil
}

// SetWindow addresses the inclusive region [x0, x1] x [y0, y1]. Colors
// written afterwards fill it in raster order.
func (d *Dev) SetWindow(x0, x1, y0, y1 int) error {
	if d.halted {
		return ErrHalted
	}
	if x0 > x1 || y0 > y1 {
		return ErrInvalidWindow
	}
	if err := d.CheckRange(x0, y0); err != nil {
		return err
	}
	if err := d.CheckRange(x1, y1); err != nil {
		return err
	}
	return d.setWindow(x0, x1, y0, y1)
}

// setWindow sends the column and row ranges, each bound as a big-endian
// 16-bit value. Bounds must already be checked.
func (d *Dev) setWindow(x0, x1, y0, y1 int) error {
	column := command{
		cmd:  columnAddress,
		data: []byte{byte(x0 >> 8), byte(x0), byte(x1 >> 8), byte(x1)},
	}
	if err := d.send(column); err != nil {
		return err
	}
	row := command{
		cmd:  rowAddress,
		data: []byte{byte(y0 >> 8), byte(y0), byte(y1 >> 8), byte(y1)},
	}
	return d.send(row)
}

// streamColor starts a RAM write and sends n copies of c.
func (d *Dev) streamColor(c image565.Color, n int) error {
	if err := d.send(command{cmd: memoryWrite}); err != nil {
		return err
	}
	size := 2 * n
	if size > streamChunk {
		size = streamChunk
	}
	buf := make([]byte, size)
	hi, lo := c.Bytes()
	for i := 0; i < len(buf); i += 2 {
		buf[i], buf[i+1] = hi, lo
	}
	for n > 0 {
		k := len(buf) / 2
		if k > n {
			k = n
		}
		if err := d.sendData(buf[:2*k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

// writeRAM starts a RAM write and sends pixels, already in wire order.
func (d *Dev) writeRAM(pixels []byte) error {
	if err := d.send(command{cmd: memoryWrite}); err != nil {
		return err
	}
	return d.sendData(pixels)
}

// send transmits a command and its arguments, then waits for the settle time.
func (d *Dev) send(c command) error {
	if err := d.t.Command(c.cmd); err != nil {
		return fmt.Errorf("st7735: command 0x%02X: %w", c.cmd, err)
	}
	if len(c.data) != 0 {
		if err := d.sendData(c.data); err != nil {
			return err
		}
	}
	if c.delay != 0 {
		d.log.WithFields(logrus.Fields{
			"cmd":   fmt.Sprintf("0x%02X", c.cmd),
			"delay": c.delay,
		}).Debug("st7735: settle")
		sleep(c.delay)
	}
	return nil
}

func (d *Dev) sendData(p []byte) error {
	if err := d.t.Data(p); err != nil {
		return fmt.Errorf("st7735: data: %w", err)
	}
	return nil
}
