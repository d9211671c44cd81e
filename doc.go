// Package st7735 controls a ST7735 TFT LCD via SPI.
//
// The ST7735 is a 262K color single-chip TFT controller found on small 1.8"
// 160×128 modules such as the Joy-It RB-TFT1.8. This driver runs it in 16-bit
// RGB565 mode and implements the display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - 16-bit RGB565 color (65536 colors)
// - 160×128 landscape panel by default, up to 162 pixels per side
// - Window addressing: pixels are streamed into a rectangle in raster order
// - Built-in 5×8 bitmap font with 1×, double height and double size scales
//
// # Hardware Connection
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V (or 5V depending on module)
//	SCK         → SPI Clock (SCLK)
//	SDA         → SPI Data (MOSI)
//	A0/DC       → GPIO (any available pin)
//	CS          → SPI Chip Select, or a GPIO passed as Opts.CS
//	RESET       → Optional: GPIO for hardware reset
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/st7735"
//		"periph.io/x/devices/v3/st7735/image565"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		spiBus, _ := spireg.Open("")
//		dcPin := gpioreg.ByName("GPIO25")
//
//		dev, _ := st7735.NewSPI(spiBus, dcPin, &st7735.Opts{
//			W:   160,
//			H:   128,
//			RST: gpioreg.ByName("GPIO24"),
//		})
//		defer dev.Halt()
//
//		dev.DrawLine(0, 0, 159, 127, image565.Red)
//		dev.SetPosition(10, 10)
//		dev.DrawString("Hello", image565.White, st7735.X1)
//	}
//
// # Initialization
//
// NewSPI and New run Init: hardware reset (when RST is set), software reset,
// sleep out, 16-bit color mode, memory access control 0xA0, display on, then a
// clear to Opts.Background. The sequence takes a little over one second
// because of the controller settle times.
//
// # Errors
//
// Drawing calls validate their arguments before touching the bus:
//
// - ErrOutOfRange: a coordinate is off screen, or a character has no glyph
// - ErrInvalidWindow: a window start is past its end
// - ErrHalted: the device was halted
//
// Use errors.Is to test for them. Bus failures are wrapped and returned as is.
//
// # Text
//
// Text is drawn at a cursor set by SetPosition. Each character advances the
// cursor by six columns per unit of horizontal scale. DrawString checks the
// whole string's bounding box upfront and never wraps; a string that does not
// fit is not drawn at all.
//
// # TinyGo Fonts
//
// Dev also implements drivers.Displayer, so proportional fonts from
// tinygo.org/x/tinyfont can be rendered directly:
//
//	tinyfont.WriteLine(dev, &proggy.TinySZ8pt7b, 4, 20, "periph", color.RGBA{R: 0xFF, A: 0xFF})
//
// # Datasheet
//
// https://www.displayfuture.com/Display/datasheet/controller/ST7735.pdf
package st7735
