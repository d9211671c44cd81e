// Package image565 provides a 16-bit RGB565 image format for the ST7735 display controller.
//
// The ST7735 receives pixels as 16-bit words with 5 bits of red, 6 bits of green
// and 5 bits of blue, most significant byte first on the wire.
//
// Memory layout example for a 2-pixel row:
//
//	Pixels: 0       1
//	Colors: red     blue
//	Words:  0xF800  0x001F
//	Bytes:  F8 00   00 1F
//
// This package provides:
//
// - Color: a packed RGB565 color
// - Model: a color model for converting standard Go colors to Color
// - Image: an image.Image implementation stored in controller wire order
//
// Example usage:
//
//	// Create a 160x128 image
//	img := image565.NewImage(image.Rect(0, 0, 160, 128))
//
//	// Set a pixel to pure green
//	img.SetRGB565(10, 20, image565.Green)
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
package image565
