// Package image16bit provides a 16-bit RGB565 image format for the ILI9341
// display controller.
//
// The ILI9341 TFT controller is driven in 16-bit color mode where every
// pixel is a 5-6-5 value (red 5 bits, green 6 bits, blue 5 bits)
// transmitted big-endian. Pixels are stored exactly in that wire format,
// two bytes per pixel.
//
// Memory layout example for a 2-pixel row:
//
//	Pixels: red          cyan
//	Values: 0xF800       0x07FF
//	Bytes:  0xF8 0x00    0x07 0xFF
//
// This package provides:
//
// - RGB565: A color type representing a packed 5-6-5 color
// - RGB565Model: A color model for converting standard Go colors to RGB565
// - Image: An image.Image implementation in the ILI9341 wire format
//
// Example usage:
//
//	// Create a 320x240 image
//	img := image16bit.NewImage(image.Rect(0, 0, 320, 240))
//
//	// Set a pixel to red
//	img.SetRGB565(10, 20, image16bit.New565(0xff, 0x00, 0x00))
//
//	// Get a pixel
//	c := img.RGB565At(10, 20)
//	println(c.V) // Output: 63488
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(image16bit.New565(0, 0, 0xff)), image.Point{}, draw.Src)
package image16bit
