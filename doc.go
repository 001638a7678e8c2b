// Package ili9341 controls an ILI9341/ILI9340 TFT LCD display via SPI.
//
// The ILI9341 is a 262K-color single-chip driver for 240x320 TFT panels.
// This driver runs the panel in 16-bit (RGB565) color mode and implements
// the display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - 16-bit color, 5-6-5 layout transmitted big-endian
// - Fixed 320x240 addressing, four hardware rotations
// - Hardware vertical scrolling (scroll-line register, no pixel copies)
// - Pixel read-back (3 raw bytes per pixel)
// - Built-in 8x8 text font plus pluggable proportional fonts
//
// # Hardware Connection
//
// Connect the ILI9341 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCK         → SPI Clock (SCLK)
//	SDI/MOSI    → SPI Data Out (MOSI)
//	SDO/MISO    → SPI Data In (MISO, needed for pixel read-back)
//	DC          → GPIO (any available pin)
//	CS          → GPIO (any available pin; driven by this driver)
//	RESET       → GPIO (any available pin)
//
// The driver asserts and deasserts CS itself around every logical
// transfer, so CS must be an ordinary GPIO pin rather than a chip select
// managed by the SPI port.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"log"
//
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/ili9341"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		if _, err := host.Init(); err != nil {
//			log.Fatal(err)
//		}
//
//		// Open SPI bus
//		spiBus, _ := spireg.Open("")
//
//		// Control pins
//		cs := gpioreg.ByName("GPIO8")
//		dc := gpioreg.ByName("GPIO25")
//		rst := gpioreg.ByName("GPIO24")
//
//		// Create device (resets and initializes the panel)
//		dev, _ := ili9341.NewSPI(spiBus, cs, dc, rst, nil)
//		defer dev.Halt()
//
//		// Fill the screen with red and write some text
//		dev.Fill(ili9341.Color565(0xff, 0x00, 0x00))
//		dev.Text("hello", 0, 0, 0xffff, 0x0000, nil)
//	}
//
// # Colors
//
// Colors are packed 16-bit 5-6-5 values as transmitted on the wire. Use
// Color565 to pack 8-bit channels:
//
//	red   := ili9341.Color565(0xff, 0x00, 0x00)
//	white := ili9341.Color565(0xff, 0xff, 0xff)
//
// The image16bit subpackage provides the RGB565 color model and an
// image.Image implementation in the panel's wire format for use with
// Draw and the standard image/draw package.
//
// # Rotation
//
// SetRotation selects one of four orientations by rewriting the Memory
// Access Control register. Bounds() stays fixed at 320x240: for the
// 90/270 degree orientations the caller must swap axes itself. Some
// applications depend on fixed addressing, so the driver does not do it
// for them.
//
// # Text
//
// Text lays out characters left to right with automatic line wrapping,
// using the built-in 8x8 font or any Font implementation. Proportional
// fonts advance the cursor by each glyph's own width. The line height is
// fixed at 8 pixels regardless of font; taller fonts overlap adjacent
// lines.
//
// # Hardware Scrolling
//
// ScrollBy shifts the panel's vertical scroll start line; the panel
// rotates its own line addressing so no pixel data is transferred:
//
//	dev.ScrollBy(10)          // shift up 10 lines
//	off := dev.ScrollOffset() // 10
//
// # Concurrency
//
// The driver is strictly synchronous and single-threaded: every
// operation blocks until its bus transfer completes, and no internal
// locking is provided. Concurrent use from multiple goroutines must be
// serialized by the caller.
//
// # Error Handling
//
// Bus and GPIO failures are returned immediately and never retried.
// Invalid geometry is never an error: FillRect clamps its rectangle to
// the panel and SetPixel out of range is a silent no-op.
//
// # Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/ILI9341.pdf
package ili9341
