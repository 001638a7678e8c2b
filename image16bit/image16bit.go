// Package image16bit provides a 16-bit RGB565 image format matching the
// wire format of the ILI9341 display controller.
//
// Pixels are stored big-endian, two bytes per pixel, exactly as the
// controller expects them over SPI, so a full image buffer can be
// streamed to the panel without conversion.
// This package provides the RGB565 color type and the Image implementation.
package image16bit

import (
	"image"
	"image/color"
)

// RGB565 represents a 16-bit color in 5-6-5 bit layout:
// red in the high 5 bits, green in the middle 6 bits, blue in the low 5 bits.
type RGB565 struct {
	V uint16
}

// New565 packs 8-bit color channels into an RGB565 value.
// The low 3 (red, blue) or 2 (green) bits of each channel are discarded.
func New565(r, g, b byte) RGB565 {
	return RGB565{V: uint16(r&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(b)>>3}
}

// RGBA converts the RGB565 color to standard RGBA.
// Each channel is expanded to 16 bits by replicating its high bits, so
// full-scale 565 values map to full-scale RGBA (0xF8 red -> 0xFFFF).
func (c RGB565) RGBA() (r, g, b, a uint32) {
	r = uint32(c.V>>11) & 0x1f
	g = uint32(c.V>>5) & 0x3f
	b = uint32(c.V) & 0x1f
	r = r<<11 | r<<6 | r<<1 | r>>4
	g = g<<10 | g<<4 | g>>2
	b = b<<11 | b<<6 | b<<1 | b>>4
	return r, g, b, 0xFFFF
}

// toRGB565 converts any color.Color to RGB565.
func toRGB565(c color.Color) color.Color {
	if v, ok := c.(RGB565); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	// RGBA returns 16-bit channels; keep the top bits of each.
	return New565(byte(r>>8), byte(g>>8), byte(b>>8))
}

// RGB565Model converts colors to RGB565.
var RGB565Model = color.ModelFunc(toRGB565)

// Image is an RGB565 image stored big-endian, two bytes per pixel.
type Image struct {
	Pix    []byte          // Pixel data (2 bytes per pixel, big-endian)
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewImage creates a new RGB565 image with the specified bounds.
func NewImage(r image.Rectangle) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r}
	}
	stride := w * 2
	return &Image{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Image) ColorModel() color.Model {
	return RGB565Model
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y).
// It implements the image.Image interface.
func (p *Image) At(x, y int) color.Color {
	return p.RGB565At(x, y)
}

// RGB565At returns the RGB565 color of the pixel at (x, y).
func (p *Image) RGB565At(x, y int) RGB565 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return RGB565{}
	}
	offset := p.PixOffset(x, y)
	return RGB565{V: uint16(p.Pix[offset])<<8 | uint16(p.Pix[offset+1])}
}

// Set sets the color of the pixel at (x, y).
func (p *Image) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	v := RGB565Model.Convert(c).(RGB565)
	offset := p.PixOffset(x, y)
	p.Pix[offset] = byte(v.V >> 8)
	p.Pix[offset+1] = byte(v.V)
}

// SetRGB565 sets the RGB565 color of the pixel at (x, y).
// This is faster than Set() as it doesn't require color conversion.
func (p *Image) SetRGB565(x, y int, c RGB565) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	offset := p.PixOffset(x, y)
	p.Pix[offset] = byte(c.V >> 8)
	p.Pix[offset+1] = byte(c.V)
}

// PixOffset returns the byte offset of the first byte of the pixel at (x, y).
func (p *Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}
