// Package ili9341 controls an ILI9341/ILI9340 TFT LCD display via SPI.
//
// The ILI9341 is a 262K-color single-chip driver for 240x320 TFT panels.
// The driver runs the panel in 16-bit (RGB565) color mode.
//
// See the examples for how to use this package.
package ili9341

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"periph.io/x/devices/v3/ili9341/image16bit"
)

// Panel dimensions in pixels. The driver always addresses the panel as
// 320x240 regardless of rotation; see SetRotation.
const (
	Width  = 320
	Height = 240
)

// Commands used outside the initialization table.
const (
	sleepOut      = 0x11 // Sleep Out
	inverseOff    = 0x20 // Display Inversion OFF
	inverseOn     = 0x21 // Display Inversion ON
	displayOff    = 0x28 // Display OFF
	displayOn     = 0x29 // Display ON
	columnAddress = 0x2A // Column Address Set
	pageAddress   = 0x2B // Page Address Set
	memoryWrite   = 0x2C // Memory Write
	memoryRead    = 0x2E // Memory Read
	memoryAccess  = 0x36 // Memory Access Control
	scrollAddress = 0x37 // Vertical Scrolling Start Address
)

// Memory Access Control flags.
const (
	madctlMY  = 0x80 // Row address order
	madctlMX  = 0x40 // Column address order
	madctlMV  = 0x20 // Row/column exchange
	madctlBGR = 0x08 // Blue-Green-Red pixel order
)

// chunkPixels is how many pixels of fill color are streamed per data
// transfer, keeping the staging buffer at 1KiB for large fills.
const chunkPixels = 512

// initSeq is the vendor initialization sequence: power control, driver
// timing, VCOM, memory access, pixel format and gamma calibration. The
// values are opaque panel calibration data and are sent byte-for-byte.
var initSeq = []struct {
	cmd  byte
	data []byte
}{
	{0xEF, []byte{0x03, 0x80, 0x02}},
	{0xCF, []byte{0x00, 0xC1, 0x30}},             // Power Control B
	{0xED, []byte{0x64, 0x03, 0x12, 0x81}},       // Power on Sequence Control
	{0xE8, []byte{0x85, 0x00, 0x78}},             // Driver Timing Control A
	{0xCB, []byte{0x39, 0x2C, 0x00, 0x34, 0x02}}, // Power Control A
	{0xF7, []byte{0x20}},                         // Pump Ratio Control
	{0xEA, []byte{0x00, 0x00}},                   // Driver Timing Control B
	{0xC0, []byte{0x23}},                         // Power Control 1, VRH[5:0]
	{0xC1, []byte{0x10}},                         // Power Control 2, SAP[2:0], BT[3:0]
	{0xC5, []byte{0x3E, 0x28}},                   // VCOM Control 1
	{0xC7, []byte{0x86}},                         // VCOM Control 2
	{0x36, []byte{0x48}},                         // Memory Access Control
	{0x36, []byte{0x40}},                         // Memory Access Control
	{0x3A, []byte{0x55}},                         // Pixel Format: 16 bits/pixel
	{0xB1, []byte{0x00, 0x18}},                   // Frame Rate Control
	{0xB6, []byte{0x08, 0x82, 0x27}},             // Display Function Control
	{0xF2, []byte{0x00}},                         // 3Gamma Function Disable
	{0x26, []byte{0x01}},                         // Gamma Set, curve 1
	{0xE0, []byte{ // Positive Gamma Control
		0x0F, 0x31, 0x2B, 0x0C, 0x0E, 0x08, 0x4E, 0xF1,
		0x37, 0x07, 0x10, 0x03, 0x0E, 0x09, 0x00}},
	{0xE1, []byte{ // Negative Gamma Control
		0x00, 0x0E, 0x14, 0x03, 0x11, 0x07, 0x31, 0xC1,
		0x48, 0x08, 0x0F, 0x0C, 0x31, 0x36, 0x0F}},
}

// Color565 packs 8-bit color channels into a 16-bit 5-6-5 value as
// transmitted to the panel.
func Color565(r, g, b byte) uint16 {
	return uint16(r&0xf8)<<8 | uint16(g&0xfc)<<3 | uint16(b)>>3
}

// Font maps a character to its glyph bitmap.
//
// Glyph returns the bitmap data, its height and its width in pixels. The
// data is column-major and bit-packed LSB-first: each column occupies
// ceil(height/8) consecutive bytes, bit 0 of the first byte being the top
// pixel. Proportional fonts return a per-character width.
type Font interface {
	Glyph(ch rune) (data []byte, height, width int)
}

// Opts is the configuration for the ILI9341 display.
type Opts struct {
	// Rotation selects one of the four panel orientations (0-3).
	Rotation int
	// RGB selects red-green-blue subpixel order. Most panels are wired
	// BGR, which is the default.
	RGB bool
}

// TextOpts controls layout for Text.
type TextOpts struct {
	// Wrap is the horizontal boundary in pixels at which the cursor moves
	// to a new line. Zero means Width-8.
	Wrap int
	// VWrap is the vertical boundary in pixels at which the cursor moves
	// back to the starting row. Zero means Height-8.
	VWrap int
	// ClearEOL fills the remainder of the line with the background color
	// before wrapping and at the end of the string.
	ClearEOL bool
	// Font renders characters through an external font instead of the
	// built-in 8x8 one.
	Font Font
}

// Dev is the device handle for the ILI9341 display.
type Dev struct {
	// Communication
	c   conn.Conn   // SPI connection
	cs  gpio.PinOut // Chip Select pin, active low
	dc  gpio.PinOut // Data/Command pin
	rst gpio.PinOut // Reset pin, active low

	// Display geometry
	rect image.Rectangle

	// State
	order    byte // Memory Access Control color order bit
	rotation int
	scroll   int // Vertical scroll start line (0..Height-1)
	halted   bool
}

// NewSPI creates a new ILI9341 device connected via SPI.
//
// The SPI port is configured for 40MHz, Mode0 (CPOL=0, CPHA=0), 8-bit
// transfers. The cs (Chip Select), dc (Data/Command) and rst (Reset) GPIO
// pins must be provided; the driver toggles cs itself around each
// transfer, so cs must not be managed by the SPI port.
//
// opts can be nil to use defaults (rotation 0, BGR color order).
func NewSPI(p spi.Port, cs, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}

	c, err := p.Connect(40*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}

	order := byte(madctlBGR)
	if opts.RGB {
		order = 0
	}

	d := &Dev{
		c:     c,
		cs:    cs,
		dc:    dc,
		rst:   rst,
		rect:  image.Rect(0, 0, Width, Height),
		order: order,
	}

	// Idle levels: chip select deasserted, command mode, reset asserted.
	if err := d.cs.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("ili9341: failed to set CS idle: %w", err)
	}
	if err := d.dc.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("ili9341: failed to set DC idle: %w", err)
	}
	if err := d.rst.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("ili9341: failed to assert RST: %w", err)
	}

	if err := d.reset(); err != nil {
		return nil, err
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	time.Sleep(120 * time.Millisecond)
	if err := d.SetRotation(opts.Rotation); err != nil {
		return nil, err
	}

	return d, nil
}

// reset performs a hardware power-on reset via the RST line.
func (d *Dev) reset() error {
	if err := d.rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("ili9341: failed to pull RST low: %w", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("ili9341: failed to pull RST high: %w", err)
	}
	time.Sleep(50 * time.Millisecond)
	return nil
}

// init sends the vendor initialization sequence, wakes the panel and
// turns the display on.
func (d *Dev) init() error {
	for _, c := range initSeq {
		if err := d.writeCommand(c.cmd, c.data); err != nil {
			return err
		}
	}
	if err := d.writeCommand(sleepOut, nil); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	return d.writeCommand(displayOn, nil)
}

// writeCommand sends a one-byte command followed by its payload, if any.
// The chip select brackets the opcode and the payload separately; it is
// never left asserted across calls.
func (d *Dev) writeCommand(cmd byte, data []byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.cs.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if err := d.cs.Out(gpio.High); err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	return d.writeData(data)
}

// writeData sends a slice of data bytes.
func (d *Dev) writeData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	if err := d.cs.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx(data, nil); err != nil {
		return err
	}
	return d.cs.Out(gpio.High)
}

// readCommand sends a one-byte command and reads n bytes back within the
// same chip select assertion.
func (d *Dev) readCommand(cmd byte, n int) ([]byte, error) {
	if err := d.dc.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := d.cs.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := d.c.Tx(make([]byte, n), buf); err != nil {
		return nil, err
	}
	if err := d.cs.Out(gpio.High); err != nil {
		return nil, err
	}
	return buf, nil
}

// setWindow establishes the addressing window, inclusive on all bounds.
func (d *Dev) setWindow(x0, y0, x1, y1 int) error {
	var buf [4]byte
	binary.BigEndian.PutUint16(buf[0:2], uint16(x0))
	binary.BigEndian.PutUint16(buf[2:4], uint16(x1))
	if err := d.writeCommand(columnAddress, buf[:]); err != nil {
		return err
	}
	binary.BigEndian.PutUint16(buf[0:2], uint16(y0))
	binary.BigEndian.PutUint16(buf[2:4], uint16(y1))
	return d.writeCommand(pageAddress, buf[:])
}

// writeBlock writes pixel data to a rectangular region. pix may be nil to
// only open the region for writing; the caller then streams the payload
// through writeData.
func (d *Dev) writeBlock(x0, y0, x1, y1 int, pix []byte) error {
	if err := d.setWindow(x0, y0, x1, y1); err != nil {
		return err
	}
	return d.writeCommand(memoryWrite, pix)
}

// readBlock reads back a rectangular region. The panel returns 3 raw
// bytes per pixel, one per color channel, not packed to 565.
func (d *Dev) readBlock(x0, y0, x1, y1 int) ([]byte, error) {
	if err := d.setWindow(x0, y0, x1, y1); err != nil {
		return nil, err
	}
	return d.readCommand(memoryRead, (x1-x0+1)*(y1-y0+1)*3)
}

// SetRotation rotates the panel to one of the four orientations. n is
// taken modulo 4.
//
// Bounds() stays fixed at 320x240 regardless of rotation; for the 90/270
// degree orientations the caller must account for the swapped axes
// itself.
func (d *Dev) SetRotation(n int) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	values := [4]byte{
		madctlMX,
		madctlMV,
		madctlMY,
		madctlMX | madctlMY | madctlMV,
	}
	n = ((n % 4) + 4) % 4

	// The flags are sent as a big-endian 16-bit payload even though the
	// register takes a single parameter; the panel latches the bytes it
	// needs. Kept byte-for-byte compatible with existing bus traffic.
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(values[n]|d.order))
	if err := d.writeCommand(memoryAccess, buf[:]); err != nil {
		return err
	}
	d.rotation = n
	return nil
}

// PixelAt reads back the color of the pixel at (x, y).
//
// The panel returns the channels in R, B, G order; the swapped order
// matches observed read-back behavior and is repacked accordingly.
func (d *Dev) PixelAt(x, y int) (uint16, error) {
	if d.halted {
		return 0, errors.New("ili9341: halted")
	}
	if !(image.Point{X: x, Y: y}.In(d.rect)) {
		return 0, errors.New("ili9341: pixel out of bounds")
	}
	raw, err := d.readBlock(x, y, x, y)
	if err != nil {
		return 0, err
	}
	r, b, g := raw[0], raw[1], raw[2]
	return Color565(r, g, b), nil
}

// SetPixel sets the pixel at (x, y) to a packed 565 color. Out-of-range
// coordinates are silently ignored.
func (d *Dev) SetPixel(x, y int, c uint16) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	if !(image.Point{X: x, Y: y}.In(d.rect)) {
		return nil
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], c)
	return d.writeBlock(x, y, x, y, buf[:])
}

// FillRect fills a rectangle with a packed 565 color. The rectangle is
// clamped to the panel, with a minimum size of 1x1; an addressing window
// outside the panel is never issued.
//
// The fill color is streamed in chunks of at most 512 pixels to avoid
// allocating a buffer for the whole rectangle.
func (d *Dev) FillRect(x, y, w, h int, c uint16) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	x = min(Width-1, max(0, x))
	y = min(Height-1, max(0, y))
	w = min(Width-x, max(1, w))
	h = min(Height-y, max(1, h))

	if err := d.writeBlock(x, y, x+w-1, y+h-1, nil); err != nil {
		return err
	}

	chunks, rest := w*h/chunkPixels, w*h%chunkPixels
	data := make([]byte, 2*min(w*h, chunkPixels))
	for i := 0; i < len(data); i += 2 {
		data[i] = byte(c >> 8)
		data[i+1] = byte(c)
	}
	for i := 0; i < chunks; i++ {
		if err := d.writeData(data); err != nil {
			return err
		}
	}
	if rest == 0 {
		return nil
	}
	return d.writeData(data[:2*rest])
}

// Fill fills the whole panel with a packed 565 color.
func (d *Dev) Fill(c uint16) error {
	return d.FillRect(0, 0, Width, Height, c)
}

// DrawChar draws one character of the built-in 8x8 font at (x, y) with
// the given foreground and background colors. Characters outside the
// printable ASCII range render as '?'. The character cell is silently
// dropped if it does not fit the panel.
func (d *Dev) DrawChar(ch rune, x, y int, fg, bg uint16) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	if x < 0 || y < 0 || x+glyphWidth > Width || y+glyphHeight > Height {
		return nil
	}
	g := glyph(ch)
	buf := make([]byte, 2*glyphWidth*glyphHeight)
	for col := 0; col < glyphWidth; col++ {
		for row := 0; row < glyphHeight; row++ {
			c := bg
			if g[col]&(1<<row) != 0 {
				c = fg
			}
			o := (row*glyphWidth + col) * 2
			buf[o] = byte(c >> 8)
			buf[o+1] = byte(c)
		}
	}
	return d.writeBlock(x, y, x+glyphWidth-1, y+glyphHeight-1, buf)
}

// DrawFontChar draws one character of an external font at (x, y) and
// returns the glyph width so the caller can advance the cursor by a
// variable amount. The glyph is silently dropped, but its width still
// returned, if it does not fit the panel.
func (d *Dev) DrawFontChar(f Font, ch rune, x, y int, fg, bg uint16) (int, error) {
	if d.halted {
		return 0, errors.New("ili9341: halted")
	}
	data, height, width := f.Glyph(ch)
	if x < 0 || y < 0 || x+width > Width || y+height > Height {
		return width, nil
	}
	// Columns are bit-packed top to bottom, possibly spanning multiple
	// bytes per column when height > 8.
	bytesPerCol := (height + 7) / 8
	buf := make([]byte, 2*height*width)
	for col := 0; col < width; col++ {
		for row := 0; row < height; row++ {
			c := bg
			if data[col*bytesPerCol+row/8]&(1<<(row%8)) != 0 {
				c = fg
			}
			o := (row*width + col) * 2
			buf[o] = byte(c >> 8)
			buf[o+1] = byte(c)
		}
	}
	if err := d.writeBlock(x, y, x+width-1, y+height-1, buf); err != nil {
		return 0, err
	}
	return width, nil
}

// cursor tracks the text layout position.
type cursor struct {
	x, y int
}

// Text draws a string starting at (x, y), advancing left to right and
// wrapping to a new line on '\n' or when the cursor reaches the wrap
// boundary. When the cursor passes the vertical boundary it wraps back
// to the starting row, overwriting earlier lines.
//
// Known limitation: the line height is fixed at 8 pixels even when an
// external font with taller glyphs is used.
func (d *Dev) Text(s string, x, y int, fg, bg uint16, opts *TextOpts) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	if opts == nil {
		opts = &TextOpts{}
	}
	wrap := opts.Wrap
	if wrap == 0 {
		wrap = Width - glyphWidth
	}
	vwrap := opts.VWrap
	if vwrap == 0 {
		vwrap = Height - glyphHeight
	}

	cur := cursor{x: x, y: y}
	newLine := func() {
		cur.x = x
		cur.y += glyphHeight
		if cur.y >= vwrap {
			cur.y = y
		}
	}

	for _, ch := range s {
		if ch == '\n' {
			if opts.ClearEOL && cur.x < wrap {
				if err := d.FillRect(cur.x, cur.y, wrap-cur.x+glyphWidth-1, glyphHeight, bg); err != nil {
					return err
				}
			}
			newLine()
			continue
		}
		if cur.x >= wrap {
			newLine()
		}
		if opts.Font == nil {
			if err := d.DrawChar(ch, cur.x, cur.y, fg, bg); err != nil {
				return err
			}
			cur.x += glyphWidth
		} else {
			w, err := d.DrawFontChar(opts.Font, ch, cur.x, cur.y, fg, bg)
			if err != nil {
				return err
			}
			cur.x += w
		}
	}
	if opts.ClearEOL && cur.x < wrap {
		return d.FillRect(cur.x, cur.y, wrap-cur.x+glyphWidth-1, glyphHeight, bg)
	}
	return nil
}

// ScrollOffset returns the current vertical scroll start line.
func (d *Dev) ScrollOffset() int {
	return d.scroll
}

// ScrollBy shifts the vertical scroll start line by dy, modulo the panel
// height, using the panel's hardware scroll feature. No pixel data is
// moved.
func (d *Dev) ScrollBy(dy int) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	scroll := (((d.scroll + dy) % Height) + Height) % Height
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(scroll))
	if err := d.writeCommand(scrollAddress, buf[:]); err != nil {
		return err
	}
	d.scroll = scroll
	return nil
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}
	cmd := byte(inverseOff)
	if invert {
		cmd = inverseOn
	}
	return d.writeCommand(cmd, nil)
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return image16bit.RGB565Model
}

// Bounds returns the image bounds of the display. They are fixed at
// 320x240 and do not change with rotation.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Draw draws an image onto the display. The dst rectangle specifies the
// destination region on the panel; sp is the source position within src.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errors.New("ili9341: halted")
	}

	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}

	// Fast path: a full-frame wire-format image needs no conversion.
	if srcImg, ok := src.(*image16bit.Image); ok {
		zeroPoint := image.Point{}
		if dst == d.rect && sp == zeroPoint && srcImg.Rect == d.rect {
			return d.writeBlock(0, 0, Width-1, Height-1, srcImg.Pix)
		}
	}

	buf := image16bit.NewImage(dst)
	draw.Draw(buf, dst, src, sp, draw.Src)
	return d.writeBlock(dst.Min.X, dst.Min.Y, dst.Max.X-1, dst.Max.Y-1, buf.Pix)
}

// Halt turns the display off. After calling Halt, the display will not
// respond to further commands until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	return d.writeCommand(displayOff, nil)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ili9341.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}
