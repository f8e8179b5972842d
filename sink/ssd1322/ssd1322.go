// Package ssd1322 controls a SSD1322 OLED display via SPI as a gfxhal.Sink.
//
// The SSD1322 is a 4-bit grayscale OLED controller supporting up to 480x128 pixels.
// Common display resolutions are 256x64 and 128x64. The controller addresses
// columns in groups of 4 pixels, so transfers are aligned to 4 pixels.
package ssd1322

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const packageName = "ssd1322"

const (
	ramColumns   = 480
	columnUnit   = 4
	defaultMaxTx = 4096
)

// sleep is replaced in tests.
var sleep = time.Sleep

var errHalted = errors.New("ssd1322: halted")

// Opts is the configuration for the SSD1322 display.
type Opts struct {
	// Display dimensions in pixels
	W int // Width (default: 256, must be a multiple of 4 and ≤480)
	H int // Height (default: 64, must be ≤128)

	// Rotation and mirroring
	Rotated       bool // 180° rotation
	Sequential    bool // Sequential COM pin configuration
	SwapTopBottom bool // Swap top/bottom display halves

	// SPI clock (default: 10MHz, the controller supports up to 20MHz)
	Hz physic.Frequency

	// Optional hardware reset pin
	RST gpio.PinOut
}

// Dev is the device handle for the SSD1322 display.
type Dev struct {
	// Communication
	c     conn.Conn   // SPI connection
	dc    gpio.PinOut // Data/Command pin
	rst   gpio.PinOut // Reset pin (optional)
	maxTx int

	// Display geometry
	geom         gfxhal.Geometry
	columnOffset int // For centering on 480-column RAM

	// State
	halted bool
}

var _ gfxhal.Sink = (*Dev)(nil)

// NewSPI creates a new SSD1322 device connected via SPI.
//
// The SPI port is configured for Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (256x64 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("ssd1322: a data/command pin is required")
	}
	if opts == nil {
		opts = &Opts{W: 256, H: 64}
	}
	if opts.W <= 0 || opts.W%columnUnit != 0 || opts.W > ramColumns {
		return nil, errors.New("ssd1322: width must be a multiple of 4 between 4 and 480")
	}
	if opts.H <= 0 || opts.H > 128 {
		return nil, errors.New("ssd1322: height must be between 1 and 128")
	}
	hz := opts.Hz
	if hz == 0 {
		hz = 10 * physic.MegaHertz
	}

	c, err := p.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, wrap(err)
	}

	d := &Dev{
		c:            c,
		dc:           dc,
		rst:          opts.RST,
		maxTx:        defaultMaxTx,
		geom:         gfxhal.NewGeometryAligned(opts.W, opts.H, pixfmt.Gray4, columnUnit),
		columnOffset: columnOffset(opts.W),
	}
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		d.maxTx = l.MaxTxSize()
	}

	if err := d.init(opts); err != nil {
		return nil, wrap(err)
	}
	return d, nil
}

// columnOffset centers a panel of width w on the controller RAM, rounded
// down to a column address.
func columnOffset(w int) int {
	return (ramColumns - w) / 2 &^ (columnUnit - 1)
}

// init sends the initialization sequence to the display.
func (d *Dev) init(opts *Opts) error {
	// Hardware reset sequence (if RST pin is provided)
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("failed to pull RST low: %w", err)
		}
		sleep(200 * time.Millisecond)

		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("failed to pull RST high: %w", err)
		}
		sleep(200 * time.Millisecond)
	}

	// Remap settings: adjust for rotation and mirroring
	remap1, remap2 := byte(0x14), byte(0x11)
	if opts.Rotated {
		remap1 = 0x06
	}
	if opts.Sequential {
		remap2 |= 0x01
	}
	if opts.SwapTopBottom {
		remap2 |= 0x02
	}

	for _, cmd := range [][]byte{
		{0xFD, 0x12},             // Unlock command codes
		{0xAE},                   // Display OFF
		{0xB3, 0xF2},             // Clock divider and oscillator frequency
		{0xCA, byte(opts.H - 1)}, // MUX ratio
		{0xA2, 0x00},             // Display offset
		{0xA1, 0x00},             // Start line
		{0xA0, remap1, remap2},   // Remap and dual COM mode
		{0xAB, 0x01},             // Function selection (enable internal VDD)
		{0xB4, 0xA0, 0xFD},       // VSL (display enhancement)
		{0xC1, 0xFF},             // Contrast (max)
		{0xC7, 0x0F},             // Master contrast
		{0xB9},                   // Use default grayscale table
		{0xB1, 0xE2},             // Phase length
		{0xD1, 0x82, 0x20},       // Display enhancements
		{0xBB, 0x1F},             // Pre-charge voltage
		{0xB6, 0x08},             // Second pre-charge period
		{0xBE, 0x07},             // VCOMH voltage
		{0xA6},                   // Normal display mode
		{0xA9},                   // Exit partial display mode
	} {
		if err := d.command(cmd[0], cmd[1:]...); err != nil {
			return err
		}
	}

	// Clear display RAM
	zeros := make([]byte, d.geom.Format.ByteLen(d.geom.Width*d.geom.Height))
	if err := d.writeRect(0, 0, d.geom.Width, d.geom.Height, zeros); err != nil {
		return err
	}

	// Turn display ON
	return d.command(0xAF)
}

// command sends a command byte with DC low, then its parameters with DC
// high.
func (d *Dev) command(cmd byte, params ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return err
	}
	if len(params) == 0 {
		return nil
	}
	return d.sendData(params)
}

// sendData sends a slice of data bytes, split to the bus transfer limit.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(data) > 0 {
		n := min(len(data), d.maxTx)
		if err := d.c.Tx(data[:n], nil); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// writeRect writes pixel data to a rectangular region of the display.
func (d *Dev) writeRect(x, y, width, height int, pixels []byte) error {
	// Column addresses are in units of 4 pixels
	colStart := byte((x + d.columnOffset) / columnUnit)
	colEnd := byte((x + width - 1 + d.columnOffset) / columnUnit)

	if err := d.command(0x15, colStart, colEnd); err != nil { // Column address
		return err
	}
	if err := d.command(0x75, byte(y), byte(y+height-1)); err != nil { // Row address
		return err
	}
	if err := d.command(0x5C); err != nil { // Enable write to RAM
		return err
	}
	return d.sendData(pixels)
}

// Geometry implements gfxhal.Sink.
func (d *Dev) Geometry() gfxhal.Geometry {
	return d.geom
}

// SetPixels implements gfxhal.Sink. Pixels are 4-bit gray, two per byte,
// left pixel in the high nibble.
func (d *Dev) SetPixels(x, y, w, h int, data []byte) error {
	if d.halted {
		return errHalted
	}
	r := image.Rect(x, y, x+w, y+h)
	if !r.In(d.Bounds()) {
		return fmt.Errorf("ssd1322: rectangle %v outside display %v", r, d.Bounds())
	}
	if x%columnUnit != 0 || w%columnUnit != 0 {
		return fmt.Errorf("ssd1322: rectangle %v is not aligned to %d columns", r, columnUnit)
	}
	if n := d.geom.Format.ByteLen(w * h); len(data) != n {
		return errors.New("ssd1322: invalid buffer size")
	}
	return wrap(d.writeRect(x, y, w, h, data))
}

// Bounds returns the image bounds of the display.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.geom.Width, d.geom.Height)
}

// SetContrast sets the display contrast (0-255).
func (d *Dev) SetContrast(contrast byte) error {
	if d.halted {
		return errHalted
	}
	return wrap(d.command(0xC1, contrast))
}

// Invert inverts the display colors (black becomes white and vice versa).
func (d *Dev) Invert(invert bool) error {
	if d.halted {
		return errHalted
	}
	mode := byte(0xA6) // Normal display
	if invert {
		mode = 0xA7 // Inverted display
	}
	return wrap(d.command(mode))
}

// Halt powers off the display.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	return wrap(d.command(0xAE)) // Display OFF
}

// Close implements io.Closer; it halts the display.
func (d *Dev) Close() error {
	return d.Halt()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ssd1322.Dev{%dx%d}", d.geom.Width, d.geom.Height)
}

// ScrollSpeed defines the horizontal scroll frame rate.
type ScrollSpeed byte

const (
	// Scroll frame rates (in display refresh cycles)
	Speed6Frames   ScrollSpeed = 0x00
	Speed10Frames  ScrollSpeed = 0x01
	Speed100Frames ScrollSpeed = 0x02
	Speed200Frames ScrollSpeed = 0x03
)

// ScrollHorizontal starts horizontal scrolling on the display.
// startRow and endRow specify the scroll region (must be >= 0 and < height).
// If right is true, scrolls right; otherwise scrolls left.
func (d *Dev) ScrollHorizontal(startRow, endRow byte, speed ScrollSpeed, right bool) error {
	if d.halted {
		return errHalted
	}
	if int(startRow) >= d.geom.Height || int(endRow) >= d.geom.Height {
		return errors.New("ssd1322: scroll row out of range")
	}

	scrollCmd := byte(0x26) // Left
	if right {
		scrollCmd = 0x27 // Right
	}
	if err := d.command(scrollCmd, 0x00, startRow, byte(speed), endRow, 0x00, 0x00); err != nil {
		return wrap(err)
	}
	return wrap(d.command(0x2F)) // Activate scroll
}

// StopScroll stops all scrolling and resets the display to normal operation.
func (d *Dev) StopScroll() error {
	if d.halted {
		return errHalted
	}
	return wrap(d.command(0x2E)) // Deactivate scroll
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}
