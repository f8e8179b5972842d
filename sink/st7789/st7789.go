// Package st7789 drives a ST7789 TFT display controller over SPI as a
// gfxhal.Sink.
//
// The ST7789 addresses 240x320 pixels. Panels with fewer rows, such as the
// common 240x240 ones, are mounted at the end of the controller memory, so
// rows are shifted by 320-H.
//
// # Datasheet
//
// https://www.newhavendisplay.com/appnotes/datasheets/LCDs/ST7789V.pdf
package st7789

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

const packageName = "st7789"

// Controller commands.
const (
	cmdSWRESET = 0x01
	cmdSLPIN   = 0x10
	cmdSLPOUT  = 0x11
	cmdNORON   = 0x13
	cmdINVON   = 0x21
	cmdDISPOFF = 0x28
	cmdDISPON  = 0x29
	cmdCASET   = 0x2A
	cmdRASET   = 0x2B
	cmdRAMWR   = 0x2C
	cmdMADCTL  = 0x36
	cmdCOLMOD  = 0x3A
)

const (
	colmod65K       = 0x50
	colmodControl12 = 0x03
	colmodControl16 = 0x05

	madctlMY  = 0x80
	madctlMX  = 0x40
	madctlBGR = 0x08
)

const (
	width        = 240
	memoryRows   = 320
	defaultMaxTx = 4096
)

// sleep is replaced in tests.
var sleep = time.Sleep

// Opts is the configuration for the ST7789 display.
type Opts struct {
	// H is the panel height in pixels (default: 240, at most 320). The width
	// is always 240.
	H int

	// Format is the wire pixel format, pixfmt.RGB565 (default) or
	// pixfmt.RGB444.
	Format pixfmt.Format

	// BGR selects blue-green-red subpixel order.
	BGR bool

	// Hz is the SPI clock (default: 40MHz).
	Hz physic.Frequency

	// Optional hardware reset pin
	RST gpio.PinOut
}

// Dev is the device handle for the ST7789 display.
type Dev struct {
	c       conn.Conn
	dc      gpio.PinOut
	rst     gpio.PinOut
	geom    gfxhal.Geometry
	yOffset int
	maxTx   int
	halted  bool
}

var _ gfxhal.Sink = (*Dev)(nil)

// NewSPI creates a new ST7789 device connected via SPI and initializes it.
//
// opts can be nil to use defaults (240x240, RGB565).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil || dc == gpio.INVALID {
		return nil, errors.New("st7789: a data/command pin is required")
	}
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.H == 0 {
		o.H = 240
	}
	if o.Format == (pixfmt.Format{}) {
		o.Format = pixfmt.RGB565
	}
	if o.Hz == 0 {
		o.Hz = 40 * physic.MegaHertz
	}
	if o.H < 0 || o.H > memoryRows {
		return nil, errors.New("st7789: height must be between 1 and 320")
	}
	if o.Format != pixfmt.RGB565 && o.Format != pixfmt.RGB444 {
		return nil, fmt.Errorf("st7789: unsupported pixel format %v", o.Format)
	}

	c, err := p.Connect(o.Hz, spi.Mode0, 8)
	if err != nil {
		return nil, wrap(err)
	}

	d := &Dev{
		c:       c,
		dc:      dc,
		rst:     o.RST,
		geom:    gfxhal.NewGeometry(width, o.H, o.Format),
		yOffset: memoryRows - o.H,
		maxTx:   defaultMaxTx,
	}
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		d.maxTx = l.MaxTxSize()
	}
	if err := d.init(&o); err != nil {
		return nil, wrap(err)
	}
	return d, nil
}

// init sends the initialization sequence to the display.
func (d *Dev) init(opts *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("failed to pull RST low: %w", err)
		}
		sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("failed to pull RST high: %w", err)
		}
		sleep(120 * time.Millisecond)
	}

	if err := d.command(cmdSWRESET); err != nil {
		return err
	}
	sleep(150 * time.Millisecond)
	if err := d.command(cmdSLPOUT); err != nil {
		return err
	}
	sleep(10 * time.Millisecond)

	colmod := byte(colmod65K | colmodControl16)
	if opts.Format == pixfmt.RGB444 {
		colmod = colmod65K | colmodControl12
	}
	madctl := byte(madctlMY | madctlMX)
	if opts.BGR {
		madctl |= madctlBGR
	}
	for _, cmd := range [][]byte{
		{cmdCOLMOD, colmod},
		{cmdMADCTL, madctl},
		append([]byte{cmdCASET}, window(0, width-1)...),
		append([]byte{cmdRASET}, window(d.yOffset, d.yOffset+d.geom.Height-1)...),
		{cmdINVON},
		{cmdNORON},
		{cmdDISPON},
	} {
		if err := d.command(cmd[0], cmd[1:]...); err != nil {
			return err
		}
	}
	return nil
}

// window returns the parameters of an address window command.
func window(start, end int) []byte {
	return []byte{byte(start >> 8), byte(start), byte(end >> 8), byte(end)}
}

// command sends a command byte followed by its parameters.
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

// sendData sends data bytes, split to the bus transfer limit.
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

// Geometry implements gfxhal.Sink.
func (d *Dev) Geometry() gfxhal.Geometry {
	return d.geom
}

// SetPixels implements gfxhal.Sink.
func (d *Dev) SetPixels(x, y, w, h int, data []byte) error {
	if d.halted {
		return errors.New("st7789: halted")
	}
	if !image.Rect(x, y, x+w, y+h).In(d.Bounds()) {
		return fmt.Errorf("st7789: rectangle %v outside display %v", image.Rect(x, y, x+w, y+h), d.Bounds())
	}
	n := d.geom.Format.ByteLen(w * h)
	if len(data) < n {
		return fmt.Errorf("st7789: got %d bytes for %dx%d pixels, want %d", len(data), w, h, n)
	}
	if err := d.command(cmdCASET, window(x, x+w-1)...); err != nil {
		return wrap(err)
	}
	if err := d.command(cmdRASET, window(d.yOffset+y, d.yOffset+y+h-1)...); err != nil {
		return wrap(err)
	}
	if err := d.command(cmdRAMWR); err != nil {
		return wrap(err)
	}
	return wrap(d.sendData(data[:n]))
}

// Bounds returns the panel bounds.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rect(0, 0, d.geom.Width, d.geom.Height)
}

// Halt turns the display off and puts the controller to sleep.
// After calling Halt, SetPixels fails until the device is re-created.
func (d *Dev) Halt() error {
	d.halted = true
	if err := d.command(cmdDISPOFF); err != nil {
		return wrap(err)
	}
	return wrap(d.command(cmdSLPIN))
}

// Close implements io.Closer; it halts the display.
func (d *Dev) Close() error {
	return d.Halt()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("st7789.Dev{%dx%d, %v}", d.geom.Width, d.geom.Height, d.geom.Format)
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}
