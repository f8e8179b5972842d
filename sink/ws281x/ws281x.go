// Package ws281x drives WS2811/WS2812 LED strips and matrices from an SPI
// MOSI line as a gfxhal.Sink.
//
// Every data bit is stretched to 4 SPI bits, a short high pulse for 0 and a
// long one for 1, so the SPI clock must be 4 times the 800kHz LED data rate.
// Timing follows
// https://wp.josh.com/2014/05/13/ws2812-neopixels-are-not-so-finicky-once-you-get-to-know-them/
package ws281x

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const packageName = "ws281x"

// BitStretch is the number of SPI bits sent per LED data bit.
const BitStretch = 4

// SPIFrequency is the SPI clock the strip timing requires.
const SPIFrequency = 800 * physic.KiloHertz * BitStretch

// channels is the number of bytes per LED.
const channels = 3

// bytesPerLED is the encoded size of one LED.
const bytesPerLED = channels * BitStretch

// Opts is the configuration for a LED strip or matrix.
type Opts struct {
	// W and H are the matrix dimensions; a plain strip has H = 1.
	W, H int

	// Zigzag reverses the LED order of every odd row, as in matrices wired
	// as a single serpentine strip. Otherwise row y starts at LED y*W.
	Zigzag bool

	// GRB sends green first, the native order of WS2812 LEDs.
	GRB bool

	// Hz overrides the SPI clock (default: SPIFrequency).
	Hz physic.Frequency
}

// Dev is a handle to a LED strip.
type Dev struct {
	c      conn.Conn
	geom   gfxhal.Geometry
	zigzag bool
	grb    bool

	// buf holds the encoded stream of the whole strip, initially all black.
	buf []byte

	// unsent is the last LED encoded into buf whose transfer failed, or -1.
	unsent int
}

var _ gfxhal.Sink = (*Dev)(nil)

// NewSPI returns a strip driven by p. Nothing is sent until the first
// SetPixels call.
func NewSPI(p spi.Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		return nil, errors.New("ws281x: options are required")
	}
	if opts.W <= 0 || opts.H <= 0 {
		return nil, fmt.Errorf("ws281x: invalid size %dx%d", opts.W, opts.H)
	}
	hz := opts.Hz
	if hz == 0 {
		hz = SPIFrequency
	}
	c, err := p.Connect(hz, spi.Mode0, 8)
	if err != nil {
		return nil, wrap(err)
	}
	buf := make([]byte, opts.W*opts.H*bytesPerLED)
	for i := range buf {
		buf[i] = stretchedZeros
	}
	return &Dev{
		c:      c,
		geom:   gfxhal.NewGeometry(opts.W, opts.H, pixfmt.RGB888),
		zigzag: opts.Zigzag,
		grb:    opts.GRB,
		buf:    buf,
		unsent: -1,
	}, nil
}

// Geometry implements gfxhal.Sink.
func (d *Dev) Geometry() gfxhal.Geometry {
	return d.geom
}

// SetPixels implements gfxhal.Sink. The strip is rewritten from the first
// LED up to the last one whose value changed, or that a failed transfer left
// unsent.
func (d *Dev) SetPixels(x, y, w, h int, data []byte) error {
	r := image.Rect(x, y, x+w, y+h)
	if !r.In(image.Rect(0, 0, d.geom.Width, d.geom.Height)) {
		return fmt.Errorf("ws281x: rectangle %v outside %v", r, d.geom)
	}
	if len(data) != w*h*channels {
		return fmt.Errorf("ws281x: got %d bytes for %dx%d pixels", len(data), w, h)
	}

	last := d.unsent
	src := 0
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			led := d.index(col, row)
			if d.encode(led, data[src:src+channels]) && led > last {
				last = led
			}
			src += channels
		}
	}
	if last < 0 {
		return nil
	}
	if err := d.c.Tx(d.buf[:(last+1)*bytesPerLED], nil); err != nil {
		d.unsent = last
		return wrap(err)
	}
	d.unsent = -1
	return nil
}

// index returns the position of the LED at (x, y) along the strip.
func (d *Dev) index(x, y int) int {
	if d.zigzag && y&1 == 1 {
		return (y+1)*d.geom.Width - x - 1
	}
	return y*d.geom.Width + x
}

// encode stores the stretched bits of one RGB pixel for the LED and reports
// whether they differ from what buf held.
func (d *Dev) encode(led int, rgb []byte) bool {
	order := [channels]byte{rgb[0], rgb[1], rgb[2]}
	if d.grb {
		order[0], order[1] = order[1], order[0]
	}
	changed := false
	dst := d.buf[led*bytesPerLED : (led+1)*bytesPerLED]
	for i, b := range order {
		s := stretch(b)
		for j := range s {
			if dst[i*BitStretch+j] != s[j] {
				dst[i*BitStretch+j] = s[j]
				changed = true
			}
		}
	}
	return changed
}

// stretchedZeros is the encoding of two 0 bits.
const stretchedZeros = 0x88

// stretch encodes a byte as 4 SPI bytes, two data bits per byte. A 0 bit is
// sent as 1000 and a 1 bit as 1100.
func stretch(b byte) [BitStretch]byte {
	var out [BitStretch]byte
	for i := range out {
		v := byte(stretchedZeros)
		if b&0x80 != 0 {
			v |= 0x40
		}
		if b&0x40 != 0 {
			v |= 0x04
		}
		out[i] = v
		b <<= 2
	}
	return out
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("ws281x.Dev{%dx%d}", d.geom.Width, d.geom.Height)
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}
