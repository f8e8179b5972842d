// Package crowpi2 drives the I2C 8x8 RGB LED matrix of the Pi 5 compatible
// CrowPi2 as a gfxhal.Sink.
//
// The matrix controller takes fixed size 14 byte commands and needs 4ms
// after each of them before it accepts the next one.
package crowpi2

import (
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
	"periph.io/x/conn/v3/i2c"
)

const packageName = "crowpi2"

// DefaultAddr is the I2C address of the matrix controller.
const DefaultAddr = 0x66

// Size is the width and height of the matrix.
const Size = 8

// busyTime is how long the controller ignores commands after each one.
const busyTime = 4 * time.Millisecond

// Command layout.
const (
	offCmd = iota
	offLen
	offFunc
	offPos
	offR
	offG
	offB
	offW
	offC
	offBright
	offFirst
	offCount
	offData
	offData1
	commandLen
)

// Controller functions.
const (
	funcShow = iota
	funcSetPixelColor
	funcFill
	funcSetBrightness
)

// These are replaced in tests.
var (
	now   = time.Now
	sleep = time.Sleep
)

// Opts is the configuration for the LED matrix.
type Opts struct {
	// Addr is the I2C address (default: DefaultAddr).
	Addr uint16

	// Brightness is the initial brightness (default: 64, a quarter).
	Brightness byte
}

// Dev is a handle to the LED matrix.
type Dev struct {
	mu        sync.Mutex
	d         i2c.Dev
	busyUntil time.Time
	buf       [commandLen]byte
}

var _ gfxhal.Sink = (*Dev)(nil)

// NewI2C returns a handle to the matrix on b and sets its brightness.
//
// opts can be nil to use defaults.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	o := Opts{Addr: DefaultAddr, Brightness: 64}
	if opts != nil {
		if opts.Addr != 0 {
			o.Addr = opts.Addr
		}
		if opts.Brightness != 0 {
			o.Brightness = opts.Brightness
		}
	}
	d := &Dev{d: i2c.Dev{Bus: b, Addr: o.Addr}}
	if err := d.SetBrightness(o.Brightness); err != nil {
		return nil, err
	}
	return d, nil
}

// Geometry implements gfxhal.Sink.
func (d *Dev) Geometry() gfxhal.Geometry {
	return gfxhal.NewGeometry(Size, Size, pixfmt.RGB888)
}

// SetBrightness sets the brightness of all LEDs.
func (d *Dev) SetBrightness(b byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf[offFunc] = funcSetBrightness
	d.buf[offBright] = b
	return wrap(d.send())
}

// SetPixels implements gfxhal.Sink. Runs of equal pixels within a row are
// sent as a single fill command, then the matrix is refreshed.
func (d *Dev) SetPixels(x, y, w, h int, data []byte) error {
	r := image.Rect(x, y, x+w, y+h)
	if !r.In(image.Rect(0, 0, Size, Size)) {
		return fmt.Errorf("crowpi2: rectangle %v outside the matrix", r)
	}
	if len(data) != w*h*3 {
		return fmt.Errorf("crowpi2: got %d bytes for %dx%d pixels", len(data), w, h)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for row := 0; row < h; row++ {
		line := data[row*w*3 : (row+1)*w*3]
		for col := 0; col < w; {
			px := line[col*3 : col*3+3]
			n := 1
			for col+n < w && string(line[(col+n)*3:(col+n)*3+3]) == string(px) {
				n++
			}
			if err := d.fill((y+row)*Size+x+col, n, px); err != nil {
				return wrap(err)
			}
			col += n
		}
	}
	d.buf[offFunc] = funcShow
	return wrap(d.send())
}

// fill sets count LEDs from pos to px.
func (d *Dev) fill(pos, count int, px []byte) error {
	if count == 1 {
		d.buf[offFunc] = funcSetPixelColor
		d.buf[offPos] = byte(pos)
	} else {
		d.buf[offFunc] = funcFill
		d.buf[offFirst] = byte(pos)
		d.buf[offCount] = byte(count)
	}
	d.buf[offR], d.buf[offG], d.buf[offB] = px[0], px[1], px[2]
	return d.send()
}

// send writes the pending command once the controller is ready and clears
// it.
func (d *Dev) send() error {
	if wait := d.busyUntil.Sub(now()); wait > 0 {
		sleep(wait)
	}
	d.buf[offLen] = commandLen - offLen
	err := d.d.Tx(d.buf[:], nil)
	d.busyUntil = now().Add(busyTime)
	d.buf = [commandLen]byte{}
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("crowpi2.Dev{%s}", d.d.String())
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}
