// Package linuxfb writes to a Linux framebuffer device (/dev/fbN) as a
// gfxhal.Sink, such as the LED matrix of the Raspberry Pi Sense HAT.
//
// Framebuffer memory holds one little endian word per pixel with the channel
// positions reported by the kernel; pixels are converted from the packed
// gfxhal layout row by row.
package linuxfb

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
)

// SenseHatName is the framebuffer name of the Sense HAT LED matrix.
const SenseHatName = "RPi-Sense FB"

// sysfsRoot is replaced in tests.
var sysfsRoot = "/sys/class/graphics"

// File is the part of *os.File a Dev writes through.
type File interface {
	io.WriterAt
	io.Closer
}

// Field is the position of one color channel in a framebuffer word.
type Field struct {
	Offset, Length uint32
}

// Layout describes how pixels are stored in framebuffer memory.
type Layout struct {
	BitsPerPixel uint32
	Red          Field
	Green        Field
	Blue         Field

	// LineLength is the distance between rows in bytes; 0 means rows are
	// contiguous.
	LineLength uint32
}

// PackedLayout returns the layout of a framebuffer storing f in the smallest
// whole number of bytes, blue in the low bits.
func PackedLayout(f pixfmt.Format) Layout {
	return Layout{
		BitsPerPixel: uint32(f.ByteLen(1) * 8),
		Red:          Field{Offset: uint32(f.G + f.B), Length: uint32(f.R)},
		Green:        Field{Offset: uint32(f.B), Length: uint32(f.G)},
		Blue:         Field{Offset: 0, Length: uint32(f.B)},
	}
}

// Dev is a handle to a framebuffer.
type Dev struct {
	f      File
	name   string
	geom   gfxhal.Geometry
	layout Layout
	bpp    int // bytes per pixel
	row    []byte
}

var _ gfxhal.Sink = (*Dev)(nil)

// NewFile returns a Dev writing a w x h framebuffer with the given layout to
// f. Dev takes ownership of f.
func NewFile(f File, w, h int, l Layout) (*Dev, error) {
	if w <= 0 || h <= 0 {
		return nil, errors.NotValidf("size %dx%d", w, h)
	}
	if l.BitsPerPixel == 0 || l.BitsPerPixel%8 != 0 || l.BitsPerPixel > 32 {
		return nil, errors.NotSupportedf("%d bits per pixel", l.BitsPerPixel)
	}
	for _, c := range []Field{l.Red, l.Green, l.Blue} {
		if c.Length > 8 || c.Offset+c.Length > l.BitsPerPixel {
			return nil, errors.NotSupportedf("channel at bit %d of length %d", c.Offset, c.Length)
		}
	}
	format := pixfmt.Format{R: uint8(l.Red.Length), G: uint8(l.Green.Length), B: uint8(l.Blue.Length)}
	bpp := int(l.BitsPerPixel / 8)
	if l.LineLength == 0 {
		l.LineLength = uint32(w * bpp)
	}
	if int(l.LineLength) < w*bpp {
		return nil, errors.NotValidf("line length %d for %d pixels", l.LineLength, w)
	}
	d := &Dev{
		f:      f,
		geom:   gfxhal.NewGeometry(w, h, format),
		layout: l,
		bpp:    bpp,
		row:    make([]byte, w*bpp),
	}
	if n, ok := f.(interface{ Name() string }); ok {
		d.name = n.Name()
	}
	return d, nil
}

// OpenSenseHat opens the Sense HAT LED matrix.
func OpenSenseHat() (*Dev, error) {
	path, err := FindByName(SenseHatName)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return Open(path)
}

// FindByName returns the device path of the framebuffer whose sysfs name is
// name.
func FindByName(name string) (string, error) {
	entries, err := os.ReadDir(sysfsRoot)
	if err != nil {
		return "", errors.Annotate(err, "list framebuffers")
	}
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "fb") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(sysfsRoot, e.Name(), "name"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return "", errors.Annotatef(err, "read name of %s", e.Name())
		}
		if strings.TrimSpace(string(b)) == name {
			return "/dev/" + e.Name(), nil
		}
	}
	return "", errors.NotFoundf("framebuffer %q", name)
}

// Geometry implements gfxhal.Sink.
func (d *Dev) Geometry() gfxhal.Geometry {
	return d.geom
}

// Layout returns the memory layout of the framebuffer.
func (d *Dev) Layout() Layout {
	return d.layout
}

// SetPixels implements gfxhal.Sink.
func (d *Dev) SetPixels(x, y, w, h int, data []byte) error {
	if x < 0 || y < 0 || w < 0 || h < 0 || x+w > d.geom.Width || y+h > d.geom.Height {
		return errors.NotValidf("rectangle %dx%d at (%d,%d)", w, h, x, y)
	}
	f := d.geom.Format
	if len(data) != f.ByteLen(w*h) {
		return errors.NotValidf("%d bytes for %dx%d pixels", len(data), w, h)
	}
	bits := f.BitCount()
	src := 0
	row := d.row[:w*d.bpp]
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			d.putWord(row[i*d.bpp:], pixfmt.ReadBits(data, src, bits))
			src += bits
		}
		off := int64(y+j)*int64(d.layout.LineLength) + int64(x*d.bpp)
		if _, err := d.f.WriteAt(row, off); err != nil {
			return errors.Annotatef(err, "write row %d", y+j)
		}
	}
	return nil
}

// putWord stores a packed pixel as a little endian framebuffer word.
func (d *Dev) putWord(dst []byte, v uint32) {
	f := d.geom.Format
	b := v & (1<<f.B - 1)
	g := (v >> f.B) & (1<<f.G - 1)
	r := v >> (f.G + f.B)
	word := r<<d.layout.Red.Offset | g<<d.layout.Green.Offset | b<<d.layout.Blue.Offset
	for i := 0; i < d.bpp; i++ {
		dst[i] = byte(word >> (8 * i))
	}
}

// Close implements io.Closer.
func (d *Dev) Close() error {
	return errors.Trace(d.f.Close())
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("linuxfb.Dev{%s, %v}", d.name, d.geom)
}
