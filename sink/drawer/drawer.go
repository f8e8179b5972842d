// Package drawer turns any periph.io display.Drawer, such as the SSD1306,
// into a gfxhal.Sink.
//
// Transfers are unpacked into an in-memory panel and the changed rectangle is
// handed to the Drawer, which converts it to its own color model.
package drawer

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/display"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
)

// Opts is the configuration for the adapter.
type Opts struct {
	// Format is the packed format the FrameBuffer sends (default:
	// pixfmt.RGB888). A narrower format saves conversion work when the
	// Drawer has few colors.
	Format pixfmt.Format
}

// Dev adapts a display.Drawer.
type Dev struct {
	d     display.Drawer
	geom  gfxhal.Geometry
	panel *pixfmt.Image
}

var _ gfxhal.Sink = (*Dev)(nil)

// New returns a sink drawing on d, which must have its origin at (0,0).
// opts can be nil to use defaults.
func New(d display.Drawer, opts *Opts) (*Dev, error) {
	f := pixfmt.RGB888
	if opts != nil && opts.Format != (pixfmt.Format{}) {
		f = opts.Format
	}
	b := d.Bounds()
	if b.Min != (image.Point{}) {
		return nil, fmt.Errorf("drawer: bounds %v do not start at the origin", b)
	}
	g := gfxhal.NewGeometry(b.Dx(), b.Dy(), f)
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("drawer: %w", err)
	}
	return &Dev{d: d, geom: g, panel: pixfmt.NewImage(b, f)}, nil
}

// Geometry implements gfxhal.Sink.
func (s *Dev) Geometry() gfxhal.Geometry {
	return s.geom
}

// SetPixels implements gfxhal.Sink.
func (s *Dev) SetPixels(x, y, w, h int, data []byte) error {
	r := image.Rect(x, y, x+w, y+h)
	if !r.In(s.panel.Rect) {
		return fmt.Errorf("drawer: rectangle %v outside %v", r, s.panel.Rect)
	}
	if n := s.geom.Format.ByteLen(w * h); len(data) != n {
		return fmt.Errorf("drawer: got %d bytes for %dx%d pixels, want %d", len(data), w, h, n)
	}
	s.panel.SetRows(x, y, w, h, data)
	if err := s.d.Draw(r, s.panel, r.Min); err != nil {
		return fmt.Errorf("drawer: %s: %w", s.d, err)
	}
	return nil
}

// Close implements io.Closer; it halts the Drawer.
func (s *Dev) Close() error {
	return s.d.Halt()
}

// String returns a string representation of the device.
func (s *Dev) String() string {
	return fmt.Sprintf("drawer.Dev{%s}", s.d)
}
