// Package window shows a gfxhal.Sink in a desktop window, for developing
// display code without hardware.
//
// Transfers update an in-memory panel; Run opens the window and presents the
// panel until the window or the Dev is closed. The window needs cgo.
package window

import (
	"fmt"
	"image"
	"sync"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
)

// Opts is the configuration for the window.
type Opts struct {
	// Title is the window title (default: "gfxhal").
	Title string

	// Scale is the size of a panel pixel in window pixels (default: 2).
	Scale int
}

// Dev is a window sink.
type Dev struct {
	mu     sync.Mutex
	geom   gfxhal.Geometry
	panel  *image.RGBA
	title  string
	scale  int
	closed bool
}

var _ gfxhal.Sink = (*Dev)(nil)

// New returns a w x h window sink. opts can be nil to use defaults.
func New(w, h int, opts *Opts) *Dev {
	d := &Dev{
		geom:  gfxhal.NewGeometry(w, h, pixfmt.RGB888),
		panel: image.NewRGBA(image.Rect(0, 0, w, h)),
		title: "gfxhal",
		scale: 2,
	}
	if opts != nil {
		if opts.Title != "" {
			d.title = opts.Title
		}
		if opts.Scale > 0 {
			d.scale = opts.Scale
		}
	}
	for i := 3; i < len(d.panel.Pix); i += 4 {
		d.panel.Pix[i] = 0xFF
	}
	return d
}

// Geometry implements gfxhal.Sink.
func (d *Dev) Geometry() gfxhal.Geometry {
	return d.geom
}

// SetPixels implements gfxhal.Sink.
func (d *Dev) SetPixels(x, y, w, h int, data []byte) error {
	r := image.Rect(x, y, x+w, y+h)
	if !r.In(d.panel.Rect) {
		return fmt.Errorf("window: rectangle %v outside %v", r, d.geom)
	}
	if len(data) != w*h*3 {
		return fmt.Errorf("window: got %d bytes for %dx%d pixels", len(data), w, h)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	src := 0
	for j := y; j < y+h; j++ {
		dst := d.panel.PixOffset(x, j)
		for i := 0; i < w; i++ {
			copy(d.panel.Pix[dst:dst+3], data[src:src+3])
			dst += 4
			src += 3
		}
	}
	return nil
}

// snapshot copies the panel into dst, which has the panel size.
func (d *Dev) snapshot(dst []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(dst, d.panel.Pix)
}

// isClosed reports whether Close was called.
func (d *Dev) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Close implements io.Closer. A running window exits at its next update.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("window.Dev{%q, %dx%d}", d.title, d.geom.Width, d.geom.Height)
}
