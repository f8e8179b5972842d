// Package console renders a gfxhal.Sink on a terminal, for debugging without
// hardware.
//
// Each text cell shows two pixel rows as a lower half block: the background
// color is the upper pixel and the foreground color the lower one. The
// output only looks right when the terminal cell is about twice as tall as
// it is wide.
package console

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
)

// halfBlock is U+2584 LOWER HALF BLOCK.
const halfBlock = '▄'

// Dev is a terminal sink. It is either live, drawing every update on a
// tcell.Screen, or deferred, writing the final image as ANSI 24-bit color
// escapes on Close.
type Dev struct {
	mu     sync.Mutex
	geom   gfxhal.Geometry
	pix    []byte
	screen tcell.Screen
	out    io.Writer
}

var _ gfxhal.Sink = (*Dev)(nil)

// NewScreen returns a live sink drawing on s from its top left corner. The
// caller initializes s and finalizes it after closing the Dev.
func NewScreen(s tcell.Screen, w, h int) *Dev {
	return &Dev{screen: s, geom: gfxhal.NewGeometry(w, h, pixfmt.RGB888), pix: make([]byte, w*h*3)}
}

// NewWriter returns a sink that renders the whole image to out when closed.
func NewWriter(out io.Writer, w, h int) *Dev {
	return &Dev{out: out, geom: gfxhal.NewGeometry(w, h, pixfmt.RGB888), pix: make([]byte, w*h*3)}
}

// Geometry implements gfxhal.Sink.
func (d *Dev) Geometry() gfxhal.Geometry {
	return d.geom
}

// SetPixels implements gfxhal.Sink.
func (d *Dev) SetPixels(x, y, w, h int, data []byte) error {
	r := image.Rect(x, y, x+w, y+h)
	if !r.In(image.Rect(0, 0, d.geom.Width, d.geom.Height)) {
		return fmt.Errorf("console: rectangle %v outside %v", r, d.geom)
	}
	if len(data) != w*h*3 {
		return fmt.Errorf("console: got %d bytes for %dx%d pixels", len(data), w, h)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for j := 0; j < h; j++ {
		copy(d.pix[d.offset(x, y+j):], data[j*w*3:(j+1)*w*3])
	}
	if d.screen != nil {
		d.draw(r)
	}
	return nil
}

// draw updates the screen cells covering r.
func (d *Dev) draw(r image.Rectangle) {
	for row := r.Min.Y / 2; row < (r.Max.Y+1)/2; row++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			upper, lower := d.cell(x, row)
			style := tcell.StyleDefault.Background(upper).Foreground(lower)
			d.screen.SetContent(x, row, halfBlock, nil, style)
		}
	}
	d.screen.Show()
}

// cell returns the colors of the upper and lower pixel of a text cell. An
// odd height leaves the last lower pixel black.
func (d *Dev) cell(x, row int) (upper, lower tcell.Color) {
	upper = d.color(x, 2*row)
	lower = tcell.NewRGBColor(0, 0, 0)
	if 2*row+1 < d.geom.Height {
		lower = d.color(x, 2*row+1)
	}
	return upper, lower
}

func (d *Dev) color(x, y int) tcell.Color {
	p := d.pix[d.offset(x, y):]
	return tcell.NewRGBColor(int32(p[0]), int32(p[1]), int32(p[2]))
}

func (d *Dev) offset(x, y int) int {
	return (y*d.geom.Width + x) * 3
}

// Close implements io.Closer. A deferred sink writes its image.
func (d *Dev) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out == nil {
		return nil
	}
	return d.render(d.out)
}

// render writes every text row as ANSI escapes, resetting the attributes at
// the end of each line.
func (d *Dev) render(out io.Writer) error {
	w := bufio.NewWriter(out)
	for row := 0; row < (d.geom.Height+1)/2; row++ {
		for x := 0; x < d.geom.Width; x++ {
			upper, lower := d.cell(x, row)
			ur, ug, ub := upper.RGB()
			lr, lg, lb := lower.RGB()
			fmt.Fprintf(w, "\x1b[48;2;%d;%d;%dm\x1b[38;2;%d;%d;%dm%c", ur, ug, ub, lr, lg, lb, halfBlock)
		}
		w.WriteString("\x1b[0m\n")
	}
	return w.Flush()
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("console.Dev{%dx%d}", d.geom.Width, d.geom.Height)
}
