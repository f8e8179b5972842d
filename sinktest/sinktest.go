// Package sinktest implements a fake gfxhal.Sink that records every transfer
// and keeps the resulting panel memory.
package sinktest

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
)

// Call is one recorded Sink.SetPixels call.
type Call struct {
	X, Y, W, H int
	Data       []byte
}

// Rect returns the physical rectangle of the call.
func (c Call) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)
}

// Recorder is a gfxhal.Sink that validates and records transfers.
//
// Panel holds the panel memory as the transfers left it.
type Recorder struct {
	sync.Mutex
	Geom  gfxhal.Geometry
	Calls []Call
	Panel *pixfmt.Image

	// Err, when set, is returned by SetPixels instead of applying the
	// transfer.
	Err error

	// Closed is set by Close.
	Closed bool
}

// New returns a Recorder for a panel of the given geometry.
func New(g gfxhal.Geometry) *Recorder {
	return &Recorder{
		Geom:  g,
		Panel: pixfmt.NewImage(image.Rect(0, 0, g.Width, g.Height), g.Format),
	}
}

// Geometry implements gfxhal.Sink.
func (r *Recorder) Geometry() gfxhal.Geometry {
	return r.Geom
}

// SetPixels implements gfxhal.Sink.
func (r *Recorder) SetPixels(x, y, w, h int, data []byte) error {
	r.Lock()
	defer r.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if err := r.check(x, y, w, h, data); err != nil {
		return err
	}
	r.Calls = append(r.Calls, Call{X: x, Y: y, W: w, H: h, Data: append([]byte(nil), data...)})
	r.Panel.SetRows(x, y, w, h, data)
	return nil
}

// Close implements io.Closer.
func (r *Recorder) Close() error {
	r.Lock()
	defer r.Unlock()
	if r.Closed {
		return errors.New("sinktest: already closed")
	}
	r.Closed = true
	return nil
}

// Reset forgets the recorded calls.
func (r *Recorder) Reset() {
	r.Lock()
	defer r.Unlock()
	r.Calls = nil
}

// CallCount returns the number of recorded transfers.
func (r *Recorder) CallCount() int {
	r.Lock()
	defer r.Unlock()
	return len(r.Calls)
}

// Bytes returns the total number of bytes transferred.
func (r *Recorder) Bytes() int {
	r.Lock()
	defer r.Unlock()
	n := 0
	for _, c := range r.Calls {
		n += len(c.Data)
	}
	return n
}

// RGBAt returns the panel pixel at physical (x, y), expanded to 0xRRGGBB.
func (r *Recorder) RGBAt(x, y int) uint32 {
	r.Lock()
	defer r.Unlock()
	return r.Panel.RGBAt(x, y)
}

func (r *Recorder) check(x, y, w, h int, data []byte) error {
	g := r.Geom
	if w <= 0 || h <= 0 {
		return fmt.Errorf("sinktest: empty transfer %dx%d", w, h)
	}
	if x < 0 || x+w > g.Width {
		return fmt.Errorf("sinktest: x %d + width %d exceeds display width %d", x, w, g.Width)
	}
	if y < 0 || y+h > g.Height {
		return fmt.Errorf("sinktest: y %d + height %d exceeds display height %d", y, h, g.Height)
	}
	if x%g.XGranularity != 0 || w%g.XGranularity != 0 {
		return fmt.Errorf("sinktest: (%d, %d) is not aligned to %d pixels", x, w, g.XGranularity)
	}
	if want := g.Format.ByteLen(w * h); len(data) != want {
		return fmt.Errorf("sinktest: got %d bytes, want %d", len(data), want)
	}
	return nil
}
