package gfxhal

import (
	"image"
	"image/color"

	"github.com/flavioheleno/gfxhal/pixfmt"
	"periph.io/x/conn/v3/display"
	"tinygo.org/x/drivers"
)

var _ display.Drawer = (*FrameBuffer)(nil)

// ColorModel returns the color model of the sink format. Colors drawn through
// Draw are truncated to it on transfer.
func (fb *FrameBuffer) ColorModel() color.Model {
	return fb.geom.Format.Model()
}

// Draw draws src onto the frame buffer, like draw.Draw with draw.Src. The
// area is clipped to the display and transferred according to the flush
// policy.
func (fb *FrameBuffer) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return ErrClosed
	}
	r := dst.Intersect(fb.Bounds())
	// Clip against the source as draw.Draw does.
	sr := src.Bounds().Sub(sp).Add(dst.Min)
	r = r.Intersect(sr)
	if r.Empty() {
		return nil
	}
	dx, dy := sp.X-dst.Min.X, sp.Y-dst.Min.Y
	switch img := src.(type) {
	case *pixfmt.Image:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				fb.pix[y*fb.width+x] = img.RGBAt(x+dx, y+dy)
			}
		}
	case *image.RGBA:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				c := img.RGBAAt(x+dx, y+dy)
				fb.pix[y*fb.width+x] = uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
			}
		}
	default:
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				fb.pix[y*fb.width+x] = pixfmt.FromColor(src.At(x+dx, y+dy))
			}
		}
	}
	return fb.markModified(r)
}

// Halt closes the frame buffer. It implements conn.Resource.
func (fb *FrameBuffer) Halt() error {
	return fb.Close()
}

// Displayer returns a tinygo drivers.Displayer view of the frame buffer, so
// tinyfont and tinydraw can draw on it. Display flushes.
//
// drivers.Displayer.SetPixel cannot return an error, so a transfer that fails
// inside SetPixel (with a zero TransferDelay) is dropped there. The area stays
// dirty and the failure is returned by the next Display.
func (fb *FrameBuffer) Displayer() drivers.Displayer {
	return displayer{fb}
}

type displayer struct {
	fb *FrameBuffer
}

func (d displayer) Size() (x, y int16) {
	w, h := d.fb.Size()
	return int16(w), int16(h)
}

func (d displayer) SetPixel(x, y int16, c color.RGBA) {
	_ = d.fb.SetPixel(int(x), int(y), uint32(c.R)<<16|uint32(c.G)<<8|uint32(c.B))
}

func (d displayer) Display() error {
	return d.fb.Flush()
}
