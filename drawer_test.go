package gfxhal_test

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
)

func TestDrawRGBA(t *testing.T) {
	fb, rec := newFrameBuffer(t, gfxhal.NewGeometry(16, 8, pixfmt.RGB888), manual())

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	src.SetRGBA(3, 3, color.RGBA{B: 0xFF, A: 0xFF})

	if err := fb.Draw(image.Rect(2, 2, 6, 6), src, image.Point{}); err != nil {
		t.Fatal(err)
	}
	if got, want := fb.Dirty(), image.Rect(2, 2, 6, 6); got != want {
		t.Errorf("Dirty() = %v, want %v", got, want)
	}
	if err := fb.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := rec.RGBAt(2, 2); got != 0xFF0000 {
		t.Errorf("panel (2,2) = %#06x, want 0xff0000", got)
	}
	if got := rec.RGBAt(5, 5); got != 0x0000FF {
		t.Errorf("panel (5,5) = %#06x, want 0x0000ff", got)
	}
}

func TestDrawSourcePoint(t *testing.T) {
	fb, _ := newFrameBuffer(t, gfxhal.NewGeometry(16, 8, pixfmt.RGB888), manual())

	src := image.NewUniform(color.RGBA{G: 0x80, A: 0xFF})
	if err := fb.Draw(image.Rect(-2, 6, 3, 12), src, image.Pt(7, 7)); err != nil {
		t.Fatal(err)
	}
	if got, want := fb.Dirty(), image.Rect(0, 6, 3, 8); got != want {
		t.Errorf("Dirty() = %v, want %v", got, want)
	}
	if got := fb.RGBAt(2, 7); got != 0x008000 {
		t.Errorf("RGBAt(2, 7) = %#06x, want 0x008000", got)
	}
}

func TestDrawPackedImage(t *testing.T) {
	fb, _ := newFrameBuffer(t, gfxhal.NewGeometry(8, 8, pixfmt.RGB888), manual())

	src := pixfmt.NewImage(image.Rect(10, 10, 14, 14), pixfmt.RGB444)
	src.SetRGB(11, 10, 0xFFFFFF)
	if err := fb.Draw(image.Rect(0, 0, 4, 4), src, image.Pt(10, 10)); err != nil {
		t.Fatal(err)
	}
	if got := fb.RGBAt(1, 0); got != 0xFFFFFF {
		t.Errorf("RGBAt(1, 0) = %#06x, want 0xffffff", got)
	}
	if got := fb.RGBAt(0, 0); got != 0 {
		t.Errorf("RGBAt(0, 0) = %#06x, want 0", got)
	}
}

func TestDrawOutside(t *testing.T) {
	fb, _ := newFrameBuffer(t, gfxhal.NewGeometry(8, 8, pixfmt.RGB888), manual())

	if err := fb.Draw(image.Rect(10, 10, 20, 20), image.NewRGBA(image.Rect(0, 0, 10, 10)), image.Point{}); err != nil {
		t.Fatal(err)
	}
	if d := fb.Dirty(); !d.Empty() {
		t.Errorf("Dirty() = %v, want empty", d)
	}
}

func TestColorModel(t *testing.T) {
	fb, _ := newFrameBuffer(t, gfxhal.NewGeometry(8, 8, pixfmt.RGB565), manual())

	c := fb.ColorModel().Convert(color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
	r, g, b, _ := c.RGBA()
	if r != 0xFFFF || g != 0xFFFF || b != 0xFFFF {
		t.Errorf("Convert(white) = %v, want white", c)
	}
}

func TestDisplayer(t *testing.T) {
	fb, rec := newFrameBuffer(t, gfxhal.NewGeometry(16, 8, pixfmt.RGB888), &gfxhal.Opts{
		Rotation:      gfxhal.Rotate90,
		TransferDelay: gfxhal.ManualFlush,
	})
	d := fb.Displayer()

	if x, y := d.Size(); x != 8 || y != 16 {
		t.Errorf("Size() = %d, %d, want 8, 16", x, y)
	}
	d.SetPixel(0, 0, color.RGBA{R: 0x12, G: 0x34, B: 0x56, A: 0xFF})
	d.SetPixel(-1, 0, color.RGBA{R: 0xFF, A: 0xFF})
	if n := rec.CallCount(); n != 0 {
		t.Fatalf("CallCount() = %d before Display, want 0", n)
	}
	if err := d.Display(); err != nil {
		t.Fatal(err)
	}
	// Logical (0,0) is physical (H-1, 0) at 90°.
	if got := rec.RGBAt(15, 0); got != 0x123456 {
		t.Errorf("panel (15,0) = %#06x, want 0x123456", got)
	}
}

func TestDisplayerReportsTransferErrorOnDisplay(t *testing.T) {
	fb, rec := newFrameBuffer(t, gfxhal.NewGeometry(4, 4, pixfmt.RGB888), &gfxhal.Opts{})
	d := fb.Displayer()
	errBus := errors.New("bus error")
	rec.Err = errBus

	d.SetPixel(1, 1, color.RGBA{R: 0xFF, A: 0xFF})
	if got, want := fb.Dirty(), image.Rect(1, 1, 2, 2); got != want {
		t.Fatalf("Dirty() = %v after a failed transfer, want %v", got, want)
	}
	if err := d.Display(); !errors.Is(err, errBus) {
		t.Errorf("Display() error = %v, want %v", err, errBus)
	}

	rec.Err = nil
	if err := d.Display(); err != nil {
		t.Fatalf("Display() error = %v", err)
	}
	if got := rec.RGBAt(1, 1); got != 0xFF0000 {
		t.Errorf("panel (1,1) = %#06x, want 0xff0000", got)
	}
}
