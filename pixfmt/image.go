package pixfmt

import (
	"image"
	"image/color"
)

// Image is an image whose rows are stored packed in a Format. Each row starts
// on a byte boundary; pixels within a row are packed without padding.
type Image struct {
	Pix    []byte          // Packed pixel data
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
	Format Format
}

// NewImage creates a zeroed packed image with the given bounds.
func NewImage(r image.Rectangle, f Format) *Image {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &Image{Rect: r, Format: f}
	}
	stride := f.ByteLen(w)
	return &Image{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
		Format: f,
	}
}

// ColorModel returns the quantizing model of the image format.
func (p *Image) ColorModel() color.Model {
	return p.Format.Model()
}

// Bounds returns the image bounds.
func (p *Image) Bounds() image.Rectangle {
	return p.Rect
}

// At implements image.Image.
func (p *Image) At(x, y int) color.Color {
	return ToColor(p.RGBAt(x, y))
}

// RGBAt returns the pixel at (x, y) expanded to 0xRRGGBB, or 0 outside the
// bounds.
func (p *Image) RGBAt(x, y int) uint32 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	return p.Format.ReadRGB(p.Pix, p.bitOffset(x, y))
}

// Set implements draw.Image.
func (p *Image) Set(x, y int, c color.Color) {
	p.SetRGB(x, y, FromColor(c))
}

// SetRGB stores a 0xRRGGBB value at (x, y). Out of bounds writes are ignored.
func (p *Image) SetRGB(x, y int, rgb uint32) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.Format.WriteRGB(rgb, p.Pix, p.bitOffset(x, y))
}

// SetRows copies w*h packed pixels from data into the rectangle at (x, y).
// data holds the rows back to back with no padding between them, the layout
// produced for a sink transfer.
func (p *Image) SetRows(x, y, w, h int, data []byte) {
	bits := p.Format.BitCount()
	src := 0
	for row := 0; row < h; row++ {
		dst := p.bitOffset(x, y+row)
		if dst&7 == 0 && src&7 == 0 && (w*bits)&7 == 0 {
			n := w * bits / 8
			copy(p.Pix[dst/8:dst/8+n], data[src/8:src/8+n])
			src += w * bits
			continue
		}
		for col := 0; col < w; col++ {
			WriteBits(ReadBits(data, src, bits), bits, p.Pix, dst)
			src += bits
			dst += bits
		}
	}
}

// bitOffset returns the bit position of the pixel at (x, y) in Pix.
func (p *Image) bitOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride*8 + (x-p.Rect.Min.X)*p.Format.BitCount()
}
