package gfxhal

import (
	"errors"
	"fmt"

	"github.com/flavioheleno/gfxhal/pixfmt"
)

// Geometry describes the physical surface a Sink drives.
type Geometry struct {
	Width  int
	Height int
	Format pixfmt.Format

	// XGranularity is the unit, in pixels, that x coordinates and widths
	// handed to Sink.SetPixels are a multiple of.
	XGranularity int
}

// NewGeometry returns a geometry with the smallest granularity that keeps
// every transfer row byte aligned.
func NewGeometry(w, h int, f pixfmt.Format) Geometry {
	return NewGeometryAligned(w, h, f, f.Granularity())
}

// NewGeometryAligned returns a geometry with an explicit granularity, for
// controllers that address memory in coarser units than one byte.
func NewGeometryAligned(w, h int, f pixfmt.Format, xGranularity int) Geometry {
	return Geometry{Width: w, Height: h, Format: f, XGranularity: xGranularity}
}

// Validate reports whether the geometry can be used by a FrameBuffer.
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("gfxhal: invalid size %dx%d", g.Width, g.Height)
	}
	if g.Format.BitCount() == 0 || g.Format.BitCount() > pixfmt.MaxBits {
		return fmt.Errorf("gfxhal: unsupported pixel format %v", g.Format)
	}
	if g.XGranularity <= 0 {
		return errors.New("gfxhal: granularity must be positive")
	}
	if (g.XGranularity*g.Format.BitCount())%8 != 0 {
		return fmt.Errorf("gfxhal: granularity %d does not byte align %v", g.XGranularity, g.Format)
	}
	if g.Width%g.XGranularity != 0 {
		return fmt.Errorf("gfxhal: width %d is not a multiple of granularity %d", g.Width, g.XGranularity)
	}
	return nil
}

// RowBytes returns the packed size of one full row.
func (g Geometry) RowBytes() int {
	return g.Format.ByteLen(g.Width)
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d %v", g.Width, g.Height, g.Format)
}
