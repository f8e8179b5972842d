package gfxhal

import (
	"fmt"
	"image"

	"tinygo.org/x/drivers"
)

// Rotation is the clockwise rotation applied between drawing coordinates and
// the physical panel.
type Rotation uint8

// Supported rotations.
const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

// RotationFromDrivers converts a tinygo drivers rotation.
func RotationFromDrivers(r drivers.Rotation) Rotation {
	switch r {
	case drivers.Rotation90:
		return Rotate90
	case drivers.Rotation180:
		return Rotate180
	case drivers.Rotation270:
		return Rotate270
	default:
		return Rotate0
	}
}

func (r Rotation) String() string {
	switch r {
	case Rotate0:
		return "0°"
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	}
	return fmt.Sprintf("Rotation(%d)", uint8(r))
}

// swapsAxes reports whether logical width maps to physical height.
func (r Rotation) swapsAxes() bool {
	return r == Rotate90 || r == Rotate270
}

// scan describes how a physical rectangle is read out of the logical,
// row-major canonical buffer.
type scan struct {
	rect    image.Rectangle // physical
	start   int             // canonical index of rect.Min
	strideX int             // index step per physical column
	strideY int             // index step per physical row
}

// physical maps a logical rectangle of a w x h buffer to the panel.
func (r Rotation) physical(l image.Rectangle, w, h int) image.Rectangle {
	switch r {
	case Rotate90:
		return image.Rect(h-l.Max.Y, l.Min.X, h-l.Min.Y, l.Max.X)
	case Rotate180:
		return image.Rect(w-l.Max.X, h-l.Max.Y, w-l.Min.X, h-l.Min.Y)
	case Rotate270:
		return image.Rect(l.Min.Y, w-l.Max.X, l.Max.Y, w-l.Min.X)
	}
	return l
}

// logical returns the logical coordinate shown at physical (px, py).
func (r Rotation) logical(px, py, w, h int) (x, y int) {
	switch r {
	case Rotate90:
		return py, h - 1 - px
	case Rotate180:
		return w - 1 - px, h - 1 - py
	case Rotate270:
		return w - 1 - py, px
	}
	return px, py
}

// strides returns the canonical index deltas for one physical step along x
// and along y.
func (r Rotation) strides(w int) (dx, dy int) {
	switch r {
	case Rotate90:
		return -w, 1
	case Rotate180:
		return -1, -w
	case Rotate270:
		return w, -1
	}
	return 1, w
}

// scanFor builds the read-out of physical rectangle p.
func (r Rotation) scanFor(p image.Rectangle, w, h int) scan {
	x, y := r.logical(p.Min.X, p.Min.Y, w, h)
	dx, dy := r.strides(w)
	return scan{rect: p, start: y*w + x, strideX: dx, strideY: dy}
}
