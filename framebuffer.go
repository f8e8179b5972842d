package gfxhal

import (
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"time"
)

// Defaults used when Opts is nil. A zero MaxTransferSize also selects the
// default.
const (
	DefaultTransferDelay   = 15 * time.Millisecond
	DefaultMaxTransferSize = 4000
)

// ErrClosed is returned by every operation on a closed FrameBuffer.
var ErrClosed = errors.New("gfxhal: closed")

// Opts is the configuration for a FrameBuffer.
type Opts struct {
	// Rotation between drawing coordinates and the panel. Fixed for the
	// lifetime of the FrameBuffer.
	Rotation Rotation

	// TransferDelay selects the flush policy: 0 flushes inside every
	// mutation, a positive value coalesces mutations for that long and a
	// negative value only transfers on Flush. Use ManualFlush for the latter.
	// Unlike the other fields, zero is not the default: nil Opts select
	// DefaultTransferDelay, a non-nil Opts must set it explicitly.
	TransferDelay time.Duration

	// MaxTransferSize caps the bytes handed to one Sink.SetPixels call
	// (default: DefaultMaxTransferSize). A single row is never split, so a
	// row wider than the cap is sent on its own.
	MaxTransferSize int

	// Observer receives trace points (optional).
	Observer Observer
}

// ManualFlush is a TransferDelay that disables automatic transfers.
const ManualFlush time.Duration = -1

// stopper is the part of *time.Timer the FrameBuffer needs.
type stopper interface {
	Stop() bool
}

func afterFunc(d time.Duration, f func()) stopper {
	return time.AfterFunc(d, f)
}

// FrameBuffer keeps an off-screen copy of the display in 24 bit RGB, tracks
// the modified area and transfers it to a Sink in the sink's wire format.
//
// It is safe for concurrent use.
type FrameBuffer struct {
	mu sync.Mutex

	sink     Sink
	geom     Geometry
	rotation Rotation
	obs      Observer

	// Logical (post rotation) dimensions.
	width, height int

	pix   []uint32 // canonical 0xRRGGBB, row-major in logical coordinates
	xfer  []byte   // reused transfer buffer
	dirty image.Rectangle

	delay   time.Duration
	pending stopper
	closed  bool

	afterFunc func(time.Duration, func()) stopper
}

// New creates a FrameBuffer drawing to sink.
//
// opts can be nil to use defaults (no rotation, 15ms coalescing, 4000 byte
// transfers).
func New(sink Sink, opts *Opts) (*FrameBuffer, error) {
	if sink == nil {
		return nil, errors.New("gfxhal: nil sink")
	}
	if opts == nil {
		opts = &Opts{TransferDelay: DefaultTransferDelay}
	}
	if opts.Rotation > Rotate270 {
		return nil, fmt.Errorf("gfxhal: invalid rotation %v", opts.Rotation)
	}
	geom := sink.Geometry()
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	maxTransfer := opts.MaxTransferSize
	if maxTransfer <= 0 {
		maxTransfer = DefaultMaxTransferSize
	}
	size := min(maxTransfer, geom.Format.ByteLen(geom.Width*geom.Height))
	size = max(size, geom.RowBytes())

	fb := &FrameBuffer{
		sink:      sink,
		geom:      geom,
		rotation:  opts.Rotation,
		obs:       opts.Observer,
		width:     geom.Width,
		height:    geom.Height,
		pix:       make([]uint32, geom.Width*geom.Height),
		xfer:      make([]byte, size),
		delay:     opts.TransferDelay,
		afterFunc: afterFunc,
	}
	if opts.Rotation.swapsAxes() {
		fb.width, fb.height = geom.Height, geom.Width
	}
	return fb, nil
}

// Bounds returns the drawing area in logical coordinates.
func (fb *FrameBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.width, fb.height)
}

// Size returns the logical width and height.
func (fb *FrameBuffer) Size() (w, h int) {
	return fb.width, fb.height
}

// Geometry returns the geometry reported by the sink.
func (fb *FrameBuffer) Geometry() Geometry {
	return fb.geom
}

// Rotation returns the configured rotation.
func (fb *FrameBuffer) Rotation() Rotation {
	return fb.rotation
}

// Dirty returns the logical area that has not been transferred yet.
func (fb *FrameBuffer) Dirty() image.Rectangle {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.dirty
}

// RGBAt returns the canonical color at (x, y), or 0 outside the bounds.
func (fb *FrameBuffer) RGBAt(x, y int) uint32 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return 0
	}
	return fb.pix[y*fb.width+x]
}

// SetPixel sets the pixel at (x, y). Coordinates outside the display are
// ignored.
func (fb *FrameBuffer) SetPixel(x, y int, rgb uint32) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return ErrClosed
	}
	if x < 0 || y < 0 || x >= fb.width || y >= fb.height {
		return nil
	}
	fb.pix[y*fb.width+x] = rgb
	return fb.markModified(image.Rect(x, y, x+1, y+1))
}

// FillRect fills the w x h rectangle at (x, y), clipped to the display.
func (fb *FrameBuffer) FillRect(x, y, w, h int, rgb uint32) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return ErrClosed
	}
	r := image.Rect(x, y, x+w, y+h).Intersect(fb.Bounds())
	if r.Empty() || w <= 0 || h <= 0 {
		return nil
	}
	for ty := r.Min.Y; ty < r.Max.Y; ty++ {
		row := fb.pix[ty*fb.width+r.Min.X : ty*fb.width+r.Max.X]
		for i := range row {
			row[i] = rgb
		}
	}
	return fb.markModified(r)
}

// Clear fills the whole display with one color.
func (fb *FrameBuffer) Clear(rgb uint32) error {
	return fb.FillRect(0, 0, fb.width, fb.height, rgb)
}

// DrawImage copies a row-major w x h block of 0xRRGGBB pixels to (x, y).
// Parts that fall outside the display are ignored.
//
// It panics if pix holds fewer than w*h pixels.
func (fb *FrameBuffer) DrawImage(x, y, w, h int, pix []uint32) error {
	if w > 0 && h > 0 && len(pix) < w*h {
		panic(fmt.Sprintf("gfxhal: %d pixels for a %dx%d image", len(pix), w, h))
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return ErrClosed
	}
	r := image.Rect(x, y, x+w, y+h).Intersect(fb.Bounds())
	if r.Empty() || w <= 0 || h <= 0 {
		return nil
	}
	for ty := r.Min.Y; ty < r.Max.Y; ty++ {
		src := (ty-y)*w + r.Min.X - x
		copy(fb.pix[ty*fb.width+r.Min.X:ty*fb.width+r.Max.X], pix[src:src+r.Dx()])
	}
	return fb.markModified(r)
}

// Flush transfers the modified area now. It is a no-op when nothing changed.
func (fb *FrameBuffer) Flush() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return ErrClosed
	}
	return fb.flush()
}

// SetTransferDelay changes the flush policy; see Opts.TransferDelay. A flush
// that is already scheduled still runs.
func (fb *FrameBuffer) SetTransferDelay(d time.Duration) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.delay = d
}

// Close drops any scheduled flush without running it and closes the sink if
// it implements io.Closer. Call Flush first to keep pending changes.
func (fb *FrameBuffer) Close() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.closed {
		return nil
	}
	fb.closed = true
	if fb.pending != nil {
		fb.pending.Stop()
		fb.pending = nil
	}
	if c, ok := fb.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// markModified unions r into the dirty area and applies the flush policy.
// Must be called with mu held.
func (fb *FrameBuffer) markModified(r image.Rectangle) error {
	fb.dirty = fb.dirty.Union(r)
	switch {
	case fb.delay == 0:
		return fb.flush()
	case fb.delay > 0 && fb.pending == nil:
		fb.pending = fb.afterFunc(fb.delay, fb.scheduledFlush)
	}
	return nil
}

// scheduledFlush runs on the timer goroutine.
func (fb *FrameBuffer) scheduledFlush() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.pending = nil
	if fb.closed {
		return
	}
	// Errors are reported to the observer; the area stays dirty.
	_ = fb.flush()
}

// flush transfers the dirty area. Must be called with mu held.
func (fb *FrameBuffer) flush() error {
	if fb.dirty.Empty() {
		return nil
	}
	dirty := fb.dirty
	err := fb.transfer(fb.physicalScan(dirty))
	if err == nil {
		fb.dirty = image.Rectangle{}
	}
	if fb.obs != nil {
		fb.obs.Flushed(dirty, err)
	}
	return err
}

// physicalScan maps a logical area to the panel and widens it to the sink
// granularity.
func (fb *FrameBuffer) physicalScan(r image.Rectangle) scan {
	p := fb.rotation.physical(r, fb.width, fb.height)
	g := fb.geom.XGranularity
	p.Min.X = p.Min.X / g * g
	p.Max.X = (p.Max.X + g - 1) / g * g
	return fb.rotation.scanFor(p, fb.width, fb.height)
}

// transfer packs the rows of s and sends them in chunks of whole rows.
func (fb *FrameBuffer) transfer(s scan) error {
	f := fb.geom.Format
	w, h := s.rect.Dx(), s.rect.Dy()
	bitsPerRow := w * f.BitCount()
	capacity := len(fb.xfer) * 8

	src := s.start
	bitOffset := 0
	for i := 0; i < h; i++ {
		bitOffset += f.WriteRGBStride(fb.pix, src, s.strideX, fb.xfer, bitOffset, w)
		src += s.strideY
		if i == h-1 || bitOffset+bitsPerRow > capacity {
			rows := bitOffset / bitsPerRow
			y := s.rect.Min.Y + i + 1 - rows
			n := bitOffset / 8
			if err := fb.sink.SetPixels(s.rect.Min.X, y, w, rows, fb.xfer[:n]); err != nil {
				return fmt.Errorf("gfxhal: transfer of %dx%d at (%d,%d) failed: %w", w, rows, s.rect.Min.X, y, err)
			}
			if fb.obs != nil {
				fb.obs.Transferred(image.Rect(s.rect.Min.X, y, s.rect.Max.X, y+rows), n)
			}
			bitOffset = 0
		}
	}
	return nil
}

// String returns a string representation of the frame buffer.
func (fb *FrameBuffer) String() string {
	return fmt.Sprintf("gfxhal.FrameBuffer{%dx%d, %v}", fb.width, fb.height, fb.rotation)
}
