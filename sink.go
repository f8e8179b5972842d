package gfxhal

// Sink is the hardware facing side of a FrameBuffer: a display controller
// driver, an LED strip, a framebuffer device or an emulator.
//
// A FrameBuffer calls a Sink only while holding its lock, so implementations
// need not be safe for concurrent use. A Sink that owns OS resources may also
// implement io.Closer; FrameBuffer.Close calls it.
type Sink interface {
	// Geometry is queried once, when the FrameBuffer is created.
	Geometry() Geometry

	// SetPixels writes a packed rectangle. x and w are multiples of
	// Geometry().XGranularity and data holds exactly
	// Format.ByteLen(w*h) bytes, rows back to back. data is only valid for
	// the duration of the call.
	SetPixels(x, y, w, h int, data []byte) error
}
