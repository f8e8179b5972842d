package gfxhal

import (
	"context"
	"image"
	"log/slog"
)

// Observer receives trace points from a FrameBuffer. Methods are called with
// the FrameBuffer lock held and must not call back into it.
type Observer interface {
	// Transferred is called after every successful Sink.SetPixels with the
	// physical rectangle and the number of bytes sent.
	Transferred(r image.Rectangle, n int)

	// Flushed is called at the end of every flush of a non-empty dirty
	// rectangle (logical coordinates). err is the transfer error, if any.
	Flushed(r image.Rectangle, err error)
}

// SlogObserver logs trace points to a structured logger. Transfers are logged
// at debug level, failed flushes at error level.
type SlogObserver struct {
	Logger *slog.Logger
}

// Transferred implements Observer.
func (o SlogObserver) Transferred(r image.Rectangle, n int) {
	o.logger().LogAttrs(context.Background(), slog.LevelDebug, "transfer",
		slog.String("rect", r.String()), slog.Int("bytes", n))
}

// Flushed implements Observer.
func (o SlogObserver) Flushed(r image.Rectangle, err error) {
	if err != nil {
		o.logger().LogAttrs(context.Background(), slog.LevelError, "flush failed",
			slog.String("rect", r.String()), slog.Any("err", err))
		return
	}
	o.logger().LogAttrs(context.Background(), slog.LevelDebug, "flush",
		slog.String("rect", r.String()))
}

func (o SlogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
