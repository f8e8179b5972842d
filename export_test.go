package gfxhal

import "time"

type Stopper = stopper

// SetAfterFunc replaces the timer used for scheduled flushes.
func SetAfterFunc(fb *FrameBuffer, f func(time.Duration, func()) Stopper) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.afterFunc = f
}
