package ssd1322

import (
	"image"
	"testing"
	"time"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
	"github.com/flavioheleno/gfxhal/sinktest"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
)

func init() {
	sleep = func(time.Duration) {}
}

func tx(b ...byte) conntest.IO {
	return conntest.IO{W: b}
}

// initOps is the initialization sequence of an 8x2 panel.
func initOps(remap1, remap2 byte) []conntest.IO {
	return []conntest.IO{
		tx(0xFD), tx(0x12),
		tx(0xAE),
		tx(0xB3), tx(0xF2),
		tx(0xCA), tx(0x01),
		tx(0xA2), tx(0x00),
		tx(0xA1), tx(0x00),
		tx(0xA0), tx(remap1, remap2),
		tx(0xAB), tx(0x01),
		tx(0xB4), tx(0xA0, 0xFD),
		tx(0xC1), tx(0xFF),
		tx(0xC7), tx(0x0F),
		tx(0xB9),
		tx(0xB1), tx(0xE2),
		tx(0xD1), tx(0x82, 0x20),
		tx(0xBB), tx(0x1F),
		tx(0xB6), tx(0x08),
		tx(0xBE), tx(0x07),
		tx(0xA6),
		tx(0xA9),
		// Clear RAM: (480-8)/2 = 236, columns 59..60.
		tx(0x15), tx(59, 60),
		tx(0x75), tx(0, 1),
		tx(0x5C),
		tx(0, 0, 0, 0, 0, 0, 0, 0),
		tx(0xAF),
	}
}

func newDev(t *testing.T, opts *Opts, ops ...conntest.IO) (*Dev, *spitest.Playback) {
	t.Helper()
	p := &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}}
	d, err := NewSPI(p, &gpiotest.Pin{N: "DC", Num: 25}, opts)
	if err != nil {
		t.Fatalf("NewSPI() error = %v", err)
	}
	return d, p
}

func TestOptsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts *Opts
	}{
		{"width not a multiple of 4", &Opts{W: 254, H: 64}},
		{"odd width", &Opts{W: 255, H: 64}},
		{"width zero", &Opts{W: 0, H: 64}},
		{"width > 480", &Opts{W: 512, H: 64}},
		{"height zero", &Opts{W: 256, H: 0}},
		{"height > 128", &Opts{W: 256, H: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
			if _, err := NewSPI(p, &gpiotest.Pin{N: "DC"}, tt.opts); err == nil {
				t.Error("expected error but didn't get one")
			}
		})
	}
}

func TestNewSPIInit(t *testing.T) {
	tests := []struct {
		name           string
		opts           *Opts
		remap1, remap2 byte
	}{
		{"default remap", &Opts{W: 8, H: 2}, 0x14, 0x11},
		{"rotated", &Opts{W: 8, H: 2, Rotated: true}, 0x06, 0x11},
		{"swap top bottom", &Opts{W: 8, H: 2, SwapTopBottom: true}, 0x14, 0x13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, p := newDev(t, tt.opts, initOps(tt.remap1, tt.remap2)...)
			if err := p.Close(); err != nil {
				t.Errorf("playback not consumed: %v", err)
			}
			want := gfxhal.NewGeometryAligned(8, 2, pixfmt.Gray4, 4)
			if got := d.Geometry(); got != want {
				t.Errorf("Geometry() = %+v, want %+v", got, want)
			}
			if err := d.Geometry().Validate(); err != nil {
				t.Errorf("Geometry().Validate() = %v", err)
			}
		})
	}
}

func TestReset(t *testing.T) {
	rst := &gpiotest.Pin{N: "RST", Num: 27}
	_, p := newDev(t, &Opts{W: 8, H: 2, RST: rst}, initOps(0x14, 0x11)...)
	if err := p.Close(); err != nil {
		t.Errorf("playback not consumed: %v", err)
	}
	if rst.L != gpio.High {
		t.Errorf("RST = %v after init, want High", rst.L)
	}
}

func TestDevColumnOffset(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		wantOffset int
	}{
		{"256 width", 256, 112}, // (480 - 256) / 2 = 112
		{"128 width", 128, 176}, // (480 - 128) / 2 = 176
		{"480 width (full)", 480, 0},
		{"64 width", 64, 208},  // (480 - 64) / 2 = 208
		{"252 width", 252, 112}, // 114 rounded down to a column address
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := columnOffset(tt.width); got != tt.wantOffset {
				t.Errorf("columnOffset(%d) = %d, want %d", tt.width, got, tt.wantOffset)
			}
		})
	}
}

func TestSetPixels(t *testing.T) {
	ops := append(initOps(0x14, 0x11),
		tx(0x15), tx(60, 60),
		tx(0x75), tx(1, 1),
		tx(0x5C),
		tx(0xF0, 0x0F),
	)
	d, p := newDev(t, &Opts{W: 8, H: 2}, ops...)

	if err := d.SetPixels(4, 1, 4, 1, []byte{0xF0, 0x0F}); err != nil {
		t.Fatalf("SetPixels() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("playback not consumed: %v", err)
	}
}

func TestSetPixelsValidation(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
		n          int
	}{
		{"outside", 4, 0, 8, 1, 4},
		{"unaligned x", 2, 0, 4, 1, 2},
		{"unaligned width", 0, 0, 6, 1, 3},
		{"short buffer", 0, 0, 8, 1, 3},
		{"long buffer", 0, 0, 8, 1, 5},
	}

	d, _ := newDev(t, &Opts{W: 8, H: 2}, initOps(0x14, 0x11)...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.SetPixels(tt.x, tt.y, tt.w, tt.h, make([]byte, tt.n)); err == nil {
				t.Error("expected error but didn't get one")
			}
		})
	}
}

func TestFrameBuffer(t *testing.T) {
	ops := append(initOps(0x14, 0x11),
		tx(0x15), tx(59, 59),
		tx(0x75), tx(0, 0),
		tx(0x5C),
		tx(0x0F, 0x00),
	)
	d, p := newDev(t, &Opts{W: 8, H: 2}, ops...)
	fb, err := gfxhal.New(d, &gfxhal.Opts{})
	if err != nil {
		t.Fatal(err)
	}
	// A single pixel is widened to the 4 pixel column unit.
	if err := fb.SetPixel(1, 0, 0xFFFFFF); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("playback not consumed: %v", err)
	}
}

func TestDevHalt(t *testing.T) {
	ops := append(initOps(0x14, 0x11), tx(0xAE))
	dev, p := newDev(t, &Opts{W: 8, H: 2}, ops...)

	if dev.halted {
		t.Error("device should not be halted initially")
	}
	if err := dev.Halt(); err != nil {
		t.Fatalf("Halt() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("playback not consumed: %v", err)
	}

	// Test that operations fail when halted
	if err := dev.SetContrast(100); err == nil {
		t.Error("SetContrast should fail when halted")
	}
	if err := dev.Invert(true); err == nil {
		t.Error("Invert should fail when halted")
	}
	if err := dev.SetPixels(0, 0, 4, 1, make([]byte, 2)); err == nil {
		t.Error("SetPixels should fail when halted")
	}
	if err := dev.ScrollHorizontal(0, 1, Speed10Frames, false); err == nil {
		t.Error("ScrollHorizontal should fail when halted")
	}
	if err := dev.StopScroll(); err == nil {
		t.Error("StopScroll should fail when halted")
	}
}

func TestCommands(t *testing.T) {
	ops := append(initOps(0x14, 0x11),
		tx(0xC1), tx(0x80),
		tx(0xA7),
		tx(0xA6),
		tx(0x27), tx(0x00, 0x00, byte(Speed100Frames), 0x01, 0x00, 0x00),
		tx(0x2F),
		tx(0x2E),
	)
	dev, p := newDev(t, &Opts{W: 8, H: 2}, ops...)

	if err := dev.SetContrast(0x80); err != nil {
		t.Errorf("SetContrast() error = %v", err)
	}
	if err := dev.Invert(true); err != nil {
		t.Errorf("Invert(true) error = %v", err)
	}
	if err := dev.Invert(false); err != nil {
		t.Errorf("Invert(false) error = %v", err)
	}
	if err := dev.ScrollHorizontal(0, 1, Speed100Frames, true); err != nil {
		t.Errorf("ScrollHorizontal() error = %v", err)
	}
	if err := dev.ScrollHorizontal(0, 2, Speed100Frames, true); err == nil {
		t.Error("ScrollHorizontal should fail for a row out of range")
	}
	if err := dev.StopScroll(); err != nil {
		t.Errorf("StopScroll() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("playback not consumed: %v", err)
	}
}

func TestChunkedData(t *testing.T) {
	// A zero payload in two bus transfers.
	ops := initOps(0x14, 0x11)
	ops = append(ops[:len(ops)-2], tx(0, 0, 0, 0, 0), tx(0, 0, 0), tx(0xAF))
	p := &spitest.Playback{Playback: conntest.Playback{Ops: ops, DontPanic: true}}
	d := &Dev{
		dc:           &gpiotest.Pin{N: "DC"},
		maxTx:        5,
		geom:         gfxhal.NewGeometryAligned(8, 2, pixfmt.Gray4, 4),
		columnOffset: columnOffset(8),
	}
	c, err := p.Connect(10000000, 0, 8)
	if err != nil {
		t.Fatal(err)
	}
	d.c = c
	if err := d.init(&Opts{W: 8, H: 2}); err != nil {
		t.Fatalf("init() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("playback not consumed: %v", err)
	}
}

func TestScrollSpeed(t *testing.T) {
	tests := []struct {
		name string
		val  ScrollSpeed
	}{
		{"Speed6Frames", Speed6Frames},
		{"Speed10Frames", Speed10Frames},
		{"Speed100Frames", Speed100Frames},
		{"Speed200Frames", Speed200Frames},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if byte(tt.val) >= 4 {
				t.Errorf("%s has invalid value %d", tt.name, byte(tt.val))
			}
		})
	}
}

func TestDevString(t *testing.T) {
	dev := &Dev{geom: gfxhal.NewGeometryAligned(256, 64, pixfmt.Gray4, 4)}
	want := "ssd1322.Dev{256x64}"
	if got := dev.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := dev.Bounds(), image.Rect(0, 0, 256, 64); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestRecorderMatchesPanel(t *testing.T) {
	// The packed layout handed to the controller is the one a recording sink
	// stores, two pixels per byte with the left one in the high nibble.
	rec := sinktest.New(gfxhal.NewGeometryAligned(8, 2, pixfmt.Gray4, 4))
	fb, err := gfxhal.New(rec, &gfxhal.Opts{})
	if err != nil {
		t.Fatal(err)
	}
	if err := fb.SetPixel(0, 0, 0xFFFFFF); err != nil {
		t.Fatal(err)
	}
	if got := rec.Calls[0].Data; len(got) != 2 || got[0] != 0xF0 || got[1] != 0x00 {
		t.Errorf("Data = % X, want F0 00", got)
	}
}
