package font

import (
	"image/color"
	"testing"

	"golang.org/x/image/font/basicfont"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"github.com/flavioheleno/gfxhal"
	"github.com/flavioheleno/gfxhal/pixfmt"
	"github.com/flavioheleno/gfxhal/sinktest"
)

func TestParseGlyph(t *testing.T) {
	g := ParseGlyph(
		".#.",
		"#.#",
		"##",
	)
	if g.Width() != 3 {
		t.Errorf("Width() = %d, want 3", g.Width())
	}
	tests := []struct {
		x, y int
		want bool
	}{
		{0, 0, false},
		{1, 0, true},
		{0, 1, true},
		{2, 1, true},
		{1, 2, true},
		{2, 2, false},
		{-1, 0, false},
		{3, 1, false},
		{0, 3, false},
	}
	for _, tt := range tests {
		if got := g.Pixel(tt.x, tt.y); got != tt.want {
			t.Errorf("Pixel(%d, %d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
	want := ".#.\n#.#\n##.\n"
	if got := g.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestBitmap(t *testing.T) {
	f := &Bitmap{
		Width:  4,
		Height: 2,
		Glyphs: map[rune]BitmapGlyph{'x': ParseGlyph("#.#", ".#.")},
	}
	if _, ok := f.Glyph('y'); ok {
		t.Error("Glyph('y') reported a glyph")
	}
	g, ok := f.Glyph('x')
	if !ok || !g.Pixel(1, 1) {
		t.Errorf("Glyph('x') = %v, %v", g, ok)
	}
	if f.CellWidth() != 4 || f.CellHeight() != 2 {
		t.Errorf("cell = %dx%d, want 4x2", f.CellWidth(), f.CellHeight())
	}
}

func TestFace(t *testing.T) {
	f := NewFace(basicfont.Face7x13)

	if f.CellWidth() != 7 || f.CellHeight() != 13 {
		t.Errorf("cell = %dx%d, want 7x13", f.CellWidth(), f.CellHeight())
	}
	if _, ok := f.Glyph('一'); ok {
		t.Error("Glyph(U+4E00) reported a glyph")
	}
	space, ok := f.Glyph(' ')
	if !ok {
		t.Fatal("Glyph(' ') missing")
	}
	l, ok := f.Glyph('l')
	if !ok {
		t.Fatal("Glyph('l') missing")
	}
	if l.Width() != 7 {
		t.Errorf("Width() = %d, want 7", l.Width())
	}
	var spaceBits, lBits int
	for y := 0; y < 13; y++ {
		for x := 0; x < 7; x++ {
			if space.Pixel(x, y) {
				spaceBits++
			}
			if l.Pixel(x, y) {
				lBits++
			}
		}
	}
	if spaceBits != 0 {
		t.Errorf("space has %d pixels set", spaceBits)
	}
	if lBits == 0 {
		t.Error("'l' has no pixels set")
	}
	if l.Pixel(-1, 0) || l.Pixel(0, 13) {
		t.Error("Pixel outside the cell reported set")
	}
	if _, ok := f.cache['l']; !ok {
		t.Error("glyph was not cached")
	}
}

func TestFaceRenderText(t *testing.T) {
	rec := sinktest.New(gfxhal.NewGeometry(64, 16, pixfmt.RGB888))
	fb, err := gfxhal.New(rec, &gfxhal.Opts{TransferDelay: gfxhal.ManualFlush})
	if err != nil {
		t.Fatal(err)
	}
	w, err := fb.RenderText(0, 13, "Hi", NewFace(basicfont.Face7x13), 0xFFFFFF)
	if err != nil {
		t.Fatal(err)
	}
	if w != 14 {
		t.Errorf("RenderText() = %d, want 14", w)
	}
	d := fb.Dirty()
	if d.Empty() || d.Min.Y < 0 || d.Max.Y > 13 || d.Max.X > 14 {
		t.Errorf("Dirty() = %v, want within (0,0)-(14,13)", d)
	}
}

// boxFont is a tinyfont.Fonter with a single 3x3 glyph drawn with
// Adafruit GFX metrics.
type boxFont struct{}

type boxGlyph struct {
	r rune
}

func (g boxGlyph) Draw(d drivers.Displayer, x, y int16, c color.RGBA) {
	if g.r != 'o' {
		return
	}
	info := g.Info()
	for j := int16(0); j < 3; j++ {
		for i := int16(0); i < 3; i++ {
			if i == 1 && j == 1 {
				continue
			}
			d.SetPixel(x+int16(info.XOffset)+i, y+int16(info.YOffset)+j, c)
		}
	}
}

func (g boxGlyph) Info() tinyfont.GlyphInfo {
	if g.r != 'o' {
		return tinyfont.GlyphInfo{Rune: '?', XAdvance: 4}
	}
	return tinyfont.GlyphInfo{Rune: 'o', Width: 3, Height: 3, XAdvance: 4, XOffset: 0, YOffset: -3}
}

func (boxFont) GetGlyph(r rune) tinyfont.Glypher { return boxGlyph{r} }
func (boxFont) GetYAdvance() uint8              { return 5 }

func TestTinyfont(t *testing.T) {
	f := NewTinyfont(boxFont{}, 1)

	if f.CellHeight() != 5 {
		t.Errorf("CellHeight() = %d, want 5", f.CellHeight())
	}
	if f.CellWidth() != 4 {
		t.Errorf("CellWidth() = %d, want 4", f.CellWidth())
	}
	if _, ok := f.Glyph('x'); ok {
		t.Error("Glyph('x') reported a glyph")
	}
	g, ok := f.Glyph('o')
	if !ok {
		t.Fatal("Glyph('o') missing")
	}
	if g.Width() != 4 {
		t.Errorf("Width() = %d, want 4", g.Width())
	}
	// Ascent is 4, so the glyph occupies rows 1 to 3.
	want := "....\n###.\n#.#.\n###.\n....\n"
	if got := g.(BitmapGlyph).String(); got != want {
		t.Errorf("glyph =\n%s want\n%s", got, want)
	}
	if _, ok := f.cache['o']; !ok {
		t.Error("glyph was not cached")
	}
}
