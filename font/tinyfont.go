package font

import (
	"image/color"

	"github.com/flavioheleno/gfxhal"
	"tinygo.org/x/tinyfont"
)

// Tinyfont adapts a tinyfont.Fonter. Glyphs are rasterized on first use by
// drawing them onto an in-memory drivers.Displayer.
//
// Ascent is the number of cell rows above the font baseline and Descent the
// number below it, so the baseline handed to gfxhal.RenderText is Descent
// pixels below the text baseline. Pixels outside the cell or the glyph
// advance are dropped, as are columns past maxGlyphWidth.
//
// A Tinyfont caches glyphs and is not safe for concurrent use.
type Tinyfont struct {
	Fonter  tinyfont.Fonter
	Ascent  int
	Descent int

	cache map[rune]BitmapGlyph
}

var _ gfxhal.Font = (*Tinyfont)(nil)

// NewTinyfont returns an adapter whose cell is the font line height, with
// descent rows below the baseline.
func NewTinyfont(f tinyfont.Fonter, descent int) *Tinyfont {
	return &Tinyfont{
		Fonter:  f,
		Ascent:  int(f.GetYAdvance()) - descent,
		Descent: descent,
	}
}

// Glyph implements gfxhal.Font. A rune the font maps to a different glyph
// (tinyfont fonts commonly substitute a default) reports false.
func (t *Tinyfont) Glyph(r rune) (gfxhal.Glyph, bool) {
	if g, ok := t.cache[r]; ok {
		return g, true
	}
	tg := t.Fonter.GetGlyph(r)
	info := tg.Info()
	if info.Rune != r {
		return nil, false
	}
	c := capture{
		w:    min(int(info.XAdvance), maxGlyphWidth),
		rows: make([]uint32, t.CellHeight()),
	}
	tg.Draw(&c, 0, int16(t.Ascent), color.RGBA{A: 0xFF})
	g := BitmapGlyph{W: c.w, Rows: c.rows}
	if t.cache == nil {
		t.cache = map[rune]BitmapGlyph{}
	}
	t.cache[r] = g
	return g, true
}

// CellWidth implements gfxhal.Font. It is the advance of '0', the usual
// width of a missing glyph cell.
func (t *Tinyfont) CellWidth() int {
	_, w := tinyfont.LineWidth(t.Fonter, "0")
	return int(w)
}

// CellHeight implements gfxhal.Font.
func (t *Tinyfont) CellHeight() int {
	return t.Ascent + t.Descent
}

// maxGlyphWidth is the number of columns a BitmapGlyph row holds.
const maxGlyphWidth = 32

// capture is a drivers.Displayer recording set pixels as glyph rows.
type capture struct {
	w    int
	rows []uint32
}

func (c *capture) Size() (x, y int16) {
	return int16(c.w), int16(len(c.rows))
}

func (c *capture) SetPixel(x, y int16, _ color.RGBA) {
	if x < 0 || int(x) >= c.w || y < 0 || int(y) >= len(c.rows) {
		return
	}
	c.rows[y] |= 1 << uint(c.w-1-int(x))
}

func (c *capture) Display() error {
	return nil
}
