// Package font provides gfxhal.Font implementations: an in-memory bitmap
// font and adapters for tinyfont and golang.org/x/image basicfont faces.
package font

import (
	"strings"

	"github.com/flavioheleno/gfxhal"
)

// Bitmap is a font held as one bit mask per row.
type Bitmap struct {
	Width  int // advance of runes without a glyph
	Height int
	Glyphs map[rune]BitmapGlyph
}

var _ gfxhal.Font = (*Bitmap)(nil)

// BitmapGlyph is one glyph of a Bitmap font. Bit Width-1-x of Rows[y] is the
// pixel at (x, y).
type BitmapGlyph struct {
	W    int
	Rows []uint32
}

// ParseGlyph builds a glyph from rows drawn with '#' for set pixels, for
// example
//
//	ParseGlyph(
//		".#.",
//		"#.#",
//		"###",
//	)
//
// The glyph is as wide as its longest row.
func ParseGlyph(rows ...string) BitmapGlyph {
	g := BitmapGlyph{Rows: make([]uint32, len(rows))}
	for _, r := range rows {
		g.W = max(g.W, len(r))
	}
	for y, r := range rows {
		for x := 0; x < len(r); x++ {
			if r[x] == '#' {
				g.Rows[y] |= 1 << uint(g.W-1-x)
			}
		}
	}
	return g
}

// Width implements gfxhal.Glyph.
func (g BitmapGlyph) Width() int {
	return g.W
}

// Pixel implements gfxhal.Glyph.
func (g BitmapGlyph) Pixel(x, y int) bool {
	if x < 0 || x >= g.W || y < 0 || y >= len(g.Rows) {
		return false
	}
	return g.Rows[y]&(1<<uint(g.W-1-x)) != 0
}

func (g BitmapGlyph) String() string {
	var b strings.Builder
	for y := range g.Rows {
		for x := 0; x < g.W; x++ {
			if g.Pixel(x, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Glyph implements gfxhal.Font.
func (f *Bitmap) Glyph(r rune) (gfxhal.Glyph, bool) {
	g, ok := f.Glyphs[r]
	if !ok {
		return nil, false
	}
	return g, true
}

// CellWidth implements gfxhal.Font.
func (f *Bitmap) CellWidth() int {
	return f.Width
}

// CellHeight implements gfxhal.Font.
func (f *Bitmap) CellHeight() int {
	return f.Height
}
