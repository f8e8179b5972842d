package font

import (
	"image"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/flavioheleno/gfxhal"
)

// Face adapts a golang.org/x/image/font.Face, for example
// basicfont.Face7x13. Glyph masks are thresholded at half coverage and cached.
//
// The cell spans the face ascent and descent, so the baseline handed to
// gfxhal.RenderText is the descent below the text baseline.
//
// A Face is not safe for concurrent use.
type Face struct {
	face   xfont.Face
	ascent int
	height int
	width  int

	cache map[rune]BitmapGlyph
}

var _ gfxhal.Font = (*Face)(nil)

// NewFace returns the adapter for f.
func NewFace(f xfont.Face) *Face {
	m := f.Metrics()
	a := &Face{
		face:   f,
		ascent: m.Ascent.Ceil(),
		height: m.Ascent.Ceil() + m.Descent.Ceil(),
	}
	if adv, ok := f.GlyphAdvance('0'); ok {
		a.width = adv.Ceil()
	}
	return a
}

// Glyph implements gfxhal.Font. Runes a basicfont face would replace with
// U+FFFD report false.
func (a *Face) Glyph(r rune) (gfxhal.Glyph, bool) {
	if g, ok := a.cache[r]; ok {
		return g, true
	}
	if bf, ok := a.face.(*basicfont.Face); ok && !inRanges(bf, r) {
		return nil, false
	}
	dr, mask, mp, adv, ok := a.face.Glyph(fixed.P(0, a.ascent), r)
	if !ok {
		return nil, false
	}
	g := BitmapGlyph{
		W:    min(adv.Ceil(), maxGlyphWidth),
		Rows: make([]uint32, a.height),
	}
	cell := image.Rect(0, 0, g.W, a.height).Intersect(dr)
	for y := cell.Min.Y; y < cell.Max.Y; y++ {
		for x := cell.Min.X; x < cell.Max.X; x++ {
			_, _, _, alpha := mask.At(mp.X+x-dr.Min.X, mp.Y+y-dr.Min.Y).RGBA()
			if alpha >= 0x8000 {
				g.Rows[y] |= 1 << uint(g.W-1-x)
			}
		}
	}
	if a.cache == nil {
		a.cache = map[rune]BitmapGlyph{}
	}
	a.cache[r] = g
	return g, true
}

// CellWidth implements gfxhal.Font. It is the advance of '0'.
func (a *Face) CellWidth() int {
	return a.width
}

// CellHeight implements gfxhal.Font.
func (a *Face) CellHeight() int {
	return a.height
}

func inRanges(f *basicfont.Face, r rune) bool {
	for _, rg := range f.Ranges {
		if rg.Low <= r && r < rg.High {
			return true
		}
	}
	return false
}
