package gfxhal

// Glyph is the bitmap of one character.
type Glyph interface {
	// Width returns the glyph width in pixels, which is also its advance.
	Width() int
	// Pixel reports whether the pixel at (x, y) is set. Coordinates outside
	// the glyph report false.
	Pixel(x, y int) bool
}

// Font is a bitmap font whose glyphs are CellHeight pixels high.
type Font interface {
	Glyph(r rune) (Glyph, bool)
	// CellWidth is the advance used for runes without a glyph.
	CellWidth() int
	CellHeight() int
}

// Canvas is what text is rendered onto. *FrameBuffer implements it.
type Canvas interface {
	SetPixel(x, y int, rgb uint32) error
	FillRect(x, y, w, h int, rgb uint32) error
}

// RenderCharacter draws r with its bottom row just above baselineY and
// returns the horizontal advance. Each glyph pixel becomes a scaleX x scaleY
// block. A rune missing from the font draws nothing and advances by
// f.CellWidth().
//
// Horizontal runs of set pixels are drawn with a single FillRect.
func RenderCharacter(c Canvas, x, baselineY int, r rune, f Font, rgb uint32, scaleX, scaleY int) (int, error) {
	g, ok := f.Glyph(r)
	if !ok {
		return f.CellWidth(), nil
	}
	w, h := g.Width(), f.CellHeight()
	for gy := 0; gy < h; gy++ {
		top := baselineY + (gy-h)*scaleY
		for gx := 0; gx < w; gx++ {
			if !g.Pixel(gx, gy) {
				continue
			}
			end := gx + 1
			for end < w && g.Pixel(end, gy) {
				end++
			}
			var err error
			if scaleX == 1 && scaleY == 1 && end == gx+1 {
				err = c.SetPixel(x+gx, top, rgb)
			} else {
				err = c.FillRect(x+gx*scaleX, top, (end-gx)*scaleX, scaleY, rgb)
			}
			if err != nil {
				return 0, err
			}
			gx = end
		}
	}
	return w * scaleX, nil
}

// RenderText draws s left to right starting at x and returns the total
// advance.
func RenderText(c Canvas, x, baselineY int, s string, f Font, rgb uint32, scaleX, scaleY int) (int, error) {
	width := 0
	for _, r := range s {
		n, err := RenderCharacter(c, x+width, baselineY, r, f, rgb, scaleX, scaleY)
		if err != nil {
			return width, err
		}
		width += n
	}
	return width, nil
}

// RenderText draws s at scale 1. See RenderText.
func (fb *FrameBuffer) RenderText(x, baselineY int, s string, f Font, rgb uint32) (int, error) {
	return RenderText(fb, x, baselineY, s, f, rgb, 1, 1)
}

// RenderCharacter draws one rune at scale 1. See RenderCharacter.
func (fb *FrameBuffer) RenderCharacter(x, baselineY int, r rune, f Font, rgb uint32) (int, error) {
	return RenderCharacter(fb, x, baselineY, r, f, rgb, 1, 1)
}
