//go:build cgo

package window

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Run opens the window and blocks until it is closed by the user or by
// Close. It must be called from the main goroutine.
func (d *Dev) Run() error {
	g := &game{d: d}
	ebiten.SetWindowTitle(d.title)
	ebiten.SetWindowSize(d.geom.Width*d.scale, d.geom.Height*d.scale)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(g)
	d.Close()
	return err
}

type game struct {
	d       *Dev
	img     *ebiten.Image
	scratch []byte
}

func (g *game) Update() error {
	if g.d.isClosed() {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.img == nil {
		g.img = ebiten.NewImage(g.d.geom.Width, g.d.geom.Height)
		g.scratch = make([]byte, len(g.d.panel.Pix))
	}
	g.d.snapshot(g.scratch)
	g.img.WritePixels(g.scratch)
	screen.DrawImage(g.img, nil)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.d.geom.Width, g.d.geom.Height
}
