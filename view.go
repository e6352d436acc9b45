package lattice

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"golang.org/x/image/font/basicfont"
)

// Tile is a minimal Surface implementation backed by a solid color, enough to
// stand up a working dashboard without bringing your own widget toolkit. It
// supports lift styling and cloning, so it works with every proxy mode.
type Tile struct {
	rect   Rect
	Color  color.RGBA
	Label  string
	lifted bool
}

// NewTile creates a tile with the given fill color.
func NewTile(c color.RGBA) *Tile {
	return &Tile{Color: c}
}

// NewLabeledTile creates a tile with a centered text label.
func NewLabeledTile(c color.RGBA, label string) *Tile {
	return &Tile{Color: c, Label: label}
}

func (t *Tile) Bounds() Rect     { return t.rect }
func (t *Tile) SetBounds(r Rect) { t.rect = r }
func (t *Tile) Lift()            { t.lifted = true }
func (t *Tile) Settle()          { t.lifted = false }
func (t *Tile) Lifted() bool     { return t.lifted }

// Clone returns a copy for ProxyClone drags.
func (t *Tile) Clone() Surface {
	c := *t
	return &c
}

var whitePixelImage *ebiten.Image

// whitePixel returns a shared 1x1 white image, scaled and tinted to draw
// solid rects.
func whitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

func rgba(r, g, b, a uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: a}
}

var labelFace = text.NewGoXFace(basicfont.Face7x13)

func drawLabel(screen *ebiten.Image, t *Tile) {
	if t.Label == "" {
		return
	}
	w, h := text.Measure(t.Label, labelFace, 0)
	op := &text.DrawOptions{}
	op.GeoM.Translate(t.rect.X+(t.rect.Width-w)/2, t.rect.Y+(t.rect.Height-h)/2)
	op.ColorScale.ScaleWithColor(color.RGBA{R: 255, G: 255, B: 255, A: 230})
	text.Draw(screen, t.Label, labelFace, op)
}

func fillRect(screen *ebiten.Image, r Rect, c color.RGBA, alpha float32) {
	if r.Width <= 0 || r.Height <= 0 {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(r.Width, r.Height)
	op.GeoM.Translate(r.X, r.Y)
	op.ColorScale.ScaleWithColor(c)
	op.ColorScale.ScaleAlpha(alpha)
	screen.DrawImage(whitePixel(), op)
}

// DrawGrid renders a grid's cell lines and every node whose surface is a
// Tile. Lifted tiles draw last and slightly translucent so the drag proxy
// reads as floating above the layout.
func DrawGrid(screen *ebiten.Image, g *Grid) {
	b := g.Bounds()
	line := rgba(255, 255, 255, 24)

	cols := g.Engine().Columns()
	for x := 0; x <= cols; x++ {
		px := b.X + float64(x)*g.cfg.CellWidth
		fillRect(screen, Rect{X: px, Y: b.Y, Width: 1, Height: b.Height}, line, 1)
	}
	rows := int(b.Height / g.cfg.CellHeight)
	for y := 0; y <= rows; y++ {
		py := b.Y + float64(y)*g.cfg.CellHeight
		fillRect(screen, Rect{X: b.X, Y: py, Width: b.Width, Height: 1}, line, 1)
	}

	var lifted []*Tile
	for _, n := range g.Engine().Nodes() {
		t, ok := n.Surface.(*Tile)
		if !ok {
			continue
		}
		if t.lifted {
			lifted = append(lifted, t)
			continue
		}
		fillRect(screen, t.rect, t.Color, 1)
		drawLabel(screen, t)
	}
	for _, t := range lifted {
		fillRect(screen, t.rect, t.Color, 0.8)
		drawLabel(screen, t)
	}
}
