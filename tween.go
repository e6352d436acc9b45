package lattice

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// SettleTween animates a surface's rect to its committed cell over a short
// duration, used when a drag drops with SettleDuration configured. Create one
// via newSettleTween and call Update(dt) each frame; Grid.Update does this
// for tweens it owns.
//
// There is no global animation manager — the owning grid pumps its tweens.
type SettleTween struct {
	tweens  [4]*gween.Tween
	surface Surface
	Done    bool
}

func newSettleTween(s Surface, to Rect, d time.Duration) *SettleTween {
	from := s.Bounds()
	dur := float32(d.Seconds())
	t := &SettleTween{surface: s}
	t.tweens[0] = gween.New(float32(from.X), float32(to.X), dur, ease.OutQuad)
	t.tweens[1] = gween.New(float32(from.Y), float32(to.Y), dur, ease.OutQuad)
	t.tweens[2] = gween.New(float32(from.Width), float32(to.Width), dur, ease.OutQuad)
	t.tweens[3] = gween.New(float32(from.Height), float32(to.Height), dur, ease.OutQuad)
	return t
}

// Update advances the tween by dt seconds and writes the interpolated rect to
// the surface.
func (t *SettleTween) Update(dt float32) {
	if t.Done {
		return
	}
	var vals [4]float32
	allDone := true
	for i, tw := range t.tweens {
		v, finished := tw.Update(dt)
		vals[i] = v
		if !finished {
			allDone = false
		}
	}
	t.surface.SetBounds(Rect{
		X:      float64(vals[0]),
		Y:      float64(vals[1]),
		Width:  float64(vals[2]),
		Height: float64(vals[3]),
	})
	t.Done = allDone
}
