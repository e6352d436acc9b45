package lattice

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// RunConfig configures the ebiten backend window and hooks.
type RunConfig struct {
	Title  string
	Width  int
	Height int

	// Draw renders on top of the default grid/tile pass. Optional.
	Draw func(screen *ebiten.Image)

	// Background fills the screen before grids draw. Zero value is black.
	Background [4]uint8
}

// game adapts an InteractionContext to the ebiten.Game interface, feeding
// normalized pointer samples (mouse, or the first active touch) into the
// interaction state machine each frame.
type game struct {
	ctx *InteractionContext
	cfg RunConfig

	heldButton MouseButton // button captured at press, stable mid-gesture
	touchIDs   []ebiten.TouchID
	touchID    ebiten.TouchID
	touching   bool
	lastX      float64
	lastY      float64
}

// Run opens a window and drives the context from real input until the window
// closes. Synthetic injected events take priority over hardware input on the
// frames they are consumed.
func Run(ctx *InteractionContext, cfg RunConfig) error {
	if cfg.Width == 0 {
		cfg.Width = 1280
	}
	if cfg.Height == 0 {
		cfg.Height = 720
	}
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	return ebiten.RunGame(&game{ctx: ctx, cfg: cfg})
}

func (g *game) Update() error {
	injected := g.ctx.Update(time.Now())

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.ctx.CancelDrag()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.ctx.RotateDrag()
	}

	if !injected {
		g.pollPointer()
	}

	dt := 1.0 / float64(ebiten.TPS())
	for _, grid := range g.ctx.grids {
		grid.Update(dt)
	}
	return nil
}

// pollPointer normalizes mouse and touch into the single pointer stream the
// context consumes. The first active touch claims the stream; its release is
// synthesized from the last seen position since ended touches report nothing.
func (g *game) pollPointer() {
	mods := readModifiers()

	g.touchIDs = ebiten.AppendTouchIDs(g.touchIDs[:0])
	if g.touching {
		alive := false
		for _, tid := range g.touchIDs {
			if tid == g.touchID {
				alive = true
				break
			}
		}
		if !alive {
			g.touching = false
			g.ctx.Pointer(PointerEvent{X: g.lastX, Y: g.lastY, Button: MouseButtonLeft, Modifiers: mods})
			return
		}
		tx, ty := ebiten.TouchPosition(g.touchID)
		g.lastX, g.lastY = float64(tx), float64(ty)
		g.ctx.Pointer(PointerEvent{X: g.lastX, Y: g.lastY, Pressed: true, Button: MouseButtonLeft, Modifiers: mods})
		return
	}
	if len(g.touchIDs) > 0 && !g.ctx.Claimed() {
		g.touching = true
		g.touchID = g.touchIDs[0]
		tx, ty := ebiten.TouchPosition(g.touchID)
		g.lastX, g.lastY = float64(tx), float64(ty)
		g.ctx.Pointer(PointerEvent{X: g.lastX, Y: g.lastY, Pressed: true, Button: MouseButtonLeft, Modifiers: mods})
		return
	}

	mx, my := ebiten.CursorPosition()
	g.lastX, g.lastY = float64(mx), float64(my)

	var pressed bool
	var button MouseButton
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	middle := ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	if left || right || middle {
		pressed = true
		if g.ctx.Claimed() {
			button = g.heldButton // stable mid-gesture
		} else if left {
			button = MouseButtonLeft
		} else if right {
			button = MouseButtonRight
		} else {
			button = MouseButtonMiddle
		}
		g.heldButton = button
	}

	g.ctx.Pointer(PointerEvent{X: g.lastX, Y: g.lastY, Pressed: pressed, Button: button, Modifiers: mods})
}

func (g *game) Draw(screen *ebiten.Image) {
	bg := g.cfg.Background
	screen.Fill(rgba(bg[0], bg[1], bg[2], bg[3]))
	for _, grid := range g.ctx.grids {
		DrawGrid(screen, grid)
	}
	if g.cfg.Draw != nil {
		g.cfg.Draw(screen)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// readModifiers reads the current keyboard modifier state.
func readModifiers() KeyModifiers {
	var mods KeyModifiers
	if ebiten.IsKeyPressed(ebiten.KeyShift) || ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) || ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= ModAlt
	}
	if ebiten.IsKeyPressed(ebiten.KeyMeta) || ebiten.IsKeyPressed(ebiten.KeyMetaLeft) || ebiten.IsKeyPressed(ebiten.KeyMetaRight) {
		mods |= ModMeta
	}
	return mods
}
