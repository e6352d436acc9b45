package lattice

import (
	"math"
	"time"
)

// dragThreshold is the Manhattan pixel distance a pressed pointer must travel
// before an armed drag activates. Below it, a press-release is a click.
const dragThreshold = 3.0

// styleRestoreDelay is how long after a gesture settles the surface's Settle
// hook fires, leaving room for the snap transition to finish first.
const styleRestoreDelay = 100 * time.Millisecond

// DragSession is the state machine for one drag gesture, from pointer-down
// (Armed) through threshold crossing (Active) to release (Settled). It owns
// the visual proxy and feeds cell proposals to the layout engine; the engine
// stays unaware of pixels except for the proposal rect it uses for
// direction-of-travel tie-breaks.
type DragSession struct {
	grid  *Grid // grid the gesture started in
	owner *Grid // grid whose engine currently holds the node
	node  *Node
	state gestureState

	proxy        Surface
	start        PointerEvent
	last         PointerEvent
	offX, offY   float64 // pointer offset inside the surface at activation
	pixW, pixH   float64 // proxy size in source-grid pixels
	rotated      bool
	removedFrom  *Grid // origin grid the node was pulled out of mid-drag, if any
	removedAt    Position

	pending   *PointerEvent // coalesced sample awaiting the pacing window
	paceArmed bool
}

// newDragSession arms a drag on pointer-down. Returns nil when another
// gesture already claims the context.
func newDragSession(g *Grid, node *Node, ev PointerEvent) *DragSession {
	s := &DragSession{grid: g, owner: g, node: node, state: gestureArmed, start: ev, last: ev}
	if !g.ctx.claim(s) {
		return nil
	}
	return s
}

// Node returns the dragged node.
func (s *DragSession) Node() *Node { return s.node }

// Origin returns the grid the drag started in.
func (s *DragSession) Origin() *Grid { return s.grid }

func (s *DragSession) pointer(ev PointerEvent) {
	switch s.state {
	case gestureArmed:
		if !ev.Pressed {
			// Click, never crossed the dead zone.
			s.state = gestureSettled
			s.grid.ctx.release()
			return
		}
		if manhattan(ev.X-s.start.X, ev.Y-s.start.Y) > dragThreshold {
			s.activate(ev)
			s.track(ev)
		}
	case gestureActive:
		if ev.Pressed {
			s.track(ev)
		} else {
			s.finish(ev)
		}
	}
}

func manhattan(dx, dy float64) float64 {
	return math.Abs(dx) + math.Abs(dy)
}

func (s *DragSession) activate(ev PointerEvent) {
	s.state = gestureActive
	ctx := s.grid.ctx
	ctx.drag = s

	e := s.grid.engine
	e.BeginUpdate(s.node)
	s.node.moving = true

	r := s.grid.CellRect(s.node.Pos())
	s.node.rect = r
	s.pixW, s.pixH = r.Width, r.Height
	s.offX = (s.start.X - r.X) / s.grid.cfg.Scale
	s.offY = (s.start.Y - r.Y) / s.grid.cfg.Scale

	cfg := s.grid.cfg.Capabilities.Drag
	s.proxy = buildProxy(s.node.Surface, cfg.Proxy, cfg.ProxyFactory)
	if s.proxy != nil {
		if l, ok := s.proxy.(Lifter); ok {
			l.Lift()
		}
	}

	s.grid.emit(EventDragStart, s.event(ev))
}

func (s *DragSession) track(ev PointerEvent) {
	s.last = ev
	r := s.proxyRect(ev)
	if s.proxy != nil {
		s.proxy.SetBounds(r)
	}

	s.grid.ctx.updateDropTarget(s, ev)

	if pacing := s.grid.ctx.pacing; pacing > 0 {
		sample := ev
		s.pending = &sample
		if !s.paceArmed {
			s.paceArmed = true
			s.grid.ctx.after(pacing, s.flush)
		}
	} else {
		s.evaluate(ev)
	}

	s.grid.emit(EventDrag, s.event(ev))
}

// flush evaluates the newest coalesced sample when the pacing window closes.
func (s *DragSession) flush() {
	s.paceArmed = false
	if s.state != gestureActive || s.pending == nil {
		return
	}
	ev := *s.pending
	s.pending = nil
	s.evaluate(ev)
}

// proxyRect is where the surface sits for a pointer sample, in origin-grid
// pixels, anchored so the grab point stays under the pointer.
func (s *DragSession) proxyRect(ev PointerEvent) Rect {
	scale := s.grid.cfg.Scale
	return Rect{
		X:      ev.X - s.offX*scale,
		Y:      ev.Y - s.offY*scale,
		Width:  s.pixW,
		Height: s.pixH,
	}
}

// evaluate converts the proposal rect to cells in the owning grid and asks
// the engine to commit. A committed move re-anchors node.rect so the next
// coverage tie-break measures travel from the settled cell.
func (s *DragSession) evaluate(ev PointerEvent) {
	g := s.owner
	if g == nil {
		return
	}
	r := s.proxyRect(ev)
	cx := int(math.Round((r.X - g.cfg.Bounds.X) / g.cfg.CellWidth))
	cy := int(math.Round((r.Y - g.cfg.Bounds.Y) / g.cfg.CellHeight))
	pos := Position{X: cx, Y: cy, W: s.node.W, H: s.node.H}
	if pos.X == s.node.X && pos.Y == s.node.Y {
		return
	}
	if g.engine.MoveNodeCheck(s.node, MoveRequest{Pos: pos, Rect: r}) {
		s.node.rect = g.CellRect(s.node.Pos())
	}
}

// rotate swaps the dragged node's width and height about the grab point.
// Refused when constraints pin the shape.
func (s *DragSession) rotate() {
	if s.state != gestureActive || !s.node.canRotate() {
		return
	}
	g := s.owner
	r := s.proxyRect(s.last)
	pos := Position{X: s.node.X, Y: s.node.Y, W: s.node.H, H: s.node.W}
	rot := Rect{X: r.X, Y: r.Y, Width: r.Height, Height: r.Width}
	if !g.engine.MoveNodeCheck(s.node, MoveRequest{Pos: pos, Resizing: true, Rect: rot}) {
		return
	}
	s.rotated = !s.rotated
	s.offX, s.offY = s.offY, s.offX
	s.pixW, s.pixH = s.pixH, s.pixW
	s.node.rect = g.CellRect(s.node.Pos())
	if s.proxy != nil {
		s.proxy.SetBounds(s.proxyRect(s.last))
	}
}

// cancel aborts the drag, reverting the layout to its pre-gesture snapshot
// and returning a node pulled across grids to where it started.
func (s *DragSession) cancel() {
	if s.state != gestureActive {
		return
	}
	ctx := s.grid.ctx
	if s.removedFrom != nil {
		ctx.revertTransfer(s)
	}
	s.owner.engine.RestoreInitial()
	s.settleSurface(s.grid, s.grid.CellRect(s.node.Pos()))
	s.teardown(s.last)
}

// finish commits the drag on pointer-up, finalizing a cross-grid drop when
// the pointer rests over a different accepting grid.
func (s *DragSession) finish(ev PointerEvent) {
	s.last = ev
	ctx := s.grid.ctx

	// A pending paced sample must land before commit, and the release
	// position itself is authoritative.
	s.pending = nil
	s.evaluate(ev)

	target := ctx.dropTarget
	switch {
	case target != nil && (target != s.owner || s.removedFrom != nil):
		ctx.finalizeDrop(s, target, ev)
	case target == nil && s.removedFrom != nil:
		// Released outside every drop region: the node goes home.
		ctx.revertTransfer(s)
	}

	s.settleSurface(s.owner, s.owner.CellRect(s.node.Pos()))
	s.teardown(ev)
}

// settleSurface moves the proxy (and the real surface, when they differ) to
// the committed cell rect, tweening when configured.
func (s *DragSession) settleSurface(g *Grid, dest Rect) {
	cfg := s.grid.cfg.Capabilities.Drag
	if s.proxy == nil {
		return
	}
	if cfg.SettleDuration > 0 {
		g.tweens = append(g.tweens, newSettleTween(s.proxy, dest, cfg.SettleDuration))
	} else {
		s.proxy.SetBounds(dest)
	}
	if s.proxy != s.node.Surface && s.node.Surface != nil {
		s.node.Surface.SetBounds(dest)
	}
	if l, ok := s.proxy.(Lifter); ok {
		s.grid.ctx.after(styleRestoreDelay, l.Settle)
	}
}

// teardown closes out the session: engine bookkeeping, stop event, change
// notification, claim release.
func (s *DragSession) teardown(ev PointerEvent) {
	s.state = gestureSettled
	s.node.moving = false
	s.node.rect = Rect{}

	owner := s.owner
	owner.engine.EndUpdate()

	s.grid.emit(EventDragStop, s.event(ev))
	owner.triggerChange()
	if owner != s.grid {
		s.grid.triggerChange()
	}
	s.grid.ctx.release()
}

func (s *DragSession) event(ev PointerEvent) GestureEvent {
	return GestureEvent{
		Node:      s.node,
		Grid:      s.grid,
		X:         ev.X,
		Y:         ev.Y,
		StartX:    s.start.X,
		StartY:    s.start.Y,
		DeltaX:    ev.X - s.start.X,
		DeltaY:    ev.Y - s.start.Y,
		Button:    ev.Button,
		Modifiers: ev.Modifiers,
		Target:    s.owner,
	}
}
