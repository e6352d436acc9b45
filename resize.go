package lattice

import "math"

// ResizeSession is the state machine for one resize gesture. It stretches the
// surface's pixel rect from the grabbed handle, clamps against the node's
// min/max sizes in pixels, and proposes the rounded cell rect to the engine.
type ResizeSession struct {
	grid  *Grid
	node  *Node
	dir   ResizeDir
	state gestureState

	start     PointerEvent
	last      PointerEvent
	startRect Rect // surface rect at activation

	// pixel clamps precomputed at activation
	minWpx, minHpx float64
	maxWpx, maxHpx float64 // 0 means unbounded

	pending   *PointerEvent
	paceArmed bool
}

// newResizeSession arms a resize on a handle press. Returns nil when another
// gesture already claims the context.
func newResizeSession(g *Grid, node *Node, dir ResizeDir, ev PointerEvent) *ResizeSession {
	s := &ResizeSession{grid: g, node: node, dir: dir, state: gestureArmed, start: ev, last: ev}
	if !g.ctx.claim(s) {
		return nil
	}
	return s
}

// Node returns the node being resized.
func (s *ResizeSession) Node() *Node { return s.node }

// Dir returns the grabbed handle.
func (s *ResizeSession) Dir() ResizeDir { return s.dir }

func (s *ResizeSession) pointer(ev PointerEvent) {
	switch s.state {
	case gestureArmed:
		if !ev.Pressed {
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

func (s *ResizeSession) activate(ev PointerEvent) {
	s.state = gestureActive

	e := s.grid.engine
	e.BeginUpdate(s.node)
	s.node.resizing = true

	s.startRect = s.grid.CellRect(s.node.Pos())
	s.node.rect = s.startRect

	cw, ch := s.grid.cfg.CellWidth, s.grid.cfg.CellHeight
	s.minWpx = float64(maxInt(s.node.MinW, 1)) * cw
	s.minHpx = float64(maxInt(s.node.MinH, 1)) * ch
	if s.node.MaxW > 0 {
		s.maxWpx = float64(s.node.MaxW) * cw
	}
	if s.node.MaxH > 0 {
		s.maxHpx = float64(s.node.MaxH) * ch
	}

	s.grid.emit(EventResizeStart, s.event(ev))
}

func (s *ResizeSession) track(ev PointerEvent) {
	s.last = ev

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

	s.grid.emit(EventResize, s.event(ev))
}

func (s *ResizeSession) flush() {
	s.paceArmed = false
	if s.state != gestureActive || s.pending == nil {
		return
	}
	ev := *s.pending
	s.pending = nil
	s.evaluate(ev)
}

// stretchRect applies the pointer delta to the edges the handle owns and
// clamps the result to the pixel min/max sizes, keeping the fixed edges put.
func (s *ResizeSession) stretchRect(ev PointerEvent) Rect {
	scale := s.grid.cfg.Scale
	dx := (ev.X - s.start.X) / scale
	dy := (ev.Y - s.start.Y) / scale
	r := s.startRect

	if s.dir.left() {
		r.X += dx
		r.Width -= dx
	} else if s.dir.right() {
		r.Width += dx
	}
	if s.dir.top() {
		r.Y += dy
		r.Height -= dy
	} else if s.dir.bottom() {
		r.Height += dy
	}

	// Clamp widths; a left/top handle clamps by moving the dragged edge back.
	if r.Width < s.minWpx {
		if s.dir.left() {
			r.X -= s.minWpx - r.Width
		}
		r.Width = s.minWpx
	}
	if s.maxWpx > 0 && r.Width > s.maxWpx {
		if s.dir.left() {
			r.X += r.Width - s.maxWpx
		}
		r.Width = s.maxWpx
	}
	if r.Height < s.minHpx {
		if s.dir.top() {
			r.Y -= s.minHpx - r.Height
		}
		r.Height = s.minHpx
	}
	if s.maxHpx > 0 && r.Height > s.maxHpx {
		if s.dir.top() {
			r.Y += r.Height - s.maxHpx
		}
		r.Height = s.maxHpx
	}
	return r
}

// evaluate rounds the stretched rect to cells and proposes it. The soft
// margin shifts the rounding boundary so an edge dragged just past a margin
// gap still reads as the neighboring cell.
func (s *ResizeSession) evaluate(ev PointerEvent) {
	g := s.grid
	r := s.stretchRect(ev)
	if s.node.Surface != nil {
		s.node.Surface.SetBounds(r)
	}

	soft := g.softMargin()
	cw, ch := g.cfg.CellWidth, g.cfg.CellHeight
	pos := Position{
		X: int(math.Round((r.X - g.cfg.Bounds.X + soft) / cw)),
		Y: int(math.Round((r.Y - g.cfg.Bounds.Y + soft) / ch)),
		W: int(math.Round((r.Width + 2*soft) / cw)),
		H: int(math.Round((r.Height + 2*soft) / ch)),
	}

	// Content-sized tiles keep their measured height.
	if s.node.SizeToContent {
		pos.Y = s.node.Y
		pos.H = s.node.H
	}

	if pos.same(s.node.Pos()) {
		return
	}
	if g.engine.MoveNodeCheck(s.node, MoveRequest{Pos: pos, Resizing: true, Rect: r}) {
		s.node.rect = g.CellRect(s.node.Pos())
	}
}

func (s *ResizeSession) finish(ev PointerEvent) {
	s.last = ev
	if s.pending != nil {
		p := *s.pending
		s.pending = nil
		s.evaluate(p)
	}

	s.state = gestureSettled
	s.node.resizing = false
	s.node.rect = Rect{}
	if s.node.Surface != nil {
		s.node.Surface.SetBounds(s.grid.CellRect(s.node.Pos()))
	}

	s.grid.engine.EndUpdate()
	s.grid.emit(EventResizeStop, s.event(ev))
	s.grid.triggerChange()
	s.grid.ctx.release()
}

func (s *ResizeSession) event(ev PointerEvent) GestureEvent {
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
		Dir:       s.dir,
	}
}
