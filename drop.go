package lattice

import "math"

// Cross-container drop coordination. While a drag is active the context
// tracks which accepting grid owns the pointer; crossing into a foreign grid
// transfers the node's engine membership immediately so collision resolution
// happens against the layout the user is looking at, and release finalizes
// (or cancel reverts) the transfer.

// dropGridAt resolves the deepest registered drop-capable grid containing the
// point that accepts the dragged node. The origin grid participates like any
// other so dragging back home re-enters it.
func (c *InteractionContext) dropGridAt(node *Node, x, y float64) *Grid {
	var best *Grid
	for _, g := range c.grids {
		if g.cfg.Capabilities.Drop == nil || !g.contains(x, y) {
			continue
		}
		if accept := g.cfg.Capabilities.Drop.Accept; accept != nil && !accept(node) {
			continue
		}
		if best == nil || g.depth() >= best.depth() {
			best = g
		}
	}
	return best
}

// updateDropTarget runs once per tracked drag sample: fires over/out
// transitions and performs the live engine transfer on entry. Leaving every
// drop region parks the node out of any engine until re-entry or release.
func (c *InteractionContext) updateDropTarget(s *DragSession, ev PointerEvent) {
	target := c.dropGridAt(s.node, ev.X, ev.Y)
	if target == c.dropTarget {
		return
	}

	if prev := c.dropTarget; prev != nil {
		prev.emit(EventDropOut, GestureEvent{Node: s.node, Grid: prev, X: ev.X, Y: ev.Y})
		if prev == s.owner && prev != s.grid {
			// Pulled back out of a foreign grid before release.
			c.detach(s, prev)
		}
	}
	c.dropTarget = target
	if target == nil {
		// Only grids opted into cross-container flows release their node
		// when the pointer leaves every drop region.
		if s.owner == s.grid && s.grid.cfg.Capabilities.Drop != nil && !s.node.temporaryRemoved {
			c.detach(s, s.grid)
		}
		return
	}

	target.emit(EventDropOver, GestureEvent{Node: s.node, Grid: target, X: ev.X, Y: ev.Y})
	if target != s.owner || s.node.temporaryRemoved {
		c.attach(s, target, ev)
	}
}

// detach pulls the dragged node out of grid's engine without firing removal
// events; the gesture may still bring it back.
func (c *InteractionContext) detach(s *DragSession, g *Grid) {
	if s.removedFrom == nil && g == s.grid {
		s.removedFrom = g
		if s.node.orig != nil {
			s.removedAt = *s.node.orig
		} else {
			s.removedAt = s.node.Pos()
		}
	}
	g.engine.RemoveNode(s.node, false)
	s.node.temporaryRemoved = true
}

// attach inserts the dragged node into target's engine at the cell under the
// proxy, falling back to auto-position when the footprint cannot land there.
func (c *InteractionContext) attach(s *DragSession, target *Grid, ev PointerEvent) {
	if s.owner != target && !s.node.temporaryRemoved {
		c.detach(s, s.owner)
	}

	r := s.proxyRect(ev)
	s.node.X = int(math.Round((r.X - target.cfg.Bounds.X) / target.cfg.CellWidth))
	s.node.Y = int(math.Round((r.Y - target.cfg.Bounds.Y) / target.cfg.CellHeight))
	s.node.temporaryRemoved = false
	target.engine.AddNode(s.node, false, nil)
	target.engine.BeginUpdate(s.node)

	s.owner = target
	s.node.rect = target.CellRect(s.node.Pos())
	s.pixW, s.pixH = s.node.rect.Width, s.node.rect.Height
}

// finalizeDrop commits a cross-grid transfer on release: the node stays in
// the target engine and both sides are notified.
func (c *InteractionContext) finalizeDrop(s *DragSession, target *Grid, ev PointerEvent) {
	if s.node.temporaryRemoved {
		// Released over the target without a tracked re-entry.
		c.attach(s, target, ev)
	}
	s.node.temporaryRemoved = false

	origin := s.removedFrom
	if origin == nil {
		origin = s.grid
	}
	if origin != target {
		origin.emit(EventRemoved, GestureEvent{Node: s.node, Grid: origin, Nodes: []*Node{s.node}})
		target.emit(EventAdded, GestureEvent{Node: s.node, Grid: target, Nodes: []*Node{s.node}})
	}
	target.emit(EventDrop, GestureEvent{
		Node: s.node, Grid: origin, X: ev.X, Y: ev.Y,
		Button: ev.Button, Modifiers: ev.Modifiers, Target: target,
	})
	s.removedFrom = nil
}

// revertTransfer undoes a live cross-grid transfer on cancel, restoring the
// node to its origin grid at its pre-gesture cell.
func (c *InteractionContext) revertTransfer(s *DragSession) {
	origin := s.removedFrom
	if origin == nil {
		return
	}
	if !s.node.temporaryRemoved {
		s.owner.engine.RemoveNode(s.node, false)
	}
	s.node.temporaryRemoved = false
	s.node.X, s.node.Y = s.removedAt.X, s.removedAt.Y
	s.node.W, s.node.H = s.removedAt.W, s.removedAt.H
	origin.engine.AddNode(s.node, false, nil)
	s.owner = origin
	s.removedFrom = nil
}
