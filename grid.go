package lattice

import (
	"fmt"
	"os"
	"time"
)

// defaultHandleSize is the pixel size of the resize grab region along an
// edge or corner when ResizeConfig.HandleSize is zero.
const defaultHandleSize = 8.0

// DragConfig enables dragging on a grid's nodes.
type DragConfig struct {
	Proxy        ProxyMode
	ProxyFactory ProxyFactory

	// Exclude rejects a pointer-down that would otherwise arm a drag, e.g.
	// when it lands on a nested interactive control inside the tile.
	Exclude func(*Node, PointerEvent) bool

	// SettleDuration, when positive, tweens the surface to its committed
	// cell rect on drop instead of snapping.
	SettleDuration time.Duration
}

// ResizeConfig enables resize handles on a grid's nodes.
type ResizeConfig struct {
	Handles    []ResizeDir // nil means all eight
	HandleSize float64     // pixel size of the grab region (default 8)
}

// DropConfig registers the grid as a drop target for cross-container drags.
type DropConfig struct {
	// Accept decides drop eligibility per dragged node. Nil accepts all.
	Accept func(*Node) bool
}

// Capabilities is a capability-set record: a grid supports a gesture when the
// matching config is present, dispatched by presence rather than type
// hierarchy. A grid may hold any combination.
type Capabilities struct {
	Drag   *DragConfig
	Resize *ResizeConfig
	Drop   *DropConfig
}

// GridConfig binds an Engine to pixel space.
type GridConfig struct {
	Bounds     Rect    // grid region in container pixels
	CellWidth  float64 // 0 derives from Bounds.Width / engine columns
	CellHeight float64 // 0 copies CellWidth
	Margin     float64 // pixel inset on every side of a cell

	// Scale is the rendered-transform scale of the container, captured so
	// pointer deltas inside nested/zoomed containers convert correctly.
	// Zero means 1.
	Scale float64

	// Parent/ParentNode link a nested grid to the node embedding it.
	Parent     *Grid
	ParentNode *Node

	Capabilities Capabilities
}

// Grid ties a layout Engine to a pixel-space container and drives the
// pointer-gesture sessions for it. All grids sharing an InteractionContext
// participate in the same mutual exclusion and drop-target resolution.
type Grid struct {
	ctx    *InteractionContext
	engine *Engine
	cfg    GridConfig

	handlers handlerRegistry
	tweens   []*SettleTween
	debug    bool
}

// NewGrid creates a grid over engine and registers it on ctx.
func NewGrid(ctx *InteractionContext, engine *Engine, cfg GridConfig) *Grid {
	if cfg.CellWidth == 0 && engine.Columns() > 0 {
		cfg.CellWidth = cfg.Bounds.Width / float64(engine.Columns())
	}
	if cfg.CellHeight == 0 {
		cfg.CellHeight = cfg.CellWidth
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	g := &Grid{ctx: ctx, engine: engine, cfg: cfg}
	ctx.register(g)
	return g
}

// Engine returns the grid's layout engine.
func (g *Grid) Engine() *Engine { return g.engine }

// Context returns the interaction context the grid is registered on.
func (g *Grid) Context() *InteractionContext { return g.ctx }

// Bounds returns the grid's pixel region.
func (g *Grid) Bounds() Rect { return g.cfg.Bounds }

// Parent returns the grid this one is nested inside, or nil.
func (g *Grid) Parent() *Grid { return g.cfg.Parent }

// On registers a callback for one event kind. The set of kinds is closed;
// every notification flows through this single registry.
func (g *Grid) On(kind EventType, fn func(GestureEvent)) CallbackHandle {
	return g.handlers.add(kind, fn)
}

// SetDebugMode enables per-gesture decision logging to stderr.
func (g *Grid) SetDebugMode(enabled bool) {
	g.debug = enabled
}

func (g *Grid) emit(kind EventType, ev GestureEvent) {
	if g.debug {
		_, _ = fmt.Fprintf(os.Stderr, "[lattice] grid %p emit %d node=%v at (%.1f, %.1f)\n",
			g, kind, eventNodeID(ev.Node), ev.X, ev.Y)
	}
	g.handlers.emit(kind, ev)
}

func eventNodeID(n *Node) int {
	if n == nil {
		return 0
	}
	return n.ID
}

// triggerChange announces a settled batch: recorded adds and removals drain
// into their events, then EventChange carries the dirty set and cleans it.
// Called once per settled gesture so listeners see one notification per batch.
func (g *Grid) triggerChange() {
	if added := g.engine.PopAddedNodes(); len(added) > 0 {
		g.emit(EventAdded, GestureEvent{Grid: g, Nodes: added})
	}
	if removed := g.engine.PopRemovedNodes(); len(removed) > 0 {
		g.emit(EventRemoved, GestureEvent{Grid: g, Nodes: removed})
	}
	dirty := g.engine.DirtyNodes()
	if len(dirty) == 0 {
		return
	}
	g.emit(EventChange, GestureEvent{Grid: g, Nodes: dirty})
	g.engine.cleanNodes()
}

// --- Pixel <-> cell conversion ---

// CellRect returns the pixel rect of a cell rectangle, inset by the margin.
func (g *Grid) CellRect(p Position) Rect {
	m := g.cfg.Margin
	return Rect{
		X:      g.cfg.Bounds.X + float64(p.X)*g.cfg.CellWidth + m,
		Y:      g.cfg.Bounds.Y + float64(p.Y)*g.cfg.CellHeight + m,
		Width:  float64(p.W)*g.cfg.CellWidth - 2*m,
		Height: float64(p.H)*g.cfg.CellHeight - 2*m,
	}
}

// cellAt converts a pixel point to the cell column/row containing it.
func (g *Grid) cellAt(x, y float64) (int, int) {
	cx := int((x - g.cfg.Bounds.X) / g.cfg.CellWidth)
	cy := int((y - g.cfg.Bounds.Y) / g.cfg.CellHeight)
	return cx, cy
}

// NodeAt returns the node whose footprint covers the pixel point, or nil.
func (g *Grid) NodeAt(x, y float64) *Node {
	if !g.cfg.Bounds.Contains(x, y) {
		return nil
	}
	cx, cy := g.cellAt(x, y)
	return g.engine.Collide(nil, Position{cx, cy, 1, 1}, nil)
}

func (g *Grid) contains(x, y float64) bool {
	return g.cfg.Bounds.Contains(x, y)
}

func (g *Grid) depth() int {
	d := 0
	for p := g.cfg.Parent; p != nil; p = p.cfg.Parent {
		d++
	}
	return d
}

// softMargin is the margin used when deciding which side of a move boundary
// an edge belongs to: the configured margin, capped at 10% of a cell so
// small cells don't oscillate.
func (g *Grid) softMargin() float64 {
	limit := g.cfg.CellWidth * 0.1
	if g.cfg.Margin < limit {
		return g.cfg.Margin
	}
	return limit
}

// --- Gesture arming ---

// arm claims the pointer for a new session on a pointer-down. The resize
// handle region wins over the drag surface when both apply.
func (g *Grid) arm(ev PointerEvent) {
	if ev.Button != MouseButtonLeft {
		return
	}
	node := g.NodeAt(ev.X, ev.Y)
	if node == nil {
		return
	}
	if g.cfg.Capabilities.Resize != nil && !node.NoResize && !node.Locked {
		if dir, ok := g.handleDirAt(node, ev.X, ev.Y); ok {
			newResizeSession(g, node, dir, ev)
			return
		}
	}
	if g.cfg.Capabilities.Drag != nil && !node.NoMove && !node.Locked {
		if ex := g.cfg.Capabilities.Drag.Exclude; ex != nil && ex(node, ev) {
			return
		}
		newDragSession(g, node, ev)
	}
}

// hover tracks the resize-hover claim while no gesture is active, keeping it
// mutually exclusive with drags (an active drag never reaches here).
func (g *Grid) hover(ev PointerEvent) {
	if g.cfg.Capabilities.Resize == nil {
		if g.ctx.resizeHover != nil && g.NodeAt(ev.X, ev.Y) == g.ctx.resizeHover {
			g.ctx.resizeHover = nil
		}
		return
	}
	node := g.NodeAt(ev.X, ev.Y)
	if node != nil && !node.NoResize && !node.Locked {
		if _, ok := g.handleDirAt(node, ev.X, ev.Y); ok {
			g.ctx.resizeHover = node
			return
		}
	}
	if g.ctx.resizeHover != nil {
		g.ctx.resizeHover = nil
	}
}

// handleDirAt maps a pixel point to the resize handle it falls on, if any.
func (g *Grid) handleDirAt(node *Node, x, y float64) (ResizeDir, bool) {
	r := g.CellRect(node.Pos())
	if !r.Contains(x, y) {
		return 0, false
	}
	size := g.cfg.Capabilities.Resize.HandleSize
	if size == 0 {
		size = defaultHandleSize
	}
	left := x-r.X < size
	right := r.X+r.Width-x < size
	top := y-r.Y < size
	bottom := r.Y+r.Height-y < size

	var dir ResizeDir
	switch {
	case top && left:
		dir = ResizeNW
	case top && right:
		dir = ResizeNE
	case bottom && left:
		dir = ResizeSW
	case bottom && right:
		dir = ResizeSE
	case top:
		dir = ResizeN
	case bottom:
		dir = ResizeS
	case left:
		dir = ResizeW
	case right:
		dir = ResizeE
	default:
		return 0, false
	}
	for _, allowed := range g.allowedHandles() {
		if allowed == dir {
			return dir, true
		}
	}
	return 0, false
}

var allHandles = []ResizeDir{ResizeN, ResizeE, ResizeS, ResizeW, ResizeNE, ResizeNW, ResizeSE, ResizeSW}

func (g *Grid) allowedHandles() []ResizeDir {
	if h := g.cfg.Capabilities.Resize.Handles; h != nil {
		return h
	}
	return allHandles
}

// --- Frame pump ---

// Update advances the grid's settle tweens by dt seconds. Call once per
// frame, after InteractionContext.Update.
func (g *Grid) Update(dt float64) {
	alive := g.tweens[:0]
	for _, tw := range g.tweens {
		tw.Update(float32(dt))
		if !tw.Done {
			alive = append(alive, tw)
		}
	}
	g.tweens = alive
}

// --- Context-level pointer routing ---

// pointerSink is an armed or active session receiving routed samples.
type pointerSink interface {
	pointer(ev PointerEvent)
}

// Pointer feeds one normalized pointer sample through the interaction state
// machine: the claimed session when one exists, otherwise the deepest grid
// under the pointer (for arming on press, hover bookkeeping otherwise).
func (c *InteractionContext) Pointer(ev PointerEvent) {
	if c.active != nil {
		c.active.pointer(ev)
		return
	}
	g := c.gridAt(ev.X, ev.Y)
	if g == nil {
		return
	}
	if ev.Pressed {
		g.arm(ev)
	} else {
		g.hover(ev)
	}
}

// Update advances the context clock (firing due timers) and consumes at most
// one injected synthetic pointer event, mirroring real per-frame input.
// Returns true when an injected event was consumed; input backends should
// skip hardware input for that frame.
func (c *InteractionContext) Update(now time.Time) bool {
	c.Advance(now)
	if c.script != nil {
		c.script.step(c)
	}
	return c.processInjected()
}

// CancelDrag cancels the active drag (e.g. bound to an escape keypress),
// reverting the node to its pre-gesture snapshot.
func (c *InteractionContext) CancelDrag() {
	if c.drag != nil {
		c.drag.cancel()
	}
}

// RotateDrag toggles a 90° rotation of the actively dragged node.
// No-op when nothing is dragged or the node refuses rotation.
func (c *InteractionContext) RotateDrag() {
	if c.drag != nil {
		c.drag.rotate()
	}
}

// gridAt returns the deepest registered grid containing the point, breaking
// ties by latest registration.
func (c *InteractionContext) gridAt(x, y float64) *Grid {
	var best *Grid
	for _, g := range c.grids {
		if !g.contains(x, y) {
			continue
		}
		if best == nil || g.depth() >= best.depth() {
			best = g
		}
	}
	return best
}
