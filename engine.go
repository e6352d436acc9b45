package lattice

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrCollisionLoop is the invariant-violation guard: collision resolution is
// bounded by 2 x nodeCount iterations, and exceeding the bound means the
// configuration is contradictory (e.g. mutually blocking locked nodes).
// Engine methods panic with an error wrapping this sentinel; every other
// failure degrades to a "no change" boolean return.
var ErrCollisionLoop = errors.New("lattice: infinite collision loop")

// defaultColumns is the column count used when Options.Columns is zero.
const defaultColumns = 12

// dragCoverageMin is the direction-of-travel coverage a collision candidate
// must exceed to win the tie-break during an interactive drag. Tunable; 0.5
// matches the behavior the engine was modeled on.
const dragCoverageMin = 0.5

// Options configures a new Engine. The zero value gives a 12-column,
// unbounded-row, gravity-packed grid with no write-back callback.
type Options struct {
	Columns  int            // number of grid columns (default 12)
	MaxRow   int            // row ceiling; 0 means unbounded
	Float    bool           // keep user vertical positions instead of gravity packing
	OnChange func([]*Node)  // write-back callback, invoked after a batch of mutations settles
}

// moveOpts carries a move proposal through moveNode and the collision fixup
// recursion. collide is written back by moveNode so MoveNodeCheck can reuse
// the coverage winner for its swap fallback.
type moveOpts struct {
	pos      Position
	skip     *Node // second node excluded from collision checks
	pack     bool  // run the gravity pass after the move
	nested   bool  // recursive fixup call, no swap/row-widening
	resizing bool  // clamp by shrinking instead of shifting on bound overflow
	rect     Rect  // pixel rect of the proposal (interactive drags only)
	collide  *Node // out: collision chosen by directional coverage
}

// Engine positions rectangular nodes on an integer grid and keeps them
// non-overlapping. It is pure data-transform: no pointer awareness, no
// rendering. All operations are synchronous; the engine is single-threaded
// by construction (see Grid for the interaction layer).
type Engine struct {
	columns    int
	maxRow     int
	float      bool
	maxColumns int // widest column count this engine was created for; cache anchor
	onChange   func([]*Node)

	nodes        []*Node
	addedNodes   []*Node
	removedNodes []*Node

	layouts layoutCache

	batchMode      bool
	prevFloat      bool // float value to restore when the batch ends
	inColumnResize bool // bound-fix-only node preparation during reflow
	loading        bool // Load in progress: collision fixups keep loaded positions
}

// NewEngine creates an engine with the given options.
func NewEngine(opt Options) *Engine {
	if opt.Columns <= 0 {
		opt.Columns = defaultColumns
	}
	return &Engine{
		columns:    opt.Columns,
		maxRow:     opt.MaxRow,
		float:      opt.Float,
		maxColumns: opt.Columns,
		onChange:   opt.OnChange,
	}
}

// Columns returns the current column count.
func (e *Engine) Columns() int { return e.columns }

// MaxRow returns the row ceiling, or 0 if unbounded.
func (e *Engine) MaxRow() int { return e.maxRow }

// Float reports whether the engine is in float mode (no gravity packing).
func (e *Engine) Float() bool { return e.float }

// SetFloat switches float mode. Turning float off triggers a gravity pass so
// nodes settle upward immediately.
func (e *Engine) SetFloat(v bool) {
	if e.float == v {
		return
	}
	e.float = v
	if !v {
		e.packNodes()
		e.notify(nil)
	}
}

// Nodes returns the engine's node list. The returned slice MUST NOT be mutated.
func (e *Engine) Nodes() []*Node { return e.nodes }

// NodeByID returns the node with the given internal id, or nil.
func (e *Engine) NodeByID(id int) *Node {
	for _, n := range e.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// NodeByUserID returns the node with the given user-supplied id, or nil.
func (e *Engine) NodeByUserID(id string) *Node {
	for _, n := range e.nodes {
		if n.UserID == id {
			return n
		}
	}
	return nil
}

// GetRow returns the first empty row below every node.
func (e *Engine) GetRow() int {
	row := 0
	for _, n := range e.nodes {
		if n.Y+n.H > row {
			row = n.Y + n.H
		}
	}
	return row
}

// sortNodes orders nodes top-left first (row-major). reverse flips the order
// so collision fixups cascade from the last node to the first.
func (e *Engine) sortNodes(reverse bool) {
	c := e.columns
	sort.SliceStable(e.nodes, func(i, j int) bool {
		a := e.nodes[i].Y*c + e.nodes[i].X
		b := e.nodes[j].Y*c + e.nodes[j].X
		if reverse {
			return a > b
		}
		return a < b
	})
}

// --- Collision queries ---

// Collide returns the first node other than skip and skip2 whose footprint
// intersects area, or nil.
func (e *Engine) Collide(skip *Node, area Position, skip2 *Node) *Node {
	for _, n := range e.nodes {
		if n == skip || n == skip2 {
			continue
		}
		if intercepted(n.Pos(), area) {
			return n
		}
	}
	return nil
}

// CollideAll returns every node other than skip and skip2 whose footprint
// intersects area.
func (e *Engine) CollideAll(skip *Node, area Position, skip2 *Node) []*Node {
	var out []*Node
	for _, n := range e.nodes {
		if n == skip || n == skip2 {
			continue
		}
		if intercepted(n.Pos(), area) {
			out = append(out, n)
		}
	}
	return out
}

// directionCollideCoverage picks the collision winner during an interactive
// drag: the moving pixel rect is extended backward toward where it started,
// and the candidate whose rect is covered more than dragCoverageMin along the
// direction of travel wins. Returns nil when no candidate passes, which the
// caller treats as "don't move yet".
func (e *Engine) directionCollideCoverage(node *Node, o *moveOpts, collides []*Node) *Node {
	if o.rect.Width == 0 || node.rect.Width == 0 {
		return nil
	}
	r0 := node.rect // where the drag started this sample from
	r := o.rect     // where we are now

	// Extend the moving rect to include where it came from.
	if r.Y > r0.Y {
		r.Height += r.Y - r0.Y
		r.Y = r0.Y
	} else {
		r.Height += r0.Y - r.Y
	}
	if r.X > r0.X {
		r.Width += r.X - r0.X
		r.X = r0.X
	} else {
		r.Width += r0.X - r.X
	}

	var winner *Node
	overMax := dragCoverageMin
	for _, n := range collides {
		if n.Locked || n.rect.Width == 0 {
			// locked nodes can't be pushed; let the default collision happen
			break
		}
		r2 := n.rect
		yOver := math.MaxFloat64
		xOver := math.MaxFloat64
		// Depending on the side we started from, only the coverage along that
		// axis counts (coming from above/below measures vertical coverage).
		if r0.Y < r2.Y {
			yOver = (r.Y + r.Height - r2.Y) / r2.Height
		} else if r0.Y+r0.Height > r2.Y+r2.Height {
			yOver = (r2.Y + r2.Height - r.Y) / r2.Height
		}
		if r0.X < r2.X {
			xOver = (r.X + r.Width - r2.X) / r2.Width
		} else if r0.X+r0.Width > r2.X+r2.Width {
			xOver = (r2.X + r2.Width - r.X) / r2.Width
		}
		over := math.Min(xOver, yOver)
		if over > overMax {
			overMax = over
			winner = n
		}
	}
	o.collide = winner
	return winner
}

// --- Node preparation ---

// prepareNode normalizes an inbound node: assigns ids, repairs malformed
// geometry by defaulting, sanitizes min/max, and clamps into the grid.
// Malformed input never errors (user-authored layouts are lenient).
func (e *Engine) prepareNode(node *Node, resizing bool) *Node {
	if node.ID == 0 {
		node.ID = nextNodeID()
	}
	e.ensureUserID(node)
	if node.W < 1 {
		node.W = 1
	}
	if node.H < 1 {
		node.H = 1
	}
	node.sanitizeMinMax()
	return e.nodeBoundFix(node, resizing)
}

// nodeBoundFix clamps a node to its min/max constraints and into the grid
// bounds. If the node no longer fits because the column count shrank, its
// wide-layout geometry is snapshotted into the layout cache first so it can
// be restored when the columns grow back.
func (e *Engine) nodeBoundFix(node *Node, resizing bool) *Node {
	before := node.Pos()
	if node.orig != nil {
		before = *node.orig
	}

	if node.MaxW > 0 && node.W > node.MaxW {
		node.W = node.MaxW
	}
	if node.MaxH > 0 && node.H > node.MaxH {
		node.H = node.MaxH
	}
	if node.MinW > 0 && node.W < node.MinW {
		node.W = node.MinW
	}
	if node.MinH > 0 && node.H < node.MinH {
		node.H = node.MinH
	}

	// Remember pre-shrink geometry so growing back restores it.
	if node.X+node.W > e.columns && e.columns < e.maxColumns && !e.inColumnResize &&
		node.ID != 0 && e.layouts.find(node.ID, e.maxColumns) < 0 {
		entry := cacheEntry{
			id:   node.ID,
			x:    minInt(node.X, e.maxColumns-1),
			y:    node.Y,
			w:    minInt(node.W, e.maxColumns),
			auto: node.AutoPosition,
		}
		e.layouts.storeOne(entry, e.maxColumns)
	}

	if node.W > e.columns {
		node.W = e.columns
	} else if node.W < 1 {
		node.W = 1
	}
	if e.maxRow > 0 && node.H > e.maxRow {
		node.H = e.maxRow
	} else if node.H < 1 {
		node.H = 1
	}
	if node.X < 0 {
		node.X = 0
	}
	if node.Y < 0 {
		node.Y = 0
	}
	if node.X+node.W > e.columns {
		if resizing {
			node.W = e.columns - node.X
		} else {
			node.X = e.columns - node.W
		}
	}
	if e.maxRow > 0 && node.Y+node.H > e.maxRow {
		if resizing {
			node.H = e.maxRow - node.Y
		} else {
			node.Y = e.maxRow - node.H
		}
	}

	if !node.Pos().same(before) {
		node.dirty = true
	}
	return node
}

// ensureUserID de-duplicates a user-supplied string id by suffixing -2, -3...
func (e *Engine) ensureUserID(node *Node) {
	if node.UserID == "" {
		return
	}
	taken := func(id string) bool {
		for _, n := range e.nodes {
			if n != node && n.UserID == id {
				return true
			}
		}
		return false
	}
	if !taken(node.UserID) {
		return
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s-%d", node.UserID, i)
		if !taken(candidate) {
			node.UserID = candidate
			return
		}
	}
}

// --- Add / remove ---

// AddNode inserts a node, de-duplicating by internal id. With AutoPosition
// set, the first free w x h footprint is found by a row-major scan from (0,0),
// or from just after insertAfter when given; rows too narrow for w are
// skipped, and under a row ceiling the add is refused (nil) when no footprint
// fits above it. Otherwise the node is bounds-fixed and collisions are
// resolved. Returns the (possibly corrected) node; pushed nodes are marked
// dirty.
func (e *Engine) AddNode(node *Node, triggerEvent bool, insertAfter *Node) *Node {
	if node == nil {
		return nil
	}
	if node.ID != 0 {
		if dup := e.NodeByID(node.ID); dup != nil {
			return dup // prevent inserting twice
		}
	}
	if e.inColumnResize {
		e.nodeBoundFix(node, false)
	} else {
		e.prepareNode(node, false)
	}

	skipCollision := false
	if node.AutoPosition {
		if !e.findEmptyPosition(node, e.nodes, e.columns, insertAfter) {
			return nil // bounded grid has no room above the ceiling
		}
		skipCollision = true // found our slot
	}

	e.nodes = append(e.nodes, node)
	if triggerEvent {
		e.addedNodes = append(e.addedNodes, node)
	}
	if !skipCollision {
		e.fixCollisions(node, node.Pos(), nil, &moveOpts{})
	}
	if !e.batchMode {
		e.packNodes()
		e.notify(nil)
	}
	return node
}

// findEmptyPosition scans row-major for the first footprint that intersects
// no node in list, starting just after insertAfter when given. The scan stops
// at the row ceiling; every slot past it would breach the bounds invariant.
// On success the node is positioned there and AutoPosition is cleared.
func (e *Engine) findEmptyPosition(node *Node, list []*Node, columns int, insertAfter *Node) bool {
	start := 0
	if insertAfter != nil {
		start = insertAfter.Y*columns + insertAfter.X + insertAfter.W
	}
	if node.W > columns {
		return false
	}
	for i := start; ; i++ {
		x := i % columns
		y := i / columns
		if e.maxRow > 0 && y+node.H > e.maxRow {
			return false
		}
		if x+node.W > columns {
			continue
		}
		box := Position{x, y, node.W, node.H}
		blocked := false
		for _, n := range list {
			if intercepted(box, n.Pos()) {
				blocked = true
				break
			}
		}
		if !blocked {
			if node.X != x || node.Y != y {
				node.dirty = true
			}
			node.X, node.Y = x, y
			node.AutoPosition = false
			return true
		}
	}
}

// RemoveNode removes a node from the engine, repacks, and notifies with the
// removed node included so the collaborator can drop its surface.
func (e *Engine) RemoveNode(node *Node, triggerEvent bool) {
	if e.NodeByID(node.ID) == nil {
		return
	}
	if triggerEvent {
		e.removedNodes = append(e.removedNodes, node)
	}
	kept := e.nodes[:0]
	for _, n := range e.nodes {
		if n.ID != node.ID {
			kept = append(kept, n)
		}
	}
	e.nodes = kept
	if !e.batchMode {
		e.packNodes()
	}
	e.notify([]*Node{node})
}

// RemoveAll removes every node.
func (e *Engine) RemoveAll(triggerEvent bool) {
	if len(e.nodes) == 0 {
		return
	}
	if triggerEvent {
		e.removedNodes = append(e.removedNodes, e.nodes...)
	}
	removed := e.nodes
	e.nodes = nil
	e.notify(removed)
}

// --- Moving ---

// MoveRequest describes a proposed geometry change for MoveNode.
type MoveRequest struct {
	Pos      Position
	Skip     *Node // second node excluded from collision checks
	Resizing bool  // the change is a resize (clamp by shrinking, not shifting)
	Rect     Rect  // pixel rect of the proposal, for drag direction tie-breaks
	NoPack   bool  // skip the gravity pass after the move
}

// MoveNode clamps the proposal against constraints and container bounds,
// short-circuits if nothing changes, resolves collisions (using the
// direction-of-travel coverage winner during an interactive move), and
// conditionally repacks. Reports whether geometry actually changed.
func (e *Engine) MoveNode(node *Node, req MoveRequest) bool {
	o := &moveOpts{
		pos:      req.Pos,
		skip:     req.Skip,
		pack:     !req.NoPack && !e.batchMode,
		resizing: req.Resizing,
		rect:     req.Rect,
	}
	return e.moveNode(node, o)
}

func (e *Engine) moveNode(node *Node, o *moveOpts) bool {
	if node == nil {
		return false
	}
	resizing := o.resizing || node.W != o.pos.W || node.H != o.pos.H

	// Clamp the proposal on a throwaway copy so constraints apply before the
	// short-circuit comparison.
	cand := *node
	cand.orig = nil
	cand.dirty = false
	cand.setPos(o.pos)
	e.nodeBoundFix(&cand, resizing)
	nn := cand.Pos()
	o.pos = nn

	if node.Pos().same(nn) {
		return false
	}
	prev := node.Pos()

	collides := e.CollideAll(node, nn, o.skip)
	needToMove := true
	if len(collides) > 0 {
		activeDrag := node.moving && !o.nested
		var collide *Node
		if activeDrag {
			collide = e.directionCollideCoverage(node, o, collides)
		} else {
			collide = collides[0]
		}
		if collide != nil {
			needToMove = !e.fixCollisions(node, nn, collide, o)
		} else {
			needToMove = false // nothing covered enough; skip this sample
			o.pack = false
		}
	}

	if needToMove && !node.Pos().same(nn) {
		node.dirty = true
		node.setPos(nn)
	}
	if o.pack {
		e.packNodes()
		e.notify(nil)
	}
	return !node.Pos().same(prev)
}

// changedPosConstrain reports whether the proposal, after min/max clamping,
// differs from the node's current geometry. The proposal is clamped in place.
func (e *Engine) changedPosConstrain(node *Node, p *Position) bool {
	if p.W == 0 {
		p.W = node.W
	}
	if p.H == 0 {
		p.H = node.H
	}
	if node.X != p.X || node.Y != p.Y {
		return true
	}
	if node.MaxW > 0 && p.W > node.MaxW {
		p.W = node.MaxW
	}
	if node.MaxH > 0 && p.H > node.MaxH {
		p.H = node.MaxH
	}
	if node.MinW > 0 && p.W < node.MinW {
		p.W = node.MinW
	}
	if node.MinH > 0 && p.H < node.MinH {
		p.H = node.MinH
	}
	return node.W != p.W || node.H != p.H
}

// MoveNodeCheck is the interactive entry point for drags and resizes. Without
// a row ceiling it moves directly; with one, the move is simulated on a
// cloned engine first and refused if it would overflow the ceiling. A refused
// move may still settle as a swap with the coverage-winning collision.
func (e *Engine) MoveNodeCheck(node *Node, req MoveRequest) bool {
	if node.Locked {
		return false
	}
	p := req.Pos
	if !e.changedPosConstrain(node, &p) {
		return false
	}
	req.Pos = p
	if node.lastTried != nil && node.lastTried.same(req.Pos) {
		return false // already refused this candidate
	}

	o := &moveOpts{
		pos:      req.Pos,
		skip:     req.Skip,
		pack:     true,
		resizing: req.Resizing,
		rect:     req.Rect,
	}
	if e.maxRow == 0 {
		if !e.moveNode(node, o) {
			return false
		}
		node.lastTried = nil
		return true
	}

	// Simulate on a clone with no ceiling, then compare rows.
	var clonedNode *Node
	clone := &Engine{
		columns:    e.columns,
		float:      e.float,
		maxColumns: e.maxColumns,
	}
	for _, n := range e.nodes {
		c := *n
		if n.ID == node.ID {
			clonedNode = &c
		}
		clone.nodes = append(clone.nodes, &c)
	}
	if clonedNode == nil {
		return false
	}
	canMove := clone.moveNode(clonedNode, o) &&
		clone.GetRow() <= maxInt(e.GetRow(), e.maxRow)

	if !canMove && !req.Resizing && o.collide != nil {
		// The clone collided at coverage; try the swap against our real node.
		if real := e.NodeByID(o.collide.ID); real != nil && e.Swap(node, real) {
			node.lastTried = nil
			e.notify(nil)
			return true
		}
	}
	if !canMove {
		tried := req.Pos
		node.lastTried = &tried
		return false
	}
	node.lastTried = nil

	// Copy the clone's settled positions back to the live nodes.
	for _, cn := range clone.nodes {
		if !cn.dirty {
			continue
		}
		if n := e.NodeByID(cn.ID); n != nil {
			n.setPos(cn.Pos())
			n.dirty = true
		}
	}
	e.notify(nil)
	return true
}

// --- Collision resolution ---

// fixCollisions recursively pushes nodes out of the proposal's footprint.
// Contract: bounded by 2 x nodeCount iterations per call; exceeding the bound
// panics with an error wrapping ErrCollisionLoop. Reports whether the moving
// node itself was displaced while resolving.
func (e *Engine) fixCollisions(node *Node, nn Position, collide *Node, o *moveOpts) bool {
	e.sortNodes(true) // reverse order so fixups cascade correctly

	if collide == nil {
		collide = e.Collide(node, nn, o.skip)
	}
	if collide == nil {
		return false
	}

	// User-driven moves with gravity on try a swap first.
	if node.moving && !o.nested && !e.float {
		if e.Swap(node, collide) {
			return true
		}
	}

	// Widen the test region to the full row so a tall item cannot be skipped
	// over by a shorter one above it.
	area := nn
	skip := o.skip
	pack := o.pack
	if !e.float && !o.nested {
		area = Position{X: 0, Y: nn.Y, W: e.columns, H: nn.H}
		skip = nil
		pack = false
	}

	didMove := false
	counter := 0
	for {
		if collide == nil {
			collide = e.Collide(node, area, skip)
			if collide == nil {
				break
			}
		}
		counter++
		if counter > len(e.nodes)*2 {
			panic(fmt.Errorf("%w: %d iterations for node %d", ErrCollisionLoop, counter, node.ID))
		}

		var moved bool
		// A locked obstruction, a load in progress, or a downward user move
		// whose skip-down allowance is unconsumed (and the obstruction could
		// take the vacated space) advances the mover past the obstruction.
		// Everything else pushes the obstruction below the mover's footprint.
		if collide.Locked || e.loading ||
			(node.moving && !node.skipDown && nn.Y > node.Y && !e.float &&
				(e.Collide(collide, Position{collide.X, node.Y, collide.W, collide.H}, node) == nil ||
					e.Collide(collide, Position{collide.X, nn.Y - collide.H, collide.W, collide.H}, node) == nil)) {
			node.skipDown = node.skipDown || nn.Y > node.Y
			next := &moveOpts{
				pos:    Position{nn.X, collide.Y + collide.H, nn.W, nn.H},
				nested: true,
			}
			if e.loading && node.Pos().same(next.pos) {
				moved = true
			} else {
				moved = e.moveNode(node, next)
			}
			if (collide.Locked || e.loading) && moved {
				nn = node.Pos() // landing past a lock becomes the new desired spot
			} else if !collide.Locked && moved && pack {
				// Pack now, then keep chasing whatever sits past the old obstruction.
				e.packNodes()
				nn.Y = collide.Y + collide.H
				node.setPos(nn)
			}
			didMove = didMove || moved
		} else {
			next := &moveOpts{
				pos:    Position{collide.X, nn.Y + nn.H, collide.W, collide.H},
				skip:   node,
				nested: true,
			}
			moved = e.moveNode(collide, next)
		}
		if !moved {
			return didMove
		}
		collide = nil
	}
	return didMove
}

// --- Swap ---

// Swap exchanges the positions of two unlocked, edge-touching nodes when
// their shapes allow it: identical sizes swap coordinates directly; nodes
// sharing only a column (same width) or row (same height) reorder so the
// later one follows the earlier rather than exchanging coordinates literally.
func (e *Engine) Swap(a, b *Node) bool {
	if a == nil || b == nil || a.Locked || b.Locked {
		return false
	}

	doSwap := func(a, b *Node) bool { // assumes a is before b
		x, y := b.X, b.Y
		b.X, b.Y = a.X, a.Y
		switch {
		case a.H != b.H:
			a.X = x
			a.Y = b.Y + b.H // a goes after b
		case a.W != b.W:
			a.X = b.X + b.W
			a.Y = y
		default:
			a.X, a.Y = x, y
		}
		a.dirty, b.dirty = true, true
		return true
	}

	touched := false
	isTouching := func() bool {
		touched = touching(a.Pos(), b.Pos())
		return touched
	}

	// Same size on a shared row or column, and edge-touching.
	if a.W == b.W && a.H == b.H && (a.X == b.X || a.Y == b.Y) && isTouching() {
		return doSwap(a, b)
	}
	if !touched {
		return false // ran the test and failed, bail out
	}

	// Same columns, different heights.
	if a.W == b.W && a.X == b.X {
		if b.Y < a.Y {
			a, b = b, a
		}
		return doSwap(a, b)
	}
	// Same row, different widths.
	if a.H == b.H && a.Y == b.Y {
		if b.X < a.X {
			a, b = b, a
		}
		return doSwap(a, b)
	}
	return false
}

// --- Packing / compaction ---

// packNodes is the gravity pass. With gravity on, every unlocked node is
// pulled up one row at a time while the candidate row is free. In float mode
// nodes instead drift back toward their pre-gesture Y, never past it.
func (e *Engine) packNodes() {
	if e.batchMode {
		return
	}
	e.sortNodes(false)

	if e.float {
		for _, n := range e.nodes {
			if n.updating || n.orig == nil || n.Y == n.orig.Y {
				continue
			}
			for n.Y > n.orig.Y {
				newY := n.Y - 1
				if e.Collide(n, Position{n.X, newY, n.W, n.H}, nil) != nil {
					break
				}
				n.dirty = true
				n.Y = newY
			}
		}
		return
	}

	for _, n := range e.nodes {
		if n.Locked {
			continue
		}
		for n.Y > 0 {
			newY := n.Y - 1
			if e.Collide(n, Position{n.X, newY, n.W, n.H}, nil) != nil {
				break
			}
			n.dirty = true
			n.Y = newY
		}
	}
}

// Compact recomputes a gap-free layout by re-adding every unlocked node with
// auto-positioning forced on. CompactModeList preserves reading order even if
// that leaves gaps; CompactModeCompact may reorder to fill them.
func (e *Engine) Compact(mode CompactMode) {
	e.compact(mode, true)
}

func (e *Engine) compact(mode CompactMode, doSort bool) {
	if len(e.nodes) == 0 {
		return
	}
	if doSort {
		e.sortNodes(false)
	}
	wasBatch := e.batchMode
	if !wasBatch {
		e.batchUpdate(true, true)
	}
	wasColumnResize := e.inColumnResize
	e.inColumnResize = true // bound-fix-only preparation while re-adding

	list := e.nodes
	e.nodes = nil
	for i, n := range list {
		var after *Node
		if !n.Locked {
			n.AutoPosition = true
			if mode == CompactModeList && i > 0 {
				after = list[i-1]
			}
		}
		e.AddNode(n, false, after)
	}

	e.inColumnResize = wasColumnResize
	if !wasBatch {
		e.batchUpdate(false, true)
	}
}

// --- Batch / gesture bracketing ---

// BatchUpdate suspends packing and write-back notification until the batch
// ends, letting many internal fixups settle before the surface is informed.
// Float is forced on during the batch so nodes can temporarily go anywhere.
func (e *Engine) BatchUpdate(flag bool) {
	e.batchUpdate(flag, true)
}

func (e *Engine) batchUpdate(flag, doPack bool) {
	if e.batchMode == flag {
		return
	}
	if flag {
		e.prevFloat = e.float
		e.float = true
		e.cleanNodes() // before the flag flips, or the clean is suppressed
		e.SaveInitial()
		e.batchMode = true
	} else {
		e.batchMode = false
		e.float = e.prevFloat
		if doPack {
			e.packNodes()
		}
		e.notify(nil)
	}
}

// BeginUpdate brackets the start of an interactive gesture on node: the
// current layout is snapshotted (for revert and float drift) and the node is
// flagged as updating so packing leaves it alone.
func (e *Engine) BeginUpdate(node *Node) {
	if node.updating {
		return
	}
	node.updating = true
	node.skipDown = false
	if !e.batchMode {
		e.SaveInitial()
	}
}

// EndUpdate closes the gesture bracket opened by BeginUpdate.
func (e *Engine) EndUpdate() {
	for _, n := range e.nodes {
		if n.updating {
			n.updating = false
			n.skipDown = false
		}
	}
}

// SaveInitial snapshots every node's geometry into its revert slot and clears
// dirty flags; the snapshot doubles as the float-mode drift anchor.
func (e *Engine) SaveInitial() {
	for _, n := range e.nodes {
		p := n.Pos()
		n.orig = &p
		n.dirty = false
	}
}

// RestoreInitial reverts every node to its SaveInitial snapshot and notifies.
func (e *Engine) RestoreInitial() {
	for _, n := range e.nodes {
		if n.orig == nil || n.Pos().same(*n.orig) {
			continue
		}
		n.setPos(*n.orig)
		n.dirty = true
	}
	e.notify(nil)
}

// DirtyNodes returns the nodes whose geometry changed since the last clean.
func (e *Engine) DirtyNodes() []*Node {
	var out []*Node
	for _, n := range e.nodes {
		if n.dirty {
			out = append(out, n)
		}
	}
	return out
}

// PopAddedNodes returns and clears the nodes recorded by AddNode with
// triggerEvent set. The grid drains these when announcing a settled batch.
func (e *Engine) PopAddedNodes() []*Node {
	out := e.addedNodes
	e.addedNodes = nil
	return out
}

// PopRemovedNodes returns and clears the nodes recorded by RemoveNode and
// RemoveAll with triggerEvent set.
func (e *Engine) PopRemovedNodes() []*Node {
	out := e.removedNodes
	e.removedNodes = nil
	return out
}

func (e *Engine) cleanNodes() {
	if e.batchMode {
		return
	}
	for _, n := range e.nodes {
		n.dirty = false
		n.lastTried = nil
	}
}

// notify invokes the write-back callback with extra plus all dirty nodes.
// Suppressed entirely in batch mode. Larger cached layouts are patched and
// smaller ones invalidated here, since this is the commit point for
// externally visible changes.
func (e *Engine) notify(extra []*Node) {
	if e.batchMode {
		return
	}
	dirty := e.DirtyNodes()
	if !e.inColumnResize {
		e.layouts.nodesChanged(dirty, e.columns)
	}
	if e.onChange == nil {
		return
	}
	if len(extra) == 0 && len(dirty) == 0 {
		return
	}
	e.onChange(append(extra, dirty...))
}

// --- Column reflow ---

// ColumnChanged reflows the layout for a new column count. Shrinking caches
// the current layout under the old count; growing replays a cached layout
// when one exists, and remaps uncached nodes per mode (or fn when non-nil).
func (e *Engine) ColumnChanged(prevColumns, columns int, mode ColumnMode, fn ColumnFunc) {
	if columns <= 0 || prevColumns == columns {
		return
	}
	if columns > e.maxColumns {
		e.maxColumns = columns
	}
	e.columns = columns
	if len(e.nodes) == 0 {
		return
	}

	doCompact := mode == ColumnModeCompact || mode == ColumnModeList
	if doCompact {
		e.sortNodes(false)
	}
	if columns < prevColumns {
		e.layouts.store(e.nodes, prevColumns)
	}
	e.batchUpdate(true, true)

	var placed []*Node
	nodes := e.nodes
	if !doCompact {
		// Reverse sorted so force-adds below go last to front.
		nodes = append([]*Node(nil), e.nodes...)
		c := prevColumns
		sort.SliceStable(nodes, func(i, j int) bool {
			return nodes[i].Y*c+nodes[i].X > nodes[j].Y*c+nodes[j].X
		})
	}

	if columns > prevColumns {
		for _, ce := range e.layouts.get(columns) {
			j := -1
			for i, n := range nodes {
				if n.ID == ce.id {
					j = i
					break
				}
			}
			if j < 0 {
				continue
			}
			n := nodes[j]
			if doCompact {
				n.W = ce.w // positions will be recomputed, keep the width
				continue
			}
			x, y := ce.x, ce.y
			if ce.auto {
				// No cached position: fall back to the first free slot among
				// the nodes placed so far.
				trial := Node{W: n.W, H: n.H, AutoPosition: true}
				if !e.findEmptyPosition(&trial, placed, columns, nil) {
					continue
				}
				x, y = trial.X, trial.Y
			}
			n.X, n.Y, n.W = x, y, ce.w
			placed = append(placed, n)
			nodes = append(nodes[:j], nodes[j+1:]...)
		}
	}

	if doCompact {
		cm := CompactModeCompact
		if mode == ColumnModeList {
			cm = CompactModeList
		}
		e.compact(cm, false)
	} else {
		if len(nodes) > 0 {
			if fn != nil {
				fn(columns, prevColumns, placed, nodes)
				placed = append(placed, nodes...)
			} else {
				ratio := float64(columns) / float64(prevColumns)
				move := mode == ColumnModeMove || mode == ColumnModeMoveScale
				scale := mode == ColumnModeScale || mode == ColumnModeMoveScale
				for _, n := range nodes {
					switch {
					case columns == 1:
						n.X = 0
					case move:
						n.X = int(math.Round(float64(n.X) * ratio))
					default:
						n.X = minInt(n.X, columns-1)
					}
					switch {
					case columns == 1 || prevColumns == 1:
						n.W = 1
					case scale:
						n.W = maxInt(1, int(math.Round(float64(n.W)*ratio)))
					default:
						n.W = minInt(n.W, columns)
					}
					placed = append(placed, n)
				}
			}
		}

		// Force-add in reverse order to trigger natural collision resolution.
		c := columns
		sort.SliceStable(placed, func(i, j int) bool {
			return placed[i].Y*c+placed[i].X > placed[j].Y*c+placed[j].X
		})
		e.inColumnResize = true
		e.nodes = nil
		for _, n := range placed {
			e.AddNode(n, false, nil)
			n.orig = nil
		}
	}

	for _, n := range e.nodes {
		n.orig = nil
	}
	e.batchUpdate(false, !doCompact)
	e.inColumnResize = false
}

// --- Fit checks ---

// WillItFit reports whether the node could be added without overflowing the
// row ceiling. Always true without a ceiling. The check runs on a cloned
// engine; neither the engine nor the node is mutated.
func (e *Engine) WillItFit(node *Node) bool {
	if e.maxRow == 0 {
		return true
	}
	clone := &Engine{
		columns:    e.columns,
		float:      e.float,
		maxColumns: e.maxColumns,
	}
	for _, n := range e.nodes {
		c := *n
		clone.nodes = append(clone.nodes, &c)
	}
	probe := *node
	probe.ID = 0
	probe.Surface = nil
	clone.AddNode(&probe, false, nil)
	return clone.GetRow() <= e.maxRow
}

// --- small helpers ---

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
