package lattice

import "testing"

// twoGrids builds side-by-side drop-capable grids sharing one context:
// left covers x 0-600, right covers x 600-1200, both 6 columns of 100px.
func twoGrids(accept func(*Node) bool) (*InteractionContext, *Grid, *Grid) {
	ctx := NewContext()
	left := NewGrid(ctx, NewEngine(Options{Columns: 6}), GridConfig{
		Bounds:     Rect{X: 0, Y: 0, Width: 600, Height: 600},
		CellWidth:  100,
		CellHeight: 100,
		Capabilities: Capabilities{
			Drag: &DragConfig{},
			Drop: &DropConfig{},
		},
	})
	right := NewGrid(ctx, NewEngine(Options{Columns: 6}), GridConfig{
		Bounds:     Rect{X: 600, Y: 0, Width: 600, Height: 600},
		CellWidth:  100,
		CellHeight: 100,
		Capabilities: Capabilities{
			Drag: &DragConfig{},
			Drop: &DropConfig{Accept: accept},
		},
	})
	return ctx, left, right
}

func TestDropTransfersBetweenGrids(t *testing.T) {
	ctx, left, right := twoGrids(nil)
	n, _ := addTile(t, left, "a", 0, 0, 2, 2)
	overs := recordEvents(right, EventDropOver, EventDrop)
	var dropped *Node
	right.On(EventDrop, func(ev GestureEvent) { dropped = ev.Node })

	press(ctx, 50, 50)
	move(ctx, 750, 50)
	release(ctx, 750, 50)

	if left.Engine().NodeByUserID("a") != nil {
		t.Error("node still in the source grid")
	}
	got := right.Engine().NodeByUserID("a")
	if got == nil {
		t.Fatal("node missing from the target grid")
	}
	if got != n {
		t.Error("transfer replaced the node instead of moving it")
	}
	if n.temporaryRemoved {
		t.Error("temporaryRemoved flag leaked past the drop")
	}
	if dropped != n {
		t.Error("drop event did not carry the node")
	}
	if len(*overs) < 2 {
		t.Errorf("target events = %v, want over then drop", *overs)
	}
}

func TestDropOverOutEvents(t *testing.T) {
	ctx, left, right := twoGrids(nil)
	addTile(t, left, "a", 0, 0, 2, 2)
	outs := 0
	right.On(EventDropOut, func(GestureEvent) { outs++ })

	press(ctx, 50, 50)
	move(ctx, 750, 50) // into the right grid
	move(ctx, 50, 50)  // and back out
	release(ctx, 50, 50)

	if outs != 1 {
		t.Errorf("drop-out fired %d times, want 1", outs)
	}
	if left.Engine().NodeByUserID("a") == nil {
		t.Error("node did not return to the source grid")
	}
	if right.Engine().NodeByUserID("a") != nil {
		t.Error("node left behind in the abandoned target")
	}
}

func TestDropAcceptPredicateRejects(t *testing.T) {
	ctx, left, right := twoGrids(func(n *Node) bool { return n.W <= 1 })
	n, _ := addTile(t, left, "a", 0, 0, 2, 2)

	press(ctx, 50, 50)
	move(ctx, 750, 50)
	release(ctx, 750, 50)

	// The target rejects, so the node never leaves its engine; the drag
	// keeps evaluating against the source, clamped to its last column.
	if right.Engine().NodeByUserID("a") != nil {
		t.Error("rejected node entered the target engine")
	}
	got := left.Engine().NodeByUserID("a")
	if got == nil {
		t.Fatal("node lost after a rejected drop")
	}
	assertPos(t, got, 4, 0, 2, 2)
	if n.temporaryRemoved {
		t.Error("temporaryRemoved flag leaked")
	}
}

func TestDropCancelRevertsTransfer(t *testing.T) {
	ctx, left, right := twoGrids(nil)
	n, _ := addTile(t, left, "a", 0, 0, 2, 2)

	press(ctx, 50, 50)
	move(ctx, 750, 50)
	if right.Engine().NodeByUserID("a") == nil {
		t.Fatal("node not transferred mid-drag")
	}
	ctx.CancelDrag()

	if right.Engine().NodeByUserID("a") != nil {
		t.Error("cancel left the node in the target")
	}
	got := left.Engine().NodeByUserID("a")
	if got == nil {
		t.Fatal("cancel lost the node")
	}
	assertPos(t, got, 0, 0, 2, 2)
	if ctx.Claimed() {
		t.Error("claim leaked after cancel")
	}
	_ = n
}

func TestDropAddedRemovedEvents(t *testing.T) {
	ctx, left, right := twoGrids(nil)
	addTile(t, left, "a", 0, 0, 2, 2)
	removed := 0
	added := 0
	left.On(EventRemoved, func(GestureEvent) { removed++ })
	right.On(EventAdded, func(GestureEvent) { added++ })

	press(ctx, 50, 50)
	move(ctx, 750, 50)
	release(ctx, 750, 50)

	if removed != 1 || added != 1 {
		t.Errorf("removed=%d added=%d, want 1/1", removed, added)
	}
}

func TestDropDeepestGridWins(t *testing.T) {
	ctx := NewContext()
	outer := NewGrid(ctx, NewEngine(Options{Columns: 12}), GridConfig{
		Bounds:     Rect{X: 0, Y: 0, Width: 1200, Height: 600},
		CellWidth:  100,
		CellHeight: 100,
		Capabilities: Capabilities{
			Drag: &DragConfig{},
			Drop: &DropConfig{},
		},
	})
	host := outer.Engine().AddNode(&Node{UserID: "host", X: 6, Y: 0, W: 6, H: 6, NoMove: true}, false, nil)
	inner := NewGrid(ctx, NewEngine(Options{Columns: 6}), GridConfig{
		Bounds:     Rect{X: 600, Y: 0, Width: 600, Height: 600},
		CellWidth:  100,
		CellHeight: 100,
		Parent:     outer,
		ParentNode: host,
		Capabilities: Capabilities{
			Drop: &DropConfig{},
		},
	})
	n, _ := addTile(t, outer, "a", 0, 0, 2, 2)

	press(ctx, 50, 50)
	move(ctx, 750, 50)
	release(ctx, 750, 50)

	if inner.Engine().NodeByUserID("a") == nil {
		t.Error("node not dropped into the nested grid")
	}
	if outer.Engine().NodeByUserID("a") != nil {
		t.Error("node still in the outer grid")
	}
	_ = n
}
