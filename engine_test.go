package lattice

import (
	"testing"
)

func testEngine(cols int) *Engine {
	return NewEngine(Options{Columns: cols})
}

func addBox(t *testing.T, e *Engine, id string, x, y, w, h int) *Node {
	t.Helper()
	n := e.AddNode(&Node{UserID: id, X: x, Y: y, W: w, H: h}, false, nil)
	if n == nil {
		t.Fatalf("AddNode(%s) returned nil", id)
	}
	return n
}

func addAuto(t *testing.T, e *Engine, id string, w, h int) *Node {
	t.Helper()
	n := e.AddNode(&Node{UserID: id, W: w, H: h, AutoPosition: true}, false, nil)
	if n == nil {
		t.Fatalf("AddNode(%s) returned nil", id)
	}
	return n
}

func assertPos(t *testing.T, n *Node, x, y, w, h int) {
	t.Helper()
	if n.X != x || n.Y != y || n.W != w || n.H != h {
		t.Errorf("%s at (%d,%d %dx%d), want (%d,%d %dx%d)",
			n.UserID, n.X, n.Y, n.W, n.H, x, y, w, h)
	}
}

// --- Adding / auto-position ---

func TestAddNodeAutoPosition(t *testing.T) {
	e := testEngine(12)
	a := addAuto(t, e, "a", 4, 2)
	b := addAuto(t, e, "b", 4, 2)
	c := addAuto(t, e, "c", 8, 2)
	assertPos(t, a, 0, 0, 4, 2)
	assertPos(t, b, 4, 0, 4, 2)
	assertPos(t, c, 0, 2, 8, 2)
}

func TestAddNodeAutoPositionClearsFlag(t *testing.T) {
	e := testEngine(12)
	a := addAuto(t, e, "a", 2, 2)
	if a.AutoPosition {
		t.Error("AutoPosition still set after placement")
	}
}

func TestAddNodeSkipsNarrowRemainder(t *testing.T) {
	e := testEngine(4)
	addBox(t, e, "wide", 0, 0, 3, 1)
	n := addAuto(t, e, "n", 2, 2)
	// No 2-wide slot left on row 0, so the scan wraps to row 1.
	assertPos(t, n, 0, 1, 2, 2)
}

func TestAddNodeDuplicateID(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 2, 2)
	again := e.AddNode(a, false, nil)
	if again != a {
		t.Error("re-adding the same node did not return the existing one")
	}
	if len(e.Nodes()) != 1 {
		t.Errorf("len(nodes) = %d, want 1", len(e.Nodes()))
	}
}

func TestAddNodeTooWideForAutoPosition(t *testing.T) {
	e := testEngine(4)
	n := e.AddNode(&Node{W: 6, H: 1, AutoPosition: true}, false, nil)
	// Wider than the grid: clamped to full width instead of auto-placed.
	assertPos(t, n, 0, 0, 4, 1)
}

func TestAddNodeAutoPositionFillsUpToRowCeiling(t *testing.T) {
	e := NewEngine(Options{Columns: 2, MaxRow: 2})
	addBox(t, e, "top", 0, 0, 2, 1)
	n := e.AddNode(&Node{UserID: "slot", W: 1, H: 1, AutoPosition: true}, false, nil)
	if n == nil {
		t.Fatal("free slot under the ceiling refused")
	}
	assertPos(t, n, 0, 1, 1, 1)
}

func TestAddNodeAutoPositionRefusedOnFullBoundedGrid(t *testing.T) {
	e := NewEngine(Options{Columns: 2, MaxRow: 2})
	addBox(t, e, "full", 0, 0, 2, 2)
	n := e.AddNode(&Node{UserID: "late", W: 1, H: 1, AutoPosition: true}, false, nil)
	if n != nil {
		t.Fatalf("auto-position on a full bounded grid placed at (%d,%d)", n.X, n.Y)
	}
	if len(e.Nodes()) != 1 {
		t.Errorf("len(nodes) = %d, want 1", len(e.Nodes()))
	}
}

// --- Bounds fixing ---

func TestBoundFixNegativeCoords(t *testing.T) {
	e := testEngine(12)
	n := addBox(t, e, "n", -3, -2, 2, 2)
	assertPos(t, n, 0, 0, 2, 2)
}

func TestBoundFixTooWide(t *testing.T) {
	e := testEngine(12)
	n := addBox(t, e, "n", 0, 0, 20, 1)
	assertPos(t, n, 0, 0, 12, 1)
}

func TestBoundFixOverhangShiftsLeft(t *testing.T) {
	e := testEngine(12)
	n := addBox(t, e, "n", 10, 0, 4, 1)
	assertPos(t, n, 8, 0, 4, 1)
}

func TestBoundFixZeroSizeDefaultsToOne(t *testing.T) {
	e := testEngine(12)
	n := addBox(t, e, "n", 0, 0, 0, 0)
	assertPos(t, n, 0, 0, 1, 1)
}

func TestEnsureUserIDSuffix(t *testing.T) {
	e := testEngine(12)
	addAuto(t, e, "chart", 2, 2)
	b := addAuto(t, e, "chart", 2, 2)
	c := addAuto(t, e, "chart", 2, 2)
	if b.UserID != "chart-2" {
		t.Errorf("second id = %q, want chart-2", b.UserID)
	}
	if c.UserID != "chart-3" {
		t.Errorf("third id = %q, want chart-3", c.UserID)
	}
}

// --- Gravity / float ---

func TestGravityPullsUp(t *testing.T) {
	e := testEngine(12)
	n := addBox(t, e, "n", 0, 5, 2, 2)
	assertPos(t, n, 0, 0, 2, 2)
}

func TestGravityStopsAtObstruction(t *testing.T) {
	e := testEngine(12)
	addBox(t, e, "top", 0, 0, 2, 2)
	n := addBox(t, e, "n", 0, 5, 2, 2)
	assertPos(t, n, 0, 2, 2, 2)
}

func TestFloatKeepsPosition(t *testing.T) {
	e := NewEngine(Options{Columns: 12, Float: true})
	n := addBox(t, e, "n", 0, 5, 2, 2)
	assertPos(t, n, 0, 5, 2, 2)
}

func TestSetFloatOffPacks(t *testing.T) {
	e := NewEngine(Options{Columns: 12, Float: true})
	n := addBox(t, e, "n", 0, 5, 2, 2)
	e.SetFloat(false)
	assertPos(t, n, 0, 0, 2, 2)
}

func TestLockedNodeNeverPacks(t *testing.T) {
	e := testEngine(12)
	n := e.AddNode(&Node{UserID: "pinned", X: 0, Y: 3, W: 2, H: 2, Locked: true}, false, nil)
	assertPos(t, n, 0, 3, 2, 2)
}

// --- Moving / collisions ---

func TestMoveNodeShortCircuit(t *testing.T) {
	e := testEngine(12)
	n := addBox(t, e, "n", 0, 0, 2, 2)
	if e.MoveNode(n, MoveRequest{Pos: Position{0, 0, 2, 2}}) {
		t.Error("move to the same position reported a change")
	}
}

func TestMoveNodePushesObstructionFloat(t *testing.T) {
	e := NewEngine(Options{Columns: 12, Float: true})
	a := addBox(t, e, "a", 0, 0, 4, 2)
	b := addBox(t, e, "b", 0, 2, 4, 2)
	if !e.MoveNode(a, MoveRequest{Pos: Position{0, 2, 4, 2}}) {
		t.Fatal("move refused")
	}
	assertPos(t, a, 0, 2, 4, 2)
	assertPos(t, b, 0, 4, 4, 2)
}

func TestMoveNodePastLockedObstruction(t *testing.T) {
	e := testEngine(12)
	l := e.AddNode(&Node{UserID: "locked", X: 0, Y: 0, W: 4, H: 4, Locked: true}, false, nil)
	b := addBox(t, e, "b", 4, 0, 4, 4)
	if !e.MoveNode(b, MoveRequest{Pos: Position{0, 0, 4, 4}}) {
		t.Fatal("move refused")
	}
	// The locked tile cannot be pushed; the mover lands just below it.
	assertPos(t, l, 0, 0, 4, 4)
	assertPos(t, b, 0, 4, 4, 4)
}

func TestMoveNodeResizeGrowPushesDown(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 4, 2)
	b := addBox(t, e, "b", 0, 2, 4, 2)
	if !e.MoveNode(a, MoveRequest{Pos: Position{0, 0, 4, 3}, Resizing: true}) {
		t.Fatal("resize refused")
	}
	assertPos(t, a, 0, 0, 4, 3)
	assertPos(t, b, 0, 3, 4, 2)
}

// --- Direction coverage ---

// rectFor builds the pixel rect of a cell position at 100px cells.
func rectFor(p Position) Rect {
	return Rect{
		X:      float64(p.X) * 100,
		Y:      float64(p.Y) * 100,
		Width:  float64(p.W) * 100,
		Height: float64(p.H) * 100,
	}
}

func TestDragCoverageSwapsNeighbor(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 4, 2)
	b := addBox(t, e, "b", 4, 0, 4, 2)
	a.moving = true
	a.rect = rectFor(a.Pos())
	b.rect = rectFor(b.Pos())

	moved := e.MoveNode(a, MoveRequest{
		Pos:  Position{4, 0, 4, 2},
		Rect: Rect{X: 410, Y: 0, Width: 400, Height: 200},
	})
	if !moved {
		t.Fatal("covered move refused")
	}
	assertPos(t, a, 4, 0, 4, 2)
	assertPos(t, b, 0, 0, 4, 2)
}

func TestDragCoverageBelowThresholdIgnored(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 4, 2)
	b := addBox(t, e, "b", 4, 0, 4, 2)
	a.moving = true
	a.rect = rectFor(a.Pos())
	b.rect = rectFor(b.Pos())

	// Nudged 60px right: only 15% of the neighbor is covered.
	moved := e.MoveNode(a, MoveRequest{
		Pos:  Position{1, 0, 4, 2},
		Rect: Rect{X: 60, Y: 0, Width: 400, Height: 200},
	})
	if moved {
		t.Error("uncovered move was applied")
	}
	assertPos(t, a, 0, 0, 4, 2)
	assertPos(t, b, 4, 0, 4, 2)
}

// --- Swap ---

func TestSwapSameSize(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 4, 2)
	b := addBox(t, e, "b", 4, 0, 4, 2)
	if !e.Swap(a, b) {
		t.Fatal("swap refused")
	}
	assertPos(t, a, 4, 0, 4, 2)
	assertPos(t, b, 0, 0, 4, 2)
}

func TestSwapRoundTripRestores(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 4, 2)
	b := addBox(t, e, "b", 4, 0, 4, 2)
	if !e.Swap(a, b) || !e.Swap(b, a) {
		t.Fatal("swap refused")
	}
	assertPos(t, a, 0, 0, 4, 2)
	assertPos(t, b, 4, 0, 4, 2)
}

func TestSwapDifferentWidthsSameRow(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 2, 2)
	b := addBox(t, e, "b", 2, 0, 4, 2)
	if !e.Swap(a, b) {
		t.Fatal("swap refused")
	}
	// The narrower one ends up after the wider one, not at its old origin.
	assertPos(t, b, 0, 0, 4, 2)
	assertPos(t, a, 4, 0, 2, 2)
}

func TestSwapDifferentHeightsSameColumn(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 2, 1)
	b := addBox(t, e, "b", 0, 1, 2, 3)
	if !e.Swap(a, b) {
		t.Fatal("swap refused")
	}
	assertPos(t, b, 0, 0, 2, 3)
	assertPos(t, a, 0, 3, 2, 1)
}

func TestSwapRefusedNotTouching(t *testing.T) {
	e := NewEngine(Options{Columns: 12, Float: true})
	a := addBox(t, e, "a", 0, 0, 2, 2)
	b := addBox(t, e, "b", 0, 4, 2, 2)
	if e.Swap(a, b) {
		t.Error("swap of separated nodes succeeded")
	}
}

func TestSwapRefusedLocked(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 2, 2)
	b := e.AddNode(&Node{UserID: "b", X: 2, Y: 0, W: 2, H: 2, Locked: true}, false, nil)
	if e.Swap(a, b) {
		t.Error("swap with a locked node succeeded")
	}
}

// --- MoveNodeCheck / row ceiling ---

func TestMoveNodeCheckRefusesLocked(t *testing.T) {
	e := testEngine(12)
	n := e.AddNode(&Node{UserID: "n", X: 0, Y: 0, W: 2, H: 2, Locked: true}, false, nil)
	if e.MoveNodeCheck(n, MoveRequest{Pos: Position{4, 0, 2, 2}}) {
		t.Error("locked node moved")
	}
}

func TestMoveNodeCheckRefusesOverflow(t *testing.T) {
	e := NewEngine(Options{Columns: 4, MaxRow: 4})
	a := addBox(t, e, "a", 0, 0, 2, 4)
	b := addBox(t, e, "b", 2, 0, 2, 4)
	// Pushing a below b would need row 8.
	if e.MoveNodeCheck(b, MoveRequest{Pos: Position{0, 0, 2, 4}}) {
		t.Error("overflowing move accepted")
	}
	assertPos(t, a, 0, 0, 2, 4)
	assertPos(t, b, 2, 0, 2, 4)
}

func TestMoveNodeCheckSwapsUnderCeiling(t *testing.T) {
	e := NewEngine(Options{Columns: 4, MaxRow: 4})
	a := addBox(t, e, "a", 0, 0, 2, 4)
	b := addBox(t, e, "b", 2, 0, 2, 4)
	b.moving = true
	a.rect = rectFor(a.Pos())
	b.rect = rectFor(b.Pos())

	ok := e.MoveNodeCheck(b, MoveRequest{
		Pos:  Position{0, 0, 2, 4},
		Rect: Rect{X: 10, Y: 0, Width: 200, Height: 400},
	})
	if !ok {
		t.Fatal("swap move refused")
	}
	assertPos(t, b, 0, 0, 2, 4)
	assertPos(t, a, 2, 0, 2, 4)
}

func TestMoveNodeCheckRecordsRefusedCandidate(t *testing.T) {
	e := NewEngine(Options{Columns: 4, MaxRow: 4})
	a := addBox(t, e, "a", 0, 0, 2, 4)
	b := addBox(t, e, "b", 2, 0, 2, 4)
	want := Position{0, 0, 2, 4}
	if e.MoveNodeCheck(b, MoveRequest{Pos: want}) {
		t.Fatal("overflowing move accepted")
	}
	if b.lastTried == nil || !b.lastTried.same(want) {
		t.Fatalf("refused candidate not recorded: %+v", b.lastTried)
	}
	if e.MoveNodeCheck(b, MoveRequest{Pos: want}) {
		t.Error("refused candidate accepted on identical retry")
	}
	e.cleanNodes()
	if b.lastTried != nil {
		t.Error("settling did not clear the refusal record")
	}
	_ = a
}

func TestWillItFit(t *testing.T) {
	e := NewEngine(Options{Columns: 4, MaxRow: 2})
	if !e.WillItFit(&Node{W: 2, H: 2}) {
		t.Error("fitting node refused on empty grid")
	}
	addBox(t, e, "a", 0, 0, 4, 2)
	if e.WillItFit(&Node{W: 1, H: 1}) {
		t.Error("node accepted with no room under the ceiling")
	}
}

// --- Compact ---

func TestCompactFillsGaps(t *testing.T) {
	e := NewEngine(Options{Columns: 6, Float: true})
	a := addBox(t, e, "a", 0, 0, 2, 2)
	b := addBox(t, e, "b", 4, 4, 2, 2)
	e.Compact(CompactModeCompact)
	assertPos(t, a, 0, 0, 2, 2)
	assertPos(t, b, 2, 0, 2, 2)
}

func TestCompactIdempotent(t *testing.T) {
	e := NewEngine(Options{Columns: 6, Float: true})
	addBox(t, e, "a", 0, 0, 2, 2)
	addBox(t, e, "b", 4, 4, 2, 2)
	addBox(t, e, "c", 2, 7, 4, 1)
	e.Compact(CompactModeCompact)
	first := e.Save()
	e.Compact(CompactModeCompact)
	second := e.Save()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("node %d moved on second compact: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCompactSkipsLocked(t *testing.T) {
	e := NewEngine(Options{Columns: 6, Float: true})
	l := e.AddNode(&Node{UserID: "l", X: 2, Y: 3, W: 2, H: 2, Locked: true}, false, nil)
	e.Compact(CompactModeCompact)
	assertPos(t, l, 2, 3, 2, 2)
}

// --- Batch / snapshot ---

func TestBatchUpdateDefersNotify(t *testing.T) {
	calls := 0
	e := NewEngine(Options{Columns: 12, OnChange: func([]*Node) { calls++ }})
	e.BatchUpdate(true)
	n := e.AddNode(&Node{UserID: "n", X: 0, Y: 5, W: 2, H: 2}, false, nil)
	if calls != 0 {
		t.Fatalf("notified %d times during batch", calls)
	}
	e.BatchUpdate(false)
	if calls != 1 {
		t.Errorf("notified %d times after batch end, want 1", calls)
	}
	assertPos(t, n, 0, 0, 2, 2) // gravity resumed at batch end
}

func TestBatchUpdateForcesFloat(t *testing.T) {
	e := testEngine(12)
	e.BatchUpdate(true)
	if !e.Float() {
		t.Error("float off during batch")
	}
	e.BatchUpdate(false)
	if e.Float() {
		t.Error("float still on after batch")
	}
}

func TestRestoreInitialReverts(t *testing.T) {
	e := NewEngine(Options{Columns: 12, Float: true})
	a := addBox(t, e, "a", 0, 0, 2, 2)
	b := addBox(t, e, "b", 4, 0, 2, 2)
	e.SaveInitial()
	e.MoveNode(a, MoveRequest{Pos: Position{8, 3, 2, 2}})
	e.MoveNode(b, MoveRequest{Pos: Position{0, 6, 2, 2}})
	e.RestoreInitial()
	assertPos(t, a, 0, 0, 2, 2)
	assertPos(t, b, 4, 0, 2, 2)
}

func TestRemoveNodeRepacks(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 2, 2)
	b := addBox(t, e, "b", 0, 2, 2, 2)
	e.RemoveNode(a, false)
	assertPos(t, b, 0, 0, 2, 2)
	if len(e.Nodes()) != 1 {
		t.Errorf("len(nodes) = %d, want 1", len(e.Nodes()))
	}
}

func TestPopAddedNodesDrainsRecorded(t *testing.T) {
	e := testEngine(12)
	a := e.AddNode(&Node{UserID: "a", W: 2, H: 2, AutoPosition: true}, true, nil)
	b := e.AddNode(&Node{UserID: "b", W: 2, H: 2, AutoPosition: true}, true, nil)
	addBox(t, e, "quiet", 8, 0, 2, 2) // not recorded
	got := e.PopAddedNodes()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("popped %d nodes, want the two recorded adds", len(got))
	}
	if len(e.PopAddedNodes()) != 0 {
		t.Error("second pop was not empty")
	}
}

func TestPopRemovedNodesDrainsRecorded(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 2, 2)
	addBox(t, e, "b", 2, 0, 2, 2)
	e.RemoveNode(a, true)
	got := e.PopRemovedNodes()
	if len(got) != 1 || got[0] != a {
		t.Fatalf("popped %v, want just the recorded removal", got)
	}
	if len(e.PopRemovedNodes()) != 0 {
		t.Error("second pop was not empty")
	}
}

func TestGetRow(t *testing.T) {
	e := testEngine(12)
	if e.GetRow() != 0 {
		t.Errorf("empty GetRow = %d", e.GetRow())
	}
	addBox(t, e, "a", 0, 0, 2, 3)
	addBox(t, e, "b", 4, 0, 2, 1)
	if e.GetRow() != 3 {
		t.Errorf("GetRow = %d, want 3", e.GetRow())
	}
}

// --- Column reflow ---

func TestColumnChangedRoundTripRestores(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 6, 2)
	b := addBox(t, e, "b", 6, 0, 6, 2)

	e.ColumnChanged(12, 1, ColumnModeMoveScale, nil)
	if e.Columns() != 1 {
		t.Fatalf("columns = %d, want 1", e.Columns())
	}
	if a.W != 1 || b.W != 1 {
		t.Fatalf("widths not collapsed: a=%d b=%d", a.W, b.W)
	}

	e.ColumnChanged(1, 12, ColumnModeMoveScale, nil)
	assertPos(t, a, 0, 0, 6, 2)
	assertPos(t, b, 6, 0, 6, 2)
}

func TestColumnChangedScalesWithoutCache(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 6, 2)
	b := addBox(t, e, "b", 6, 0, 6, 2)
	e.ColumnChanged(12, 6, ColumnModeMoveScale, nil)
	assertPos(t, a, 0, 0, 3, 2)
	assertPos(t, b, 3, 0, 3, 2)
}

func TestColumnChangedNoneClampsOnly(t *testing.T) {
	e := testEngine(12)
	a := addBox(t, e, "a", 0, 0, 4, 2)
	b := addBox(t, e, "b", 8, 0, 4, 2)
	e.ColumnChanged(12, 6, ColumnModeNone, nil)
	if a.W != 4 {
		t.Errorf("a.W = %d, want unchanged 4", a.W)
	}
	if b.X+b.W > 6 {
		t.Errorf("b overflows 6 columns: x=%d w=%d", b.X, b.W)
	}
}

func TestColumnChangedCustomFunc(t *testing.T) {
	e := testEngine(12)
	addBox(t, e, "a", 0, 0, 6, 2)
	called := false
	e.ColumnChanged(12, 6, ColumnModeNone, func(cols, prev int, placed, remaining []*Node) {
		called = true
		for _, n := range remaining {
			n.X, n.W = 0, cols
		}
	})
	if !called {
		t.Fatal("custom reflow func not called")
	}
	n := e.NodeByUserID("a")
	assertPos(t, n, 0, 0, 6, 2)
}

func TestColumnChangedCompactMode(t *testing.T) {
	e := testEngine(12)
	addBox(t, e, "a", 0, 0, 3, 2)
	addBox(t, e, "b", 3, 0, 3, 2)
	e.ColumnChanged(12, 6, ColumnModeCompact, nil)
	for _, n := range e.Nodes() {
		if n.X+n.W > 6 {
			t.Errorf("%s overflows: x=%d w=%d", n.UserID, n.X, n.W)
		}
	}
}
