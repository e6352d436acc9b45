package lattice

// --- ID counter ---

// nodeIDCounter is a plain counter (no atomic — lattice is single-threaded).
var nodeIDCounter int

func nextNodeID() int {
	nodeIDCounter++
	return nodeIDCounter
}

// --- Position ---

// Position is a grid-cell rectangle: X/Y in cells from the top-left,
// W/H in cells.
type Position struct {
	X, Y, W, H int
}

// same reports whether two positions are identical.
func (p Position) same(o Position) bool {
	return p.X == o.X && p.Y == o.Y && p.W == o.W && p.H == o.H
}

// intercepted reports whether two cell rectangles overlap, using half-open
// interval logic: they overlap unless one is entirely above, below, left of,
// or right of the other.
func intercepted(a, b Position) bool {
	return !(a.Y >= b.Y+b.H || a.Y+a.H <= b.Y ||
		a.X+a.W <= b.X || a.X >= b.X+b.W)
}

// touching reports whether two cell rectangles intersect after inflating b by
// half a cell in every direction, so edge-adjacent rectangles count.
func touching(a, b Position) bool {
	bx := float64(b.X) - 0.5
	by := float64(b.Y) - 0.5
	bw := float64(b.W) + 1
	bh := float64(b.H) + 1
	return !(float64(a.Y) >= by+bh || float64(a.Y+a.H) <= by ||
		float64(a.X+a.W) <= bx || float64(a.X) >= bx+bw)
}

// --- Node ---

// Node is a placed grid item. A single flat struct is used for every item to
// avoid interface dispatch on the hot paths (collision and compaction scans).
//
// Geometry invariants maintained by the engine: W >= 1, H >= 1, X >= 0,
// Y >= 0, X+W <= columns, and Y+H <= the row ceiling when one is set.
type Node struct {
	// Identity
	ID     int    // stable internal id, assigned once by the owning engine
	UserID string // optional user-supplied id, de-duplicated on collision by suffixing

	// Geometry (grid-cell units)
	X, Y, W, H int

	// Constraints. Zero means unset.
	MinW, MinH, MaxW, MaxH int
	Locked                 bool // immovable and unpushable
	NoMove                 bool // user moves refused (engine fixups still apply)
	NoResize               bool // user resizes refused

	// AutoPosition asks the engine to scan row-major for the first free
	// footprint instead of using X/Y. Cleared once a slot is found.
	AutoPosition bool

	// SizeToContent suppresses vertical resize deltas; the collaborator owns H.
	SizeToContent bool

	// Metadata
	UserData any

	// Surface is the optional visual element for this node. The engine never
	// touches it; sessions use it for proxy creation and pixel hit rects.
	Surface Surface

	// Transient gesture state
	orig             *Position // snapshot at gesture start, for revert and dirty-compare
	dirty            bool      // geometry differs from the last committed state
	rect             Rect      // cached pixel rect for hit testing during a gesture
	moving           bool      // an interactive drag owns this node
	resizing         bool      // an interactive resize owns this node
	updating         bool      // inside a BeginUpdate/EndUpdate bracket
	lastTried        *Position // last rejected candidate, to avoid repeating failed attempts
	skipDown         bool      // one-shot: a downward push allowance has been consumed
	temporaryRemoved bool      // lifted out of its container mid-drag, may return
}

// Pos returns the node's current cell rectangle.
func (n *Node) Pos() Position {
	return Position{n.X, n.Y, n.W, n.H}
}

func (n *Node) setPos(p Position) {
	n.X, n.Y, n.W, n.H = p.X, p.Y, p.W, p.H
}

// Dirty reports whether the node's geometry changed since the engine last
// notified its write-back callback.
func (n *Node) Dirty() bool {
	return n.dirty
}

// Moving reports whether an interactive drag session currently owns the node.
func (n *Node) Moving() bool {
	return n.moving
}

// Resizing reports whether an interactive resize session currently owns the node.
func (n *Node) Resizing() bool {
	return n.resizing
}

// sanitizeMinMax drops unusable constraint values: negatives are treated as
// unset, and an inverted min/max pair collapses to the min.
func (n *Node) sanitizeMinMax() {
	if n.MinW < 0 {
		n.MinW = 0
	}
	if n.MinH < 0 {
		n.MinH = 0
	}
	if n.MaxW < 0 {
		n.MaxW = 0
	}
	if n.MaxH < 0 {
		n.MaxH = 0
	}
	if n.MaxW != 0 && n.MinW > n.MaxW {
		n.MaxW = n.MinW
	}
	if n.MaxH != 0 && n.MinH > n.MaxH {
		n.MaxH = n.MinH
	}
}

// clearTransient resets per-gesture state once a gesture fully settles.
func (n *Node) clearTransient() {
	n.orig = nil
	n.lastTried = nil
	n.skipDown = false
	n.moving = false
	n.resizing = false
	n.updating = false
}

// canRotate reports whether a 90° rotation toggle is allowed for this node.
// Rotation is refused for locked or non-resizable nodes, square-pinned nodes
// (width pinned equal to height), and fully pinned constraints (min == max).
func (n *Node) canRotate() bool {
	if n.Locked || n.NoResize {
		return false
	}
	if n.MinW != 0 && n.MinW == n.MaxW && n.MinH != 0 && n.MinH == n.MaxH {
		return false
	}
	if n.MinW != 0 && n.MinW == n.MinH && n.MaxW != 0 && n.MaxW == n.MaxH && n.W == n.H {
		return false
	}
	return true
}
