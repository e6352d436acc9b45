package lattice

// Vec2 is a 2D vector used for pixel positions, offsets, and deltas
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in pixel space. The coordinate system has
// its origin at the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// EventType identifies a kind of gesture event.
type EventType uint8

const (
	EventDragStart   EventType = iota // fires when movement exceeds the drag threshold
	EventDrag                         // fires on each evaluated pointer sample while dragging
	EventDragStop                     // fires when the pointer is released (or the drag is cancelled)
	EventResizeStart                  // fires when a resize handle gesture activates
	EventResize                       // fires on each evaluated pointer sample while resizing
	EventResizeStop                   // fires when the resize gesture settles
	EventDropOver                     // fires when an active drag enters a drop target's region
	EventDropOut                      // fires when an active drag leaves a drop target's region
	EventDrop                         // fires when a dragged node is committed to a drop target
	EventAdded                        // fires after nodes are added to an engine
	EventRemoved                      // fires after nodes are removed from an engine
	EventChange                       // fires after a settled batch of geometry changes
)

// MouseButton identifies a pointer button. Touch input is normalized to
// MouseButtonLeft by the input backend.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// PointerEvent is a single normalized pointer sample in grid-container pixel
// coordinates. Mouse and touch input are normalized upstream (run.go or the
// synthetic injector); the sessions never see the raw backend event.
type PointerEvent struct {
	X, Y      float64
	Pressed   bool
	Button    MouseButton
	Modifiers KeyModifiers
}

// CompactMode selects how Engine.Compact re-places nodes.
type CompactMode uint8

const (
	// CompactModeCompact may reorder nodes to fill gaps.
	CompactModeCompact CompactMode = iota
	// CompactModeList preserves left-to-right/top-to-bottom ordering even if
	// that leaves gaps.
	CompactModeList
)

// ColumnMode selects how nodes with no cached layout are remapped when the
// column count changes.
type ColumnMode uint8

const (
	ColumnModeNone      ColumnMode = iota // clamp in place, no repositioning
	ColumnModeScale                       // ratio-scale widths only
	ColumnModeMove                        // ratio-shift positions only
	ColumnModeMoveScale                   // both shift and scale (default)
	ColumnModeCompact                     // re-layout via Compact(CompactModeCompact)
	ColumnModeList                        // re-layout via Compact(CompactModeList)
)

// ColumnFunc is a caller-supplied remapping used by Engine.ColumnChanged in
// place of a ColumnMode. placed holds nodes already positioned from the
// layout cache; remaining holds nodes the function must position itself.
type ColumnFunc func(column, prevColumn int, placed, remaining []*Node)

// ResizeDir identifies which edge or corner handle a resize gesture grabs.
type ResizeDir uint8

const (
	ResizeN  ResizeDir = iota // top edge
	ResizeE                   // right edge
	ResizeS                   // bottom edge
	ResizeW                   // left edge
	ResizeNE                  // top-right corner
	ResizeNW                  // top-left corner
	ResizeSE                  // bottom-right corner
	ResizeSW                  // bottom-left corner
)

// left/right/top/bottom report which edges the handle moves.
func (d ResizeDir) left() bool   { return d == ResizeW || d == ResizeNW || d == ResizeSW }
func (d ResizeDir) right() bool  { return d == ResizeE || d == ResizeNE || d == ResizeSE }
func (d ResizeDir) top() bool    { return d == ResizeN || d == ResizeNE || d == ResizeNW }
func (d ResizeDir) bottom() bool { return d == ResizeS || d == ResizeSE || d == ResizeSW }

// gestureState is the lifecycle of a drag or resize session.
type gestureState uint8

const (
	gestureIdle    gestureState = iota // no pointer claim
	gestureArmed                       // pointer down, below the movement threshold
	gestureActive                      // threshold exceeded, gesture in progress
	gestureSettled                     // pointer released or gesture cancelled
)
