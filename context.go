package lattice

import "time"

// InteractionContext replaces ambient global interaction state with an
// explicit object shared by every Grid registered on it. It carries the
// mutual-exclusion claims — one gesture, one dragged session, one drop
// target, one resize hover at a time — plus the optional pacing window and a
// cooperative single-shot timer queue. There is no locking primitive: only
// one gesture can be Active at a time by construction, enforced when a
// session is created.
type InteractionContext struct {
	claimed     bool         // pointer-down claimed (Armed through Settled)
	active      pointerSink  // session receiving routed samples (armed or active)
	drag        *DragSession // active dragged session
	dropTarget  *Grid        // grid currently owning the pointer during a drag
	resizeHover *Node        // node whose handle claims the pointer (exclusive with drag)

	pacing time.Duration // >0 coalesces drag collision evaluation per window

	now    time.Time
	timers []singleShot

	grids []*Grid // registration order, used for drop-target resolution

	injected []PointerEvent // synthetic input queue, one consumed per Update
	script   *gestureScript // scripted gesture playback, if loaded
}

// singleShot is a deferred call fired from Advance; never a blocking wait.
type singleShot struct {
	at time.Time
	fn func()
}

// NewContext creates an empty interaction context.
func NewContext() *InteractionContext {
	return &InteractionContext{}
}

// SetPacing sets the drag evaluation coalescing window. Zero disables pacing:
// every pointer sample is evaluated against the layout engine immediately.
func (c *InteractionContext) SetPacing(d time.Duration) {
	c.pacing = d
}

// Pacing returns the current coalescing window.
func (c *InteractionContext) Pacing() time.Duration {
	return c.pacing
}

// Claimed reports whether a gesture currently owns the pointer.
func (c *InteractionContext) Claimed() bool {
	return c.claimed
}

// ActiveDrag returns the active drag session, or nil.
func (c *InteractionContext) ActiveDrag() *DragSession {
	return c.drag
}

// DropTarget returns the grid currently claiming the pointer mid-drag, or nil.
func (c *InteractionContext) DropTarget() *Grid {
	return c.dropTarget
}

// Advance moves the context clock forward and fires every due single-shot
// timer, in arming order among those due; a short timer armed behind a longer
// one still fires on time.
func (c *InteractionContext) Advance(now time.Time) {
	c.now = now
	for i := 0; i < len(c.timers); {
		t := c.timers[i]
		if t.at.After(now) {
			i++
			continue
		}
		c.timers = append(c.timers[:i], c.timers[i+1:]...)
		t.fn()
	}
}

// after arms a single-shot timer relative to the context clock.
func (c *InteractionContext) after(d time.Duration, fn func()) {
	c.timers = append(c.timers, singleShot{at: c.now.Add(d), fn: fn})
}

// release clears every singleton claim. Called unconditionally when a gesture
// settles so nothing leaks across gestures.
func (c *InteractionContext) release() {
	c.claimed = false
	c.active = nil
	c.drag = nil
	c.dropTarget = nil
	c.resizeHover = nil
}

// claim registers a session as the pointer owner. Returns false when another
// gesture already holds the claim; the caller must not arm in that case.
func (c *InteractionContext) claim(s pointerSink) bool {
	if c.claimed {
		return false
	}
	c.claimed = true
	c.active = s
	return true
}

// register adds a grid to the context. Registration order decides drop-target
// resolution order for overlapping regions.
func (c *InteractionContext) register(g *Grid) {
	c.grids = append(c.grids, g)
}
