package lattice

// InjectPress queues a pointer press event at the given container coordinates
// (left button). The event is consumed on the next Update call.
func (c *InteractionContext) InjectPress(x, y float64) {
	c.injected = append(c.injected, PointerEvent{
		X: x, Y: y,
		Pressed: true,
		Button:  MouseButtonLeft,
	})
}

// InjectMove queues a pointer move event with the button held down. Use this
// between InjectPress and InjectRelease to simulate a drag.
func (c *InteractionContext) InjectMove(x, y float64) {
	c.injected = append(c.injected, PointerEvent{
		X: x, Y: y,
		Pressed: true,
		Button:  MouseButtonLeft,
	})
}

// InjectHover queues a pointer move event with no button held.
func (c *InteractionContext) InjectHover(x, y float64) {
	c.injected = append(c.injected, PointerEvent{X: x, Y: y})
}

// InjectRelease queues a pointer release event.
func (c *InteractionContext) InjectRelease(x, y float64) {
	c.injected = append(c.injected, PointerEvent{
		X: x, Y: y,
		Button: MouseButtonLeft,
	})
}

// InjectClick queues a press followed by a release at the same coordinates.
// Consumes two frames.
func (c *InteractionContext) InjectClick(x, y float64) {
	c.InjectPress(x, y)
	c.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY), linearly
// interpolated moves over frames-2 intermediate frames, and release at
// (toX, toY). The total sequence consumes frames frames. Minimum is 2
// (press + release).
func (c *InteractionContext) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	c.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		x := fromX + (toX-fromX)*t
		y := fromY + (toY-fromY)*t
		c.InjectMove(x, y)
	}
	c.InjectRelease(toX, toY)
}

// processInjected pops one event from the inject queue and feeds it through
// Pointer, identical to real input. Returns true if an event was consumed
// (a backend should skip real input that frame).
func (c *InteractionContext) processInjected() bool {
	if len(c.injected) == 0 {
		return false
	}
	ev := c.injected[0]
	copy(c.injected, c.injected[1:])
	c.injected = c.injected[:len(c.injected)-1]

	c.Pointer(ev)
	return true
}
