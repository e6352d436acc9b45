package lattice

// eventTypeCount bounds the closed set of event kinds for the registry.
const eventTypeCount = int(EventChange) + 1

// GestureEvent is the single payload type delivered for every EventType.
// Coordinates are grid-container pixels, decoupled from the raw input event
// (mouse and touch are normalized upstream). Fields beyond the common set are
// only meaningful for their kind: Start/Delta for drags and resizes, Dir for
// resizes, Target for drop kinds, Nodes for added/removed/change.
type GestureEvent struct {
	Node      *Node
	Grid      *Grid
	X, Y      float64
	StartX    float64
	StartY    float64
	DeltaX    float64
	DeltaY    float64
	Button    MouseButton
	Modifiers KeyModifiers
	Dir       ResizeDir // resize kinds
	Target    *Grid     // drop kinds: the grid gaining the node
	Nodes     []*Node   // added/removed/change kinds
}

type gestureHandler struct {
	id uint32
	fn func(GestureEvent)
}

// handlerRegistry holds per-kind callback lists. A single emit path serves
// every kind; there is no parallel named-event mechanism.
type handlerRegistry struct {
	handlers [eventTypeCount][]gestureHandler
	nextID   uint32
}

func (r *handlerRegistry) add(kind EventType, fn func(GestureEvent)) CallbackHandle {
	r.nextID++
	id := r.nextID
	r.handlers[kind] = append(r.handlers[kind], gestureHandler{id: id, fn: fn})
	return CallbackHandle{id: id, reg: r, event: kind}
}

func (r *handlerRegistry) emit(kind EventType, ev GestureEvent) {
	for _, h := range r.handlers[kind] {
		h.fn(ev)
	}
}

// CallbackHandle allows removing a registered callback.
type CallbackHandle struct {
	id    uint32
	reg   *handlerRegistry
	event EventType
}

// Remove unregisters this callback so it no longer fires.
// The entry is removed from the slice to avoid nil iteration waste.
func (h CallbackHandle) Remove() {
	if h.reg == nil {
		return
	}
	s := h.reg.handlers[h.event]
	for i := range s {
		if s[i].id == h.id {
			copy(s[i:], s[i+1:])
			s[len(s)-1] = gestureHandler{}
			h.reg.handlers[h.event] = s[:len(s)-1]
			return
		}
	}
}
