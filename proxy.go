package lattice

// Surface is the narrow contract between lattice and its presentation
// collaborator: the visual element backing a node, or the proxy standing in
// for one during a drag. The engine never touches surfaces; only the
// interaction sessions do.
type Surface interface {
	Bounds() Rect
	SetBounds(Rect)
}

// Lifter is an optional Surface extension for temporary drag styling.
// Lift fires when the surface starts tracking the pointer; Settle fires
// shortly after the gesture ends (deferred to avoid transition artifacts).
type Lifter interface {
	Lift()
	Settle()
}

// Cloner is an optional Surface extension required by ProxyClone.
type Cloner interface {
	Clone() Surface
}

// ProxyMode selects how a drag session builds its visual proxy when no
// factory is configured.
type ProxyMode uint8

const (
	// ProxyOriginal drags the node's own surface.
	ProxyOriginal ProxyMode = iota
	// ProxyClone drags a copy (the surface must implement Cloner) while the
	// original stays put until the gesture settles.
	ProxyClone
)

// ProxyFactory builds a drag proxy from the node's surface. Takes precedence
// over ProxyMode when set.
type ProxyFactory func(Surface) Surface

// buildProxy resolves the proxy for a drag per the capability config.
// Falls back to the original surface when cloning isn't possible.
func buildProxy(s Surface, mode ProxyMode, factory ProxyFactory) Surface {
	if factory != nil {
		if p := factory(s); p != nil {
			return p
		}
	}
	if mode == ProxyClone {
		if c, ok := s.(Cloner); ok {
			if p := c.Clone(); p != nil {
				p.SetBounds(s.Bounds())
				return p
			}
		}
	}
	return s
}
