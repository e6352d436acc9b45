package lattice

// NodeSpec is the persisted shape of a node. Round-tripping Save -> Load
// reproduces equivalent geometry for every node whose id is preserved.
type NodeSpec struct {
	ID           string `json:"id,omitempty"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	W            int    `json:"w,omitempty"`
	H            int    `json:"h,omitempty"`
	MinW         int    `json:"minW,omitempty"`
	MinH         int    `json:"minH,omitempty"`
	MaxW         int    `json:"maxW,omitempty"`
	MaxH         int    `json:"maxH,omitempty"`
	Locked       bool   `json:"locked,omitempty"`
	NoMove       bool   `json:"noMove,omitempty"`
	NoResize     bool   `json:"noResize,omitempty"`
	AutoPosition bool   `json:"autoPosition,omitempty"`
}

// Save returns the layout as an ordered spec list, top-left first.
func (e *Engine) Save() []NodeSpec {
	e.sortNodes(false)
	specs := make([]NodeSpec, 0, len(e.nodes))
	for _, n := range e.nodes {
		specs = append(specs, NodeSpec{
			ID:           n.UserID,
			X:            n.X,
			Y:            n.Y,
			W:            n.W,
			H:            n.H,
			MinW:         n.MinW,
			MinH:         n.MinH,
			MaxW:         n.MaxW,
			MaxH:         n.MaxH,
			Locked:       n.Locked,
			NoMove:       n.NoMove,
			NoResize:     n.NoResize,
			AutoPosition: n.AutoPosition,
		})
	}
	return specs
}

// Load applies a spec list: existing nodes (matched by user id) are updated
// in place, unmatched specs become new nodes, and nodes absent from the list
// are removed. Loaded positions are kept verbatim where possible; collisions
// are still resolved so the no-overlap invariant holds afterward.
func (e *Engine) Load(specs []NodeSpec) {
	e.loading = true
	e.BatchUpdate(true)

	keep := make(map[*Node]bool, len(specs))
	for i := range specs {
		s := &specs[i]
		if s.W < 1 {
			s.W = 1
		}
		if s.H < 1 {
			s.H = 1
		}
		var n *Node
		if s.ID != "" {
			n = e.NodeByUserID(s.ID)
		}
		if n == nil {
			if n = e.AddNode(specNode(s), true, nil); n != nil {
				keep[n] = true
			}
			continue
		}
		keep[n] = true
		n.MinW, n.MinH = s.MinW, s.MinH
		n.MaxW, n.MaxH = s.MaxW, s.MaxH
		n.Locked, n.NoMove, n.NoResize = s.Locked, s.NoMove, s.NoResize
		if s.AutoPosition {
			n.AutoPosition = true
			e.findEmptyPosition(n, e.nodes, e.columns, nil)
			continue
		}
		e.moveNode(n, &moveOpts{pos: Position{s.X, s.Y, s.W, s.H}})
	}

	for _, n := range append([]*Node(nil), e.nodes...) {
		if !keep[n] {
			e.RemoveNode(n, true)
		}
	}

	e.BatchUpdate(false)
	e.loading = false
}

func specNode(s *NodeSpec) *Node {
	return &Node{
		UserID:       s.ID,
		X:            s.X,
		Y:            s.Y,
		W:            s.W,
		H:            s.H,
		MinW:         s.MinW,
		MinH:         s.MinH,
		MaxW:         s.MaxW,
		MaxH:         s.MaxH,
		Locked:       s.Locked,
		NoMove:       s.NoMove,
		NoResize:     s.NoResize,
		AutoPosition: s.AutoPosition,
	}
}
