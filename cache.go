package lattice

import "math"

// cacheEntry is a lightweight per-node snapshot kept for one column count.
// Height is intentionally not cached: gravity recomputes it on replay.
type cacheEntry struct {
	id   int
	x    int
	y    int
	w    int
	auto bool // position unknown at cache time; replay auto-positions
}

// layoutCache remembers node geometry per column count so a layout can be
// restored when the column count returns to a previously seen value
// (e.g. 12 -> 1 -> 12). Entries for counts smaller than the active layout
// are invalidated lazily; larger ones are kept and patched as nodes move.
type layoutCache struct {
	layouts [][]cacheEntry // indexed by column count
}

// store snapshots all nodes under the given column count, replacing any
// previous snapshot for that count.
func (c *layoutCache) store(nodes []*Node, columns int) {
	entries := make([]cacheEntry, 0, len(nodes))
	for _, n := range nodes {
		entries = append(entries, cacheEntry{id: n.ID, x: n.X, y: n.Y, w: n.W})
	}
	c.grow(columns)
	c.layouts[columns] = entries
}

// storeOne inserts or replaces a single node's snapshot for a column count.
func (c *layoutCache) storeOne(entry cacheEntry, columns int) {
	c.grow(columns)
	if i := c.find(entry.id, columns); i >= 0 {
		c.layouts[columns][i] = entry
		return
	}
	c.layouts[columns] = append(c.layouts[columns], entry)
}

// find returns the index of a node's snapshot under a column count, or -1.
func (c *layoutCache) find(id, columns int) int {
	if columns >= len(c.layouts) {
		return -1
	}
	for i, entry := range c.layouts[columns] {
		if entry.id == id {
			return i
		}
	}
	return -1
}

// get returns the snapshot list for a column count (nil when none cached).
func (c *layoutCache) get(columns int) []cacheEntry {
	if columns >= len(c.layouts) {
		return nil
	}
	return c.layouts[columns]
}

// nodesChanged reconciles the cache after nodes moved in the current layout:
// snapshots for smaller column counts are dropped (regenerated on demand),
// while larger ones are patched so the change propagates proportionally.
func (c *layoutCache) nodesChanged(nodes []*Node, current int) {
	if len(c.layouts) == 0 || len(nodes) == 0 {
		return
	}
	for columns := range c.layouts {
		if c.layouts[columns] == nil || columns == current {
			continue
		}
		if columns < current {
			c.layouts[columns] = nil
			continue
		}
		ratio := float64(columns) / float64(current)
		for _, node := range nodes {
			if node.orig == nil {
				continue // newly added, nothing changed to propagate
			}
			i := c.find(node.ID, columns)
			if i < 0 {
				continue // no cache for new nodes; replay will use live values
			}
			entry := &c.layouts[columns][i]
			if node.Y != node.orig.Y {
				entry.y += node.Y - node.orig.Y
			}
			if node.X != node.orig.X {
				entry.x = int(math.Round(float64(node.X) * ratio))
			}
			if node.W != node.orig.W {
				entry.w = int(math.Round(float64(node.W) * ratio))
			}
		}
	}
}

// grow extends the backing slice so index columns is addressable.
func (c *layoutCache) grow(columns int) {
	for len(c.layouts) <= columns {
		c.layouts = append(c.layouts, nil)
	}
}
