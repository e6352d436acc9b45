// Package lattice is a grid layout engine and pointer interaction
// coordinator for dashboard-style tile arrangements.
//
// Lattice keeps rectangular tiles on an integer grid with no overlaps,
// resolves collisions as tiles move, packs them upward under gravity (or
// leaves them floating), reflows layouts across column-count changes with
// per-width caching, and runs the drag, resize, and drop gesture state
// machines that connect raw pointer input to the layout.
//
// # Quick start
//
// An [Engine] holds the cell-space layout; a [Grid] binds it to pixels and
// gestures; an [InteractionContext] coordinates every grid that shares a
// pointer. The simplest way to see it move is [Run], which opens an
// [Ebitengine] window:
//
//	ctx := lattice.NewContext()
//	engine := lattice.NewEngine(lattice.Options{Columns: 12})
//	grid := lattice.NewGrid(ctx, engine, lattice.GridConfig{
//		Bounds: lattice.Rect{Width: 1200, Height: 720},
//		Capabilities: lattice.Capabilities{
//			Drag:   &lattice.DragConfig{},
//			Resize: &lattice.ResizeConfig{},
//		},
//	})
//	engine.AddNode(&lattice.Node{W: 4, H: 2, Surface: lattice.NewTile(colorTeal)}, true, nil)
//	lattice.Run(ctx, lattice.RunConfig{Title: "Dashboard", Width: 1200, Height: 720})
//
// For full control, implement [ebiten.Game] yourself, feed
// [InteractionContext.Pointer] normalized samples, and call
// [InteractionContext.Update] plus [Grid.Update] once per frame. The engine
// and gesture code never touch Ebitengine, so headless use works the same
// way minus [Run].
//
// # Layout engine
//
// Every tile is a [Node] with a cell position and size plus min/max
// constraints and locked/no-move/no-resize flags. [Engine.AddNode] places
// nodes (auto-positioning into the first free slot on request),
// [Engine.MoveNode] and [Engine.MoveNodeCheck] propose moves that push,
// swap, or refuse as the layout dictates, and [Engine.ColumnChanged]
// reflows to a new column count, remembering previous arrangements so
// narrow-wide round trips restore rather than re-derive.
//
// Changes accumulate per batch: listeners get one OnChange callback with
// every node a gesture displaced, not one per push.
//
// # Gestures
//
// Grids declare what they support via [Capabilities]: a drag config (with
// proxy modes and settle tweens via [gween]), a resize config (handle set
// and grab size), and a drop config for accepting tiles dragged from other
// grids, including nested ones. One gesture owns the pointer at a time per
// context, enforced when a session arms.
//
// Synthetic input ([InteractionContext.InjectDrag] and friends) and JSON
// gesture scripts ([InteractionContext.LoadGestureScript]) drive the same
// state machine as hardware input, which is how the package tests itself.
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package lattice
