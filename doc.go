// Package loosetree is a loose quadtree/octree spatial index for
// axis-aligned bounding boxes (AABBs).
//
// Clients insert identified AABBs with an attached payload, mutate them
// (Update, Shift), remove them, and issue intersection queries against
// arbitrary regions. Cells overlap their siblings ("loose" bounds) so that
// moving an object by a small delta rarely crosses a cell boundary and
// rarely forces a reparent.
//
// Structural reshape (splitting an overcrowded cell, merging an
// undercrowded one) is deferred: mutations only update intrusive linked
// lists and mark the touched branch dirty. [Tree2.Collect] (or
// [Tree3.Collect]) walks the dirty set layer by layer and performs every
// split/merge. This is the only place branches are created or destroyed.
//
// # Quick start
//
//	tree := loosetree.NewQuadTree[string](
//		loosetree.Aabb2{Min: loosetree.Vec2{X: -1024, Y: -1024}, Max: loosetree.Vec2{X: 3072, Y: 3072}},
//		loosetree.Vec2{X: 100, Y: 100}, // max loose
//		loosetree.Vec2{X: 1, Y: 1},     // min loose
//		0, 0, 0,                        // adjust_min, adjust_max, deep (0 = defaults)
//	)
//	ids := loosetree.NewKeyArena[struct{}]() // callers mint their own item keys
//	id := ids.Insert(struct{}{})
//	tree.Add(id, loosetree.Aabb2{Min: loosetree.Vec2{X: 0, Y: 0}, Max: loosetree.Vec2{X: 1, Y: 1}}, "hero")
//	tree.Collect()
//	tree.Query(queryAabb, func(arg any, cell loosetree.Aabb2) bool {
//		return loosetree.Aabb2Intersects(arg.(loosetree.Aabb2), cell)
//	}, nil, func(arg any, id loosetree.Key, aabb loosetree.Aabb2, bind string) {
//		// items in accepted cells; test aabb against queryAabb for exact overlap
//	})
//
// # Geometry
//
// The same algorithm serves 2D and 3D, parameterized by a [Helper] that
// supplies AABB arithmetic, the child-index rule, the loose-inflation
// split rule, and the depth cap. [NewQuadTree] wires a 4-child 2D
// [quadHelper]; [NewOctTree] wires an 8-child 3D [octHelper].
//
// # Companion structures
//
// [loosetree/tilemap] provides a simpler uniform-grid index sharing the
// same add/update/shift/remove/query surface shape. [loosetree/ecs]
// adapts a Tree to a Donburi ECS world.
//
// # Scheduling model
//
// Single-threaded. No suspension points, no asynchrony, no internal
// locking — a Tree owns its own arenas and secondary maps outright.
// Read-only operations ([Tree2.Get], [Tree2.Query]) need only a shared
// reference; mutating operations need exclusive access, same as any
// ordinary Go map.
package loosetree
