// Package ecs adapts a loosetree Tree to a Donburi ECS world.
//
// [Store] wraps a Donburi [donburi.World] and a [loosetree.Tree2], keeping
// an entity's AABB (and the [loosetree.Key] that names it in the tree) in
// sync via [Store.Sync], called from a system's per-frame update. Watched
// regions ([Store.WatchRegion]) publish [RegionEventType] events whenever
// an entity starts or stops intersecting a region, giving
// donburi/features/events a concrete home the way willow's
// InteractionEventType did for pointer/drag/pinch events.
//
// Usage:
//
//	tree := loosetree.NewQuadTree[MyComponent](bounds, maxLoose, minLoose, 0, 0, 0)
//	store := ecs.NewStore(world, tree)
//	store.WatchRegion("camera", cameraAabb)
//	// per frame, per entity:
//	store.Sync(entry, entityAabb, myComponent)
//	store.Poll()
//	events.ProcessAllEvents(world) // delivers to ecs.RegionEventType.Subscribe(world, ...) handlers
//
// [donburi.World]: https://github.com/yohamta/donburi
package ecs
