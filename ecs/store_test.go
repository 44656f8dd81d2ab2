package ecs

import (
	"testing"

	"github.com/phanxgames/loosetree"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func newTestStore() (*Store[string], donburi.World) {
	world := donburi.NewWorld()
	tree := loosetree.NewQuadTree[string](
		loosetree.Aabb2{Min: loosetree.Vec2{X: -1024, Y: -1024}, Max: loosetree.Vec2{X: 1024, Y: 1024}},
		loosetree.Vec2{X: 32, Y: 32}, loosetree.Vec2{X: 1, Y: 1}, 0, 0, 0)
	return NewStore(world, tree), world
}

var heroArchetype = donburi.NewTag()

func spawn(world donburi.World) *donburi.Entry {
	entity := world.Create(heroArchetype)
	return world.Entry(entity)
}

// --- Sync ---

func TestSyncAddsOnFirstCall(t *testing.T) {
	store, world := newTestStore()
	entry := spawn(world)

	store.Sync(entry, loosetree.Aabb2{Min: loosetree.Vec2{X: 0, Y: 0}, Max: loosetree.Vec2{X: 1, Y: 1}}, "hero")

	key, ok := store.KeyOf(entry)
	if !ok {
		t.Fatal("entry should carry a Key component after Sync")
	}
	aabb, bind, ok := store.tree.Get(key)
	if !ok || bind != "hero" || aabb.Min.X != 0 {
		t.Fatalf("tree.Get(key) returned (%v, %q, %v)", aabb, bind, ok)
	}
}

func TestSyncUpdatesOnSubsequentCalls(t *testing.T) {
	store, world := newTestStore()
	entry := spawn(world)

	store.Sync(entry, loosetree.Aabb2{Min: loosetree.Vec2{X: 0, Y: 0}, Max: loosetree.Vec2{X: 1, Y: 1}}, "hero")
	keyBefore, _ := store.KeyOf(entry)

	store.Sync(entry, loosetree.Aabb2{Min: loosetree.Vec2{X: 5, Y: 5}, Max: loosetree.Vec2{X: 6, Y: 6}}, "villain")

	keyAfter, _ := store.KeyOf(entry)
	if keyBefore != keyAfter {
		t.Error("Sync should reuse the same Key across calls, not mint a new one")
	}
	aabb, bind, _ := store.tree.Get(keyAfter)
	if bind != "villain" || aabb.Min.X != 5 {
		t.Errorf("second Sync did not update the tree entry, got (%v, %q)", aabb, bind)
	}
}

// --- Remove ---

func TestRemoveDropsFromTreeAndComponent(t *testing.T) {
	store, world := newTestStore()
	entry := spawn(world)
	store.Sync(entry, loosetree.Aabb2{Min: loosetree.Vec2{X: 0, Y: 0}, Max: loosetree.Vec2{X: 1, Y: 1}}, "hero")
	key, _ := store.KeyOf(entry)

	store.Remove(entry)

	if _, ok := store.KeyOf(entry); ok {
		t.Error("Remove should drop the Key component")
	}
	if store.tree.ContainsKey(key) {
		t.Error("Remove should drop the entry from the underlying tree")
	}
}

func TestRemoveUnknownEntryIsNoop(t *testing.T) {
	store, world := newTestStore()
	entry := spawn(world)
	store.Remove(entry) // never Sync'd — should not panic or error
}

// --- Region events ---

func TestPollPublishesEnterAndExit(t *testing.T) {
	store, world := newTestStore()
	entry := spawn(world)

	store.WatchRegion("camera", loosetree.Aabb2{Min: loosetree.Vec2{X: 0, Y: 0}, Max: loosetree.Vec2{X: 10, Y: 10}})

	var received []RegionEvent
	RegionEventType.Subscribe(world, func(w donburi.World, e RegionEvent) {
		received = append(received, e)
	})

	store.Sync(entry, loosetree.Aabb2{Min: loosetree.Vec2{X: 1, Y: 1}, Max: loosetree.Vec2{X: 2, Y: 2}}, "hero")
	store.tree.Collect()
	store.Poll()
	events.ProcessAllEvents(world)

	if len(received) != 1 || received[0].Kind != RegionEnter {
		t.Fatalf("expected one RegionEnter event, got %+v", received)
	}

	received = nil
	store.Sync(entry, loosetree.Aabb2{Min: loosetree.Vec2{X: 500, Y: 500}, Max: loosetree.Vec2{X: 501, Y: 501}}, "hero")
	store.tree.Collect()
	store.Poll()
	events.ProcessAllEvents(world)

	if len(received) != 1 || received[0].Kind != RegionExit {
		t.Fatalf("expected one RegionExit event, got %+v", received)
	}
}

func TestUnwatchRegionStopsTracking(t *testing.T) {
	store, _ := newTestStore()
	store.WatchRegion("camera", loosetree.Aabb2{})
	store.UnwatchRegion("camera")
	if len(store.regions) != 0 {
		t.Errorf("UnwatchRegion left %d regions registered, want 0", len(store.regions))
	}
}
