package ecs

import (
	"github.com/phanxgames/loosetree"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// keyComponent holds the loosetree.Key an entity is addressed by in the
// tree it was last synced into. Dynamically added to an entry the first
// time Store.Sync sees it, the way donburi supports attaching components
// outside an entity's declared archetype.
var keyComponent = donburi.NewComponentType[loosetree.Key]()

// RegionEventKind distinguishes a region-membership transition.
type RegionEventKind int

const (
	// RegionEnter fires the frame an entity first intersects a watched region.
	RegionEnter RegionEventKind = iota
	// RegionExit fires the frame an entity stops intersecting a watched region.
	RegionExit
)

// RegionEvent reports one entity's membership transition in one watched
// region, published to RegionEventType.
type RegionEvent struct {
	Kind   RegionEventKind
	Region string
	Entity donburi.Entity
	Key    loosetree.Key
}

// RegionEventType is the Donburi event type region membership changes are
// published on. Subscribe with RegionEventType.Subscribe(world, ...).
var RegionEventType = events.NewEventType[RegionEvent]()

// watchedRegion tracks one named query region and the entities Store last
// saw intersecting it, so Poll can diff the current membership set against
// the previous one and publish only the transitions.
type watchedRegion struct {
	name    string
	aabb    loosetree.Aabb2
	members map[loosetree.Key]donburi.Entity
}

// Store keeps a Tree2's spatial state in sync with a Donburi world's
// entities, and turns watched-region membership changes into events.
type Store[T any] struct {
	world   donburi.World
	tree    *loosetree.Tree2[T]
	ids     *loosetree.KeyArena[struct{}]
	byKey   map[loosetree.Key]donburi.Entity
	regions []*watchedRegion
}

// NewStore builds a Store bridging world to tree. The caller owns tree's
// lifetime (including calling Collect) — Store only adds/updates/removes
// entries and runs queries against it.
func NewStore[T any](world donburi.World, tree *loosetree.Tree2[T]) *Store[T] {
	return &Store[T]{
		world: world,
		tree:  tree,
		ids:   loosetree.NewKeyArena[struct{}](),
		byKey: make(map[loosetree.Key]donburi.Entity),
	}
}

// Sync adds entry to the tree the first time it's seen (minting and
// attaching a Key component), or updates its AABB and bound payload on
// every call after that.
func (s *Store[T]) Sync(entry *donburi.Entry, aabb loosetree.Aabb2, bind T) {
	if entry.HasComponent(keyComponent) {
		key := *keyComponent.Get(entry)
		s.tree.Update(key, aabb)
		s.tree.UpdateBind(key, bind)
		return
	}
	id := s.ids.Insert(struct{}{})
	s.tree.Add(id, aabb, bind)
	entry.AddComponent(keyComponent)
	keyComponent.SetValue(entry, id)
	s.byKey[id] = entry.Entity()
}

// Remove drops entry from the tree and forgets its Key component. Safe to
// call on an entry Sync never saw.
func (s *Store[T]) Remove(entry *donburi.Entry) {
	if !entry.HasComponent(keyComponent) {
		return
	}
	key := *keyComponent.Get(entry)
	s.tree.Remove(key)
	entry.RemoveComponent(keyComponent)
	delete(s.byKey, key)
}

// KeyOf returns the loosetree.Key entry was last synced under, if any.
func (s *Store[T]) KeyOf(entry *donburi.Entry) (loosetree.Key, bool) {
	if !entry.HasComponent(keyComponent) {
		return loosetree.NullKey, false
	}
	return *keyComponent.Get(entry), true
}

// Collect flushes the underlying tree's pending splits/merges. Equivalent
// to calling Tree2.Collect directly; provided so callers driving
// everything through Store don't need to also hold the tree reference.
func (s *Store[T]) Collect() {
	s.tree.Collect()
}

// WatchRegion registers a named region. Poll will publish RegionEnter /
// RegionExit events on RegionEventType as entities start or stop
// intersecting it.
func (s *Store[T]) WatchRegion(name string, aabb loosetree.Aabb2) {
	s.regions = append(s.regions, &watchedRegion{
		name:    name,
		aabb:    aabb,
		members: make(map[loosetree.Key]donburi.Entity),
	})
}

// UnwatchRegion stops tracking name. No-op if it was never watched.
func (s *Store[T]) UnwatchRegion(name string) {
	for i, r := range s.regions {
		if r.name == name {
			s.regions = append(s.regions[:i], s.regions[i+1:]...)
			return
		}
	}
}

// Poll queries every watched region against the current tree state and
// publishes RegionEnter/RegionExit events for any entity whose membership
// changed since the last Poll. Call once per frame, after the frame's
// Sync calls and Collect.
func (s *Store[T]) Poll() {
	for _, r := range s.regions {
		current := make(map[loosetree.Key]donburi.Entity, len(r.members))
		s.tree.Query(r.aabb, func(arg any, aabb loosetree.Aabb2) bool {
			region := arg.(loosetree.Aabb2)
			return loosetree.Aabb2Intersects(region, aabb)
		}, nil, func(arg any, id loosetree.Key, aabb loosetree.Aabb2, bind T) {
			if !loosetree.Aabb2Intersects(r.aabb, aabb) {
				return
			}
			if entity, ok := s.entityOf(id); ok {
				current[id] = entity
			}
		})

		for key, entity := range current {
			if _, wasMember := r.members[key]; !wasMember {
				RegionEventType.Publish(s.world, RegionEvent{
					Kind: RegionEnter, Region: r.name, Entity: entity, Key: key,
				})
			}
		}
		for key, entity := range r.members {
			if _, stillMember := current[key]; !stillMember {
				RegionEventType.Publish(s.world, RegionEvent{
					Kind: RegionExit, Region: r.name, Entity: entity, Key: key,
				})
			}
		}
		r.members = current
	}
}

// entityOf resolves a tree Key back to the Donburi entity it was minted
// for. Donburi has no key->entity reverse index, so Store keeps its own.
func (s *Store[T]) entityOf(key loosetree.Key) (donburi.Entity, bool) {
	entity, ok := s.byKey[key]
	return entity, ok
}
