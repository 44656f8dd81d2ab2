package loosetree

import "math"

// nullIndex is the sentinel slot index representing Key's "null" value.
// Grounded on the Rust original's K::null() (tree.rs) and the wasm shim's
// f64::MAX sentinel (web/util.rs) — this port keeps the same idea (a
// reserved, never-allocated index) without the bitwise float reinterpret
// trick, which belongs to the wasm shim this spec excludes.
const nullIndex = math.MaxUint32

// Key is a generational handle: an arena slot index plus a generation
// counter that increments every time the slot is reused. Comparing two
// Keys for equality also compares generation, so a stale Key from a
// removed-and-reused slot never aliases the new occupant.
//
// Keys are external to the library: callers mint their own item Keys from
// a [KeyArena] (or any scheme that yields stable, comparable values) and
// pass them to [Tree2.Add]/[Tree2.Update]/[Tree2.Remove]. The library mints
// its own Keys internally for branch nodes.
type Key struct {
	idx uint32
	gen uint32
}

// NullKey is the representable "no key" sentinel. The zero Key{} is a
// valid, allocatable slot (index 0), so NullKey is a distinct value rather
// than the zero value.
var NullKey = Key{idx: nullIndex}

// IsNull reports whether k is the null sentinel.
func (k Key) IsNull() bool {
	return k.idx == nullIndex
}

// KeyArena is a minimal generational slot allocator callers can use to mint
// stable Keys for their own items (entities, sprites, particles — whatever
// the AABB payload identifies), the same role pi_slotmap::SlotMap plays for
// the Rust original's test harness. It is not used internally by Tree for
// item storage (items are addressed by whatever Key the caller supplies),
// only for Tree's own branch arena.
type KeyArena[V any] struct {
	slots    []arenaSlot[V]
	freeHead uint32
	len      int
}

type arenaSlot[V any] struct {
	gen      uint32
	occupied bool
	value    V
	nextFree uint32
}

// NewKeyArena creates an empty arena.
func NewKeyArena[V any]() *KeyArena[V] {
	return &KeyArena[V]{freeHead: nullIndex}
}

// Insert stores v in a fresh or recycled slot and returns its Key.
func (a *KeyArena[V]) Insert(v V) Key {
	a.len++
	if a.freeHead != nullIndex {
		idx := a.freeHead
		s := &a.slots[idx]
		a.freeHead = s.nextFree
		s.occupied = true
		s.value = v
		return Key{idx: idx, gen: s.gen}
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, arenaSlot[V]{gen: 0, occupied: true, value: v})
	return Key{idx: idx, gen: 0}
}

// Get returns the value stored at k and whether k is currently live.
func (a *KeyArena[V]) Get(k Key) (V, bool) {
	var zero V
	if k.IsNull() || int(k.idx) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[k.idx]
	if !s.occupied || s.gen != k.gen {
		return zero, false
	}
	return s.value, true
}

// GetPtr returns a pointer to the stored value for in-place mutation, or
// nil if k is not live. The pointer is invalidated by a future Remove of
// the same slot (its generation changes) but not by unrelated inserts.
func (a *KeyArena[V]) GetPtr(k Key) *V {
	if k.IsNull() || int(k.idx) >= len(a.slots) {
		return nil
	}
	s := &a.slots[k.idx]
	if !s.occupied || s.gen != k.gen {
		return nil
	}
	return &s.value
}

// Remove evicts the value at k, bumping its generation so stale Keys can
// never again resolve to the recycled slot. Reports whether k was live.
func (a *KeyArena[V]) Remove(k Key) (V, bool) {
	var zero V
	if k.IsNull() || int(k.idx) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[k.idx]
	if !s.occupied || s.gen != k.gen {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.occupied = false
	s.gen++
	s.nextFree = a.freeHead
	a.freeHead = k.idx
	a.len--
	return v, true
}

// ContainsKey reports whether k currently refers to a live slot.
func (a *KeyArena[V]) ContainsKey(k Key) bool {
	if k.IsNull() || int(k.idx) >= len(a.slots) {
		return false
	}
	s := &a.slots[k.idx]
	return s.occupied && s.gen == k.gen
}

// Len returns the number of live entries.
func (a *KeyArena[V]) Len() int {
	return a.len
}
