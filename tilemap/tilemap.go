// Package tilemap is a uniform-grid spatial index: a simpler sibling of
// the loose quadtree/octree in the parent package, for scenes where a
// fixed tile grid is a better fit than adaptive subdivision. Grounded on
// _examples/original_source/src/tilemap.rs.
package tilemap

import (
	"math"

	"github.com/phanxgames/loosetree"
)

// TileIndexNull is the sentinel tile index for "off the map", returned by
// Get4DNeighbors/Get8DNeighbors for a neighbour that falls outside bounds
// and by GetTileIndexByID for an unknown id.
const TileIndexNull = math.MaxInt

// MapInfo describes a tile grid's bounds and resolution, independent of
// any stored items.
type MapInfo struct {
	Bounds loosetree.Aabb2
	Width  int
	Height int
	Amount int
	size   loosetree.Vec2
}

func newMapInfo(bounds loosetree.Aabb2, width, height int) MapInfo {
	return MapInfo{
		Bounds: bounds,
		Width:  width,
		Height: height,
		Amount: width * height,
		size:   loosetree.Vec2{X: bounds.Max.X - bounds.Min.X, Y: bounds.Max.Y - bounds.Min.Y},
	}
}

// CalcTileIndex returns the (x, y) tile coordinate containing loc, clamping
// to the nearest boundary tile when loc falls outside the map's bounds
// rather than computing an out-of-range index.
func (m MapInfo) CalcTileIndex(loc loosetree.Vec2) (int, int) {
	var x int
	switch {
	case loc.X <= m.Bounds.Min.X:
		x = 0
	case loc.X >= m.Bounds.Max.X:
		x = m.Width - 1
	default:
		x = int((loc.X - m.Bounds.Min.X) * float64(m.Width) / m.size.X)
	}
	var y int
	switch {
	case loc.Y <= m.Bounds.Min.Y:
		y = 0
	case loc.Y >= m.Bounds.Max.Y:
		y = m.Height - 1
	default:
		y = int((loc.Y - m.Bounds.Min.Y) * float64(m.Height) / m.size.Y)
	}
	return x, y
}

// TileIndex flattens a (x, y) tile coordinate into a single index.
func (m MapInfo) TileIndex(x, y int) int { return y*m.Width + x }

// TileXY unflattens a tile index back into its (x, y) coordinate.
func (m MapInfo) TileXY(index int) (int, int) { return index % m.Width, index / m.Width }

// tileNode is the per-item record stored in a Map's item map.
type tileNode[T any] struct {
	aabb       loosetree.Aabb2
	bind       T
	tile       int
	prev, next loosetree.Key
}

// tileList is an intrusive doubly-linked list of items sharing a tile,
// the same shape as the parent package's nodeList.
type tileList struct {
	head loosetree.Key
	len  int
}

// Map is a uniform-grid spatial index over Width*Height tiles, placing
// each item by its AABB's centroid.
type Map[T any] struct {
	Info          MapInfo
	tiles         []tileList
	items         map[loosetree.Key]*tileNode[T]
	maxHalfExtent loosetree.Vec2
}

// New builds a tile map covering bounds with width*height tiles.
func New[T any](bounds loosetree.Aabb2, width, height int) *Map[T] {
	tiles := make([]tileList, width*height)
	for i := range tiles {
		tiles[i].head = loosetree.NullKey
	}
	return &Map[T]{
		Info:  newMapInfo(bounds, width, height),
		tiles: tiles,
		items: make(map[loosetree.Key]*tileNode[T]),
	}
}

func center(a loosetree.Aabb2) loosetree.Vec2 {
	return loosetree.Vec2{X: (a.Min.X + a.Max.X) / 2, Y: (a.Min.Y + a.Max.Y) / 2}
}

func halfExtent(a loosetree.Aabb2) loosetree.Vec2 {
	return loosetree.Vec2{X: (a.Max.X - a.Min.X) / 2, Y: (a.Max.Y - a.Min.Y) / 2}
}

func (m *Map[T]) trackHalfExtent(a loosetree.Aabb2) {
	h := halfExtent(a)
	if h.X > m.maxHalfExtent.X {
		m.maxHalfExtent.X = h.X
	}
	if h.Y > m.maxHalfExtent.Y {
		m.maxHalfExtent.Y = h.Y
	}
}

func (m *Map[T]) push(tile int, id loosetree.Key, node *tileNode[T]) {
	l := &m.tiles[tile]
	if !l.head.IsNull() {
		m.items[l.head].prev = id
	}
	node.next = l.head
	l.head = id
	l.len++
}

func (m *Map[T]) unlink(tile int, prev, next loosetree.Key) {
	l := &m.tiles[tile]
	if !prev.IsNull() {
		m.items[prev].next = next
	} else {
		l.head = next
	}
	if !next.IsNull() {
		m.items[next].prev = prev
	}
	l.len--
}

// Add inserts aabb/bind under id, placed by aabb's centroid. Returns
// false if id is already present.
func (m *Map[T]) Add(id loosetree.Key, aabb loosetree.Aabb2, bind T) bool {
	if _, exists := m.items[id]; exists {
		return false
	}
	x, y := m.Info.CalcTileIndex(center(aabb))
	tile := m.Info.TileIndex(x, y)
	node := &tileNode[T]{aabb: aabb, bind: bind, tile: tile, prev: loosetree.NullKey}
	m.items[id] = node
	m.push(tile, id, node)
	m.trackHalfExtent(aabb)
	return true
}

// Update replaces id's AABB and relocates it to the new centroid's tile
// if that tile changed.
func (m *Map[T]) Update(id loosetree.Key, aabb loosetree.Aabb2) bool {
	node, ok := m.items[id]
	if !ok {
		return false
	}
	newTile := m.Info.TileIndex(m.Info.CalcTileIndex(center(aabb)))
	node.aabb = aabb
	m.trackHalfExtent(aabb)
	if newTile == node.tile {
		return true
	}
	m.unlink(node.tile, node.prev, node.next)
	node.prev = loosetree.NullKey
	m.push(newTile, id, node)
	node.tile = newTile
	return true
}

// Shift translates id's AABB by v and relocates it if that crosses a
// tile boundary.
func (m *Map[T]) Shift(id loosetree.Key, v loosetree.Vec2) bool {
	node, ok := m.items[id]
	if !ok {
		return false
	}
	aabb := loosetree.Aabb2{
		Min: loosetree.Vec2{X: node.aabb.Min.X + v.X, Y: node.aabb.Min.Y + v.Y},
		Max: loosetree.Vec2{X: node.aabb.Max.X + v.X, Y: node.aabb.Max.Y + v.Y},
	}
	return m.Update(id, aabb)
}

// MoveTo is an alias for Update, named the way callers that think in terms
// of "move this id to a new rectangle" rather than "update its shape"
// might reach for it; it performs no operation Update doesn't already.
func (m *Map[T]) MoveTo(id loosetree.Key, aabb loosetree.Aabb2) bool {
	return m.Update(id, aabb)
}

// UpdateBind replaces id's bound payload without touching its AABB.
func (m *Map[T]) UpdateBind(id loosetree.Key, bind T) bool {
	node, ok := m.items[id]
	if !ok {
		return false
	}
	node.bind = bind
	return true
}

// Remove deletes id, returning its last AABB/payload.
func (m *Map[T]) Remove(id loosetree.Key) (loosetree.Aabb2, T, bool) {
	node, ok := m.items[id]
	if !ok {
		var a loosetree.Aabb2
		var b T
		return a, b, false
	}
	delete(m.items, id)
	m.unlink(node.tile, node.prev, node.next)
	return node.aabb, node.bind, true
}

// Get returns the AABB and bound payload for id.
func (m *Map[T]) Get(id loosetree.Key) (loosetree.Aabb2, T, bool) {
	node, ok := m.items[id]
	if !ok {
		var a loosetree.Aabb2
		var b T
		return a, b, false
	}
	return node.aabb, node.bind, true
}

// GetMut returns pointers to the stored AABB and payload for in-place
// mutation. Mutating the AABB through the returned pointer bypasses tile
// relocation — call Update afterward to keep tile membership correct.
func (m *Map[T]) GetMut(id loosetree.Key) (*loosetree.Aabb2, *T, bool) {
	node, ok := m.items[id]
	if !ok {
		return nil, nil, false
	}
	return &node.aabb, &node.bind, true
}

// ContainsKey reports whether id names a live item.
func (m *Map[T]) ContainsKey(id loosetree.Key) bool {
	_, ok := m.items[id]
	return ok
}

// Len returns the number of live items.
func (m *Map[T]) Len() int { return len(m.items) }

// GetTileIndex returns the tile index containing loc, clamped to the
// nearest boundary tile if loc falls outside the map.
func (m *Map[T]) GetTileIndex(loc loosetree.Vec2) int {
	return m.Info.TileIndex(m.Info.CalcTileIndex(loc))
}

// GetTileIndexByID returns the tile index id currently occupies, or
// TileIndexNull if id is not present.
func (m *Map[T]) GetTileIndexByID(id loosetree.Key) int {
	node, ok := m.items[id]
	if !ok {
		return TileIndexNull
	}
	return node.tile
}

// Iter calls visit for every live item, in unspecified order.
func (m *Map[T]) Iter(visit func(id loosetree.Key, aabb loosetree.Aabb2, bind T)) {
	for id, node := range m.items {
		visit(id, node.aabb, node.bind)
	}
}

// GetTileIter calls visit for every item in the given tile, and reports
// how many items that tile holds.
func (m *Map[T]) GetTileIter(tileIndex int, visit func(id loosetree.Key, aabb loosetree.Aabb2, bind T)) int {
	tile := &m.tiles[tileIndex]
	id := tile.head
	for !id.IsNull() {
		node := m.items[id]
		visit(id, node.aabb, node.bind)
		id = node.next
	}
	return tile.len
}

// QueryIter calls visit for every tile index that could hold an item
// overlapping aabb, and reports how many tiles that was. The query
// region is widened by the running max half-extent of every item ever
// inserted before mapping to a tile range, so an item whose centroid
// sits outside aabb but whose bounds straddle it is still covered by one
// of the reported tiles — the half-extent is never shrunk on Remove,
// since a precise shrink would need a full rescan of every live item.
func (m *Map[T]) QueryIter(aabb loosetree.Aabb2, visit func(tileIndex int)) int {
	widened := loosetree.Aabb2{
		Min: loosetree.Vec2{X: aabb.Min.X - m.maxHalfExtent.X, Y: aabb.Min.Y - m.maxHalfExtent.Y},
		Max: loosetree.Vec2{X: aabb.Max.X + m.maxHalfExtent.X, Y: aabb.Max.Y + m.maxHalfExtent.Y},
	}
	xStart, yStart := m.Info.CalcTileIndex(widened.Min)
	xEnd, yEnd := m.Info.CalcTileIndex(widened.Max)
	count := (xEnd - xStart + 1) * (yEnd - yStart + 1)
	for y := yStart; y <= yEnd; y++ {
		for x := xStart; x <= xEnd; x++ {
			visit(m.Info.TileIndex(x, y))
		}
	}
	return count
}

// Query widens aabb the same way QueryIter does and visits every item in
// every covered tile, without filtering out items whose own AABB doesn't
// actually overlap aabb — callers that need exact overlap should test
// each visited item's AABB themselves.
func (m *Map[T]) Query(aabb loosetree.Aabb2, arg any, visit func(arg any, id loosetree.Key, aabb loosetree.Aabb2, bind T)) {
	m.QueryIter(aabb, func(tileIndex int) {
		m.GetTileIter(tileIndex, func(id loosetree.Key, itemAabb loosetree.Aabb2, bind T) {
			visit(arg, id, itemAabb, bind)
		})
	})
}

// Get4DNeighbors returns the 4 orthogonal neighbours of the tile at
// index (north, south, east, west), using TileIndexNull for any
// neighbour that falls off the map.
func (m *Map[T]) Get4DNeighbors(index int) [4]int {
	x, y := m.Info.TileXY(index)
	return [4]int{
		m.neighbor(x, y-1),
		m.neighbor(x, y+1),
		m.neighbor(x+1, y),
		m.neighbor(x-1, y),
	}
}

// Get8DNeighbors returns the 8 Moore-neighbourhood neighbours of the
// tile at index, using TileIndexNull for any neighbour off the map.
func (m *Map[T]) Get8DNeighbors(index int) [8]int {
	x, y := m.Info.TileXY(index)
	return [8]int{
		m.neighbor(x, y-1),
		m.neighbor(x, y+1),
		m.neighbor(x+1, y),
		m.neighbor(x-1, y),
		m.neighbor(x+1, y-1),
		m.neighbor(x-1, y-1),
		m.neighbor(x+1, y+1),
		m.neighbor(x-1, y+1),
	}
}

func (m *Map[T]) neighbor(x, y int) int {
	if x < 0 || y < 0 || x >= m.Info.Width || y >= m.Info.Height {
		return TileIndexNull
	}
	return m.Info.TileIndex(x, y)
}
