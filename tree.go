package loosetree

import "math"

const (
	deepMax            = 16
	adjustMinDefault   = 4
	adjustMaxDefault   = 8
	autoCollectDefault = 1024
)

// dirtySet is the tree-wide queue of branches awaiting Collect, grouped by
// layer. Splits only ever enqueue a branch one layer deeper than the one
// being collected, so a forward walk over layers picks up every cascading
// split within a single Collect call; merges cascade the other direction
// (shallower) and are resolved by direct recursion instead, never through
// this queue. Grounded on tree.rs's `dirty: (Vec<Vec<K>>, usize, usize)`.
type dirtySet struct {
	layers   [][]Key
	count    int
	minLayer int
}

// tree is the shared engine behind both geometries; Tree2[T] and Tree3[T]
// are aliases binding it to Aabb2/Vec2 and Aabb3/Vec3 respectively.
type tree[A any, V any, T any] struct {
	helper      Helper[A, V]
	numChildren int

	branches *KeyArena[*branchNode[A, V]]
	items    map[Key]*abNode[A, T]

	maxLoose, minLoose V
	adjustMin          int
	adjustMax          int
	looseLayer         int
	deep               int
	rootKey            Key
	outer              nodeList
	dirty              dirtySet
	autoCollect        int
}

func newTree[A any, V any, T any](helper Helper[A, V], root A, maxLoose, minLoose V, adjustMin, adjustMax, deep int) *tree[A, V, T] {
	if adjustMin == 0 {
		adjustMin = adjustMinDefault
	}
	if adjustMax == 0 {
		adjustMax = adjustMaxDefault
	}
	if adjustMax < adjustMin {
		adjustMax = adjustMin
	}
	if deep == 0 || deep > deepMax {
		deep = deepMax
	}

	d := helper.Extents(root)
	looseLayer := helper.CalcLayer(maxLoose, minLoose)
	deep = helper.GetDeep(d, looseLayer, maxLoose, deep, minLoose)

	numChildren := helper.NumChildren()
	branches := NewKeyArena[*branchNode[A, V]]()
	rootBranch := newBranchNode[A, V](root, maxLoose, NullKey, 0, 0, numChildren)
	rootKey := branches.Insert(rootBranch)

	return &tree[A, V, T]{
		helper:      helper,
		numChildren: numChildren,
		branches:    branches,
		items:       make(map[Key]*abNode[A, T]),
		maxLoose:    maxLoose,
		minLoose:    minLoose,
		adjustMin:   adjustMin,
		adjustMax:   adjustMax,
		looseLayer:  looseLayer,
		deep:        deep,
		rootKey:     rootKey,
		outer:       nodeList{head: NullKey},
		autoCollect: autoCollectDefault,
		dirty:       dirtySet{minLayer: math.MaxInt},
	}
}

func (t *tree[A, V, T]) branch(k Key) *branchNode[A, V] {
	n, _ := t.branches.Get(k)
	return n
}

// GetAdjust returns the (min, max) thresholds that gate merge and split
// decisions during Collect.
func (t *tree[A, V, T]) GetAdjust() (int, int) { return t.adjustMin, t.adjustMax }

// GetAutoCollect returns the dirty-count threshold at which Add triggers
// a synchronous Collect.
func (t *tree[A, V, T]) GetAutoCollect() int { return t.autoCollect }

// SetAutoCollect changes the auto-collect threshold. A very large value
// defers every reshape to explicit Collect calls.
func (t *tree[A, V, T]) SetAutoCollect(n int) { t.autoCollect = n }

// Len returns the number of live items (outer included).
func (t *tree[A, V, T]) Len() int { return len(t.items) }

// ContainsKey reports whether id names a live item.
func (t *tree[A, V, T]) ContainsKey(id Key) bool {
	_, ok := t.items[id]
	return ok
}

// GetLayer computes the natural layer an AABB of this size would occupy,
// independent of where (or whether) it is actually inserted.
func (t *tree[A, V, T]) GetLayer(aabb A) int {
	d := t.helper.Extents(aabb)
	if t.helper.SmallerThanMinLoose(d, t.minLoose) {
		return t.deep
	}
	return t.helper.CalcLayer(t.maxLoose, d)
}

// Get returns the AABB and bound payload for id.
func (t *tree[A, V, T]) Get(id Key) (A, T, bool) {
	n, ok := t.items[id]
	if !ok {
		var a A
		var b T
		return a, b, false
	}
	return n.aabb, n.bind, true
}

// GetMut returns pointers to the stored AABB and payload for in-place
// mutation. Mutating the payload through the returned *T needs nothing
// further; mutating the AABB through the returned *A bypasses the
// reposition protocol entirely — call Update afterward to keep the tree's
// position invariants intact.
func (t *tree[A, V, T]) GetMut(id Key) (*A, *T, bool) {
	n, ok := t.items[id]
	if !ok {
		return nil, nil, false
	}
	return &n.aabb, &n.bind, true
}

// UpdateBind replaces id's bound payload without touching its AABB or
// position in the tree.
func (t *tree[A, V, T]) UpdateBind(id Key, bind T) bool {
	n, ok := t.items[id]
	if !ok {
		return false
	}
	n.bind = bind
	return true
}

// Add inserts aabb/bind under id. Returns false if id is already present.
// The caller mints id itself (typically from its own KeyArena) — the tree
// never generates item keys on its own.
func (t *tree[A, V, T]) Add(id Key, aabb A, bind T) bool {
	if _, exists := t.items[id]; exists {
		return false
	}
	layer := t.GetLayer(aabb)
	node := newAbNode[A, T](aabb, bind, layer, t.numChildren)
	t.items[id] = node

	root := t.branch(t.rootKey)
	if t.helper.Contains(root.aabb, node.aabb) {
		t.down(t.rootKey, node, id)
	} else {
		node.next = t.outer.head
		t.outer.push(id)
	}
	if !node.next.IsNull() {
		t.items[node.next].prev = id
	}

	if t.dirty.count >= t.autoCollect {
		t.Collect()
	}
	return true
}

// down links node (already stored under id) into the subtree rooted at
// branchID, touching only lists, parent pointers and dirty flags — it
// never creates or destroys a branch.
func (t *tree[A, V, T]) down(branchID Key, node *abNode[A, T], id Key) {
	parent := t.branch(branchID)
	if parent.layer >= node.layer {
		node.parent = branchID
		node.parentChild = t.numChildren
		node.next = parent.nodes.head
		parent.nodes.push(id)
		return
	}
	i := t.helper.GetChild(t.helper.GetMaxHalfLoose(parent.aabb, parent.loose), node.aabb)
	slot := &parent.childs[i]
	if slot.isBranch() {
		t.down(slot.branch, node, id)
		return
	}
	node.parent = branchID
	node.parentChild = i
	node.next = slot.list.head
	slot.list.push(id)
	if slot.list.len >= t.adjustMax && parent.layer < t.deep {
		t.markDirty(branchID, parent)
	}
}

// repositionResult carries what removeAdd needs to unlink an item's old
// list position after reposition has already relinked it elsewhere.
type repositionResult struct {
	oldParent Key
	oldChild  int
	prev      Key
	next      Key
	curNext   Key
}

// Update replaces id's AABB, recomputes its layer, and repositions it.
func (t *tree[A, V, T]) Update(id Key, aabb A) bool {
	node, ok := t.items[id]
	if !ok {
		return false
	}
	node.layer = t.GetLayer(aabb)
	node.aabb = aabb
	r, moved := t.reposition(id, node)
	if moved {
		t.removeAdd(id, r)
	}
	return true
}

// Shift translates id's AABB by v, leaving its layer unchanged, and
// repositions it. Cheaper than Update when only a translation occurred.
func (t *tree[A, V, T]) Shift(id Key, v V) bool {
	node, ok := t.items[id]
	if !ok {
		return false
	}
	node.aabb = t.helper.Shift(node.aabb, v)
	r, moved := t.reposition(id, node)
	if moved {
		t.removeAdd(id, r)
	}
	return true
}

// reposition finds node's new home after its AABB (and maybe layer)
// changed. Returns ok == false when no structural change is needed (the
// no-op fast path spec.md's idempotence property requires).
func (t *tree[A, V, T]) reposition(id Key, node *abNode[A, T]) (repositionResult, bool) {
	oldP := node.parent
	if oldP.IsNull() {
		return t.repositionFromOuter(id, node)
	}

	oldC := node.parentChild
	parent := t.branch(oldP)

	switch {
	case node.layer > parent.layer:
		if t.helper.Contains(parent.aabb, node.aabb) {
			child := t.helper.GetChild(t.helper.GetMaxHalfLoose(parent.aabb, parent.loose), node.aabb)
			if oldC == child {
				return repositionResult{}, false
			}
			return t.repositionIntoSibling(id, node, oldP, oldC, parent, child)
		}
	case node.layer == parent.layer:
		if t.helper.Contains(parent.aabb, node.aabb) {
			if oldC == t.numChildren {
				return repositionResult{}, false
			}
			prev, next := node.prev, node.next
			node.prev = NullKey
			node.parentChild = t.numChildren
			node.next = parent.nodes.head
			parent.nodes.push(id)
			return repositionResult{oldP, oldC, prev, next, node.next}, true
		}
	}

	return t.repositionUpward(id, node, oldP, oldC, parent)
}

// repositionIntoSibling relinks node into a different child slot of the
// same branch it was already under.
func (t *tree[A, V, T]) repositionIntoSibling(id Key, node *abNode[A, T], oldP Key, oldC int, parent *branchNode[A, V], child int) (repositionResult, bool) {
	prev, next := node.prev, node.next
	node.prev = NullKey
	slot := &parent.childs[child]
	if slot.isBranch() {
		node.parentChild = t.numChildren
		t.down(slot.branch, node, id)
		return repositionResult{oldP, oldC, prev, next, node.next}, true
	}
	node.parentChild = child
	node.next = slot.list.head
	slot.list.push(id)
	if slot.list.len >= t.adjustMax && node.layer < t.deep {
		t.markDirty(oldP, parent)
	}
	return repositionResult{oldP, oldC, prev, next, node.next}, true
}

// repositionUpward handles the case where node no longer fits under its
// current branch: unlink from it (marking it dirty if the unlink alone
// makes it merge-eligible), then walk ancestors until one both contains
// node and sits at a shallow enough layer, descending back in from there.
// If no ancestor (root included) qualifies, node falls back to outer.
func (t *tree[A, V, T]) repositionUpward(id Key, node *abNode[A, T], oldP Key, oldC int, parent *branchNode[A, V]) (repositionResult, bool) {
	prev, next := node.prev, node.next

	// node stays linked under parent until removeAdd runs, so the merge
	// predicate is checked with node's own list one shorter.
	list := &parent.nodes
	if oldC < t.numChildren {
		list = &parent.childs[oldC].list
	}
	list.len--
	eligible := t.mergeEligible(parent)
	list.len++
	if eligible {
		t.markDirty(oldP, parent)
	}

	p := parent.parent
	for !p.IsNull() {
		anc := t.branch(p)
		if anc.layer <= node.layer && t.helper.Contains(anc.aabb, node.aabb) {
			node.prev = NullKey
			node.parentChild = t.numChildren
			t.down(p, node, id)
			return repositionResult{oldP, oldC, prev, next, node.next}, true
		}
		p = anc.parent
	}

	node.parent = NullKey
	node.prev = NullKey
	node.parentChild = t.numChildren
	node.next = t.outer.head
	t.outer.push(id)
	return repositionResult{oldP, oldC, prev, next, node.next}, true
}

// repositionFromOuter handles an item that was on outer: if the root now
// contains its (possibly new) AABB, it moves in; otherwise it stays put.
func (t *tree[A, V, T]) repositionFromOuter(id Key, node *abNode[A, T]) (repositionResult, bool) {
	root := t.branch(t.rootKey)
	if !t.helper.Contains(root.aabb, node.aabb) {
		return repositionResult{}, false
	}
	prev, next := node.prev, node.next
	node.prev = NullKey
	node.parentChild = t.numChildren
	t.down(t.rootKey, node, id)
	return repositionResult{NullKey, t.numChildren, prev, next, node.next}, true
}

// removeAdd unlinks id from the list it used to occupy (as described by
// r) now that reposition has already linked it into its new home.
func (t *tree[A, V, T]) removeAdd(id Key, r repositionResult) {
	if !r.oldParent.IsNull() {
		branch := t.branch(r.oldParent)
		if r.oldChild < t.numChildren {
			removeFromList(&branch.childs[r.oldChild].list, t.items, r.prev, r.next)
		} else {
			removeFromList(&branch.nodes, t.items, r.prev, r.next)
		}
	} else {
		removeFromList(&t.outer, t.items, r.prev, r.next)
	}
	if !r.curNext.IsNull() {
		t.items[r.curNext].prev = id
	}
}

// Remove deletes id, returning its last AABB/payload. Reports false if id
// was not present. Unlinking an item can make its immediate parent branch
// merge-eligible; ancestors further up are unaffected by a single removal
// and are only reconsidered once their own list crosses a threshold.
func (t *tree[A, V, T]) Remove(id Key) (A, T, bool) {
	node, ok := t.items[id]
	if !ok {
		var a A
		var b T
		return a, b, false
	}
	delete(t.items, id)

	if !node.parent.IsNull() {
		parent := t.branch(node.parent)
		if node.parentChild < t.numChildren {
			removeFromList(&parent.childs[node.parentChild].list, t.items, node.prev, node.next)
		} else {
			removeFromList(&parent.nodes, t.items, node.prev, node.next)
		}
		if t.mergeEligible(parent) {
			t.markDirty(node.parent, parent)
		}
	} else {
		removeFromList(&t.outer, t.items, node.prev, node.next)
	}
	return node.aabb, node.bind, true
}

// liveCount sums a branch's own directly-held items: its pinned nodes
// list plus every Ab child's list. B is a small constant (4 or 8), so this
// is cheap enough to recompute on demand rather than cache incrementally.
// A branch with any Branch child is never merge-eligible, so this sum
// never needs to look past one level.
func (t *tree[A, V, T]) liveCount(node *branchNode[A, V]) int {
	n := node.nodes.len
	for i := range node.childs {
		if !node.childs[i].isBranch() {
			n += node.childs[i].list.len
		}
	}
	return n
}

// mergeEligible reports whether node satisfies the collapse predicate:
// it has a parent (root never merges), none of its children are
// sub-Branches, and its live item count is at or below adjustMin.
func (t *tree[A, V, T]) mergeEligible(node *branchNode[A, V]) bool {
	if node.parent.IsNull() {
		return false
	}
	for i := range node.childs {
		if node.childs[i].isBranch() {
			return false
		}
	}
	return t.liveCount(node) <= t.adjustMin
}

// markDirty enqueues branchID into the tree-wide dirty set on the
// false -> true transition of its dirty flag, keeping marking idempotent.
func (t *tree[A, V, T]) markDirty(branchID Key, node *branchNode[A, V]) {
	if node.dirty {
		return
	}
	node.dirty = true
	t.setTreeDirty(node.layer, branchID)
}

func (t *tree[A, V, T]) setTreeDirty(layer int, rid Key) {
	if rid.IsNull() {
		return
	}
	t.dirty.count++
	if layer < t.dirty.minLayer {
		t.dirty.minLayer = layer
	}
	for len(t.dirty.layers) <= layer {
		t.dirty.layers = append(t.dirty.layers, nil)
	}
	t.dirty.layers[layer] = append(t.dirty.layers[layer], rid)
}

// Collect is the sole path that creates or destroys branches: it walks
// the dirty set layer by layer (shallowest first), performing every
// pending split and merge. Splits enqueued while collecting a layer land
// one layer deeper and are picked up later in the same walk; merges
// cascade upward through direct recursion in tryMerge, never through this
// queue, so no count-based early exit is needed or safe here.
func (t *tree[A, V, T]) Collect() {
	if t.dirty.count == 0 {
		return
	}
	for i := t.dirty.minLayer; i < len(t.dirty.layers); i++ {
		layerKeys := t.dirty.layers[i]
		if len(layerKeys) == 0 {
			continue
		}
		for _, branchID := range layerKeys {
			t.collectBranch(branchID)
		}
		t.dirty.layers[i] = t.dirty.layers[i][:0]
	}
	t.dirty.count = 0
	t.dirty.minLayer = math.MaxInt
}

// collectBranch resolves one dequeued branch: try to merge it into its
// parent (cascading upward as far as it goes); if it didn't merge, check
// each of its child slots for a pending split.
func (t *tree[A, V, T]) collectBranch(id Key) {
	node := t.branch(id)
	if node == nil || !node.dirty {
		return
	}
	node.dirty = false
	if t.tryMerge(id, node) {
		return
	}
	t.trySplit(id, node)
}

// tryMerge collapses node into its parent's corresponding child slot if
// node satisfies the merge predicate, then recursively tries the same on
// the parent — a merge can only ever cascade toward shallower layers,
// which is why this recurses directly instead of going back through the
// dirty queue.
func (t *tree[A, V, T]) tryMerge(id Key, node *branchNode[A, V]) bool {
	if !t.mergeEligible(node) {
		return false
	}
	parentKey := node.parent
	parent := t.branch(parentKey)

	merged := nodeList{head: NullKey}
	if node.nodes.len > 0 {
		t.shrinkMerge(parentKey, node.parentChild, &node.nodes, &merged)
	}
	for i := range node.childs {
		if node.childs[i].list.len > 0 {
			t.shrinkMerge(parentKey, node.parentChild, &node.childs[i].list, &merged)
		}
	}
	parent.childs[node.parentChild] = childSlot{branch: NullKey, list: merged}
	t.branches.Remove(id)

	t.tryMerge(parentKey, parent)
	return true
}

// shrinkMerge splices list onto the front of result, retargeting every
// spliced item's parent/parentChild to the branch absorbing them.
func (t *tree[A, V, T]) shrinkMerge(parent Key, parentChild int, list *nodeList, result *nodeList) {
	old := result.head
	result.head = list.head
	result.len += list.len
	id := list.head
	for {
		ab := t.items[id]
		ab.parent = parent
		ab.parentChild = parentChild
		if ab.next.IsNull() {
			ab.next = old
			break
		}
		id = ab.next
	}
	if !old.IsNull() {
		t.items[old].prev = id
	}
}

// trySplit creates a fresh branch for every child slot whose Ab list has
// crossed adjustMax, redistributing that list into it.
func (t *tree[A, V, T]) trySplit(id Key, node *branchNode[A, V]) {
	ab, loose, layer := node.aabb, node.loose, node.layer
	for i := 0; i < t.numChildren; i++ {
		slot := &node.childs[i]
		if slot.isBranch() || slot.list.len < t.adjustMax {
			continue
		}
		list := slot.list
		childID := t.split(&list, ab, loose, layer, id, i)
		node.childs[i] = childSlot{branch: childID}
	}
}

func (t *tree[A, V, T]) split(list *nodeList, parentAabb A, parentLoose V, parentLayer int, parentID Key, childIdx int) Key {
	branch := t.createChildBranch(parentAabb, parentLoose, parentLayer, parentID, childIdx)
	branchID := t.branches.Insert(branch)
	t.splitDown(branch, branchID, list)
	return branchID
}

func (t *tree[A, V, T]) createChildBranch(parentAabb A, parentLoose V, parentLayer int, parentID Key, idx int) *branchNode[A, V] {
	aabb, loose := t.helper.CreateChild(parentAabb, parentLoose, parentLayer, t.looseLayer, t.minLoose, idx)
	return newBranchNode[A, V](aabb, loose, parentID, idx, parentLayer+1, t.numChildren)
}

// splitDown distributes list's items into the freshly created branch:
// items whose layer fits the branch's own layer get pinned on its nodes
// list; everything else lands in a child Ab list. A child list that
// itself crosses adjustMax is marked dirty so a later pass in this same
// Collect call continues the split one layer deeper. Every push here is a
// bulk push (only next/head touched), so prev pointers are repaired in
// one pass at the end via fixPrev.
func (t *tree[A, V, T]) splitDown(branch *branchNode[A, V], branchID Key, list *nodeList) {
	point := t.helper.GetMaxHalfLoose(branch.aabb, branch.loose)
	id := list.head
	for !id.IsNull() {
		node := t.items[id]
		nid := id
		id = node.next
		node.prev = NullKey
		if branch.layer >= node.layer {
			node.parent = branchID
			node.parentChild = t.numChildren
			node.next = branch.nodes.head
			branch.nodes.push(nid)
			continue
		}
		i := t.helper.GetChild(point, node.aabb)
		slot := &branch.childs[i]
		node.parent = branchID
		node.parentChild = i
		node.next = slot.list.head
		slot.list.push(nid)
		if slot.list.len >= t.adjustMax && branch.layer < t.deep {
			t.markDirty(branchID, branch)
		}
	}
	fixPrev(t.items, branch.nodes.head)
	for i := range branch.childs {
		fixPrev(t.items, branch.childs[i].list.head)
	}
}

// Query visits every item on outer first (outer items can still
// intersect an out-of-root query region, so completeness requires
// visiting them unconditionally), then walks the tree depth-first from
// the root, pruning subtrees whose loose-inflated cell branchAccept
// rejects.
func (t *tree[A, V, T]) Query(
	branchArg any,
	branchAccept func(arg any, aabb A) bool,
	abArg any,
	abVisit func(arg any, id Key, aabb A, bind T),
) {
	t.QueryOuter(abArg, abVisit)
	t.queryBranch(t.rootKey, branchArg, branchAccept, abArg, abVisit)
}

func (t *tree[A, V, T]) queryBranch(
	branchID Key,
	branchArg any,
	branchAccept func(arg any, aabb A) bool,
	abArg any,
	abVisit func(arg any, id Key, aabb A, bind T),
) {
	node := t.branch(branchID)
	id := node.nodes.head
	for !id.IsNull() {
		ab := t.items[id]
		abVisit(abArg, id, ab.aabb, ab.bind)
		id = ab.next
	}

	childAabbs := t.helper.MakeChilds(node.aabb, node.loose)
	for i, childAabb := range childAabbs {
		slot := node.childs[i]
		switch {
		case slot.isBranch():
			if branchAccept(branchArg, childAabb) {
				t.queryBranch(slot.branch, branchArg, branchAccept, abArg, abVisit)
			}
		case !slot.list.head.IsNull():
			if branchAccept(branchArg, childAabb) {
				cid := slot.list.head
				for !cid.IsNull() {
					ab := t.items[cid]
					abVisit(abArg, cid, ab.aabb, ab.bind)
					cid = ab.next
				}
			}
		}
	}
}

// QueryOuter visits every item not contained by the root cell, unfiltered.
func (t *tree[A, V, T]) QueryOuter(arg any, visit func(arg any, id Key, aabb A, bind T)) {
	id := t.outer.head
	for !id.IsNull() {
		ab := t.items[id]
		visit(arg, id, ab.aabb, ab.bind)
		id = ab.next
	}
}

// Tree2 is a loose quadtree: the shared engine bound to 2D geometry.
type Tree2[T any] = tree[Aabb2, Vec2, T]

// Tree3 is a loose octree: the shared engine bound to 3D geometry.
type Tree3[T any] = tree[Aabb3, Vec3, T]

// NewQuadTree builds a 2D loose quadtree. adjustMin/adjustMax/deep of 0
// select the documented defaults (4, 8, 16).
func NewQuadTree[T any](root Aabb2, maxLoose, minLoose Vec2, adjustMin, adjustMax, deep int) *Tree2[T] {
	return newTree[Aabb2, Vec2, T](quadHelper{}, root, maxLoose, minLoose, adjustMin, adjustMax, deep)
}

// NewOctTree builds a 3D loose octree. adjustMin/adjustMax/deep of 0
// select the documented defaults (4, 8, 16).
func NewOctTree[T any](root Aabb3, maxLoose, minLoose Vec3, adjustMin, adjustMax, deep int) *Tree3[T] {
	return newTree[Aabb3, Vec3, T](octHelper{}, root, maxLoose, minLoose, adjustMin, adjustMax, deep)
}
