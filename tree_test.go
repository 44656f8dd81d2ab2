package loosetree

import "testing"

func aabb2(minX, minY, maxX, maxY float64) Aabb2 {
	return Aabb2{Min: Vec2{X: minX, Y: minY}, Max: Vec2{X: maxX, Y: maxY}}
}

func newTestTree() (*Tree2[string], *KeyArena[struct{}]) {
	tree := NewQuadTree[string](aabb2(-1024, -1024, 1024, 1024), Vec2{X: 32, Y: 32}, Vec2{X: 1, Y: 1}, 0, 0, 0)
	return tree, NewKeyArena[struct{}]()
}

// --- Add / Get ---

func TestAddAndGet(t *testing.T) {
	tree, ids := newTestTree()
	id := ids.Insert(struct{}{})
	if !tree.Add(id, aabb2(0, 0, 1, 1), "hero") {
		t.Fatal("Add should succeed for a fresh id")
	}
	aabb, bind, ok := tree.Get(id)
	if !ok || bind != "hero" || aabb.Min.X != 0 {
		t.Fatalf("Get returned (%v, %q, %v)", aabb, bind, ok)
	}
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tree.Len())
	}
	if !tree.ContainsKey(id) {
		t.Error("ContainsKey should report the item live")
	}
}

func TestAddDuplicateRejected(t *testing.T) {
	tree, ids := newTestTree()
	id := ids.Insert(struct{}{})
	tree.Add(id, aabb2(0, 0, 1, 1), "a")
	if tree.Add(id, aabb2(0, 0, 1, 1), "b") {
		t.Error("second Add with the same id should return false")
	}
}

func TestAddOutsideRootGoesToOuter(t *testing.T) {
	tree, ids := newTestTree()
	id := ids.Insert(struct{}{})
	tree.Add(id, aabb2(5000, 5000, 5001, 5001), "far")

	visited := false
	tree.QueryOuter(nil, func(arg any, gotID Key, aabb Aabb2, bind string) {
		if gotID == id {
			visited = true
		}
	})
	if !visited {
		t.Error("an AABB outside the root bounds should land on outer")
	}
}

// --- GetMut / UpdateBind ---

func TestGetMutAndUpdateBind(t *testing.T) {
	tree, ids := newTestTree()
	id := ids.Insert(struct{}{})
	tree.Add(id, aabb2(0, 0, 1, 1), "a")

	_, bindPtr, ok := tree.GetMut(id)
	if !ok {
		t.Fatal("GetMut should find a live item")
	}
	*bindPtr = "b"
	if _, bind, _ := tree.Get(id); bind != "b" {
		t.Errorf("mutation through GetMut's pointer did not stick, got %q", bind)
	}

	if !tree.UpdateBind(id, "c") {
		t.Fatal("UpdateBind should succeed for a live item")
	}
	if _, bind, _ := tree.Get(id); bind != "c" {
		t.Errorf("UpdateBind did not take effect, got %q", bind)
	}
}

// --- Remove ---

func TestRemoveReturnsLastStateAndUnlinks(t *testing.T) {
	tree, ids := newTestTree()
	id := ids.Insert(struct{}{})
	tree.Add(id, aabb2(0, 0, 1, 1), "hero")

	aabb, bind, ok := tree.Remove(id)
	if !ok || bind != "hero" || aabb.Min.X != 0 {
		t.Fatalf("Remove returned (%v, %q, %v)", aabb, bind, ok)
	}
	if tree.ContainsKey(id) {
		t.Error("item should no longer be live after Remove")
	}
	if _, _, ok := tree.Remove(id); ok {
		t.Error("second Remove of the same id should report false")
	}
}

// --- Update / Shift ---

func TestUpdateMovesWithinLooseBoundsIsIdempotent(t *testing.T) {
	tree, ids := newTestTree()
	id := ids.Insert(struct{}{})
	tree.Add(id, aabb2(0, 0, 1, 1), "hero")
	node := tree.items[id]
	parentBefore := node.parent

	if !tree.Update(id, aabb2(0.1, 0.1, 1.1, 1.1)) {
		t.Fatal("Update should succeed for a live item")
	}
	if node.parent != parentBefore {
		t.Error("a small move within the same loose cell should not reparent the item")
	}
}

func TestShiftTranslatesAabb(t *testing.T) {
	tree, ids := newTestTree()
	id := ids.Insert(struct{}{})
	tree.Add(id, aabb2(0, 0, 1, 1), "hero")

	if !tree.Shift(id, Vec2{X: 10, Y: 10}) {
		t.Fatal("Shift should succeed for a live item")
	}
	aabb, _, _ := tree.Get(id)
	if aabb.Min.X != 10 || aabb.Min.Y != 10 || aabb.Max.X != 11 || aabb.Max.Y != 11 {
		t.Errorf("Shift produced %v, want min (10,10) max (11,11)", aabb)
	}
}

func TestUpdateCrossingRootBoundaryMovesToOuterAndBack(t *testing.T) {
	tree, ids := newTestTree()
	id := ids.Insert(struct{}{})
	tree.Add(id, aabb2(0, 0, 1, 1), "hero")

	tree.Update(id, aabb2(5000, 5000, 5001, 5001))
	node := tree.items[id]
	if !node.parent.IsNull() {
		t.Error("an item moved outside root bounds should have a null parent (outer)")
	}

	tree.Update(id, aabb2(0, 0, 1, 1))
	node = tree.items[id]
	if node.parent.IsNull() {
		t.Error("an item moved back inside root bounds should be reparented off outer")
	}
}

func TestUnknownIDOperationsFail(t *testing.T) {
	tree, ids := newTestTree()
	unknown := ids.Insert(struct{}{})
	if tree.Update(unknown, aabb2(0, 0, 1, 1)) {
		t.Error("Update of an unknown id should return false")
	}
	if tree.Shift(unknown, Vec2{}) {
		t.Error("Shift of an unknown id should return false")
	}
	if tree.UpdateBind(unknown, "x") {
		t.Error("UpdateBind of an unknown id should return false")
	}
	if _, _, ok := tree.Remove(unknown); ok {
		t.Error("Remove of an unknown id should return false")
	}
}

// --- Split ---

func TestCollectSplitsOvercrowdedCell(t *testing.T) {
	tree, ids := newTestTree()
	tree.SetAutoCollect(1 << 30) // defer every reshape to the explicit Collect below

	_, adjustMax := tree.GetAdjust()
	rootBefore := tree.branch(tree.rootKey)
	childrenBefore := 0
	for i := range rootBefore.childs {
		if rootBefore.childs[i].isBranch() {
			childrenBefore++
		}
	}
	if childrenBefore != 0 {
		t.Fatalf("fresh tree should have no sub-branches, found %d", childrenBefore)
	}

	// Scatter enough small items into one quadrant to force it over adjustMax.
	for i := 0; i < adjustMax+2; i++ {
		id := ids.Insert(struct{}{})
		off := float64(i) * 0.01
		tree.Add(id, aabb2(10+off, 10+off, 10.5+off, 10.5+off), "x")
	}
	tree.Collect()

	root := tree.branch(tree.rootKey)
	splitFound := false
	for i := range root.childs {
		if root.childs[i].isBranch() {
			splitFound = true
		}
	}
	if !splitFound {
		t.Error("Collect should have split the overcrowded quadrant into a sub-branch")
	}
}

// --- Merge ---

func TestCollectMergesUndercrowdedBranchBackIntoParent(t *testing.T) {
	tree, ids := newTestTree()
	tree.SetAutoCollect(1 << 30)

	_, adjustMax := tree.GetAdjust()
	var inserted []Key
	for i := 0; i < adjustMax+2; i++ {
		id := ids.Insert(struct{}{})
		off := float64(i) * 0.01
		tree.Add(id, aabb2(10+off, 10+off, 10.5+off, 10.5+off), "x")
		inserted = append(inserted, id)
	}
	tree.Collect()

	root := tree.branch(tree.rootKey)
	splitChild := -1
	for i := range root.childs {
		if root.childs[i].isBranch() {
			splitChild = i
		}
	}
	if splitChild == -1 {
		t.Fatal("expected the quadrant to have split before testing merge")
	}

	// Remove all but one item so the split branch drops under adjustMin.
	for _, id := range inserted[1:] {
		tree.Remove(id)
	}
	tree.Collect()

	root = tree.branch(tree.rootKey)
	if root.childs[splitChild].isBranch() {
		t.Error("Collect should have merged the undercrowded branch back into its parent")
	}
}

// --- Query ---

func TestQueryFindsContainedAndSkipsUnrelated(t *testing.T) {
	tree, ids := newTestTree()
	inside := ids.Insert(struct{}{})
	outside := ids.Insert(struct{}{})
	// Kept away from the root's centre: near it the four loose child cells
	// overlap, so a region there would be accepted by every child.
	tree.Add(inside, aabb2(-500, -500, -499, -499), "inside")
	tree.Add(outside, aabb2(500, 500, 501, 501), "outside")
	tree.Collect()

	region := aabb2(-501, -501, -498, -498)
	var found []Key
	tree.Query(region, func(arg any, aabb Aabb2) bool {
		r := arg.(Aabb2)
		return Aabb2Intersects(r, aabb)
	}, nil, func(arg any, id Key, aabb Aabb2, bind string) {
		found = append(found, id)
	})

	sawInside, sawOutside := false, false
	for _, id := range found {
		if id == inside {
			sawInside = true
		}
		if id == outside {
			sawOutside = true
		}
	}
	if !sawInside {
		t.Error("Query should visit an item inside the query region")
	}
	if sawOutside {
		t.Error("Query should not visit an item far outside the query region")
	}
}

func TestQueryVisitsOuterUnconditionally(t *testing.T) {
	tree, ids := newTestTree()
	farID := ids.Insert(struct{}{})
	tree.Add(farID, aabb2(5000, 5000, 5001, 5001), "far")

	region := aabb2(-1, -1, 1, 1) // does not overlap the far item's aabb at all
	found := false
	tree.Query(region, func(arg any, aabb Aabb2) bool { return true }, nil,
		func(arg any, id Key, aabb Aabb2, bind string) {
			if id == farID {
				found = true
			}
		})
	if !found {
		t.Error("Query always visits outer items regardless of the query region")
	}
}

// --- Layer / adjust accessors ---

func TestGetAdjustReflectsDefaults(t *testing.T) {
	tree, _ := newTestTree()
	min, max := tree.GetAdjust()
	if min != adjustMinDefault || max != adjustMaxDefault {
		t.Errorf("GetAdjust() = (%d,%d), want (%d,%d)", min, max, adjustMinDefault, adjustMaxDefault)
	}
}

func TestSetAutoCollectOverridesDefault(t *testing.T) {
	tree, _ := newTestTree()
	tree.SetAutoCollect(5)
	if tree.GetAutoCollect() != 5 {
		t.Errorf("GetAutoCollect() = %d, want 5", tree.GetAutoCollect())
	}
}

func TestAdjustMaxNeverBelowAdjustMin(t *testing.T) {
	tree := NewQuadTree[string](aabb2(-1024, -1024, 1024, 1024), Vec2{X: 32, Y: 32}, Vec2{X: 1, Y: 1}, 8, 2, 0)
	min, max := tree.GetAdjust()
	if max < min {
		t.Errorf("GetAdjust() = (%d,%d), adjustMax should never fall below adjustMin", min, max)
	}
}

// --- Octree smoke test ---

func TestOctTreeBasicLifecycle(t *testing.T) {
	tree := NewOctTree[string](
		Aabb3{Min: Vec3{X: -100, Y: -100, Z: -100}, Max: Vec3{X: 100, Y: 100, Z: 100}},
		Vec3{X: 8, Y: 8, Z: 8}, Vec3{X: 1, Y: 1, Z: 1}, 0, 0, 0)
	ids := NewKeyArena[struct{}]()
	id := ids.Insert(struct{}{})

	if !tree.Add(id, Aabb3{Min: Vec3{X: 0, Y: 0, Z: 0}, Max: Vec3{X: 1, Y: 1, Z: 1}}, "cube") {
		t.Fatal("Add should succeed")
	}
	tree.Collect()
	if _, bind, ok := tree.Get(id); !ok || bind != "cube" {
		t.Fatalf("Get returned (_, %q, %v)", bind, ok)
	}
	if !tree.Shift(id, Vec3{X: 5, Y: 5, Z: 5}) {
		t.Fatal("Shift should succeed")
	}
	if aabb, _, _ := tree.Get(id); aabb.Min.X != 5 {
		t.Errorf("Shift did not translate the octree item, got %v", aabb)
	}
	if _, _, ok := tree.Remove(id); !ok {
		t.Fatal("Remove should succeed")
	}
}
