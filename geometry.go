package loosetree

import "math"

// Vec2 is a 2D point or vector (the same shape serves both roles,
// matching willow.Vec2's dual use for positions and offsets).
type Vec2 struct {
	X, Y float64
}

// Vec3 is a 3D point or vector.
type Vec3 struct {
	X, Y, Z float64
}

// Aabb2 is an axis-aligned bounding box in 2D.
type Aabb2 struct {
	Min, Max Vec2
}

// Aabb3 is an axis-aligned bounding box in 3D.
type Aabb3 struct {
	Min, Max Vec3
}

// Aabb2Intersects is the standard AABB-AABB intersects predicate, using a
// half-open convention on every axis: a.min <= b.max && a.max > b.min. When
// a's max edge touches b's min edge the boxes do not count as overlapping;
// when a's min edge touches b's max edge they do. Call it from the
// branchAccept callback of [Tree2.Query] when the query region itself is
// an Aabb2.
func Aabb2Intersects(a, b Aabb2) bool {
	return a.Min.X <= b.Max.X && a.Max.X > b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y > b.Min.Y
}

// Aabb3Intersects is the 3D counterpart of Aabb2Intersects.
func Aabb3Intersects(a, b Aabb3) bool {
	return a.Min.X <= b.Max.X && a.Max.X > b.Min.X &&
		a.Min.Y <= b.Max.Y && a.Max.Y > b.Min.Y &&
		a.Min.Z <= b.Max.Z && a.Max.Z > b.Min.Z
}

// Helper parameterizes the tree core with geometry operations, letting one
// engine serve both the quadtree (NumChildren == 4) and the octree
// (NumChildren == 8). A is the AABB type, V the point/vector type. This is
// the Go shape of the Rust original's `Helper<const N: usize>` trait
// (tree.rs) — NumChildren replaces the const generic N, since Go has no
// value generics for array lengths.
type Helper[A any, V any] interface {
	// NumChildren returns B: 4 for a quadtree, 8 for an octree.
	NumChildren() int
	// Extents returns the per-axis size of aabb.
	Extents(aabb A) V
	// Shift translates aabb by v.
	Shift(aabb A, v V) A
	// Contains reports whether outer fully contains inner.
	Contains(outer, inner A) bool
	// Intersects reports whether a and b overlap (half-open convention).
	Intersects(a, b A) bool
	// SmallerThanMinLoose reports whether v is componentwise <= minLoose.
	SmallerThanMinLoose(v, minLoose V) bool
	// CalcLayer returns floor(log2(min_axis(loose / extent))), 0 if that
	// minimum ratio is 0, or math.MaxInt if every axis of extent is zero (a
	// zero axis alone never wins the minimum).
	CalcLayer(loose, extent V) int
	// GetDeep computes the tree's effective depth cap from the root
	// extent d, mutating a working copy of d as it descends virtual
	// layers (mirrors the Rust `get_deap`, which takes d by &mut).
	GetDeep(d V, looseLayer int, maxLoose V, deep int, minLoose V) int
	// GetChild returns which of NumChildren() child slots the aabb
	// belongs in, given the parent's split point.
	GetChild(split V, aabb A) int
	// GetMaxHalfLoose returns the split point: (min+max+loose)/2 per axis.
	GetMaxHalfLoose(aabb A, loose V) V
	// MakeChilds enumerates the NumChildren() child AABBs of aabb without
	// creating branch nodes (used by Query, which never needs Branch
	// storage for cells it only tests against a predicate).
	MakeChilds(aabb A, loose V) []A
	// CreateChild returns the AABB and loose vector for child index idx,
	// one layer below layer.
	CreateChild(aabb A, loose V, layer, looseLayer int, minLoose V, idx int) (A, V)
}

// axisRatio truncates loose/extent to a non-negative integer ratio the way
// the Rust original's `as_()` cast does, or math.MaxUint64 when extent is the
// degenerate zero axis (tree.rs calc_layer: "v's axis is 0" case).
func axisRatio(loose, extent float64) uint64 {
	if extent == 0 {
		return math.MaxUint64
	}
	return uint64(loose / extent)
}

// log2Floor returns floor(log2(v)), or 0 for v <= 1 (calc_layer's "minimum
// is 0" case collapses to layer 0 exactly like the Rust original), or
// math.MaxInt for math.MaxUint64, the ratio axisRatio gives a zero axis.
func log2Floor(v uint64) int {
	if v == math.MaxUint64 {
		return math.MaxInt
	}
	if v <= 1 {
		return 0
	}
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// powHalfRatio computes ((maxLoose/d + 1) / 2) ^ looseLayer, the per-axis
// shrink factor GetDeep applies to the root extent as it walks down through
// layers that all share the loose-layer's fixed loose inflation.
func powHalfRatio(maxLoose, d float64, looseLayer int) float64 {
	return math.Pow((maxLoose/d+1)/2, float64(looseLayer))
}
