package loosetree

// quadHelper implements Helper[Aabb2, Vec2] — a 4-child 2D subdivision.
// Ported from _examples/original_source/src/quad_helper.rs.
type quadHelper struct{}

func (quadHelper) NumChildren() int { return 4 }

func (quadHelper) Extents(a Aabb2) Vec2 {
	return Vec2{X: a.Max.X - a.Min.X, Y: a.Max.Y - a.Min.Y}
}

func (quadHelper) Shift(a Aabb2, v Vec2) Aabb2 {
	return Aabb2{
		Min: Vec2{X: a.Min.X + v.X, Y: a.Min.Y + v.Y},
		Max: Vec2{X: a.Max.X + v.X, Y: a.Max.Y + v.Y},
	}
}

func (quadHelper) Contains(outer, inner Aabb2) bool {
	return outer.Min.X <= inner.Min.X && outer.Max.X >= inner.Max.X &&
		outer.Min.Y <= inner.Min.Y && outer.Max.Y >= inner.Max.Y
}

func (quadHelper) Intersects(a, b Aabb2) bool {
	return Aabb2Intersects(a, b)
}

func (quadHelper) SmallerThanMinLoose(v, minLoose Vec2) bool {
	return v.X <= minLoose.X && v.Y <= minLoose.Y
}

func (quadHelper) CalcLayer(loose, el Vec2) int {
	x := axisRatio(loose.X, el.X)
	y := axisRatio(loose.Y, el.Y)
	min := minUint64(x, y)
	if min == 0 {
		return 0
	}
	return log2Floor(min)
}

func (quadHelper) GetDeep(d Vec2, looseLayer int, maxLoose Vec2, deep int, minLoose Vec2) int {
	d.X *= powHalfRatio(maxLoose.X, d.X, looseLayer)
	d.Y *= powHalfRatio(maxLoose.Y, d.Y, looseLayer)
	if looseLayer >= deep {
		return deep
	}
	// Above this layer every node uses the minimum loose value; once a
	// node's size drops under twice that minimum, the minimum dominates
	// the node and subdividing further stops paying for itself.
	calcDeep := looseLayer
	minX2, minY2 := minLoose.X*2, minLoose.Y*2
	for calcDeep < deep && d.X >= minX2 && d.Y >= minY2 {
		d.X = (d.X + minLoose.X) / 2
		d.Y = (d.Y + minLoose.Y) / 2
		calcDeep++
	}
	return calcDeep
}

func (quadHelper) GetChild(split Vec2, a Aabb2) int {
	i := 0
	if a.Max.X > split.X {
		i += 1
	}
	if a.Max.Y > split.Y {
		i += 2
	}
	return i
}

func (quadHelper) GetMaxHalfLoose(a Aabb2, loose Vec2) Vec2 {
	return Vec2{
		X: (a.Min.X + a.Max.X + loose.X) / 2,
		Y: (a.Min.Y + a.Max.Y + loose.Y) / 2,
	}
}

func (h quadHelper) MakeChilds(a Aabb2, loose Vec2) []Aabb2 {
	x := (a.Min.X + a.Max.X - loose.X) / 2
	y := (a.Min.Y + a.Max.Y - loose.Y) / 2
	p2 := h.GetMaxHalfLoose(a, loose)
	return []Aabb2{
		{Min: a.Min, Max: p2},
		{Min: Vec2{X: x, Y: a.Min.Y}, Max: Vec2{X: a.Max.X, Y: p2.Y}},
		{Min: Vec2{X: a.Min.X, Y: y}, Max: Vec2{X: p2.X, Y: a.Max.Y}},
		{Min: Vec2{X: x, Y: y}, Max: a.Max},
	}
}

func (quadHelper) CreateChild(a Aabb2, loose Vec2, layer, looseLayer int, minLoose Vec2, idx int) (Aabb2, Vec2) {
	c1x := (a.Min.X + a.Max.X - loose.X) / 2
	c1y := (a.Min.Y + a.Max.Y - loose.Y) / 2
	c2x := (a.Min.X + a.Max.X + loose.X) / 2
	c2y := (a.Min.Y + a.Max.Y + loose.Y) / 2

	var child Aabb2
	switch idx {
	case 0:
		child = Aabb2{Min: a.Min, Max: Vec2{X: c2x, Y: c2y}}
	case 1:
		child = Aabb2{Min: Vec2{X: c1x, Y: a.Min.Y}, Max: Vec2{X: a.Max.X, Y: c2y}}
	case 2:
		child = Aabb2{Min: Vec2{X: a.Min.X, Y: c1y}, Max: Vec2{X: c2x, Y: a.Max.Y}}
	default:
		child = Aabb2{Min: Vec2{X: c1x, Y: c1y}, Max: a.Max}
	}

	var childLoose Vec2
	if layer < looseLayer {
		childLoose = Vec2{X: loose.X / 2, Y: loose.Y / 2}
	} else {
		childLoose = minLoose
	}
	return child, childLoose
}
