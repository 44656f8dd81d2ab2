package loosetree

// octHelper implements Helper[Aabb3, Vec3] — an 8-child 3D subdivision.
// Ported from _examples/original_source/src/oct_helper.rs.
type octHelper struct{}

func (octHelper) NumChildren() int { return 8 }

func (octHelper) Extents(a Aabb3) Vec3 {
	return Vec3{X: a.Max.X - a.Min.X, Y: a.Max.Y - a.Min.Y, Z: a.Max.Z - a.Min.Z}
}

func (octHelper) Shift(a Aabb3, v Vec3) Aabb3 {
	return Aabb3{
		Min: Vec3{X: a.Min.X + v.X, Y: a.Min.Y + v.Y, Z: a.Min.Z + v.Z},
		Max: Vec3{X: a.Max.X + v.X, Y: a.Max.Y + v.Y, Z: a.Max.Z + v.Z},
	}
}

func (octHelper) Contains(outer, inner Aabb3) bool {
	return outer.Min.X <= inner.Min.X && outer.Max.X >= inner.Max.X &&
		outer.Min.Y <= inner.Min.Y && outer.Max.Y >= inner.Max.Y &&
		outer.Min.Z <= inner.Min.Z && outer.Max.Z >= inner.Max.Z
}

func (octHelper) Intersects(a, b Aabb3) bool {
	return Aabb3Intersects(a, b)
}

func (octHelper) SmallerThanMinLoose(v, minLoose Vec3) bool {
	return v.X <= minLoose.X && v.Y <= minLoose.Y && v.Z <= minLoose.Z
}

func (octHelper) CalcLayer(loose, el Vec3) int {
	x := axisRatio(loose.X, el.X)
	y := axisRatio(loose.Y, el.Y)
	z := axisRatio(loose.Z, el.Z)
	min := minUint64(minUint64(x, y), z)
	if min == 0 {
		return 0
	}
	return log2Floor(min)
}

func (octHelper) GetDeep(d Vec3, looseLayer int, maxLoose Vec3, deep int, minLoose Vec3) int {
	d.X *= powHalfRatio(maxLoose.X, d.X, looseLayer)
	d.Y *= powHalfRatio(maxLoose.Y, d.Y, looseLayer)
	d.Z *= powHalfRatio(maxLoose.Z, d.Z, looseLayer)
	if looseLayer >= deep {
		return deep
	}
	calcDeep := looseLayer
	minX2, minY2, minZ2 := minLoose.X*2, minLoose.Y*2, minLoose.Z*2
	for calcDeep < deep && d.X >= minX2 && d.Y >= minY2 && d.Z >= minZ2 {
		d.X = (d.X + minLoose.X) / 2
		d.Y = (d.Y + minLoose.Y) / 2
		d.Z = (d.Z + minLoose.Z) / 2
		calcDeep++
	}
	return calcDeep
}

func (octHelper) GetChild(split Vec3, a Aabb3) int {
	i := 0
	if a.Max.X > split.X {
		i += 1
	}
	if a.Max.Y > split.Y {
		i += 2
	}
	if a.Max.Z > split.Z {
		i += 4
	}
	return i
}

func (octHelper) GetMaxHalfLoose(a Aabb3, loose Vec3) Vec3 {
	return Vec3{
		X: (a.Min.X + a.Max.X + loose.X) / 2,
		Y: (a.Min.Y + a.Max.Y + loose.Y) / 2,
		Z: (a.Min.Z + a.Max.Z + loose.Z) / 2,
	}
}

func (h octHelper) MakeChilds(a Aabb3, loose Vec3) []Aabb3 {
	x := (a.Min.X + a.Max.X - loose.X) / 2
	y := (a.Min.Y + a.Max.Y - loose.Y) / 2
	z := (a.Min.Z + a.Max.Z - loose.Z) / 2
	p2 := h.GetMaxHalfLoose(a, loose)
	return []Aabb3{
		{Min: a.Min, Max: p2},
		{Min: Vec3{X: x, Y: a.Min.Y, Z: a.Min.Z}, Max: Vec3{X: a.Max.X, Y: p2.Y, Z: p2.Z}},
		{Min: Vec3{X: a.Min.X, Y: y, Z: a.Min.Z}, Max: Vec3{X: p2.X, Y: a.Max.Y, Z: p2.Z}},
		{Min: Vec3{X: x, Y: y, Z: a.Min.Z}, Max: Vec3{X: a.Max.X, Y: a.Max.Y, Z: p2.Z}},
		{Min: Vec3{X: a.Min.X, Y: a.Min.Y, Z: z}, Max: Vec3{X: p2.X, Y: p2.Y, Z: a.Max.Z}},
		{Min: Vec3{X: x, Y: a.Min.Y, Z: z}, Max: Vec3{X: a.Max.X, Y: p2.Y, Z: a.Max.Z}},
		{Min: Vec3{X: a.Min.X, Y: y, Z: z}, Max: Vec3{X: p2.X, Y: a.Max.Y, Z: a.Max.Z}},
		{Min: Vec3{X: x, Y: y, Z: z}, Max: a.Max},
	}
}

func (octHelper) CreateChild(a Aabb3, loose Vec3, layer, looseLayer int, minLoose Vec3, idx int) (Aabb3, Vec3) {
	c1x := (a.Min.X + a.Max.X - loose.X) / 2
	c1y := (a.Min.Y + a.Max.Y - loose.Y) / 2
	c1z := (a.Min.Z + a.Max.Z - loose.Z) / 2
	c2x := (a.Min.X + a.Max.X + loose.X) / 2
	c2y := (a.Min.Y + a.Max.Y + loose.Y) / 2
	c2z := (a.Min.Z + a.Max.Z + loose.Z) / 2

	var child Aabb3
	switch idx {
	case 0:
		child = Aabb3{Min: a.Min, Max: Vec3{X: c2x, Y: c2y, Z: c2z}}
	case 1:
		child = Aabb3{Min: Vec3{X: c1x, Y: a.Min.Y, Z: a.Min.Z}, Max: Vec3{X: a.Max.X, Y: c2y, Z: c2z}}
	case 2:
		child = Aabb3{Min: Vec3{X: a.Min.X, Y: c1y, Z: a.Min.Z}, Max: Vec3{X: c2x, Y: a.Max.Y, Z: c2z}}
	case 3:
		child = Aabb3{Min: Vec3{X: c1x, Y: c1y, Z: a.Min.Z}, Max: Vec3{X: a.Max.X, Y: a.Max.Y, Z: c2z}}
	case 4:
		child = Aabb3{Min: Vec3{X: a.Min.X, Y: a.Min.Y, Z: c1z}, Max: Vec3{X: c2x, Y: c2y, Z: a.Max.Z}}
	case 5:
		child = Aabb3{Min: Vec3{X: c1x, Y: a.Min.Y, Z: c1z}, Max: Vec3{X: a.Max.X, Y: c2y, Z: a.Max.Z}}
	case 6:
		child = Aabb3{Min: Vec3{X: a.Min.X, Y: c1y, Z: c1z}, Max: Vec3{X: c2x, Y: a.Max.Y, Z: a.Max.Z}}
	default:
		child = Aabb3{Min: Vec3{X: c1x, Y: c1y, Z: c1z}, Max: a.Max}
	}

	var childLoose Vec3
	if layer < looseLayer {
		childLoose = Vec3{X: loose.X / 2, Y: loose.Y / 2, Z: loose.Z / 2}
	} else {
		childLoose = minLoose
	}
	return child, childLoose
}
