// Command treeview visualizes a live loosetree.Tree2: a field of bouncing
// boxes kept in the tree via Shift, queried every frame against a
// spotlight region that sweeps across the window on a gween tween. Boxes
// currently inside the spotlight draw highlighted; everything else draws
// dim. No external assets are required.
package main

import (
	"image/color"
	"log"
	"math/rand"

	"github.com/phanxgames/loosetree"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

const (
	windowTitle = "loosetree — treeview"
	screenW     = 960
	screenH     = 640
	bodyCount   = 300
	bodySize    = 6
	spotW       = 240
	spotH       = screenH
	spotPeriod  = 4.0 // seconds for one sweep across the window
)

type body struct {
	id     loosetree.Key
	x, y   float64
	dx, dy float64
}

func (b *body) aabb() loosetree.Aabb2 {
	return loosetree.Aabb2{
		Min: loosetree.Vec2{X: b.x, Y: b.y},
		Max: loosetree.Vec2{X: b.x + bodySize, Y: b.y + bodySize},
	}
}

type game struct {
	tree   *loosetree.Tree2[int]
	bodies []*body
	ids    *loosetree.KeyArena[struct{}]

	spotX     float64
	spotTween *gween.Tween
	reverse   bool

	highlighted map[int]bool
}

func newGame() *game {
	root := loosetree.Aabb2{Min: loosetree.Vec2{X: 0, Y: 0}, Max: loosetree.Vec2{X: screenW, Y: screenH}}
	g := &game{
		tree: loosetree.NewQuadTree[int](root, loosetree.Vec2{X: 32, Y: 32}, loosetree.Vec2{X: 1, Y: 1}, 0, 0, 0),
		ids:  loosetree.NewKeyArena[struct{}](),
	}
	for i := 0; i < bodyCount; i++ {
		b := &body{
			x:  rand.Float64() * (screenW - bodySize),
			y:  rand.Float64() * (screenH - bodySize),
			dx: rand.Float64()*2 - 1,
			dy: rand.Float64()*2 - 1,
		}
		id := g.ids.Insert(struct{}{})
		b.id = id
		g.tree.Add(id, b.aabb(), i)
		g.bodies = append(g.bodies, b)
	}
	g.tree.Collect()
	g.spotTween = gween.New(0, screenW-spotW, spotPeriod, ease.InOutSine)
	return g
}

func (g *game) Update() error {
	for _, b := range g.bodies {
		dx, dy := b.dx, b.dy
		b.x += dx
		b.y += dy
		if b.x < 0 || b.x+bodySize > screenW {
			b.dx = -b.dx
		}
		if b.y < 0 || b.y+bodySize > screenH {
			b.dy = -b.dy
		}
		g.tree.Shift(b.id, loosetree.Vec2{X: dx, Y: dy})
	}
	g.tree.Collect()

	x, finished := g.spotTween.Update(1.0 / 60.0)
	g.spotX = x
	if finished {
		g.reverse = !g.reverse
		if g.reverse {
			g.spotTween = gween.New(screenW-spotW, 0, spotPeriod, ease.InOutSine)
		} else {
			g.spotTween = gween.New(0, screenW-spotW, spotPeriod, ease.InOutSine)
		}
	}

	spot := loosetree.Aabb2{
		Min: loosetree.Vec2{X: g.spotX, Y: 0},
		Max: loosetree.Vec2{X: g.spotX + spotW, Y: spotH},
	}
	g.highlighted = make(map[int]bool)
	g.tree.Query(spot, func(arg any, aabb loosetree.Aabb2) bool {
		region := arg.(loosetree.Aabb2)
		return loosetree.Aabb2Intersects(region, aabb)
	}, nil, func(arg any, id loosetree.Key, aabb loosetree.Aabb2, bind int) {
		if loosetree.Aabb2Intersects(spot, aabb) {
			g.highlighted[bind] = true
		}
	})

	return nil
}

var (
	dimColor  = color.RGBA{R: 70, G: 80, B: 110, A: 255}
	hotColor  = color.RGBA{R: 255, G: 200, B: 60, A: 255}
	spotColor = color.RGBA{R: 255, G: 255, B: 255, A: 80}
	bgColor   = color.RGBA{R: 18, G: 18, B: 26, A: 255}
)

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(bgColor)

	spot := loosetree.Aabb2{
		Min: loosetree.Vec2{X: g.spotX, Y: 0},
		Max: loosetree.Vec2{X: g.spotX + spotW, Y: spotH},
	}
	vector.DrawFilledRect(screen, float32(spot.Min.X), float32(spot.Min.Y),
		float32(spotW), float32(spotH), spotColor, false)

	for i, b := range g.bodies {
		c := dimColor
		if g.highlighted[i] {
			c = hotColor
		}
		vector.DrawFilledRect(screen, float32(b.x), float32(b.y), bodySize, bodySize, c, false)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenW, screenH
}

func main() {
	ebiten.SetWindowSize(screenW, screenH)
	ebiten.SetWindowTitle(windowTitle)
	if err := ebiten.RunGame(newGame()); err != nil {
		log.Fatal(err)
	}
}
