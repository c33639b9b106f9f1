package world

import (
	"math"

	"github.com/mergeplay/mergeplay/internal/core/ecs"
)

// Vec2 is a point in world space. Y grows upward, as in the scene the
// board was laid out in.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Lerp(o Vec2, t float64) Vec2 {
	return Vec2{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t}
}

// Cell addresses one grid slot.
type Cell struct {
	X, Y int
}

// Grid is a fixed-size board. Each cell holds at most one item handle;
// ecs.NilEntity marks an empty cell. Accessed only from the game loop.
type Grid struct {
	width    int
	height   int
	cellSize float64
	origin   Vec2
	cells    []ecs.EntityID
}

// NewGrid creates an empty width×height grid centred on origin.
func NewGrid(width, height int, cellSize float64, origin Vec2) *Grid {
	return &Grid{
		width:    width,
		height:   height,
		cellSize: cellSize,
		origin:   origin,
		cells:    make([]ecs.EntityID, width*height),
	}
}

func (g *Grid) Width() int        { return g.width }
func (g *Grid) Height() int       { return g.height }
func (g *Grid) CellSize() float64 { return g.cellSize }
func (g *Grid) Origin() Vec2      { return g.origin }

// Min returns the world position of the grid's bottom-left corner.
func (g *Grid) Min() Vec2 {
	return Vec2{
		X: g.origin.X - float64(g.width)*g.cellSize/2,
		Y: g.origin.Y - float64(g.height)*g.cellSize/2,
	}
}

// ToWorld returns the centre of cell (x, y).
func (g *Grid) ToWorld(x, y int) Vec2 {
	lo := g.Min()
	half := g.cellSize / 2
	return Vec2{
		X: lo.X + float64(x)*g.cellSize + half,
		Y: lo.Y + float64(y)*g.cellSize + half,
	}
}

// ToGrid maps a world position to cell indices by flooring. The result may be
// out of range; check IsValid before using it.
func (g *Grid) ToGrid(p Vec2) (int, int) {
	lo := g.Min()
	x := int(math.Floor((p.X - lo.X) / g.cellSize))
	y := int(math.Floor((p.Y - lo.Y) / g.cellSize))
	return x, y
}

// IsValid reports whether (x, y) is inside the grid.
func (g *Grid) IsValid(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

// Get returns the handle stored at (x, y). The cell must be valid.
func (g *Grid) Get(x, y int) (ecs.EntityID, bool) {
	id := g.cells[g.index(x, y)]
	return id, id != ecs.NilEntity
}

// Set stores a handle at (x, y). The cell must be valid.
func (g *Grid) Set(x, y int, id ecs.EntityID) {
	g.cells[g.index(x, y)] = id
}

// Clear empties (x, y). The cell must be valid.
func (g *Grid) Clear(x, y int) {
	g.cells[g.index(x, y)] = ecs.NilEntity
}

// index panics on out-of-range coordinates: unchecked access is a caller bug.
func (g *Grid) index(x, y int) int {
	if !g.IsValid(x, y) {
		panic("world: grid access out of bounds")
	}
	return x*g.height + y
}

// Each visits every cell in increasing (x, y) order, x outermost.
// Empty cells are visited with ecs.NilEntity.
func (g *Grid) Each(fn func(x, y int, id ecs.EntityID)) {
	for x := 0; x < g.width; x++ {
		for y := 0; y < g.height; y++ {
			fn(x, y, g.cells[x*g.height+y])
		}
	}
}

// Occupied returns the number of non-empty cells.
func (g *Grid) Occupied() int {
	n := 0
	for _, id := range g.cells {
		if id != ecs.NilEntity {
			n++
		}
	}
	return n
}

// EmptyCells lists empty cells in Each order.
func (g *Grid) EmptyCells() []Cell {
	out := make([]Cell, 0, len(g.cells))
	g.Each(func(x, y int, id ecs.EntityID) {
		if id == ecs.NilEntity {
			out = append(out, Cell{x, y})
		}
	})
	return out
}
