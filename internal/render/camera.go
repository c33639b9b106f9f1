package render

import (
	"math"

	"github.com/mergeplay/mergeplay/internal/world"
)

// Camera translates between world coordinates (Y up, one unit per grid cell
// at cell size 1) and terminal cells (Y down). One world unit spans
// UnitCols columns and UnitRows rows.
type Camera struct {
	Centre     world.Vec2
	UnitCols   float64
	UnitRows   float64
	ViewWidth  int // in terminal columns
	ViewHeight int // in terminal rows
}

// NewCamera creates a camera looking at centre.
func NewCamera(centre world.Vec2, unitCols, unitRows float64, viewW, viewH int) *Camera {
	return &Camera{Centre: centre, UnitCols: unitCols, UnitRows: unitRows, ViewWidth: viewW, ViewHeight: viewH}
}

// Resize updates the viewport after a terminal resize.
func (c *Camera) Resize(viewW, viewH int) {
	c.ViewWidth, c.ViewHeight = viewW, viewH
}

// WorldToScreen converts p to the terminal cell containing it.
// visible is false when the result falls outside the viewport.
func (c *Camera) WorldToScreen(p world.Vec2) (sx, sy int, visible bool) {
	fx := (p.X-c.Centre.X)*c.UnitCols + float64(c.ViewWidth)/2
	fy := -(p.Y-c.Centre.Y)*c.UnitRows + float64(c.ViewHeight)/2
	sx, sy = int(math.Floor(fx)), int(math.Floor(fy))
	visible = sx >= 0 && sx < c.ViewWidth && sy >= 0 && sy < c.ViewHeight
	return
}

// ScreenToWorld returns the world position at the centre of terminal cell
// (sx, sy).
func (c *Camera) ScreenToWorld(sx, sy int) world.Vec2 {
	return world.Vec2{
		X: (float64(sx)+0.5-float64(c.ViewWidth)/2)/c.UnitCols + c.Centre.X,
		Y: -(float64(sy)+0.5-float64(c.ViewHeight)/2)/c.UnitRows + c.Centre.Y,
	}
}
