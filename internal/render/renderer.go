package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/data"
	"github.com/mergeplay/mergeplay/internal/system"
	"github.com/mergeplay/mergeplay/internal/world"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Scene bundles the read-only views the renderer draws from.
type Scene struct {
	State     *world.State
	Drag      *system.DragController
	Orders    *system.OrderBook
	Tweens    *system.TweenSystem
	Wallet    *system.Wallet
	Equipment *system.Equipment
}

var (
	styleBoardA   = tcell.StyleDefault.Background(tcell.ColorDarkSlateGray)
	styleBoardB   = tcell.StyleDefault.Background(tcell.ColorDarkOliveGreen)
	styleValid    = tcell.StyleDefault.Background(tcell.ColorSeaGreen)
	styleInvalid  = tcell.StyleDefault.Background(tcell.ColorDarkRed)
	styleOrder    = tcell.StyleDefault.Background(tcell.ColorNavy).Foreground(tcell.ColorWhite)
	styleOrderOK  = tcell.StyleDefault.Background(tcell.ColorGreen).Foreground(tcell.ColorBlack)
	styleCoin     = tcell.StyleDefault.Foreground(tcell.ColorGold)
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleHUDMuted = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// Renderer draws the board, orders, wallet and HUD onto a tcell screen.
type Renderer struct {
	screen tcell.Screen
	camera *Camera
	scene  Scene
	title  cases.Caser
}

// hudRows is reserved at the bottom of the screen.
const hudRows = 2

// NewRenderer creates a Renderer for the given screen. The camera is centred
// on the box spanning the board, the order row and the wallet.
func NewRenderer(screen tcell.Screen, scene Scene, unitCols, unitRows float64) *Renderer {
	w, h := screen.Size()
	return &Renderer{
		screen: screen,
		camera: NewCamera(sceneCentre(scene), unitCols, unitRows, w, h-hudRows),
		scene:  scene,
		title:  cases.Title(language.English),
	}
}

func (r *Renderer) Camera() *Camera { return r.camera }

func sceneCentre(scene Scene) world.Vec2 {
	g := scene.State.Grid
	lo := g.Min()
	hi := world.Vec2{X: lo.X + float64(g.Width())*g.CellSize(), Y: lo.Y + float64(g.Height())*g.CellSize()}
	grow := func(p world.Vec2) {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	if scene.Orders != nil {
		for i := 0; i < scene.Orders.Len(); i++ {
			grow(scene.Orders.Slot(i).Anchor)
		}
	}
	if scene.Wallet != nil {
		grow(scene.Wallet.Anchor())
	}
	return lo.Lerp(hi, 0.5)
}

// Resize adapts the viewport to the current screen size.
func (r *Renderer) Resize() {
	w, h := r.screen.Size()
	r.camera.Resize(w, h-hudRows)
}

// DrawFrame renders one full frame and shows it.
func (r *Renderer) DrawFrame() {
	r.screen.Clear()
	r.drawBoard()
	r.drawItems()
	r.drawOrders()
	r.drawWallet()
	r.drawHUD()
	r.screen.Show()
}

func (r *Renderer) drawBoard() {
	g := r.scene.State.Grid
	hl, valid, hasHL := world.Cell{}, false, false
	if r.scene.Drag != nil {
		hl, valid, hasHL = r.scene.Drag.Highlight()
	}
	for x := 0; x < g.Width(); x++ {
		for y := 0; y < g.Height(); y++ {
			style := styleBoardA
			if (x+y)%2 == 1 {
				style = styleBoardB
			}
			if hasHL && hl == (world.Cell{X: x, Y: y}) {
				style = styleInvalid
				if valid {
					style = styleValid
				}
			}
			r.fillCell(x, y, style)
		}
	}
}

// fillCell paints the terminal rectangle covered by grid cell (x, y).
func (r *Renderer) fillCell(x, y int, style tcell.Style) {
	g := r.scene.State.Grid
	lo := g.Min()
	cs := g.CellSize()
	topLeft := world.Vec2{X: lo.X + float64(x)*cs, Y: lo.Y + float64(y+1)*cs}
	bottomRight := world.Vec2{X: lo.X + float64(x+1)*cs, Y: lo.Y + float64(y)*cs}
	x0, y0, _ := r.camera.WorldToScreen(topLeft)
	x1, y1, _ := r.camera.WorldToScreen(bottomRight)
	for sy := y0; sy < y1; sy++ {
		for sx := x0; sx < x1; sx++ {
			r.screen.SetContent(sx, sy, ' ', nil, style)
		}
	}
}

func (r *Renderer) drawItems() {
	st := r.scene.State
	held := ecs.NilEntity
	if r.scene.Drag != nil {
		held = r.scene.Drag.Held()
	}
	st.Grid.Each(func(x, y int, id ecs.EntityID) {
		if id == ecs.NilEntity {
			return
		}
		it, ok := st.Item(id)
		if !ok {
			return
		}
		pos := st.Grid.ToWorld(x, y)
		if r.scene.Tweens != nil {
			if v, ok := r.scene.Tweens.Value(id, system.ChannelPosition); ok {
				pos = v
			}
		}
		r.drawItem(id, it.Kind, pos)
	})
	if held != ecs.NilEntity {
		if it, ok := st.Item(held); ok {
			r.drawItem(held, it.Kind, r.scene.Drag.Position())
		}
	}
}

func (r *Renderer) drawItem(id ecs.EntityID, k *data.Kind, pos world.Vec2) {
	sx, sy, ok := r.camera.WorldToScreen(pos)
	if !ok {
		return
	}
	style := tcell.StyleDefault.Foreground(kindColor(k))
	if r.scene.Tweens != nil {
		if v, ok := r.scene.Tweens.Value(id, system.ChannelScale); ok && v.X < 0.5 {
			r.putGlyph(sx, sy, "·", style)
			return
		}
	}
	label := fmt.Sprintf("%s%d", k.Glyph, k.Tier)
	r.putText(sx-runewidth.StringWidth(label)/2, sy, label, style)
}

func (r *Renderer) drawOrders() {
	o := r.scene.Orders
	if o == nil {
		return
	}
	kinds := r.scene.State.Kinds
	for i := 0; i < o.Len(); i++ {
		slot := o.Slot(i)
		sx, sy, ok := r.camera.WorldToScreen(slot.Anchor)
		if !ok {
			continue
		}
		if slot.Order == nil {
			r.putCentred(sx, sy, "[ empty ]", styleHUDMuted)
			continue
		}
		style := styleOrder
		if slot.Fulfillable {
			style = styleOrderOK
		}
		name := string(slot.Order.RequiredKind)
		if k := kinds.Get(slot.Order.RequiredKind); k != nil {
			name = k.Name
		}
		r.putCentred(sx, sy-1, fmt.Sprintf(" %d. %s ", i+1, r.title.String(slot.Order.ID)), style)
		r.putCentred(sx, sy, fmt.Sprintf(" %dx %s ", slot.Order.Quantity, name), style)
		r.putCentred(sx, sy+1, fmt.Sprintf(" $%d ", slot.Order.Reward), style)
	}
}

func (r *Renderer) drawWallet() {
	w := r.scene.Wallet
	if w == nil {
		return
	}
	if sx, sy, ok := r.camera.WorldToScreen(w.Anchor()); ok {
		r.putCentred(sx, sy, fmt.Sprintf("$ %d", w.Coins()), styleCoin)
	}
	if r.scene.Tweens == nil {
		return
	}
	r.scene.Tweens.EachFlight(func(_ ecs.EntityID, _ *system.Flight, pos world.Vec2) {
		if sx, sy, ok := r.camera.WorldToScreen(pos); ok {
			r.putGlyph(sx, sy, "●", styleCoin)
		}
	})
}

func (r *Renderer) drawHUD() {
	_, h := r.screen.Size()
	var parts []string
	if r.scene.Wallet != nil {
		parts = append(parts, fmt.Sprintf("coins %d", r.scene.Wallet.Coins()))
	}
	if eq := r.scene.Equipment; eq != nil {
		for _, slot := range data.EquipSlots {
			if it, ok := eq.Equipped(slot); ok {
				parts = append(parts, fmt.Sprintf("%s: %s", r.slotName(slot), r.title.String(it)))
			}
		}
	}
	r.putText(0, h-2, strings.Join(parts, " | "), styleHUD)
	r.putText(0, h-1, "[drag] move/merge  [click order] fulfill  [space] spawn  [1-9] spawn kind  [esc] cancel  [q] quit", styleHUDMuted)
}

func (r *Renderer) slotName(s data.EquipSlot) string {
	return r.title.String(strings.ReplaceAll(string(s), "_", " "))
}

func (r *Renderer) putCentred(cx, y int, text string, style tcell.Style) {
	r.putText(cx-runewidth.StringWidth(text)/2, y, text, style)
}

// putText writes text starting at column x, advancing by each rune's
// display width.
func (r *Renderer) putText(x, y int, text string, style tcell.Style) {
	col := x
	for _, ch := range text {
		r.screen.SetContent(col, y, ch, nil, style)
		col += runewidth.RuneWidth(ch)
	}
}

// putGlyph draws a single glyph (ASCII or multi-rune emoji) at (x, y).
func (r *Renderer) putGlyph(x, y int, glyph string, style tcell.Style) {
	runes := []rune(glyph)
	if len(runes) == 0 {
		return
	}
	var combc []rune
	if len(runes) > 1 {
		combc = runes[1:]
	}
	r.screen.SetContent(x, y, runes[0], combc, style)
	if runewidth.StringWidth(glyph) == 2 {
		r.screen.SetContent(x+1, y, ' ', nil, style)
	}
}

func kindColor(k *data.Kind) tcell.Color {
	if k.Color == "" {
		return tcell.ColorWhite
	}
	return tcell.GetColor(k.Color)
}
