package system

import (
	"time"

	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/core/event"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

// DragMode is the controller state.
type DragMode int

const (
	DragIdle DragMode = iota
	DragDragging
)

func (m DragMode) String() string {
	if m == DragDragging {
		return "dragging"
	}
	return "idle"
}

// DropOutcome reports what a pointer release did.
type DropOutcome int

const (
	DropNone DropOutcome = iota // no drag in progress
	DropMerged
	DropPlaced
	DropReverted
)

func (o DropOutcome) String() string {
	switch o {
	case DropMerged:
		return "merged"
	case DropPlaced:
		return "placed"
	case DropReverted:
		return "reverted"
	}
	return "none"
}

// DragController turns pointer input into lift, merge, place and revert.
// Pointer positions are world coordinates. At most one item is held.
type DragController struct {
	state  *world.State
	merger *MergeResolver
	orders *OrderBook
	tweens *TweenSystem
	bus    *event.Bus
	snap   time.Duration
	log    *zap.Logger

	mode    DragMode
	item    ecs.EntityID
	origin  world.Cell
	offset  world.Vec2 // item centre minus pointer at lift
	pointer world.Vec2

	target      world.Cell
	targetValid bool
	hasTarget   bool
}

func NewDragController(state *world.State, merger *MergeResolver, orders *OrderBook, tweens *TweenSystem, bus *event.Bus, snap time.Duration, log *zap.Logger) *DragController {
	return &DragController{
		state:  state,
		merger: merger,
		orders: orders,
		tweens: tweens,
		bus:    bus,
		snap:   snap,
		log:    log,
	}
}

func (d *DragController) Mode() DragMode     { return d.mode }
func (d *DragController) Held() ecs.EntityID { return d.item }

// Position returns where the held item is drawn.
func (d *DragController) Position() world.Vec2 { return d.pointer.Add(d.offset) }

// Highlight returns the hovered cell and whether dropping there is legal.
func (d *DragController) Highlight() (cell world.Cell, valid, ok bool) {
	return d.target, d.targetValid, d.hasTarget
}

// Reserved returns the cell the held item returns to on revert. Spawning
// must not fill it while a drag is active.
func (d *DragController) Reserved() (world.Cell, bool) {
	return d.origin, d.mode == DragDragging
}

// PointerDown lifts the item under p. Ignored while already dragging.
func (d *DragController) PointerDown(p world.Vec2) bool {
	if d.mode == DragDragging {
		d.log.Debug("pointer down ignored: drag in progress")
		return false
	}
	x, y := d.state.Grid.ToGrid(p)
	if !d.state.Grid.IsValid(x, y) {
		return false
	}
	id, _, ok := d.state.ItemAt(x, y)
	if !ok {
		return false
	}
	centre := d.state.Grid.ToWorld(x, y)
	if d.tweens != nil {
		if v, ok := d.tweens.Value(id, ChannelPosition); ok && d.tweens.Active(id, ChannelPosition) {
			centre = v
		}
		d.tweens.Stop(id, ChannelPosition)
	}
	if !d.state.Lift(id) {
		return false
	}

	d.mode = DragDragging
	d.item = id
	d.origin = world.Cell{X: x, Y: y}
	d.offset = centre.Sub(p)
	d.pointer = p
	d.hasTarget = false

	event.Emit(d.bus, event.ItemLifted{Item: id, Cell: d.origin})
	d.updateTarget(p)
	d.orders.Evaluate()
	return true
}

// PointerMove follows the pointer and refreshes the drop highlight.
func (d *DragController) PointerMove(p world.Vec2) {
	if d.mode != DragDragging {
		return
	}
	d.pointer = p
	d.updateTarget(p)
}

// PointerUp drops the held item at p and resolves the drop.
func (d *DragController) PointerUp(p world.Vec2) DropOutcome {
	if d.mode != DragDragging {
		return DropNone
	}
	d.pointer = p
	outcome := d.resolveDrop(p)

	if d.hasTarget {
		event.Emit(d.bus, event.HighlightCleared{})
	}
	d.mode = DragIdle
	d.item = ecs.NilEntity
	d.hasTarget = false
	d.offset = world.Vec2{}
	return outcome
}

// Cancel is shorthand for releasing the pointer off-grid: the held item
// reverts to its origin through the normal drop path.
func (d *DragController) Cancel() DropOutcome {
	if d.mode != DragDragging {
		return DropNone
	}
	off := d.state.Grid.Min().Sub(world.Vec2{X: 1, Y: 1})
	return d.PointerUp(off)
}

func (d *DragController) updateTarget(p world.Vec2) {
	x, y := d.state.Grid.ToGrid(p)
	if !d.state.Grid.IsValid(x, y) {
		if d.hasTarget {
			d.hasTarget = false
			event.Emit(d.bus, event.HighlightCleared{})
		}
		return
	}
	cell := world.Cell{X: x, Y: y}
	valid := d.canDropOn(x, y)
	if d.hasTarget && d.target == cell && d.targetValid == valid {
		return
	}
	d.target, d.targetValid, d.hasTarget = cell, valid, true
	event.Emit(d.bus, event.CellHighlighted{Cell: cell, Valid: valid})
}

func (d *DragController) canDropOn(x, y int) bool {
	_, other, ok := d.state.ItemAt(x, y)
	if !ok {
		return true
	}
	held, ok := d.state.Item(d.item)
	return ok && held.Kind.CanMergeWith(other.Kind)
}

// resolveDrop tries merge, then placement, then falls back to the origin
// cell. Exactly one snap tween is started for whichever item ends up in the
// final cell.
func (d *DragController) resolveDrop(p world.Vec2) DropOutcome {
	from := d.Position()
	held, ok := d.state.Item(d.item)
	if !ok {
		d.log.Warn("held item vanished during drag", zap.Uint64("item", uint64(d.item)))
		d.orders.Evaluate()
		return DropReverted
	}

	outcome := DropNone
	snapped := d.item
	final := d.origin

	x, y := d.state.Grid.ToGrid(p)
	if d.state.Grid.IsValid(x, y) {
		cell := world.Cell{X: x, Y: y}
		if tid, tit, occupied := d.state.ItemAt(x, y); occupied {
			if held.Kind.CanMergeWith(tit.Kind) {
				if res, ok := d.merger.Merge(d.item, tid, cell); ok {
					outcome, snapped, final = DropMerged, res, cell
				}
			}
		} else if d.state.Place(d.item, x, y) {
			outcome, final = DropPlaced, cell
			event.Emit(d.bus, event.ItemPlaced{Item: d.item, From: d.origin, To: cell})
		}
	}

	if outcome == DropNone {
		outcome = DropReverted
		final = d.revert()
		event.Emit(d.bus, event.ItemReverted{Item: d.item, Cell: final})
	}

	if d.tweens != nil && d.state.Grid.IsValid(final.X, final.Y) {
		d.tweens.Start(snapped, ChannelPosition, from, d.state.Grid.ToWorld(final.X, final.Y), d.snap, CurveEaseOutQuad)
	}
	d.orders.Evaluate()
	d.log.Debug("drop resolved",
		zap.Stringer("outcome", outcome),
		zap.Int("x", final.X), zap.Int("y", final.Y))
	return outcome
}

// revert puts the held item back at its origin. The origin is reserved for
// the duration of a drag, so the fallbacks only fire on a corrupted board.
func (d *DragController) revert() world.Cell {
	if d.state.Place(d.item, d.origin.X, d.origin.Y) {
		return d.origin
	}
	d.log.Error("origin cell taken during drag",
		zap.Int("x", d.origin.X), zap.Int("y", d.origin.Y))
	for _, c := range d.state.Grid.EmptyCells() {
		if d.state.Place(d.item, c.X, c.Y) {
			return c
		}
	}
	d.log.Error("no free cell for held item, discarding", zap.Uint64("item", uint64(d.item)))
	d.state.Destroy(d.item)
	return world.Cell{X: -1, Y: -1}
}
