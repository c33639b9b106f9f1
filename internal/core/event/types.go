package event

import (
	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/data"
	"github.com/mergeplay/mergeplay/internal/world"
)

// Presentation events. The core emits them after committing state; nothing
// in the core depends on a handler running.

type ItemSpawned struct {
	Item ecs.EntityID
	Kind data.KindID
	Cell world.Cell
}

type ItemLifted struct {
	Item ecs.EntityID
	Cell world.Cell
}

type ItemPlaced struct {
	Item ecs.EntityID
	From world.Cell
	To   world.Cell
}

type ItemReverted struct {
	Item ecs.EntityID
	Cell world.Cell
}

type ItemMerged struct {
	Result   ecs.EntityID
	Consumed [2]ecs.EntityID
	Kind     data.KindID // kind of the result
	Cell     world.Cell
}

// ItemConsumed is emitted for every item an order removes from the grid.
type ItemConsumed struct {
	Item ecs.EntityID
	Kind data.KindID
	Cell world.Cell
	Slot int
}

type CellHighlighted struct {
	Cell  world.Cell
	Valid bool
}

type HighlightCleared struct{}

type OrderStateChanged struct {
	Slot        int
	Order       *data.Order // nil when the slot was emptied
	Fulfillable bool
}

type OrderFulfilled struct {
	Slot   int
	Order  *data.Order
	Reward int
	Source world.Vec2
}

type CoinsChanged struct {
	Total int
	Delta int
}
