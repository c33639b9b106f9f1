package system

import (
	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/core/event"
	"github.com/mergeplay/mergeplay/internal/data"
	"github.com/mergeplay/mergeplay/internal/scripting"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

// RewardPolicy can adjust the coin reward of an order at fulfillment time.
// *scripting.Engine satisfies it.
type RewardPolicy interface {
	CalcOrderReward(ctx scripting.OrderRewardContext) int
}

// coinCounter is implemented by sinks that can report the current balance.
type coinCounter interface {
	Coins() int
}

// OrderSlot is one visible order position.
type OrderSlot struct {
	Order       *data.Order // nil when empty
	Fulfillable bool
	Anchor      world.Vec2 // world position coins fly from
}

// OrderBook holds the active orders, keeps their fulfillable flag in sync
// with grid contents, and consumes items when an order is fulfilled.
type OrderBook struct {
	state     *world.State
	bus       *event.Bus
	sink      RewardSink
	policy    RewardPolicy
	slots     []OrderSlot
	queue     []*data.Order
	refill    bool
	fulfilled int
	log       *zap.Logger
}

// NewOrderBook creates one empty slot per anchor.
func NewOrderBook(state *world.State, bus *event.Bus, anchors []world.Vec2, sink RewardSink, log *zap.Logger) *OrderBook {
	slots := make([]OrderSlot, len(anchors))
	for i, a := range anchors {
		slots[i].Anchor = a
	}
	return &OrderBook{state: state, bus: bus, sink: sink, slots: slots, log: log}
}

func (b *OrderBook) SetPolicy(p RewardPolicy) { b.policy = p }

// Load fills slots from orders in sequence. With refill, orders beyond the
// slot count wait in a queue and replace fulfilled ones; otherwise they are
// dropped and fulfilled slots stay empty.
func (b *OrderBook) Load(orders []*data.Order, refill bool) {
	b.refill = refill
	b.queue = b.queue[:0]
	for i := range b.slots {
		var o *data.Order
		if i < len(orders) {
			o = orders[i]
		}
		b.SetOrder(i, o)
	}
	if refill && len(orders) > len(b.slots) {
		b.queue = append(b.queue, orders[len(b.slots):]...)
	}
	b.log.Info("orders loaded",
		zap.Int("slots", len(b.slots)),
		zap.Int("queued", len(b.queue)))
}

// SetOrder replaces the order in slot i (nil empties it) and re-evaluates it.
func (b *OrderBook) SetOrder(i int, o *data.Order) {
	if i < 0 || i >= len(b.slots) {
		b.log.Warn("order slot out of range", zap.Int("slot", i))
		return
	}
	s := &b.slots[i]
	s.Order = o
	s.Fulfillable = o != nil && b.state.CountKind(o.RequiredKind) >= o.Quantity
	event.Emit(b.bus, event.OrderStateChanged{Slot: i, Order: o, Fulfillable: s.Fulfillable})
}

func (b *OrderBook) Len() int       { return len(b.slots) }
func (b *OrderBook) Queued() int    { return len(b.queue) }
func (b *OrderBook) Fulfilled() int { return b.fulfilled }

// Slot returns a copy of slot i.
func (b *OrderBook) Slot(i int) OrderSlot {
	if i < 0 || i >= len(b.slots) {
		return OrderSlot{}
	}
	return b.slots[i]
}

// Evaluate recomputes every slot's fulfillable flag from current grid
// contents. Only changes are announced.
func (b *OrderBook) Evaluate() {
	for i := range b.slots {
		s := &b.slots[i]
		f := false
		if s.Order != nil {
			f = b.state.CountKind(s.Order.RequiredKind) >= s.Order.Quantity
		}
		if f == s.Fulfillable {
			continue
		}
		s.Fulfillable = f
		event.Emit(b.bus, event.OrderStateChanged{Slot: i, Order: s.Order, Fulfillable: f})
	}
}

// Fulfill consumes the required items for slot i, pays the reward and
// clears the slot. A second call on the same slot is a no-op.
func (b *OrderBook) Fulfill(i int) bool {
	if i < 0 || i >= len(b.slots) {
		b.log.Warn("fulfill: slot out of range", zap.Int("slot", i))
		return false
	}
	s := &b.slots[i]
	o := s.Order
	if o == nil {
		b.log.Debug("fulfill: slot empty", zap.Int("slot", i))
		return false
	}
	if b.state.CountKind(o.RequiredKind) < o.Quantity {
		b.log.Debug("fulfill: not enough items",
			zap.Int("slot", i), zap.String("kind", string(o.RequiredKind)))
		b.Evaluate()
		return false
	}

	type consumed struct {
		id   ecs.EntityID
		cell world.Cell
	}
	picked := make([]consumed, 0, o.Quantity)
	b.state.Grid.Each(func(x, y int, id ecs.EntityID) {
		if len(picked) == o.Quantity || id == ecs.NilEntity {
			return
		}
		if it, ok := b.state.Item(id); ok && it.Kind.ID == o.RequiredKind {
			picked = append(picked, consumed{id, world.Cell{X: x, Y: y}})
		}
	})
	for _, c := range picked {
		b.state.Destroy(c.id)
		event.Emit(b.bus, event.ItemConsumed{Item: c.id, Kind: o.RequiredKind, Cell: c.cell, Slot: i})
	}

	reward := o.Reward
	if b.policy != nil {
		ctx := scripting.OrderRewardContext{
			OrderID:    o.ID,
			Kind:       string(o.RequiredKind),
			Quantity:   o.Quantity,
			BaseReward: o.Reward,
			Fulfilled:  b.fulfilled,
		}
		if k := b.state.Kinds.Get(o.RequiredKind); k != nil {
			ctx.Tier = k.Tier
		}
		if cc, ok := b.sink.(coinCounter); ok {
			ctx.Coins = cc.Coins()
		}
		reward = b.policy.CalcOrderReward(ctx)
	}
	if b.sink != nil {
		b.sink.OnOrderFulfilled(reward, s.Anchor)
	}
	b.fulfilled++
	event.Emit(b.bus, event.OrderFulfilled{Slot: i, Order: o, Reward: reward, Source: s.Anchor})
	b.log.Info("order fulfilled",
		zap.Int("slot", i),
		zap.String("order", o.ID),
		zap.Int("reward", reward))

	var next *data.Order
	if b.refill && len(b.queue) > 0 {
		next = b.queue[0]
		b.queue = b.queue[1:]
	}
	b.SetOrder(i, next)
	b.Evaluate()
	return true
}
