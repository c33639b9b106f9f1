package system

import (
	"testing"
	"time"

	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/core/event"
	"github.com/mergeplay/mergeplay/internal/data"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// recordingSink counts reward callbacks.
type recordingSink struct {
	calls   int
	rewards []int
	sources []world.Vec2
}

func (s *recordingSink) OnOrderFulfilled(reward int, source world.Vec2) {
	s.calls++
	s.rewards = append(s.rewards, reward)
	s.sources = append(s.sources, source)
}

type fixture struct {
	t       *testing.T
	log     *zap.Logger
	bus     *event.Bus
	state   *world.State
	tweens  *TweenSystem
	sink    *recordingSink
	orders  *OrderBook
	merger  *MergeResolver
	drag    *DragController
	cleanup *CleanupSystem
}

func testKinds(t *testing.T) *data.KindTable {
	t.Helper()
	k, err := data.NewKindTable([]data.Kind{
		{ID: "gem1", Tag: "gem", Tier: 1, MergeTarget: "gem2"},
		{ID: "gem2", Tag: "gem", Tier: 2, MergeTarget: "gem3"},
		{ID: "gem3", Tag: "gem", Tier: 3},
		{ID: "wood1", Tag: "wood", Tier: 1, MergeTarget: "wood2"},
		{ID: "wood2", Tag: "wood", Tier: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	return k
}

// newFixture builds a 3x3 board centred on the world origin with one order
// slot above it.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{t: t, log: zaptest.NewLogger(t), bus: event.NewBus(), sink: &recordingSink{}}
	f.state = world.NewState(world.NewGrid(3, 3, 1, world.Vec2{}), testKinds(t))
	f.tweens = NewTweenSystem(f.state.ECS())
	f.orders = NewOrderBook(f.state, f.bus, []world.Vec2{{X: 0, Y: 3}}, f.sink, f.log)
	f.merger = NewMergeResolver(f.state, f.bus, f.tweens, f.log)
	f.drag = NewDragController(f.state, f.merger, f.orders, f.tweens, f.bus, 200*time.Millisecond, f.log)
	f.cleanup = NewCleanupSystem(f.state.ECS())
	return f
}

func (f *fixture) spawn(kind data.KindID, x, y int) ecs.EntityID {
	f.t.Helper()
	id, ok := f.state.Spawn(f.state.Kinds.Get(kind), x, y)
	if !ok {
		f.t.Fatalf("spawn %s at (%d,%d) failed", kind, x, y)
	}
	return id
}

func (f *fixture) kindAt(x, y int) data.KindID {
	_, it, ok := f.state.ItemAt(x, y)
	if !ok {
		return ""
	}
	return it.Kind.ID
}

func (f *fixture) centre(x, y int) world.Vec2 {
	return f.state.Grid.ToWorld(x, y)
}

func (f *fixture) checkBoard() {
	f.t.Helper()
	if err := f.state.CheckConsistency(); err != nil {
		f.t.Fatalf("board inconsistent: %v", err)
	}
}

// tick advances tweens and flushes destruction like the tail of a frame.
func (f *fixture) tick(dt time.Duration) {
	f.tweens.Update(dt)
	f.cleanup.Update(dt)
}

func gemOrder(qty, reward int) *data.Order {
	return &data.Order{ID: "o-gem2", RequiredKind: "gem2", Quantity: qty, Reward: reward}
}
