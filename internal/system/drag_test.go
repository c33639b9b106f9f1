package system

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/mergeplay/mergeplay/internal/core/event"
	"github.com/mergeplay/mergeplay/internal/data"
	"github.com/mergeplay/mergeplay/internal/world"
)

func TestDragMergeFulfillsOrder(t *testing.T) {
	f := newFixture(t)
	f.orders.Load([]*data.Order{gemOrder(1, 25)}, false)
	f.spawn("gem1", 0, 0)
	f.spawn("gem1", 1, 0)
	f.orders.Evaluate()
	if f.orders.Slot(0).Fulfillable {
		t.Fatal("order fulfillable before merge")
	}

	if !f.drag.PointerDown(f.centre(0, 0)) {
		t.Fatal("PointerDown on an item did not lift it")
	}
	f.drag.PointerMove(f.centre(1, 0))
	if got := f.drag.PointerUp(f.centre(1, 0)); got != DropMerged {
		t.Fatalf("PointerUp = %v, want merged", got)
	}

	if f.kindAt(1, 0) != "gem2" || f.kindAt(0, 0) != "" {
		t.Errorf("board after merge: (0,0)=%q (1,0)=%q", f.kindAt(0, 0), f.kindAt(1, 0))
	}
	if f.state.Count() != 1 {
		t.Errorf("Count()=%d, want 1", f.state.Count())
	}
	if !f.orders.Slot(0).Fulfillable {
		t.Fatal("order not fulfillable after merge")
	}
	if f.drag.Mode() != DragIdle {
		t.Errorf("Mode()=%v after drop", f.drag.Mode())
	}
	f.checkBoard()

	if !f.orders.Fulfill(0) {
		t.Fatal("Fulfill failed")
	}
	if f.sink.calls != 1 || f.sink.rewards[0] != 25 {
		t.Errorf("sink calls=%d rewards=%v", f.sink.calls, f.sink.rewards)
	}
	if f.state.Count() != 0 {
		t.Errorf("Count()=%d after fulfill, want 0", f.state.Count())
	}
}

func TestDragPlacesOnEmptyCell(t *testing.T) {
	f := newFixture(t)
	id := f.spawn("gem1", 0, 0)

	f.drag.PointerDown(f.centre(0, 0))
	if got := f.drag.PointerUp(f.centre(2, 2)); got != DropPlaced {
		t.Fatalf("PointerUp = %v, want placed", got)
	}
	if got, _, _ := f.state.ItemAt(2, 2); got != id {
		t.Error("item not at drop cell")
	}
	if f.kindAt(0, 0) != "" {
		t.Error("origin not freed")
	}
	if event.Pending[event.ItemPlaced](f.bus) != 1 {
		t.Error("ItemPlaced not emitted")
	}
	f.checkBoard()
}

func TestDragRevertCases(t *testing.T) {
	tests := []struct {
		name string
		drop func(f *fixture) world.Vec2
	}{
		{"outside the grid", func(f *fixture) world.Vec2 { return world.Vec2{X: 10, Y: -10} }},
		{"onto another kind", func(f *fixture) world.Vec2 {
			f.spawn("wood1", 1, 1)
			return f.centre(1, 1)
		}},
		{"onto a higher tier", func(f *fixture) world.Vec2 {
			f.spawn("gem2", 2, 0)
			return f.centre(2, 0)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			id := f.spawn("gem1", 0, 0)
			target := tt.drop(f)
			before := f.state.Count()

			f.drag.PointerDown(f.centre(0, 0))
			f.drag.PointerMove(target)
			if got := f.drag.PointerUp(target); got != DropReverted {
				t.Fatalf("PointerUp = %v, want reverted", got)
			}
			if got, _, _ := f.state.ItemAt(0, 0); got != id {
				t.Error("item not back at origin")
			}
			if f.state.Count() != before {
				t.Errorf("Count changed %d -> %d", before, f.state.Count())
			}
			f.checkBoard()
		})
	}
}

func TestDropOnOwnCellPlaces(t *testing.T) {
	f := newFixture(t)
	f.spawn("gem1", 1, 1)
	f.drag.PointerDown(f.centre(1, 1))
	if got := f.drag.PointerUp(f.centre(1, 1)); got != DropPlaced {
		t.Errorf("PointerUp = %v, want placed", got)
	}
	if f.kindAt(1, 1) != "gem1" {
		t.Error("item lost")
	}
}

func TestPointerDownIgnoredCases(t *testing.T) {
	f := newFixture(t)
	if f.drag.PointerDown(f.centre(1, 1)) {
		t.Error("lifted from an empty cell")
	}
	if f.drag.PointerDown(world.Vec2{X: 9, Y: 9}) {
		t.Error("lifted from outside the grid")
	}
	if got := f.drag.PointerUp(f.centre(1, 1)); got != DropNone {
		t.Errorf("PointerUp without drag = %v", got)
	}

	a := f.spawn("gem1", 0, 0)
	f.spawn("gem1", 2, 2)
	f.drag.PointerDown(f.centre(0, 0))
	if f.drag.PointerDown(f.centre(2, 2)) {
		t.Error("second PointerDown lifted another item")
	}
	if f.drag.Held() != a {
		t.Error("held item changed")
	}
	f.checkBoard()
}

func TestHighlightOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	f.spawn("gem1", 0, 0)
	f.spawn("wood1", 2, 0)
	f.drag.PointerDown(f.centre(0, 0))
	f.bus.SwapBuffers()

	f.drag.PointerMove(f.centre(1, 0))
	f.drag.PointerMove(f.centre(1, 0).Add(world.Vec2{X: 0.2}))
	if n := event.Pending[event.CellHighlighted](f.bus); n != 1 {
		t.Fatalf("CellHighlighted emitted %d times within one cell", n)
	}
	cell, valid, ok := f.drag.Highlight()
	if !ok || !valid || cell != (world.Cell{X: 1, Y: 0}) {
		t.Errorf("Highlight() = %v %v %v", cell, valid, ok)
	}

	f.drag.PointerMove(f.centre(2, 0))
	if _, valid, _ := f.drag.Highlight(); valid {
		t.Error("incompatible occupant highlighted as valid")
	}

	f.drag.PointerMove(world.Vec2{X: -5})
	if _, _, ok := f.drag.Highlight(); ok {
		t.Error("highlight kept outside the grid")
	}
	if event.Pending[event.HighlightCleared](f.bus) != 1 {
		t.Error("HighlightCleared not emitted when leaving the grid")
	}
}

func TestSnapTweenEndsAtCell(t *testing.T) {
	f := newFixture(t)
	id := f.spawn("gem1", 0, 0)
	grab := f.centre(0, 0).Add(world.Vec2{X: 0.3, Y: -0.2})

	f.drag.PointerDown(grab)
	f.drag.PointerMove(f.centre(2, 1))
	if got, want := f.drag.Position(), f.centre(2, 1).Add(world.Vec2{X: -0.3, Y: 0.2}); !near(got, want) {
		t.Errorf("held item drawn at %v, grab offset lost", got)
	}
	f.drag.PointerUp(f.centre(2, 1))

	if !f.tweens.Active(id, ChannelPosition) {
		t.Fatal("no snap tween after drop")
	}
	f.tick(250 * time.Millisecond)
	if v, _ := f.tweens.Value(id, ChannelPosition); v != f.centre(2, 1) {
		t.Errorf("snap ended at %v, want %v", v, f.centre(2, 1))
	}
}

func TestLiftMakesOrderUnfulfillable(t *testing.T) {
	f := newFixture(t)
	f.orders.Load([]*data.Order{gemOrder(1, 10)}, false)
	f.spawn("gem2", 0, 0)
	f.orders.Evaluate()

	f.drag.PointerDown(f.centre(0, 0))
	if f.orders.Slot(0).Fulfillable {
		t.Error("held item still counted toward the order")
	}
	if f.orders.Fulfill(0) {
		t.Error("fulfilled with the only item in hand")
	}
	f.drag.Cancel()
	if !f.orders.Slot(0).Fulfillable {
		t.Error("order not fulfillable after cancel")
	}
	if f.kindAt(0, 0) != "gem2" {
		t.Error("cancel did not return the item")
	}
}

func TestCancelMatchesOffGridDrop(t *testing.T) {
	run := func(release func(f *fixture) DropOutcome) (DropOutcome, data.KindID, bool) {
		f := newFixture(t)
		f.spawn("gem1", 1, 1)
		f.drag.PointerDown(f.centre(1, 1))
		f.drag.PointerMove(f.centre(2, 2))
		out := release(f)
		return out, f.kindAt(1, 1), f.drag.Mode() == DragIdle
	}
	cancelled, cKind, cIdle := run(func(f *fixture) DropOutcome { return f.drag.Cancel() })
	dropped, dKind, dIdle := run(func(f *fixture) DropOutcome {
		return f.drag.PointerUp(world.Vec2{X: 10, Y: 10})
	})
	if cancelled != DropReverted || cancelled != dropped {
		t.Errorf("Cancel=%s, off-grid PointerUp=%s, want both %s", cancelled, dropped, DropReverted)
	}
	if cKind != "gem1" || cKind != dKind || !cIdle || !dIdle {
		t.Errorf("origin after cancel=%q idle=%v, after drop=%q idle=%v", cKind, cIdle, dKind, dIdle)
	}

	f := newFixture(t)
	if got := f.drag.Cancel(); got != DropNone {
		t.Errorf("Cancel while idle=%s, want %s", got, DropNone)
	}
}

func near(a, b world.Vec2) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestDragConservesItems(t *testing.T) {
	f := newFixture(t)
	// Pairwise unmergeable kinds, so no drop can merge.
	for i, k := range []data.KindID{"gem1", "gem2", "gem3", "wood1", "wood2"} {
		f.spawn(k, i%3, i/3)
	}
	rng := rand.New(rand.NewSource(42))
	pick := func() world.Vec2 {
		// Range reaches one cell past each edge to exercise off-grid drops.
		return world.Vec2{X: rng.Float64()*5 - 2.5, Y: rng.Float64()*5 - 2.5}
	}
	for i := 0; i < 500; i++ {
		f.drag.PointerDown(pick())
		f.drag.PointerMove(pick())
		if got := f.drag.PointerUp(pick()); got == DropMerged {
			t.Fatalf("step %d merged unmergeable items", i)
		}
		if f.state.Grid.Occupied() != 5 || f.state.Count() != 5 {
			t.Fatalf("step %d: occupied=%d count=%d, want 5", i, f.state.Grid.Occupied(), f.state.Count())
		}
		f.checkBoard()
	}
}
