package system

import (
	"math"
	"testing"
	"time"

	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/world"
)

func TestCurveEndpoints(t *testing.T) {
	for _, c := range []Curve{CurveLinear, CurveEaseOutQuad, CurveEaseInOut, CurveEaseOutSine} {
		if got := c.Eval(0); got != 0 {
			t.Errorf("curve %d: Eval(0)=%v", c, got)
		}
		if got := c.Eval(1); got != 1 {
			t.Errorf("curve %d: Eval(1)=%v", c, got)
		}
		if got := c.Eval(-1); got != 0 {
			t.Errorf("curve %d: Eval(-1)=%v", c, got)
		}
		if got := c.Eval(2); got != 1 {
			t.Errorf("curve %d: Eval(2)=%v", c, got)
		}
	}
}

func TestCurveShapes(t *testing.T) {
	tests := []struct {
		c    Curve
		want float64
	}{
		{CurveLinear, 0.5},
		{CurveEaseOutQuad, 0.75},
		{CurveEaseInOut, 0.5},
		{CurveEaseOutSine, math.Sqrt2 / 2},
	}
	for _, tt := range tests {
		if got := tt.c.Eval(0.5); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("curve %d: Eval(0.5)=%v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestTweenRunsToCompletion(t *testing.T) {
	w := ecs.NewWorld()
	s := NewTweenSystem(w)
	id := w.CreateEntity()

	s.Start(id, ChannelPosition, world.Vec2{}, world.Vec2{X: 10}, 100*time.Millisecond, CurveLinear)
	if !s.Active(id, ChannelPosition) {
		t.Fatal("tween not active after Start")
	}

	s.Update(50 * time.Millisecond)
	if v, _ := s.Value(id, ChannelPosition); math.Abs(v.X-5) > 1e-9 {
		t.Errorf("midpoint X=%v, want 5", v.X)
	}

	s.Update(60 * time.Millisecond)
	v, ok := s.Value(id, ChannelPosition)
	if !ok || v.X != 10 {
		t.Errorf("end value = %v (%v), want X=10", v, ok)
	}
	if s.Active(id, ChannelPosition) {
		t.Error("finished tween still active")
	}

	s.Update(time.Millisecond)
	if _, ok := s.Value(id, ChannelPosition); ok {
		t.Error("finished tween not dropped on the following tick")
	}
}

func TestTweenZeroDurationSnaps(t *testing.T) {
	w := ecs.NewWorld()
	s := NewTweenSystem(w)
	id := w.CreateEntity()

	s.Start(id, ChannelScale, world.Vec2{}, world.Vec2{X: 1, Y: 1}, 0, CurveEaseOutSine)
	if v, _ := s.Value(id, ChannelScale); v != (world.Vec2{X: 1, Y: 1}) {
		t.Errorf("zero-duration tween value=%v", v)
	}
}

func TestTweenRestartSupersedes(t *testing.T) {
	w := ecs.NewWorld()
	s := NewTweenSystem(w)
	id := w.CreateEntity()

	s.Start(id, ChannelPosition, world.Vec2{}, world.Vec2{X: 10}, time.Second, CurveLinear)
	s.Update(500 * time.Millisecond)
	s.Start(id, ChannelPosition, world.Vec2{X: 100}, world.Vec2{X: 200}, time.Second, CurveLinear)
	if v, _ := s.Value(id, ChannelPosition); v.X != 100 {
		t.Errorf("restarted tween starts at %v, want 100", v.X)
	}
	s.Stop(id, ChannelPosition)
	if _, ok := s.Value(id, ChannelPosition); ok {
		t.Error("Stop left the tween in place")
	}
}

func TestFlightDestroyedWhenDone(t *testing.T) {
	w := ecs.NewWorld()
	s := NewTweenSystem(w)
	cleanup := NewCleanupSystem(w)

	id := s.StartFlight("coin", world.Vec2{}, world.Vec2{X: 1, Y: 1}, 100*time.Millisecond, CurveEaseInOut)
	seen := 0
	s.EachFlight(func(fid ecs.EntityID, f *Flight, _ world.Vec2) {
		if fid == id && f.Label == "coin" {
			seen++
		}
	})
	if seen != 1 {
		t.Fatalf("EachFlight saw the flight %d times", seen)
	}

	s.Update(100 * time.Millisecond) // reaches the end
	cleanup.Update(0)
	if !w.Alive(id) {
		t.Fatal("flight destroyed before its last frame was shown")
	}
	s.Update(time.Millisecond) // dropped, entity queued
	cleanup.Update(0)
	if w.Alive(id) {
		t.Error("finished flight entity still alive")
	}
	if s.Flights() != 0 {
		t.Errorf("Flights()=%d, want 0", s.Flights())
	}
}
