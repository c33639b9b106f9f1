package render

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/mergeplay/mergeplay/internal/system"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

type recordingSink struct {
	events []system.InputEvent
}

func (s *recordingSink) Push(ev system.InputEvent) bool {
	s.events = append(s.events, ev)
	return true
}

func (s *recordingSink) kinds() []system.InputKind {
	out := make([]system.InputKind, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Kind
	}
	return out
}

func newTestPresenter(t *testing.T) (*Presenter, *recordingSink, Camera) {
	t.Helper()
	ss := newTestScreen(t)
	cam := NewCamera(world.Vec2{}, 10, 4, 80, 22)
	sink := &recordingSink{}
	anchors := []world.Vec2{{X: 0, Y: -2.5}}
	return NewPresenter(ss, *cam, sink, anchors, 1, zap.NewNop()), sink, *cam
}

func TestPresenterDragSequence(t *testing.T) {
	p, sink, cam := newTestPresenter(t)
	x0, y0, _ := cam.WorldToScreen(world.Vec2{X: -1, Y: -1})
	x1, y1, _ := cam.WorldToScreen(world.Vec2{X: 1, Y: 0})

	p.HandleEvent(tcell.NewEventMouse(x0, y0, tcell.Button1, tcell.ModNone))
	p.HandleEvent(tcell.NewEventMouse(x1, y1, tcell.Button1, tcell.ModNone))
	p.HandleEvent(tcell.NewEventMouse(x1, y1, tcell.ButtonNone, tcell.ModNone))
	p.HandleEvent(tcell.NewEventMouse(x1, y1, tcell.ButtonNone, tcell.ModNone)) // hover, ignored

	want := []system.InputKind{system.InputPointerDown, system.InputPointerMove, system.InputPointerUp}
	got := sink.kinds()
	if len(got) != len(want) {
		t.Fatalf("events=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, got[i], want[i])
		}
	}
	if gx, gy := sink.events[0].Pos, (world.Vec2{X: -1, Y: -1}); absDiff(gx, gy) > 0.15 {
		t.Errorf("pointer down at %v, want near %v", gx, gy)
	}
}

func TestPresenterOrderClick(t *testing.T) {
	p, sink, cam := newTestPresenter(t)
	x, y, _ := cam.WorldToScreen(world.Vec2{X: 0, Y: -2.5})
	p.HandleEvent(tcell.NewEventMouse(x, y, tcell.Button1, tcell.ModNone))
	p.HandleEvent(tcell.NewEventMouse(x, y, tcell.ButtonNone, tcell.ModNone))
	if len(sink.events) == 0 || sink.events[0].Kind != system.InputOrderClick || sink.events[0].Index != 0 {
		t.Errorf("events=%+v, want an order click on slot 0", sink.events)
	}
}

func TestPresenterKeys(t *testing.T) {
	tests := []struct {
		ev       *tcell.EventKey
		cont     bool
		wantKind system.InputKind
		wantIdx  int
		emits    bool
	}{
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), true, system.InputSpawnRandom, 0, true},
		{tcell.NewEventKey(tcell.KeyRune, '3', tcell.ModNone), true, system.InputSpawnIndex, 2, true},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), true, system.InputCancel, 0, true},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), true, 0, 0, false},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), false, 0, 0, false},
	}
	for i, tt := range tests {
		p, sink, _ := newTestPresenter(t)
		if got := p.HandleEvent(tt.ev); got != tt.cont {
			t.Errorf("case %d: HandleEvent=%v, want %v", i, got, tt.cont)
		}
		if !tt.emits {
			if len(sink.events) != 0 {
				t.Errorf("case %d: unexpected events %+v", i, sink.events)
			}
			continue
		}
		if len(sink.events) != 1 || sink.events[0].Kind != tt.wantKind || sink.events[0].Index != tt.wantIdx {
			t.Errorf("case %d: events=%+v", i, sink.events)
		}
	}
}

func absDiff(a, b world.Vec2) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return max(dx, dy)
}
