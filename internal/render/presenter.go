package render

import (
	"context"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	coresys "github.com/mergeplay/mergeplay/internal/core/system"
	"github.com/mergeplay/mergeplay/internal/system"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

// InputSink accepts commands for the game loop. *system.InputSystem
// satisfies it.
type InputSink interface {
	Push(ev system.InputEvent) bool
}

// Presenter turns terminal events into game commands. It runs on its own
// goroutine and only talks to the game loop through the input queue, so it
// keeps a private copy of the camera.
type Presenter struct {
	screen  tcell.Screen
	camera  Camera
	sink    InputSink
	anchors []world.Vec2
	half    world.Vec2 // half extent of an order slot's click box
	pressed bool
	log     *zap.Logger
}

// NewPresenter creates a presenter. anchors are the order slot positions;
// a click within half a cell of one fulfills that slot.
func NewPresenter(screen tcell.Screen, camera Camera, sink InputSink, anchors []world.Vec2, cellSize float64, log *zap.Logger) *Presenter {
	return &Presenter{
		screen:  screen,
		camera:  camera,
		sink:    sink,
		anchors: anchors,
		half:    world.Vec2{X: cellSize / 2, Y: cellSize / 2},
		log:     log,
	}
}

// Run polls the screen until the player quits or ctx is cancelled. Returns
// when the event stream ends.
func (p *Presenter) Run(ctx context.Context, quit func()) {
	for {
		ev := p.screen.PollEvent()
		if ev == nil {
			return
		}
		if !p.HandleEvent(ev) {
			p.log.Info("quit requested")
			quit()
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// HandleEvent applies one terminal event. Returns false when the player
// asked to quit.
func (p *Presenter) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := p.screen.Size()
		p.camera.Resize(w, h-hudRows)
		p.screen.Sync()
	case *tcell.EventMouse:
		p.handleMouse(ev)
	case *tcell.EventKey:
		return p.handleKey(ev)
	}
	return true
}

func (p *Presenter) handleMouse(ev *tcell.EventMouse) {
	sx, sy := ev.Position()
	pos := p.camera.ScreenToWorld(sx, sy)
	down := ev.Buttons()&tcell.Button1 != 0
	switch {
	case down && !p.pressed:
		p.pressed = true
		if slot, ok := p.slotAt(pos); ok {
			p.sink.Push(system.InputEvent{Kind: system.InputOrderClick, Index: slot})
			return
		}
		p.sink.Push(system.InputEvent{Kind: system.InputPointerDown, Pos: pos})
	case down && p.pressed:
		p.sink.Push(system.InputEvent{Kind: system.InputPointerMove, Pos: pos})
	case !down && p.pressed:
		p.pressed = false
		p.sink.Push(system.InputEvent{Kind: system.InputPointerUp, Pos: pos})
	}
}

func (p *Presenter) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return false
	case tcell.KeyEscape:
		p.sink.Push(system.InputEvent{Kind: system.InputCancel})
		return true
	case tcell.KeyRune:
	default:
		return true
	}
	switch r := ev.Rune(); {
	case r == 'q' || r == 'Q':
		return false
	case r == ' ':
		p.sink.Push(system.InputEvent{Kind: system.InputSpawnRandom})
	case r >= '1' && r <= '9':
		p.sink.Push(system.InputEvent{Kind: system.InputSpawnIndex, Index: int(r - '1')})
	}
	return true
}

func (p *Presenter) slotAt(pos world.Vec2) (int, bool) {
	for i, a := range p.anchors {
		if math.Abs(pos.X-a.X) <= p.half.X && math.Abs(pos.Y-a.Y) <= p.half.Y {
			return i, true
		}
	}
	return 0, false
}

// System redraws the screen once per tick. Phase 4 (Output).
type System struct {
	renderer *Renderer
}

func NewSystem(r *Renderer) *System { return &System{renderer: r} }

func (s *System) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *System) Update(_ time.Duration) {
	s.renderer.Resize()
	s.renderer.DrawFrame()
}
