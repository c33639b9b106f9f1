package system

import (
	"math"
	"time"

	"github.com/mergeplay/mergeplay/internal/core/ecs"
	coresys "github.com/mergeplay/mergeplay/internal/core/system"
	"github.com/mergeplay/mergeplay/internal/world"
)

// Curve maps normalized time [0,1] to interpolation progress.
type Curve int

const (
	CurveLinear      Curve = iota
	CurveEaseOutQuad       // drop snap: fast start, slow finish
	CurveEaseInOut         // coin flight
	CurveEaseOutSine       // spawn pop
)

func (c Curve) Eval(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	switch c {
	case CurveEaseOutQuad:
		return 1 - (1-t)*(1-t)
	case CurveEaseInOut:
		return t * t * (3 - 2*t)
	case CurveEaseOutSine:
		return math.Sin(t * math.Pi / 2)
	}
	return t
}

// Channel selects which visual property a tween drives.
type Channel int

const (
	ChannelPosition Channel = iota
	ChannelScale            // X and Y carry the same factor
	channelCount
)

// Tween is one animation record. Value is recomputed each tick; Done is set
// on the tick the end value is reached and the record is dropped next tick.
type Tween struct {
	From     world.Vec2
	To       world.Vec2
	Start    time.Duration
	Duration time.Duration
	Curve    Curve
	Value    world.Vec2
	Done     bool
}

func (tw *Tween) advance(now time.Duration) {
	if tw.Duration <= 0 {
		tw.Value, tw.Done = tw.To, true
		return
	}
	t := float64(now-tw.Start) / float64(tw.Duration)
	if t >= 1 {
		tw.Value, tw.Done = tw.To, true
		return
	}
	tw.Value = tw.From.Lerp(tw.To, tw.Curve.Eval(t))
}

type tweenSet [channelCount]*Tween

// Flight is an ephemeral visual (a coin flying to the wallet) that owns its
// own entity and is destroyed once its position tween has finished.
type Flight struct {
	Label string
}

// TweenSystem advances cosmetic interpolation once per tick. It never reads
// or writes grid state. Phase 3 (PostUpdate).
type TweenSystem struct {
	world   *ecs.World
	tweens  *ecs.PtrComponentStore[tweenSet]
	flights *ecs.PtrComponentStore[Flight]
	now     time.Duration
}

func NewTweenSystem(w *ecs.World) *TweenSystem {
	s := &TweenSystem{
		world:   w,
		tweens:  ecs.NewPtrComponentStore[tweenSet](),
		flights: ecs.NewPtrComponentStore[Flight](),
	}
	w.Registry().Register(s.tweens)
	w.Registry().Register(s.flights)
	return s
}

func (s *TweenSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

// Now returns the animation clock.
func (s *TweenSystem) Now() time.Duration { return s.now }

// Start begins a tween on (id, ch), superseding any running one.
func (s *TweenSystem) Start(id ecs.EntityID, ch Channel, from, to world.Vec2, d time.Duration, c Curve) {
	set, ok := s.tweens.Get(id)
	if !ok {
		set = &tweenSet{}
		s.tweens.Set(id, set)
	}
	tw := &Tween{From: from, To: to, Start: s.now, Duration: d, Curve: c, Value: from}
	if d <= 0 {
		tw.Value, tw.Done = to, true
	}
	set[ch] = tw
}

// Stop drops the tween on (id, ch) without snapping to its end value.
func (s *TweenSystem) Stop(id ecs.EntityID, ch Channel) {
	set, ok := s.tweens.Get(id)
	if !ok {
		return
	}
	set[ch] = nil
	if set.empty() {
		s.tweens.Remove(id)
	}
}

// Value returns the current interpolated value of (id, ch).
func (s *TweenSystem) Value(id ecs.EntityID, ch Channel) (world.Vec2, bool) {
	set, ok := s.tweens.Get(id)
	if !ok || set[ch] == nil {
		return world.Vec2{}, false
	}
	return set[ch].Value, true
}

// Active reports whether (id, ch) has an unfinished tween.
func (s *TweenSystem) Active(id ecs.EntityID, ch Channel) bool {
	set, ok := s.tweens.Get(id)
	return ok && set[ch] != nil && !set[ch].Done
}

// StartFlight spawns an ephemeral entity that travels from→to.
func (s *TweenSystem) StartFlight(label string, from, to world.Vec2, d time.Duration, c Curve) ecs.EntityID {
	id := s.world.CreateEntity()
	s.flights.Set(id, &Flight{Label: label})
	s.Start(id, ChannelPosition, from, to, d, c)
	return id
}

// EachFlight visits every live flight with its current position.
func (s *TweenSystem) EachFlight(fn func(id ecs.EntityID, f *Flight, pos world.Vec2)) {
	s.flights.Each(func(id ecs.EntityID, f *Flight) {
		if pos, ok := s.Value(id, ChannelPosition); ok {
			fn(id, f, pos)
		}
	})
}

// Flights returns the number of live flights.
func (s *TweenSystem) Flights() int { return s.flights.Len() }

func (s *TweenSystem) Update(dt time.Duration) {
	s.now += dt
	s.tweens.Each(func(id ecs.EntityID, set *tweenSet) {
		for ch, tw := range set {
			if tw == nil {
				continue
			}
			if tw.Done {
				set[ch] = nil
				continue
			}
			tw.advance(s.now)
		}
		if set.empty() {
			s.tweens.Remove(id)
			if s.flights.Has(id) {
				s.world.MarkForDestruction(id)
			}
		}
	})
}

func (set *tweenSet) empty() bool {
	for _, tw := range set {
		if tw != nil {
			return false
		}
	}
	return true
}
