package system

import (
	"sort"
	"time"
)

// Runner executes systems in phase order each tick.
// Systems sharing a phase run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	ticks   uint64
	elapsed time.Duration
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	r.ticks++
	r.elapsed += dt
	for _, s := range r.systems {
		s.Update(dt)
	}
}

// TickPhase runs only the systems of one phase. Used by tests and by the
// front-end to redraw without advancing game logic.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Ticks returns the number of full ticks run so far.
func (r *Runner) Ticks() uint64 { return r.ticks }

// Elapsed returns the simulated time accumulated across full ticks.
func (r *Runner) Elapsed() time.Duration { return r.elapsed }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
