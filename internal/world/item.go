package world

import (
	"errors"
	"fmt"

	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/data"
)

// Item is the live instance component. Placed is false while the item is
// held by the drag controller; Cell then still names the cell it came from.
type Item struct {
	Kind   *data.Kind
	Cell   Cell
	Placed bool
}

// State owns the grid and the item arena. Cells store handles, items store
// coordinates, so lookups run both ways without a reference cycle.
// Accessed only from the game loop goroutine; no locks needed.
type State struct {
	Grid  *Grid
	Kinds *data.KindTable

	ecs   *ecs.World
	items *ecs.PtrComponentStore[Item]
}

func NewState(grid *Grid, kinds *data.KindTable) *State {
	w := ecs.NewWorld()
	items := ecs.NewPtrComponentStore[Item]()
	w.Registry().Register(items)
	return &State{
		Grid:  grid,
		Kinds: kinds,
		ecs:   w,
		items: items,
	}
}

// ECS exposes the entity world so presentation stores can register for
// cleanup alongside items.
func (s *State) ECS() *ecs.World { return s.ecs }

// Spawn creates an item of kind at (x, y). Returns false when the cell is
// out of range or occupied.
func (s *State) Spawn(kind *data.Kind, x, y int) (ecs.EntityID, bool) {
	if kind == nil || !s.Grid.IsValid(x, y) {
		return ecs.NilEntity, false
	}
	if _, occupied := s.Grid.Get(x, y); occupied {
		return ecs.NilEntity, false
	}
	id := s.ecs.CreateEntity()
	s.items.Set(id, &Item{Kind: kind, Cell: Cell{x, y}, Placed: true})
	s.Grid.Set(x, y, id)
	return id, true
}

// Item returns the live item behind a handle.
func (s *State) Item(id ecs.EntityID) (*Item, bool) {
	return s.items.Get(id)
}

// ItemAt returns the item occupying (x, y), if any. The cell must be valid.
func (s *State) ItemAt(x, y int) (ecs.EntityID, *Item, bool) {
	id, ok := s.Grid.Get(x, y)
	if !ok {
		return ecs.NilEntity, nil, false
	}
	it, ok := s.items.Get(id)
	return id, it, ok
}

// Lift takes a placed item off the board, freeing its cell.
func (s *State) Lift(id ecs.EntityID) bool {
	it, ok := s.items.Get(id)
	if !ok || !it.Placed {
		return false
	}
	s.Grid.Clear(it.Cell.X, it.Cell.Y)
	it.Placed = false
	return true
}

// Place puts a lifted item into an empty valid cell.
func (s *State) Place(id ecs.EntityID, x, y int) bool {
	it, ok := s.items.Get(id)
	if !ok || it.Placed || !s.Grid.IsValid(x, y) {
		return false
	}
	if _, occupied := s.Grid.Get(x, y); occupied {
		return false
	}
	s.Grid.Set(x, y, id)
	it.Cell = Cell{x, y}
	it.Placed = true
	return true
}

// Destroy removes the item from the board and the arena. The entity itself
// is released at end of tick so presentation components can finish.
func (s *State) Destroy(id ecs.EntityID) bool {
	it, ok := s.items.Get(id)
	if !ok {
		return false
	}
	if it.Placed {
		if cur, _ := s.Grid.Get(it.Cell.X, it.Cell.Y); cur == id {
			s.Grid.Clear(it.Cell.X, it.Cell.Y)
		}
	}
	s.items.Remove(id)
	s.ecs.MarkForDestruction(id)
	return true
}

// Count returns the number of live items, placed or held.
func (s *State) Count() int { return s.items.Len() }

// CountKind counts items of the given kind currently on the grid.
func (s *State) CountKind(kind data.KindID) int {
	n := 0
	s.Grid.Each(func(_, _ int, id ecs.EntityID) {
		if id == ecs.NilEntity {
			return
		}
		if it, ok := s.items.Get(id); ok && it.Kind.ID == kind {
			n++
		}
	})
	return n
}

// CheckConsistency audits the cell/item invariants: every occupant points
// back at its cell, every placed item is in its cell, and at most one item
// is off the board.
func (s *State) CheckConsistency() error {
	var errs []error
	s.Grid.Each(func(x, y int, id ecs.EntityID) {
		if id == ecs.NilEntity {
			return
		}
		it, ok := s.items.Get(id)
		switch {
		case !ok:
			errs = append(errs, fmt.Errorf("cell (%d,%d) holds dead item %d", x, y, id))
		case !it.Placed:
			errs = append(errs, fmt.Errorf("cell (%d,%d) holds lifted item %d", x, y, id))
		case it.Cell != (Cell{x, y}):
			errs = append(errs, fmt.Errorf("cell (%d,%d) holds item %d that thinks it is at %v", x, y, id, it.Cell))
		}
	})
	held := 0
	s.items.Each(func(id ecs.EntityID, it *Item) {
		if !it.Placed {
			held++
			return
		}
		if !s.Grid.IsValid(it.Cell.X, it.Cell.Y) {
			errs = append(errs, fmt.Errorf("item %d placed out of bounds at %v", id, it.Cell))
			return
		}
		if cur, _ := s.Grid.Get(it.Cell.X, it.Cell.Y); cur != id {
			errs = append(errs, fmt.Errorf("item %d at %v but cell holds %d", id, it.Cell, cur))
		}
	})
	if held > 1 {
		errs = append(errs, fmt.Errorf("%d items off the board, at most one may be held", held))
	}
	if placed := s.items.Len() - held; placed != s.Grid.Occupied() {
		errs = append(errs, fmt.Errorf("%d placed items but %d occupied cells", placed, s.Grid.Occupied()))
	}
	return errors.Join(errs...)
}
