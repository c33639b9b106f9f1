package system

import (
	"math/rand"

	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/core/event"
	"github.com/mergeplay/mergeplay/internal/data"
	"github.com/mergeplay/mergeplay/internal/scripting"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

// SpawnPicker chooses which kind to spawn. An empty answer falls back to a
// uniform pick. *scripting.Engine satisfies it.
type SpawnPicker interface {
	PickSpawn(ctx scripting.SpawnContext) string
}

// CellReserver names a cell the spawner must leave alone.
type CellReserver interface {
	Reserved() (world.Cell, bool)
}

// Spawner puts new items on the board: the fixed starting layout, random
// drops and explicit requests from the keyboard.
type Spawner struct {
	state     *world.State
	orders    *OrderBook
	tweens    *TweenSystem
	bus       *event.Bus
	rng       *rand.Rand
	picker    SpawnPicker
	reserver  CellReserver
	spawnable []data.KindID
	log       *zap.Logger
}

func NewSpawner(state *world.State, orders *OrderBook, tweens *TweenSystem, bus *event.Bus, rng *rand.Rand, log *zap.Logger) *Spawner {
	return &Spawner{state: state, orders: orders, tweens: tweens, bus: bus, rng: rng, log: log}
}

func (s *Spawner) SetPicker(p SpawnPicker)    { s.picker = p }
func (s *Spawner) SetReserver(r CellReserver) { s.reserver = r }

func (s *Spawner) SetSpawnable(ids []data.KindID) {
	s.spawnable = append(s.spawnable[:0], ids...)
}

// Spawnable returns the kinds random and indexed spawns draw from.
func (s *Spawner) Spawnable() []data.KindID { return s.spawnable }

// ApplyLayout places the fixed items, adopts the spawnable list and drops
// the initial random items. Placements on invalid or taken cells are
// skipped. Returns how many items were spawned.
func (s *Spawner) ApplyLayout(l *data.Layout) int {
	s.SetSpawnable(l.Spawnable)
	n := 0
	for _, p := range l.Placements {
		kind := s.state.Kinds.Get(p.Kind)
		if _, ok := s.spawnAt(kind, world.Cell{X: p.X, Y: p.Y}); !ok {
			s.log.Warn("layout placement skipped",
				zap.String("kind", string(p.Kind)), zap.Int("x", p.X), zap.Int("y", p.Y))
			continue
		}
		n++
	}
	for i := 0; i < l.InitialRandom; i++ {
		if _, ok := s.SpawnRandom(); !ok {
			break
		}
		n++
	}
	s.log.Info("layout applied", zap.Int("items", n))
	return n
}

// SpawnRandom drops a spawnable kind on a random free cell.
func (s *Spawner) SpawnRandom() (ecs.EntityID, bool) {
	if len(s.spawnable) == 0 {
		s.log.Debug("spawn: nothing spawnable")
		return ecs.NilEntity, false
	}
	cells := s.freeCells()
	if len(cells) == 0 {
		s.log.Debug("spawn: grid full")
		return ecs.NilEntity, false
	}
	id := s.pickKind(len(cells))
	cell := cells[s.rng.Intn(len(cells))]
	return s.spawnAt(s.state.Kinds.Get(id), cell)
}

// SpawnIndex spawns the i-th spawnable kind (digit keys) on a random free cell.
func (s *Spawner) SpawnIndex(i int) (ecs.EntityID, bool) {
	if i < 0 || i >= len(s.spawnable) {
		return ecs.NilEntity, false
	}
	return s.SpawnKind(s.spawnable[i])
}

// SpawnKind spawns a specific kind on a random free cell.
func (s *Spawner) SpawnKind(id data.KindID) (ecs.EntityID, bool) {
	kind := s.state.Kinds.Get(id)
	if kind == nil {
		s.log.Warn("spawn: unknown kind", zap.String("kind", string(id)))
		return ecs.NilEntity, false
	}
	cells := s.freeCells()
	if len(cells) == 0 {
		return ecs.NilEntity, false
	}
	return s.spawnAt(kind, cells[s.rng.Intn(len(cells))])
}

func (s *Spawner) pickKind(empty int) data.KindID {
	roll := s.rng.Float64()
	if s.picker != nil {
		cands := make([]string, len(s.spawnable))
		for i, id := range s.spawnable {
			cands[i] = string(id)
		}
		if pick := s.picker.PickSpawn(scripting.SpawnContext{
			Candidates: cands,
			EmptyCells: empty,
			TotalCells: s.state.Grid.Width() * s.state.Grid.Height(),
			Roll:       roll,
		}); pick != "" {
			return data.KindID(pick)
		}
	}
	i := int(roll * float64(len(s.spawnable)))
	if i >= len(s.spawnable) {
		i = len(s.spawnable) - 1
	}
	return s.spawnable[i]
}

func (s *Spawner) freeCells() []world.Cell {
	cells := s.state.Grid.EmptyCells()
	if s.reserver == nil {
		return cells
	}
	res, ok := s.reserver.Reserved()
	if !ok {
		return cells
	}
	out := cells[:0]
	for _, c := range cells {
		if c != res {
			out = append(out, c)
		}
	}
	return out
}

func (s *Spawner) spawnAt(kind *data.Kind, c world.Cell) (ecs.EntityID, bool) {
	id, ok := s.state.Spawn(kind, c.X, c.Y)
	if !ok {
		return ecs.NilEntity, false
	}
	event.Emit(s.bus, event.ItemSpawned{Item: id, Kind: kind.ID, Cell: c})
	if s.tweens != nil {
		s.tweens.Start(id, ChannelScale, world.Vec2{}, world.Vec2{X: 1, Y: 1}, popDuration, CurveEaseOutSine)
	}
	if s.orders != nil {
		s.orders.Evaluate()
	}
	return id, true
}
