package system

import (
	"time"

	"github.com/mergeplay/mergeplay/internal/core/ecs"
	"github.com/mergeplay/mergeplay/internal/core/event"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

const popDuration = 300 * time.Millisecond

// MergeResolver combines two same-kind items into one item of the next
// tier. A merge either fully commits or leaves the grid untouched.
type MergeResolver struct {
	state  *world.State
	bus    *event.Bus
	tweens *TweenSystem
	log    *zap.Logger
}

func NewMergeResolver(state *world.State, bus *event.Bus, tweens *TweenSystem, log *zap.Logger) *MergeResolver {
	return &MergeResolver{state: state, bus: bus, tweens: tweens, log: log}
}

// Merge consumes a and b and spawns their merge target at cell. The cell must
// be empty or held by a or b. Returns the new item on success.
func (m *MergeResolver) Merge(a, b ecs.EntityID, at world.Cell) (ecs.EntityID, bool) {
	if a == b {
		m.log.Warn("merge rejected: same item", zap.Uint64("item", uint64(a)))
		return ecs.NilEntity, false
	}
	ia, okA := m.state.Item(a)
	ib, okB := m.state.Item(b)
	if !okA || !okB {
		m.log.Warn("merge rejected: stale item",
			zap.Uint64("a", uint64(a)), zap.Uint64("b", uint64(b)))
		return ecs.NilEntity, false
	}
	if !ia.Kind.CanMergeWith(ib.Kind) {
		m.log.Warn("merge rejected: incompatible kinds",
			zap.String("a", string(ia.Kind.ID)), zap.String("b", string(ib.Kind.ID)))
		return ecs.NilEntity, false
	}
	target := m.state.Kinds.Get(ia.Kind.MergeTarget)
	if target == nil {
		m.log.Error("merge target missing from catalog", zap.String("target", string(ia.Kind.MergeTarget)))
		return ecs.NilEntity, false
	}
	if !m.state.Grid.IsValid(at.X, at.Y) {
		m.log.Warn("merge rejected: cell out of bounds", zap.Int("x", at.X), zap.Int("y", at.Y))
		return ecs.NilEntity, false
	}
	if occ, ok := m.state.Grid.Get(at.X, at.Y); ok && occ != a && occ != b {
		m.log.Warn("merge rejected: cell held by another item", zap.Int("x", at.X), zap.Int("y", at.Y))
		return ecs.NilEntity, false
	}

	m.state.Destroy(a)
	m.state.Destroy(b)
	result, ok := m.state.Spawn(target, at.X, at.Y)
	if !ok {
		// Unreachable once both sources are gone and the cell was checked.
		m.log.Error("merge spawn failed", zap.Int("x", at.X), zap.Int("y", at.Y))
		return ecs.NilEntity, false
	}

	event.Emit(m.bus, event.ItemMerged{
		Result:   result,
		Consumed: [2]ecs.EntityID{a, b},
		Kind:     target.ID,
		Cell:     at,
	})
	if m.tweens != nil {
		m.tweens.Start(result, ChannelScale, world.Vec2{}, world.Vec2{X: 1, Y: 1}, popDuration, CurveEaseOutSine)
	}
	m.log.Debug("merged",
		zap.String("from", string(ia.Kind.ID)),
		zap.String("into", string(target.ID)),
		zap.Int("x", at.X), zap.Int("y", at.Y))
	return result, true
}
