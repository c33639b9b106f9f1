package system

import (
	"time"

	"github.com/mergeplay/mergeplay/internal/core/event"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

// RewardSink receives the coin reward of every fulfilled order.
type RewardSink interface {
	OnOrderFulfilled(reward int, source world.Vec2)
}

// Wallet is the coin counter. Each credit also launches a coin flight from
// the order slot to the wallet anchor when a tween system is attached.
type Wallet struct {
	coins  int
	anchor world.Vec2
	flight time.Duration
	tweens *TweenSystem
	bus    *event.Bus
	log    *zap.Logger
}

func NewWallet(anchor world.Vec2, flight time.Duration, tweens *TweenSystem, bus *event.Bus, log *zap.Logger) *Wallet {
	return &Wallet{anchor: anchor, flight: flight, tweens: tweens, bus: bus, log: log}
}

func (w *Wallet) Coins() int         { return w.coins }
func (w *Wallet) Anchor() world.Vec2 { return w.anchor }

func (w *Wallet) OnOrderFulfilled(reward int, source world.Vec2) {
	if reward < 0 {
		w.log.Warn("negative reward ignored", zap.Int("reward", reward))
		return
	}
	w.coins += reward
	event.Emit(w.bus, event.CoinsChanged{Total: w.coins, Delta: reward})
	if w.tweens != nil {
		w.tweens.StartFlight("coin", source, w.anchor, w.flight, CurveEaseInOut)
	}
	w.log.Debug("coins credited", zap.Int("reward", reward), zap.Int("total", w.coins))
}
