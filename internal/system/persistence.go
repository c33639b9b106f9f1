package system

import (
	"context"
	"time"

	"github.com/mergeplay/mergeplay/internal/core/event"
	coresys "github.com/mergeplay/mergeplay/internal/core/system"
	"github.com/mergeplay/mergeplay/internal/persist"
	"go.uber.org/zap"
)

// LedgerWriter stores fulfilled orders. *persist.LedgerRepo satisfies it.
type LedgerWriter interface {
	WriteBatch(ctx context.Context, entries []persist.LedgerEntry) error
}

// PersistenceSystem buffers fulfilled orders from the bus and writes them to
// the ledger every interval. A failed batch stays queued for the next flush.
// Phase 5 (Persist).
type PersistenceSystem struct {
	writer   LedgerWriter
	session  string
	pending  []persist.LedgerEntry
	interval time.Duration
	timeout  time.Duration
	elapsed  time.Duration
	now      func() time.Time
	log      *zap.Logger
}

func NewPersistenceSystem(bus *event.Bus, writer LedgerWriter, session string, interval, timeout time.Duration, log *zap.Logger) *PersistenceSystem {
	s := &PersistenceSystem{
		writer:   writer,
		session:  session,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		log:      log,
	}
	event.Subscribe(bus, s.onOrderFulfilled)
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

// Pending returns the number of entries not yet written.
func (s *PersistenceSystem) Pending() int { return len(s.pending) }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.flush()
}

// Flush writes everything pending immediately. Called on shutdown.
func (s *PersistenceSystem) Flush() error {
	return s.flush()
}

func (s *PersistenceSystem) flush() error {
	if len(s.pending) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.writer.WriteBatch(ctx, s.pending); err != nil {
		s.log.Warn("ledger flush failed, will retry",
			zap.Int("pending", len(s.pending)), zap.Error(err))
		return err
	}
	s.log.Debug("ledger flushed", zap.Int("entries", len(s.pending)))
	s.pending = s.pending[:0]
	return nil
}

func (s *PersistenceSystem) onOrderFulfilled(ev event.OrderFulfilled) {
	if ev.Order == nil {
		return
	}
	s.pending = append(s.pending, persist.LedgerEntry{
		Session:   s.session,
		Slot:      int16(ev.Slot),
		OrderID:   ev.Order.ID,
		Kind:      string(ev.Order.RequiredKind),
		Quantity:  int32(ev.Order.Quantity),
		Reward:    int32(ev.Reward),
		EquipItem: ev.Order.Equip.ItemType,
		CreatedAt: s.now(),
	})
}
