package system

import (
	"time"

	coresys "github.com/mergeplay/mergeplay/internal/core/system"
	"github.com/mergeplay/mergeplay/internal/world"
	"go.uber.org/zap"
)

// AuditSystem checks board consistency after every tick. A failure is
// logged once per distinct message. Phase 3 (PostUpdate).
type AuditSystem struct {
	state    *world.State
	log      *zap.Logger
	last     string
	Failures int
}

func NewAuditSystem(state *world.State, log *zap.Logger) *AuditSystem {
	return &AuditSystem{state: state, log: log}
}

func (s *AuditSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *AuditSystem) Update(_ time.Duration) {
	err := s.state.CheckConsistency()
	if err == nil {
		s.last = ""
		return
	}
	s.Failures++
	if msg := err.Error(); msg != s.last {
		s.last = msg
		s.log.Error("board inconsistent", zap.Error(err))
	}
}
