// Package tick is the combat-resolution and arrival-recovery background
// loop, grounded on the teacher's SupplyMonitor.Run poll loop
// (internal/application/trading/services/supply_monitor.go): a
// time.NewTicker driving a bounded pass over due work until ctx is
// cancelled.
package tick

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/gradient-bang/server/internal/application/dispatcher"
	"github.com/gradient-bang/server/internal/domain/combat"
)

// Scanner periodically resolves due combat rounds and resumes overdue ship
// arrivals left behind by a process restart.
type Scanner struct {
	deps       *dispatcher.Deps
	interval   time.Duration
	batchSize  int
	lastTickAt atomic.Int64 // unix nanos, 0 until the first pass completes
}

// NewScanner builds a Scanner. batchSize bounds both FindDueForResolution
// and FindDueArrivals per pass, mirroring COMBAT_TICK_BATCH_SIZE (§6.5).
func NewScanner(deps *dispatcher.Deps, interval time.Duration, batchSize int) *Scanner {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Scanner{deps: deps, interval: interval, batchSize: batchSize}
}

// Run blocks, driving passes at interval until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("tick: scanner started, interval=%s batch_size=%d", s.interval, s.batchSize)

	for {
		select {
		case <-ticker.C:
			s.pass(ctx)
		case <-ctx.Done():
			log.Printf("tick: scanner stopped")
			return
		}
	}
}

// pass resolves every combat encounter due for resolution and resumes every
// overdue ship arrival, then stamps lastTickAt for the /healthz probe.
func (s *Scanner) pass(ctx context.Context) {
	now := s.deps.Clock.Now()

	encounters, err := s.deps.Encounters.FindDueForResolution(ctx, now, s.batchSize)
	if err != nil {
		log.Printf("tick: FindDueForResolution failed: %v", err)
	} else {
		for _, encounter := range encounters {
			s.resolveOne(ctx, encounter)
		}
	}

	resumed, err := dispatcher.ResumeOverdueArrivals(ctx, s.deps, s.batchSize)
	if err != nil {
		log.Printf("tick: ResumeOverdueArrivals failed: %v", err)
	} else if resumed > 0 {
		log.Printf("tick: resumed %d overdue ship arrival(s)", resumed)
	}

	s.lastTickAt.Store(now.UnixNano())
}

func (s *Scanner) resolveOne(ctx context.Context, encounter *combat.Encounter) {
	now := s.deps.Clock.Now()
	if _, err := s.deps.Combat.TickResolve(ctx, encounter, now); err != nil {
		log.Printf("tick: resolving combat %s round %d failed: %v", encounter.CombatID, encounter.Round, err)
	}
}

// LastTick reports when the most recent pass completed, the zero time
// before the first pass. Implements http.LivenessProbe's half of /healthz.
func (s *Scanner) LastTick() time.Time {
	nanos := s.lastTickAt.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}
