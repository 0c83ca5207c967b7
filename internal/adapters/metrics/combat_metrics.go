package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CombatMetricsCollector handles combat encounter lifecycle metrics.
type CombatMetricsCollector struct {
	encountersStarted *prometheus.CounterVec
	encountersEnded   *prometheus.CounterVec
	roundsResolved    *prometheus.CounterVec
	shipsDestroyed    *prometheus.CounterVec
	tollsPaid         *prometheus.CounterVec
}

// NewCombatMetricsCollector creates a new combat metrics collector.
func NewCombatMetricsCollector() *CombatMetricsCollector {
	return &CombatMetricsCollector{
		encountersStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "combat_encounters_started_total",
				Help:      "Total number of combat encounters initiated",
			},
			[]string{},
		),
		encountersEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "combat_encounters_ended_total",
				Help:      "Total number of combat encounters ended by end state",
			},
			[]string{"end_state"},
		),
		roundsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "combat_rounds_resolved_total",
				Help:      "Total number of combat rounds resolved",
			},
			[]string{},
		),
		shipsDestroyed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "combat_ships_destroyed_total",
				Help:      "Total number of ships destroyed in combat",
			},
			[]string{},
		),
		tollsPaid: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "combat_tolls_paid_total",
				Help:      "Total number of garrison tolls paid",
			},
			[]string{},
		),
	}
}

// Register registers all combat metrics with the Prometheus registry.
func (c *CombatMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}

	metrics := []prometheus.Collector{
		c.encountersStarted,
		c.encountersEnded,
		c.roundsResolved,
		c.shipsDestroyed,
		c.tollsPaid,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordEncounterStarted records a new encounter being initiated.
func (c *CombatMetricsCollector) RecordEncounterStarted() {
	c.encountersStarted.WithLabelValues().Inc()
}

// RecordEncounterEnded records an encounter reaching a terminal end state.
func (c *CombatMetricsCollector) RecordEncounterEnded(endState string) {
	c.encountersEnded.WithLabelValues(endState).Inc()
}

// RecordRoundResolved records a single round's resolution.
func (c *CombatMetricsCollector) RecordRoundResolved() {
	c.roundsResolved.WithLabelValues().Inc()
}

// RecordShipDestroyed records a ship destruction.
func (c *CombatMetricsCollector) RecordShipDestroyed() {
	c.shipsDestroyed.WithLabelValues().Inc()
}

// RecordTollPaid records a garrison toll payment.
func (c *CombatMetricsCollector) RecordTollPaid() {
	c.tollsPaid.WithLabelValues().Inc()
}
