package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MovementMetricsCollector handles warp transit and docking metrics.
type MovementMetricsCollector struct {
	warpsInitiated    *prometheus.CounterVec
	warpDuration      *prometheus.HistogramVec
	warpPowerConsumed *prometheus.CounterVec
	dockEvents        *prometheus.CounterVec
}

// NewMovementMetricsCollector creates a new movement metrics collector.
func NewMovementMetricsCollector() *MovementMetricsCollector {
	return &MovementMetricsCollector{
		warpsInitiated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warps_initiated_total",
				Help:      "Total number of warp transits initiated by status",
			},
			[]string{"status"},
		),
		warpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warp_turns",
				Help:      "Turns consumed by a warp transit",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
			[]string{},
		),
		warpPowerConsumed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "warp_power_consumed_total",
				Help:      "Total warp power consumed by transits",
			},
			[]string{},
		),
		dockEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "dock_events_total",
				Help:      "Total number of ship dock/undock events at ports",
			},
			[]string{"action"},
		),
	}
}

// Register registers all movement metrics with the Prometheus registry.
func (c *MovementMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}

	metrics := []prometheus.Collector{
		c.warpsInitiated,
		c.warpDuration,
		c.warpPowerConsumed,
		c.dockEvents,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordWarpInitiated records a warp initiation event.
func (c *MovementMetricsCollector) RecordWarpInitiated(status string) {
	c.warpsInitiated.WithLabelValues(status).Inc()
}

// RecordWarpCompleted records a completed warp's turn count and power draw.
func (c *MovementMetricsCollector) RecordWarpCompleted(turns int, powerConsumed int) {
	c.warpDuration.WithLabelValues().Observe(float64(turns))
	c.warpPowerConsumed.WithLabelValues().Add(float64(powerConsumed))
}

// RecordDockEvent records a dock or undock event.
func (c *MovementMetricsCollector) RecordDockEvent(action string) {
	c.dockEvents.WithLabelValues(action).Inc()
}
