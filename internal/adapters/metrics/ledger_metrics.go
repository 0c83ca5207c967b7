package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetricsCollector handles credit balance and transaction metrics.
type LedgerMetricsCollector struct {
	bankBalance       *prometheus.GaugeVec
	transactionsTotal *prometheus.CounterVec
	transactionAmount *prometheus.HistogramVec
}

// NewLedgerMetricsCollector creates a new ledger metrics collector.
func NewLedgerMetricsCollector() *LedgerMetricsCollector {
	return &LedgerMetricsCollector{
		bankBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "bank_balance",
				Help:      "Current bank balance for a character",
			},
			[]string{"character_id"},
		),
		transactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transactions_total",
				Help:      "Total number of ledger transactions by type and category",
			},
			[]string{"type", "category"},
		),
		transactionAmount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transaction_amount",
				Help:      "Absolute transaction amount distribution",
				Buckets:   []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
			},
			[]string{"type", "category"},
		),
	}
}

// Register registers all ledger metrics with the Prometheus registry.
func (c *LedgerMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}

	metrics := []prometheus.Collector{
		c.bankBalance,
		c.transactionsTotal,
		c.transactionAmount,
	}

	for _, metric := range metrics {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}

	return nil
}

// RecordTransaction records a transaction and updates the character's current balance.
func (c *LedgerMetricsCollector) RecordTransaction(characterID, transactionType, category string, amount, balanceAfter int) {
	c.bankBalance.WithLabelValues(characterID).Set(float64(balanceAfter))

	c.transactionsTotal.WithLabelValues(transactionType, category).Inc()

	absAmount := amount
	if absAmount < 0 {
		absAmount = -absAmount
	}
	c.transactionAmount.WithLabelValues(transactionType, category).Observe(float64(absAmount))
}
