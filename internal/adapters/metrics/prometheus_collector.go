package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all metrics
	namespace = "gradientbang"
	// Subsystem for daemon metrics
	subsystem = "server"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalCombatCollector is the singleton combat metrics collector
	globalCombatCollector CombatMetricsRecorder

	// globalMovementCollector is the singleton movement metrics collector
	globalMovementCollector MovementMetricsRecorder

	// globalLedgerCollector is the singleton ledger metrics collector
	globalLedgerCollector LedgerMetricsRecorder
)

// CombatMetricsRecorder defines the interface for recording combat metrics
type CombatMetricsRecorder interface {
	RecordEncounterStarted()
	RecordEncounterEnded(endState string)
	RecordRoundResolved()
	RecordShipDestroyed()
	RecordTollPaid()
}

// MovementMetricsRecorder defines the interface for recording movement metrics
type MovementMetricsRecorder interface {
	RecordWarpInitiated(status string)
	RecordWarpCompleted(turns int, powerConsumed int)
	RecordDockEvent(action string)
}

// LedgerMetricsRecorder defines the interface for recording ledger metrics
type LedgerMetricsRecorder interface {
	RecordTransaction(characterID, transactionType, category string, amount, balanceAfter int)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry
// Returns nil if metrics are not initialized
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalCombatCollector sets the global combat metrics collector
func SetGlobalCombatCollector(collector CombatMetricsRecorder) {
	globalCombatCollector = collector
}

// RecordEncounterStarted records a combat encounter start globally
func RecordEncounterStarted() {
	if globalCombatCollector != nil {
		globalCombatCollector.RecordEncounterStarted()
	}
}

// RecordEncounterEnded records a combat encounter's end state globally
func RecordEncounterEnded(endState string) {
	if globalCombatCollector != nil {
		globalCombatCollector.RecordEncounterEnded(endState)
	}
}

// RecordRoundResolved records a resolved combat round globally
func RecordRoundResolved() {
	if globalCombatCollector != nil {
		globalCombatCollector.RecordRoundResolved()
	}
}

// RecordShipDestroyed records a ship destruction globally
func RecordShipDestroyed() {
	if globalCombatCollector != nil {
		globalCombatCollector.RecordShipDestroyed()
	}
}

// RecordTollPaid records a garrison toll payment globally
func RecordTollPaid() {
	if globalCombatCollector != nil {
		globalCombatCollector.RecordTollPaid()
	}
}

// SetGlobalMovementCollector sets the global movement metrics collector
func SetGlobalMovementCollector(collector MovementMetricsRecorder) {
	globalMovementCollector = collector
}

// RecordWarpInitiated records a warp initiation globally
func RecordWarpInitiated(status string) {
	if globalMovementCollector != nil {
		globalMovementCollector.RecordWarpInitiated(status)
	}
}

// RecordWarpCompleted records a completed warp transit globally
func RecordWarpCompleted(turns int, powerConsumed int) {
	if globalMovementCollector != nil {
		globalMovementCollector.RecordWarpCompleted(turns, powerConsumed)
	}
}

// RecordDockEvent records a dock/undock event globally
func RecordDockEvent(action string) {
	if globalMovementCollector != nil {
		globalMovementCollector.RecordDockEvent(action)
	}
}

// SetGlobalLedgerCollector sets the global ledger metrics collector
func SetGlobalLedgerCollector(collector LedgerMetricsRecorder) {
	globalLedgerCollector = collector
}

// RecordTransaction records a ledger transaction globally
func RecordTransaction(characterID, transactionType, category string, amount, balanceAfter int) {
	if globalLedgerCollector != nil {
		globalLedgerCollector.RecordTransaction(characterID, transactionType, category, amount, balanceAfter)
	}
}
