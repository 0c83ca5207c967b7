package config

import "time"

// CombatConfig holds the combat tick loop's timing and throughput settings.
type CombatConfig struct {
	// Seconds a round waits for pending actions before auto-resolving.
	RoundTimeoutSeconds int `mapstructure:"round_timeout_seconds" validate:"min=1"`

	// Max encounters resolved per tick sweep.
	TickBatchSize int `mapstructure:"tick_batch_size" validate:"min=1"`
}

// RoundTimeout is RoundTimeoutSeconds as a time.Duration.
func (c CombatConfig) RoundTimeout() time.Duration {
	return time.Duration(c.RoundTimeoutSeconds) * time.Second
}
