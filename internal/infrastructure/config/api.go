package config

import "time"

// APIConfig holds the edge surface's inbound auth and broadcast settings.
type APIConfig struct {
	// Shared secret compared (constant-time) against the x-api-token header.
	// Left empty, the edge surface runs in local-dev bypass (§6.1): every
	// request is accepted regardless of its x-api-token header.
	Token string `mapstructure:"token"`

	// Admin gate: either a plaintext password or its SHA-256 hex digest.
	AdminPassword     string `mapstructure:"admin_password"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`

	// Outbound event broadcast retry policy.
	BroadcastRetries      int `mapstructure:"broadcast_retries" validate:"min=0"`
	BroadcastRetryDelayMS int `mapstructure:"broadcast_retry_delay_ms" validate:"min=0"`
}

// BroadcastRetryDelay is BroadcastRetryDelayMS as a time.Duration.
func (c APIConfig) BroadcastRetryDelay() time.Duration {
	return time.Duration(c.BroadcastRetryDelayMS) * time.Millisecond
}
