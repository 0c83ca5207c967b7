package config

import "time"

// EventsConfig holds the event bus's observer-facing cache settings.
type EventsConfig struct {
	// TTL for the observer/visibility cache consulted on every event fan-out.
	ObserverCacheTTLMS int `mapstructure:"observer_cache_ttl_ms" validate:"min=0"`
}

// ObserverCacheTTL is ObserverCacheTTLMS as a time.Duration.
func (c EventsConfig) ObserverCacheTTL() time.Duration {
	return time.Duration(c.ObserverCacheTTLMS) * time.Millisecond
}
