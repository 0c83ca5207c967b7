package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "gradientbang"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "gradientbang"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// API (edge surface) defaults
	if cfg.API.BroadcastRetries == 0 {
		cfg.API.BroadcastRetries = 3
	}
	if cfg.API.BroadcastRetryDelayMS == 0 {
		cfg.API.BroadcastRetryDelayMS = 40
	}

	// Combat defaults
	if cfg.Combat.RoundTimeoutSeconds == 0 {
		cfg.Combat.RoundTimeoutSeconds = 15
	}
	if cfg.Combat.TickBatchSize == 0 {
		cfg.Combat.TickBatchSize = 20
	}

	// Events defaults
	if cfg.Events.ObserverCacheTTLMS == 0 {
		cfg.Events.ObserverCacheTTLMS = 30000
	}

	// WorldStore defaults
	if cfg.WorldStore.MoveDelaySeconds == 0 {
		cfg.WorldStore.MoveDelaySeconds = 2.0
	}
	if cfg.WorldStore.MoveDelayScale == 0 {
		cfg.WorldStore.MoveDelayScale = 1.0
	}
	// AllowLegacyIDs defaults on per §6.5; viper leaves an unset bool at
	// its zero value, so a config file/env var must opt out explicitly.
	if !cfg.WorldStore.AllowLegacyIDs {
		cfg.WorldStore.AllowLegacyIDs = true
	}
	if cfg.WorldStore.FixturePath == "" {
		cfg.WorldStore.FixturePath = "fixtures/universe.json"
	}

	// Realtime defaults
	if cfg.Realtime.RatePerSecond == 0 {
		cfg.Realtime.RatePerSecond = 20
	}
	if cfg.Realtime.Burst == 0 {
		cfg.Realtime.Burst = 20
	}

	// Server defaults
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Logging.Rotation.MaxSize == 0 {
		cfg.Logging.Rotation.MaxSize = 100 // MB
	}
	if cfg.Logging.Rotation.MaxBackups == 0 {
		cfg.Logging.Rotation.MaxBackups = 3
	}
	if cfg.Logging.Rotation.MaxAge == 0 {
		cfg.Logging.Rotation.MaxAge = 28 // days
	}
}
