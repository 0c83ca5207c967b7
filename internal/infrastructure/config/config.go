package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the main configuration struct combining all sub-configs
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	API        APIConfig        `mapstructure:"api"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Events     EventsConfig     `mapstructure:"events"`
	WorldStore WorldStoreConfig `mapstructure:"worldstore"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Realtime   RealtimeConfig   `mapstructure:"realtime"`
	Server     ServerConfig     `mapstructure:"server"`
}

// LoadConfig loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml)
// 3. Defaults (lowest priority)
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	v := viper.New()

	// Set config file details
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/gradientbang")
	}

	// Enable environment variable reading
	v.SetEnvPrefix("GB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - don't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - we'll use env vars and defaults
	}

	// Special handling for DATABASE_URL, same unprefixed convention as the teacher.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}

	// §6.5 names these vars verbatim rather than under the GB_ prefix
	// (EDGE_*, COMBAT_*, SUPABASE_*, MOVE_*), so bind them explicitly.
	bindLiteralEnv(v, map[string]string{
		"api.token":                      "EDGE_API_TOKEN",
		"api.admin_password":             "EDGE_ADMIN_PASSWORD",
		"api.admin_password_hash":        "EDGE_ADMIN_PASSWORD_HASH",
		"api.broadcast_retries":          "EDGE_BROADCAST_RETRIES",
		"api.broadcast_retry_delay_ms":   "EDGE_BROADCAST_RETRY_DELAY_MS",
		"combat.round_timeout_seconds":   "COMBAT_ROUND_TIMEOUT",
		"combat.tick_batch_size":         "COMBAT_TICK_BATCH_SIZE",
		"events.observer_cache_ttl_ms":   "SUPABASE_OBSERVER_CACHE_TTL_MS",
		"worldstore.move_delay_seconds":  "MOVE_DELAY_SECONDS_PER_TURN",
		"worldstore.move_delay_scale":    "MOVE_DELAY_SCALE",
		"worldstore.allow_legacy_ids":    "SUPABASE_ALLOW_LEGACY_IDS",
		"worldstore.legacy_id_namespace": "SUPABASE_LEGACY_ID_NAMESPACE",
	})

	// Create config struct and unmarshal
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	SetDefaults(&cfg)

	// Validate configuration
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// bindLiteralEnv binds a fixed set of mapstructure keys to env var names
// that don't follow the GB_ prefix convention.
func bindLiteralEnv(v *viper.Viper, keys map[string]string) {
	for mapstructureKey, envName := range keys {
		_ = v.BindEnv(mapstructureKey, envName)
	}
}

// LoadConfigOrDefault loads configuration or returns a default config on error
func LoadConfigOrDefault(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		// Return default configuration
		defaultCfg := &Config{}
		SetDefaults(defaultCfg)
		return defaultCfg
	}
	return cfg
}

// MustLoadConfig loads configuration and panics on error (for use in main.go)
func MustLoadConfig(configPath string) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}
