package config

import (
	"fmt"

	"github.com/google/uuid"
)

// WorldStoreConfig holds movement-timing and character-id canonicalization
// settings for the world store.
type WorldStoreConfig struct {
	// Base transit latency in seconds per warp-hop turn.
	MoveDelaySeconds float64 `mapstructure:"move_delay_seconds" validate:"min=0"`

	// Multiplier applied to the per-turn delay (tuning knob for test speedups).
	MoveDelayScale float64 `mapstructure:"move_delay_scale" validate:"min=0"`

	// When true, a bare display name is accepted as a character id and
	// hashed into a deterministic UUID under LegacyIDNamespace.
	AllowLegacyIDs bool `mapstructure:"allow_legacy_ids"`

	// Fixed namespace UUID used by uuid.NewSHA1 for legacy name hashing.
	LegacyIDNamespace string `mapstructure:"legacy_id_namespace"`

	// Path to the JSON fixture set test_reset re-seeds ports and sector
	// contents from.
	FixturePath string `mapstructure:"fixture_path"`
}

// LegacyNamespaceUUID parses LegacyIDNamespace, falling back to a fixed
// well-known namespace if the configured value is empty.
func (c WorldStoreConfig) LegacyNamespaceUUID() (uuid.UUID, error) {
	if c.LegacyIDNamespace == "" {
		return DefaultLegacyIDNamespace, nil
	}
	ns, err := uuid.Parse(c.LegacyIDNamespace)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid legacy id namespace: %w", err)
	}
	return ns, nil
}

// DefaultLegacyIDNamespace is the fallback namespace for legacy display-name
// to UUID hashing when SUPABASE_LEGACY_ID_NAMESPACE is unset.
var DefaultLegacyIDNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
