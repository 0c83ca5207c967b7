package shared

import (
	"strings"

	"github.com/google/uuid"
)

// ID is the opaque 128-bit identifier shared by every aggregate in the world
// model (characters, ships, encounters, events, corporations). Wrapping
// uuid.UUID in a value object — rather than passing it around bare — mirrors
// the teacher's PlayerID/TransactionID convention.
type ID struct {
	value uuid.UUID
}

// NewID generates a fresh random ID.
func NewID() ID {
	return ID{value: uuid.New()}
}

// ParseID parses a canonical UUID string into an ID.
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, NewValidationError("id", "not a valid identifier: "+s)
	}
	return ID{value: u}, nil
}

// IDFromUUID wraps an already-parsed uuid.UUID.
func IDFromUUID(u uuid.UUID) ID {
	return ID{value: u}
}

func (i ID) UUID() uuid.UUID { return i.value }
func (i ID) String() string  { return i.value.String() }
func (i ID) IsZero() bool    { return i.value == uuid.Nil }
func (i ID) Equals(other ID) bool {
	return i.value == other.value
}

// LegacyCanonicalize hashes a trimmed, lower-cased display name into a
// version-5 UUID under namespace. This is the migration concession in the
// design notes: accepting legacy non-UUID character names by deterministic
// hashing, so the same name always canonicalizes to the same ID.
func LegacyCanonicalize(namespace uuid.UUID, name string) ID {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	return ID{value: uuid.NewSHA1(namespace, []byte(trimmed))}
}

// CanonicalizeCharacterID accepts either a canonical UUID string or, when
// legacy IDs are allowed, a bare display name, returning the canonical ID and
// whether the legacy name path was taken.
func CanonicalizeCharacterID(raw string, allowLegacy bool, namespace uuid.UUID) (ID, bool, error) {
	if u, err := uuid.Parse(raw); err == nil {
		return ID{value: u}, false, nil
	}
	if !allowLegacy {
		return ID{}, false, NewValidationError("character_id", "must be a UUID")
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ID{}, false, NewValidationError("character_id", "cannot be empty")
	}
	return LegacyCanonicalize(namespace, trimmed), true, nil
}
