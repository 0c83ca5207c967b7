package common

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"reflect"

	"github.com/google/uuid"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// AdminGate validates the admin password accompanying an admin_override
// request. NewAdminGate builds one from the configured plaintext password or
// SHA-256 hex digest; when neither is configured the gate admits everything,
// the same local-dev bypass the unset API token gets.
type AdminGate func(supplied string) bool

func NewAdminGate(password, passwordHashHex string) AdminGate {
	switch {
	case passwordHashHex != "":
		return func(supplied string) bool {
			expected, err := hex.DecodeString(passwordHashHex)
			if err != nil {
				return false
			}
			sum := sha256.Sum256([]byte(supplied))
			if len(expected) != len(sum) {
				return false
			}
			return subtle.ConstantTimeCompare(sum[:], expected) == 1
		}
	case password != "":
		return func(supplied string) bool {
			return subtle.ConstantTimeCompare([]byte(supplied), []byte(password)) == 1
		}
	default:
		return func(string) bool { return true }
	}
}

// ActorResolver canonicalizes the character_id/actor_character_id pair every
// dispatcher request carries, accepting a UUID or — when legacy ids are
// enabled — a bare display name hashed under a fixed namespace, and decides
// whether the resolved actor may act as the resolved character.
type ActorResolver struct {
	allowLegacyIDs  bool
	legacyNamespace uuid.UUID
	adminGate       AdminGate
}

func NewActorResolver(allowLegacyIDs bool, legacyNamespace uuid.UUID, adminGate AdminGate) *ActorResolver {
	if adminGate == nil {
		adminGate = NewAdminGate("", "")
	}
	return &ActorResolver{allowLegacyIDs: allowLegacyIDs, legacyNamespace: legacyNamespace, adminGate: adminGate}
}

// Resolved holds the canonical character id a request targets and the
// canonical id of the actor making the request (they differ only when an
// admin override is in play).
type Resolved struct {
	CharacterID shared.ID
	ActorID     shared.ID
	IsAdmin     bool
}

// Resolve canonicalizes characterID and, if present, actorCharacterID, then
// authorizes the actor per the dispatcher's rule: actor == character, or an
// admin override carrying a password the gate accepts.
func (r *ActorResolver) Resolve(characterID, actorCharacterID string, adminOverride bool, adminPassword string) (Resolved, error) {
	cid, _, err := shared.CanonicalizeCharacterID(characterID, r.allowLegacyIDs, r.legacyNamespace)
	if err != nil {
		return Resolved{}, err
	}

	if adminOverride && !r.adminGate(adminPassword) {
		return Resolved{}, shared.NewAuthError("admin password rejected")
	}

	if actorCharacterID == "" {
		return Resolved{CharacterID: cid, ActorID: cid, IsAdmin: adminOverride}, nil
	}

	aid, _, err := shared.CanonicalizeCharacterID(actorCharacterID, r.allowLegacyIDs, r.legacyNamespace)
	if err != nil {
		return Resolved{}, err
	}

	if !aid.Equals(cid) && !adminOverride {
		return Resolved{}, shared.NewAuthError("actor is not authorized to act as this character")
	}

	return Resolved{CharacterID: cid, ActorID: aid, IsAdmin: adminOverride}, nil
}

// Context keys for passing the resolved actor through the mediator pipeline,
// mirroring the teacher's token-in-context convention.
type actorContextKey int

const (
	resolvedActorKey actorContextKey = iota + 2000 // offset from logger/auth keys
)

// WithResolvedActor injects the resolved actor into the context.
func WithResolvedActor(ctx context.Context, resolved Resolved) context.Context {
	return context.WithValue(ctx, resolvedActorKey, resolved)
}

// ResolvedActorFromContext extracts the resolved actor from context.
func ResolvedActorFromContext(ctx context.Context) (Resolved, bool) {
	resolved, ok := ctx.Value(resolvedActorKey).(Resolved)
	return resolved, ok
}

// AuthMiddleware canonicalizes and authorizes the request's character_id /
// actor_character_id / admin_override fields (extracted via reflection, since
// every dispatcher command/query carries them by convention) before handing
// control to the next stage.
func AuthMiddleware(resolver *ActorResolver) Middleware {
	return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		characterID, actorCharacterID, adminOverride, adminPassword, ok := extractActorFields(request)
		if !ok {
			return next(ctx, request)
		}

		resolved, err := resolver.Resolve(characterID, actorCharacterID, adminOverride, adminPassword)
		if err != nil {
			return nil, err
		}

		ctx = WithResolvedActor(ctx, resolved)
		return next(ctx, request)
	}
}

// extractActorFields uses reflection to pull CharacterID/ActorCharacterID/
// AdminOverride/AdminPassword fields off request structs, so individual
// commands/queries don't need to implement a shared interface.
func extractActorFields(request Request) (characterID, actorCharacterID string, adminOverride bool, adminPassword string, ok bool) {
	value := reflect.ValueOf(request)
	if value.Kind() == reflect.Ptr {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return "", "", false, "", false
	}

	field := value.FieldByName("CharacterID")
	if !field.IsValid() || field.Kind() != reflect.String {
		return "", "", false, "", false
	}
	characterID = field.String()

	if f := value.FieldByName("ActorCharacterID"); f.IsValid() && f.Kind() == reflect.String {
		actorCharacterID = f.String()
	}
	if f := value.FieldByName("AdminOverride"); f.IsValid() && f.Kind() == reflect.Bool {
		adminOverride = f.Bool()
	}
	if f := value.FieldByName("AdminPassword"); f.IsValid() && f.Kind() == reflect.String {
		adminPassword = f.String()
	}

	return characterID, actorCharacterID, adminOverride, adminPassword, true
}
