package dispatcher

import (
	"context"

	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
)

// EventQueryRequest ranges over the event log, scoped to the caller unless
// admin_override is set.
type EventQueryRequest struct {
	Base
	SectorID *int   `json:"sector_id,omitempty"`
	CorpID   string `json:"corp_id,omitempty"`
	Since    *int64 `json:"since,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type EventQueryHandler struct{ Deps *Deps }

const defaultEventQueryLimit = 100

func (h *EventQueryHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*EventQueryRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)

	limit := req.Limit
	if limit <= 0 || limit > defaultEventQueryLimit {
		limit = defaultEventQueryLimit
	}

	filter := events.QueryFilter{
		CharacterID:  resolved.CharacterID,
		SectorID:     req.SectorID,
		Since:        req.Since,
		Limit:        limit,
		AdminNoScope: resolved.IsAdmin,
	}
	if req.CorpID != "" {
		corpID, err := shared.ParseID(req.CorpID)
		if err != nil {
			return nil, err
		}
		filter.CorpID = &corpID
	}

	records, err := h.Deps.EventLog.Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, map[string]any{
			"id":         r.ID,
			"type":       r.Type,
			"payload":    r.Payload,
			"timestamp":  r.Timestamp,
			"sector_id":  r.SectorID,
			"request_id": r.RequestID,
		})
	}

	return ok(req.RequestID, map[string]any{"events": out}), nil
}

// TestResetRequest truncates and re-seeds the world. Admin-only: used by the
// BDD harness to guarantee scenario isolation.
type TestResetRequest struct {
	Base
}

type TestResetHandler struct{ Deps *Deps }

func (h *TestResetHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	_ = request.(*TestResetRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	if !resolved.IsAdmin {
		return nil, shared.NewAuthError("test_reset requires admin_override")
	}

	if err := h.Deps.Admin.TruncateAll(ctx); err != nil {
		return nil, err
	}
	if err := h.Deps.Admin.SeedFixtures(ctx); err != nil {
		return nil, err
	}

	return ok("", map[string]any{"reset": true}), nil
}

// CharacterDeleteRequest removes a character, their ships and garrisons, and
// — if it leaves the corporation empty — the corporation itself. Admin-only.
type CharacterDeleteRequest struct {
	Base
	TargetCharacterID string `json:"target_character_id"`
}

type CharacterDeleteHandler struct{ Deps *Deps }

func (h *CharacterDeleteHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*CharacterDeleteRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	if !resolved.IsAdmin {
		return nil, shared.NewAuthError("character_delete requires admin_override")
	}

	targetID, err := shared.ParseID(req.TargetCharacterID)
	if err != nil {
		return nil, err
	}
	character, err := h.Deps.Store.Characters.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	ships, err := h.Deps.Store.Ships.FindByOwnerCharacter(ctx, targetID)
	if err != nil {
		return nil, err
	}
	for _, ship := range ships {
		if err := h.Deps.Store.Ships.Delete(ctx, ship.ID()); err != nil {
			return nil, err
		}
	}

	garrisons, err := h.Deps.Store.Garrisons.FindByOwner(ctx, targetID)
	if err != nil {
		return nil, err
	}
	for _, garrison := range garrisons {
		if err := h.Deps.Store.Garrisons.Delete(ctx, garrison.SectorID, targetID); err != nil {
			return nil, err
		}
	}

	corpID := character.CorporationID()

	if err := h.Deps.Store.Characters.Delete(ctx, targetID); err != nil {
		return nil, err
	}

	cascadedCorp := false
	if corpID != nil {
		corp, err := h.Deps.Store.Corporations.FindByID(ctx, *corpID)
		if err == nil {
			corp.RemoveMember(targetID)
			if corp.IsEmpty() {
				if err := h.Deps.Store.Corporations.Delete(ctx, *corpID); err != nil {
					return nil, err
				}
				cascadedCorp = true
			} else if err := h.Deps.Store.Corporations.Save(ctx, corp); err != nil {
				return nil, err
			}
		}
	}

	if h.Deps.Bus != nil {
		now := h.Deps.Clock.Now()
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "character.deleted",
			Payload:    map[string]any{"character_id": targetID.String(), "deleted_by": resolved.ActorID.String(), "corporation_cascaded": cascadedCorp},
			Timestamp:  now,
			Originator: &resolved.ActorID,
			RequestID:  req.RequestID,
		}, events.Scope{Kind: events.ScopeBroadcast})
	}

	return ok(req.RequestID, map[string]any{"deleted": true, "ships_deleted": len(ships), "corporation_cascaded": cascadedCorp}), nil
}
