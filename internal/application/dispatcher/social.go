package dispatcher

import (
	"context"

	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
)

const maxMessageLength = 512

// SendMessageRequest is a chat message, either broadcast (every online
// character) or direct (one named recipient).
type SendMessageRequest struct {
	Base
	Type    string `json:"type"` // "broadcast" | "direct"
	ToName  string `json:"to_name,omitempty"`
	Content string `json:"content"`
}

type SendMessageHandler struct{ Deps *Deps }

func (h *SendMessageHandler) Handle(ctx context.Context, request common.Request) (common.Response, error) {
	req := request.(*SendMessageRequest)
	resolved, _ := common.ResolvedActorFromContext(ctx)
	now := h.Deps.Clock.Now()

	if len(req.Content) == 0 || len(req.Content) > maxMessageLength {
		return nil, shared.NewValidationError("content", "must be 1-512 characters")
	}

	payload := map[string]any{"from": resolved.CharacterID.String(), "type": req.Type, "content": req.Content}

	var scope events.Scope
	switch req.Type {
	case "broadcast":
		scope = events.Scope{Kind: events.ScopeBroadcast}
	case "direct":
		if req.ToName == "" {
			return nil, shared.NewValidationError("to_name", "required for direct messages")
		}
		recipient, err := h.Deps.Store.Characters.FindByDisplayName(ctx, req.ToName)
		if err != nil {
			return nil, err
		}
		payload["to"] = recipient.ID().String()
		scope = events.Scope{Kind: events.ScopeCharacter, CharacterID: ptrID(recipient.ID()), IncludeSelf: true}
	default:
		return nil, shared.NewValidationError("type", "must be broadcast or direct")
	}

	if h.Deps.Bus != nil {
		_, _ = h.Deps.Bus.Emit(ctx, &events.EventRecord{
			Type:       "chat.message",
			Payload:    payload,
			Timestamp:  now,
			Originator: &resolved.CharacterID,
			RequestID:  req.RequestID,
		}, scope)
	}

	return ok(req.RequestID, map[string]any{"delivered": true}), nil
}

func ptrID(id shared.ID) *shared.ID { return &id }
