package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradient-bang/server/internal/adapters/persistence"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/test/helpers"
)

func sampleEvent(originator shared.ID, eventType, requestID string) *events.EventRecord {
	return &events.EventRecord{
		Direction:  events.DirectionOut,
		Type:       eventType,
		Payload:    map[string]any{"content": "hi"},
		Timestamp:  time.Now().UTC(),
		Originator: &originator,
		RequestID:  requestID,
	}
}

func TestEventRepository_AppendAllocatesMonotonicIDs(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormEventRepository(db)
	ctx := context.Background()

	originator := shared.NewID()
	first, err := repo.Append(ctx, sampleEvent(originator, "chat.message", "r1"), nil)
	require.NoError(t, err)
	second, err := repo.Append(ctx, sampleEvent(originator, "chat.message", "r2"), nil)
	require.NoError(t, err)

	assert.Greater(t, second, first)
}

func TestEventRepository_AppendPersistsRecipientRowsWithReasons(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormEventRepository(db)
	ctx := context.Background()

	sender := shared.NewID()
	recipient := shared.NewID()

	eventID, err := repo.Append(ctx, sampleEvent(sender, "chat.message", "r1"), []events.Recipient{
		{CharacterID: sender, Reason: events.ReasonSender},
		{CharacterID: recipient, Reason: events.ReasonRecipient},
	})
	require.NoError(t, err)

	var rows []persistence.EventCharacterRecipientModel
	require.NoError(t, db.Where("event_id = ?", eventID).Find(&rows).Error)
	require.Len(t, rows, 2)

	reasons := map[string]string{}
	for _, row := range rows {
		reasons[row.CharacterID] = row.Reason
	}
	assert.Equal(t, string(events.ReasonSender), reasons[sender.String()])
	assert.Equal(t, string(events.ReasonRecipient), reasons[recipient.String()])
}

func TestEventRepository_QueryScopedToRecipient(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormEventRepository(db)
	ctx := context.Background()

	originator := shared.NewID()
	recipient := shared.NewID()
	outsider := shared.NewID()

	_, err := repo.Append(ctx, sampleEvent(originator, "chat.message", "r1"), []events.Recipient{
		{CharacterID: recipient, Reason: events.ReasonRecipient},
	})
	require.NoError(t, err)

	mine, err := repo.Query(ctx, events.QueryFilter{CharacterID: recipient, Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "chat.message", mine[0].Type)

	theirs, err := repo.Query(ctx, events.QueryFilter{CharacterID: outsider, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, theirs, "non-recipients must not see the event without admin scope")
}

func TestEventRepository_QueryAdminBypassesScoping(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormEventRepository(db)
	ctx := context.Background()

	originator := shared.NewID()
	_, err := repo.Append(ctx, sampleEvent(originator, "sector.update", "r1"), nil)
	require.NoError(t, err)

	all, err := repo.Query(ctx, events.QueryFilter{CharacterID: shared.NewID(), AdminNoScope: true, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEventRepository_QueryFiltersBySectorAndSince(t *testing.T) {
	db := helpers.NewTestDB(t)
	repo := persistence.NewGormEventRepository(db)
	ctx := context.Background()

	originator := shared.NewID()
	sectorA, sectorB := 1, 2

	early := sampleEvent(originator, "sector.update", "r1")
	early.SectorID = &sectorA
	earlyID, err := repo.Append(ctx, early, nil)
	require.NoError(t, err)

	late := sampleEvent(originator, "sector.update", "r2")
	late.SectorID = &sectorA
	_, err = repo.Append(ctx, late, nil)
	require.NoError(t, err)

	other := sampleEvent(originator, "sector.update", "r3")
	other.SectorID = &sectorB
	_, err = repo.Append(ctx, other, nil)
	require.NoError(t, err)

	got, err := repo.Query(ctx, events.QueryFilter{
		CharacterID:  originator,
		AdminNoScope: true,
		SectorID:     &sectorA,
		Since:        &earlyID,
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].RequestID)
}
