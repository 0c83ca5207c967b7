package dispatcher_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/adapters/persistence"
	"github.com/gradient-bang/server/internal/adapters/realtime"
	"github.com/gradient-bang/server/internal/application/common"
	"github.com/gradient-bang/server/internal/application/dispatcher"
	"github.com/gradient-bang/server/internal/domain/combat"
	"github.com/gradient-bang/server/internal/domain/events"
	"github.com/gradient-bang/server/internal/domain/sectorgraph"
	"github.com/gradient-bang/server/internal/domain/shared"
	"github.com/gradient-bang/server/internal/domain/world"
	"github.com/gradient-bang/server/test/helpers"
)

// testEnv wires the full dispatcher dependency graph over an in-memory
// sqlite database: real repositories, real event bus (noop transport), real
// combat service. Arrival scheduling runs synchronously so move requests
// complete their jumps within the test call.
type testEnv struct {
	db    *gorm.DB
	deps  *dispatcher.Deps
	clock *shared.MockClock
	store *world.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := helpers.NewTestDB(t)
	clock := shared.NewMockClock(time.Unix(1_750_000_000, 0).UTC())
	seedUniverse(t, db)

	store := world.NewStore(
		persistence.NewGormCharacterRepository(db),
		persistence.NewGormShipRepository(db),
		persistence.NewGormShipDefinitionRepository(db),
		persistence.NewGormSectorRepository(db),
		persistence.NewGormPortRepository(db),
		persistence.NewGormGarrisonRepository(db),
		persistence.NewGormSalvageRepository(db),
		persistence.NewGormSectorContentsRepository(db),
		persistence.NewGormCorporationRepository(db),
	)

	source := persistence.NewWorldVisibilitySource(store, clock, 5*time.Minute)
	resolver := events.NewVisibilityResolver(source, source, source, source, 30*time.Second)
	eventLog := persistence.NewGormEventRepository(db)
	bus := events.NewBus(eventLog, resolver, realtime.NoopTransport{}, events.DefaultRetryPolicy(), nil)

	graph := sectorgraph.NewGraph(store.Sectors)
	encounters := persistence.NewGormCombatEncounterRepository(db)
	finalizer := combat.NewFinalizer(store, 0.5, time.Hour)
	transactions := persistence.NewGormTransactionRepository(db)
	combatService := combat.NewService(encounters, store, graph, bus, finalizer, transactions, 15*time.Second)

	deps := &dispatcher.Deps{
		Store:      store,
		Graph:      graph,
		Bus:        bus,
		EventLog:   eventLog,
		Combat:     combatService,
		Encounters: encounters,
		Ledger:     transactions,
		Admin:      persistence.NewGormAdminRepository(db, ""),
		Clock:      clock,
		MoveDelay: func(warpCost int) time.Duration {
			return time.Duration(warpCost) * time.Second
		},
		ScheduleArrival: func(delay time.Duration, fn func()) { fn() },
	}

	return &testEnv{db: db, deps: deps, clock: clock, store: store}
}

// seedUniverse inserts the static world: sectors 0..5 in a two-way chain and
// a port at sector 2 that buys quantum foam (code BSS, stock 25/100).
func seedUniverse(t *testing.T, db *gorm.DB) {
	t.Helper()

	chain := map[int][]int{0: {1}, 1: {0, 2}, 2: {1, 3}, 3: {2, 4}, 4: {3, 5}, 5: {4}}
	for id := 0; id <= 5; id++ {
		edges := make([]world.WarpEdge, 0, len(chain[id]))
		for _, to := range chain[id] {
			edges = append(edges, world.WarpEdge{To: to, TwoWay: true})
		}
		edgesJSON, err := json.Marshal(edges)
		require.NoError(t, err)
		require.NoError(t, db.Create(&persistence.UniverseStructureModel{
			SectorID: id, X: id, Y: 0, Region: "core", Edges: string(edgesJSON),
		}).Error)
	}

	require.NoError(t, db.Create(&persistence.ShipDefinitionModel{
		TypeID: "kestrel_courier", DisplayName: "Kestrel Courier",
		WarpCost: 1, WarpCapacity: 250, ShieldCapacity: 100, FighterCapacity: 100,
		CargoHolds: 40, PurchasePrice: 10000, TurnsPerWarp: 1,
	}).Error)
	require.NoError(t, db.Create(&persistence.ShipDefinitionModel{
		TypeID: "escape_pod", DisplayName: "Escape Pod",
		WarpCost: 1, WarpCapacity: 50, ShieldCapacity: 10, FighterCapacity: 1,
		CargoHolds: 5, PurchasePrice: 0, TurnsPerWarp: 1, IsEscapePod: true,
	}).Error)

	require.NoError(t, db.Create(&persistence.PortModel{
		SectorID: 2, Code: "BSS",
		Capacity: `[100,80,60]`, Stock: `[25,40,10]`,
	}).Error)
}

func actorCtx(id shared.ID) context.Context {
	return common.WithResolvedActor(context.Background(), common.Resolved{CharacterID: id, ActorID: id})
}

func adminCtx(target, admin shared.ID) context.Context {
	return common.WithResolvedActor(context.Background(), common.Resolved{CharacterID: target, ActorID: admin, IsAdmin: true})
}

// join binds a fresh character to a kestrel at startSector and returns its id.
func (env *testEnv) join(t *testing.T, name string, startSector int) shared.ID {
	t.Helper()

	id := shared.NewID()
	handler := &dispatcher.JoinHandler{Deps: env.deps}
	resp, err := handler.Handle(actorCtx(id), &dispatcher.JoinRequest{
		Base:        dispatcher.Base{CharacterID: id.String()},
		DisplayName: name,
		ShipTypeID:  "kestrel_courier",
		StartSector: startSector,
	})
	require.NoError(t, err)
	require.True(t, resp.(*dispatcher.Response).Success)
	return id
}

func (env *testEnv) shipOf(t *testing.T, characterID shared.ID) *world.Ship {
	t.Helper()
	character, err := env.store.Characters.FindByID(context.Background(), characterID)
	require.NoError(t, err)
	require.NotNil(t, character.CurrentShipID())
	ship, err := env.store.Ships.FindByID(context.Background(), *character.CurrentShipID())
	require.NoError(t, err)
	return ship
}

func (env *testEnv) creditShip(t *testing.T, characterID shared.ID, amount int) {
	t.Helper()
	ship := env.shipOf(t, characterID)
	require.NoError(t, ship.AddCredits(amount))
	require.NoError(t, env.store.Ships.Save(context.Background(), ship))
}

func (env *testEnv) move(t *testing.T, characterID shared.ID, destination int) *dispatcher.Response {
	t.Helper()
	handler := &dispatcher.MoveHandler{Deps: env.deps}
	resp, err := handler.Handle(actorCtx(characterID), &dispatcher.MoveRequest{
		Base:        dispatcher.Base{CharacterID: characterID.String()},
		Destination: destination,
	})
	require.NoError(t, err)
	return resp.(*dispatcher.Response)
}

func (env *testEnv) eventTypes(t *testing.T, characterID shared.ID) []string {
	t.Helper()
	records, err := env.deps.EventLog.Query(context.Background(), events.QueryFilter{
		CharacterID: characterID, Limit: 100,
	})
	require.NoError(t, err)
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Type)
	}
	return out
}

func TestJoin_CreatesCharacterShipAndMapKnowledge(t *testing.T) {
	env := newTestEnv(t)

	id := env.join(t, "Voss", 0)

	character, err := env.store.Characters.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Voss", character.DisplayName())
	assert.Equal(t, 1, character.Knowledge().TotalVisited)
	assert.True(t, character.Knowledge().IsVisited(0))

	ship := env.shipOf(t, id)
	require.NotNil(t, ship.CurrentSector())
	assert.Equal(t, 0, *ship.CurrentSector())
	assert.Equal(t, 250, ship.WarpPower())
}

func TestMove_AdjacentSectorCompletesArrival(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)

	resp := env.move(t, id, 1)
	require.True(t, resp.Success)
	assert.Equal(t, 1, resp.Data["warp_cost"])

	ship := env.shipOf(t, id)
	assert.False(t, ship.InTransit())
	require.NotNil(t, ship.CurrentSector())
	assert.Equal(t, 1, *ship.CurrentSector())
	assert.Equal(t, 249, ship.WarpPower())

	character, err := env.store.Characters.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, character.Knowledge().TotalVisited)

	types := env.eventTypes(t, id)
	assert.Contains(t, types, "movement.start")
	assert.Contains(t, types, "movement.complete")
	assert.Contains(t, types, "map.local")
}

func TestMove_ThereAndBackDeductsTwiceAndKeepsKnowledge(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)

	env.move(t, id, 1)
	env.move(t, id, 0)

	ship := env.shipOf(t, id)
	assert.Equal(t, 248, ship.WarpPower(), "two jumps at warp_cost 1 each")

	character, err := env.store.Characters.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 2, character.Knowledge().TotalVisited, "revisiting the origin must not grow the count")
}

func TestMove_NonAdjacentSectorRejected(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)

	handler := &dispatcher.MoveHandler{Deps: env.deps}
	_, err := handler.Handle(actorCtx(id), &dispatcher.MoveRequest{
		Base:        dispatcher.Base{CharacterID: id.String()},
		Destination: 3,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestBankTransfer_DepositExactShipCredits(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)
	env.creditShip(t, id, 300)

	handler := &dispatcher.BankTransferHandler{Deps: env.deps}
	resp, err := handler.Handle(actorCtx(id), &dispatcher.BankTransferRequest{
		Base:   dispatcher.Base{CharacterID: id.String()},
		Amount: 300,
	})
	require.NoError(t, err)

	data := resp.(*dispatcher.Response).Data
	assert.Equal(t, 300, data["bank_balance"])
	assert.Equal(t, 0, data["ship_credits"])

	var ledgerRows int64
	require.NoError(t, env.db.Model(&persistence.TransactionModel{}).Count(&ledgerRows).Error)
	assert.Equal(t, int64(1), ledgerRows, "every bank transfer appends a ledger transaction")
}

func TestBankTransfer_OutsideSectorZeroIsConflict(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 3)
	env.creditShip(t, id, 100)

	handler := &dispatcher.BankTransferHandler{Deps: env.deps}
	_, err := handler.Handle(actorCtx(id), &dispatcher.BankTransferRequest{
		Base:   dispatcher.Base{CharacterID: id.String()},
		Amount: 100,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestPurchaseFighters_MutatesShipAndLedger(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)

	// Make room: drop 20 fighters into a garrison so the ship is below capacity.
	leaveHandler := &dispatcher.CombatLeaveFightersHandler{Deps: env.deps}
	_, err := leaveHandler.Handle(actorCtx(id), &dispatcher.CombatLeaveFightersRequest{
		Base:     dispatcher.Base{CharacterID: id.String()},
		Quantity: 20,
		Mode:     "defensive",
	})
	require.NoError(t, err)

	env.creditShip(t, id, 100)
	handler := &dispatcher.PurchaseFightersHandler{Deps: env.deps}
	resp, err := handler.Handle(actorCtx(id), &dispatcher.PurchaseFightersRequest{
		Base:     dispatcher.Base{CharacterID: id.String()},
		Quantity: 10,
	})
	require.NoError(t, err)

	data := resp.(*dispatcher.Response).Data
	assert.Equal(t, 90, data["fighters"])
	assert.Equal(t, 50, data["ship_credits"], "10 fighters at 5 credits each")
}

func TestListKnownPorts_ComputesCurrentPrices(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)

	// Walk 0 -> 1 -> 2 so the port sector enters the character's knowledge.
	env.move(t, id, 1)
	env.move(t, id, 2)

	handler := &dispatcher.ListKnownPortsHandler{Deps: env.deps}
	resp, err := handler.Handle(actorCtx(id), &dispatcher.ListKnownPortsRequest{
		Base:      dispatcher.Base{CharacterID: id.String()},
		MaxHops:   5,
		Commodity: "quantum_foam",
		TradeType: "sell",
	})
	require.NoError(t, err)

	ports := resp.(*dispatcher.Response).Data["ports"].([]map[string]any)
	require.Len(t, ports, 1)
	assert.Equal(t, 2, ports[0]["sector_id"])
	assert.Equal(t, "BSS", ports[0]["code"])

	prices := ports[0]["prices"].([]map[string]any)
	require.Len(t, prices, 1)
	// round(25 * (0.90 + 0.40 * sqrt(1 - 25/100))) = 31
	assert.Equal(t, 31, prices[0]["price"])
}

func TestListKnownPorts_ZeroHopsOnlySeesCurrentSector(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)
	env.move(t, id, 1)
	env.move(t, id, 2)

	handler := &dispatcher.ListKnownPortsHandler{Deps: env.deps}

	// Standing on the port sector, max_hops=0 still shows its own port.
	resp, err := handler.Handle(actorCtx(id), &dispatcher.ListKnownPortsRequest{
		Base:    dispatcher.Base{CharacterID: id.String()},
		MaxHops: 0,
	})
	require.NoError(t, err)
	ports := resp.(*dispatcher.Response).Data["ports"].([]map[string]any)
	require.Len(t, ports, 1)
	assert.Equal(t, 0, ports[0]["hops"])

	// One sector over, max_hops=0 excludes the port entirely.
	env.move(t, id, 1)
	resp, err = handler.Handle(actorCtx(id), &dispatcher.ListKnownPortsRequest{
		Base:    dispatcher.Base{CharacterID: id.String()},
		MaxHops: 0,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.(*dispatcher.Response).Data["ports"])
}

func TestSendMessage_DirectPersistsSenderAndRecipientRows(t *testing.T) {
	env := newTestEnv(t)
	sender := env.join(t, "Voss", 0)
	recipient := env.join(t, "Raines", 0)

	handler := &dispatcher.SendMessageHandler{Deps: env.deps}
	resp, err := handler.Handle(actorCtx(sender), &dispatcher.SendMessageRequest{
		Base:    dispatcher.Base{CharacterID: sender.String()},
		Type:    "direct",
		ToName:  "Raines",
		Content: "hi",
	})
	require.NoError(t, err)
	require.True(t, resp.(*dispatcher.Response).Success)

	var rows []persistence.EventCharacterRecipientModel
	require.NoError(t, env.db.
		Joins("JOIN events ON events.id = event_character_recipients.event_id").
		Where("events.type = ?", "chat.message").
		Find(&rows).Error)
	require.Len(t, rows, 2)

	reasons := map[string]string{}
	for _, row := range rows {
		reasons[row.CharacterID] = row.Reason
	}
	assert.Equal(t, string(events.ReasonSender), reasons[sender.String()])
	assert.Equal(t, string(events.ReasonRecipient), reasons[recipient.String()])
}

func TestSendMessage_OverlongContentRejected(t *testing.T) {
	env := newTestEnv(t)
	sender := env.join(t, "Voss", 0)

	long := make([]byte, 513)
	for i := range long {
		long[i] = 'a'
	}

	handler := &dispatcher.SendMessageHandler{Deps: env.deps}
	_, err := handler.Handle(actorCtx(sender), &dispatcher.SendMessageRequest{
		Base:    dispatcher.Base{CharacterID: sender.String()},
		Type:    "broadcast",
		Content: string(long),
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestCombat_TwoPlayerRoundResolves(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.join(t, "Voss", 5)
	p2 := env.join(t, "Raines", 5)

	initiate := &dispatcher.CombatInitiateHandler{Deps: env.deps}
	resp, err := initiate.Handle(actorCtx(p1), &dispatcher.CombatInitiateRequest{
		Base: dispatcher.Base{CharacterID: p1.String()},
	})
	require.NoError(t, err)
	combatID := resp.(*dispatcher.Response).Data["combat_id"].(string)

	encounterID, err := shared.ParseID(combatID)
	require.NoError(t, err)
	encounter, err := env.deps.Encounters.FindByID(context.Background(), encounterID)
	require.NoError(t, err)
	require.Len(t, encounter.Participants, 2)

	p2Combatant := encounter.CombatantOfCharacter(p2)
	require.NotNil(t, p2Combatant)

	action := &dispatcher.CombatActionHandler{Deps: env.deps}
	_, err = action.Handle(actorCtx(p1), &dispatcher.CombatActionRequest{
		Base:     dispatcher.Base{CharacterID: p1.String()},
		CombatID: combatID,
		Action:   "attack",
		Commit:   50,
		TargetID: p2Combatant.ID.String(),
	})
	require.NoError(t, err)

	resolveResp, err := action.Handle(actorCtx(p2), &dispatcher.CombatActionRequest{
		Base:     dispatcher.Base{CharacterID: p2.String()},
		CombatID: combatID,
		Action:   "brace",
	})
	require.NoError(t, err)

	data := resolveResp.(*dispatcher.Response).Data
	require.Contains(t, data, "outcome", "both participants ready must trigger immediate resolution")

	resolved, err := env.deps.Encounters.FindByID(context.Background(), encounterID)
	require.NoError(t, err)
	assert.Equal(t, 2, resolved.Round)
	require.NotNil(t, resolved.Deadline)
	assert.False(t, resolved.Ended)
	require.Len(t, resolved.Logs, 1)

	defender := resolved.CombatantOfCharacter(p2)
	require.NotNil(t, defender)
	assert.Less(t, defender.Shields, 100, "a 50-fighter commit must crack the braced defender's shields")

	types := env.eventTypes(t, p1)
	assert.Contains(t, types, "combat.round_waiting")
	assert.Contains(t, types, "combat.round_resolved")
}

func TestCombat_TollGarrisonSatisfiedByPayment(t *testing.T) {
	env := newTestEnv(t)

	owner := env.join(t, "Garrison Owner", 3)
	leave := &dispatcher.CombatLeaveFightersHandler{Deps: env.deps}
	_, err := leave.Handle(actorCtx(owner), &dispatcher.CombatLeaveFightersRequest{
		Base:       dispatcher.Base{CharacterID: owner.String()},
		Quantity:   50,
		Mode:       "toll",
		TollAmount: 500,
	})
	require.NoError(t, err)
	env.move(t, owner, 2)

	pilot := env.join(t, "Voss", 2)
	env.creditShip(t, pilot, 1000)
	env.move(t, pilot, 3)

	// Arrival into a toll-garrisoned sector auto-opens the encounter.
	encounter, err := env.deps.Encounters.FindActiveBySector(context.Background(), 3)
	require.NoError(t, err)
	combatID := encounter.CombatID

	action := &dispatcher.CombatActionHandler{Deps: env.deps}

	// Round 1: the garrison records its demand and braces; the pilot braces.
	_, err = action.Handle(actorCtx(pilot), &dispatcher.CombatActionRequest{
		Base:     dispatcher.Base{CharacterID: pilot.String()},
		CombatID: combatID.String(),
		Action:   "brace",
	})
	require.NoError(t, err)

	afterDemand, err := env.deps.Encounters.FindByID(context.Background(), combatID)
	require.NoError(t, err)
	require.False(t, afterDemand.Ended)
	require.Equal(t, 2, afterDemand.Round)

	// Round 2: pay. The toll moves ship -> owner bank and ends the encounter.
	_, err = action.Handle(actorCtx(pilot), &dispatcher.CombatActionRequest{
		Base:     dispatcher.Base{CharacterID: pilot.String()},
		CombatID: combatID.String(),
		Action:   "pay",
	})
	require.NoError(t, err)

	ended, err := env.deps.Encounters.FindByID(context.Background(), combatID)
	require.NoError(t, err)
	assert.True(t, ended.Ended)
	assert.Equal(t, combat.EndTollSatisfied, ended.EndState)
	assert.Nil(t, ended.Deadline)

	paidShip := env.shipOf(t, pilot)
	assert.Equal(t, 500, paidShip.Credits())

	ownerCharacter, err := env.store.Characters.FindByID(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, 500, ownerCharacter.BankBalance())

	garrison, err := env.store.Garrisons.FindByKey(context.Background(), 3, owner)
	require.NoError(t, err)
	assert.Equal(t, 500, garrison.TollBalance)

	// Both the paying pilot and the garrison's owner receive a personalized
	// combat.ended alongside the sector.update.
	assert.Contains(t, env.eventTypes(t, pilot), "combat.ended")
	assert.Contains(t, env.eventTypes(t, owner), "combat.ended")
}

func TestShipPurchase_AsCorporationDrawsOnTreasury(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)
	ctx := context.Background()

	corp, err := world.NewCorporation(shared.NewID(), "Helix Combine", id)
	require.NoError(t, err)
	require.NoError(t, corp.Deposit(20000))
	require.NoError(t, env.store.Corporations.Save(ctx, corp))

	character, err := env.store.Characters.FindByID(ctx, id)
	require.NoError(t, err)
	character.JoinCorporation(corp.ID)
	require.NoError(t, env.store.Characters.Save(ctx, character))

	oldShip := env.shipOf(t, id)
	netCost := 10000 - oldShip.Fighters()*5

	handler := &dispatcher.ShipPurchaseHandler{Deps: env.deps}
	resp, err := handler.Handle(actorCtx(id), &dispatcher.ShipPurchaseRequest{
		Base:          dispatcher.Base{CharacterID: id.String()},
		ShipTypeID:    "kestrel_courier",
		AsCorporation: true,
	})
	require.NoError(t, err)

	data := resp.(*dispatcher.Response).Data
	assert.Equal(t, netCost, data["net_cost"])
	assert.Equal(t, 20000-netCost, data["corporation_balance"])

	newShip := env.shipOf(t, id)
	assert.Equal(t, world.OwnerCorporation, newShip.Owner().Kind)
	assert.True(t, newShip.IsOwnedByCorporation(corp.ID))
	assert.Equal(t, 0, newShip.Credits(), "the pilot's wallet is untouched, not debited")

	reloaded, err := env.store.Corporations.FindByID(ctx, corp.ID)
	require.NoError(t, err)
	assert.Equal(t, 20000-netCost, reloaded.Balance)
}

func TestShipPurchase_AsCorporationWithoutMembershipIsConflict(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 0)

	handler := &dispatcher.ShipPurchaseHandler{Deps: env.deps}
	_, err := handler.Handle(actorCtx(id), &dispatcher.ShipPurchaseRequest{
		Base:          dispatcher.Base{CharacterID: id.String()},
		ShipTypeID:    "kestrel_courier",
		AsCorporation: true,
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindConflict, shared.KindOf(err))
}

func TestDumpAndCollectSalvage_RoundTripsCargo(t *testing.T) {
	env := newTestEnv(t)
	id := env.join(t, "Voss", 1)

	ship := env.shipOf(t, id)
	cargo, err := ship.Cargo().Add(shared.CommodityQuantumFoam, 5)
	require.NoError(t, err)
	ship.SetCargo(cargo)
	require.NoError(t, env.store.Ships.Save(context.Background(), ship))

	dump := &dispatcher.DumpCargoHandler{Deps: env.deps}
	resp, err := dump.Handle(actorCtx(id), &dispatcher.DumpCargoRequest{
		Base:      dispatcher.Base{CharacterID: id.String()},
		Commodity: "quantum_foam",
		Quantity:  5,
	})
	require.NoError(t, err)
	salvageID := resp.(*dispatcher.Response).Data["salvage_id"].(string)

	assert.Equal(t, 0, env.shipOf(t, id).Cargo().Get(shared.CommodityQuantumFoam))

	collect := &dispatcher.SalvageCollectHandler{Deps: env.deps}
	_, err = collect.Handle(actorCtx(id), &dispatcher.SalvageCollectRequest{
		Base:      dispatcher.Base{CharacterID: id.String()},
		SalvageID: salvageID,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, env.shipOf(t, id).Cargo().Get(shared.CommodityQuantumFoam))

	remaining, err := env.store.Salvage.FindBySector(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, remaining, "fully collected salvage is destroyed, not left claimed")
}

func TestCharacterDelete_CascadesShipsAndRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	target := env.join(t, "Doomed", 0)
	admin := shared.NewID()
	ctx := context.Background()

	// A garrison left in a sector the character no longer has a ship in must
	// still be swept up by the cascade.
	remote, err := world.NewGarrison(4, target, 10, world.GarrisonDefensive, 0, env.clock.Now())
	require.NoError(t, err)
	require.NoError(t, env.store.Garrisons.Save(ctx, remote))

	handler := &dispatcher.CharacterDeleteHandler{Deps: env.deps}

	_, err = handler.Handle(actorCtx(target), &dispatcher.CharacterDeleteRequest{
		Base:              dispatcher.Base{CharacterID: target.String()},
		TargetCharacterID: target.String(),
	})
	require.Error(t, err)
	assert.Equal(t, shared.KindAuth, shared.KindOf(err))

	resp, err := handler.Handle(adminCtx(target, admin), &dispatcher.CharacterDeleteRequest{
		Base:              dispatcher.Base{CharacterID: target.String()},
		TargetCharacterID: target.String(),
	})
	require.NoError(t, err)
	assert.True(t, resp.(*dispatcher.Response).Success)

	_, err = env.store.Characters.FindByID(context.Background(), target)
	require.Error(t, err)

	ships, err := env.store.Ships.FindByOwnerCharacter(context.Background(), target)
	require.NoError(t, err)
	assert.Empty(t, ships)

	garrisons, err := env.store.Garrisons.FindByOwner(ctx, target)
	require.NoError(t, err)
	assert.Empty(t, garrisons, "the cascade sweeps garrisons in sectors the character had no ship in")
}
