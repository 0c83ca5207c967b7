package dispatcher

import (
	"fmt"

	"github.com/gradient-bang/server/internal/application/common"
)

// RegisterAll wires every endpoint's handler onto mediator, mirroring the
// teacher's composition-root registration style (one RegisterHandler call
// per command/query) but collected in one place since every handler here
// shares the same Deps bundle rather than being assembled per-feature.
func RegisterAll(m common.Mediator, deps *Deps) error {
	registrations := []func() error{
		func() error { return common.RegisterHandler[*JoinRequest](m, &JoinHandler{Deps: deps}) },
		func() error { return common.RegisterHandler[*MyStatusRequest](m, &MyStatusHandler{Deps: deps}) },
		func() error { return common.RegisterHandler[*MoveRequest](m, &MoveHandler{Deps: deps}) },
		func() error {
			return common.RegisterHandler[*ListKnownPortsRequest](m, &ListKnownPortsHandler{Deps: deps})
		},
		func() error { return common.RegisterHandler[*BankTransferRequest](m, &BankTransferHandler{Deps: deps}) },
		func() error {
			return common.RegisterHandler[*TransferCreditsRequest](m, &TransferCreditsHandler{Deps: deps})
		},
		func() error {
			return common.RegisterHandler[*TransferWarpPowerRequest](m, &TransferWarpPowerHandler{Deps: deps})
		},
		func() error {
			return common.RegisterHandler[*PurchaseFightersRequest](m, &PurchaseFightersHandler{Deps: deps})
		},
		func() error { return common.RegisterHandler[*ShipPurchaseRequest](m, &ShipPurchaseHandler{Deps: deps}) },
		func() error { return common.RegisterHandler[*DumpCargoRequest](m, &DumpCargoHandler{Deps: deps}) },
		func() error {
			return common.RegisterHandler[*SalvageCollectRequest](m, &SalvageCollectHandler{Deps: deps})
		},
		func() error { return common.RegisterHandler[*SendMessageRequest](m, &SendMessageHandler{Deps: deps}) },
		func() error {
			return common.RegisterHandler[*CombatInitiateRequest](m, &CombatInitiateHandler{Deps: deps})
		},
		func() error { return common.RegisterHandler[*CombatActionRequest](m, &CombatActionHandler{Deps: deps}) },
		func() error { return common.RegisterHandler[*CombatTickRequest](m, &CombatTickHandler{Deps: deps}) },
		func() error {
			return common.RegisterHandler[*CombatLeaveFightersRequest](m, &CombatLeaveFightersHandler{Deps: deps})
		},
		func() error {
			return common.RegisterHandler[*CombatSetGarrisonModeRequest](m, &CombatSetGarrisonModeHandler{Deps: deps})
		},
		func() error { return common.RegisterHandler[*EventQueryRequest](m, &EventQueryHandler{Deps: deps}) },
		func() error { return common.RegisterHandler[*TestResetRequest](m, &TestResetHandler{Deps: deps}) },
		func() error {
			return common.RegisterHandler[*CharacterDeleteRequest](m, &CharacterDeleteHandler{Deps: deps})
		},
	}

	for _, register := range registrations {
		if err := register(); err != nil {
			return fmt.Errorf("dispatcher: %w", err)
		}
	}
	return nil
}

// MethodTypes maps the wire-level "method" field (§6.1) onto a factory for
// its request struct, so the HTTP adapter can unmarshal the generic envelope
// into the concrete type before handing it to the mediator.
var MethodTypes = map[string]func() common.Request{
	"join":                      func() common.Request { return &JoinRequest{} },
	"my_status":                 func() common.Request { return &MyStatusRequest{} },
	"move":                      func() common.Request { return &MoveRequest{} },
	"list_known_ports":          func() common.Request { return &ListKnownPortsRequest{} },
	"bank_transfer":             func() common.Request { return &BankTransferRequest{} },
	"transfer_credits":          func() common.Request { return &TransferCreditsRequest{} },
	"transfer_warp_power":       func() common.Request { return &TransferWarpPowerRequest{} },
	"purchase_fighters":         func() common.Request { return &PurchaseFightersRequest{} },
	"ship_purchase":             func() common.Request { return &ShipPurchaseRequest{} },
	"dump_cargo":                func() common.Request { return &DumpCargoRequest{} },
	"salvage_collect":           func() common.Request { return &SalvageCollectRequest{} },
	"send_message":              func() common.Request { return &SendMessageRequest{} },
	"combat_initiate":           func() common.Request { return &CombatInitiateRequest{} },
	"combat_action":             func() common.Request { return &CombatActionRequest{} },
	"combat_tick":               func() common.Request { return &CombatTickRequest{} },
	"combat_leave_fighters":     func() common.Request { return &CombatLeaveFightersRequest{} },
	"combat_set_garrison_mode":  func() common.Request { return &CombatSetGarrisonModeRequest{} },
	"event_query":               func() common.Request { return &EventQueryRequest{} },
	"test_reset":                func() common.Request { return &TestResetRequest{} },
	"character_delete":          func() common.Request { return &CharacterDeleteRequest{} },
}
