package dispatcher

// RateLimitMethod satisfies common.RateLimited so RateLimitMiddleware keys its
// rule table by the same wire method name used for routing (§6.5) rather than
// the Go struct name. Kept in one file alongside MethodTypes since both are
// the same wire-name mapping, registered from two different angles.

func (*JoinRequest) RateLimitMethod() string                     { return "join" }
func (*MoveRequest) RateLimitMethod() string                     { return "move" }
func (*MyStatusRequest) RateLimitMethod() string                 { return "my_status" }
func (*ListKnownPortsRequest) RateLimitMethod() string            { return "list_known_ports" }
func (*BankTransferRequest) RateLimitMethod() string              { return "bank_transfer" }
func (*TransferCreditsRequest) RateLimitMethod() string           { return "transfer_credits" }
func (*TransferWarpPowerRequest) RateLimitMethod() string         { return "transfer_warp_power" }
func (*PurchaseFightersRequest) RateLimitMethod() string          { return "purchase_fighters" }
func (*ShipPurchaseRequest) RateLimitMethod() string              { return "ship_purchase" }
func (*DumpCargoRequest) RateLimitMethod() string                 { return "dump_cargo" }
func (*SalvageCollectRequest) RateLimitMethod() string            { return "salvage_collect" }
func (*SendMessageRequest) RateLimitMethod() string               { return "send_message" }
func (*CombatInitiateRequest) RateLimitMethod() string            { return "combat_initiate" }
func (*CombatActionRequest) RateLimitMethod() string              { return "combat_action" }
func (*CombatTickRequest) RateLimitMethod() string                { return "combat_tick" }
func (*CombatLeaveFightersRequest) RateLimitMethod() string       { return "combat_leave_fighters" }
func (*CombatSetGarrisonModeRequest) RateLimitMethod() string     { return "combat_set_garrison_mode" }
func (*EventQueryRequest) RateLimitMethod() string                { return "event_query" }
func (*TestResetRequest) RateLimitMethod() string                 { return "test_reset" }
func (*CharacterDeleteRequest) RateLimitMethod() string           { return "character_delete" }
