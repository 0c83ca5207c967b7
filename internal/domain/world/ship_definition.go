package world

import "github.com/gradient-bang/server/internal/domain/shared"

// ShipDefinition is the per-type template ships are purchased against.
type ShipDefinition struct {
	TypeID        string
	DisplayName   string
	WarpCost      int // warp power spent per jump
	WarpCapacity  int
	ShieldCapacity int
	FighterCapacity int
	CargoHolds    int
	PurchasePrice int
	TurnsPerWarp  int // hyperspace turn cost factor, feeds flee-success (§11)
	IsEscapePod   bool
}

// NewShipDefinition validates and constructs a ShipDefinition.
func NewShipDefinition(typeID, displayName string, warpCost, warpCapacity, shieldCapacity, fighterCapacity, cargoHolds, purchasePrice, turnsPerWarp int, isEscapePod bool) (*ShipDefinition, error) {
	if typeID == "" {
		return nil, shared.NewValidationError("ship_type", "cannot be empty")
	}
	if warpCost < 0 || warpCapacity < 0 || shieldCapacity < 0 || fighterCapacity < 0 || cargoHolds < 0 || purchasePrice < 0 {
		return nil, shared.NewValidationError("ship_definition", "capacities and prices must be non-negative")
	}
	if turnsPerWarp <= 0 {
		turnsPerWarp = 1
	}
	return &ShipDefinition{
		TypeID:          typeID,
		DisplayName:     displayName,
		WarpCost:        warpCost,
		WarpCapacity:    warpCapacity,
		ShieldCapacity:  shieldCapacity,
		FighterCapacity: fighterCapacity,
		CargoHolds:      cargoHolds,
		PurchasePrice:   purchasePrice,
		TurnsPerWarp:    turnsPerWarp,
		IsEscapePod:     isEscapePod,
	}, nil
}
