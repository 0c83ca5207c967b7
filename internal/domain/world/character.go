package world

import (
	"strings"
	"time"

	"github.com/gradient-bang/server/internal/domain/shared"
)

// Character is a pilot: id, display name, current ship, bank balance,
// optional corporation membership, map knowledge, and activity metadata.
//
// Invariants:
// - DisplayName is unique case-insensitively (enforced by the repository)
// - BankBalance is never negative
// - CurrentShipID, if set, names a ship this character is entitled to fly
type Character struct {
	id            shared.ID
	displayName   string
	currentShipID *shared.ID
	bankBalance   int
	corporationID *shared.ID
	knowledge     *MapKnowledge
	lastActive    time.Time
	isNPC         bool
	metadata      map[string]interface{}
}

// NewCharacter creates a new Character with validation.
func NewCharacter(id shared.ID, displayName string, isNPC bool, now time.Time) (*Character, error) {
	trimmed := strings.TrimSpace(displayName)
	if trimmed == "" {
		return nil, shared.NewValidationError("display_name", "cannot be empty")
	}
	return &Character{
		id:          id,
		displayName: trimmed,
		bankBalance: 0,
		knowledge:   NewMapKnowledge(id.String()),
		lastActive:  now,
		isNPC:       isNPC,
		metadata:    map[string]interface{}{},
	}, nil
}

// ReconstructCharacter rebuilds a Character from persisted state.
func ReconstructCharacter(
	id shared.ID,
	displayName string,
	currentShipID *shared.ID,
	bankBalance int,
	corporationID *shared.ID,
	knowledge *MapKnowledge,
	lastActive time.Time,
	isNPC bool,
	metadata map[string]interface{},
) (*Character, error) {
	if displayName == "" {
		return nil, shared.NewValidationError("display_name", "cannot be empty")
	}
	if bankBalance < 0 {
		return nil, shared.NewValidationError("bank_balance", "cannot be negative")
	}
	if knowledge == nil {
		knowledge = NewMapKnowledge(id.String())
	}
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	return &Character{
		id:            id,
		displayName:   displayName,
		currentShipID: currentShipID,
		bankBalance:   bankBalance,
		corporationID: corporationID,
		knowledge:     knowledge,
		lastActive:    lastActive,
		isNPC:         isNPC,
		metadata:      metadata,
	}, nil
}

func (c *Character) ID() shared.ID                   { return c.id }
func (c *Character) DisplayName() string             { return c.displayName }
func (c *Character) CurrentShipID() *shared.ID       { return c.currentShipID }
func (c *Character) BankBalance() int                { return c.bankBalance }
func (c *Character) CorporationID() *shared.ID       { return c.corporationID }
func (c *Character) Knowledge() *MapKnowledge        { return c.knowledge }
func (c *Character) LastActive() time.Time           { return c.lastActive }
func (c *Character) IsNPC() bool                     { return c.isNPC }
func (c *Character) Metadata() map[string]interface{} { return c.metadata }

// InCorporation reports whether the character belongs to any corporation.
func (c *Character) InCorporation() bool {
	return c.corporationID != nil
}

// SameCorporation reports whether both characters share a non-nil
// corporation.
func (c *Character) SameCorporation(other *Character) bool {
	if c.corporationID == nil || other.corporationID == nil {
		return false
	}
	return c.corporationID.Equals(*other.corporationID)
}

// AssignShip binds the character to a ship (join, ship_purchase, trade-in).
func (c *Character) AssignShip(shipID shared.ID) {
	c.currentShipID = &shipID
}

// Touch records activity at the given time (e.g. on every accepted request).
func (c *Character) Touch(now time.Time) {
	c.lastActive = now
}

// JoinCorporation sets corporation membership.
func (c *Character) JoinCorporation(corpID shared.ID) {
	c.corporationID = &corpID
}

// LeaveCorporation clears corporation membership.
func (c *Character) LeaveCorporation() {
	c.corporationID = nil
}

// Deposit moves credits from the ship's wallet into the bank.
func (c *Character) Deposit(amount int) error {
	if amount < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	c.bankBalance += amount
	return nil
}

// Withdraw moves credits from the bank out to the ship's wallet.
func (c *Character) Withdraw(amount int) error {
	if amount < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	if c.bankBalance < amount {
		return shared.NewInsufficientResourceError("bank_balance", amount, c.bankBalance)
	}
	c.bankBalance -= amount
	return nil
}
