package world

import "github.com/gradient-bang/server/internal/domain/shared"

// Corporation is a named group of characters that can jointly own ships,
// paid for out of a shared treasury.
type Corporation struct {
	ID      shared.ID
	Name    string
	Balance int
	Members []shared.ID
}

// NewCorporation validates and constructs a Corporation.
func NewCorporation(id shared.ID, name string, founder shared.ID) (*Corporation, error) {
	if name == "" {
		return nil, shared.NewValidationError("name", "cannot be empty")
	}
	return &Corporation{ID: id, Name: name, Members: []shared.ID{founder}}, nil
}

// Deposit credits the corporation's treasury.
func (c *Corporation) Deposit(amount int) error {
	if amount < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	c.Balance += amount
	return nil
}

// Withdraw debits the treasury (corporation ship purchases).
func (c *Corporation) Withdraw(amount int) error {
	if amount < 0 {
		return shared.NewValidationError("amount", "cannot be negative")
	}
	if c.Balance < amount {
		return shared.NewInsufficientResourceError("corporation_balance", amount, c.Balance)
	}
	c.Balance -= amount
	return nil
}

// HasMember reports whether characterID is an active member.
func (c *Corporation) HasMember(characterID shared.ID) bool {
	for _, m := range c.Members {
		if m.Equals(characterID) {
			return true
		}
	}
	return false
}

// AddMember adds a character to the roster if not already present.
func (c *Corporation) AddMember(characterID shared.ID) {
	if !c.HasMember(characterID) {
		c.Members = append(c.Members, characterID)
	}
}

// RemoveMember drops a character from the roster.
func (c *Corporation) RemoveMember(characterID shared.ID) {
	out := c.Members[:0]
	for _, m := range c.Members {
		if !m.Equals(characterID) {
			out = append(out, m)
		}
	}
	c.Members = out
}

// IsEmpty reports whether the corporation has no remaining members — the
// trigger for character_delete's empty-corporation cascade.
func (c *Corporation) IsEmpty() bool {
	return len(c.Members) == 0
}
