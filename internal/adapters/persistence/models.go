package persistence

import "time"

// CharacterModel is the GORM row for the characters table.
type CharacterModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	DisplayName   string `gorm:"uniqueIndex;not null"`
	CurrentShipID *string
	BankBalance   int `gorm:"not null;default:0"`
	CorporationID *string
	Knowledge     string `gorm:"type:jsonb"` // serialized world.MapKnowledge
	LastActive    time.Time
	IsNPC         bool
	Metadata      string `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (CharacterModel) TableName() string { return "characters" }

// ShipInstanceModel is the GORM row for the ship_instances table.
type ShipInstanceModel struct {
	ID            string `gorm:"primaryKey;type:uuid"`
	TypeID        string `gorm:"index;not null"`
	DisplayName   string
	OwnerKind     string `gorm:"not null;index"`
	OwnerID       *string
	CurrentSector *int       `gorm:"index"`
	InTransit     bool
	TransitDest   *int
	TransitETA    *time.Time `gorm:"index"`
	Credits       int
	Cargo         string `gorm:"type:jsonb"` // serialized map[CommodityCode]int
	CargoHolds    int
	WarpPower     int
	WarpCapacity  int
	Shields       int
	MaxShields    int
	Fighters      int
	MaxFighters   int
	IsEscapePod   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (ShipInstanceModel) TableName() string { return "ship_instances" }

// ShipDefinitionModel is the GORM row for the ship_definitions table — read-mostly
// seed data describing purchasable ship types.
type ShipDefinitionModel struct {
	TypeID          string `gorm:"primaryKey"`
	DisplayName     string
	WarpCost        int
	WarpCapacity    int
	ShieldCapacity  int
	FighterCapacity int
	CargoHolds      int
	PurchasePrice   int
	TurnsPerWarp    int
	IsEscapePod     bool
}

func (ShipDefinitionModel) TableName() string { return "ship_definitions" }

// UniverseStructureModel is one row of the universe_structure table: a
// sector's position, region, and outbound warp edges.
type UniverseStructureModel struct {
	SectorID int `gorm:"primaryKey;autoIncrement:false"`
	X        int
	Y        int
	Region   string
	Edges    string `gorm:"type:jsonb"` // serialized []world.WarpEdge
}

func (UniverseStructureModel) TableName() string { return "universe_structure" }

// UniverseConfigModel is a flat key/value row for universe-wide settings
// that don't belong to any single sector (e.g. the commodity base prices).
type UniverseConfigModel struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

func (UniverseConfigModel) TableName() string { return "universe_config" }

// PortModel is the GORM row for the ports table.
type PortModel struct {
	SectorID int    `gorm:"primaryKey;autoIncrement:false"`
	Code     string `gorm:"size:3;not null"`
	Capacity string `gorm:"type:jsonb"` // serialized [3]int
	Stock    string `gorm:"type:jsonb"` // serialized [3]int
}

func (PortModel) TableName() string { return "ports" }

// GarrisonModel is the GORM row for the garrisons table, keyed by
// (sector_id, owner_character_id).
type GarrisonModel struct {
	SectorID       int    `gorm:"primaryKey;autoIncrement:false"`
	OwnerCharacter string `gorm:"primaryKey;type:uuid"`
	Fighters       int
	Mode           string
	TollAmount     int
	TollBalance    int
	DeployedAt     time.Time
}

func (GarrisonModel) TableName() string { return "garrisons" }

// SalvageModel is the GORM row for salvage entries dropped by destruction or
// deliberate dumping.
type SalvageModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	SectorID  int    `gorm:"index"`
	Cargo     string `gorm:"type:jsonb"`
	Scrap     int
	Credits   int
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
	Claimed   bool
}

func (SalvageModel) TableName() string { return "salvage" }

// SectorContentsModel is the GORM row for the sector_contents table: the
// mutable per-sector bundle of observer channels and the active combat ref.
type SectorContentsModel struct {
	SectorID         int    `gorm:"primaryKey;autoIncrement:false"`
	ObserverChannels string `gorm:"type:jsonb"`
	ActiveCombatID   *string
}

func (SectorContentsModel) TableName() string { return "sector_contents" }

// CorporationModel is the GORM row for the corporations table.
type CorporationModel struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	Name    string `gorm:"uniqueIndex"`
	Balance int    `gorm:"not null;default:0"`
}

func (CorporationModel) TableName() string { return "corporations" }

// CorporationMemberModel is the GORM row for the corporation_members table.
type CorporationMemberModel struct {
	CorporationID string `gorm:"primaryKey;type:uuid"`
	CharacterID   string `gorm:"primaryKey;type:uuid;index"`
}

func (CorporationMemberModel) TableName() string { return "corporation_members" }

// CorporationShipModel is the GORM row for the corporation_ships table,
// tracking which ship instances a corporation jointly owns.
type CorporationShipModel struct {
	CorporationID string `gorm:"primaryKey;type:uuid"`
	ShipID        string `gorm:"primaryKey;type:uuid"`
}

func (CorporationShipModel) TableName() string { return "corporation_ships" }

// EventModel is the GORM row for the append-only events table.
type EventModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Direction  string    `gorm:"not null"`
	Type       string    `gorm:"index;not null"`
	Payload    string    `gorm:"type:jsonb"`
	Timestamp  time.Time `gorm:"index"`
	Originator *string   `gorm:"index"`
	SectorID   *int      `gorm:"index"`
	ShipID     *string
	RequestID  string
	Meta       string `gorm:"type:jsonb"`
}

func (EventModel) TableName() string { return "events" }

// EventCharacterRecipientModel is the GORM row for the
// event_character_recipients fan-out table.
type EventCharacterRecipientModel struct {
	EventID     int64  `gorm:"primaryKey;index"`
	CharacterID string `gorm:"primaryKey;type:uuid;index"`
	Reason      string
}

func (EventCharacterRecipientModel) TableName() string { return "event_character_recipients" }

// RateLimitModel is the GORM row for the rate_limits table: a fixed-window
// counter keyed by (character_id, method), backing the dispatcher's
// per-method throttle across process restarts.
type RateLimitModel struct {
	CharacterID string `gorm:"primaryKey;type:uuid"`
	Method      string `gorm:"primaryKey"`
	WindowStart time.Time
	Count       int
}

func (RateLimitModel) TableName() string { return "rate_limits" }

// CombatEncounterModel is the GORM row persisting combat.Encounter between
// round resolutions, with optimistic concurrency on Round.
type CombatEncounterModel struct {
	CombatID           string `gorm:"primaryKey;type:uuid"`
	SectorID           int    `gorm:"index"`
	Round              int
	Deadline           *time.Time `gorm:"index"`
	Participants       string     `gorm:"type:jsonb"`
	PendingActions     string     `gorm:"type:jsonb"`
	Logs               string     `gorm:"type:jsonb"`
	Initiator          string     `gorm:"type:uuid"`
	CreatedAt          time.Time
	GarrisonSources    string `gorm:"type:jsonb"`
	TollRegistry       string `gorm:"type:jsonb"`
	AwaitingResolution bool
	Ended              bool
	EndState           string
	BaseSeed           uint32
	LastUpdated        time.Time
}

func (CombatEncounterModel) TableName() string { return "combat_encounters" }

// TransactionModel is the GORM row for the ledger's transactions table.
type TransactionModel struct {
	ID                string    `gorm:"primaryKey;type:uuid"`
	CharacterID       string    `gorm:"index;type:uuid;not null"`
	Timestamp         time.Time `gorm:"index"`
	TransactionType   string
	Category          string
	Amount            int
	BalanceBefore     int
	BalanceAfter      int
	Description       string
	Metadata          string `gorm:"type:jsonb"`
	RelatedEntityType string
	RelatedEntityID   string
	OperationType     string
}

func (TransactionModel) TableName() string { return "transactions" }
