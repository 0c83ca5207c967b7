package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gorm.io/gorm"
)

// GormAdminRepository implements world.AdminStore: the destructive,
// world-wide operations behind test_reset.
type GormAdminRepository struct {
	db          *gorm.DB
	fixturePath string
}

func NewGormAdminRepository(db *gorm.DB, fixturePath string) *GormAdminRepository {
	return &GormAdminRepository{db: db, fixturePath: fixturePath}
}

// mutableTables lists every table TruncateAll clears, in child-before-parent
// order. ship_definitions and universe_structure are the static universe and
// are never truncated.
var mutableTables = []string{
	"event_character_recipients",
	"events",
	"transactions",
	"rate_limits",
	"combat_encounters",
	"salvage",
	"garrisons",
	"corporation_members",
	"corporation_ships",
	"corporations",
	"ship_instances",
	"characters",
}

func (r *GormAdminRepository) TruncateAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, table := range mutableTables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				return fmt.Errorf("truncating %s: %w", table, err)
			}
		}
		return nil
	})
}

// universeFixture is the on-disk shape re-seeded by SeedFixtures: port stock
// levels and sector observer channels, the only "static" world state that
// actually mutates during play.
type universeFixture struct {
	Ports []struct {
		SectorID int    `json:"sector_id"`
		Code     string `json:"code"`
		Capacity [3]int `json:"capacity"`
		Stock    [3]int `json:"stock"`
	} `json:"ports"`
	SectorContents []struct {
		SectorID         int      `json:"sector_id"`
		ObserverChannels []string `json:"observer_channels"`
	} `json:"sector_contents"`
}

// SeedFixtures loads r.fixturePath and upserts its port/sector-contents rows.
// A missing fixture file is not an error: a fresh deployment with no
// fixture configured simply leaves ports at whatever the migration created.
func (r *GormAdminRepository) SeedFixtures(ctx context.Context) error {
	raw, err := os.ReadFile(r.fixturePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading fixture file: %w", err)
	}

	var fixture universeFixture
	if err := json.Unmarshal(raw, &fixture); err != nil {
		return fmt.Errorf("parsing fixture file: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range fixture.Ports {
			capacityJSON, err := json.Marshal(p.Capacity)
			if err != nil {
				return err
			}
			stockJSON, err := json.Marshal(p.Stock)
			if err != nil {
				return err
			}
			model := PortModel{SectorID: p.SectorID, Code: p.Code, Capacity: string(capacityJSON), Stock: string(stockJSON)}
			if err := tx.Save(&model).Error; err != nil {
				return fmt.Errorf("seeding port %d: %w", p.SectorID, err)
			}
		}
		for _, sc := range fixture.SectorContents {
			channelsJSON, err := json.Marshal(sc.ObserverChannels)
			if err != nil {
				return err
			}
			model := SectorContentsModel{SectorID: sc.SectorID, ObserverChannels: string(channelsJSON)}
			if err := tx.Save(&model).Error; err != nil {
				return fmt.Errorf("seeding sector_contents %d: %w", sc.SectorID, err)
			}
		}
		return nil
	})
}
