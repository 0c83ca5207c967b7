package helpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/gradient-bang/server/internal/infrastructure/database"
)

// NewTestDB creates a fresh in-memory SQLite database, migrated and ready
// for a single test. Cleaned up automatically via t.Cleanup.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewTestConnection()
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close(db)
	})

	return db
}
