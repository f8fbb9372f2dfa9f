package repositories

import (
	"testing"

	"gorm.io/gorm"

	"chatlist/internal/database"
)

// newTestDB opens a fresh in-memory database with the full schema and the
// seeded defaults. The pool holds a single connection, so the database lives
// until the test ends.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Init(database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("init database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
