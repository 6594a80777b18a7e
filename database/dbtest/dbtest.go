// Package dbtest provides isolated, migrated databases for tests.
package dbtest

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warbler/database"
)

// New returns a fresh in-memory SQLite database with all tables migrated.
// Every call gets its own database, which is closed when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db := database.NewDB(sqlite.Open(dsn))
	gdb, err := gorm.Open(db.Dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	db.Gorm = gdb
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	// The in-memory database lives as long as its connection does.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := database.Close(db); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return gdb
}
