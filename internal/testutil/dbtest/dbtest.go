// Package dbtest opens a migrated in-memory sqlite database for usecase tests.
package dbtest

import (
	"testing"

	"pawn-settlement/internal/adapter/repository/mysql"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a sqlite database with every table migrated. It is pinned to one
// connection because each new :memory: connection would be a fresh empty database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(mysql.Models()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}
