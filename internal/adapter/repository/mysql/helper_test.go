package mysql

import (
	"testing"
	"time"

	"pawn-settlement/internal/domain/contract"
	"pawn-settlement/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB creates an in-memory sqlite DB with every table migrated. One connection,
// otherwise each pooled connection would see its own empty database.
func openTestDB(t *testing.T) *gorm.DB {
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
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func makeContract(investorID string, principal string, status contract.Status) *contract.Contract {
	return &contract.Contract{
		ContractID:          id.NewID32(),
		PawnerID:            "U-pawner",
		InvestorID:          investorID,
		DropPointID:         "DP-1",
		LoanPrincipalAmount: decimal.RequireFromString(principal),
		InterestRate:        decimal.RequireFromString("1.5"),
		TermDays:            30,
		StartDate:           day(2025, 1, 1),
		EndDate:             day(2025, 1, 31),
		Status:              status,
		TotalAmount:         decimal.RequireFromString(principal),
	}
}
