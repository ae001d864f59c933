package contract

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Create(ctx context.Context, c *Contract) error
	GetByContractID(ctx context.Context, contractID string) (*Contract, error)
	// Row lock; only meaningful inside a unit of work.
	GetByContractIDForUpdate(ctx context.Context, contractID string) (*Contract, error)
	Save(ctx context.Context, c *Contract) error

	// Remaining principal over the investor's ACTIVE/CONFIRMED contracts.
	SumActivePrincipalByInvestor(ctx context.Context, investorID string) (decimal.Decimal, error)
	// Open contracts whose end date is before asOf.
	ListOverdue(ctx context.Context, asOf time.Time) ([]Contract, error)
}
