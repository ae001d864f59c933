package contractmock

import (
	"context"
	"time"

	domain "pawn-settlement/internal/domain/contract"

	"github.com/shopspring/decimal"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset getters return context.Canceled; unset writers are no-ops.
type Repo struct {
	CreateFn                       func(ctx context.Context, c *domain.Contract) error
	GetByContractIDFn              func(ctx context.Context, contractID string) (*domain.Contract, error)
	GetByContractIDForUpdateFn     func(ctx context.Context, contractID string) (*domain.Contract, error)
	SaveFn                         func(ctx context.Context, c *domain.Contract) error
	SumActivePrincipalByInvestorFn func(ctx context.Context, investorID string) (decimal.Decimal, error)
	ListOverdueFn                  func(ctx context.Context, asOf time.Time) ([]domain.Contract, error)
}

func (m *Repo) Create(ctx context.Context, c *domain.Contract) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *Repo) GetByContractID(ctx context.Context, contractID string) (*domain.Contract, error) {
	if m.GetByContractIDFn != nil {
		return m.GetByContractIDFn(ctx, contractID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByContractIDForUpdate(ctx context.Context, contractID string) (*domain.Contract, error) {
	if m.GetByContractIDForUpdateFn != nil {
		return m.GetByContractIDForUpdateFn(ctx, contractID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, c *domain.Contract) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, c)
	}
	return nil
}

func (m *Repo) SumActivePrincipalByInvestor(ctx context.Context, investorID string) (decimal.Decimal, error) {
	if m.SumActivePrincipalByInvestorFn != nil {
		return m.SumActivePrincipalByInvestorFn(ctx, investorID)
	}
	return decimal.Zero, context.Canceled
}

func (m *Repo) ListOverdue(ctx context.Context, asOf time.Time) ([]domain.Contract, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, asOf)
	}
	return nil, context.Canceled
}
