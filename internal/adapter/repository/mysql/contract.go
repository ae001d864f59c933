package mysql

import (
	"context"
	"time"

	contractDomain "pawn-settlement/internal/domain/contract"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContractRepository struct{ db *gorm.DB }

func NewContractRepository(db *gorm.DB) *ContractRepository { return &ContractRepository{db: db} }

func (r *ContractRepository) Create(ctx context.Context, c *contractDomain.Contract) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContractRepository) Save(ctx context.Context, c *contractDomain.Contract) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *ContractRepository) GetByContractID(ctx context.Context, contractID string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	res := r.db.WithContext(ctx).Where("contract_id = ?", contractID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, contractDomain.ErrNotFound)
	}
	return &out, nil
}

// GetByContractIDForUpdate takes SELECT ... FOR UPDATE; sqlite ignores the clause.
func (r *ContractRepository) GetByContractIDForUpdate(ctx context.Context, contractID string) (*contractDomain.Contract, error) {
	var out contractDomain.Contract
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract_id = ?", contractID).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, contractDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *ContractRepository) SumActivePrincipalByInvestor(ctx context.Context, investorID string) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&contractDomain.Contract{}).
		Select("SUM(loan_principal_amount - principal_paid)").
		Where("investor_id = ? AND status IN ?", investorID,
			[]contractDomain.Status{contractDomain.StatusActive, contractDomain.StatusConfirmed}).
		Row().Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *ContractRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]contractDomain.Contract, error) {
	var out []contractDomain.Contract
	res := r.db.WithContext(ctx).
		Where("status IN ? AND end_date < ?",
			[]contractDomain.Status{contractDomain.StatusActive, contractDomain.StatusConfirmed}, asOf).
		Order("end_date ASC, id ASC").
		Find(&out)
	return out, res.Error
}
