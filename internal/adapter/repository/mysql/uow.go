package mysql

import (
	"context"

	"pawn-settlement/internal/domain/action"
	"pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/penalty"
	"pawn-settlement/internal/domain/redemption"
	"pawn-settlement/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Contracts:   &ContractRepository{db: tx},
		Actions:     &ActionRepository{db: tx},
		Penalties:   &PenaltyRepository{db: tx},
		Redemptions: &RedemptionRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinContractTx(ctx context.Context, contractID string, fn func(r uow.Repos, c *contract.Contract) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the contract row up-front; every write path for one contract serialises here
		c, err := r.Contracts.GetByContractIDForUpdate(ctx, contractID)
		if err != nil {
			return err
		}
		return fn(r, c)
	})
}

// Models lists every table this adapter owns, in migration order.
func Models() []any {
	return []any{
		&contract.Contract{},
		&action.ActionRequest{},
		&action.Event{},
		&penalty.Payment{},
		&redemption.Request{},
	}
}
