package uow

import (
	"context"

	"pawn-settlement/internal/domain/action"
	"pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/penalty"
	"pawn-settlement/internal/domain/redemption"
)

// domain/uow/uow.go
type Repos struct {
	Contracts   contract.Repository
	Actions     action.Repository
	Penalties   penalty.Repository
	Redemptions redemption.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the contract row first, then pass it in
	WithinContractTx(ctx context.Context, contractID string, fn func(r Repos, c *contract.Contract) error) error
}
