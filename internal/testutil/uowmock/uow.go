package uowmock

import (
	"context"
	"errors"

	"pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/uow"
)

// Ensure compile-time compliance
var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Fill in the function fields you need in a test; unfilled ones return errUnimplemented.
type UoW struct {
	WithinTxFn         func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinContractTxFn func(ctx context.Context, contractID string, fn func(r uow.Repos, c *contract.Contract) error) error
}

// Passthrough returns a UoW that runs every body directly against repos, handing
// WithinContractTx the contract repos.Contracts returns for the locked read.
func Passthrough(repos uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error { return fn(repos) },
		WithinContractTxFn: func(ctx context.Context, contractID string, fn func(uow.Repos, *contract.Contract) error) error {
			c, err := repos.Contracts.GetByContractIDForUpdate(ctx, contractID)
			if err != nil {
				return err
			}
			return fn(repos, c)
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinContractTx(ctx context.Context, contractID string, fn func(r uow.Repos, c *contract.Contract) error) error {
	if m.WithinContractTxFn != nil {
		return m.WithinContractTxFn(ctx, contractID, fn)
	}
	return errUnimplemented
}
