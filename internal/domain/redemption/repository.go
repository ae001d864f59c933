package redemption

import "context"

type Repository interface {
	// Create fails with ErrPendingExists if the contract already has a non-terminal request.
	Create(ctx context.Context, r *Request) error
	GetByRedemptionID(ctx context.Context, redemptionID string) (*Request, error)
	GetOpenByContractID(ctx context.Context, contractID string) (*Request, error)
	// Transition writes r only if the stored status is still expected; else errs.ErrStaleState.
	Transition(ctx context.Context, r *Request, expected Status) error
}
