package penalty

import (
	"context"
	"time"
)

type Repository interface {
	// CreateIfAbsent inserts p unless a live payment already exists for its
	// (contract, day); either way it returns the live row and whether it was inserted.
	CreateIfAbsent(ctx context.Context, p *Payment) (*Payment, bool, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	GetActiveForDay(ctx context.Context, contractID string, day time.Time) (*Payment, error)
	// PENDING or REJECTED rows for the contract, oldest day first.
	ListPayable(ctx context.Context, contractID string) ([]Payment, error)
	// Update writes p only if the stored row still has expected status and attempt count.
	// Otherwise errs.ErrStaleState.
	Update(ctx context.Context, p *Payment, expected Status, expectedAttempts int) error
}
