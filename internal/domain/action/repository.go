package action

import "context"

type Repository interface {
	// Create fails with ErrPendingExists when the contract already has a non-terminal request.
	Create(ctx context.Context, r *ActionRequest) error
	GetByRequestID(ctx context.Context, requestID string) (*ActionRequest, error)
	GetOpenByContractID(ctx context.Context, contractID string) (*ActionRequest, error)

	// Transition persists r (status and any changed fields) only if the stored row is still at
	// expected status and r.Version. On success r.Version is bumped. Otherwise errs.ErrStaleState.
	Transition(ctx context.Context, r *ActionRequest, expected Status) error

	AppendEvents(ctx context.Context, events []Event) error
	ListEvents(ctx context.Context, requestID string) ([]Event, error)
}
