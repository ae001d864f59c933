package actionmock

import (
	"context"

	domain "pawn-settlement/internal/domain/action"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Only methods you need are included; add more as tests require.
type Repo struct {
	CreateFn              func(ctx context.Context, r *domain.ActionRequest) error
	GetByRequestIDFn      func(ctx context.Context, requestID string) (*domain.ActionRequest, error)
	GetOpenByContractIDFn func(ctx context.Context, contractID string) (*domain.ActionRequest, error)
	TransitionFn          func(ctx context.Context, r *domain.ActionRequest, expected domain.Status) error
	AppendEventsFn        func(ctx context.Context, events []domain.Event) error
	ListEventsFn          func(ctx context.Context, requestID string) ([]domain.Event, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.ActionRequest) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByRequestID(ctx context.Context, requestID string) (*domain.ActionRequest, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetOpenByContractID(ctx context.Context, contractID string) (*domain.ActionRequest, error) {
	if m.GetOpenByContractIDFn != nil {
		return m.GetOpenByContractIDFn(ctx, contractID)
	}
	return nil, context.Canceled
}

func (m *Repo) Transition(ctx context.Context, r *domain.ActionRequest, expected domain.Status) error {
	if m.TransitionFn != nil {
		return m.TransitionFn(ctx, r, expected)
	}
	return nil
}

func (m *Repo) AppendEvents(ctx context.Context, events []domain.Event) error {
	if m.AppendEventsFn != nil {
		return m.AppendEventsFn(ctx, events)
	}
	return nil
}

func (m *Repo) ListEvents(ctx context.Context, requestID string) ([]domain.Event, error) {
	if m.ListEventsFn != nil {
		return m.ListEventsFn(ctx, requestID)
	}
	return nil, context.Canceled
}
