package mysql

import (
	"context"

	actionDomain "pawn-settlement/internal/domain/action"
	"pawn-settlement/internal/domain/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActionRepository struct{ db *gorm.DB }

func NewActionRepository(db *gorm.DB) *ActionRepository { return &ActionRepository{db: db} }

// Create relies on the unique active_key: a second open request for the same contract
// is dropped by the database rather than by a read-then-write check.
func (r *ActionRepository) Create(ctx context.Context, a *actionDomain.ActionRequest) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(a)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return actionDomain.ErrPendingExists
	}
	return nil
}

func (r *ActionRepository) GetByRequestID(ctx context.Context, requestID string) (*actionDomain.ActionRequest, error) {
	var out actionDomain.ActionRequest
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, actionDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *ActionRepository) GetOpenByContractID(ctx context.Context, contractID string) (*actionDomain.ActionRequest, error) {
	var out actionDomain.ActionRequest
	res := r.db.WithContext(ctx).Where("active_key = ?", contractID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, actionDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *ActionRepository) Transition(ctx context.Context, a *actionDomain.ActionRequest, expected actionDomain.Status) error {
	if actionDomain.IsTerminal(a.Status) {
		a.ActiveKey = nil
	}
	res := r.db.WithContext(ctx).
		Model(&actionDomain.ActionRequest{}).
		Where("request_id = ? AND status = ? AND version = ?", a.RequestID, expected, a.Version).
		Updates(map[string]any{
			"status":                 a.Status,
			"slip_url":               a.SlipURL,
			"slip_attempts":          a.SlipAttempts,
			"investor_slip_url":      a.InvestorSlipURL,
			"investor_slip_attempts": a.InvestorSlipAttempts,
			"rejection_reason":       a.RejectionReason,
			"active_key":             a.ActiveKey,
			"version":                a.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrStaleState
	}
	a.Version++
	return nil
}

func (r *ActionRepository) AppendEvents(ctx context.Context, events []actionDomain.Event) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *ActionRepository) ListEvents(ctx context.Context, requestID string) ([]actionDomain.Event, error) {
	var out []actionDomain.Event
	res := r.db.WithContext(ctx).Where("request_id = ?", requestID).Order("id ASC").Find(&out)
	return out, res.Error
}
