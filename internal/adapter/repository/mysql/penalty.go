package mysql

import (
	"context"
	"time"

	"pawn-settlement/internal/domain/errs"
	penaltyDomain "pawn-settlement/internal/domain/penalty"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PenaltyRepository struct{ db *gorm.DB }

func NewPenaltyRepository(db *gorm.DB) *PenaltyRepository { return &PenaltyRepository{db: db} }

func (r *PenaltyRepository) CreateIfAbsent(ctx context.Context, p *penaltyDomain.Payment) (*penaltyDomain.Payment, bool, error) {
	if p.ActiveKey == nil {
		key := penaltyDomain.ActiveKeyFor(p.ContractID, p.PenaltyDate)
		p.ActiveKey = &key
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return p, true, nil
	}
	var existing penaltyDomain.Payment
	if err := r.db.WithContext(ctx).Where("active_key = ?", *p.ActiveKey).First(&existing).Error; err != nil {
		return nil, false, notFound(err, penaltyDomain.ErrNotFound)
	}
	return &existing, false, nil
}

func (r *PenaltyRepository) GetByPaymentID(ctx context.Context, paymentID string) (*penaltyDomain.Payment, error) {
	var out penaltyDomain.Payment
	res := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, penaltyDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *PenaltyRepository) GetActiveForDay(ctx context.Context, contractID string, day time.Time) (*penaltyDomain.Payment, error) {
	var out penaltyDomain.Payment
	res := r.db.WithContext(ctx).
		Where("active_key = ?", penaltyDomain.ActiveKeyFor(contractID, day)).
		First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, penaltyDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *PenaltyRepository) ListPayable(ctx context.Context, contractID string) ([]penaltyDomain.Payment, error) {
	var out []penaltyDomain.Payment
	res := r.db.WithContext(ctx).
		Where("contract_id = ? AND status IN ?", contractID,
			[]penaltyDomain.Status{penaltyDomain.StatusPending, penaltyDomain.StatusRejected}).
		Order("penalty_date ASC").
		Find(&out)
	return out, res.Error
}

func (r *PenaltyRepository) Update(ctx context.Context, p *penaltyDomain.Payment, expected penaltyDomain.Status, expectedAttempts int) error {
	if p.Status == penaltyDomain.StatusCancelled {
		p.ActiveKey = nil
	}
	res := r.db.WithContext(ctx).
		Model(&penaltyDomain.Payment{}).
		Where("payment_id = ? AND status = ? AND attempt_count = ?", p.PaymentID, expected, expectedAttempts).
		Updates(map[string]any{
			"status":            p.Status,
			"slip_url":          p.SlipURL,
			"detected_amount":   p.DetectedAmount,
			"attempt_count":     p.AttemptCount,
			"paid_through_date": p.PaidThroughDate,
			"active_key":        p.ActiveKey,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrStaleState
	}
	return nil
}
