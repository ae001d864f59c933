package mysql

import (
	"context"

	"pawn-settlement/internal/domain/errs"
	redemptionDomain "pawn-settlement/internal/domain/redemption"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RedemptionRepository struct{ db *gorm.DB }

func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

func (r *RedemptionRepository) Create(ctx context.Context, req *redemptionDomain.Request) error {
	if req.ActiveKey == nil {
		key := req.ContractID
		req.ActiveKey = &key
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(req)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return redemptionDomain.ErrPendingExists
	}
	return nil
}

func (r *RedemptionRepository) GetByRedemptionID(ctx context.Context, redemptionID string) (*redemptionDomain.Request, error) {
	var out redemptionDomain.Request
	res := r.db.WithContext(ctx).Where("redemption_id = ?", redemptionID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, redemptionDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *RedemptionRepository) GetOpenByContractID(ctx context.Context, contractID string) (*redemptionDomain.Request, error) {
	var out redemptionDomain.Request
	res := r.db.WithContext(ctx).Where("active_key = ?", contractID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, redemptionDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *RedemptionRepository) Transition(ctx context.Context, req *redemptionDomain.Request, expected redemptionDomain.Status) error {
	if redemptionDomain.IsTerminal(req.Status) {
		req.ActiveKey = nil
	}
	res := r.db.WithContext(ctx).
		Model(&redemptionDomain.Request{}).
		Where("redemption_id = ? AND status = ?", req.RedemptionID, expected).
		Updates(map[string]any{
			"status":                     req.Status,
			"slip_url":                   req.SlipURL,
			"additional_amount_required": req.AdditionalAmountRequired,
			"receipt_photos":             req.ReceiptPhotos,
			"rejection_reason":           req.RejectionReason,
			"investor_interest_earned":   req.InvestorInterestEarned,
			"platform_fee_deducted":      req.PlatformFeeDeducted,
			"investor_net_profit":        req.InvestorNetProfit,
			"completed_at":               req.CompletedAt,
			"active_key":                 req.ActiveKey,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrStaleState
	}
	return nil
}
