package penalty

import (
	"time"

	domainPenalty "pawn-settlement/internal/domain/penalty"

	"github.com/shopspring/decimal"
)

// StatusDTO answers "does this contract owe a late fee today".
type StatusDTO struct {
	Required          bool                 `json:"required"`
	AlreadyPaid       bool                 `json:"already_paid"`
	PaymentID         string               `json:"payment_id,omitempty"`
	Status            domainPenalty.Status `json:"status,omitempty"`
	PenaltyDate       *time.Time           `json:"penalty_date,omitempty"`
	PenaltyAmount     decimal.Decimal      `json:"penalty_amount"`
	DaysOverdue       int                  `json:"days_overdue"`
	RemainingAttempts int                  `json:"remaining_attempts"`
	PaidThroughDate   *time.Time           `json:"paid_through_date,omitempty"`
}

type VerifyInput struct {
	PaymentID string
	SlipURL   string
	// Optional; when set it must be the contract's pawner.
	PawnerID string
}

type SlipResultDTO struct {
	Success           bool             `json:"success"`
	Result            string           `json:"result"`
	Message           string           `json:"message"`
	DetectedAmount    *decimal.Decimal `json:"detected_amount,omitempty"`
	Difference        *decimal.Decimal `json:"difference,omitempty"`
	RemainingAttempts int              `json:"remaining_attempts"`
	SupportPhone      string           `json:"support_phone,omitempty"`
	Payment           *StatusDTO       `json:"payment"`
}

type SweepReport struct {
	Checked int `json:"checked"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

func toDTO(p *domainPenalty.Payment) *StatusDTO {
	day := p.PenaltyDate
	return &StatusDTO{
		Required:          domainPenalty.Payable(p.Status),
		AlreadyPaid:       p.Status == domainPenalty.StatusVerified,
		PaymentID:         p.PaymentID,
		Status:            p.Status,
		PenaltyDate:       &day,
		PenaltyAmount:     p.PenaltyAmount,
		DaysOverdue:       p.DaysOverdue,
		RemainingAttempts: domainPenalty.RemainingAttempts(p.AttemptCount),
		PaidThroughDate:   p.PaidThroughDate,
	}
}
