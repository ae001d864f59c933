package action

import (
	"time"

	domainAction "pawn-settlement/internal/domain/action"

	"github.com/shopspring/decimal"
)

type CreateInput struct {
	ContractID  string
	RequestType domainAction.RequestType
	Amount      decimal.Decimal
	Actor       string
}

type SlipInput struct {
	RequestID string
	SlipURL   string
	Actor     string
}

const (
	ResponseApprove = "APPROVE"
	ResponseReject  = "REJECT"
)

type RespondInput struct {
	RequestID string
	Actor     string
	Action    string
	Reason    string
}

type RequestDTO struct {
	RequestID            string                   `json:"request_id"`
	ContractID           string                   `json:"contract_id"`
	RequestType          domainAction.RequestType `json:"request_type"`
	IncreaseAmount       *decimal.Decimal         `json:"increase_amount,omitempty"`
	ReductionAmount      *decimal.Decimal         `json:"reduction_amount,omitempty"`
	InterestToPay        *decimal.Decimal         `json:"interest_to_pay,omitempty"`
	RedemptionAmount     *decimal.Decimal         `json:"redemption_amount,omitempty"`
	InterestDue          decimal.Decimal          `json:"interest_due"`
	TotalAmount          decimal.Decimal          `json:"total_amount"`
	InvestorTransfer     *decimal.Decimal         `json:"investor_transfer,omitempty"`
	Status               domainAction.Status      `json:"status"`
	SlipAttempts         int                      `json:"slip_attempts"`
	InvestorSlipAttempts int                      `json:"investor_slip_attempts"`
	RejectionReason      *string                  `json:"rejection_reason,omitempty"`
	CreatedAt            time.Time                `json:"created_at"`
	UpdatedAt            time.Time                `json:"updated_at"`
	Events               []domainAction.Event     `json:"events,omitempty"`
}

// SlipResultDTO is returned for every slip upload, accepted or not. Rejections carry the
// shortfall and the attempts left; a final rejection carries the support phone.
type SlipResultDTO struct {
	Success           bool             `json:"success"`
	Result            string           `json:"result"`
	Message           string           `json:"message"`
	DetectedAmount    *decimal.Decimal `json:"detected_amount,omitempty"`
	Difference        *decimal.Decimal `json:"difference,omitempty"`
	RemainingAttempts int              `json:"remaining_attempts"`
	SupportPhone      string           `json:"support_phone,omitempty"`
	Request           *RequestDTO      `json:"request"`
}

func toDTO(r *domainAction.ActionRequest) *RequestDTO {
	dto := &RequestDTO{
		RequestID:            r.RequestID,
		ContractID:           r.ContractID,
		RequestType:          r.RequestType,
		IncreaseAmount:       r.IncreaseAmount,
		ReductionAmount:      r.ReductionAmount,
		InterestToPay:        r.InterestToPay,
		RedemptionAmount:     r.RedemptionAmount,
		InterestDue:          r.InterestDue,
		TotalAmount:          r.TotalAmount,
		Status:               r.Status,
		SlipAttempts:         r.SlipAttempts,
		InvestorSlipAttempts: r.InvestorSlipAttempts,
		RejectionReason:      r.RejectionReason,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if domainAction.RequiresInvestor(r.RequestType) {
		v := r.InvestorTransfer()
		dto.InvestorTransfer = &v
	}
	return dto
}
