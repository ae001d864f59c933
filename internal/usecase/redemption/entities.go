package redemption

import (
	"encoding/json"
	"time"

	domainRedemption "pawn-settlement/internal/domain/redemption"

	"github.com/shopspring/decimal"
)

// CreateInput amounts are optional. When sent they must match the payoff computed
// for today, which guards against a stale quote on the pawner's screen.
type CreateInput struct {
	ContractID      string
	RequestType     string
	DeliveryMethod  domainRedemption.DeliveryMethod
	PrincipalAmount *decimal.Decimal
	InterestAmount  *decimal.Decimal
	DeliveryFee     *decimal.Decimal
	TotalAmount     *decimal.Decimal
	PawnerID        string
}

const (
	VerifyAmountCorrect   = "amount_correct"
	VerifyAmountIncorrect = "amount_incorrect"
)

type VerifyInput struct {
	RedemptionID     string
	Actor            string
	Action           string
	AdditionalAmount *decimal.Decimal
}

type CompleteInput struct {
	RedemptionID  string
	Actor         string
	ReceiptPhotos []string
}

type RequestDTO struct {
	RedemptionID             string                          `json:"redemption_id"`
	ContractID               string                          `json:"contract_id"`
	RequestType              string                          `json:"request_type"`
	PrincipalAmount          decimal.Decimal                 `json:"principal_amount"`
	InterestAmount           decimal.Decimal                 `json:"interest_amount"`
	DeliveryFee              decimal.Decimal                 `json:"delivery_fee"`
	TotalAmount              decimal.Decimal                 `json:"total_amount"`
	DeliveryMethod           domainRedemption.DeliveryMethod `json:"delivery_method"`
	Status                   domainRedemption.Status         `json:"status"`
	SlipURL                  string                          `json:"slip_url,omitempty"`
	AdditionalAmountRequired *decimal.Decimal                `json:"additional_amount_required,omitempty"`
	ReceiptPhotos            []string                        `json:"receipt_photos,omitempty"`
	RejectionReason          *string                         `json:"rejection_reason,omitempty"`
	InvestorInterestEarned   *decimal.Decimal                `json:"investor_interest_earned,omitempty"`
	PlatformFeeDeducted      *decimal.Decimal                `json:"platform_fee_deducted,omitempty"`
	InvestorNetProfit        *decimal.Decimal                `json:"investor_net_profit,omitempty"`
	CompletedAt              *time.Time                      `json:"completed_at,omitempty"`
	CreatedAt                time.Time                       `json:"created_at"`
	UpdatedAt                time.Time                       `json:"updated_at"`
}

func toDTO(r *domainRedemption.Request) *RequestDTO {
	dto := &RequestDTO{
		RedemptionID:             r.RedemptionID,
		ContractID:               r.ContractID,
		RequestType:              r.RequestType,
		PrincipalAmount:          r.PrincipalAmount,
		InterestAmount:           r.InterestAmount,
		DeliveryFee:              r.DeliveryFee,
		TotalAmount:              r.TotalAmount,
		DeliveryMethod:           r.DeliveryMethod,
		Status:                   r.Status,
		SlipURL:                  r.SlipURL,
		AdditionalAmountRequired: r.AdditionalAmountRequired,
		RejectionReason:          r.RejectionReason,
		InvestorInterestEarned:   r.InvestorInterestEarned,
		PlatformFeeDeducted:      r.PlatformFeeDeducted,
		InvestorNetProfit:        r.InvestorNetProfit,
		CompletedAt:              r.CompletedAt,
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}
	if r.ReceiptPhotos != "" {
		_ = json.Unmarshal([]byte(r.ReceiptPhotos), &dto.ReceiptPhotos)
	}
	return dto
}
