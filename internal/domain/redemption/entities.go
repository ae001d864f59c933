package redemption

import (
	"time"

	"pawn-settlement/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errs.New("redemption request not found", errs.ErrNotFound)
	ErrPendingExists = errs.New("contract already has a redemption in progress", errs.ErrConflict)
)

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusSlipUploaded   Status = "SLIP_UPLOADED"
	StatusAmountVerified Status = "AMOUNT_VERIFIED"
	StatusAmountMismatch Status = "AMOUNT_MISMATCH"
	StatusPreparingItem  Status = "PREPARING_ITEM"
	StatusInTransit      Status = "IN_TRANSIT"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
	StatusRejected       Status = "REJECTED"
)

type DeliveryMethod string

const (
	DeliverySelfPickup      DeliveryMethod = "SELF_PICKUP"
	DeliverySelfArrange     DeliveryMethod = "SELF_ARRANGE"
	DeliveryPlatformArrange DeliveryMethod = "PLATFORM_ARRANGE"
)

func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliverySelfPickup, DeliverySelfArrange, DeliveryPlatformArrange:
		return true
	}
	return false
}

// RequestTypeFull is the only redemption kind: pay everything, get the item back.
const RequestTypeFull = "REDEMPTION"

// Table: redemption_requests
type Request struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RedemptionID string `gorm:"column:redemption_id;size:32;not null;uniqueIndex:ux_redemption_requests_redemption_id" json:"redemption_id"`
	ContractID   string `gorm:"column:contract_id;size:32;not null;index" json:"contract_id"`
	RequestType  string `gorm:"column:request_type;size:32;not null" json:"request_type"`
	PawnerID     string `gorm:"column:pawner_id;size:64;not null" json:"pawner_id"`

	PrincipalAmount decimal.Decimal `gorm:"column:principal_amount;type:decimal(18,2);not null" json:"principal_amount"`
	InterestAmount  decimal.Decimal `gorm:"column:interest_amount;type:decimal(18,2);not null" json:"interest_amount"`
	DeliveryFee     decimal.Decimal `gorm:"column:delivery_fee;type:decimal(18,2);not null;default:0" json:"delivery_fee"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:decimal(18,2);not null" json:"total_amount"`

	DeliveryMethod DeliveryMethod `gorm:"column:delivery_method;size:20;not null" json:"delivery_method"`
	Status         Status         `gorm:"column:status;size:20;not null;index" json:"status"`

	SlipURL                  string           `gorm:"column:slip_url;type:text" json:"slip_url,omitempty"`
	AdditionalAmountRequired *decimal.Decimal `gorm:"column:additional_amount_required;type:decimal(18,2)" json:"additional_amount_required,omitempty"`
	// JSON array of photo URLs.
	ReceiptPhotos   string  `gorm:"column:receipt_photos;type:text" json:"-"`
	RejectionReason *string `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`

	InvestorInterestEarned *decimal.Decimal `gorm:"column:investor_interest_earned;type:decimal(18,2)" json:"investor_interest_earned,omitempty"`
	PlatformFeeDeducted    *decimal.Decimal `gorm:"column:platform_fee_deducted;type:decimal(18,2)" json:"platform_fee_deducted,omitempty"`
	InvestorNetProfit      *decimal.Decimal `gorm:"column:investor_net_profit;type:decimal(18,2)" json:"investor_net_profit,omitempty"`

	// ContractID while non-terminal, NULL after; unique.
	ActiveKey *string `gorm:"column:active_key;size:32;uniqueIndex:ux_redemption_requests_active" json:"-"`

	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Request) TableName() string { return "redemption_requests" }

// Conserved reports principal + interest + delivery fee == total, to the cent.
func (r *Request) Conserved() bool {
	return r.PrincipalAmount.Add(r.InterestAmount).Add(r.DeliveryFee).Round(2).Equal(r.TotalAmount.Round(2))
}
