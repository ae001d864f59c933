package action

import (
	"time"

	"pawn-settlement/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errs.New("action request not found", errs.ErrNotFound)
	ErrPendingExists     = errs.New("contract already has an action request in progress", errs.ErrConflict)
	ErrAttemptsExhausted = errs.New("slip verification attempts exhausted", errs.ErrAttemptsExhausted)
)

type RequestType string

const (
	TypePrincipalIncrease  RequestType = "PRINCIPAL_INCREASE"
	TypePrincipalReduction RequestType = "PRINCIPAL_REDUCTION"
	TypeInterestPayment    RequestType = "INTEREST_PAYMENT"
	TypeRedemption         RequestType = "REDEMPTION"
)

type Status string

const (
	StatusPending                   Status = "PENDING"
	StatusAwaitingPayment           Status = "AWAITING_PAYMENT"
	StatusSlipUploaded              Status = "SLIP_UPLOADED"
	StatusSlipVerified              Status = "SLIP_VERIFIED"
	StatusSlipRejected              Status = "SLIP_REJECTED"
	StatusSlipRejectedFinal         Status = "SLIP_REJECTED_FINAL"
	StatusAwaitingSignature         Status = "AWAITING_SIGNATURE"
	StatusPendingInvestorApproval   Status = "PENDING_INVESTOR_APPROVAL"
	StatusAwaitingInvestorApproval  Status = "AWAITING_INVESTOR_APPROVAL"
	StatusInvestorApproved          Status = "INVESTOR_APPROVED"
	StatusInvestorRejected          Status = "INVESTOR_REJECTED"
	StatusAwaitingInvestorPayment   Status = "AWAITING_INVESTOR_PAYMENT"
	StatusInvestorSlipUploaded      Status = "INVESTOR_SLIP_UPLOADED"
	StatusInvestorSlipVerified      Status = "INVESTOR_SLIP_VERIFIED"
	StatusInvestorSlipRejected      Status = "INVESTOR_SLIP_REJECTED"
	StatusInvestorSlipRejectedFinal Status = "INVESTOR_SLIP_REJECTED_FINAL"
	StatusInvestorTransferred       Status = "INVESTOR_TRANSFERRED"
	StatusAwaitingPawnerConfirm     Status = "AWAITING_PAWNER_CONFIRM"
	StatusCompleted                 Status = "COMPLETED"
	StatusCancelled                 Status = "CANCELLED"
	StatusVoided                    Status = "VOIDED"
)

// MaxSlipAttempts caps verification attempts per paying party on one request.
const MaxSlipAttempts = 2

// Table: action_requests. Exactly one of the amount columns is set, matching RequestType;
// build rows with New and read the amount back with Payload.
type ActionRequest struct {
	ID          uint64      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RequestID   string      `gorm:"column:request_id;size:32;not null;uniqueIndex:ux_action_requests_request_id" json:"request_id"`
	ContractID  string      `gorm:"column:contract_id;size:32;not null;index" json:"contract_id"`
	RequestType RequestType `gorm:"column:request_type;size:32;not null" json:"request_type"`

	IncreaseAmount   *decimal.Decimal `gorm:"column:increase_amount;type:decimal(18,2)" json:"increase_amount,omitempty"`
	ReductionAmount  *decimal.Decimal `gorm:"column:reduction_amount;type:decimal(18,2)" json:"reduction_amount,omitempty"`
	InterestToPay    *decimal.Decimal `gorm:"column:interest_to_pay;type:decimal(18,2)" json:"interest_to_pay,omitempty"`
	RedemptionAmount *decimal.Decimal `gorm:"column:redemption_amount;type:decimal(18,2)" json:"redemption_amount,omitempty"`

	// Interest accrued at creation; settled together with the request.
	InterestDue decimal.Decimal `gorm:"column:interest_due;type:decimal(18,2);not null;default:0" json:"interest_due"`
	// What the pawner transfers.
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:decimal(18,2);not null" json:"total_amount"`

	Status               Status  `gorm:"column:status;size:40;not null;index" json:"status"`
	SlipURL              string  `gorm:"column:slip_url;type:text" json:"slip_url,omitempty"`
	SlipAttempts         int     `gorm:"column:slip_attempts;not null;default:0" json:"slip_attempts"`
	InvestorSlipURL      string  `gorm:"column:investor_slip_url;type:text" json:"investor_slip_url,omitempty"`
	InvestorSlipAttempts int     `gorm:"column:investor_slip_attempts;not null;default:0" json:"investor_slip_attempts"`
	RejectionReason      *string `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`
	RequestedBy          string  `gorm:"column:requested_by;size:64" json:"requested_by"`
	// Holds ContractID while the request is open, NULL once terminal. The unique index
	// keeps a contract to a single open request.
	ActiveKey *string `gorm:"column:active_key;size:32;uniqueIndex:ux_action_requests_active" json:"-"`

	// Bumped on every persisted transition; guards conditional updates.
	Version   int64     `gorm:"column:version;not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ActionRequest) TableName() string { return "action_requests" }

// Table: action_request_events. Append-only audit of every transition.
type Event struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RequestID string    `gorm:"column:request_id;size:32;not null;index" json:"request_id"`
	FromState Status    `gorm:"column:from_state;size:40;not null" json:"from"`
	ToState   Status    `gorm:"column:to_state;size:40;not null" json:"to"`
	Trigger   Trigger   `gorm:"column:trigger_event;size:40;not null" json:"event"`
	Actor     string    `gorm:"column:actor;size:64" json:"actor,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"at"`
}

func (Event) TableName() string { return "action_request_events" }

// InvestorTransfer is what the investor side must move once approved.
func (r *ActionRequest) InvestorTransfer() decimal.Decimal {
	switch {
	case r.IncreaseAmount != nil:
		return *r.IncreaseAmount
	case r.RedemptionAmount != nil:
		return *r.RedemptionAmount
	}
	return decimal.Zero
}
