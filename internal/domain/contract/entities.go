package contract

import (
	"time"

	"pawn-settlement/internal/domain/errs"
	"pawn-settlement/internal/finance"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errs.New("contract not found", errs.ErrNotFound)
	ErrNotActive = errs.New("contract is not active", errs.ErrConflict)
	ErrNotParty  = errs.New("actor is not a party to this contract", errs.ErrUnauthorized)
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusActive     Status = "ACTIVE"
	StatusDefaulted  Status = "DEFAULTED"
	StatusLiquidated Status = "LIQUIDATED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Table: contracts
type Contract struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ContractID string `gorm:"column:contract_id;size:32;not null;uniqueIndex:ux_contracts_contract_id" json:"contract_id"`

	PawnerID       string `gorm:"column:pawner_id;size:64;not null;index" json:"pawner_id"`
	InvestorID     string `gorm:"column:investor_id;size:64;index" json:"investor_id"`
	DropPointID    string `gorm:"column:drop_point_id;size:64" json:"drop_point_id"`
	DropPointEmail string `gorm:"column:drop_point_email;size:255" json:"-"`
	ItemID         string `gorm:"column:item_id;size:64" json:"item_id"`

	LoanPrincipalAmount decimal.Decimal `gorm:"column:loan_principal_amount;type:decimal(18,2);not null" json:"loan_principal_amount"`
	// Monthly percent, e.g. 1.53
	InterestRate decimal.Decimal `gorm:"column:interest_rate;type:decimal(6,4);not null" json:"interest_rate"`
	TermDays     int             `gorm:"column:term_days;not null" json:"term_days"`
	StartDate    time.Time       `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate      time.Time       `gorm:"column:end_date;type:date;not null;index" json:"end_date"`
	Status       Status          `gorm:"column:status;size:20;not null;default:'PENDING';index" json:"status"`

	PrincipalPaid decimal.Decimal `gorm:"column:principal_paid;type:decimal(18,2);not null;default:0" json:"principal_paid"`
	InterestPaid  decimal.Decimal `gorm:"column:interest_paid;type:decimal(18,2);not null;default:0" json:"interest_paid"`
	AmountPaid    decimal.Decimal `gorm:"column:amount_paid;type:decimal(18,2);not null;default:0" json:"amount_paid"`
	TotalAmount   decimal.Decimal `gorm:"column:total_amount;type:decimal(18,2);not null;default:0" json:"total_amount"`

	InterestPaidThrough *time.Time `gorm:"column:interest_paid_through;type:date" json:"interest_paid_through,omitempty"`
	PenaltyPaidThrough  *time.Time `gorm:"column:penalty_paid_through;type:date" json:"penalty_paid_through,omitempty"`
	RedemptionStatus    string     `gorm:"column:redemption_status;size:32" json:"redemption_status,omitempty"`
	DeliveryStatus      string     `gorm:"column:delivery_status;size:32" json:"delivery_status,omitempty"`
	// Fraction of redemption interest kept by the platform; nil means use the configured default.
	PlatformFeeRate *decimal.Decimal `gorm:"column:platform_fee_rate;type:decimal(5,4)" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Contract) TableName() string { return "contracts" }

// IsOpen reports whether actions may still be taken against the contract.
func (c *Contract) IsOpen() bool {
	return c.Status == StatusActive || c.Status == StatusConfirmed
}

func (c *Contract) PrincipalRemaining() decimal.Decimal {
	return c.LoanPrincipalAmount.Sub(c.PrincipalPaid)
}

// InterestCutoff is the day interest was last settled up to.
func (c *Contract) InterestCutoff() time.Time {
	if c.InterestPaidThrough != nil {
		return *c.InterestPaidThrough
	}
	return c.StartDate
}

// InterestDue is what has accrued on the remaining principal since the cutoff.
func (c *Contract) InterestDue(asOf time.Time) (decimal.Decimal, error) {
	days, err := finance.DaysBetween(c.InterestCutoff(), asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return finance.InterestAccrued(c.PrincipalRemaining(), c.InterestRate, days)
}

func (c *Contract) IsPawner(actorID string) bool   { return actorID != "" && actorID == c.PawnerID }
func (c *Contract) IsInvestor(actorID string) bool { return actorID != "" && actorID == c.InvestorID }
func (c *Contract) IsDropPoint(actorID string) bool {
	return actorID != "" && actorID == c.DropPointID
}

// CheckInvariants returns errs.ErrInvariant when the paid amounts overrun what is owed.
func (c *Contract) CheckInvariants() error {
	if c.PrincipalPaid.GreaterThan(c.LoanPrincipalAmount) {
		return errs.New("principal_paid exceeds loan_principal_amount", errs.ErrInvariant)
	}
	if c.AmountPaid.GreaterThan(c.TotalAmount) {
		return errs.New("amount_paid exceeds total_amount", errs.ErrInvariant)
	}
	if c.PrincipalPaid.IsNegative() || c.InterestPaid.IsNegative() {
		return errs.New("negative paid amount", errs.ErrInvariant)
	}
	return nil
}
