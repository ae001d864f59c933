package penalty

import (
	"fmt"
	"time"

	"pawn-settlement/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errs.New("penalty payment not found", errs.ErrNotFound)
	ErrAttemptsExhausted = errs.New("penalty slip attempts exhausted", errs.ErrAttemptsExhausted)
	ErrNotPayable        = errs.New("penalty payment is not awaiting a slip", errs.ErrConflict)
)

type Status string

const (
	StatusPending       Status = "PENDING"
	StatusVerified      Status = "VERIFIED"
	StatusRejected      Status = "REJECTED"
	StatusRejectedFinal Status = "REJECTED_FINAL"
	StatusCancelled     Status = "CANCELLED"
)

const MaxAttempts = 2

// Table: penalty_payments
type Payment struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	PaymentID     string          `gorm:"column:payment_id;size:32;not null;uniqueIndex:ux_penalty_payments_payment_id" json:"payment_id"`
	ContractID    string          `gorm:"column:contract_id;size:32;not null;index" json:"contract_id"`
	PenaltyDate   time.Time       `gorm:"column:penalty_date;type:date;not null" json:"penalty_date"`
	DaysOverdue   int             `gorm:"column:days_overdue;not null" json:"days_overdue"`
	PenaltyAmount decimal.Decimal `gorm:"column:penalty_amount;type:decimal(18,2);not null" json:"penalty_amount"`
	Status        Status          `gorm:"column:status;size:20;not null;index" json:"status"`

	SlipURL         string           `gorm:"column:slip_url;type:text" json:"slip_url,omitempty"`
	DetectedAmount  *decimal.Decimal `gorm:"column:detected_amount;type:decimal(18,2)" json:"detected_amount,omitempty"`
	AttemptCount    int              `gorm:"column:attempt_count;not null;default:0" json:"attempt_count"`
	PaidThroughDate *time.Time       `gorm:"column:paid_through_date;type:date" json:"paid_through_date,omitempty"`

	// "<contract_id>:<yyyy-mm-dd>" while not cancelled, NULL after. Unique, so a second
	// live row for the same day cannot be inserted.
	ActiveKey *string `gorm:"column:active_key;size:48;uniqueIndex:ux_penalty_payments_active" json:"-"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Payment) TableName() string { return "penalty_payments" }

func ActiveKeyFor(contractID string, day time.Time) string {
	return fmt.Sprintf("%s:%s", contractID, day.Format("2006-01-02"))
}

// IsFinal reports whether the payment can no longer change.
func IsFinal(s Status) bool {
	return s == StatusVerified || s == StatusRejectedFinal || s == StatusCancelled
}

// Payable reports whether a slip may be submitted in status s.
func Payable(s Status) bool { return s == StatusPending || s == StatusRejected }

// RejectionStatus is where a failed verification lands given the attempt count after it.
func RejectionStatus(attempts int) Status {
	if attempts >= MaxAttempts {
		return StatusRejectedFinal
	}
	return StatusRejected
}

func RemainingAttempts(attempts int) int {
	if attempts >= MaxAttempts {
		return 0
	}
	return MaxAttempts - attempts
}
