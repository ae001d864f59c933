// Package finance holds the pure money functions used by the settlement engine.
// Nothing in here touches storage or the clock; callers pass "today" in.
package finance

import (
	"fmt"
	"time"

	"pawn-settlement/internal/domain/errs"

	"github.com/shopspring/decimal"
)

// DefaultDailyPenaltyRate is charged per overdue day when config does not override it.
var DefaultDailyPenaltyRate = decimal.NewFromInt(100)

var (
	ErrInvalidInput = errs.ErrInvalidInput

	hundred    = decimal.NewFromInt(100)
	daysMonth  = decimal.NewFromInt(30)
	oneDay     = 24 * time.Hour
	zeroAmount = decimal.Zero
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

func checkRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return invalid("rate %s outside [0, 100]", rate)
	}
	return nil
}

// Midnight returns the calendar day of t as 00:00 UTC, so two instants on the
// same local day compare equal no matter which zone they were recorded in.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InterestAccrued is round(principal * rate/100 / 30 * days). Non-positive days accrue nothing.
func InterestAccrued(principal, monthlyRatePercent decimal.Decimal, days int) (decimal.Decimal, error) {
	if principal.IsNegative() {
		return zeroAmount, invalid("negative principal %s", principal)
	}
	if err := checkRate(monthlyRatePercent); err != nil {
		return zeroAmount, err
	}
	if days <= 0 {
		return zeroAmount, nil
	}
	return principal.
		Mul(monthlyRatePercent.Div(hundred)).
		Div(daysMonth).
		Mul(decimal.NewFromInt(int64(days))).
		Round(0), nil
}

// PenaltyAmount is max(0, daysOverdue) * dailyRate.
func PenaltyAmount(daysOverdue int, dailyRate decimal.Decimal) (decimal.Decimal, error) {
	if dailyRate.IsNegative() {
		return zeroAmount, invalid("negative daily penalty rate %s", dailyRate)
	}
	if daysOverdue <= 0 {
		return zeroAmount, nil
	}
	return dailyRate.Mul(decimal.NewFromInt(int64(daysOverdue))), nil
}

// DaysBetween counts whole calendar days from a to b, floored at zero.
func DaysBetween(a, b time.Time) (int, error) {
	if a.IsZero() || b.IsZero() {
		return 0, invalid("missing date")
	}
	d := int(Midnight(b).Sub(Midnight(a)) / oneDay)
	if d < 0 {
		return 0, nil
	}
	return d, nil
}

// OverdueDays is the number of whole days today is past endDate, never negative.
func OverdueDays(endDate, today time.Time) (int, error) {
	return DaysBetween(endDate, today)
}

// PayoffTerms is the slice of a contract RedemptionPayoff needs.
type PayoffTerms struct {
	PrincipalRemaining decimal.Decimal
	MonthlyRatePercent decimal.Decimal
	// InterestCutoff is the day interest was last settled (contract start if never).
	InterestCutoff time.Time
	AsOf           time.Time
	DeliveryFee    decimal.Decimal
}

type Payoff struct {
	Principal    decimal.Decimal `json:"principal"`
	Interest     decimal.Decimal `json:"interest"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	Total        decimal.Decimal `json:"total"`
	InterestDays int             `json:"interest_days"`
}

// RedemptionPayoff is remaining principal + interest since the last cutoff + delivery fee.
func RedemptionPayoff(t PayoffTerms) (Payoff, error) {
	if t.DeliveryFee.IsNegative() {
		return Payoff{}, invalid("negative delivery fee %s", t.DeliveryFee)
	}
	days, err := DaysBetween(t.InterestCutoff, t.AsOf)
	if err != nil {
		return Payoff{}, err
	}
	interest, err := InterestAccrued(t.PrincipalRemaining, t.MonthlyRatePercent, days)
	if err != nil {
		return Payoff{}, err
	}
	return Payoff{
		Principal:    t.PrincipalRemaining,
		Interest:     interest,
		DeliveryFee:  t.DeliveryFee,
		Total:        t.PrincipalRemaining.Add(interest).Add(t.DeliveryFee),
		InterestDays: days,
	}, nil
}

// Split is how redemption interest is shared between investor and platform.
type Split struct {
	InterestEarned decimal.Decimal `json:"interest_earned"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	NetProfit      decimal.Decimal `json:"net_profit"`
}

// ProfitSplit takes feeRate as a fraction (0.1 = 10%). NetProfit + PlatformFee == interest exactly.
func ProfitSplit(interest, feeRate decimal.Decimal) (Split, error) {
	if interest.IsNegative() {
		return Split{}, invalid("negative interest %s", interest)
	}
	if feeRate.IsNegative() || feeRate.GreaterThan(decimal.NewFromInt(1)) {
		return Split{}, invalid("platform fee rate %s outside [0, 1]", feeRate)
	}
	fee := interest.Mul(feeRate).Round(2)
	return Split{
		InterestEarned: interest,
		PlatformFee:    fee,
		NetProfit:      interest.Sub(fee),
	}, nil
}
