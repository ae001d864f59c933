// Package slip classifies uploaded bank-transfer slips against the amount that was due.
// The reading itself is done by an external OCR service; this package owns the result
// contract and the fallback rules when that service misbehaves.
package slip

import (
	"context"

	"github.com/shopspring/decimal"
)

type Outcome string

const (
	Matched    Outcome = "MATCHED"
	Overpaid   Outcome = "OVERPAID"
	Underpaid  Outcome = "UNDERPAID"
	Unreadable Outcome = "UNREADABLE"
)

type Result struct {
	Outcome        Outcome          `json:"result"`
	DetectedAmount *decimal.Decimal `json:"detected_amount,omitempty"`
	// Absolute shortfall or overage.
	Difference *decimal.Decimal `json:"difference,omitempty"`
	Message    string           `json:"message,omitempty"`
}

// Accepted reports whether the slip pays the amount due. Overpayment counts as paid.
func (r Result) Accepted() bool { return r.Outcome == Matched || r.Outcome == Overpaid }

type Verifier interface {
	Verify(ctx context.Context, imageRef string, expected decimal.Decimal) (Result, error)
}

// Classify compares a detected amount with the expected one, to the cent.
func Classify(expected decimal.Decimal, detected *decimal.Decimal) Result {
	if detected == nil {
		return Result{Outcome: Unreadable, Message: "the slip amount could not be read"}
	}
	got := detected.Round(2)
	want := expected.Round(2)
	diff := got.Sub(want).Abs()
	r := Result{DetectedAmount: &got}
	switch got.Cmp(want) {
	case 0:
		r.Outcome = Matched
		r.Message = "payment amount matches"
	case 1:
		r.Outcome = Overpaid
		r.Difference = &diff
		r.Message = "payment exceeds the amount due by " + diff.StringFixed(2)
	default:
		r.Outcome = Underpaid
		r.Difference = &diff
		r.Message = "payment is short by " + diff.StringFixed(2)
	}
	return r
}
