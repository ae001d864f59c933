package slipmock

import (
	"context"
	"sync"

	"pawn-settlement/internal/slip"

	"github.com/shopspring/decimal"
)

var _ slip.Verifier = (*Verifier)(nil)

// Verifier is a function-backed slip.Verifier that counts calls.
type Verifier struct {
	VerifyFn func(ctx context.Context, imageRef string, expected decimal.Decimal) (slip.Result, error)

	mu    sync.Mutex
	calls int
}

// Returning yields the results in order, repeating the last one.
func Returning(results ...slip.Result) *Verifier {
	var (
		mu sync.Mutex
		i  int
	)
	return &Verifier{VerifyFn: func(context.Context, string, decimal.Decimal) (slip.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		r := results[min(i, len(results)-1)]
		i++
		return r, nil
	}}
}

// Detecting classifies every slip as if the OCR read amount.
func Detecting(amount string) *Verifier {
	d := decimal.RequireFromString(amount)
	return &Verifier{VerifyFn: func(_ context.Context, _ string, expected decimal.Decimal) (slip.Result, error) {
		return slip.Classify(expected, &d), nil
	}}
}

func (m *Verifier) Verify(ctx context.Context, imageRef string, expected decimal.Decimal) (slip.Result, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.VerifyFn != nil {
		return m.VerifyFn(ctx, imageRef, expected)
	}
	return slip.Result{Outcome: slip.Unreadable}, nil
}

func (m *Verifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
