package investor

import (
	"context"
	"errors"
	"testing"

	"pawn-settlement/internal/domain/errs"
	"pawn-settlement/internal/finance"
	"pawn-settlement/internal/testutil/contractmock"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func withTotal(total string) *contractmock.Repo {
	return &contractmock.Repo{
		SumActivePrincipalByInvestorFn: func(_ context.Context, investorID string) (decimal.Decimal, error) {
			if investorID != "U-investor" {
				return decimal.Zero, errors.New("unexpected investor " + investorID)
			}
			return dec(total), nil
		},
	}
}

func TestQuote_UsesProjectedTier(t *testing.T) {
	uc := NewUsecase(withTotal("450000"), finance.DefaultTiers(), nil)

	q, err := uc.Quote(context.Background(), QuoteInput{InvestorID: "U-investor", Principal: dec("600000")})
	require.NoError(t, err)

	assert.Equal(t, finance.TierGold, q.CurrentTier)
	assert.True(t, q.CurrentRate.Equal(dec("1.53")))
	assert.Equal(t, finance.TierPlatinum, q.ProjectedTier)
	assert.True(t, q.ProjectedRate.Equal(dec("1.6")))
	assert.True(t, q.ProjectedPrincipal.Equal(dec("1050000")))
	assert.Equal(t, 30, q.TermDays)
	// 600,000 * 1.6% for a 30 day month
	assert.True(t, q.ExpectedInterest.Equal(dec("9600")), "expected interest %s", q.ExpectedInterest)
	assert.True(t, q.CurrentTierInterest.Equal(dec("9180")))
}

func TestQuote_StaysInTier(t *testing.T) {
	uc := NewUsecase(withTotal("0"), finance.DefaultTiers(), nil)
	q, err := uc.Quote(context.Background(), QuoteInput{InvestorID: "U-investor", Principal: dec("50000"), TermDays: 15})
	require.NoError(t, err)
	assert.Equal(t, finance.TierSilver, q.CurrentTier)
	assert.Equal(t, finance.TierSilver, q.ProjectedTier)
	assert.True(t, q.ExpectedInterest.Equal(dec("375")))
}

func TestQuote_InvalidInput(t *testing.T) {
	uc := NewUsecase(withTotal("0"), finance.DefaultTiers(), nil)
	_, err := uc.Quote(context.Background(), QuoteInput{InvestorID: "U-investor", Principal: dec("0")})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
	_, err = uc.Quote(context.Background(), QuoteInput{Principal: dec("10")})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestQuote_RepoError(t *testing.T) {
	boom := errors.New("db down")
	uc := NewUsecase(&contractmock.Repo{
		SumActivePrincipalByInvestorFn: func(context.Context, string) (decimal.Decimal, error) { return decimal.Zero, boom },
	}, finance.DefaultTiers(), nil)
	_, err := uc.Quote(context.Background(), QuoteInput{InvestorID: "U-investor", Principal: dec("10")})
	assert.ErrorIs(t, err, boom)
}
