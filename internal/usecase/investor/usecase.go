// Package investor quotes the rate an investor is offered before accepting a contract.
package investor

import (
	"context"
	"fmt"
	"log/slog"

	domainContract "pawn-settlement/internal/domain/contract"
	"pawn-settlement/internal/domain/errs"
	"pawn-settlement/internal/finance"

	"github.com/shopspring/decimal"
)

const defaultTermDays = 30

type QuoteInput struct {
	InvestorID string
	// Principal of the contract on offer.
	Principal decimal.Decimal
	TermDays  int
}

type QuoteDTO struct {
	InvestorID           string          `json:"investor_id"`
	TotalActivePrincipal decimal.Decimal `json:"total_active_principal"`
	CurrentTier          finance.Tier    `json:"current_tier"`
	CurrentRate          decimal.Decimal `json:"current_rate"`
	ProjectedPrincipal   decimal.Decimal `json:"projected_principal"`
	ProjectedTier        finance.Tier    `json:"projected_tier"`
	ProjectedRate        decimal.Decimal `json:"projected_rate"`
	TermDays             int             `json:"term_days"`
	ExpectedInterest     decimal.Decimal `json:"expected_interest"`
	CurrentTierInterest  decimal.Decimal `json:"current_tier_interest"`
}

type Usecase struct {
	contracts domainContract.Repository
	tiers     finance.TierTable
	log       *slog.Logger
}

func NewUsecase(contracts domainContract.Repository, tiers finance.TierTable, log *slog.Logger) *Usecase {
	if log == nil {
		log = slog.Default()
	}
	return &Usecase{contracts: contracts, tiers: tiers, log: log}
}

// Quote prices an offer at the tier the investor would reach by accepting it. Only
// ACTIVE and CONFIRMED contracts count toward the current total; offers still being
// decided do not.
func (u *Usecase) Quote(ctx context.Context, in QuoteInput) (*QuoteDTO, error) {
	if in.InvestorID == "" {
		return nil, errs.New("investor_id is required", errs.ErrInvalidInput)
	}
	if !in.Principal.IsPositive() {
		return nil, errs.New(fmt.Sprintf("principal must be positive, got %s", in.Principal), errs.ErrInvalidInput)
	}
	term := in.TermDays
	if term <= 0 {
		term = defaultTermDays
	}

	current, err := u.contracts.SumActivePrincipalByInvestor(ctx, in.InvestorID)
	if err != nil {
		return nil, err
	}
	tier, err := u.tiers.TierFor(current)
	if err != nil {
		return nil, err
	}
	projected, err := u.tiers.Projected(current, in.Principal)
	if err != nil {
		return nil, err
	}
	rate := u.tiers.RateFor(projected)
	expected, err := finance.InterestAccrued(in.Principal, rate, term)
	if err != nil {
		return nil, err
	}
	atCurrent, err := finance.InterestAccrued(in.Principal, u.tiers.RateFor(tier), term)
	if err != nil {
		return nil, err
	}

	u.log.Debug("investor quote",
		slog.String("investor_id", in.InvestorID),
		slog.String("current_tier", tier.String()),
		slog.String("projected_tier", projected.String()))

	return &QuoteDTO{
		InvestorID:           in.InvestorID,
		TotalActivePrincipal: current,
		CurrentTier:          tier,
		CurrentRate:          u.tiers.RateFor(tier),
		ProjectedPrincipal:   current.Add(in.Principal),
		ProjectedTier:        projected,
		ProjectedRate:        rate,
		TermDays:             term,
		ExpectedInterest:     expected,
		CurrentTierInterest:  atCurrent,
	}, nil
}
