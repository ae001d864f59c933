package finance

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Tier orders investors by the principal they have at work. Higher is better.
type Tier int

const (
	TierSilver Tier = iota + 1
	TierGold
	TierPlatinum
)

func (t Tier) String() string {
	switch t {
	case TierSilver:
		return "SILVER"
	case TierGold:
		return "GOLD"
	case TierPlatinum:
		return "PLATINUM"
	}
	return "UNKNOWN"
}

func (t Tier) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// TierTable is loaded from config; DefaultTiers only supplies fallbacks.
type TierTable struct {
	GoldThreshold     decimal.Decimal
	PlatinumThreshold decimal.Decimal
	SilverRate        decimal.Decimal
	GoldRate          decimal.Decimal
	PlatinumRate      decimal.Decimal
}

func DefaultTiers() TierTable {
	return TierTable{
		GoldThreshold:     decimal.NewFromInt(100_000),
		PlatinumThreshold: decimal.NewFromInt(1_000_000),
		SilverRate:        decimal.RequireFromString("1.5"),
		GoldRate:          decimal.RequireFromString("1.53"),
		PlatinumRate:      decimal.RequireFromString("1.6"),
	}
}

// Validate rejects tables that would break tier/rate monotonicity.
func (t TierTable) Validate() error {
	if t.GoldThreshold.IsNegative() || t.PlatinumThreshold.LessThan(t.GoldThreshold) {
		return invalid("tier thresholds must satisfy 0 <= gold <= platinum")
	}
	for _, r := range []decimal.Decimal{t.SilverRate, t.GoldRate, t.PlatinumRate} {
		if err := checkRate(r); err != nil {
			return err
		}
	}
	if t.GoldRate.LessThan(t.SilverRate) || t.PlatinumRate.LessThan(t.GoldRate) {
		return invalid("tier rates must be non-decreasing")
	}
	return nil
}

func (t TierTable) TierFor(totalActivePrincipal decimal.Decimal) (Tier, error) {
	if totalActivePrincipal.IsNegative() {
		return 0, invalid("negative principal %s", totalActivePrincipal)
	}
	switch {
	case totalActivePrincipal.GreaterThanOrEqual(t.PlatinumThreshold):
		return TierPlatinum, nil
	case totalActivePrincipal.GreaterThanOrEqual(t.GoldThreshold):
		return TierGold, nil
	}
	return TierSilver, nil
}

func (t TierTable) RateFor(tier Tier) decimal.Decimal {
	switch tier {
	case TierPlatinum:
		return t.PlatinumRate
	case TierGold:
		return t.GoldRate
	}
	return t.SilverRate
}

// Projected is the tier an investor would reach if candidate were funded on top of current.
func (t TierTable) Projected(current, candidate decimal.Decimal) (Tier, error) {
	if candidate.IsNegative() {
		return 0, invalid("negative candidate principal %s", candidate)
	}
	return t.TierFor(current.Add(candidate))
}
