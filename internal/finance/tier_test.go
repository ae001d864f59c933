package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor_Boundaries(t *testing.T) {
	tbl := DefaultTiers()
	cases := map[string]Tier{
		"0":         TierSilver,
		"99999.99":  TierSilver,
		"100000":    TierGold,
		"450000":    TierGold,
		"999999":    TierGold,
		"1000000":   TierPlatinum,
		"123456789": TierPlatinum,
	}
	for in, want := range cases {
		got, err := tbl.TierFor(d(in))
		require.NoError(t, err)
		assert.Equal(t, want, got, "total=%s", in)
	}
}

func TestTier_Monotonic(t *testing.T) {
	tbl := DefaultTiers()
	require.NoError(t, tbl.Validate())

	prevTier := Tier(0)
	prevRate := decimal.Zero
	for x := int64(0); x <= 2_000_000; x += 25_000 {
		tier, err := tbl.TierFor(decimal.NewFromInt(x))
		require.NoError(t, err)
		rate := tbl.RateFor(tier)
		assert.GreaterOrEqual(t, int(tier), int(prevTier))
		assert.True(t, rate.GreaterThanOrEqual(prevRate), "rate dropped at %d", x)
		prevTier, prevRate = tier, rate
	}
}

// An investor at 450k is GOLD; an offer taking them past 1M is shown at PLATINUM.
func TestProjectedTier_OfferDisplay(t *testing.T) {
	tbl := DefaultTiers()

	cur, err := tbl.TierFor(d("450000"))
	require.NoError(t, err)
	assert.Equal(t, TierGold, cur)
	assert.True(t, tbl.RateFor(cur).Equal(d("1.53")))

	proj, err := tbl.Projected(d("450000"), d("600000"))
	require.NoError(t, err)
	assert.Equal(t, TierPlatinum, proj)
	assert.True(t, tbl.RateFor(proj).Equal(d("1.6")))
}

func TestTierTable_Validate(t *testing.T) {
	bad := DefaultTiers()
	bad.GoldRate = d("1.4")
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)

	bad = DefaultTiers()
	bad.PlatinumThreshold = d("10")
	assert.ErrorIs(t, bad.Validate(), ErrInvalidInput)
}
