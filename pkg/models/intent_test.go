package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestNormalizeToken tests the token namespace rules
func TestNormalizeToken(t *testing.T) {
	t.Run("hex addresses lowercase", func(t *testing.T) {
		assert.Equal(t,
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
			NormalizeToken("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"))
	})

	t.Run("symbols uppercase", func(t *testing.T) {
		assert.Equal(t, "WETH", NormalizeToken("weth"))
		assert.Equal(t, "USDC", NormalizeToken("USDC"))
	})

	t.Run("normalize makes mixed namespaces comparable", func(t *testing.T) {
		a := Intent{SellToken: "weth", BuyToken: "0xA0B86991C6218B36C1D19D4A2E9EB0CE3606EB48"}
		b := Intent{SellToken: "WETH", BuyToken: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"}
		a.Normalize()
		b.Normalize()
		assert.Equal(t, a.SellToken, b.SellToken)
		assert.Equal(t, a.BuyToken, b.BuyToken)
	})
}

// TestIntentValidate tests structural intent checks
func TestIntentValidate(t *testing.T) {
	valid := Intent{
		ID:           "a",
		SellToken:    "ETH",
		BuyToken:     "USDC",
		SellAmount:   decimal.NewFromInt(100),
		MinBuyAmount: decimal.NewFromInt(90),
	}
	assert.NoError(t, valid.Validate())

	noID := valid
	noID.ID = ""
	assert.Error(t, noID.Validate())

	sameToken := valid
	sameToken.BuyToken = "ETH"
	assert.Error(t, sameToken.Validate())

	zeroSell := valid
	zeroSell.SellAmount = decimal.Zero
	assert.Error(t, zeroSell.Validate())

	negativeMin := valid
	negativeMin.MinBuyAmount = decimal.NewFromInt(-1)
	assert.Error(t, negativeMin.Validate())
}

// TestVenueHelpers tests venue token accessors
func TestVenueHelpers(t *testing.T) {
	venue := Venue{
		ID:     "v1",
		Tokens: [2]string{"ETH", "USDC"},
		Reserves: map[string]decimal.Decimal{
			"ETH":  decimal.NewFromInt(10),
			"USDC": decimal.NewFromInt(20),
		},
	}

	assert.True(t, venue.HasToken("ETH"))
	assert.False(t, venue.HasToken("DAI"))

	other, ok := venue.OtherToken("ETH")
	assert.True(t, ok)
	assert.Equal(t, "USDC", other)

	_, ok = venue.OtherToken("DAI")
	assert.False(t, ok)

	assert.True(t, venue.Weight("ETH").Equal(decimal.RequireFromString("0.5")), "weights default to an even split")
}

// TestRouteCrossesChains tests chain detection on routes
func TestRouteCrossesChains(t *testing.T) {
	local := Route{Hops: []Hop{{ChainID: 1}, {ChainID: 1}}}
	assert.False(t, local.CrossesChains(1))

	cross := Route{Hops: []Hop{{ChainID: 1}, {ChainID: 2}}}
	assert.True(t, cross.CrossesChains(1))
}

// TestIsExpired tests deadline handling
func TestIsExpired(t *testing.T) {
	now := time.Now()

	open := Intent{Deadline: time.Time{}}
	assert.False(t, open.IsExpired(now))

	future := Intent{Deadline: now.Add(time.Hour)}
	assert.False(t, future.IsExpired(now))

	past := Intent{Deadline: now.Add(-time.Hour)}
	assert.True(t, past.IsExpired(now))
}
