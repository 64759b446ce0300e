package cow

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cowmatch-hq/solver/pkg/models"
)

func intent(id, sell, buy string, sellAmount, minBuy int64) models.Intent {
	return models.Intent{
		ID:           id,
		ChainID:      1,
		SellToken:    sell,
		BuyToken:     buy,
		SellAmount:   decimal.NewFromInt(sellAmount),
		MinBuyAmount: decimal.NewFromInt(minBuy),
	}
}

// TestCompatible tests the pairwise match predicate
func TestCompatible(t *testing.T) {
	t.Run("opposite pairs covering minimums", func(t *testing.T) {
		a := intent("a", "ETH", "USDC", 100, 90)
		b := intent("b", "USDC", "ETH", 95, 80)
		assert.True(t, Compatible(&a, &b))
		assert.True(t, Compatible(&b, &a), "compatibility must be symmetric")
	})

	t.Run("same direction", func(t *testing.T) {
		a := intent("a", "ETH", "USDC", 100, 90)
		b := intent("b", "ETH", "USDC", 100, 90)
		assert.False(t, Compatible(&a, &b))
	})

	t.Run("minimum not covered", func(t *testing.T) {
		a := intent("a", "ETH", "USDC", 100, 90)
		b := intent("b", "USDC", "ETH", 85, 80) // 85 < a's minimum of 90
		assert.False(t, Compatible(&a, &b))
	})

	t.Run("exact minimum is enough", func(t *testing.T) {
		a := intent("a", "ETH", "USDC", 100, 95)
		b := intent("b", "USDC", "ETH", 95, 100)
		assert.True(t, Compatible(&a, &b))
	})

	t.Run("partially overlapping token pairs", func(t *testing.T) {
		a := intent("a", "ETH", "USDC", 100, 90)
		b := intent("b", "USDC", "DAI", 95, 80)
		assert.False(t, Compatible(&a, &b))
	})
}

// TestFindMatches tests the batch scan
func TestFindMatches(t *testing.T) {
	t.Run("simple pair matches", func(t *testing.T) {
		intents := []models.Intent{
			intent("a", "ETH", "USDC", 100, 90),
			intent("b", "USDC", "ETH", 95, 80),
		}

		matches := FindMatches(intents)
		require.Len(t, matches, 1)
		assert.Equal(t, "a", matches[0].A.ID)
		assert.Equal(t, "b", matches[0].B.ID)
	})

	t.Run("each intent matched at most once", func(t *testing.T) {
		intents := []models.Intent{
			intent("a", "ETH", "USDC", 100, 90),
			intent("b", "USDC", "ETH", 95, 80),
			intent("c", "USDC", "ETH", 95, 80), // also compatible with a
		}

		matches := FindMatches(intents)
		require.Len(t, matches, 1)

		seen := map[string]int{}
		for _, m := range matches {
			seen[m.A.ID]++
			seen[m.B.ID]++
		}
		for id, count := range seen {
			assert.Equal(t, 1, count, "intent %s matched more than once", id)
		}
	})

	t.Run("greedy first-found in input order", func(t *testing.T) {
		intents := []models.Intent{
			intent("a", "ETH", "USDC", 100, 90),
			intent("b", "USDC", "ETH", 95, 80),
			intent("c", "USDC", "ETH", 200, 80),
		}

		// b comes before c, so a pairs with b even though c offers more
		matches := FindMatches(intents)
		require.Len(t, matches, 1)
		assert.Equal(t, "b", matches[0].B.ID)
	})

	t.Run("deterministic for a given input order", func(t *testing.T) {
		intents := []models.Intent{
			intent("a", "ETH", "USDC", 100, 90),
			intent("b", "USDC", "ETH", 95, 80),
			intent("c", "DAI", "ETH", 50, 40),
			intent("d", "ETH", "DAI", 45, 40),
		}

		first := FindMatches(intents)
		for i := 0; i < 10; i++ {
			again := FindMatches(intents)
			require.Equal(t, first, again)
		}
	})

	t.Run("no matches", func(t *testing.T) {
		intents := []models.Intent{
			intent("a", "ETH", "USDC", 100, 90),
			intent("b", "ETH", "USDC", 100, 90),
		}
		assert.Empty(t, FindMatches(intents))
	})

	t.Run("empty batch", func(t *testing.T) {
		assert.Empty(t, FindMatches(nil))
	})

	t.Run("larger batch pairs disjointly", func(t *testing.T) {
		var intents []models.Intent
		for i := 0; i < 10; i++ {
			intents = append(intents,
				intent(fmt.Sprintf("sell-%d", i), "ETH", "USDC", 100, 90),
				intent(fmt.Sprintf("buy-%d", i), "USDC", "ETH", 95, 80),
			)
		}

		matches := FindMatches(intents)
		assert.Len(t, matches, 10)
		assert.Len(t, MatchedIDs(matches), 20)
	})
}
