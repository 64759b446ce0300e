package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// IntentStatus is the lifecycle state of an intent.
type IntentStatus string

const (
	StatusPending IntentStatus = "pending"
	StatusMatched IntentStatus = "matched"
	StatusExpired IntentStatus = "expired"
)

// Intent represents a user's swap request fetched from the intent pool API
type Intent struct {
	ID           string          `json:"id"`
	UserAddress  string          `json:"user_address"`
	ChainID      int             `json:"chain_id"`
	SellToken    string          `json:"sell_token"`
	BuyToken     string          `json:"buy_token"`
	SellAmount   decimal.Decimal `json:"sell_amount"`
	MinBuyAmount decimal.Decimal `json:"min_buy_amount"`
	Deadline     time.Time       `json:"deadline"`
	Status       IntentStatus    `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Validate checks the structural invariants an intent must satisfy before it
// can enter a batch run
func (i *Intent) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("intent has no id")
	}
	if i.SellToken == "" || i.BuyToken == "" {
		return fmt.Errorf("intent %s has empty token identifiers", i.ID)
	}
	if i.SellToken == i.BuyToken {
		return fmt.Errorf("intent %s sells and buys the same token %s", i.ID, i.SellToken)
	}
	if !i.SellAmount.IsPositive() {
		return fmt.Errorf("intent %s has non-positive sell amount %s", i.ID, i.SellAmount)
	}
	if i.MinBuyAmount.IsNegative() {
		return fmt.Errorf("intent %s has negative min buy amount %s", i.ID, i.MinBuyAmount)
	}
	return nil
}

// IsExpired returns true once the intent deadline has passed
func (i *Intent) IsExpired(now time.Time) bool {
	return !i.Deadline.IsZero() && now.After(i.Deadline)
}

// Normalize rewrites the token identifiers into the canonical namespace so
// that matching compares like with like
func (i *Intent) Normalize() {
	i.SellToken = NormalizeToken(i.SellToken)
	i.BuyToken = NormalizeToken(i.BuyToken)
}

// NormalizeToken maps a token identifier into a single namespace: hex
// addresses are lowercased, plain symbols are uppercased. Intents and venues
// may name the same asset either way depending on their source.
func NormalizeToken(token string) string {
	if common.IsHexAddress(token) {
		return strings.ToLower(common.HexToAddress(token).Hex())
	}
	return strings.ToUpper(token)
}
