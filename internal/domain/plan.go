package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NoPriceCeiling is the MaxPrice sentinel meaning the plan has no price ceiling.
var NoPriceCeiling = decimal.NewFromInt(-1)

// DCAPlan is the per-pair recurring purchase configuration.
type DCAPlan struct {
	// PairSymbol is the configured Kraken pair, resolved into a Pair at startup.
	PairSymbol string
	// Delay days between allowed purchases.
	Delay int
	// Amount quote currency budget per purchase.
	Amount decimal.Decimal
	// UserName owner of the Kraken account.
	UserName string
	// LimitFactor multiplier applied to the ask price.
	LimitFactor decimal.Decimal
	// MaxPrice limit price ceiling, NoPriceCeiling when unset.
	MaxPrice decimal.Decimal
}

// NewDCAPlan creates a plan with default limit factor and no price ceiling.
func NewDCAPlan(pairSymbol string, delay int, amount decimal.Decimal, userName string) DCAPlan {
	return DCAPlan{
		PairSymbol:  pairSymbol,
		Delay:       delay,
		Amount:      amount,
		UserName:    userName,
		LimitFactor: decimal.NewFromInt(1),
		MaxPrice:    NoPriceCeiling,
	}
}

// Validate checks plan invariants.
func (p DCAPlan) Validate() error {
	if p.PairSymbol == "" {
		return fmt.Errorf("pair is required")
	}
	if p.Delay < 1 {
		return fmt.Errorf("delay must be at least 1 day, got %d", p.Delay)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive, got %s", p.Amount.String())
	}
	if !p.LimitFactor.IsPositive() {
		return fmt.Errorf("limit factor must be positive, got %s", p.LimitFactor.String())
	}
	if p.HasPriceCeiling() && !p.MaxPrice.IsPositive() {
		return fmt.Errorf("max price must be positive or %s, got %s", NoPriceCeiling.String(), p.MaxPrice.String())
	}

	return nil
}

// HasPriceCeiling reports whether MaxPrice is set.
func (p DCAPlan) HasPriceCeiling() bool {
	return !p.MaxPrice.Equal(NoPriceCeiling)
}

// String returns a human-readable plan description.
func (p DCAPlan) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pair %s: delay: %d, amount: %s", p.PairSymbol, p.Delay, p.Amount.String())
	if !p.LimitFactor.Equal(decimal.NewFromInt(1)) {
		fmt.Fprintf(&b, ", limit_factor: %s", p.LimitFactor.String())
	}
	if p.HasPriceCeiling() {
		fmt.Fprintf(&b, ", max_price: %s", p.MaxPrice.String())
	}
	return b.String()
}
