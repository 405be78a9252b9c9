// Package domain defines core data structures used throughout the DCA bot.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Pair is a tradable Kraken pair with its precision and minimum order constraints.
type Pair struct {
	// Name primary exchange identifier, e.g. XETHZEUR.
	Name string
	// AltName alternative identifier, e.g. ETHEUR.
	AltName string
	// Base asset being bought.
	Base string
	// Quote asset the pair is priced in.
	Quote string
	// PairDecimals price precision.
	PairDecimals int32
	// LotDecimals volume precision.
	LotDecimals int32
	// QuoteDecimals monetary precision of the quote asset.
	QuoteDecimals int32
	// OrderMin minimum tradable volume.
	OrderMin decimal.Decimal
}

// Validate checks precision and minimum order invariants.
func (p Pair) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("pair name is required")
	}
	if p.PairDecimals < 0 || p.LotDecimals < 0 || p.QuoteDecimals < 0 {
		return fmt.Errorf("pair %s decimals must be non-negative, got pair=%d lot=%d quote=%d",
			p.Name, p.PairDecimals, p.LotDecimals, p.QuoteDecimals)
	}
	if !p.OrderMin.IsPositive() {
		return fmt.Errorf("pair %s order minimum must be positive, got %s", p.Name, p.OrderMin.String())
	}

	return nil
}

// Matches reports whether symbol is either the pair name or its alt name.
func (p Pair) Matches(symbol string) bool {
	return symbol == p.Name || symbol == p.AltName
}

// String returns the string representation.
func (p Pair) String() string {
	return fmt.Sprintf("%s (%s/%s)", p.Name, p.Base, p.Quote)
}

// AssetInfo is the exchange metadata of a single asset.
type AssetInfo struct {
	Code            string
	AltName         string
	Class           string
	Decimals        int32
	DisplayDecimals int32
}
