package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CloseTimeOpen filters closed orders by their open time.
const CloseTimeOpen = "open"

// ExchangeOrder is an order record reported by the exchange.
type ExchangeOrder struct {
	ID       string
	Pair     string
	Side     OrderSide
	Kind     OrderKind
	Status   string
	Volume   decimal.Decimal
	Price    decimal.Decimal
	OpenedAt time.Time
}

// ExchangeOrders typed collection of exchange order records.
type ExchangeOrders []ExchangeOrder

// ForPair keeps the orders placed on pair, reported under its name or alt name.
func (o ExchangeOrders) ForPair(pair Pair) ExchangeOrders {
	filtered := make(ExchangeOrders, 0, len(o))
	for _, order := range o {
		if pair.Matches(order.Pair) {
			filtered = append(filtered, order)
		}
	}

	return filtered
}

// ClosedOrdersFilter restricts a closed orders query.
type ClosedOrdersFilter struct {
	Start     time.Time
	CloseTime string
}

// TradeBalance summary of the margin/trade account.
type TradeBalance struct {
	// EquivalentBalance combined balance of all currencies.
	EquivalentBalance decimal.Decimal
	TradeBalance      decimal.Decimal
}

// Balances per-asset account balances.
type Balances map[string]decimal.Decimal

// Of returns the balance of asset, zero when the account holds none.
func (b Balances) Of(asset string) decimal.Decimal {
	if v, ok := b[asset]; ok {
		return v
	}
	return decimal.Zero
}

// Ticker best prices of a pair.
type Ticker struct {
	Ask  decimal.Decimal
	Bid  decimal.Decimal
	Last decimal.Decimal
}

// PairInfo raw asset pair catalog entry.
type PairInfo struct {
	AltName      string
	WSName       string
	Base         string
	Quote        string
	PairDecimals int32
	LotDecimals  int32
	CostDecimals int32
	OrderMin     decimal.Decimal
}

// PairCatalog asset pair catalog keyed by pair name.
type PairCatalog map[string]PairInfo

// AssetCatalog asset catalog keyed by asset code.
type AssetCatalog map[string]AssetInfo
