package domain

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// OrderSide buy or sell.
type OrderSide string

// OrderKind order type accepted by the exchange.
type OrderKind string

const (
	SideBuy OrderSide = "buy"

	KindLimit OrderKind = "limit"

	// FlagFeeInQuote asks Kraken to charge the fee in the quote asset.
	FlagFeeInQuote = "fciq"
)

// Order is one DCA purchase, built before submission and confirmed after it.
type Order struct {
	UserName    string          `json:"user_name"`
	Date        time.Time       `json:"date"`
	Pair        string          `json:"pair"`
	Side        OrderSide       `json:"type"`
	Kind        OrderKind       `json:"order_type"`
	Flags       string          `json:"o_flags"`
	LimitPrice  decimal.Decimal `json:"pair_price"`
	Volume      decimal.Decimal `json:"volume"`
	Price       decimal.Decimal `json:"price"`
	Fee         decimal.Decimal `json:"fee"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	TxID        string          `json:"txid,omitempty"`
	Description string          `json:"description,omitempty"`
}

// Request returns the exchange request that submits the order.
func (o *Order) Request() OrderRequest {
	return OrderRequest{
		Pair:       o.Pair,
		Side:       o.Side,
		Kind:       o.Kind,
		LimitPrice: o.LimitPrice,
		Volume:     o.Volume,
		Flags:      o.Flags,
	}
}

// Confirm attaches the exchange confirmation to a submitted order.
func (o *Order) Confirm(c OrderConfirmation) error {
	if o.IsSubmitted() {
		return fmt.Errorf("order for %s already confirmed with txid %s", o.Pair, o.TxID)
	}
	if c.TxID == "" {
		return errors.New("order confirmation has empty txid")
	}
	o.TxID = c.TxID
	o.Description = c.Description

	return nil
}

// IsSubmitted reports whether the exchange accepted the order.
func (o *Order) IsSubmitted() bool {
	return o.TxID != ""
}

// String returns a human-readable string representation.
func (o *Order) String() string {
	return fmt.Sprintf("%s %s %s %s @ %s (price %s, fee %s, total %s)",
		o.Pair, o.Side, o.Kind, o.Volume.String(), o.LimitPrice.String(),
		o.Price.String(), o.Fee.String(), o.TotalPrice.String())
}

// OrderRequest parameters of an AddOrder call.
type OrderRequest struct {
	Pair       string
	Side       OrderSide
	Kind       OrderKind
	LimitPrice decimal.Decimal
	Volume     decimal.Decimal
	Flags      string
}

// OrderConfirmation is what the exchange returns for an accepted order.
type OrderConfirmation struct {
	TxID        string
	Description string
}
