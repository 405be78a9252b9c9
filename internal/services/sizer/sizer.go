// Package sizer turns a quote budget and a price into a fee-adjusted,
// precision-correct limit order. All functions are pure.
package sizer

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

// TakerFeeRate is the Kraken taker fee (0.26%).
var TakerFeeRate = decimal.RequireFromString("0.0026")

var feeFactor = decimal.NewFromInt(1).Add(TakerFeeRate)

// SizeVolume returns the largest volume, at lotDecimals precision, whose cost
// including the taker fee does not exceed budget.
func SizeVolume(budget, price decimal.Decimal, lotDecimals int32) (decimal.Decimal, error) {
	if price.IsZero() {
		return decimal.Zero, errors.Wrap(domain.ErrDivision, "size volume")
	}
	if price.IsNegative() {
		return decimal.Zero, errors.Errorf("size volume: price must be positive, got %s", price.String())
	}
	if lotDecimals < 0 {
		return decimal.Zero, errors.Errorf("size volume: lot decimals must be non-negative, got %d", lotDecimals)
	}

	raw := floorDiv(budget, price, lotDecimals)

	return floorDiv(raw, feeFactor, lotDecimals), nil
}

// EstimatePrice returns volume×price rounded to the quote precision.
func EstimatePrice(volume, price decimal.Decimal, quoteDecimals int32) decimal.Decimal {
	return volume.Mul(price).RoundBank(quoteDecimals)
}

// EstimateFee returns the taker fee of volume×price rounded to the quote precision.
func EstimateFee(volume, price decimal.Decimal, quoteDecimals int32) decimal.Decimal {
	return volume.Mul(price).Mul(TakerFeeRate).RoundBank(quoteDecimals)
}

// BuildLimitOrder sizes a buy limit order for plan at limitPrice.
func BuildLimitOrder(plan domain.DCAPlan, pair domain.Pair, limitPrice decimal.Decimal, now time.Time) (*domain.Order, error) {
	volume, err := SizeVolume(plan.Amount, limitPrice, pair.LotDecimals)
	if err != nil {
		return nil, errors.Wrapf(err, "build limit order for %s", pair.Name)
	}

	price := EstimatePrice(volume, limitPrice, pair.QuoteDecimals)
	fee := EstimateFee(volume, limitPrice, pair.QuoteDecimals)

	return &domain.Order{
		UserName:   plan.UserName,
		Date:       now,
		Pair:       pair.Name,
		Side:       domain.SideBuy,
		Kind:       domain.KindLimit,
		Flags:      domain.FlagFeeInQuote,
		LimitPrice: limitPrice,
		Volume:     volume,
		Price:      price,
		Fee:        fee,
		TotalPrice: price.Add(fee).RoundBank(pair.QuoteDecimals),
	}, nil
}

// floorDiv divides exactly and truncates to precision; operands are non-negative.
func floorDiv(d, d2 decimal.Decimal, precision int32) decimal.Decimal {
	q, _ := d.QuoRem(d2, precision)
	return q
}
