// Package report summarizes the recorded DCA purchase history per pair.
package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/services/pairmeta"
)

const averagePricePrecision = 8

type ticker interface {
	Ticker(ctx context.Context, pair string) (domain.Ticker, error)
}

// PairSummary is the cumulative purchase history of one user on one pair.
type PairSummary struct {
	UserName string
	Pair     string
	Orders   int
	First    time.Time
	Last     time.Time
	// Volume accumulated base asset.
	Volume decimal.Decimal
	// Spent sum of order prices, fees excluded.
	Spent      decimal.Decimal
	Fees       decimal.Decimal
	TotalSpent decimal.Decimal
	// LatestPrice current ask, zero when unknown.
	LatestPrice decimal.Decimal
	Valuation   decimal.Decimal
	Profit      decimal.Decimal
}

// AveragePrice is the volume weighted purchase price.
func (s PairSummary) AveragePrice() decimal.Decimal {
	if s.Volume.IsZero() {
		return decimal.Zero
	}
	return s.Spent.DivRound(s.Volume, averagePricePrecision)
}

// HasPrice reports whether a latest price was available for valuation.
func (s PairSummary) HasPrice() bool {
	return s.LatestPrice.IsPositive()
}

// Summarize groups orders by user and pair and values them at prices.
// Summaries are ordered by user, then by descending spent amount.
func Summarize(orders []domain.Order, prices map[string]decimal.Decimal) []PairSummary {
	type key struct{ user, pair string }

	byKey := make(map[key]*PairSummary)
	for _, o := range orders {
		k := key{user: o.UserName, pair: o.Pair}
		s, ok := byKey[k]
		if !ok {
			s = &PairSummary{
				UserName: o.UserName,
				Pair:     o.Pair,
				First:    o.Date,
				Last:     o.Date,
			}
			byKey[k] = s
		}
		s.Orders++
		s.Volume = s.Volume.Add(o.Volume)
		s.Spent = s.Spent.Add(o.Price)
		s.Fees = s.Fees.Add(o.Fee)
		s.TotalSpent = s.TotalSpent.Add(o.TotalPrice)
		if o.Date.Before(s.First) {
			s.First = o.Date
		}
		if o.Date.After(s.Last) {
			s.Last = o.Date
		}
	}

	summaries := make([]PairSummary, 0, len(byKey))
	for _, s := range byKey {
		if price, ok := prices[s.Pair]; ok {
			s.LatestPrice = price
			s.Valuation = s.Volume.Mul(price)
			s.Profit = s.Valuation.Sub(s.TotalSpent)
		}
		summaries = append(summaries, *s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UserName != summaries[j].UserName {
			return summaries[i].UserName < summaries[j].UserName
		}
		if !summaries[i].Spent.Equal(summaries[j].Spent) {
			return summaries[i].Spent.GreaterThan(summaries[j].Spent)
		}
		return summaries[i].Pair < summaries[j].Pair
	})

	return summaries
}

// Pairs returns the distinct pairs of orders.
func Pairs(orders []domain.Order) []string {
	seen := make(map[string]bool)
	pairs := make([]string, 0)
	for _, o := range orders {
		if !seen[o.Pair] {
			seen[o.Pair] = true
			pairs = append(pairs, o.Pair)
		}
	}
	sort.Strings(pairs)
	return pairs
}

// FetchPrices reads the current ask of every pair concurrently. Pairs whose
// price cannot be read are logged and left out of the result.
func FetchPrices(ctx context.Context, client ticker, pairs []string, l *zap.Logger) map[string]decimal.Decimal {
	var (
		mu     sync.Mutex
		prices = make(map[string]decimal.Decimal, len(pairs))
		g      errgroup.Group
	)
	for _, pair := range pairs {
		g.Go(func() error {
			ask, err := pairmeta.FetchAskPrice(ctx, client, pair)
			if err != nil {
				l.Warn("failed to fetch latest price", zap.String("pair", pair), zap.Error(err))
				return nil
			}
			mu.Lock()
			prices[pair] = ask
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return prices
}

// Log writes one line per summary.
func Log(l *zap.Logger, summaries []PairSummary) {
	for _, s := range summaries {
		fields := []zap.Field{
			zap.String("user", s.UserName),
			zap.String("pair", s.Pair),
			zap.Int("orders", s.Orders),
			zap.Time("first", s.First),
			zap.Time("last", s.Last),
			zap.String("volume", s.Volume.String()),
			zap.String("average_price", s.AveragePrice().String()),
			zap.String("spent", s.Spent.String()),
			zap.String("fees", s.Fees.String()),
			zap.String("total_spent", s.TotalSpent.String()),
		}
		if s.HasPrice() {
			fields = append(fields,
				zap.String("latest_price", s.LatestPrice.String()),
				zap.String("valuation", s.Valuation.StringFixed(2)),
				zap.String("profit", s.Profit.StringFixed(2)))
		}
		l.Info("DCA history", fields...)
	}
}
