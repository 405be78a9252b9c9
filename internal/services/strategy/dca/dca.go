// Package dca implements the Dollar-Cost Averaging decision engine: one
// evaluation cycle per pair that ends in a placed order, a skip or a failure.
package dca

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/services/pairmeta"
	"github.com/vadiminshakov/krakendca/internal/services/sizer"
	"github.com/vadiminshakov/krakendca/internal/storage/intents"
)

// MaxClockSkew is the largest tolerated difference between local and exchange clocks.
const MaxClockSkew = 2 * time.Second

// limitFactorPrecision digits compared when deciding whether the limit factor is neutral.
const limitFactorPrecision = 5

var one = decimal.NewFromInt(1)

type exchange interface {
	ServerTime(ctx context.Context) (time.Time, error)
	TradeBalance(ctx context.Context) (domain.TradeBalance, error)
	Balances(ctx context.Context) (domain.Balances, error)
	OpenOrders(ctx context.Context) (domain.ExchangeOrders, error)
	ClosedOrders(ctx context.Context, filter domain.ClosedOrdersFilter) (domain.ExchangeOrders, error)
	Ticker(ctx context.Context, pair string) (domain.Ticker, error)
	// CreateOrder submits an order. Not idempotent: called at most once per cycle.
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error)
}

type orderStore interface {
	Put(order domain.Order) error
}

type intentJournal interface {
	Prepare(order domain.Order) (*intents.Intent, error)
	MarkDone(intent *intents.Intent, txid string) error
	MarkFailed(intent *intents.Intent, cause error) error
}

// DCAStrategy evaluates the DCA plan of a single pair.
type DCAStrategy struct {
	plan     domain.DCAPlan
	pair     domain.Pair
	exchange exchange
	store    orderStore
	journal  intentJournal
	l        *zap.Logger
	now      func() time.Time
}

// Option configures the DCAStrategy.
type Option func(*DCAStrategy)

// WithClock overrides the local clock.
func WithClock(now func() time.Time) Option {
	return func(d *DCAStrategy) {
		d.now = now
	}
}

// WithJournal records every submission attempt in j.
func WithJournal(j intentJournal) Option {
	return func(d *DCAStrategy) {
		d.journal = j
	}
}

// NewDCAStrategy returns a DCA engine for plan on pair.
func NewDCAStrategy(l *zap.Logger, plan domain.DCAPlan, pair domain.Pair, ex exchange, store orderStore,
	opts ...Option) (*DCAStrategy, error) {
	if err := plan.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid DCA plan")
	}
	if err := pair.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pair")
	}
	if ex == nil || store == nil {
		return nil, errors.New("exchange and order store are required")
	}

	d := &DCAStrategy{
		plan:     plan,
		pair:     pair,
		exchange: ex,
		store:    store,
		l:        l.With(zap.String("pair", pair.Name)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Plan returns the evaluated plan.
func (d *DCAStrategy) Plan() domain.DCAPlan {
	return d.plan
}

// Pair returns the traded pair.
func (d *DCAStrategy) Pair() domain.Pair {
	return d.pair
}

// Evaluate runs one evaluation cycle.
func (d *DCAStrategy) Evaluate(ctx context.Context) domain.Outcome {
	now := d.now().UTC()

	if v := d.checkClock(ctx, now); !v.Proceeds() {
		return domain.FromVerdict(d.pair.Name, v)
	}
	if v := d.checkBalance(ctx); !v.Proceeds() {
		return domain.FromVerdict(d.pair.Name, v)
	}
	if v := d.checkFrequency(ctx, now); !v.Proceeds() {
		return domain.FromVerdict(d.pair.Name, v)
	}

	ask, err := pairmeta.FetchAskPrice(ctx, d.exchange, d.pair.Name)
	if err != nil {
		return domain.Failed(d.pair.Name, errors.Wrap(err, "fetch ask price"))
	}
	limit := d.limitPrice(ask)
	d.l.Info("current ask price", zap.String("ask", ask.String()), zap.String("limit", limit.String()))

	if v := d.checkCeiling(limit); !v.Proceeds() {
		return domain.FromVerdict(d.pair.Name, v)
	}

	order, err := sizer.BuildLimitOrder(d.plan, d.pair, limit, now)
	if err != nil {
		return domain.Failed(d.pair.Name, err)
	}
	if order.Volume.LessThan(d.pair.OrderMin) {
		return domain.Failed(d.pair.Name, errors.Wrapf(domain.ErrMinimumVolume,
			"too low volume to buy %s: %s, minimum %s", d.pair.Base, order.Volume.String(), d.pair.OrderMin.String()))
	}

	if err := d.submit(ctx, order); err != nil {
		return domain.Failed(d.pair.Name, err)
	}

	if err := d.store.Put(*order); err != nil {
		d.l.Error("order placed but not recorded", zap.String("txid", order.TxID), zap.Error(err))
		out := domain.Failed(d.pair.Name, errors.Wrapf(err, "record order %s", order.TxID))
		out.Order = order
		return out
	}

	return domain.Placed(d.pair.Name, order)
}

func (d *DCAStrategy) checkClock(ctx context.Context, now time.Time) domain.Verdict {
	serverTime, err := d.exchange.ServerTime(ctx)
	if err != nil {
		return domain.Fail(errors.Wrap(err, "fetch server time"))
	}

	lag := now.Sub(serverTime)
	if lag < 0 {
		lag = -lag
	}
	if lag > MaxClockSkew {
		return domain.Fail(errors.Wrapf(domain.ErrClockSkew, "system time %s, Kraken time %s, lag %s",
			now.Format(time.RFC3339), serverTime.Format(time.RFC3339), lag))
	}

	return domain.Proceed()
}

func (d *DCAStrategy) checkBalance(ctx context.Context) domain.Verdict {
	tb, err := d.exchange.TradeBalance(ctx)
	if err != nil {
		return domain.Fail(errors.Wrap(err, "fetch trade balance"))
	}
	balances, err := d.exchange.Balances(ctx)
	if err != nil {
		return domain.Fail(errors.Wrap(err, "fetch balances"))
	}

	quoteBalance := balances.Of(d.pair.Quote)
	d.l.Info("account balance",
		zap.String("trade_balance", tb.EquivalentBalance.String()),
		zap.String(d.pair.Quote, quoteBalance.String()),
		zap.String(d.pair.Base, balances.Of(d.pair.Base).String()))

	if quoteBalance.LessThan(d.plan.Amount) {
		return domain.Fail(errors.Wrapf(domain.ErrInsufficientFunds, "%s %s available, %s needed to buy %s",
			quoteBalance.String(), d.pair.Quote, d.plan.Amount.String(), d.pair.Base))
	}

	return domain.Proceed()
}

func (d *DCAStrategy) checkFrequency(ctx context.Context, now time.Time) domain.Verdict {
	count, err := d.countPairDailyOrders(ctx, now)
	if err != nil {
		return domain.Fail(err)
	}
	if count != 0 {
		d.l.Info("no DCA: already placed an order in the delay window", zap.Int("orders", count), zap.Int("delay", d.plan.Delay))
		return domain.Skip(domain.SkipAlreadyPurchased)
	}

	return domain.Proceed()
}

// countPairDailyOrders counts open orders and orders opened within the delay window for the pair.
func (d *DCAStrategy) countPairDailyOrders(ctx context.Context, now time.Time) (int, error) {
	open, err := d.exchange.OpenOrders(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "fetch open orders")
	}

	closed, err := d.exchange.ClosedOrders(ctx, domain.ClosedOrdersFilter{
		Start:     windowStart(now, d.plan.Delay),
		CloseTime: domain.CloseTimeOpen,
	})
	if err != nil {
		return 0, errors.Wrap(err, "fetch closed orders")
	}

	return len(open.ForPair(d.pair)) + len(closed.ForPair(d.pair)), nil
}

// windowStart is midnight UTC of the first day of the delay window ending today.
func windowStart(now time.Time, delay int) time.Time {
	y, m, day := now.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -(delay - 1))
}

func (d *DCAStrategy) limitPrice(ask decimal.Decimal) decimal.Decimal {
	if d.plan.LimitFactor.Round(limitFactorPrecision).Equal(one) {
		return ask
	}
	return ask.Mul(d.plan.LimitFactor).RoundBank(d.pair.PairDecimals)
}

func (d *DCAStrategy) checkCeiling(limit decimal.Decimal) domain.Verdict {
	if d.plan.HasPriceCeiling() && limit.GreaterThan(d.plan.MaxPrice) {
		d.l.Info("no DCA: limit price above max price",
			zap.String("limit", limit.String()), zap.String("max_price", d.plan.MaxPrice.String()))
		return domain.Skip(domain.SkipPriceTooHigh)
	}

	return domain.Proceed()
}

// submit sends the order exactly once and confirms it with the returned txid.
func (d *DCAStrategy) submit(ctx context.Context, order *domain.Order) error {
	var intent *intents.Intent
	if d.journal != nil {
		var err error
		intent, err = d.journal.Prepare(*order)
		if err != nil {
			return errors.Wrap(err, "journal order intent")
		}
	}

	d.l.Info("create buy limit order",
		zap.String("volume", order.Volume.String()),
		zap.String("limit_price", order.LimitPrice.String()),
		zap.String("price", order.Price.String()),
		zap.String("fee", order.Fee.String()),
		zap.String("total_price", order.TotalPrice.String()))

	conf, err := d.exchange.CreateOrder(ctx, order.Request())
	if err == nil {
		err = order.Confirm(conf)
	}
	if err != nil {
		d.markIntentFailed(intent, err)
		return errors.Wrap(err, "submit order")
	}

	if intent != nil {
		if jerr := d.journal.MarkDone(intent, order.TxID); jerr != nil {
			d.l.Error("failed to persist done order intent", zap.Error(jerr), zap.String("intent_id", intent.ID))
		}
	}
	d.l.Info("order placed", zap.String("txid", order.TxID), zap.String("description", order.Description))

	return nil
}

func (d *DCAStrategy) markIntentFailed(intent *intents.Intent, cause error) {
	if d.journal == nil || intent == nil {
		return
	}
	if err := d.journal.MarkFailed(intent, cause); err != nil {
		d.l.Error("failed to persist failed order intent", zap.Error(err), zap.String("intent_id", intent.ID))
	}
}
