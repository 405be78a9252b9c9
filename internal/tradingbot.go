package internal

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/services/pairmeta"
	"github.com/vadiminshakov/krakendca/internal/services/strategy/dca"
	"github.com/vadiminshakov/krakendca/internal/storage/intents"
	"github.com/vadiminshakov/krakendca/internal/storage/orders"
	"github.com/vadiminshakov/krakendca/pkg/retrier"
)

type catalogs struct {
	pairs  domain.PairCatalog
	assets domain.AssetCatalog
}

// TradingBot runs the DCA plans of one configuration file.
type TradingBot struct {
	Config   config.Config
	l        *zap.Logger
	exchange Exchange
	store    *orders.WALStore
	journal  *intents.WALJournal

	strategies []*dca.DCAStrategy
	// unresolved plans whose pair could not be resolved at startup
	unresolved []domain.Outcome

	closeOnce sync.Once
	closeErr  error
}

type botOptions struct {
	retrier    *retrier.Retrier
	strategies []dca.Option
}

// BotOption configures the TradingBot.
type BotOption func(*botOptions)

// WithCatalogRetrier overrides the retry policy of the startup catalog fetch.
func WithCatalogRetrier(r *retrier.Retrier) BotOption {
	return func(o *botOptions) {
		o.retrier = r
	}
}

// WithStrategyOptions passes opts to every DCA strategy of the bot.
func WithStrategyOptions(opts ...dca.Option) BotOption {
	return func(o *botOptions) {
		o.strategies = append(o.strategies, opts...)
	}
}

// NewTradingBot opens the bot storage, fetches the exchange catalog once and
// resolves the pair of every plan.
func NewTradingBot(ctx context.Context, conf config.Config, ex Exchange, logger *zap.Logger, opts ...BotOption) (*TradingBot, error) {
	o := botOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	l := logger.With(zap.String("user", conf.UserName))
	if o.retrier == nil {
		o.retrier = retrier.New(
			retrier.WithMaxRetries(4),
			retrier.WithRetryIf(isTransient),
			retrier.WithOnRetry(func(attempt int, err error) {
				l.Warn("catalog fetch failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
			}),
		)
	}

	cat, err := retrier.DoWithData(o.retrier, ctx, func(ctx context.Context) (catalogs, error) {
		pairs, err := ex.AssetPairs(ctx)
		if err != nil {
			return catalogs{}, errors.Wrap(err, "fetch asset pairs")
		}
		assets, err := ex.Assets(ctx)
		if err != nil {
			return catalogs{}, errors.Wrap(err, "fetch assets")
		}
		return catalogs{pairs: pairs, assets: assets}, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load exchange catalog")
	}

	store, err := orders.NewWALStore(conf.OrdersDir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open order store")
	}
	journal, err := intents.NewWALJournal(conf.IntentsDir)
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "failed to open intent journal")
	}
	for _, intent := range journal.Pending() {
		l.Warn("order submission with unknown outcome, check the Kraken order history",
			zap.String("intent_id", intent.ID),
			zap.String("pair", intent.Pair),
			zap.String("volume", intent.Volume.String()),
			zap.String("limit_price", intent.LimitPrice.String()),
			zap.Time("time", intent.Time))
		if err := journal.MarkReported(intent.ID); err != nil {
			l.Error("failed to mark intent as reported", zap.String("intent_id", intent.ID), zap.Error(err))
		}
	}

	b := &TradingBot{
		Config:   conf,
		l:        l,
		exchange: ex,
		store:    store,
		journal:  journal,
	}

	strategyOpts := append([]dca.Option{dca.WithJournal(journal)}, o.strategies...)
	for _, plan := range conf.Plans {
		pair, err := pairmeta.ResolvePair(cat.pairs, cat.assets, plan.PairSymbol)
		if err != nil {
			l.Error("failed to initialize pair", zap.String("pair", plan.PairSymbol), zap.Error(err))
			b.unresolved = append(b.unresolved, domain.Failed(plan.PairSymbol, err))
			continue
		}

		s, err := dca.NewDCAStrategy(l, plan, pair, ex, store, strategyOpts...)
		if err != nil {
			l.Error("failed to initialize pair", zap.String("pair", plan.PairSymbol), zap.Error(err))
			b.unresolved = append(b.unresolved, domain.Failed(plan.PairSymbol, err))
			continue
		}
		l.Info("DCA plan", zap.String("plan", plan.String()))
		b.strategies = append(b.strategies, s)
	}

	return b, nil
}

// isTransient reports whether a catalog fetch error may succeed on retry.
func isTransient(err error) bool {
	var apiErr *clients.APIError
	return !errors.As(err, &apiErr) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// RunOnce evaluates every pair in parallel and returns one outcome per configured plan.
// A failing pair never stops the evaluation of the others.
func (b *TradingBot) RunOnce(ctx context.Context) []domain.Outcome {
	outcomes := make([]domain.Outcome, len(b.strategies), len(b.strategies)+len(b.unresolved))

	var g errgroup.Group
	for i, s := range b.strategies {
		g.Go(func() error {
			outcomes[i] = s.Evaluate(ctx)
			return nil
		})
	}
	_ = g.Wait()

	outcomes = append(outcomes, b.unresolved...)
	for _, out := range outcomes {
		switch out.Kind {
		case domain.OutcomePlaced:
			b.l.Info("DCA cycle done", zap.String("pair", out.Pair), zap.String("outcome", out.Kind.String()),
				zap.String("txid", out.Order.TxID), zap.String("order", out.Order.String()))
		case domain.OutcomeSkipped:
			b.l.Info("DCA cycle done", zap.String("pair", out.Pair), zap.String("outcome", out.Kind.String()),
				zap.String("reason", string(out.Reason)))
		default:
			b.l.Error("DCA cycle done", zap.String("pair", out.Pair), zap.String("outcome", out.Kind.String()),
				zap.Error(out.Err))
		}
	}

	return outcomes
}

// Run evaluates every pair immediately and then once per configured interval
// until ctx is cancelled.
func (b *TradingBot) Run(ctx context.Context) error {
	b.RunOnce(ctx)

	ticker := time.NewTicker(b.Config.Interval)
	defer ticker.Stop()

	b.l.Info("Starting DCA loop", zap.Duration("interval", b.Config.Interval))

	for {
		select {
		case <-ctx.Done():
			b.l.Info("Context done, stopping DCA loop.")
			return ctx.Err()
		case <-ticker.C:
			b.RunOnce(ctx)
		}
	}
}

// Close closes the bot storage. Subsequent calls return the first result.
func (b *TradingBot) Close() error {
	b.closeOnce.Do(func() {
		storeErr := b.store.Close()
		journalErr := b.journal.Close()
		if storeErr != nil {
			b.closeErr = errors.Wrap(storeErr, "close order store")
		} else if journalErr != nil {
			b.closeErr = errors.Wrap(journalErr, "close intent journal")
		}
	})
	return b.closeErr
}
