package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/storage/simstate"
)

// Exchange is the venue a TradingBot trades on.
type Exchange interface {
	ServerTime(ctx context.Context) (time.Time, error)
	Assets(ctx context.Context) (domain.AssetCatalog, error)
	AssetPairs(ctx context.Context) (domain.PairCatalog, error)
	Ticker(ctx context.Context, pair string) (domain.Ticker, error)
	TradeBalance(ctx context.Context) (domain.TradeBalance, error)
	Balances(ctx context.Context) (domain.Balances, error)
	OpenOrders(ctx context.Context) (domain.ExchangeOrders, error)
	ClosedOrders(ctx context.Context, filter domain.ClosedOrdersFilter) (domain.ExchangeOrders, error)
	CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error)
}

// NewExchange creates the exchange selected by the configuration mode.
func NewExchange(conf config.Config, logger *zap.Logger, opts ...clients.KrakenOption) (Exchange, error) {
	switch conf.Mode {
	case config.ModeLive:
		return clients.NewKrakenClient(conf.APIKey, conf.APISecret, opts...), nil
	case config.ModeSimulate:
		store, err := simstate.NewStore(conf.SimulateStateDir, conf.UserName)
		if err != nil {
			return nil, errors.Wrap(err, "init simulate state store")
		}
		public := clients.NewKrakenClient("", "", opts...)
		return clients.NewSimulateClient(public, store, conf.SimulateBalances, logger.With(zap.String("user", conf.UserName)))
	default:
		return nil, fmt.Errorf("unsupported mode: %s", conf.Mode)
	}
}
