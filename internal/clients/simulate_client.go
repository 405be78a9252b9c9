package clients

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/services/sizer"
	"github.com/vadiminshakov/krakendca/internal/storage/simstate"
)

const simulatedOrderStatus = "closed"

// marketData public endpoints used by the simulator for real prices and metadata.
type marketData interface {
	ServerTime(ctx context.Context) (time.Time, error)
	Assets(ctx context.Context) (domain.AssetCatalog, error)
	AssetPairs(ctx context.Context) (domain.PairCatalog, error)
	Ticker(ctx context.Context, pair string) (domain.Ticker, error)
}

// SimulateClient is a paper trading exchange: market data comes from Kraken,
// the account lives in memory and is persisted to a state file.
// Limit orders fill immediately at their limit price with the taker fee charged in quote.
type SimulateClient struct {
	mu       sync.Mutex
	market   marketData
	store    *simstate.Store
	logger   *zap.Logger
	funding  domain.Balances
	balances domain.Balances
	orders   domain.ExchangeOrders
	pairs    domain.PairCatalog
	now      func() time.Time
}

// NewSimulateClient creates a simulator funded with initial unless a saved state exists.
func NewSimulateClient(market marketData, store *simstate.Store, initial domain.Balances, logger *zap.Logger) (*SimulateClient, error) {
	if market == nil {
		return nil, errors.New("market data client is required for SimulateClient")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &SimulateClient{
		market:   market,
		store:    store,
		logger:   logger,
		funding:  initial,
		balances: make(domain.Balances, len(initial)),
		orders:   make(domain.ExchangeOrders, 0),
		now:      time.Now,
	}
	for asset, amount := range initial {
		c.balances[asset] = amount
	}

	if err := c.restoreState(); err != nil {
		return nil, err
	}

	fields := make([]zap.Field, 0, len(c.balances))
	for asset, amount := range c.balances {
		fields = append(fields, zap.String(asset, amount.String()))
	}
	logger.Info("simulate init", fields...)

	return c, nil
}

// ServerTime returns the Kraken server clock.
func (c *SimulateClient) ServerTime(ctx context.Context) (time.Time, error) {
	return c.market.ServerTime(ctx)
}

// Assets returns the Kraken asset catalog.
func (c *SimulateClient) Assets(ctx context.Context) (domain.AssetCatalog, error) {
	return c.market.Assets(ctx)
}

// AssetPairs returns the Kraken pair catalog.
func (c *SimulateClient) AssetPairs(ctx context.Context) (domain.PairCatalog, error) {
	pairs, err := c.market.AssetPairs(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.pairs = pairs
	c.mu.Unlock()

	return pairs, nil
}

// Ticker returns the live Kraken ticker.
func (c *SimulateClient) Ticker(ctx context.Context, pair string) (domain.Ticker, error) {
	return c.market.Ticker(ctx, pair)
}

// Balances returns the simulated account balances.
func (c *SimulateClient) Balances(ctx context.Context) (domain.Balances, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(domain.Balances, len(c.balances))
	for asset, amount := range c.balances {
		out[asset] = amount
	}

	return out, nil
}

// TradeBalance sums the balances of the funding assets.
func (c *SimulateClient) TradeBalance(ctx context.Context) (domain.TradeBalance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for asset := range c.funding {
		total = total.Add(c.balances.Of(asset))
	}

	return domain.TradeBalance{EquivalentBalance: total, TradeBalance: total}, nil
}

// OpenOrders is always empty: simulated orders fill on submission.
func (c *SimulateClient) OpenOrders(ctx context.Context) (domain.ExchangeOrders, error) {
	return domain.ExchangeOrders{}, nil
}

// ClosedOrders returns the simulated orders opened at or after filter.Start.
func (c *SimulateClient) ClosedOrders(ctx context.Context, filter domain.ClosedOrdersFilter) (domain.ExchangeOrders, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(domain.ExchangeOrders, 0, len(c.orders))
	for _, o := range c.orders {
		if o.OpenedAt.Before(filter.Start) {
			continue
		}
		out = append(out, o)
	}

	return out, nil
}

// CreateOrder fills a buy limit order at its limit price, charging the taker fee in quote.
func (c *SimulateClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error) {
	if req.Side != domain.SideBuy || req.Kind != domain.KindLimit {
		return domain.OrderConfirmation{}, fmt.Errorf("simulator supports only buy limit orders, got %s %s", req.Side, req.Kind)
	}
	if !req.Volume.IsPositive() || !req.LimitPrice.IsPositive() {
		return domain.OrderConfirmation{}, &APIError{Method: "AddOrder", Messages: []string{"EGeneral:Invalid arguments:volume"}}
	}

	info, err := c.pairInfo(ctx, req.Pair)
	if err != nil {
		return domain.OrderConfirmation{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cost := req.Volume.Mul(req.LimitPrice)
	total := cost.Add(cost.Mul(sizer.TakerFeeRate))
	available := c.balances.Of(info.Quote)
	if available.LessThan(total) {
		return domain.OrderConfirmation{}, &APIError{Method: "AddOrder", Messages: []string{"EOrder:Insufficient funds"}}
	}

	c.balances[info.Quote] = available.Sub(total)
	c.balances[info.Base] = c.balances.Of(info.Base).Add(req.Volume)

	txid := "SIM-" + strings.ToUpper(uuid.New().String()[:18])
	c.orders = append(c.orders, domain.ExchangeOrder{
		ID:       txid,
		Pair:     req.Pair,
		Side:     req.Side,
		Kind:     req.Kind,
		Status:   simulatedOrderStatus,
		Volume:   req.Volume,
		Price:    req.LimitPrice,
		OpenedAt: c.now().UTC(),
	})

	if err := c.persist(); err != nil {
		c.logger.Error("failed to persist simulate state", zap.Error(err))
	}

	description := fmt.Sprintf("buy %s %s @ limit %s", req.Volume.String(), info.AltName, req.LimitPrice.String())
	c.logger.Info("simulated order filled",
		zap.String("txid", txid),
		zap.String("description", description),
		zap.String("total", total.String()))

	return domain.OrderConfirmation{TxID: txid, Description: description}, nil
}

func (c *SimulateClient) pairInfo(ctx context.Context, pair string) (domain.PairInfo, error) {
	c.mu.Lock()
	pairs := c.pairs
	c.mu.Unlock()

	if pairs == nil {
		var err error
		if pairs, err = c.AssetPairs(ctx); err != nil {
			return domain.PairInfo{}, errors.Wrap(err, "fetch pair catalog")
		}
	}

	info, ok := pairs[pair]
	if !ok {
		return domain.PairInfo{}, &APIError{Method: "AddOrder", Messages: []string{"EQuery:Unknown asset pair"}}
	}

	return info, nil
}

func (c *SimulateClient) restoreState() error {
	state, err := c.store.Load()
	if err != nil {
		return errors.Wrap(err, "load simulate state")
	}
	if state == nil {
		return nil
	}

	balances, err := simstate.DecodeBalances(state.Balances)
	if err != nil {
		return err
	}
	orders := make(domain.ExchangeOrders, 0, len(state.Orders))
	for _, so := range state.Orders {
		o, err := so.ToExchangeOrder()
		if err != nil {
			return err
		}
		orders = append(orders, o)
	}

	c.balances = balances
	c.orders = orders

	return nil
}

// persist must be called with c.mu held.
func (c *SimulateClient) persist() error {
	stored := make([]simstate.StoredOrder, 0, len(c.orders))
	for _, o := range c.orders {
		stored = append(stored, simstate.NewStoredOrder(o))
	}

	return c.store.Save(simstate.State{
		Balances: simstate.EncodeBalances(c.balances),
		Orders:   stored,
	})
}
