package internal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/internal/services/strategy/dca"
	"github.com/vadiminshakov/krakendca/internal/storage/intents"
	"github.com/vadiminshakov/krakendca/internal/storage/orders"
	"github.com/vadiminshakov/krakendca/pkg/retrier"
	exchangeMock "github.com/vadiminshakov/krakendca/mocks/exchange"
)

var botNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func testConfig(t *testing.T, symbols ...string) config.Config {
	dir := t.TempDir()
	conf := config.Config{
		UserName:   "alice",
		Mode:       config.ModeLive,
		Interval:   time.Hour,
		OrdersDir:  filepath.Join(dir, "orders"),
		IntentsDir: filepath.Join(dir, "intents"),
	}
	for _, s := range symbols {
		conf.Plans = append(conf.Plans, domain.NewDCAPlan(s, 1, decimal.NewFromInt(10), "alice"))
	}
	return conf
}

func testCatalogs() (domain.PairCatalog, domain.AssetCatalog) {
	return domain.PairCatalog{
			"XETHZEUR": {AltName: "ETHEUR", Base: "XETH", Quote: "ZEUR", PairDecimals: 2, LotDecimals: 8,
				OrderMin: decimal.RequireFromString("0.005")},
			"XXBTZEUR": {AltName: "XBTEUR", Base: "XXBT", Quote: "ZEUR", PairDecimals: 1, LotDecimals: 8,
				OrderMin: decimal.RequireFromString("0.0001")},
		}, domain.AssetCatalog{
			"ZEUR": {Code: "ZEUR", AltName: "EUR", Decimals: 4},
		}
}

func fastRetrier() *retrier.Retrier {
	return retrier.New(retrier.WithMaxRetries(2), retrier.WithInitialInterval(time.Millisecond), retrier.WithRetryIf(isTransient))
}

func newTestBot(t *testing.T, conf config.Config, ex Exchange) *TradingBot {
	bot, err := NewTradingBot(context.Background(), conf, ex, zap.NewNop(),
		WithCatalogRetrier(fastRetrier()),
		WithStrategyOptions(dca.WithClock(func() time.Time { return botNow })))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bot.Close() })
	return bot
}

func TestTradingBot_RunOnceIsolatesPairs(t *testing.T) {
	pairs, assets := testCatalogs()
	ex := exchangeMock.NewExchange(t)
	ex.On("AssetPairs", mock.Anything).Return(pairs, nil).Once()
	ex.On("Assets", mock.Anything).Return(assets, nil).Once()
	ex.On("ServerTime", mock.Anything).Return(botNow, nil)
	ex.On("TradeBalance", mock.Anything).Return(domain.TradeBalance{EquivalentBalance: decimal.NewFromInt(500)}, nil)
	ex.On("Balances", mock.Anything).Return(domain.Balances{"ZEUR": decimal.NewFromInt(500)}, nil)
	ex.On("OpenOrders", mock.Anything).Return(domain.ExchangeOrders{}, nil)
	ex.On("ClosedOrders", mock.Anything, mock.Anything).Return(domain.ExchangeOrders{
		{ID: "O1", Pair: "XBTEUR", OpenedAt: botNow.Add(-time.Hour)},
	}, nil)
	ex.On("Ticker", mock.Anything, "XETHZEUR").Return(domain.Ticker{Ask: decimal.RequireFromString("1749.76")}, nil)
	ex.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req domain.OrderRequest) bool {
		return req.Pair == "XETHZEUR"
	})).Return(domain.OrderConfirmation{TxID: "OUF4EM-FRGI2-MQMWZD"}, nil).Once()

	conf := testConfig(t, "XETHZEUR", "XXBTZEUR", "FAKE")
	bot := newTestBot(t, conf, ex)

	outcomes := bot.RunOnce(context.Background())
	require.Len(t, outcomes, 3)

	byPair := make(map[string]domain.Outcome, len(outcomes))
	for _, out := range outcomes {
		byPair[out.Pair] = out
	}
	assert.Equal(t, domain.OutcomePlaced, byPair["XETHZEUR"].Kind)
	assert.Equal(t, domain.OutcomeSkipped, byPair["XXBTZEUR"].Kind)
	assert.Equal(t, domain.SkipAlreadyPurchased, byPair["XXBTZEUR"].Reason)
	assert.Equal(t, domain.OutcomeFailed, byPair["FAKE"].Kind)
	assert.ErrorIs(t, byPair["FAKE"].Err, domain.ErrUnknownPair)

	require.NoError(t, bot.Close())
	store, err := orders.NewWALStore(conf.OrdersDir)
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.Orders()
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "OUF4EM-FRGI2-MQMWZD", stored[0].TxID)
}

func TestTradingBot_FailingPairDoesNotAbortOthers(t *testing.T) {
	pairs, assets := testCatalogs()
	ex := exchangeMock.NewExchange(t)
	ex.On("AssetPairs", mock.Anything).Return(pairs, nil)
	ex.On("Assets", mock.Anything).Return(assets, nil)
	ex.On("ServerTime", mock.Anything).Return(botNow, nil)
	ex.On("TradeBalance", mock.Anything).Return(domain.TradeBalance{}, nil)
	ex.On("Balances", mock.Anything).Return(domain.Balances{"ZEUR": decimal.NewFromInt(500)}, nil)
	ex.On("OpenOrders", mock.Anything).Return(domain.ExchangeOrders{}, nil)
	ex.On("ClosedOrders", mock.Anything, mock.Anything).Return(domain.ExchangeOrders{}, nil)
	ex.On("Ticker", mock.Anything, "XETHZEUR").Return(domain.Ticker{}, errors.New("i/o timeout"))
	ex.On("Ticker", mock.Anything, "XXBTZEUR").Return(domain.Ticker{Ask: decimal.RequireFromString("60000.1")}, nil)
	ex.On("CreateOrder", mock.Anything, mock.Anything).Return(domain.OrderConfirmation{TxID: "TX-BTC"}, nil).Once()

	bot := newTestBot(t, testConfig(t, "XETHZEUR", "XXBTZEUR"), ex)

	outcomes := bot.RunOnce(context.Background())
	require.Len(t, outcomes, 2)
	assert.Equal(t, "XETHZEUR", outcomes[0].Pair)
	assert.Equal(t, domain.OutcomeFailed, outcomes[0].Kind)
	assert.Equal(t, "XXBTZEUR", outcomes[1].Pair)
	assert.Equal(t, domain.OutcomePlaced, outcomes[1].Kind)
}

func TestNewTradingBot_CatalogRetry(t *testing.T) {
	pairs, assets := testCatalogs()
	ex := exchangeMock.NewExchange(t)
	ex.On("AssetPairs", mock.Anything).Return(nil, errors.New("connection reset")).Once()
	ex.On("AssetPairs", mock.Anything).Return(pairs, nil).Once()
	ex.On("Assets", mock.Anything).Return(assets, nil).Once()

	bot := newTestBot(t, testConfig(t, "XETHZEUR"), ex)
	assert.Len(t, bot.strategies, 1)
}

func TestNewTradingBot_VenueErrorNotRetried(t *testing.T) {
	ex := exchangeMock.NewExchange(t)
	ex.On("AssetPairs", mock.Anything).
		Return(nil, &clients.APIError{Method: "AssetPairs", Messages: []string{"EGeneral:Internal error"}}).Once()

	_, err := NewTradingBot(context.Background(), testConfig(t, "XETHZEUR"), ex, zap.NewNop(),
		WithCatalogRetrier(fastRetrier()))
	require.Error(t, err)
	var apiErr *clients.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestTradingBot_RunStopsOnCancel(t *testing.T) {
	pairs, assets := testCatalogs()
	ex := exchangeMock.NewExchange(t)
	ex.On("AssetPairs", mock.Anything).Return(pairs, nil)
	ex.On("Assets", mock.Anything).Return(assets, nil)
	ex.On("ServerTime", mock.Anything).Return(botNow.Add(time.Minute), nil)

	conf := testConfig(t, "XETHZEUR")
	conf.Interval = 10 * time.Millisecond
	bot := newTestBot(t, conf, ex)

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := bot.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	// first evaluation runs immediately, then one per tick
	calls := 0
	for _, c := range ex.Calls {
		if c.Method == "ServerTime" {
			calls++
		}
	}
	assert.GreaterOrEqual(t, calls, 2)
}

func TestNewTradingBot_ReportsStaleIntentOnce(t *testing.T) {
	conf := testConfig(t, "XETHZEUR")

	j, err := intents.NewWALJournal(conf.IntentsDir)
	require.NoError(t, err)
	_, err = j.Prepare(domain.Order{Pair: "XETHZEUR", Date: botNow, Volume: decimal.RequireFromString("0.0057")})
	require.NoError(t, err)
	require.NoError(t, j.Close())

	pairs, assets := testCatalogs()
	ex := exchangeMock.NewExchange(t)
	ex.On("AssetPairs", mock.Anything).Return(pairs, nil)
	ex.On("Assets", mock.Anything).Return(assets, nil)

	bot, err := NewTradingBot(context.Background(), conf, ex, zap.NewNop(), WithCatalogRetrier(fastRetrier()))
	require.NoError(t, err)
	assert.Empty(t, bot.journal.Pending())
	require.NoError(t, bot.Close())

	restarted := newTestBot(t, conf, ex)
	assert.Empty(t, restarted.journal.Pending())
}

func TestNewExchange(t *testing.T) {
	live, err := NewExchange(config.Config{Mode: config.ModeLive, APIKey: "k", APISecret: "s"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &clients.KrakenClient{}, live)

	sim, err := NewExchange(config.Config{
		Mode:             config.ModeSimulate,
		UserName:         "paper",
		SimulateStateDir: t.TempDir(),
		SimulateBalances: domain.Balances{"ZEUR": decimal.NewFromInt(1000)},
	}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &clients.SimulateClient{}, sim)

	balances, err := sim.Balances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1000", balances.Of("ZEUR").String())

	_, err = NewExchange(config.Config{Mode: "paper"}, zap.NewNop())
	require.EqualError(t, err, "unsupported mode: paper")
}
