package pairmeta

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
	exchangeMock "github.com/vadiminshakov/krakendca/mocks/exchange"
)

func catalogs() (domain.PairCatalog, domain.AssetCatalog) {
	pairs := domain.PairCatalog{
		"XETHZEUR": {AltName: "ETHEUR", WSName: "ETH/EUR", Base: "XETH", Quote: "ZEUR",
			PairDecimals: 2, LotDecimals: 8, CostDecimals: 5, OrderMin: decimal.RequireFromString("0.005")},
		"XXBTZEUR": {AltName: "XBTEUR", WSName: "XBT/EUR", Base: "XXBT", Quote: "ZEUR",
			PairDecimals: 1, LotDecimals: 8, CostDecimals: 5, OrderMin: decimal.RequireFromString("0.0001")},
		"ADAUSD": {AltName: "ADAUSD", Base: "ADA", Quote: "ZUSD",
			PairDecimals: 6, LotDecimals: 8, OrderMin: decimal.RequireFromString("5")},
	}
	assets := domain.AssetCatalog{
		"XETH": {Code: "XETH", AltName: "ETH", Class: "currency", Decimals: 10, DisplayDecimals: 5},
		"XXBT": {Code: "XXBT", AltName: "XBT", Class: "currency", Decimals: 10, DisplayDecimals: 5},
		"ZEUR": {Code: "ZEUR", AltName: "EUR", Class: "currency", Decimals: 4, DisplayDecimals: 2},
	}
	return pairs, assets
}

func TestResolvePair(t *testing.T) {
	pairs, assets := catalogs()

	pair, err := ResolvePair(pairs, assets, "XETHZEUR")
	require.NoError(t, err)
	assert.Equal(t, "XETHZEUR", pair.Name)
	assert.Equal(t, "ETHEUR", pair.AltName)
	assert.Equal(t, "XETH", pair.Base)
	assert.Equal(t, "ZEUR", pair.Quote)
	assert.Equal(t, int32(2), pair.PairDecimals)
	assert.Equal(t, int32(8), pair.LotDecimals)
	assert.Equal(t, int32(4), pair.QuoteDecimals)
	assert.True(t, decimal.RequireFromString("0.005").Equal(pair.OrderMin))
}

func TestResolvePair_UnknownPair(t *testing.T) {
	pairs, assets := catalogs()

	_, err := ResolvePair(pairs, assets, "Fake")
	require.ErrorIs(t, err, domain.ErrUnknownPair)
	assert.Contains(t, err.Error(), "Fake pair not available on Kraken. Available pairs: ADAUSD, XETHZEUR, XXBTZEUR")
}

func TestResolvePair_UnknownQuoteAsset(t *testing.T) {
	pairs, assets := catalogs()

	_, err := ResolvePair(pairs, assets, "ADAUSD")
	require.ErrorIs(t, err, domain.ErrUnknownAsset)
	assert.Contains(t, err.Error(), "ZUSD asset not available on Kraken. Available assets: XETH, XXBT, ZEUR")
}

func TestResolvePair_InvalidOrderMin(t *testing.T) {
	pairs, assets := catalogs()
	info := pairs["XETHZEUR"]
	info.OrderMin = decimal.Zero
	pairs["XETHZEUR"] = info

	_, err := ResolvePair(pairs, assets, "XETHZEUR")
	require.Error(t, err)
}

func TestResolveAsset(t *testing.T) {
	_, assets := catalogs()
	client := exchangeMock.NewExchange(t)
	client.On("Assets", mock.Anything).Return(assets, nil)

	asset, err := ResolveAsset(context.Background(), client, "XETH")
	require.NoError(t, err)
	assert.Equal(t, domain.AssetInfo{Code: "XETH", AltName: "ETH", Class: "currency", Decimals: 10, DisplayDecimals: 5}, asset)

	_, err = ResolveAsset(context.Background(), client, "Fake")
	require.ErrorIs(t, err, domain.ErrUnknownAsset)
	assert.Contains(t, err.Error(), "Fake asset not available on Kraken. Available assets:")
}

func TestResolveAsset_TransportError(t *testing.T) {
	client := exchangeMock.NewExchange(t)
	boom := errors.New("connection refused")
	client.On("Assets", mock.Anything).Return(nil, boom)

	_, err := ResolveAsset(context.Background(), client, "XETH")
	require.ErrorIs(t, err, boom)
}

func TestFetchAskPrice(t *testing.T) {
	client := exchangeMock.NewExchange(t)
	client.On("Ticker", mock.Anything, "XETHZEUR").Return(domain.Ticker{
		Ask:  decimal.RequireFromString("1749.76"),
		Bid:  decimal.RequireFromString("1749.5"),
		Last: decimal.RequireFromString("1749.6"),
	}, nil)

	ask, err := FetchAskPrice(context.Background(), client, "XETHZEUR")
	require.NoError(t, err)
	assert.Equal(t, "1749.76", ask.String())
}

func TestFetchAskPrice_VenueError(t *testing.T) {
	client := exchangeMock.NewExchange(t)
	client.On("Ticker", mock.Anything, "Fake").
		Return(domain.Ticker{}, &clients.APIError{Method: "Ticker", Messages: []string{"EQuery:Unknown asset pair"}})

	_, err := FetchAskPrice(context.Background(), client, "Fake")
	require.ErrorIs(t, err, domain.ErrQuote)
	assert.Contains(t, err.Error(), "Kraken API error -> EQuery:Unknown asset pair")
}

func TestFetchAskPrice_TransportErrorPropagates(t *testing.T) {
	client := exchangeMock.NewExchange(t)
	boom := errors.New("i/o timeout")
	client.On("Ticker", mock.Anything, "XETHZEUR").Return(domain.Ticker{}, boom)

	_, err := FetchAskPrice(context.Background(), client, "XETHZEUR")
	assert.Equal(t, boom, err)
	assert.NotErrorIs(t, err, domain.ErrQuote)
}
