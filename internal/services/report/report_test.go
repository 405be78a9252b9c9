package report

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/krakendca/internal/domain"
	exchangeMock "github.com/vadiminshakov/krakendca/mocks/exchange"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func order(user, pair string, day int, volume, price, fee, total string) domain.Order {
	return domain.Order{
		UserName:   user,
		Pair:       pair,
		Date:       time.Date(2026, 10, day, 9, 0, 0, 0, time.UTC),
		Volume:     d(volume),
		Price:      d(price),
		Fee:        d(fee),
		TotalPrice: d(total),
		TxID:       "TX",
	}
}

func history() []domain.Order {
	return []domain.Order{
		order("alice", "XETHZEUR", 2, "0.00570023", "9.974", "0.0259", "9.9999"),
		order("alice", "XXBTZEUR", 1, "0.0003", "18", "0.0468", "18.0468"),
		order("alice", "XETHZEUR", 1, "0.006", "9.9", "0.0257", "9.9257"),
		order("bob", "XETHZEUR", 3, "0.01", "17", "0.0442", "17.0442"),
	}
}

func TestSummarize(t *testing.T) {
	summaries := Summarize(history(), map[string]decimal.Decimal{
		"XETHZEUR": d("2000"),
		"XXBTZEUR": d("50000"),
	})
	require.Len(t, summaries, 3)

	// alice first, her most spent pair first
	eth := summaries[0]
	assert.Equal(t, "alice", eth.UserName)
	assert.Equal(t, "XETHZEUR", eth.Pair)
	assert.Equal(t, 2, eth.Orders)
	assert.Equal(t, "0.01170023", eth.Volume.String())
	assert.Equal(t, "19.874", eth.Spent.String())
	assert.Equal(t, "0.0516", eth.Fees.String())
	assert.Equal(t, "19.9256", eth.TotalSpent.String())
	assert.Equal(t, time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), eth.First)
	assert.Equal(t, time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC), eth.Last)
	assert.Equal(t, "23.40046", eth.Valuation.String())
	assert.Equal(t, "3.47486", eth.Profit.String())
	assert.Equal(t, "1698.59908737", eth.AveragePrice().String())

	btc := summaries[1]
	assert.Equal(t, "XXBTZEUR", btc.Pair)
	assert.Equal(t, "15", btc.Valuation.String())
	assert.Equal(t, "-3.0468", btc.Profit.String())

	assert.Equal(t, "bob", summaries[2].UserName)
}

func TestSummarize_MissingPrice(t *testing.T) {
	summaries := Summarize(history(), nil)
	require.Len(t, summaries, 3)
	for _, s := range summaries {
		assert.False(t, s.HasPrice())
		assert.True(t, s.Profit.IsZero())
	}
}

func TestPairs(t *testing.T) {
	assert.Equal(t, []string{"XETHZEUR", "XXBTZEUR"}, Pairs(history()))
	assert.Empty(t, Pairs(nil))
}

func TestFetchPrices(t *testing.T) {
	client := exchangeMock.NewExchange(t)
	client.On("Ticker", mock.Anything, "XETHZEUR").Return(domain.Ticker{Ask: d("1749.76")}, nil)
	client.On("Ticker", mock.Anything, "XXBTZEUR").Return(domain.Ticker{}, errors.New("timeout"))

	prices := FetchPrices(context.Background(), client, []string{"XETHZEUR", "XXBTZEUR"}, zap.NewNop())
	require.Len(t, prices, 1)
	assert.Equal(t, "1749.76", prices["XETHZEUR"].String())
}

func TestAveragePrice_ZeroVolume(t *testing.T) {
	assert.True(t, PairSummary{}.AveragePrice().IsZero())
}
