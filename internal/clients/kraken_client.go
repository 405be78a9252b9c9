package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

const (
	DefaultKrakenURL     = "https://api.kraken.com"
	krakenAPIVersion     = "0"
	defaultKrakenTimeout = 30 * time.Second
	closedOrdersPageSize = 50
)

// APIError is an error payload reported by Kraken instead of a result.
type APIError struct {
	Method   string
	Messages []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Kraken API error -> %s", strings.Join(e.Messages, ", "))
}

// KrakenClient is a Kraken spot REST API client.
type KrakenClient struct {
	rest      *resty.Client
	apiKey    string
	apiSecret string

	// privateMu serializes private calls: Kraken rejects a nonce lower than
	// one it has already seen, so requests must arrive in nonce order.
	privateMu sync.Mutex
	nonceMu   sync.Mutex
	lastNonce int64
}

// KrakenOption configures the KrakenClient.
type KrakenOption func(*KrakenClient)

// WithBaseURL overrides the Kraken API host.
func WithBaseURL(baseURL string) KrakenOption {
	return func(c *KrakenClient) {
		c.rest.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) KrakenOption {
	return func(c *KrakenClient) {
		c.rest.SetTimeout(d)
	}
}

// NewKrakenClient creates a Kraken client. Public endpoints work with empty credentials.
// Requests are never retried: AddOrder is not idempotent.
func NewKrakenClient(apiKey, apiSecret string, opts ...KrakenOption) *KrakenClient {
	c := &KrakenClient{
		rest: resty.New().
			SetBaseURL(DefaultKrakenURL).
			SetTimeout(defaultKrakenTimeout).
			SetRetryCount(0).
			SetHeader("User-Agent", "krakendca"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (c *KrakenClient) public(ctx context.Context, method string, params map[string]string, out any) error {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(fmt.Sprintf("/%s/public/%s", krakenAPIVersion, method))
	if err != nil {
		return errors.Wrapf(err, "kraken %s request failed", method)
	}

	return decodeEnvelope(method, resp, out)
}

func (c *KrakenClient) private(ctx context.Context, method string, params url.Values, out any) error {
	if c.apiKey == "" || c.apiSecret == "" {
		return errors.Errorf("kraken %s requires API credentials", method)
	}

	if params == nil {
		params = url.Values{}
	}

	c.privateMu.Lock()
	defer c.privateMu.Unlock()

	nonce := c.nextNonce()
	params.Set("nonce", strconv.FormatInt(nonce, 10))
	body := params.Encode()
	path := fmt.Sprintf("/%s/private/%s", krakenAPIVersion, method)

	signature, err := signRequest(c.apiSecret, path, nonce, body)
	if err != nil {
		return errors.Wrapf(err, "sign kraken %s request", method)
	}

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("API-Key", c.apiKey).
		SetHeader("API-Sign", signature).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(body).
		Post(path)
	if err != nil {
		return errors.Wrapf(err, "kraken %s request failed", method)
	}

	return decodeEnvelope(method, resp, out)
}

func decodeEnvelope(method string, resp *resty.Response, out any) error {
	if resp.StatusCode() != http.StatusOK {
		return errors.Errorf("kraken %s returned http %d: %s", method, resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
	}

	var env krakenEnvelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return errors.Wrapf(err, "decode kraken %s response", method)
	}
	if len(env.Error) > 0 {
		return &APIError{Method: method, Messages: env.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return errors.Wrapf(err, "decode kraken %s result", method)
	}

	return nil
}

func (c *KrakenClient) nextNonce() int64 {
	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	nonce := time.Now().UnixMilli()
	if nonce <= c.lastNonce {
		nonce = c.lastNonce + 1
	}
	c.lastNonce = nonce

	return nonce
}

// ServerTime returns the Kraken server clock.
func (c *KrakenClient) ServerTime(ctx context.Context) (time.Time, error) {
	var result struct {
		UnixTime int64 `json:"unixtime"`
	}
	if err := c.public(ctx, "Time", nil, &result); err != nil {
		return time.Time{}, err
	}

	return time.Unix(result.UnixTime, 0).UTC(), nil
}

type assetEntry struct {
	Class           string `json:"aclass"`
	AltName         string `json:"altname"`
	Decimals        int32  `json:"decimals"`
	DisplayDecimals int32  `json:"display_decimals"`
}

// Assets returns the asset catalog.
func (c *KrakenClient) Assets(ctx context.Context) (domain.AssetCatalog, error) {
	var result map[string]assetEntry
	if err := c.public(ctx, "Assets", nil, &result); err != nil {
		return nil, err
	}

	catalog := make(domain.AssetCatalog, len(result))
	for code, a := range result {
		catalog[code] = domain.AssetInfo{
			Code:            code,
			AltName:         a.AltName,
			Class:           a.Class,
			Decimals:        a.Decimals,
			DisplayDecimals: a.DisplayDecimals,
		}
	}

	return catalog, nil
}

type assetPairEntry struct {
	AltName      string `json:"altname"`
	WSName       string `json:"wsname"`
	Base         string `json:"base"`
	Quote        string `json:"quote"`
	PairDecimals int32  `json:"pair_decimals"`
	LotDecimals  int32  `json:"lot_decimals"`
	CostDecimals int32  `json:"cost_decimals"`
	OrderMin     string `json:"ordermin"`
}

// AssetPairs returns the tradable asset pair catalog.
func (c *KrakenClient) AssetPairs(ctx context.Context) (domain.PairCatalog, error) {
	var result map[string]assetPairEntry
	if err := c.public(ctx, "AssetPairs", nil, &result); err != nil {
		return nil, err
	}

	catalog := make(domain.PairCatalog, len(result))
	for name, p := range result {
		orderMin := decimal.Zero
		if p.OrderMin != "" {
			v, err := decimal.NewFromString(p.OrderMin)
			if err != nil {
				return nil, errors.Wrapf(err, "parse ordermin of %s", name)
			}
			orderMin = v
		}
		catalog[name] = domain.PairInfo{
			AltName:      p.AltName,
			WSName:       p.WSName,
			Base:         p.Base,
			Quote:        p.Quote,
			PairDecimals: p.PairDecimals,
			LotDecimals:  p.LotDecimals,
			CostDecimals: p.CostDecimals,
			OrderMin:     orderMin,
		}
	}

	return catalog, nil
}

type tickerEntry struct {
	Ask  []string `json:"a"`
	Bid  []string `json:"b"`
	Last []string `json:"c"`
}

// Ticker returns the best ask, best bid and last trade price of pair.
func (c *KrakenClient) Ticker(ctx context.Context, pair string) (domain.Ticker, error) {
	var result map[string]tickerEntry
	if err := c.public(ctx, "Ticker", map[string]string{"pair": pair}, &result); err != nil {
		return domain.Ticker{}, err
	}

	entry, ok := result[pair]
	if !ok {
		// Kraken keys the result by the primary pair name even when queried by alt name.
		if len(result) != 1 {
			return domain.Ticker{}, errors.Wrapf(domain.ErrQuote, "ticker for %s missing from response", pair)
		}
		for _, e := range result {
			entry = e
		}
	}

	ask, err := firstDecimal(entry.Ask)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "parse %s ask price", pair)
	}
	bid, err := firstDecimal(entry.Bid)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "parse %s bid price", pair)
	}
	last, err := firstDecimal(entry.Last)
	if err != nil {
		return domain.Ticker{}, errors.Wrapf(err, "parse %s last price", pair)
	}

	return domain.Ticker{Ask: ask, Bid: bid, Last: last}, nil
}

func firstDecimal(values []string) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(values[0])
}

// Balances returns the account balance of every held asset.
func (c *KrakenClient) Balances(ctx context.Context) (domain.Balances, error) {
	var result map[string]string
	if err := c.private(ctx, "Balance", nil, &result); err != nil {
		return nil, err
	}

	balances := make(domain.Balances, len(result))
	for asset, amount := range result {
		v, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s balance", asset)
		}
		balances[asset] = v
	}

	return balances, nil
}

// TradeBalance returns the trade balance summary.
func (c *KrakenClient) TradeBalance(ctx context.Context) (domain.TradeBalance, error) {
	var result struct {
		EquivalentBalance decimal.Decimal `json:"eb"`
		TradeBalance      decimal.Decimal `json:"tb"`
	}
	if err := c.private(ctx, "TradeBalance", nil, &result); err != nil {
		return domain.TradeBalance{}, err
	}

	return domain.TradeBalance{
		EquivalentBalance: result.EquivalentBalance,
		TradeBalance:      result.TradeBalance,
	}, nil
}

type orderEntry struct {
	Status   string  `json:"status"`
	OpenTime float64 `json:"opentm"`
	Volume   string  `json:"vol"`
	Descr    struct {
		Pair      string `json:"pair"`
		Type      string `json:"type"`
		OrderType string `json:"ordertype"`
		Price     string `json:"price"`
	} `json:"descr"`
}

func (e orderEntry) toDomain(id string) (domain.ExchangeOrder, error) {
	volume, err := parseOptionalDecimal(e.Volume)
	if err != nil {
		return domain.ExchangeOrder{}, errors.Wrapf(err, "parse volume of order %s", id)
	}
	price, err := parseOptionalDecimal(e.Descr.Price)
	if err != nil {
		return domain.ExchangeOrder{}, errors.Wrapf(err, "parse price of order %s", id)
	}
	sec := int64(e.OpenTime)
	nsec := int64((e.OpenTime - float64(sec)) * float64(time.Second))

	return domain.ExchangeOrder{
		ID:       id,
		Pair:     e.Descr.Pair,
		Side:     domain.OrderSide(e.Descr.Type),
		Kind:     domain.OrderKind(e.Descr.OrderType),
		Status:   e.Status,
		Volume:   volume,
		Price:    price,
		OpenedAt: time.Unix(sec, nsec).UTC(),
	}, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func toExchangeOrders(entries map[string]orderEntry) (domain.ExchangeOrders, error) {
	orders := make(domain.ExchangeOrders, 0, len(entries))
	for id, e := range entries {
		order, err := e.toDomain(id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// OpenOrders returns the currently open orders.
func (c *KrakenClient) OpenOrders(ctx context.Context) (domain.ExchangeOrders, error) {
	var result struct {
		Open map[string]orderEntry `json:"open"`
	}
	if err := c.private(ctx, "OpenOrders", nil, &result); err != nil {
		return nil, err
	}

	return toExchangeOrders(result.Open)
}

// ClosedOrders returns every closed order matching filter, following pagination.
func (c *KrakenClient) ClosedOrders(ctx context.Context, filter domain.ClosedOrdersFilter) (domain.ExchangeOrders, error) {
	orders := make(domain.ExchangeOrders, 0)

	for offset := 0; ; {
		params := url.Values{}
		if !filter.Start.IsZero() {
			params.Set("start", strconv.FormatInt(filter.Start.Unix(), 10))
		}
		if filter.CloseTime != "" {
			params.Set("closetime", filter.CloseTime)
		}
		if offset > 0 {
			params.Set("ofs", strconv.Itoa(offset))
		}

		var result struct {
			Closed map[string]orderEntry `json:"closed"`
			Count  int                   `json:"count"`
		}
		if err := c.private(ctx, "ClosedOrders", params, &result); err != nil {
			return nil, err
		}

		page, err := toExchangeOrders(result.Closed)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page...)
		offset += len(result.Closed)
		if len(result.Closed) < closedOrdersPageSize || offset >= result.Count {
			return orders, nil
		}
	}
}

// CreateOrder submits an order. The call is not idempotent and is never retried.
func (c *KrakenClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderConfirmation, error) {
	params := url.Values{}
	params.Set("pair", req.Pair)
	params.Set("type", string(req.Side))
	params.Set("ordertype", string(req.Kind))
	params.Set("price", req.LimitPrice.String())
	params.Set("volume", req.Volume.String())
	if req.Flags != "" {
		params.Set("oflags", req.Flags)
	}

	var result struct {
		Descr struct {
			Order string `json:"order"`
		} `json:"descr"`
		TxID []string `json:"txid"`
	}
	if err := c.private(ctx, "AddOrder", params, &result); err != nil {
		return domain.OrderConfirmation{}, err
	}
	if len(result.TxID) == 0 {
		return domain.OrderConfirmation{}, errors.Errorf("kraken AddOrder for %s returned no txid", req.Pair)
	}

	return domain.OrderConfirmation{TxID: result.TxID[0], Description: result.Descr.Order}, nil
}
