// Package pairmeta resolves Kraken pair and asset metadata and current prices.
package pairmeta

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/krakendca/internal/clients"
	"github.com/vadiminshakov/krakendca/internal/domain"
)

type assetLister interface {
	Assets(ctx context.Context) (domain.AssetCatalog, error)
}

type ticker interface {
	Ticker(ctx context.Context, pair string) (domain.Ticker, error)
}

// ResolvePair builds the Pair for symbol from the pair and asset catalogs.
func ResolvePair(pairs domain.PairCatalog, assets domain.AssetCatalog, symbol string) (domain.Pair, error) {
	info, ok := pairs[symbol]
	if !ok {
		return domain.Pair{}, errors.Wrapf(domain.ErrUnknownPair, "%s pair not available on Kraken. Available pairs: %s",
			symbol, strings.Join(sortedKeys(pairs), ", "))
	}

	quote, err := lookupAsset(assets, info.Quote)
	if err != nil {
		return domain.Pair{}, errors.Wrapf(err, "resolve quote asset of %s", symbol)
	}

	pair := domain.Pair{
		Name:          symbol,
		AltName:       info.AltName,
		Base:          info.Base,
		Quote:         info.Quote,
		PairDecimals:  info.PairDecimals,
		LotDecimals:   info.LotDecimals,
		QuoteDecimals: quote.Decimals,
		OrderMin:      info.OrderMin,
	}
	if err := pair.Validate(); err != nil {
		return domain.Pair{}, errors.Wrapf(err, "invalid catalog entry for %s", symbol)
	}

	return pair, nil
}

// ResolveAsset fetches the asset catalog and returns the entry of code.
func ResolveAsset(ctx context.Context, client assetLister, code string) (domain.AssetInfo, error) {
	assets, err := client.Assets(ctx)
	if err != nil {
		return domain.AssetInfo{}, errors.Wrap(err, "fetch asset catalog")
	}

	return lookupAsset(assets, code)
}

// FetchAskPrice returns the best ask of symbol. Venue error payloads are
// reported as ErrQuote; transport errors are returned unchanged.
func FetchAskPrice(ctx context.Context, client ticker, symbol string) (decimal.Decimal, error) {
	t, err := client.Ticker(ctx, symbol)
	if err != nil {
		var apiErr *clients.APIError
		if errors.As(err, &apiErr) {
			return decimal.Zero, errors.Wrap(domain.ErrQuote, apiErr.Error())
		}
		return decimal.Zero, err
	}
	if !t.Ask.IsPositive() {
		return decimal.Zero, errors.Wrapf(domain.ErrQuote, "no ask price for %s", symbol)
	}

	return t.Ask, nil
}

func lookupAsset(assets domain.AssetCatalog, code string) (domain.AssetInfo, error) {
	asset, ok := assets[code]
	if !ok {
		return domain.AssetInfo{}, errors.Wrapf(domain.ErrUnknownAsset, "%s asset not available on Kraken. Available assets: %s",
			code, strings.Join(sortedKeys(assets), ", "))
	}
	if asset.Code == "" {
		asset.Code = code
	}

	return asset, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
