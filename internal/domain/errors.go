package domain

import "github.com/pkg/errors"

var (
	// ErrClockSkew local and exchange clocks drifted too far apart to trade safely.
	ErrClockSkew = errors.New("clock skew between system and exchange")
	// ErrInsufficientFunds quote balance is below the purchase amount.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrUnknownPair pair is not in the exchange catalog.
	ErrUnknownPair = errors.New("unknown pair")
	// ErrUnknownAsset asset is not in the exchange catalog.
	ErrUnknownAsset = errors.New("unknown asset")
	// ErrDivision order sizing was asked to divide by a zero price.
	ErrDivision = errors.New("price must not be 0")
	// ErrMinimumVolume sized volume is below the pair minimum.
	ErrMinimumVolume = errors.New("volume below pair minimum")
	// ErrQuote exchange returned an error instead of a ticker.
	ErrQuote = errors.New("quote unavailable")
)
