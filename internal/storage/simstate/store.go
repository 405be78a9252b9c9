package simstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

const DefaultDir = "./wal/simulate"

// Store persists the paper trading account so restarts keep balances and order history.
type Store struct {
	path string
}

// NewStore creates a simulator state store in dir. scope names the state file.
func NewStore(dir, scope string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create simulate state dir")
	}

	name := sanitizeScope(scope)
	if name == "" {
		name = "account"
	}

	return &Store{path: filepath.Join(dir, fmt.Sprintf("%s.json", name))}, nil
}

// Path returns the state file location.
func (s *Store) Path() string {
	return s.path
}

// State represents all persisted simulator data.
type State struct {
	Balances map[string]string `json:"balances"`
	Orders   []StoredOrder     `json:"orders"`
}

// StoredOrder is a serializable snapshot of domain.ExchangeOrder.
type StoredOrder struct {
	ID       string    `json:"id"`
	Pair     string    `json:"pair"`
	Side     string    `json:"side"`
	Kind     string    `json:"kind"`
	Status   string    `json:"status"`
	Volume   string    `json:"volume"`
	Price    string    `json:"price"`
	OpenedAt time.Time `json:"opened_at"`
}

// Load reads simulator state from disk. A missing file yields nil state.
func (s *Store) Load() (*State, error) {
	if s == nil || s.path == "" {
		return nil, nil
	}

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "read simulate state")
	}

	if len(payload) == 0 {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, errors.Wrap(err, "decode simulate state")
	}

	return &state, nil
}

// Save writes simulator state to disk atomically via temp file.
func (s *Store) Save(state State) error {
	if s == nil || s.path == "" {
		return nil
	}

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode simulate state")
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return errors.Wrap(err, "write simulate state temp file")
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "persist simulate state")
	}

	return nil
}

// EncodeBalances converts balances into their stored representation.
func EncodeBalances(b domain.Balances) map[string]string {
	out := make(map[string]string, len(b))
	for asset, amount := range b {
		out[asset] = amount.String()
	}
	return out
}

// DecodeBalances reconstructs balances from stored data.
func DecodeBalances(stored map[string]string) (domain.Balances, error) {
	out := make(domain.Balances, len(stored))
	for asset, amount := range stored {
		v, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s balance", asset)
		}
		out[asset] = v
	}
	return out, nil
}

// NewStoredOrder converts domain.ExchangeOrder into its stored representation.
func NewStoredOrder(o domain.ExchangeOrder) StoredOrder {
	return StoredOrder{
		ID:       o.ID,
		Pair:     o.Pair,
		Side:     string(o.Side),
		Kind:     string(o.Kind),
		Status:   o.Status,
		Volume:   o.Volume.String(),
		Price:    o.Price.String(),
		OpenedAt: o.OpenedAt,
	}
}

// ToExchangeOrder reconstructs domain.ExchangeOrder from stored data.
func (so StoredOrder) ToExchangeOrder() (domain.ExchangeOrder, error) {
	volume, err := decimal.NewFromString(so.Volume)
	if err != nil {
		return domain.ExchangeOrder{}, errors.Wrapf(err, "decode order %s volume", so.ID)
	}
	price, err := decimal.NewFromString(so.Price)
	if err != nil {
		return domain.ExchangeOrder{}, errors.Wrapf(err, "decode order %s price", so.ID)
	}

	return domain.ExchangeOrder{
		ID:       so.ID,
		Pair:     so.Pair,
		Side:     domain.OrderSide(so.Side),
		Kind:     domain.OrderKind(so.Kind),
		Status:   so.Status,
		Volume:   volume,
		Price:    price,
		OpenedAt: so.OpenedAt,
	}, nil
}

func sanitizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return ""
	}

	scope = strings.ToLower(scope)
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_", ":", "_")
	return replacer.Replace(scope)
}
