package orders

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

const (
	DefaultDir   = "./wal/orders"
	segmentLimit = 1000
	maxSegments  = 100

	orderKeyPrefix = "order_"
)

// WALStore persists submitted orders in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed order store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create orders dir %s", dir)
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "orders_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init orders WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Key identifies an order record by pair, date and txid.
func Key(order domain.Order) string {
	return fmt.Sprintf("%s%s_%s_%s", orderKeyPrefix, order.Pair, order.Date.UTC().Format("2006-01-02T15:04:05Z"), order.TxID)
}

// Put writes a confirmed order to the WAL.
func (s *WALStore) Put(order domain.Order) error {
	if s == nil || s.wal == nil {
		return errors.New("order store is not initialized")
	}
	if !order.IsSubmitted() {
		return fmt.Errorf("order for %s has no txid", order.Pair)
	}

	payload, err := json.Marshal(order)
	if err != nil {
		return errors.Wrap(err, "marshal order")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, Key(order), payload)
}

// Orders returns every stored order in write order.
func (s *WALStore) Orders() ([]domain.Order, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("order store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]domain.Order, 0)
	for msg := range s.wal.Iterator() {
		if !strings.HasPrefix(msg.Key, orderKeyPrefix) {
			continue
		}
		var order domain.Order
		if err := json.Unmarshal(msg.Value, &order); err != nil {
			return nil, errors.Wrapf(err, "decode order %s", msg.Key)
		}
		orders = append(orders, order)
	}

	return orders, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("order store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
