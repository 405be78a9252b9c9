// Package intents journals order submission attempts so a crash between
// submitting and recording an order is visible on the next start.
package intents

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/krakendca/internal/domain"
)

const (
	DefaultDir   = "./wal/intents"
	segmentLimit = 1000
	maxSegments  = 10

	intentKeyPrefix = "order_intent_"
)

// Status of a submission attempt.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	// StatusReported a pending intent left by a previous run whose unknown
	// outcome has been reported to the operator.
	StatusReported Status = "reported"
)

// Intent is one submission attempt of an order.
type Intent struct {
	ID         string          `json:"id"`
	Status     Status          `json:"status"`
	Pair       string          `json:"pair"`
	Volume     decimal.Decimal `json:"volume"`
	LimitPrice decimal.Decimal `json:"limit_price"`
	Time       time.Time       `json:"time"`
	TxID       string          `json:"txid,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// WALJournal persists intents in a WAL.
type WALJournal struct {
	mu      sync.Mutex
	wal     *gowal.Wal
	intents map[string]*Intent
}

// NewWALJournal opens the journal and replays the intents already recorded in it.
func NewWALJournal(dir string) (*WALJournal, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create intents dir %s", dir)
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "intents_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init intents WAL")
	}

	intents := make(map[string]*Intent)
	for msg := range wal.Iterator() {
		if !strings.HasPrefix(msg.Key, intentKeyPrefix) {
			continue
		}
		var intent Intent
		if err := json.Unmarshal(msg.Value, &intent); err != nil {
			_ = wal.Close()
			return nil, errors.Wrapf(err, "decode intent %s", msg.Key)
		}
		// later records of the same intent supersede earlier ones
		intents[intent.ID] = &intent
	}

	return &WALJournal{wal: wal, intents: intents}, nil
}

// Prepare records a pending submission of order.
func (j *WALJournal) Prepare(order domain.Order) (*Intent, error) {
	intent := &Intent{
		ID:         uuid.New().String(),
		Status:     StatusPending,
		Pair:       order.Pair,
		Volume:     order.Volume,
		LimitPrice: order.LimitPrice,
		Time:       order.Date,
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.persist(intent); err != nil {
		return nil, err
	}
	j.intents[intent.ID] = intent

	return intent, nil
}

// MarkDone records that the exchange accepted the order under txid.
func (j *WALJournal) MarkDone(intent *Intent, txid string) error {
	if intent == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	intent.Status = StatusDone
	intent.TxID = txid
	intent.Error = ""
	return j.persist(intent)
}

// MarkFailed records that the submission failed with cause.
func (j *WALJournal) MarkFailed(intent *Intent, cause error) error {
	if intent == nil {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	intent.Status = StatusFailed
	if cause != nil {
		intent.Error = cause.Error()
	} else {
		intent.Error = ""
	}
	return j.persist(intent)
}

// MarkReported closes a pending intent of a previous run once its unknown
// outcome has been reported, so it is not reported again on the next start.
func (j *WALJournal) MarkReported(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	intent, ok := j.intents[id]
	if !ok {
		return errors.Errorf("intent %s not found", id)
	}
	if intent.Status != StatusPending {
		return nil
	}

	intent.Status = StatusReported
	return j.persist(intent)
}

// Pending returns intents whose outcome was never recorded, oldest first.
func (j *WALJournal) Pending() []Intent {
	j.mu.Lock()
	defer j.mu.Unlock()

	pending := make([]Intent, 0)
	for _, intent := range j.intents {
		if intent.Status == StatusPending {
			pending = append(pending, *intent)
		}
	}
	sort.Slice(pending, func(a, b int) bool {
		return pending[a].Time.Before(pending[b].Time)
	})

	return pending
}

// Close closes the underlying WAL.
func (j *WALJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.wal.Close()
}

func (j *WALJournal) persist(intent *Intent) error {
	data, err := json.Marshal(intent)
	if err != nil {
		return errors.Wrap(err, "marshal order intent")
	}
	key := fmt.Sprintf("%s%s", intentKeyPrefix, intent.ID)
	nextIndex := j.wal.CurrentIndex() + 1
	return j.wal.Write(nextIndex, key, data)
}
