// Package performance persists the append-only trade-outcome history that
// feeds the adaptive fusion weights.
package performance

import (
	"encoding/json"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"github.com/vadiminshakov/sentio/internal/domain"
)

const (
	DefaultDir   = "./wal/performance"
	segmentLimit = 500
	maxSegments  = 10

	outcomeKey = "outcome"
)

// WALStore persists trade outcomes in a WAL.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore initializes a WAL-backed performance store.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = DefaultDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "perf_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init performance WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append journals one trade outcome.
func (s *WALStore) Append(record domain.PerformanceRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("performance store is not initialized")
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal performance record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, outcomeKey, payload)
}

// All replays the journal into the outcome history, oldest first.
func (s *WALStore) All() ([]domain.PerformanceRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("performance store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var history []domain.PerformanceRecord
	for m := range s.wal.Iterator() {
		if m.Key != outcomeKey {
			continue
		}

		var record domain.PerformanceRecord
		if err := json.Unmarshal(m.Value, &record); err != nil {
			return nil, errors.Wrap(err, "decode performance record")
		}
		history = append(history, record)
	}

	return history, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("performance store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
