package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PriceHistoryStore is an in-memory implementation of storage.PriceHistoryStore.
type PriceHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.PricePoint // keyed by mint
}

// NewPriceHistoryStore creates a new in-memory price history store.
func NewPriceHistoryStore() *PriceHistoryStore {
	return &PriceHistoryStore{
		data: make(map[string][]*domain.PricePoint),
	}
}

// InsertBulk adds multiple points.
func (s *PriceHistoryStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if p == nil || p.Mint == "" {
			return storage.ErrInvalidInput
		}
	}
	for _, p := range points {
		copy := *p
		s.data[p.Mint] = append(s.data[p.Mint], &copy)
	}
	return nil
}

// GetByMint retrieves all points for a mint, ordered by time ASC.
func (s *PriceHistoryStore) GetByMint(_ context.Context, mint string) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := s.data[mint]
	result := make([]*domain.PricePoint, 0, len(points))
	for _, p := range points {
		copy := *p
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt.Before(result[j].ObservedAt)
	})

	return result, nil
}

// GetByTimeRange retrieves points for a mint within [start, end] (inclusive).
func (s *PriceHistoryStore) GetByTimeRange(ctx context.Context, mint string, start, end time.Time) ([]*domain.PricePoint, error) {
	all, err := s.GetByMint(ctx, mint)
	if err != nil {
		return nil, err
	}

	var result []*domain.PricePoint
	for _, p := range all {
		if !p.ObservedAt.Before(start) && !p.ObservedAt.After(end) {
			result = append(result, p)
		}
	}
	return result, nil
}

var _ storage.PriceHistoryStore = (*PriceHistoryStore)(nil)
