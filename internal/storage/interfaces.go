package storage

import (
	"context"
	"time"

	"solana-sniper/internal/domain"
)

// TradeStore provides access to the trades journal.
type TradeStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByMint retrieves all trades for a mint, ordered by execution time ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.TradeRecord, error)

	// GetRecent retrieves the most recent trades, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.TradeRecord, error)

	// UpdateStatus changes the confirmation status of a trade.
	// Returns ErrNotFound if trade_id does not exist.
	UpdateStatus(ctx context.Context, tradeID, status string) error
}

// PriceHistoryStore provides access to sampled price observations.
type PriceHistoryStore interface {
	// InsertBulk adds multiple points.
	InsertBulk(ctx context.Context, points []*domain.PricePoint) error

	// GetByMint retrieves all points for a mint, ordered by time ASC.
	GetByMint(ctx context.Context, mint string) ([]*domain.PricePoint, error)

	// GetByTimeRange retrieves points for a mint within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, mint string, start, end time.Time) ([]*domain.PricePoint, error)
}
