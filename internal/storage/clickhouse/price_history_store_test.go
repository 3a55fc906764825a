package clickhouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
	chstore "solana-sniper/internal/storage/clickhouse"
)

func TestPriceHistoryStore_InsertBulk(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewPriceHistoryStore(conn)
	ctx := context.Background()

	// Empty insert is a no-op
	err := store.InsertBulk(ctx, nil)
	assert.NoError(t, err)

	observed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	points := []*domain.PricePoint{
		{
			Mint:         "mint-1",
			ObservedAt:   observed,
			PriceSOL:     0.00000003,
			LiquiditySOL: 5.0,
		},
	}

	err = store.InsertBulk(ctx, points)
	require.NoError(t, err)

	got, err := store.GetByMint(ctx, "mint-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "mint-1", got[0].Mint)
	assert.True(t, observed.Equal(got[0].ObservedAt), "observed_at mismatch: %v", got[0].ObservedAt)
	assert.Equal(t, 0.00000003, got[0].PriceSOL)
	assert.Equal(t, 5.0, got[0].LiquiditySOL)
}

func TestPriceHistoryStore_InsertBulk_Invalid(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewPriceHistoryStore(conn)
	ctx := context.Background()

	points := []*domain.PricePoint{
		{Mint: "mint-2", ObservedAt: time.Now().UTC(), PriceSOL: 1e-8},
		{Mint: ""},
	}

	err := store.InsertBulk(ctx, points)
	require.ErrorIs(t, err, storage.ErrInvalidInput)

	// Nothing from the rejected batch is stored
	got, err := store.GetByMint(ctx, "mint-2")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPriceHistoryStore_GetByMint_Ordered(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewPriceHistoryStore(conn)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	points := []*domain.PricePoint{
		{Mint: "mint-3", ObservedAt: base.Add(10 * time.Second), PriceSOL: 3e-8, LiquiditySOL: 6.0},
		{Mint: "mint-3", ObservedAt: base, PriceSOL: 2e-8, LiquiditySOL: 5.0},
		{Mint: "mint-4", ObservedAt: base, PriceSOL: 9e-8, LiquiditySOL: 9.0},
		{Mint: "mint-3", ObservedAt: base.Add(5 * time.Second), PriceSOL: 2.5e-8, LiquiditySOL: 5.5},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByMint(ctx, "mint-3")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2e-8, got[0].PriceSOL)
	assert.Equal(t, 2.5e-8, got[1].PriceSOL)
	assert.Equal(t, 3e-8, got[2].PriceSOL)
}

func TestPriceHistoryStore_GetByMint_Empty(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewPriceHistoryStore(conn)

	got, err := store.GetByMint(context.Background(), "unknown-mint")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPriceHistoryStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewPriceHistoryStore(conn)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	var points []*domain.PricePoint
	for i := 0; i < 5; i++ {
		points = append(points, &domain.PricePoint{
			Mint:         "mint-5",
			ObservedAt:   base.Add(time.Duration(i) * time.Minute),
			PriceSOL:     float64(i+1) * 1e-8,
			LiquiditySOL: 5.0,
		})
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	// Inclusive bounds
	got, err := store.GetByTimeRange(ctx, "mint-5", base.Add(time.Minute), base.Add(3*time.Minute))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2e-8, got[0].PriceSOL)
	assert.Equal(t, 4e-8, got[2].PriceSOL)

	// Range with no points
	got, err = store.GetByTimeRange(ctx, "mint-5", base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}
