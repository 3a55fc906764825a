package domain

import "time"

// PricePoint is one sampled observation of a token's curve price.
// Corresponds to the price_history table in ClickHouse.
type PricePoint struct {
	Mint         string
	ObservedAt   time.Time
	PriceSOL     float64
	LiquiditySOL float64
}
