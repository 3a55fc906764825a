package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade sides.
const (
	TradeSideBuy  = "BUY"
	TradeSideSell = "SELL"
)

// Trade statuses mirror transaction confirmation outcomes.
const (
	TradeStatusConfirmed   = "CONFIRMED"
	TradeStatusUnconfirmed = "UNCONFIRMED"
	TradeStatusFailed      = "FAILED"
)

// TradeRecord is one executed (or attempted) buy or sell.
// Corresponds to the trades table in PostgreSQL.
type TradeRecord struct {
	TradeID     string          // UUID
	Mint        string
	Side        string          // BUY | SELL
	TokenAmount decimal.Decimal // whole tokens
	SolAmount   decimal.Decimal // SOL spent (buy) or received (sell)
	PriceSOL    decimal.Decimal // SOL per whole token at execution
	ProfitPct   *float64        // sells only
	Reason      string          // exit reason for sells, empty for buys
	Signature   string          // transaction signature, empty when never submitted
	Status      string          // CONFIRMED | UNCONFIRMED | FAILED
	ExecutedAt  time.Time
}
