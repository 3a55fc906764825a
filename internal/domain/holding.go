package domain

import "time"

// Holding is an open position in a bought token.
type Holding struct {
	Mint         string
	BondingCurve string
	Creator      string
	TokenAmount  uint64  // raw token units held
	BuyPriceSOL  float64 // SOL per whole token at entry
	BuySOL       float64 // SOL spent on entry
	BuySignature string
	BoughtAt     time.Time
}

// ProfitPct returns the percentage gain or loss at the given price.
func (h *Holding) ProfitPct(currentPrice float64) float64 {
	if h.BuyPriceSOL == 0 {
		return 0
	}
	return (currentPrice - h.BuyPriceSOL) / h.BuyPriceSOL * 100
}

// Exit reason codes for closing a holding.
const (
	ExitReasonTakeProfit    = "TAKE_PROFIT"
	ExitReasonStopLoss      = "STOP_LOSS"
	ExitReasonTimeout       = "TIMEOUT"
	ExitReasonCurveComplete = "CURVE_COMPLETE"
	ExitReasonManual        = "MANUAL"
)
