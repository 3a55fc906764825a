package strategy

import (
	"fmt"
	"time"

	"solana-sniper/internal/domain"
)

// CurveCompleteRule exits when the bonding curve completes, since the
// token then migrates off the curve and can no longer be sold there.
type CurveCompleteRule struct{}

func NewCurveCompleteRule() *CurveCompleteRule { return &CurveCompleteRule{} }

func (r *CurveCompleteRule) ID() string { return "CURVE_COMPLETE" }

func (r *CurveCompleteRule) ShouldExit(_ *domain.Holding, curve *domain.BondingCurveState, _ time.Time) (string, bool) {
	if curve != nil && curve.Complete {
		return domain.ExitReasonCurveComplete, true
	}
	return "", false
}

// StopLossRule exits when the loss reaches the threshold. The
// threshold is negative, in percent.
type StopLossRule struct {
	ThresholdPct float64
}

func NewStopLossRule(thresholdPct float64) *StopLossRule {
	return &StopLossRule{ThresholdPct: thresholdPct}
}

func (r *StopLossRule) ID() string {
	return fmt.Sprintf("STOP_LOSS_%.1f", r.ThresholdPct)
}

func (r *StopLossRule) ShouldExit(h *domain.Holding, curve *domain.BondingCurveState, _ time.Time) (string, bool) {
	if curve == nil {
		return "", false
	}
	if h.ProfitPct(curve.PriceSOL()) <= r.ThresholdPct {
		return domain.ExitReasonStopLoss, true
	}
	return "", false
}

// TakeProfitRule exits when the gain reaches the threshold, in percent.
type TakeProfitRule struct {
	ThresholdPct float64
}

func NewTakeProfitRule(thresholdPct float64) *TakeProfitRule {
	return &TakeProfitRule{ThresholdPct: thresholdPct}
}

func (r *TakeProfitRule) ID() string {
	return fmt.Sprintf("TAKE_PROFIT_%.1f", r.ThresholdPct)
}

func (r *TakeProfitRule) ShouldExit(h *domain.Holding, curve *domain.BondingCurveState, _ time.Time) (string, bool) {
	if curve == nil {
		return "", false
	}
	if h.ProfitPct(curve.PriceSOL()) >= r.ThresholdPct {
		return domain.ExitReasonTakeProfit, true
	}
	return "", false
}

// TimeLimitRule exits after a maximum hold duration regardless of
// price.
type TimeLimitRule struct {
	MaxHold time.Duration
}

func NewTimeLimitRule(maxHold time.Duration) *TimeLimitRule {
	return &TimeLimitRule{MaxHold: maxHold}
}

func (r *TimeLimitRule) ID() string {
	return fmt.Sprintf("TIME_LIMIT_%s", r.MaxHold)
}

func (r *TimeLimitRule) ShouldExit(h *domain.Holding, _ *domain.BondingCurveState, now time.Time) (string, bool) {
	if now.Sub(h.BoughtAt) >= r.MaxHold {
		return domain.ExitReasonTimeout, true
	}
	return "", false
}

var (
	_ ExitRule = (*CurveCompleteRule)(nil)
	_ ExitRule = (*StopLossRule)(nil)
	_ ExitRule = (*TakeProfitRule)(nil)
	_ ExitRule = (*TimeLimitRule)(nil)
)
