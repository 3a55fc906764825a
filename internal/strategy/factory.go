package strategy

import (
	"errors"
	"time"
)

// Default exit thresholds.
const (
	DefaultTakeProfitPct = 30.0
	DefaultStopLossPct   = -20.0
	DefaultMaxHold       = time.Hour
)

// Factory errors
var (
	ErrTakeProfitNotPositive = errors.New("take profit threshold must be positive")
	ErrStopLossNotNegative   = errors.New("stop loss threshold must be negative")
	ErrMaxHoldNotPositive    = errors.New("max hold duration must be positive")
)

// Config holds exit rule thresholds.
type Config struct {
	TakeProfitPct float64       // positive, percent
	StopLossPct   float64       // negative, percent
	MaxHold       time.Duration // maximum hold time
}

// DefaultConfig returns the standard exit thresholds.
func DefaultConfig() Config {
	return Config{
		TakeProfitPct: DefaultTakeProfitPct,
		StopLossPct:   DefaultStopLossPct,
		MaxHold:       DefaultMaxHold,
	}
}

// FromConfig builds the exit rule set in precedence order: curve
// completion first, then stop loss ahead of take profit, then the
// time limit.
func FromConfig(cfg Config) ([]ExitRule, error) {
	if cfg.TakeProfitPct <= 0 {
		return nil, ErrTakeProfitNotPositive
	}
	if cfg.StopLossPct >= 0 {
		return nil, ErrStopLossNotNegative
	}
	if cfg.MaxHold <= 0 {
		return nil, ErrMaxHoldNotPositive
	}

	return []ExitRule{
		NewCurveCompleteRule(),
		NewStopLossRule(cfg.StopLossPct),
		NewTakeProfitRule(cfg.TakeProfitPct),
		NewTimeLimitRule(cfg.MaxHold),
	}, nil
}
