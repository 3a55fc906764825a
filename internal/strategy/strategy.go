package strategy

import (
	"time"

	"solana-sniper/internal/domain"
)

// ExitRule decides whether an open holding should be closed.
type ExitRule interface {
	// ShouldExit reports the exit reason when the rule fires.
	ShouldExit(h *domain.Holding, curve *domain.BondingCurveState, now time.Time) (string, bool)

	// ID returns the rule identifier including parameters.
	ID() string
}

// FirstExit runs the rules in order and returns the first firing
// reason. Rule order encodes precedence.
func FirstExit(rules []ExitRule, h *domain.Holding, curve *domain.BondingCurveState, now time.Time) (string, bool) {
	for _, rule := range rules {
		if reason, ok := rule.ShouldExit(h, curve, now); ok {
			return reason, true
		}
	}
	return "", false
}
