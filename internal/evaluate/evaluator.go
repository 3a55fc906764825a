package evaluate

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
)

// Missing-data policies for optional filters.
const (
	MissingDataSkip   = "skip"
	MissingDataReject = "reject"
)

// Defaults for the buy rule set.
const (
	DefaultBuyAmountSOL   = 0.1
	DefaultMaxSOLPerToken = 0.0001
	DefaultMinTokensOut   = 1_000_000 // whole tokens
)

// Config holds the thresholds a candidate must clear before a buy.
// Pointer fields are optional filters; nil disables the check.
type Config struct {
	BuyAmountSOL   float64
	MaxSOLPerToken float64
	MinTokensOut   float64 // whole tokens expected for BuyAmountSOL

	// MaxDetectionAge rejects candidates detected too long ago.
	// Zero disables the check.
	MaxDetectionAge time.Duration

	MinLiquiditySOL         *float64
	MaxLiquiditySOL         *float64
	MinMarketCapSOL         *float64
	MaxMarketCapSOL         *float64
	MinHolders              *int
	MaxCreatorAllocationPct *float64
	MinInitialBuySOL        *float64

	// BypassFilters skips the optional filters above, keeping only the
	// price, sizing and curve completion checks.
	BypassFilters bool

	// OnMissingData decides what happens when an optional filter has no
	// datum to check: "skip" passes the check, "reject" fails it.
	OnMissingData string
}

func (c Config) withDefaults() Config {
	if c.BuyAmountSOL <= 0 {
		c.BuyAmountSOL = DefaultBuyAmountSOL
	}
	if c.MaxSOLPerToken <= 0 {
		c.MaxSOLPerToken = DefaultMaxSOLPerToken
	}
	if c.MinTokensOut <= 0 {
		c.MinTokensOut = DefaultMinTokensOut
	}
	if c.OnMissingData == "" {
		c.OnMissingData = MissingDataSkip
	}
	return c
}

func (c Config) validate() error {
	if c.OnMissingData != MissingDataSkip && c.OnMissingData != MissingDataReject {
		return fmt.Errorf("unknown missing-data policy %q", c.OnMissingData)
	}
	if c.MinLiquiditySOL != nil && c.MaxLiquiditySOL != nil && *c.MinLiquiditySOL > *c.MaxLiquiditySOL {
		return fmt.Errorf("min liquidity %v above max %v", *c.MinLiquiditySOL, *c.MaxLiquiditySOL)
	}
	if c.MinMarketCapSOL != nil && c.MaxMarketCapSOL != nil && *c.MinMarketCapSOL > *c.MaxMarketCapSOL {
		return fmt.Errorf("min market cap %v above max %v", *c.MinMarketCapSOL, *c.MaxMarketCapSOL)
	}
	return nil
}

// Evaluator runs candidates through the buy rule set. Rules are
// checked in a fixed order and the first failure rejects the
// candidate.
type Evaluator struct {
	cfg Config
}

func NewEvaluator(cfg Config) (*Evaluator, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg}, nil
}

// Evaluate decides whether to buy the candidate at the given time.
// Rules short-circuit: the first failing rule sets the rejection reason.
func (e *Evaluator) Evaluate(c *domain.CandidateToken, now time.Time) domain.EvaluationResult {
	if code := e.firstRejection(c, now); code != "" {
		result := domain.EvaluationResult{}
		result.Reject(code)
		e.record(c, &result)
		return result
	}

	result := domain.EvaluationResult{
		Buy:            true,
		BuyAmountSOL:   e.cfg.BuyAmountSOL,
		TokenAmountOut: c.Curve.TokensForSOL(e.cfg.BuyAmountSOL),
		PriceSOL:       c.Curve.PriceSOL(),
	}
	e.record(c, &result)
	return result
}

// firstRejection returns the code of the first failing rule, or "".
func (e *Evaluator) firstRejection(c *domain.CandidateToken, now time.Time) string {
	if e.cfg.MaxDetectionAge > 0 && !c.DetectedAt.IsZero() && now.Sub(c.DetectedAt) > e.cfg.MaxDetectionAge {
		return domain.RejectStaleDetection
	}

	if c.Curve == nil {
		return domain.RejectCurveStateMissing
	}

	if c.Curve.Complete {
		return domain.RejectCurveComplete
	}

	price := c.Curve.PriceSOL()
	if price <= 0 || price > e.cfg.MaxSOLPerToken {
		return domain.RejectPriceAboveMax
	}

	tokensOut := c.Curve.TokensForSOL(e.cfg.BuyAmountSOL)
	if float64(tokensOut)/domain.TokenUnit < e.cfg.MinTokensOut {
		return domain.RejectTokensBelowMin
	}

	if e.cfg.BypassFilters {
		return ""
	}
	return e.firstFilterRejection(c)
}

func (e *Evaluator) firstFilterRejection(c *domain.CandidateToken) string {
	liquidity := c.Curve.LiquiditySOL()
	if e.cfg.MinLiquiditySOL != nil && liquidity < *e.cfg.MinLiquiditySOL {
		return domain.RejectLiquidityLow
	}
	if e.cfg.MaxLiquiditySOL != nil && liquidity > *e.cfg.MaxLiquiditySOL {
		return domain.RejectLiquidityHigh
	}

	marketCap := c.Curve.MarketCapSOL()
	if e.cfg.MinMarketCapSOL != nil && marketCap < *e.cfg.MinMarketCapSOL {
		return domain.RejectMarketCapLow
	}
	if e.cfg.MaxMarketCapSOL != nil && marketCap > *e.cfg.MaxMarketCapSOL {
		return domain.RejectMarketCapHigh
	}

	if e.cfg.MinHolders != nil {
		if holders := statsHolders(c); holders != nil {
			if *holders < *e.cfg.MinHolders {
				return domain.RejectHoldersBelowMin
			}
		} else if e.cfg.OnMissingData == MissingDataReject {
			return domain.RejectInsufficientData
		}
	}

	if e.cfg.MaxCreatorAllocationPct != nil {
		if pct := statsCreatorPct(c); pct != nil {
			if *pct > *e.cfg.MaxCreatorAllocationPct {
				return domain.RejectCreatorShareHigh
			}
		} else if e.cfg.OnMissingData == MissingDataReject {
			return domain.RejectInsufficientData
		}
	}

	if e.cfg.MinInitialBuySOL != nil {
		if buy := statsInitialBuy(c); buy != nil {
			if *buy < *e.cfg.MinInitialBuySOL {
				return domain.RejectInitialBuyLow
			}
		} else if e.cfg.OnMissingData == MissingDataReject {
			return domain.RejectInsufficientData
		}
	}

	return ""
}

func (e *Evaluator) record(c *domain.CandidateToken, result *domain.EvaluationResult) {
	if result.Buy {
		observability.RecordEvaluation("buy")
		log.Info().Str("mint", c.Mint).
			Float64("price_sol", result.PriceSOL).
			Float64("buy_sol", result.BuyAmountSOL).
			Uint64("tokens_out", result.TokenAmountOut).
			Msg("candidate accepted")
		return
	}
	observability.RecordEvaluation("reject")
	log.Info().Str("mint", c.Mint).Strs("reasons", result.Reasons).
		Msg("candidate rejected")
}

func statsHolders(c *domain.CandidateToken) *int {
	if c.Stats == nil {
		return nil
	}
	return c.Stats.HolderCount
}

func statsCreatorPct(c *domain.CandidateToken) *float64 {
	if c.Stats == nil {
		return nil
	}
	return c.Stats.CreatorAllocationPct
}

func statsInitialBuy(c *domain.CandidateToken) *float64 {
	if c.Stats == nil {
		return nil
	}
	return c.Stats.InitialBuySOL
}
