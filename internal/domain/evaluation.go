package domain

// Rejection reason codes produced by evaluation.
const (
	RejectCurveComplete     = "CURVE_COMPLETE"
	RejectPriceAboveMax     = "PRICE_ABOVE_MAX"
	RejectTokensBelowMin    = "TOKENS_BELOW_MIN"
	RejectLiquidityLow      = "LIQUIDITY_BELOW_MIN"
	RejectLiquidityHigh     = "LIQUIDITY_ABOVE_MAX"
	RejectMarketCapLow      = "MARKET_CAP_BELOW_MIN"
	RejectMarketCapHigh     = "MARKET_CAP_ABOVE_MAX"
	RejectHoldersBelowMin   = "HOLDERS_BELOW_MIN"
	RejectCreatorShareHigh  = "CREATOR_SHARE_ABOVE_MAX"
	RejectInitialBuyLow     = "INITIAL_BUY_BELOW_MIN"
	RejectCurveStateMissing = "CURVE_STATE_MISSING"
	RejectInsufficientData  = "INSUFFICIENT_DATA"
	RejectStaleDetection    = "DETECTION_TOO_OLD"
	RejectHoldingsFull      = "HOLDINGS_AT_CAPACITY"
)

// EvaluationResult is the outcome of running a candidate through the
// buy rule set.
type EvaluationResult struct {
	Buy     bool
	Reasons []string // rejection codes, empty on a positive result

	// Sized order, populated only when Buy is true.
	BuyAmountSOL   float64
	TokenAmountOut uint64 // raw token units expected at snapshot price
	PriceSOL       float64
}

// Reject appends a rejection code and marks the result negative.
func (r *EvaluationResult) Reject(code string) {
	r.Buy = false
	r.Reasons = append(r.Reasons, code)
}
