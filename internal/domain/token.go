package domain

import "time"

// CandidateToken is a newly created token resolved from a creation transaction.
type CandidateToken struct {
	Mint         string // token mint address
	BondingCurve string // bonding curve account address
	Creator      string // wallet that signed the creation
	TxSignature  string // creation transaction signature
	Slot         int64  // Solana slot number
	BlockTime    int64  // Unix timestamp (seconds), 0 if unknown
	DetectedAt   time.Time

	// Filled in by enrichment; either may stay nil.
	Curve    *BondingCurveState
	Metadata *TokenMetadata
	Stats    *TokenStats
}

// TokenMetadata holds on-chain metadata plus fields fetched from the
// off-chain JSON document the URI points at. Off-chain fields may be empty.
type TokenMetadata struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16

	Description string
	Image       string
}

// TokenStats holds holder distribution figures sampled at enrichment time.
// Pointers are nil when the data could not be fetched.
type TokenStats struct {
	HolderCount          *int     // distinct non-empty token accounts among the largest
	CreatorAllocationPct *float64 // creator's share of total supply, percent
	InitialBuySOL        *float64 // SOL the creator spent in the creation transaction
}
