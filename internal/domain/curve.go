package domain

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Token and lamport unit scales.
const (
	LamportsPerSOL = 1_000_000_000
	TokenDecimals  = 6
	TokenUnit      = 1_000_000 // raw units per whole token

	// DefaultTotalSupplyRaw is the fixed pump.fun mint supply of one
	// billion tokens in raw units.
	DefaultTotalSupplyRaw = 1_000_000_000 * uint64(TokenUnit)
)

// BondingCurveState mirrors the pump.fun bonding curve account.
type BondingCurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              string // base58, empty on older account versions
}

// bondingCurveMinLen covers the discriminator, five u64 fields and the
// complete flag. Newer accounts append a 32-byte creator key.
const bondingCurveMinLen = 49

// DecodeBondingCurve parses a raw bonding curve account.
func DecodeBondingCurve(data []byte) (*BondingCurveState, error) {
	if len(data) < bondingCurveMinLen {
		return nil, fmt.Errorf("bonding curve account too short: %d bytes", len(data))
	}

	s := &BondingCurveState{
		VirtualTokenReserves: binary.LittleEndian.Uint64(data[8:16]),
		VirtualSolReserves:   binary.LittleEndian.Uint64(data[16:24]),
		RealTokenReserves:    binary.LittleEndian.Uint64(data[24:32]),
		RealSolReserves:      binary.LittleEndian.Uint64(data[32:40]),
		TokenTotalSupply:     binary.LittleEndian.Uint64(data[40:48]),
		Complete:             data[48] != 0,
	}

	if len(data) >= bondingCurveMinLen+32 {
		s.Creator = base58.Encode(data[49:81])
	}

	return s, nil
}

// PriceSOL returns the spot price in SOL per whole token.
// Virtual reserves are lamports over raw token units; the 1e-3 factor
// converts between the 9-decimal and 6-decimal scales.
func (s *BondingCurveState) PriceSOL() float64 {
	if s.VirtualTokenReserves == 0 {
		return 0
	}
	return float64(s.VirtualSolReserves) / float64(s.VirtualTokenReserves) * 1e-3
}

// LiquiditySOL returns the real SOL deposited into the curve.
func (s *BondingCurveState) LiquiditySOL() float64 {
	return float64(s.RealSolReserves) / LamportsPerSOL
}

// MarketCapSOL returns total supply valued at the spot price.
func (s *BondingCurveState) MarketCapSOL() float64 {
	return s.PriceSOL() * float64(s.TokenTotalSupply) / TokenUnit
}

// TokensForSOL returns the raw token amount a buy of solAmount would
// target at the current spot price.
func (s *BondingCurveState) TokensForSOL(solAmount float64) uint64 {
	price := s.PriceSOL()
	if price <= 0 {
		return 0
	}
	return uint64(solAmount / price * TokenUnit)
}
