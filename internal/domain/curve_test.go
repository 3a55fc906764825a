package domain

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/mr-tron/base58"
)

func buildCurveAccount(vTok, vSol, rTok, rSol, supply uint64, complete bool, creator []byte) []byte {
	data := make([]byte, 49, 81)
	binary.LittleEndian.PutUint64(data[8:16], vTok)
	binary.LittleEndian.PutUint64(data[16:24], vSol)
	binary.LittleEndian.PutUint64(data[24:32], rTok)
	binary.LittleEndian.PutUint64(data[32:40], rSol)
	binary.LittleEndian.PutUint64(data[40:48], supply)
	if complete {
		data[48] = 1
	}
	if creator != nil {
		data = append(data, creator...)
	}
	return data
}

func TestDecodeBondingCurve(t *testing.T) {
	creator := make([]byte, 32)
	creator[0] = 7

	data := buildCurveAccount(1_073_000_000_000_000, 30_000_000_000, 793_100_000_000_000, 0, 1_000_000_000_000_000, false, creator)

	s, err := DecodeBondingCurve(data)
	if err != nil {
		t.Fatalf("DecodeBondingCurve: %v", err)
	}

	if s.VirtualTokenReserves != 1_073_000_000_000_000 {
		t.Errorf("VirtualTokenReserves = %d", s.VirtualTokenReserves)
	}
	if s.VirtualSolReserves != 30_000_000_000 {
		t.Errorf("VirtualSolReserves = %d", s.VirtualSolReserves)
	}
	if s.RealTokenReserves != 793_100_000_000_000 {
		t.Errorf("RealTokenReserves = %d", s.RealTokenReserves)
	}
	if s.TokenTotalSupply != 1_000_000_000_000_000 {
		t.Errorf("TokenTotalSupply = %d", s.TokenTotalSupply)
	}
	if s.Complete {
		t.Error("Complete = true, want false")
	}
	if s.Creator != base58.Encode(creator) {
		t.Errorf("Creator = %s", s.Creator)
	}
}

func TestDecodeBondingCurveWithoutCreator(t *testing.T) {
	data := buildCurveAccount(1, 1, 1, 1, 1, true, nil)

	s, err := DecodeBondingCurve(data)
	if err != nil {
		t.Fatalf("DecodeBondingCurve: %v", err)
	}
	if !s.Complete {
		t.Error("Complete = false, want true")
	}
	if s.Creator != "" {
		t.Errorf("Creator = %q, want empty", s.Creator)
	}
}

func TestDecodeBondingCurveTooShort(t *testing.T) {
	if _, err := DecodeBondingCurve(make([]byte, 48)); err == nil {
		t.Error("expected error for short account")
	}
}

func TestCurvePriceAndLiquidity(t *testing.T) {
	s := &BondingCurveState{
		VirtualTokenReserves: 1_000_000_000_000_000, // 1e9 whole tokens
		VirtualSolReserves:   30_000_000_000,        // 30 SOL
		RealSolReserves:      5_000_000_000,         // 5 SOL
		TokenTotalSupply:     1_000_000_000_000_000,
	}

	// 30e9 / 1e15 * 1e-3 = 3e-8 SOL per token
	wantPrice := 3e-8
	if got := s.PriceSOL(); math.Abs(got-wantPrice) > 1e-15 {
		t.Errorf("PriceSOL() = %g, want %g", got, wantPrice)
	}

	if got := s.LiquiditySOL(); got != 5.0 {
		t.Errorf("LiquiditySOL() = %g, want 5", got)
	}

	// 3e-8 * 1e15/1e6 = 30 SOL market cap
	if got := s.MarketCapSOL(); math.Abs(got-30.0) > 1e-9 {
		t.Errorf("MarketCapSOL() = %g, want 30", got)
	}

	// 0.1 SOL / 3e-8 * 1e6 raw units
	want := uint64(0.1 / wantPrice * TokenUnit)
	if got := s.TokensForSOL(0.1); got != want {
		t.Errorf("TokensForSOL(0.1) = %d, want %d", got, want)
	}
}

func TestCurveZeroReserves(t *testing.T) {
	s := &BondingCurveState{}
	if got := s.PriceSOL(); got != 0 {
		t.Errorf("PriceSOL() = %g, want 0", got)
	}
	if got := s.TokensForSOL(1); got != 0 {
		t.Errorf("TokensForSOL(1) = %d, want 0", got)
	}
}

func TestHoldingProfitPct(t *testing.T) {
	h := &Holding{BuyPriceSOL: 2e-8}

	if got := h.ProfitPct(3e-8); math.Abs(got-50.0) > 1e-9 {
		t.Errorf("ProfitPct = %g, want 50", got)
	}
	if got := h.ProfitPct(1e-8); math.Abs(got+50.0) > 1e-9 {
		t.Errorf("ProfitPct = %g, want -50", got)
	}

	zero := &Holding{}
	if got := zero.ProfitPct(1); got != 0 {
		t.Errorf("ProfitPct on zero entry = %g, want 0", got)
	}
}
