package enrich

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/solana/stub"
)

const (
	testMint    = "So11111111111111111111111111111111111111112"
	testCreator = "4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf"
)

func buildCurveAccount(vTok, vSol, rTok, rSol, supply uint64, complete bool) []byte {
	data := make([]byte, 49)
	binary.LittleEndian.PutUint64(data[8:], vTok)
	binary.LittleEndian.PutUint64(data[16:], vSol)
	binary.LittleEndian.PutUint64(data[24:], rTok)
	binary.LittleEndian.PutUint64(data[32:], rSol)
	binary.LittleEndian.PutUint64(data[40:], supply)
	if complete {
		data[48] = 1
	}
	return data
}

func accountWithData(data []byte) *solana.AccountInfo {
	return &solana.AccountInfo{Data: base64.StdEncoding.EncodeToString(data)}
}

func newEnricher(t *testing.T, client solana.RPCClient, opts ...EnricherOption) *MetadataEnricher {
	t.Helper()
	pool, err := solana.NewEndpointPool([]solana.RPCClient{client})
	if err != nil {
		t.Fatalf("NewEndpointPool failed: %v", err)
	}
	e, err := NewMetadataEnricher(pool, opts...)
	if err != nil {
		t.Fatalf("NewMetadataEnricher failed: %v", err)
	}
	return e
}

func testCandidate(t *testing.T) *domain.CandidateToken {
	t.Helper()
	curve, err := solana.BondingCurveAddress(testMint)
	if err != nil {
		t.Fatalf("BondingCurveAddress failed: %v", err)
	}
	return &domain.CandidateToken{
		Mint:         testMint,
		BondingCurve: curve,
		Creator:      testCreator,
	}
}

func TestEnrichCurveState(t *testing.T) {
	c := testCandidate(t)
	client := stub.NewRPCClient()
	client.AddAccount(c.BondingCurve, accountWithData(
		buildCurveAccount(1_000_000_000_000, 30_000_000_000, 800_000_000_000, 5_000_000_000, domain.DefaultTotalSupplyRaw, false)))

	e := newEnricher(t, client, WithOffchainFetch(false), WithStatsFetch(false))
	if err := e.Enrich(context.Background(), c); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if c.Curve == nil {
		t.Fatal("expected curve state")
	}
	if c.Curve.VirtualSolReserves != 30_000_000_000 {
		t.Errorf("unexpected virtual sol reserves %d", c.Curve.VirtualSolReserves)
	}
	if c.Curve.Complete {
		t.Error("curve should not be complete")
	}
}

func TestEnrichMetadata(t *testing.T) {
	c := testCandidate(t)
	metaAddr, err := solana.MetadataAddress(testMint)
	if err != nil {
		t.Fatalf("MetadataAddress failed: %v", err)
	}

	client := stub.NewRPCClient()
	client.AddAccount(metaAddr, accountWithData(
		buildMetadataAccount("Moon Token", "MOON", "https://example.invalid/moon.json", 0)))

	e := newEnricher(t, client, WithOffchainFetch(false), WithStatsFetch(false))
	if err := e.Enrich(context.Background(), c); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if c.Metadata == nil {
		t.Fatal("expected metadata")
	}
	if c.Metadata.Name != "Moon Token" || c.Metadata.Symbol != "MOON" {
		t.Errorf("unexpected metadata %+v", c.Metadata)
	}
}

func TestEnrichOffchainDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Moon Token","description":"to the moon","image":"https://img.invalid/moon.png","extra":42}`))
	}))
	defer server.Close()

	c := testCandidate(t)
	metaAddr, err := solana.MetadataAddress(testMint)
	if err != nil {
		t.Fatalf("MetadataAddress failed: %v", err)
	}
	client := stub.NewRPCClient()
	client.AddAccount(metaAddr, accountWithData(
		buildMetadataAccount("Moon Token", "MOON", server.URL, 0)))

	e := newEnricher(t, client, WithStatsFetch(false))
	if err := e.Enrich(context.Background(), c); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if c.Metadata == nil {
		t.Fatal("expected metadata")
	}
	if c.Metadata.Description != "to the moon" {
		t.Errorf("unexpected description %q", c.Metadata.Description)
	}
	if c.Metadata.Image != "https://img.invalid/moon.png" {
		t.Errorf("unexpected image %q", c.Metadata.Image)
	}
}

func TestEnrichOffchainFailureKeepsOnchainFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := testCandidate(t)
	metaAddr, err := solana.MetadataAddress(testMint)
	if err != nil {
		t.Fatalf("MetadataAddress failed: %v", err)
	}
	client := stub.NewRPCClient()
	client.AddAccount(metaAddr, accountWithData(
		buildMetadataAccount("Moon Token", "MOON", server.URL, 0)))

	e := newEnricher(t, client, WithStatsFetch(false))
	if err := e.Enrich(context.Background(), c); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if c.Metadata == nil || c.Metadata.Name != "Moon Token" {
		t.Fatal("on-chain metadata should survive an off-chain failure")
	}
	if c.Metadata.Description != "" {
		t.Errorf("expected empty description, got %q", c.Metadata.Description)
	}
}

func TestEnrichHolderStats(t *testing.T) {
	c := testCandidate(t)
	creatorATA, err := solana.AssociatedTokenAddress(testCreator, testMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress failed: %v", err)
	}

	client := stub.NewRPCClient()
	client.Largest[testMint] = []solana.TokenAccountBalance{
		{Address: creatorATA, Amount: domain.DefaultTotalSupplyRaw / 5, Decimals: 6},
		{Address: "9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E", Amount: 1_000_000, Decimals: 6},
		{Address: "SysvarRent111111111111111111111111111111111", Amount: 0, Decimals: 6},
	}

	e := newEnricher(t, client, WithOffchainFetch(false))
	if err := e.Enrich(context.Background(), c); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if c.Stats == nil || c.Stats.HolderCount == nil {
		t.Fatal("expected holder stats")
	}
	if *c.Stats.HolderCount != 2 {
		t.Errorf("expected 2 holders, got %d", *c.Stats.HolderCount)
	}
	if c.Stats.CreatorAllocationPct == nil {
		t.Fatal("expected creator allocation")
	}
	if got := *c.Stats.CreatorAllocationPct; got < 19.99 || got > 20.01 {
		t.Errorf("expected ~20%% creator allocation, got %v", got)
	}
}

func TestEnrichPreservesInitialBuyStat(t *testing.T) {
	c := testCandidate(t)
	buySOL := 1.5
	c.Stats = &domain.TokenStats{InitialBuySOL: &buySOL}

	client := stub.NewRPCClient()
	client.Largest[testMint] = []solana.TokenAccountBalance{
		{Address: "9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E", Amount: 1_000_000, Decimals: 6},
	}

	e := newEnricher(t, client, WithOffchainFetch(false))
	if err := e.Enrich(context.Background(), c); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if c.Stats.InitialBuySOL == nil || *c.Stats.InitialBuySOL != 1.5 {
		t.Error("initial buy stat should survive enrichment")
	}
	if c.Stats.HolderCount == nil || *c.Stats.HolderCount != 1 {
		t.Error("holder count should be filled in")
	}
}

func TestEnrichMissingAccountsLeaveFieldsNil(t *testing.T) {
	c := testCandidate(t)
	client := stub.NewRPCClient()

	e := newEnricher(t, client, WithOffchainFetch(false), WithStatsFetch(false))
	if err := e.Enrich(context.Background(), c); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if c.Curve != nil {
		t.Error("expected nil curve for missing account")
	}
	if c.Metadata != nil {
		t.Error("expected nil metadata for missing account")
	}
}

func TestEnrichFillsCreatorFromCurve(t *testing.T) {
	c := testCandidate(t)
	c.Creator = ""

	curveData := buildCurveAccount(1_000_000_000_000, 30_000_000_000, 800_000_000_000, 5_000_000_000, domain.DefaultTotalSupplyRaw, false)
	creatorBytes, err := solana.DecodePubkey(testCreator)
	if err != nil {
		t.Fatalf("DecodePubkey failed: %v", err)
	}
	curveData = append(curveData, creatorBytes...)

	client := stub.NewRPCClient()
	client.AddAccount(c.BondingCurve, accountWithData(curveData))

	e := newEnricher(t, client, WithOffchainFetch(false), WithStatsFetch(false))
	if err := e.Enrich(context.Background(), c); err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}

	if c.Creator != testCreator {
		t.Errorf("expected creator backfilled from curve, got %q", c.Creator)
	}
}
