package executor

import (
	"context"
	"crypto/ed25519"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/solana/stub"
)

const (
	testUser    = "4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf"
	testMint    = "So11111111111111111111111111111111111111112"
	testCreator = "9n4nbM75f5Ui33ZbPYXn59EwSgE8CGsHtAeTH5YFeJ9E"
)

type recordingJournal struct {
	mu       sync.Mutex
	records  []*domain.TradeRecord
	statuses map[string]string
	err      error
}

func (j *recordingJournal) Insert(_ context.Context, rec *domain.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return j.err
	}
	j.records = append(j.records, rec)
	return nil
}

func (j *recordingJournal) UpdateStatus(_ context.Context, tradeID, status string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.statuses == nil {
		j.statuses = make(map[string]string)
	}
	j.statuses[tradeID] = status
	return nil
}

func (j *recordingJournal) status(tradeID string) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.statuses[tradeID]
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

func buyDecision() domain.EvaluationResult {
	return domain.EvaluationResult{
		Buy:            true,
		BuyAmountSOL:   0.1,
		TokenAmountOut: 3_000_000 * domain.TokenUnit,
		PriceSOL:       3e-8,
	}
}

func newExecutor(t *testing.T, client solana.RPCClient, opts ...Option) *Executor {
	t.Helper()
	pool, err := solana.NewEndpointPool([]solana.RPCClient{client})
	if err != nil {
		t.Fatalf("NewEndpointPool failed: %v", err)
	}
	e, err := New(pool, NopSigner{Pubkey: testUser}, opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return e
}

func TestBuyConfirmed(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "sig-buy-1"
	client.SetStatus("sig-buy-1", &solana.SignatureStatus{ConfirmationStatus: "confirmed"})

	journal := &recordingJournal{}
	e := newExecutor(t, client,
		WithJournal(journal),
		WithPollInterval(10*time.Millisecond),
		WithConfirmTimeout(time.Second))

	holding, err := e.Buy(context.Background(), testCandidate(t), buyDecision())
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	if holding.Mint != testMint {
		t.Errorf("unexpected holding mint %s", holding.Mint)
	}
	if holding.BuySignature != "sig-buy-1" {
		t.Errorf("unexpected signature %s", holding.BuySignature)
	}
	if holding.TokenAmount != 3_000_000*domain.TokenUnit {
		t.Errorf("unexpected token amount %d", holding.TokenAmount)
	}
	if len(client.SentTransactions) != 1 {
		t.Fatalf("expected 1 submitted transaction, got %d", len(client.SentTransactions))
	}

	if len(journal.records) != 1 {
		t.Fatalf("expected 1 journal record, got %d", len(journal.records))
	}
	rec := journal.records[0]
	if rec.Side != domain.TradeSideBuy || rec.Status != domain.TradeStatusConfirmed {
		t.Errorf("unexpected record %+v", rec)
	}
	if !rec.TokenAmount.Equal(wholeTokens(3_000_000 * domain.TokenUnit)) {
		t.Errorf("unexpected token amount %s", rec.TokenAmount)
	}
}

func TestBuyUnconfirmedStillOpensHolding(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "sig-buy-2"

	journal := &recordingJournal{}
	e := newExecutor(t, client,
		WithJournal(journal),
		WithPollInterval(10*time.Millisecond),
		WithConfirmTimeout(30*time.Millisecond),
		WithSettleTimeout(50*time.Millisecond))

	holding, err := e.Buy(context.Background(), testCandidate(t), buyDecision())
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if holding == nil {
		t.Fatal("expected holding for unconfirmed buy")
	}
	if journal.records[0].Status != domain.TradeStatusUnconfirmed {
		t.Errorf("expected unconfirmed record, got %s", journal.records[0].Status)
	}
}

func TestUnconfirmedBuySettlesInJournal(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "sig-buy-late"

	journal := &recordingJournal{}
	e := newExecutor(t, client,
		WithJournal(journal),
		WithPollInterval(10*time.Millisecond),
		WithConfirmTimeout(30*time.Millisecond),
		WithSettleTimeout(2*time.Second))

	if _, err := e.Buy(context.Background(), testCandidate(t), buyDecision()); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	tradeID := journal.records[0].TradeID

	// The transaction lands after the confirmation window elapsed.
	client.SetStatus("sig-buy-late", &solana.SignatureStatus{ConfirmationStatus: "finalized"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if journal.status(tradeID) == domain.TradeStatusConfirmed {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("journal row never settled, status %q", journal.status(tradeID))
}

func TestBuyFailedOnChain(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "sig-buy-3"
	client.SetStatus("sig-buy-3", &solana.SignatureStatus{
		ConfirmationStatus: "confirmed",
		Err:                map[string]interface{}{"InstructionError": []interface{}{1, "Custom"}},
	})

	journal := &recordingJournal{}
	e := newExecutor(t, client,
		WithJournal(journal),
		WithPollInterval(10*time.Millisecond),
		WithConfirmTimeout(time.Second))

	_, err := e.Buy(context.Background(), testCandidate(t), buyDecision())
	if !errors.Is(err, ErrBuyFailed) {
		t.Fatalf("expected ErrBuyFailed, got %v", err)
	}
	if journal.records[0].Status != domain.TradeStatusFailed {
		t.Errorf("expected failed record, got %s", journal.records[0].Status)
	}
}

func TestBuySendError(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendErr = errors.New("blockhash expired")

	journal := &recordingJournal{}
	e := newExecutor(t, client, WithJournal(journal))

	if _, err := e.Buy(context.Background(), testCandidate(t), buyDecision()); err == nil {
		t.Fatal("expected send error")
	}
	if len(journal.records) != 1 || journal.records[0].Status != domain.TradeStatusFailed {
		t.Error("expected failed journal record for send error")
	}
}

func TestBuyDryRun(t *testing.T) {
	client := stub.NewRPCClient()
	journal := &recordingJournal{}
	e := newExecutor(t, client, WithJournal(journal), WithDryRun(true))

	holding, err := e.Buy(context.Background(), testCandidate(t), buyDecision())
	if err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if holding == nil {
		t.Fatal("expected holding")
	}
	if len(client.SentTransactions) != 0 {
		t.Error("dry run must not submit transactions")
	}
	if journal.records[0].Status != domain.TradeStatusConfirmed {
		t.Errorf("expected confirmed dry-run record, got %s", journal.records[0].Status)
	}
}

func TestSellConfirmed(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendResult = "sig-sell-1"
	client.SetStatus("sig-sell-1", &solana.SignatureStatus{ConfirmationStatus: "finalized"})

	journal := &recordingJournal{}
	e := newExecutor(t, client,
		WithJournal(journal),
		WithPollInterval(10*time.Millisecond),
		WithConfirmTimeout(time.Second))

	holding := &domain.Holding{
		Mint:         testMint,
		BondingCurve: testCandidate(t).BondingCurve,
		Creator:      testCreator,
		TokenAmount:  3_000_000 * domain.TokenUnit,
		BuyPriceSOL:  3e-8,
		BuySOL:       0.1,
		BoughtAt:     time.Now(),
	}

	rec, err := e.Sell(context.Background(), holding, domain.ExitReasonTakeProfit, 4.5e-8)
	if err != nil {
		t.Fatalf("Sell failed: %v", err)
	}

	if rec.Side != domain.TradeSideSell || rec.Reason != domain.ExitReasonTakeProfit {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.ProfitPct == nil || *rec.ProfitPct < 49 || *rec.ProfitPct > 51 {
		t.Errorf("expected ~50%% profit, got %v", rec.ProfitPct)
	}
	if rec.Status != domain.TradeStatusConfirmed {
		t.Errorf("expected confirmed sell, got %s", rec.Status)
	}
}

func TestSellFailureReturnsError(t *testing.T) {
	client := stub.NewRPCClient()
	client.SendErr = errors.New("node unavailable")
	e := newExecutor(t, client)

	holding := &domain.Holding{
		Mint:         testMint,
		BondingCurve: testCandidate(t).BondingCurve,
		Creator:      testCreator,
		TokenAmount:  1_000_000,
		BuyPriceSOL:  3e-8,
	}

	if _, err := e.Sell(context.Background(), holding, domain.ExitReasonStopLoss, 2e-8); err == nil {
		t.Fatal("expected sell error")
	}
}

func TestSlippageBounds(t *testing.T) {
	if got := applySlippageUp(1_000_000_000, 500); got != 1_050_000_000 {
		t.Errorf("expected 1.05 SOL ceiling, got %d", got)
	}
	if got := applySlippageDown(1_000_000_000, 500); got != 950_000_000 {
		t.Errorf("expected 0.95 SOL floor, got %d", got)
	}
	if got := applySlippageUp(1_000_000_000, 0); got != 1_000_000_000 {
		t.Errorf("expected unchanged amount at 0 bps, got %d", got)
	}
}

func TestKeypairSigner(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	signer, err := NewKeypairSigner(base58.Encode(priv))
	if err != nil {
		t.Fatalf("NewKeypairSigner failed: %v", err)
	}
	if signer.PublicKey() != base58.Encode(pub) {
		t.Errorf("public key mismatch")
	}

	msg := []byte("test message")
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !ed25519.Verify(pub, msg, sig) {
		t.Error("signature does not verify")
	}
}

func TestKeypairSignerRejectsBadKeys(t *testing.T) {
	if _, err := NewKeypairSigner("not-base58!!"); err == nil {
		t.Error("expected error for invalid base58")
	}
	if _, err := NewKeypairSigner(base58.Encode(make([]byte, 10))); err == nil {
		t.Error("expected error for short key")
	}
}
