package executor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
)

// Defaults for transaction execution.
const (
	DefaultSlippageBps    = 500
	DefaultConfirmTimeout = 30 * time.Second
	DefaultPollInterval   = 1 * time.Second
	DefaultSettleTimeout  = 5 * time.Minute
)

// ErrBuyFailed is returned when a buy transaction executed and failed
// on chain.
var ErrBuyFailed = errors.New("buy transaction failed")

// ErrSellFailed is returned when a sell transaction executed and
// failed on chain, leaving the position open.
var ErrSellFailed = errors.New("sell transaction failed")

// TradeJournal persists executed trades. Journal failures are logged
// and never block execution. UpdateStatus settles rows journaled as
// UNCONFIRMED once the network decides.
type TradeJournal interface {
	Insert(ctx context.Context, rec *domain.TradeRecord) error
	UpdateStatus(ctx context.Context, tradeID, status string) error
}

// Executor builds, signs, submits and confirms pump.fun buy and sell
// transactions.
type Executor struct {
	pool        *solana.EndpointPool
	signer      Signer
	journal     TradeJournal
	slippageBps int
	confirmWait time.Duration
	pollEvery   time.Duration
	settleWait  time.Duration
	dryRun      bool
	now         func() time.Time
}

type Option func(*Executor)

// WithSlippageBps sets the slippage tolerance in basis points.
func WithSlippageBps(bps int) Option {
	return func(e *Executor) {
		if bps >= 0 {
			e.slippageBps = bps
		}
	}
}

// WithConfirmTimeout bounds how long a submitted transaction is polled
// before it is marked unconfirmed.
func WithConfirmTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.confirmWait = d
		}
	}
}

// WithPollInterval sets the confirmation polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.pollEvery = d
		}
	}
}

// WithSettleTimeout bounds how long an unconfirmed trade keeps being
// polled in the background before its journal row is left as is.
func WithSettleTimeout(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.settleWait = d
		}
	}
}

// WithJournal attaches a trade journal.
func WithJournal(journal TradeJournal) Option {
	return func(e *Executor) { e.journal = journal }
}

// WithDryRun disables submission; trades are journaled as confirmed
// without touching the chain.
func WithDryRun(enabled bool) Option {
	return func(e *Executor) { e.dryRun = enabled }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		if now != nil {
			e.now = now
		}
	}
}

func New(pool *solana.EndpointPool, signer Signer, opts ...Option) (*Executor, error) {
	if pool == nil {
		return nil, errors.New("endpoint pool is required")
	}
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	e := &Executor{
		pool:        pool,
		signer:      signer,
		slippageBps: DefaultSlippageBps,
		confirmWait: DefaultConfirmTimeout,
		pollEvery:   DefaultPollInterval,
		settleWait:  DefaultSettleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Buy purchases the candidate with the sized order from evaluation and
// returns the opened holding. An unconfirmed buy still opens a
// holding; an on-chain failure returns ErrBuyFailed.
func (e *Executor) Buy(ctx context.Context, c *domain.CandidateToken, eval domain.EvaluationResult) (*domain.Holding, error) {
	accounts, err := derivePumpAccounts(e.signer.PublicKey(), c.Mint, c.BondingCurve, c.Creator)
	if err != nil {
		observability.RecordBuyFailed()
		return nil, err
	}

	lamports := uint64(eval.BuyAmountSOL * domain.LamportsPerSOL)
	maxSolCost := applySlippageUp(lamports, e.slippageBps)

	instructions := []solana.Instruction{
		createATAInstruction(accounts),
		buyInstruction(accounts, eval.TokenAmountOut, maxSolCost),
	}

	observability.RecordBuySubmitted()
	signature, status, err := e.execute(ctx, domain.TradeSideBuy, instructions)

	rec := &domain.TradeRecord{
		TradeID:     uuid.NewString(),
		Mint:        c.Mint,
		Side:        domain.TradeSideBuy,
		TokenAmount: wholeTokens(eval.TokenAmountOut),
		SolAmount:   decimal.NewFromFloat(eval.BuyAmountSOL),
		PriceSOL:    decimal.NewFromFloat(eval.PriceSOL),
		Signature:   signature,
		Status:      status,
		ExecutedAt:  e.now(),
	}
	e.journalTrade(ctx, rec)

	if err != nil {
		observability.RecordBuyFailed()
		return nil, err
	}
	if status == domain.TradeStatusFailed {
		observability.RecordBuyFailed()
		return nil, fmt.Errorf("%w: %s", ErrBuyFailed, signature)
	}

	log.Info().Str("mint", c.Mint).Str("signature", signature).Str("status", status).
		Float64("sol", eval.BuyAmountSOL).Uint64("tokens", eval.TokenAmountOut).
		Msg("buy executed")

	return &domain.Holding{
		Mint:         c.Mint,
		BondingCurve: accounts.bondingCurve,
		Creator:      c.Creator,
		TokenAmount:  eval.TokenAmountOut,
		BuyPriceSOL:  eval.PriceSOL,
		BuySOL:       eval.BuyAmountSOL,
		BuySignature: signature,
		BoughtAt:     e.now(),
	}, nil
}

// Sell closes the holding at the current price for the given exit
// reason. The returned record carries the realized profit percentage.
func (e *Executor) Sell(ctx context.Context, h *domain.Holding, reason string, currentPrice float64) (*domain.TradeRecord, error) {
	accounts, err := derivePumpAccounts(e.signer.PublicKey(), h.Mint, h.BondingCurve, h.Creator)
	if err != nil {
		observability.RecordSellFailure()
		return nil, err
	}

	expectedSOL := currentPrice * float64(h.TokenAmount) / domain.TokenUnit
	minSolOutput := applySlippageDown(uint64(expectedSOL*domain.LamportsPerSOL), e.slippageBps)

	instructions := []solana.Instruction{
		sellInstruction(accounts, h.TokenAmount, minSolOutput),
	}

	signature, status, err := e.execute(ctx, domain.TradeSideSell, instructions)

	profit := h.ProfitPct(currentPrice)
	rec := &domain.TradeRecord{
		TradeID:     uuid.NewString(),
		Mint:        h.Mint,
		Side:        domain.TradeSideSell,
		TokenAmount: wholeTokens(h.TokenAmount),
		SolAmount:   decimal.NewFromFloat(expectedSOL),
		PriceSOL:    decimal.NewFromFloat(currentPrice),
		ProfitPct:   &profit,
		Reason:      reason,
		Signature:   signature,
		Status:      status,
		ExecutedAt:  e.now(),
	}
	e.journalTrade(ctx, rec)

	if err != nil {
		observability.RecordSellFailure()
		return nil, err
	}
	if status == domain.TradeStatusFailed {
		observability.RecordSellFailure()
		return nil, fmt.Errorf("%w: %s", ErrSellFailed, signature)
	}

	observability.RecordSell(reason)
	log.Info().Str("mint", h.Mint).Str("signature", signature).Str("status", status).
		Str("reason", reason).Float64("profit_pct", profit).
		Msg("sell executed")

	return rec, nil
}

// execute signs, submits and confirms one transaction. The returned
// status is CONFIRMED, UNCONFIRMED or FAILED.
func (e *Executor) execute(ctx context.Context, side string, instructions []solana.Instruction) (string, string, error) {
	if e.dryRun {
		return "dry-run-" + uuid.NewString(), domain.TradeStatusConfirmed, nil
	}

	var blockhash *solana.Blockhash
	err := e.pool.Do(ctx, func(ctx context.Context, client solana.RPCClient) error {
		var callErr error
		blockhash, callErr = client.GetLatestBlockhash(ctx)
		return callErr
	})
	if err != nil {
		return "", domain.TradeStatusFailed, fmt.Errorf("get blockhash: %w", err)
	}

	message, err := solana.BuildMessage(e.signer.PublicKey(), blockhash.Blockhash, instructions)
	if err != nil {
		return "", domain.TradeStatusFailed, fmt.Errorf("build message: %w", err)
	}
	sig, err := e.signer.Sign(message)
	if err != nil {
		return "", domain.TradeStatusFailed, fmt.Errorf("sign message: %w", err)
	}
	tx, err := solana.AssembleTransaction([][]byte{sig}, message)
	if err != nil {
		return "", domain.TradeStatusFailed, fmt.Errorf("assemble transaction: %w", err)
	}

	var signature string
	err = e.pool.Do(ctx, func(ctx context.Context, client solana.RPCClient) error {
		var callErr error
		signature, callErr = client.SendTransaction(ctx, base64.StdEncoding.EncodeToString(tx))
		return callErr
	})
	if err != nil {
		return "", domain.TradeStatusFailed, fmt.Errorf("send transaction: %w", err)
	}

	status, err := e.confirm(ctx, side, signature)
	return signature, status, err
}

// confirm polls signature statuses until the transaction confirms,
// fails, or the timeout elapses.
func (e *Executor) confirm(ctx context.Context, side, signature string) (string, error) {
	submitted := e.now()
	deadline := submitted.Add(e.confirmWait)

	ticker := time.NewTicker(e.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return domain.TradeStatusUnconfirmed, ctx.Err()
		case <-ticker.C:
		}

		var statuses []*solana.SignatureStatus
		err := e.pool.Do(ctx, func(ctx context.Context, client solana.RPCClient) error {
			var callErr error
			statuses, callErr = client.GetSignatureStatuses(ctx, []string{signature})
			return callErr
		})
		if err != nil {
			log.Warn().Err(err).Str("signature", signature).Msg("status poll failed")
		} else if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return domain.TradeStatusFailed, nil
			}
			if st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized" {
				if side == domain.TradeSideBuy {
					observability.RecordBuyConfirmed(e.now().Sub(submitted).Seconds())
				}
				return domain.TradeStatusConfirmed, nil
			}
		}

		if e.now().After(deadline) {
			if side == domain.TradeSideBuy {
				observability.RecordBuyUnconfirmed()
			}
			log.Warn().Str("signature", signature).Msg("confirmation timed out")
			return domain.TradeStatusUnconfirmed, nil
		}
	}
}

func (e *Executor) journalTrade(ctx context.Context, rec *domain.TradeRecord) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Insert(ctx, rec); err != nil {
		log.Error().Err(err).Str("trade_id", rec.TradeID).Str("mint", rec.Mint).
			Msg("trade journal insert failed")
		return
	}
	if rec.Status == domain.TradeStatusUnconfirmed && !e.dryRun {
		go e.settleUnconfirmed(rec.TradeID, rec.Signature)
	}
}

// settleUnconfirmed keeps polling a signature that outlived the
// confirmation window and updates the journal row once the network
// settles it either way.
func (e *Executor) settleUnconfirmed(tradeID, signature string) {
	ctx, cancel := context.WithTimeout(context.Background(), e.settleWait)
	defer cancel()

	ticker := time.NewTicker(e.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Warn().Str("trade_id", tradeID).Str("signature", signature).
				Msg("unconfirmed trade never settled")
			return
		case <-ticker.C:
		}

		var statuses []*solana.SignatureStatus
		err := e.pool.Do(ctx, func(ctx context.Context, client solana.RPCClient) error {
			var callErr error
			statuses, callErr = client.GetSignatureStatuses(ctx, []string{signature})
			return callErr
		})
		if err != nil || len(statuses) == 0 || statuses[0] == nil {
			continue
		}

		st := statuses[0]
		var status string
		switch {
		case st.Err != nil:
			status = domain.TradeStatusFailed
		case st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized":
			status = domain.TradeStatusConfirmed
		default:
			continue
		}

		if err := e.journal.UpdateStatus(ctx, tradeID, status); err != nil {
			log.Error().Err(err).Str("trade_id", tradeID).
				Msg("trade journal status update failed")
			return
		}
		log.Info().Str("trade_id", tradeID).Str("signature", signature).
			Str("status", status).Msg("unconfirmed trade settled")
		return
	}
}

func applySlippageUp(lamports uint64, bps int) uint64 {
	return lamports + lamports*uint64(bps)/10000
}

func applySlippageDown(lamports uint64, bps int) uint64 {
	return lamports - lamports*uint64(bps)/10000
}

func wholeTokens(raw uint64) decimal.Decimal {
	return decimal.NewFromUint64(raw).Div(decimal.NewFromInt(domain.TokenUnit))
}
