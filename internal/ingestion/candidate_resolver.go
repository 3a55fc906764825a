package ingestion

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
)

var (
	// ErrTransactionNotFound means the node has not indexed the transaction yet.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrTransactionFailed means the transaction landed but its execution errored.
	ErrTransactionFailed = errors.New("transaction failed on chain")
	// ErrNoCreateInstruction means the transaction carries no pump.fun create instruction.
	ErrNoCreateInstruction = errors.New("no create instruction in transaction")
	// ErrMalformedInstruction means the create instruction payload cannot be decoded.
	ErrMalformedInstruction = errors.New("malformed create instruction")
)

const (
	DefaultResolveAttempts = 5
	DefaultResolveBackoff  = 500 * time.Millisecond
)

// CandidateResolver turns a raw detection event into a CandidateToken by
// fetching the creating transaction and decoding its create instruction.
type CandidateResolver struct {
	pool     *solana.EndpointPool
	attempts int
	backoff  time.Duration
}

type ResolverOption func(*CandidateResolver)

func WithResolveAttempts(n int) ResolverOption {
	return func(r *CandidateResolver) {
		if n > 0 {
			r.attempts = n
		}
	}
}

func WithResolveBackoff(d time.Duration) ResolverOption {
	return func(r *CandidateResolver) {
		if d > 0 {
			r.backoff = d
		}
	}
}

func NewCandidateResolver(pool *solana.EndpointPool, opts ...ResolverOption) (*CandidateResolver, error) {
	if pool == nil {
		return nil, errors.New("endpoint pool is required")
	}
	r := &CandidateResolver{
		pool:     pool,
		attempts: DefaultResolveAttempts,
		backoff:  DefaultResolveBackoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve fetches the transaction behind a detection event and extracts the
// new token. Decode failures are terminal; a transaction the nodes have not
// indexed yet is retried with backoff before giving up.
func (r *CandidateResolver) Resolve(ctx context.Context, event domain.DetectionEvent) (*domain.CandidateToken, error) {
	started := time.Now()

	tx, err := r.fetchTransaction(ctx, event.Signature)
	if err != nil {
		observability.RecordResolveFailure(classifyResolveError(err))
		return nil, err
	}

	if tx.Meta != nil && tx.Meta.Err != nil {
		observability.RecordResolveFailure("tx_failed")
		return nil, fmt.Errorf("%w: %s", ErrTransactionFailed, event.Signature)
	}

	candidate, err := extractCandidate(tx, event)
	if err != nil {
		observability.RecordResolveFailure(classifyResolveError(err))
		return nil, err
	}

	observability.RecordTokenResolved(time.Since(started).Seconds())
	log.Debug().
		Str("mint", candidate.Mint).
		Str("signature", event.Signature).
		Int64("slot", candidate.Slot).
		Msg("candidate resolved")

	return candidate, nil
}

// fetchTransaction polls for the transaction within the attempt
// budget. Transport errors and not-yet-indexed responses both consume
// an attempt before the next backoff.
func (r *CandidateResolver) fetchTransaction(ctx context.Context, signature string) (*solana.Transaction, error) {
	var tx *solana.Transaction
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.backoff * time.Duration(attempt)):
			}
		}

		err := r.pool.Do(ctx, func(ctx context.Context, client solana.RPCClient) error {
			var callErr error
			tx, callErr = client.GetTransaction(ctx, signature)
			return callErr
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("get transaction %s: %w", signature, err)
			}
			lastErr = err
			continue
		}
		if tx != nil {
			return tx, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("get transaction %s: %w", signature, lastErr)
	}
	return nil, fmt.Errorf("%w: %s after %d attempts", ErrTransactionNotFound, signature, r.attempts)
}

// extractCandidate locates the pump.fun create instruction in the top-level
// and inner instructions and reads the mint, bonding curve and creator from
// its account list.
func extractCandidate(tx *solana.Transaction, event domain.DetectionEvent) (*domain.CandidateToken, error) {
	if tx.Message == nil {
		return nil, fmt.Errorf("%w: missing message", ErrMalformedInstruction)
	}
	msg := tx.Message

	create := findInstruction(tx, solana.PumpCreateDiscriminator)
	if create == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCreateInstruction, event.Signature)
	}

	mint, err := accountAt(msg, create, solana.PumpCreateMintIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: mint: %v", ErrMalformedInstruction, err)
	}
	if _, err := solana.DecodePubkey(mint); err != nil {
		return nil, fmt.Errorf("%w: mint %s: %v", ErrMalformedInstruction, mint, err)
	}

	curve, err := accountAt(msg, create, solana.PumpCreateCurveIndex)
	if err != nil {
		// The curve is a PDA of the mint, so it can be recomputed when the
		// account list is truncated.
		curve, err = solana.BondingCurveAddress(mint)
		if err != nil {
			return nil, fmt.Errorf("%w: bonding curve: %v", ErrMalformedInstruction, err)
		}
	}

	creator, err := accountAt(msg, create, solana.PumpCreateCreatorIndex)
	if err != nil {
		// Fee payer signs the create transaction.
		if len(msg.AccountKeys) > 0 {
			creator = msg.AccountKeys[0]
		}
	}

	candidate := &domain.CandidateToken{
		Mint:         mint,
		BondingCurve: curve,
		Creator:      creator,
		TxSignature:  event.Signature,
		Slot:         tx.Slot,
		BlockTime:    tx.BlockTime,
		DetectedAt:   event.ReceivedAt,
	}

	if buySOL := initialBuySOL(tx); buySOL != nil {
		candidate.Stats = &domain.TokenStats{InitialBuySOL: buySOL}
	}

	return candidate, nil
}

// initialBuySOL reads the max_sol_cost argument of a buy instruction bundled
// in the create transaction, which bounds the creator's initial purchase.
func initialBuySOL(tx *solana.Transaction) *float64 {
	buy := findInstruction(tx, solana.PumpBuyDiscriminator)
	if buy == nil {
		return nil
	}
	data, err := base58.Decode(buy.Data)
	if err != nil || len(data) < 24 {
		return nil
	}
	maxSolCost := binary.LittleEndian.Uint64(data[16:24])
	sol := float64(maxSolCost) / domain.LamportsPerSOL
	return &sol
}

func findInstruction(tx *solana.Transaction, discriminator []byte) *solana.CompiledInstruction {
	msg := tx.Message
	for i := range msg.Instructions {
		if matchesInstruction(msg, &msg.Instructions[i], discriminator) {
			return &msg.Instructions[i]
		}
	}
	if tx.Meta == nil {
		return nil
	}
	for _, set := range tx.Meta.InnerInstructions {
		for i := range set.Instructions {
			if matchesInstruction(msg, &set.Instructions[i], discriminator) {
				return &set.Instructions[i]
			}
		}
	}
	return nil
}

func matchesInstruction(msg *solana.TransactionMessage, inst *solana.CompiledInstruction, discriminator []byte) bool {
	if inst.ProgramIDIndex < 0 || inst.ProgramIDIndex >= len(msg.AccountKeys) {
		return false
	}
	if msg.AccountKeys[inst.ProgramIDIndex] != solana.PumpProgramID {
		return false
	}
	data, err := base58.Decode(inst.Data)
	if err != nil || len(data) < len(discriminator) {
		return false
	}
	return bytes.Equal(data[:len(discriminator)], discriminator)
}

func accountAt(msg *solana.TransactionMessage, inst *solana.CompiledInstruction, pos int) (string, error) {
	if pos >= len(inst.Accounts) {
		return "", fmt.Errorf("account position %d out of range (%d accounts)", pos, len(inst.Accounts))
	}
	keyIndex := inst.Accounts[pos]
	if keyIndex < 0 || keyIndex >= len(msg.AccountKeys) {
		return "", fmt.Errorf("account key index %d out of range (%d keys)", keyIndex, len(msg.AccountKeys))
	}
	return msg.AccountKeys[keyIndex], nil
}

func classifyResolveError(err error) string {
	switch {
	case errors.Is(err, ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, ErrNoCreateInstruction):
		return "no_create"
	case errors.Is(err, ErrMalformedInstruction):
		return "malformed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "transport"
	}
}
