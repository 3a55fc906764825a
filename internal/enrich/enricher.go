package enrich

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/solana"
)

const (
	DefaultOffchainTimeout = 3 * time.Second

	// maxOffchainBody caps the off-chain JSON document size.
	maxOffchainBody = 1 << 20
)

// MetadataEnricher fills in bonding curve state, token metadata and
// holder statistics on a resolved candidate. Every stage is
// best-effort: a failed fetch leaves the corresponding field nil and
// never rejects the candidate.
type MetadataEnricher struct {
	pool          *solana.EndpointPool
	httpClient    *http.Client
	fetchOffchain bool
	fetchStats    bool
}

type EnricherOption func(*MetadataEnricher)

// WithOffchainTimeout overrides the HTTP timeout for off-chain URI fetches.
func WithOffchainTimeout(d time.Duration) EnricherOption {
	return func(e *MetadataEnricher) {
		if d > 0 {
			e.httpClient.Timeout = d
		}
	}
}

// WithOffchainFetch toggles fetching the off-chain JSON document.
func WithOffchainFetch(enabled bool) EnricherOption {
	return func(e *MetadataEnricher) { e.fetchOffchain = enabled }
}

// WithStatsFetch toggles fetching holder statistics.
func WithStatsFetch(enabled bool) EnricherOption {
	return func(e *MetadataEnricher) { e.fetchStats = enabled }
}

// WithHTTPClient replaces the off-chain HTTP client.
func WithHTTPClient(client *http.Client) EnricherOption {
	return func(e *MetadataEnricher) {
		if client != nil {
			e.httpClient = client
		}
	}
}

func NewMetadataEnricher(pool *solana.EndpointPool, opts ...EnricherOption) (*MetadataEnricher, error) {
	if pool == nil {
		return nil, errors.New("endpoint pool is required")
	}
	e := &MetadataEnricher{
		pool:          pool,
		httpClient:    &http.Client{Timeout: DefaultOffchainTimeout},
		fetchOffchain: true,
		fetchStats:    true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Enrich mutates the candidate in place. It returns an error only when
// the context is cancelled; individual stage failures are recorded and
// skipped.
func (e *MetadataEnricher) Enrich(ctx context.Context, c *domain.CandidateToken) error {
	if err := e.enrichCurve(ctx, c); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		observability.RecordEnrichmentFailure("curve")
		log.Debug().Err(err).Str("mint", c.Mint).Msg("bonding curve fetch failed")
	}

	if err := e.enrichMetadata(ctx, c); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		observability.RecordEnrichmentFailure("metadata")
		log.Debug().Err(err).Str("mint", c.Mint).Msg("metadata fetch failed")
	}

	if e.fetchOffchain && c.Metadata != nil {
		if err := e.enrichOffchain(ctx, c.Metadata); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.RecordEnrichmentFailure("offchain")
			log.Debug().Err(err).Str("mint", c.Mint).Str("uri", c.Metadata.URI).
				Msg("off-chain metadata fetch failed")
		}
	}

	if e.fetchStats {
		if err := e.enrichStats(ctx, c); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.RecordEnrichmentFailure("stats")
			log.Debug().Err(err).Str("mint", c.Mint).Msg("holder stats fetch failed")
		}
	}

	return nil
}

func (e *MetadataEnricher) enrichCurve(ctx context.Context, c *domain.CandidateToken) error {
	curveAddr := c.BondingCurve
	if curveAddr == "" {
		derived, err := solana.BondingCurveAddress(c.Mint)
		if err != nil {
			return fmt.Errorf("derive curve address: %w", err)
		}
		curveAddr = derived
		c.BondingCurve = derived
	}

	data, err := e.fetchAccountData(ctx, curveAddr)
	if err != nil {
		return err
	}
	state, err := domain.DecodeBondingCurve(data)
	if err != nil {
		return err
	}
	c.Curve = state
	if c.Creator == "" && state.Creator != "" {
		c.Creator = state.Creator
	}
	return nil
}

func (e *MetadataEnricher) enrichMetadata(ctx context.Context, c *domain.CandidateToken) error {
	addr, err := solana.MetadataAddress(c.Mint)
	if err != nil {
		return fmt.Errorf("derive metadata address: %w", err)
	}
	data, err := e.fetchAccountData(ctx, addr)
	if err != nil {
		return err
	}
	meta, err := parseMetadataAccount(data)
	if err != nil {
		return err
	}
	c.Metadata = meta
	return nil
}

// offchainDocument is the subset of the token JSON document we keep.
type offchainDocument struct {
	Description string `json:"description"`
	Image       string `json:"image"`
}

func (e *MetadataEnricher) enrichOffchain(ctx context.Context, meta *domain.TokenMetadata) error {
	uri := strings.TrimSpace(meta.URI)
	if uri == "" {
		return nil
	}
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		return fmt.Errorf("unsupported uri scheme: %s", uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return err
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxOffchainBody))
	if err != nil {
		return err
	}

	var doc offchainDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	meta.Description = doc.Description
	meta.Image = doc.Image
	return nil
}

func (e *MetadataEnricher) enrichStats(ctx context.Context, c *domain.CandidateToken) error {
	var balances []solana.TokenAccountBalance
	err := e.pool.Do(ctx, func(ctx context.Context, client solana.RPCClient) error {
		var callErr error
		balances, callErr = client.GetTokenLargestAccounts(ctx, c.Mint)
		return callErr
	})
	if err != nil {
		return err
	}

	holders := 0
	for _, b := range balances {
		if b.Amount > 0 {
			holders++
		}
	}

	if c.Stats == nil {
		c.Stats = &domain.TokenStats{}
	}
	c.Stats.HolderCount = &holders

	if c.Creator == "" {
		return nil
	}
	creatorATA, err := solana.AssociatedTokenAddress(c.Creator, c.Mint)
	if err != nil {
		return fmt.Errorf("derive creator token account: %w", err)
	}

	supply := float64(domain.DefaultTotalSupplyRaw)
	if c.Curve != nil && c.Curve.TokenTotalSupply > 0 {
		supply = float64(c.Curve.TokenTotalSupply)
	}
	for _, b := range balances {
		if b.Address == creatorATA {
			pct := float64(b.Amount) / supply * 100
			c.Stats.CreatorAllocationPct = &pct
			break
		}
	}
	return nil
}

func (e *MetadataEnricher) fetchAccountData(ctx context.Context, pubkey string) ([]byte, error) {
	var info *solana.AccountInfo
	err := e.pool.Do(ctx, func(ctx context.Context, client solana.RPCClient) error {
		var callErr error
		info, callErr = client.GetAccountInfo(ctx, pubkey)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("account %s not found", pubkey)
	}
	data, err := base64.StdEncoding.DecodeString(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode account %s data: %w", pubkey, err)
	}
	return data, nil
}
