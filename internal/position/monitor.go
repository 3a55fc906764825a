package position

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/price"
	"solana-sniper/internal/strategy"
)

// DefaultInterval is the monitoring tick cadence.
const DefaultInterval = 5 * time.Second

// Seller closes a holding at the current price for an exit reason.
type Seller interface {
	Sell(ctx context.Context, h *domain.Holding, reason string, currentPrice float64) (*domain.TradeRecord, error)
}

// PriceHistorySink receives sampled price points. Writes are
// best-effort; failures never affect monitoring.
type PriceHistorySink interface {
	Append(ctx context.Context, point domain.PricePoint) error
}

// Monitor polls the curve price of every open holding on a fixed tick
// and closes positions whose exit rules fire. A failed sell leaves the
// holding open for the next tick.
type Monitor struct {
	book     *Book
	prices   *price.Cache
	seller   Seller
	rules    []strategy.ExitRule
	interval time.Duration
	history  PriceHistorySink
	now      func() time.Time
}

type MonitorOption func(*Monitor)

// WithInterval sets the tick cadence.
func WithInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithPriceHistory attaches a price history sink.
func WithPriceHistory(sink PriceHistorySink) MonitorOption {
	return func(m *Monitor) { m.history = sink }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) MonitorOption {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMonitor(book *Book, prices *price.Cache, seller Seller, rules []strategy.ExitRule, opts ...MonitorOption) (*Monitor, error) {
	if book == nil {
		return nil, errors.New("position book is required")
	}
	if prices == nil {
		return nil, errors.New("price cache is required")
	}
	if seller == nil {
		return nil, errors.New("seller is required")
	}
	if len(rules) == 0 {
		return nil, errors.New("at least one exit rule is required")
	}
	m := &Monitor{
		book:     book,
		prices:   prices,
		seller:   seller,
		rules:    rules,
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Run ticks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick checks every open holding once.
func (m *Monitor) Tick(ctx context.Context) {
	for _, h := range m.book.List() {
		m.check(ctx, h)
	}
}

func (m *Monitor) check(ctx context.Context, h *domain.Holding) {
	state, err := m.prices.Get(ctx, h.BondingCurve)
	if err != nil {
		if errors.Is(err, price.ErrCurveNotFound) {
			// Curve account closed after migration to a DEX.
			log.Warn().Str("mint", h.Mint).Msg("bonding curve account gone, holding unsellable here")
			return
		}
		log.Warn().Err(err).Str("mint", h.Mint).Msg("price check failed")
		return
	}

	currentPrice := state.PriceSOL()
	m.recordHistory(ctx, h, state, currentPrice)

	reason, ok := strategy.FirstExit(m.rules, h, state, m.now())
	if !ok {
		return
	}

	log.Info().Str("mint", h.Mint).Str("reason", reason).
		Float64("price_sol", currentPrice).
		Float64("profit_pct", h.ProfitPct(currentPrice)).
		Msg("exit rule fired")

	if _, err := m.seller.Sell(ctx, h, reason, currentPrice); err != nil {
		log.Error().Err(err).Str("mint", h.Mint).Str("reason", reason).
			Msg("sell failed, holding stays open")
		return
	}

	m.book.Remove(h.Mint)
	m.prices.Invalidate(h.BondingCurve)
}

func (m *Monitor) recordHistory(ctx context.Context, h *domain.Holding, state *domain.BondingCurveState, currentPrice float64) {
	if m.history == nil {
		return
	}
	point := domain.PricePoint{
		Mint:         h.Mint,
		ObservedAt:   m.now(),
		PriceSOL:     currentPrice,
		LiquiditySOL: state.LiquiditySOL(),
	}
	if err := m.history.Append(ctx, point); err != nil {
		log.Debug().Err(err).Str("mint", h.Mint).Msg("price history append failed")
	}
}
