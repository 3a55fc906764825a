// Package feed exposes the sniper's runtime state over HTTP: recent
// detections with their evaluation outcome, open holdings, and pipeline
// counters. It is a read-only status surface, not a control plane.
package feed

import (
	"sync"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/position"
	"solana-sniper/internal/storage"
)

// DefaultRecentCapacity bounds the detections ring buffer.
const DefaultRecentCapacity = 100

// DetectionEntry is one evaluated candidate kept for the status feed.
type DetectionEntry struct {
	Mint        string    `json:"mint"`
	Name        string    `json:"name,omitempty"`
	Symbol      string    `json:"symbol,omitempty"`
	Creator     string    `json:"creator"`
	TxSignature string    `json:"tx_signature"`
	PriceSOL    float64   `json:"price_sol,omitempty"`
	Decision    string    `json:"decision"` // buy | reject
	Reasons     []string  `json:"reasons,omitempty"`
	DetectedAt  time.Time `json:"detected_at"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Feed accumulates evaluated candidates in a fixed-size ring and serves
// snapshots of them alongside holdings and counters.
type Feed struct {
	counters *observability.DetectionCounters
	book     *position.Book
	trades   storage.TradeStore
	now      func() time.Time

	startedAt time.Time

	mu       sync.RWMutex
	entries  []DetectionEntry
	next     int
	capacity int
}

// Option configures a Feed.
type Option func(*Feed)

// WithRecentCapacity overrides the detections ring size.
func WithRecentCapacity(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.capacity = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Feed) {
		f.now = now
	}
}

// WithTradeStore exposes the trade journal on the /trades endpoint.
func WithTradeStore(store storage.TradeStore) Option {
	return func(f *Feed) {
		f.trades = store
	}
}

// New creates a Feed over the given counters and position book.
func New(counters *observability.DetectionCounters, book *position.Book, opts ...Option) *Feed {
	f := &Feed{
		counters: counters,
		book:     book,
		now:      time.Now,
		capacity: DefaultRecentCapacity,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.startedAt = f.now()
	f.entries = make([]DetectionEntry, 0, f.capacity)
	return f
}

// RecordDecision appends an evaluated candidate to the ring, evicting
// the oldest entry once the ring is full.
func (f *Feed) RecordDecision(c *domain.CandidateToken, result domain.EvaluationResult) {
	if c == nil {
		return
	}

	entry := DetectionEntry{
		Mint:        c.Mint,
		Creator:     c.Creator,
		TxSignature: c.TxSignature,
		Decision:    "reject",
		Reasons:     result.Reasons,
		DetectedAt:  c.DetectedAt,
		EvaluatedAt: f.now(),
	}
	if result.Buy {
		entry.Decision = "buy"
		entry.PriceSOL = result.PriceSOL
	} else if c.Curve != nil {
		entry.PriceSOL = c.Curve.PriceSOL()
	}
	if c.Metadata != nil {
		entry.Name = c.Metadata.Name
		entry.Symbol = c.Metadata.Symbol
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.entries) < f.capacity {
		f.entries = append(f.entries, entry)
		return
	}
	f.entries[f.next] = entry
	f.next = (f.next + 1) % f.capacity
}

// Recent returns buffered detections ordered newest first.
func (f *Feed) Recent() []DetectionEntry {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]DetectionEntry, 0, len(f.entries))
	if len(f.entries) < f.capacity {
		for i := len(f.entries) - 1; i >= 0; i-- {
			out = append(out, f.entries[i])
		}
		return out
	}

	// Full ring: f.next is the oldest slot.
	for i := 0; i < f.capacity; i++ {
		idx := (f.next - 1 - i + f.capacity) % f.capacity
		out = append(out, f.entries[idx])
	}
	return out
}

// Uptime reports time elapsed since the feed was created.
func (f *Feed) Uptime() time.Duration {
	return f.now().Sub(f.startedAt)
}
