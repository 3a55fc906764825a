// Package pipeline connects the detection stages into a running sniper:
// filter, dedup, resolve, enrich, evaluate, buy. Events arrive from the
// ingestor channel and are processed by a small worker pool so one slow
// RPC round trip does not stall detection of the next token.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/enrich"
	"solana-sniper/internal/evaluate"
	"solana-sniper/internal/ingestion"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/position"
)

// DefaultWorkers is the number of concurrent event processors.
const DefaultWorkers = 4

// Buyer submits a buy for an approved candidate.
type Buyer interface {
	Buy(ctx context.Context, c *domain.CandidateToken, eval domain.EvaluationResult) (*domain.Holding, error)
}

// DecisionSink receives every evaluated candidate, buy or reject.
type DecisionSink interface {
	RecordDecision(c *domain.CandidateToken, result domain.EvaluationResult)
}

// Pipeline runs detection events through the buy decision chain.
type Pipeline struct {
	filter    *ingestion.EarlyFilter
	dedup     *ingestion.Deduplicator
	resolver  *ingestion.CandidateResolver
	enricher  *enrich.MetadataEnricher
	evaluator *evaluate.Evaluator
	buyer     Buyer
	book      *position.Book
	counters  *observability.DetectionCounters

	sink    DecisionSink
	workers int
	now     func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithDecisionSink forwards evaluated candidates to a status feed.
func WithDecisionSink(sink DecisionSink) Option {
	return func(p *Pipeline) {
		p.sink = sink
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline. All stage dependencies are required.
func New(
	filter *ingestion.EarlyFilter,
	dedup *ingestion.Deduplicator,
	resolver *ingestion.CandidateResolver,
	enricher *enrich.MetadataEnricher,
	evaluator *evaluate.Evaluator,
	buyer Buyer,
	book *position.Book,
	counters *observability.DetectionCounters,
	opts ...Option,
) (*Pipeline, error) {
	if filter == nil || dedup == nil || resolver == nil || enricher == nil ||
		evaluator == nil || buyer == nil || book == nil || counters == nil {
		return nil, errors.New("pipeline: all stage dependencies are required")
	}

	p := &Pipeline{
		filter:    filter,
		dedup:     dedup,
		resolver:  resolver,
		enricher:  enricher,
		evaluator: evaluator,
		buyer:     buyer,
		book:      book,
		counters:  counters,
		workers:   DefaultWorkers,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run consumes events until the channel closes or the context is
// canceled. It blocks until all workers have drained.
func (p *Pipeline) Run(ctx context.Context, events <-chan domain.DetectionEvent) {
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for w := 0; w < p.workers; w++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case event, ok := <-events:
					if !ok {
						return
					}
					p.Process(ctx, event)
				}
			}
		}()
	}
	wg.Wait()
}

// Process runs a single detection event through every stage.
func (p *Pipeline) Process(ctx context.Context, event domain.DetectionEvent) {
	p.counters.IncReceived()

	if !p.filter.Match(event.Logs) {
		p.counters.IncFiltered()
		observability.RecordEventFiltered()
		return
	}

	if !p.dedup.ShouldProcess(event.Signature) {
		p.counters.IncDuplicates()
		observability.RecordDuplicate()
		return
	}

	p.counters.IncPassed()
	observability.RecordEventPassed()

	candidate, err := p.resolver.Resolve(ctx, event)
	if err != nil {
		p.counters.IncFailures()
		log.Warn().Err(err).
			Str("signature", event.Signature).
			Msg("pipeline: resolve failed")
		return
	}
	p.counters.IncResolved()

	// Enrichment is best effort; it only errors on context cancel.
	if err := p.enricher.Enrich(ctx, candidate); err != nil {
		return
	}

	result := p.evaluator.Evaluate(candidate, p.now())

	// The slot is claimed before the buy goes out and settled by
	// Release or Commit.
	if result.Buy {
		if err := p.book.Reserve(candidate.Mint); err != nil {
			result.Reject(domain.RejectHoldingsFull)
		}
	}

	if p.sink != nil {
		p.sink.RecordDecision(candidate, result)
	}
	if !result.Buy {
		return
	}

	holding, err := p.buyer.Buy(ctx, candidate, result)
	if err != nil {
		p.book.Release(candidate.Mint)
		p.counters.IncFailures()
		log.Error().Err(err).
			Str("mint", candidate.Mint).
			Msg("pipeline: buy failed")
		return
	}

	p.counters.IncBuys()
	p.book.Commit(holding)
}
