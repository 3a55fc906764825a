package observability

import "sync/atomic"

// DetectionCounters tracks pipeline stage totals with atomic counters.
// Unlike the Prometheus metrics these can be read back, which the
// status feed uses for its snapshots.
type DetectionCounters struct {
	received   atomic.Uint64
	filtered   atomic.Uint64
	duplicates atomic.Uint64
	passed     atomic.Uint64
	resolved   atomic.Uint64
	failures   atomic.Uint64
	buys       atomic.Uint64
	sells      atomic.Uint64
}

// CountersSnapshot is a point-in-time copy of all counters.
type CountersSnapshot struct {
	Received   uint64 `json:"received"`
	Filtered   uint64 `json:"filtered"`
	Duplicates uint64 `json:"duplicates"`
	Passed     uint64 `json:"passed"`
	Resolved   uint64 `json:"resolved"`
	Failures   uint64 `json:"failures"`
	Buys       uint64 `json:"buys"`
	Sells      uint64 `json:"sells"`
}

func (c *DetectionCounters) IncReceived()   { c.received.Add(1) }
func (c *DetectionCounters) IncFiltered()   { c.filtered.Add(1) }
func (c *DetectionCounters) IncDuplicates() { c.duplicates.Add(1) }
func (c *DetectionCounters) IncPassed()     { c.passed.Add(1) }
func (c *DetectionCounters) IncResolved()   { c.resolved.Add(1) }
func (c *DetectionCounters) IncFailures()   { c.failures.Add(1) }
func (c *DetectionCounters) IncBuys()       { c.buys.Add(1) }
func (c *DetectionCounters) IncSells()      { c.sells.Add(1) }

// Snapshot returns a copy of the current counter values.
func (c *DetectionCounters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		Received:   c.received.Load(),
		Filtered:   c.filtered.Load(),
		Duplicates: c.duplicates.Load(),
		Passed:     c.passed.Load(),
		Resolved:   c.resolved.Load(),
		Failures:   c.failures.Load(),
		Buys:       c.buys.Load(),
		Sells:      c.sells.Load(),
	}
}
