package ingestion

import "strings"

// Creation markers emitted by the pump.fun program. Both casings occur
// across program versions.
var creationMarkers = []string{
	"Program log: Instruction: Create",
	"Program log: Instruction: create",
}

// EarlyFilter decides, from log lines alone, whether a transaction can
// be a token creation. It runs before any network call.
type EarlyFilter struct{}

// NewEarlyFilter creates a new EarlyFilter.
func NewEarlyFilter() *EarlyFilter {
	return &EarlyFilter{}
}

// Match reports whether any log line carries a creation marker.
func (f *EarlyFilter) Match(logs []string) bool {
	for _, line := range logs {
		for _, marker := range creationMarkers {
			if strings.Contains(line, marker) {
				return true
			}
		}
	}
	return false
}
