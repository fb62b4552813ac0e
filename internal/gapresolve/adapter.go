// Package gapresolve dispatches Analyst-declared information gaps to the
// channel adapters named in a GapResolution: web search,
// encyclopedia lookup, internal retrieval, LLM parametric knowledge, and
// feature-flagged structured APIs. Every adapter that calls out is bounded
// by a timeout with stale-cache fallback and is cached with an LRU+TTL
// policy; the LLM-knowledge adapter makes no call and is not cached.
package gapresolve

import (
	"context"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

// NormalizedSource is what every adapter returns: enough to become a
// CandidateSource once admitted through the Source-Tier Filter (the filter
// forces its tier to 6 regardless of what the adapter suggests).
type NormalizedSource struct {
	URLOrURN  string
	Title     string
	BodyText  string
	Publisher string
	Category  domain.SourceCategory
}

// Adapter is the shared contract every gap-resolution channel implements.
type Adapter interface {
	// Search executes one resolution and returns zero or more normalized
	// sources. An empty, nil-error result means "no results", distinct from
	// a returned error which means the adapter itself failed.
	Search(ctx context.Context, res domain.GapResolution) ([]NormalizedSource, error)
	IsAvailable() bool
}
