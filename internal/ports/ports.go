// Package ports declares the narrow interfaces the reasoning core consumes
// from external collaborators: upstream retrieval, the
// temporal parser, prompt template storage, and progress/analytics sinks
// (the gap-adapter contract lives in internal/gapresolve). The core depends
// only on these interfaces, never on
// their concrete implementations, so it can be embedded by any host.
package ports

import (
	"context"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

// RetrieveOptions carries optional knobs for the upstream hybrid retrieval
// call; fields are advisory and may be ignored by a given implementation.
type RetrieveOptions struct {
	SiteFilter string
}

// Retriever is the upstream hybrid vector + keyword search and ranking
// subsystem that produces the initial candidate sources, and is reused by
// the INTERNAL_SEARCH gap-resolution channel.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions, topK int) ([]domain.CandidateSource, error)
}

// TimeRangeExtraction is the result of the upstream temporal parser.
type TimeRangeExtraction struct {
	Start      string
	End        string
	Confidence float64
}

// TimeRangeExtractor resolves a free-text query into a temporal constraint,
// when one is implied. Low confidence or failure is a clarification trigger.
type TimeRangeExtractor interface {
	ExtractTimeRange(ctx context.Context, query string) (TimeRangeExtraction, error)
}

// TemplateStore resolves a named prompt template with variable substitution.
// Implementations own template storage (files, database, embedded assets);
// the core only ever asks for templates by name.
type TemplateStore interface {
	GetPromptTemplate(name string, vars map[string]string) (string, error)
}

// ProgressSink receives best-effort progress events. A nil or failing sink
// must never block or fail the reasoning loop.
type ProgressSink interface {
	EmitProgress(event ProgressEvent)
}

// ProgressEvent is one phase-transition notification.
type ProgressEvent struct {
	MessageType      string
	Stage            string
	Iteration        int
	TotalIterations  int
	UserMessage      string
	ProgressPercent  float64
	Payload          map[string]any
}

// AnalyticsSink receives best-effort usage/latency analytics events.
type AnalyticsSink interface {
	LogAnalytics(event AnalyticsEvent)
}

// AnalyticsEvent is a single analytics record (LLM usage, cache hit/miss,
// gap-adapter latency).
type AnalyticsEvent struct {
	Name       string
	DurationMS int64
	Fields     map[string]any
}
