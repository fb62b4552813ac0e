package gapresolve

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperifyio/reasoncore/internal/aggregate"
	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
)

// Dispatcher routes Analyst-declared GapResolutions to the adapter named by
// their channel and merges the resulting NormalizedSources into
// CandidateSources ready for re-admission through the Source-Tier Filter.
type Dispatcher struct {
	Core               map[domain.GapResolutionChannel]Adapter
	Structured         *StructuredRegistry
	EnrichmentStrategy config.EnrichmentStrategy
}

// NewDispatcher wires the four always-available core channels plus
// whatever structured-API channels are enabled in structured.
func NewDispatcher(web, wikipedia, internalSearch, llmKnowledge Adapter, structured *StructuredRegistry, strategy config.EnrichmentStrategy) *Dispatcher {
	return &Dispatcher{
		Core: map[domain.GapResolutionChannel]Adapter{
			domain.ChannelWebSearch:      web,
			domain.ChannelWikipedia:      wikipedia,
			domain.ChannelInternalSearch: internalSearch,
			domain.ChannelLLMKnowledge:   llmKnowledge,
		},
		Structured:         structured,
		EnrichmentStrategy: strategy,
	}
}

func (d *Dispatcher) adapterFor(channel domain.GapResolutionChannel) (Adapter, bool) {
	if a, ok := d.Core[channel]; ok && a != nil {
		return a, true
	}
	if d.Structured != nil {
		return d.Structured.Adapter(channel)
	}
	return nil, false
}

// Resolve dispatches every GapResolution and returns the union of admitted
// sources (tier left for the Source-Tier Filter to force to 6) plus the
// count of gap resolutions that produced at least one source.
func (d *Dispatcher) Resolve(ctx context.Context, resolutions []domain.GapResolution) ([]domain.ResolvedSource, int) {
	if len(resolutions) == 0 {
		return nil, 0
	}
	var out []domain.ResolvedSource
	var admittedCount int
	if d.EnrichmentStrategy == config.EnrichSequential {
		out, admittedCount = d.resolveSequential(ctx, resolutions)
	} else {
		out, admittedCount = d.resolveParallel(ctx, resolutions)
	}
	// Two resolutions (e.g. WEB_SEARCH and WIKIPEDIA) can surface the same
	// page under different tracking-parameter variants; collapse those
	// before the Source-Tier Filter ever sees them.
	return aggregate.MergeAndNormalize([][]domain.ResolvedSource{out}), admittedCount
}

func (d *Dispatcher) resolveSequential(ctx context.Context, resolutions []domain.GapResolution) ([]domain.ResolvedSource, int) {
	var out []domain.ResolvedSource
	admittedCount := 0
	for i, res := range resolutions {
		found := d.resolveOne(ctx, res, i)
		if len(found) > 0 {
			admittedCount++
		}
		out = append(out, found...)
	}
	return out, admittedCount
}

func (d *Dispatcher) resolveParallel(ctx context.Context, resolutions []domain.GapResolution) ([]domain.ResolvedSource, int) {
	results := make([][]domain.ResolvedSource, len(resolutions))
	var wg sync.WaitGroup
	for i, res := range resolutions {
		wg.Add(1)
		go func(i int, res domain.GapResolution) {
			defer wg.Done()
			results[i] = d.resolveOne(ctx, res, i)
		}(i, res)
	}
	wg.Wait()

	var out []domain.ResolvedSource
	admittedCount := 0
	for _, r := range results {
		if len(r) > 0 {
			admittedCount++
		}
		out = append(out, r...)
	}
	return out, admittedCount
}

func (d *Dispatcher) resolveOne(ctx context.Context, res domain.GapResolution, seq int) []domain.ResolvedSource {
	adapter, ok := d.adapterFor(res.Resolution)
	if !ok || !adapter.IsAvailable() {
		return nil
	}
	sources, err := adapter.Search(ctx, res)
	if err != nil || len(sources) == 0 {
		return nil
	}
	out := make([]domain.ResolvedSource, 0, len(sources))
	for i, s := range sources {
		out = append(out, domain.ResolvedSource{
			CandidateSource: domain.CandidateSource{
				ID:        fmt.Sprintf("gap-%s-%d-%d", res.Resolution, seq, i),
				URL:       s.URLOrURN,
				Title:     s.Title,
				BodyText:  s.BodyText,
				Publisher: s.Publisher,
			},
			Category: s.Category,
		})
	}
	return out
}
