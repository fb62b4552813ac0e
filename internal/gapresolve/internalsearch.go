package gapresolve

import (
	"context"
	"fmt"

	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/gapresolve/cache"
	"github.com/hyperifyio/reasoncore/internal/ports"
)

// InternalSearchAdapter resolves INTERNAL_SEARCH gaps by re-querying the
// same upstream Retriever the orchestrator used for the initial candidate
// set.
type InternalSearchAdapter struct {
	Retriever ports.Retriever
	Cache     *cache.Cache[[]NormalizedSource]
}

func (a *InternalSearchAdapter) IsAvailable() bool { return a.Retriever != nil }

func (a *InternalSearchAdapter) Search(ctx context.Context, res domain.GapResolution) ([]NormalizedSource, error) {
	query := res.SearchQuery
	if query == "" {
		return nil, fmt.Errorf("internal search: empty search_query")
	}
	key := cache.Key("internal_search", query)
	if cached, ok := a.Cache.Get(key); ok {
		return cached, nil
	}

	out, fresh := withTimeoutStaleFallback(ctx, 0, a.Cache, key, func(ctx context.Context) ([]NormalizedSource, error) {
		candidates, err := a.Retriever.Retrieve(ctx, query, ports.RetrieveOptions{}, 5)
		if err != nil {
			return nil, err
		}
		out := make([]NormalizedSource, 0, len(candidates))
		for _, c := range candidates {
			out = append(out, NormalizedSource{
				URLOrURN:  c.URL,
				Title:     c.Title,
				BodyText:  c.BodyText,
				Publisher: c.Publisher,
				Category:  domain.CategoryDigital,
			})
		}
		return out, nil
	})
	if fresh {
		a.Cache.Set(key, out)
	}
	return out, nil
}
