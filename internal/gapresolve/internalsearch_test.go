package gapresolve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/gapresolve/cache"
	"github.com/hyperifyio/reasoncore/internal/ports"
)

type fakeRetriever struct {
	results []domain.CandidateSource
	err     error
}

func (f fakeRetriever) Retrieve(ctx context.Context, query string, opts ports.RetrieveOptions, topK int) ([]domain.CandidateSource, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func TestInternalSearchAdapter_IsAvailable(t *testing.T) {
	a := &InternalSearchAdapter{}
	if a.IsAvailable() {
		t.Fatalf("expected unavailable with a nil Retriever")
	}
	a.Retriever = fakeRetriever{}
	if !a.IsAvailable() {
		t.Fatalf("expected available once a Retriever is set")
	}
}

func TestInternalSearchAdapter_Search_Success(t *testing.T) {
	a := &InternalSearchAdapter{
		Retriever: fakeRetriever{results: []domain.CandidateSource{
			{URL: "https://example.com/a", Title: "A", BodyText: "body"},
		}},
		Cache: cache.New[[]NormalizedSource](8, time.Hour),
	}
	out, err := a.Search(context.Background(), domain.GapResolution{SearchQuery: "query"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].URLOrURN != "https://example.com/a" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out[0].Category != domain.CategoryDigital {
		t.Fatalf("expected CategoryDigital, got %v", out[0].Category)
	}
}

func TestInternalSearchAdapter_Search_EmptyQuery_Errors(t *testing.T) {
	a := &InternalSearchAdapter{Retriever: fakeRetriever{}, Cache: cache.New[[]NormalizedSource](8, time.Hour)}
	_, err := a.Search(context.Background(), domain.GapResolution{})
	if err == nil {
		t.Fatalf("expected an error for an empty search_query")
	}
}

func TestInternalSearchAdapter_Search_RetrieverError_FallsBackToStale(t *testing.T) {
	c := cache.New[[]NormalizedSource](8, time.Hour)
	key := cache.Key("internal_search", "q")
	c.Set(key, []NormalizedSource{{URLOrURN: "https://stale.example/"}})

	a := &InternalSearchAdapter{Retriever: fakeRetriever{err: errors.New("retrieval backend down")}, Cache: c}
	out, err := a.Search(context.Background(), domain.GapResolution{SearchQuery: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].URLOrURN != "https://stale.example/" {
		t.Fatalf("expected the stale cached entry to be returned, got %+v", out)
	}
}

func TestInternalSearchAdapter_Search_RetrieverError_NoCache_ReturnsEmpty(t *testing.T) {
	a := &InternalSearchAdapter{Retriever: fakeRetriever{err: errors.New("down")}, Cache: cache.New[[]NormalizedSource](8, time.Hour)}
	out, err := a.Search(context.Background(), domain.GapResolution{SearchQuery: "q"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected an empty result with no stale fallback available, got %+v", out)
	}
}
