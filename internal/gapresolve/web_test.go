package gapresolve

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"context"

	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/gapresolve/cache"
)

func TestWebSearchAdapter_IsAvailable(t *testing.T) {
	a := &WebSearchAdapter{Cfg: config.AdapterConfig{Enabled: true}, BaseURL: "https://searx.example/"}
	if !a.IsAvailable() {
		t.Fatalf("expected available when enabled and BaseURL is set")
	}
	a.BaseURL = ""
	if a.IsAvailable() {
		t.Fatalf("expected unavailable with an empty BaseURL")
	}
}

func TestWebSearchAdapter_Search_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"title":"Example","url":"https://example.com/a","content":"a short snippet"}]}`))
	}))
	defer srv.Close()

	a := &WebSearchAdapter{
		BaseURL: srv.URL,
		Cfg:     config.AdapterConfig{Enabled: true, Timeout: 2 * time.Second, MaxResults: 5},
		Cache:   cache.New[[]NormalizedSource](8, time.Hour),
	}
	out, err := a.Search(context.Background(), domain.GapResolution{SearchQuery: "example query"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].URLOrURN != "https://example.com/a" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out[0].Publisher != "example.com" {
		t.Fatalf("expected host-derived publisher, got %q", out[0].Publisher)
	}
}

func TestWebSearchAdapter_Search_EmptyQuery_Errors(t *testing.T) {
	a := &WebSearchAdapter{BaseURL: "https://searx.example/", Cfg: config.AdapterConfig{Enabled: true}, Cache: cache.New[[]NormalizedSource](8, time.Hour)}
	_, err := a.Search(context.Background(), domain.GapResolution{})
	if err == nil {
		t.Fatalf("expected an error for an empty search_query")
	}
}

func TestWebSearchAdapter_Search_CachesResult(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[{"title":"Example","url":"https://example.com/a","content":"snippet"}]}`))
	}))
	defer srv.Close()

	a := &WebSearchAdapter{
		BaseURL: srv.URL,
		Cfg:     config.AdapterConfig{Enabled: true, Timeout: 2 * time.Second},
		Cache:   cache.New[[]NormalizedSource](8, time.Hour),
	}
	ctx := context.Background()
	if _, err := a.Search(ctx, domain.GapResolution{SearchQuery: "repeat"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := a.Search(ctx, domain.GapResolution{SearchQuery: "repeat"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected the second call to be served from cache, got %d upstream calls", calls)
	}
}

func TestHostOf(t *testing.T) {
	if got := hostOf("https://example.com/path?x=1"); got != "example.com" {
		t.Fatalf("hostOf returned %q", got)
	}
}

func TestCapSnippet(t *testing.T) {
	if got := capSnippet("hello world", 5); got != "hello" {
		t.Fatalf("capSnippet returned %q", got)
	}
	if got := capSnippet("short", 50); got != "short" {
		t.Fatalf("capSnippet should not pad or alter strings under the limit, got %q", got)
	}
}
