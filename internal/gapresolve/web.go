package gapresolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/gapresolve/cache"
)

// WebSearchAdapter resolves WEB_SEARCH gaps against a SearxNG instance. It
// stays at snippet level: the adapter returns whatever SearxNG's own result
// content carries and never re-fetches the linked page.
type WebSearchAdapter struct {
	BaseURL    string
	APIKey     string
	UserAgent  string
	HTTPClient *http.Client
	Cfg        config.AdapterConfig
	Cache      *cache.Cache[[]NormalizedSource]
}

func (a *WebSearchAdapter) IsAvailable() bool { return a.Cfg.Enabled && a.BaseURL != "" }

func (a *WebSearchAdapter) Search(ctx context.Context, res domain.GapResolution) ([]NormalizedSource, error) {
	query := res.SearchQuery
	if query == "" {
		return nil, fmt.Errorf("web search: empty search_query")
	}
	key := cache.Key("web_search", query)

	if cached, ok := a.Cache.Get(key); ok {
		return cached, nil
	}

	results, fresh := withTimeoutStaleFallback(ctx, a.Cfg.Timeout, a.Cache, key, func(ctx context.Context) ([]NormalizedSource, error) {
		return a.fetch(ctx, query)
	})
	if fresh {
		a.Cache.Set(key, results)
	}
	return results, nil
}

func (a *WebSearchAdapter) fetch(ctx context.Context, query string) ([]NormalizedSource, error) {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("language", "auto")
	q.Set("safesearch", "1")
	limit := a.Cfg.MaxResults
	if limit <= 0 {
		limit = 5
	}
	q.Set("count", fmt.Sprintf("%d", limit))
	if a.APIKey != "" {
		q.Set("apikey", a.APIKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if a.UserAgent != "" {
		req.Header.Set("User-Agent", a.UserAgent)
	}

	hc := a.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("web search: status %d", resp.StatusCode)
	}

	var sr searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, err
	}

	out := make([]NormalizedSource, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		snippet := strings.TrimSpace(r.Content)
		title := strings.TrimSpace(r.Title)
		out = append(out, NormalizedSource{
			URLOrURN:  strings.TrimSpace(r.URL),
			Title:     title,
			BodyText:  capSnippet(snippet, a.Cfg.MaxSnippetLength),
			Publisher: hostOf(r.URL),
			Category:  domain.CategoryWebReference,
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}

func capSnippet(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
