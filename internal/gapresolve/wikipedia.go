package gapresolve

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/gapresolve/cache"
)

// WikipediaAdapter resolves WIKIPEDIA gaps against the MediaWiki REST
// summary API. No pack example talks to MediaWiki, so this is a small,
// justified stdlib net/http client (see DESIGN.md) rather than an adapted
// teacher component.
type WikipediaAdapter struct {
	// BaseURL overrides the MediaWiki REST host for tests; empty means the
	// real https://<lang>.wikipedia.org host.
	BaseURL    string
	HTTPClient *http.Client
	Cfg        config.AdapterConfig
	Cache      *cache.Cache[[]NormalizedSource]
}

func (a *WikipediaAdapter) IsAvailable() bool { return a.Cfg.Enabled }

func (a *WikipediaAdapter) Search(ctx context.Context, res domain.GapResolution) ([]NormalizedSource, error) {
	query := res.SearchQuery
	if query == "" {
		return nil, fmt.Errorf("wikipedia: empty search_query")
	}
	key := cache.Key("wikipedia", query)

	if cached, ok := a.Cache.Get(key); ok {
		return cached, nil
	}

	results, fresh := withTimeoutStaleFallback(ctx, a.Cfg.Timeout, a.Cache, key, func(ctx context.Context) ([]NormalizedSource, error) {
		return a.fetchSummary(ctx, query)
	})
	if fresh {
		a.Cache.Set(key, results)
	}
	return results, nil
}

func (a *WikipediaAdapter) fetchSummary(ctx context.Context, query string) ([]NormalizedSource, error) {
	lang := a.Cfg.Language
	if lang == "" {
		lang = "zh"
	}
	base := a.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.wikipedia.org", lang)
	}
	endpoint := fmt.Sprintf("%s/api/rest_v1/page/summary/%s", base, url.PathEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
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
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("wikipedia: status %d", resp.StatusCode)
	}

	var body struct {
		Title      string `json:"title"`
		Extract    string `json:"extract"`
		Lang       string `json:"lang"`
		ContentURLs struct {
			Desktop struct {
				Page string `json:"page"`
			} `json:"desktop"`
		} `json:"content_urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if body.Title == "" || body.Extract == "" {
		return nil, nil
	}

	pageURL := body.ContentURLs.Desktop.Page
	if pageURL == "" {
		pageURL = fmt.Sprintf("https://%s.wikipedia.org/wiki/%s", lang, url.PathEscape(body.Title))
	}

	return []NormalizedSource{{
		URLOrURN:  pageURL,
		Title:     body.Title,
		BodyText:  capSnippet(body.Extract, a.Cfg.MaxSnippetLength),
		Publisher: "Wikipedia",
		Category:  domain.CategoryEncyclopedia,
	}}, nil
}
