package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
)

func TestReadFixture_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	body := `{"query":"測試查詢","sources":[{"id":"a","url":"https://example.com","title":"T"}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := readFixture(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Query != "測試查詢" || len(f.Sources) != 1 {
		t.Fatalf("unexpected fixture: %+v", f)
	}
}

func TestReadFixture_MissingQuery_Errors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	if err := os.WriteFile(path, []byte(`{"sources":[]}`), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := readFixture(path); err == nil {
		t.Fatalf("expected an error for a fixture missing \"query\"")
	}
}

func TestReadFixture_MissingFile_Errors(t *testing.T) {
	if _, err := readFixture("/nonexistent/path/session.json"); err == nil {
		t.Fatalf("expected an error for a missing fixture file")
	}
}

func TestToCandidates_ParsesPublishedAt(t *testing.T) {
	sources := []fixtureSource{
		{ID: "a", URL: "https://example.com", PublishedAt: "2026-01-01T00:00:00Z"},
		{ID: "b", URL: "https://example.com/b", PublishedAt: "not-a-time"},
	}
	out := toCandidates(sources)
	if len(out) != 2 {
		t.Fatalf("unexpected output length: %d", len(out))
	}
	if out[0].PublishedAt == nil || !out[0].PublishedAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected a parsed timestamp, got %v", out[0].PublishedAt)
	}
	if out[1].PublishedAt != nil {
		t.Fatalf("expected an unparseable timestamp to be left nil, got %v", out[1].PublishedAt)
	}
}

func TestToTemporalHint_NilWhenBothEmpty(t *testing.T) {
	if got := toTemporalHint(fixtureInput{}); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestToTemporalHint_SetWhenEitherPresent(t *testing.T) {
	got := toTemporalHint(fixtureInput{TemporalStart: "2026-01-01"})
	if got == nil || got.Start != "2026-01-01" || got.Confidence != 1.0 {
		t.Fatalf("unexpected hint: %+v", got)
	}
}

func TestUserAgent_IncludesEndpointWhenSet(t *testing.T) {
	cfg := config.Default()
	cfg.Tier6.WebSearch.Endpoint = "https://searx.example/"
	got := userAgent(cfg)
	if got != "reasoncore-websearch/1.0 (+https://searx.example/)" {
		t.Fatalf("unexpected user agent: %q", got)
	}
}

func TestUserAgent_DefaultWhenEndpointEmpty(t *testing.T) {
	cfg := config.Default()
	cfg.Tier6.WebSearch.Endpoint = ""
	if got := userAgent(cfg); got != "reasoncore-websearch/1.0" {
		t.Fatalf("unexpected user agent: %q", got)
	}
}

func TestLoadConfig_NoPath_ReturnsValidatedDefault(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LLM.LowModel == "" {
		t.Fatalf("expected the default config to be populated")
	}
}

func TestPrepareCacheDir_NoCacheDir_NoOp(t *testing.T) {
	if err := prepareCacheDir(config.Config{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPrepareCacheDir_ClearsDirectory(t *testing.T) {
	dir := t.TempDir()
	stalePath := filepath.Join(dir, "stale.txt")
	if err := os.WriteFile(stalePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg := config.Config{CacheDir: dir, CacheClear: true}
	if err := prepareCacheDir(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(stalePath); err == nil {
		t.Fatalf("expected the stale cache file to be removed by cache.clear")
	}
}

func TestBuildStructuredRegistry_RegistersDisabledChannelsByDefault(t *testing.T) {
	cfg := config.Default()
	reg := buildStructuredRegistry(cfg)
	if _, ok := reg.Adapter(domain.ChannelStockTW); ok {
		t.Fatalf("expected STOCK_TW to be disabled by default")
	}
}

func TestBuildStructuredRegistry_EnabledChannelReturnsNoResults(t *testing.T) {
	cfg := config.Default()
	cfg.Tier6.StockTW.Enabled = true
	reg := buildStructuredRegistry(cfg)
	adapter, ok := reg.Adapter(domain.ChannelStockTW)
	if !ok {
		t.Fatalf("expected STOCK_TW to be registered once enabled")
	}
	out, err := adapter.Search(context.Background(), domain.GapResolution{APIParams: map[string]string{"ticker": "2330"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected the demo harness's handler to report no results, got %+v", out)
	}
}
