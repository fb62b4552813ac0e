// Command reasoncore is a thin demo harness around the reasoning core: it
// reads a JSON fixture of a query plus candidate sources, runs one research
// session end to end, and writes the resulting report to disk. It is the
// only place in this module that parses flags or configures the OpenAI
// transport; file and network I/O go through the internal packages (config,
// cache, tracer, report, gapresolve), and the research itself is delegated
// to internal/orchestrator.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/reasoncore/internal/agents"
	filecache "github.com/hyperifyio/reasoncore/internal/cache"
	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/gapresolve"
	"github.com/hyperifyio/reasoncore/internal/gapresolve/cache"
	"github.com/hyperifyio/reasoncore/internal/llmclient"
	"github.com/hyperifyio/reasoncore/internal/orchestrator"
	"github.com/hyperifyio/reasoncore/internal/prompts"
	"github.com/hyperifyio/reasoncore/internal/report"
	"github.com/hyperifyio/reasoncore/internal/safellm"
	"github.com/hyperifyio/reasoncore/internal/tracer"
)

// fixtureSource is the on-disk shape of one candidate source in the input
// fixture; it maps onto domain.CandidateSource, which carries no JSON tags
// of its own since nothing in the core serializes it.
type fixtureSource struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	BodyText    string `json:"body_text"`
	Publisher   string `json:"publisher"`
	OriginType  string `json:"origin_type"`
	PublishedAt string `json:"published_at,omitempty"`
}

// fixtureInput is the whole JSON document read from -input.
type fixtureInput struct {
	Query             string          `json:"query"`
	Mode              string          `json:"mode,omitempty"`
	SkipClarification bool            `json:"skip_clarification,omitempty"`
	TemporalStart     string          `json:"temporal_start,omitempty"`
	TemporalEnd       string          `json:"temporal_end,omitempty"`
	Sources           []fixtureSource `json:"sources"`
}

// cliFlags is everything the operator can override on the command line,
// separate from config.Config so a flag only overrides a default when the
// operator actually passed it.
type cliFlags struct {
	inputPath         string
	outputPath        string
	configPath        string
	writePDF          bool
	skipClarification bool
	verbose           bool

	cacheDir         string
	cacheMaxAge      time.Duration
	cacheClear       bool
	cacheStrictPerms bool
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var f cliFlags
	flag.StringVar(&f.inputPath, "input", "session.json", "Path to the input JSON fixture (query + candidate sources)")
	flag.StringVar(&f.outputPath, "output", "report.md", "Path to write the final Markdown report")
	flag.StringVar(&f.configPath, "config", "", "Optional path to a YAML config file overlaying the defaults")
	flag.BoolVar(&f.writePDF, "pdf", false, "Also render the report as a PDF next to -output")
	flag.BoolVar(&f.skipClarification, "skip-clarification", false, "Never pause for clarification, even on an ambiguous query")
	flag.BoolVar(&f.verbose, "v", false, "Verbose logging")
	flag.StringVar(&f.cacheDir, "cache.dir", "", "Cache directory for the LLM response cache (overrides config)")
	flag.DurationVar(&f.cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&f.cacheClear, "cache.clear", false, "Clear the cache directory before this run")
	flag.BoolVar(&f.cacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.Parse()

	if f.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := run(f); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

func run(f cliFlags) error {
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if f.cacheDir != "" {
		cfg.CacheDir = f.cacheDir
	}
	if f.cacheStrictPerms {
		cfg.CacheStrictPerms = true
	}
	if f.cacheClear {
		cfg.CacheClear = true
	}
	if f.cacheMaxAge > 0 {
		cfg.CacheMaxAge = f.cacheMaxAge
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := prepareCacheDir(cfg); err != nil {
		log.Warn().Err(err).Msg("cache maintenance failed, continuing without guaranteed cache hygiene")
	}

	fixture, err := readFixture(f.inputPath)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}

	transportCfg := openai.DefaultConfig(cfg.LLM.APIKey)
	if cfg.LLM.BaseURL != "" {
		transportCfg.BaseURL = cfg.LLM.BaseURL
	}
	client := &llmclient.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}
	models := llmclient.ModelSelector{LowModel: cfg.LLM.LowModel, HighModel: cfg.LLM.HighModel}
	templates := prompts.NewStore()

	var llmCache safellm.ResponseCache
	if cfg.CacheDir != "" {
		llmCache = filecache.ResponseCache{LLMCache: &filecache.LLMCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}}
	}

	deps := orchestrator.Deps{
		Analyst:   agents.Analyst{Client: client, Models: models, Templates: templates, Timeout: cfg.Reasoning.AnalystTimeout, Cache: llmCache},
		Critic:    agents.Critic{Client: client, Models: models, Templates: templates, Timeout: cfg.Reasoning.CriticTimeout, Cache: llmCache},
		Writer:    agents.Writer{Client: client, Models: models, Templates: templates, Timeout: cfg.Reasoning.WriterTimeout, Cache: llmCache},
		Clarifier: agents.Clarification{Client: client, Models: models, Templates: templates, Cache: llmCache},
		Dispatcher: gapresolve.NewDispatcher(
			&gapresolve.WebSearchAdapter{
				BaseURL:   cfg.Tier6.WebSearch.Endpoint,
				UserAgent: userAgent(cfg),
				Cfg:       cfg.Tier6.WebSearch,
				Cache:     cache.New[[]gapresolve.NormalizedSource](cfg.Tier6.WebSearch.Cache.MaxSize, cfg.Tier6.WebSearch.Cache.TTLHours),
			},
			&gapresolve.WikipediaAdapter{
				Cfg:   cfg.Tier6.Wikipedia,
				Cache: cache.New[[]gapresolve.NormalizedSource](cfg.Tier6.Wikipedia.Cache.MaxSize, cfg.Tier6.Wikipedia.Cache.TTLHours),
			},
			&gapresolve.InternalSearchAdapter{
				Retriever: nil, // this demo harness has no upstream retrieval subsystem to re-query
				Cache:     cache.New[[]gapresolve.NormalizedSource](128, time.Hour),
			},
			&gapresolve.LLMKnowledgeAdapter{},
			buildStructuredRegistry(cfg),
			cfg.Tier6.EnrichmentStrategy,
		),
		Progress: tracer.LoggingProgressSink{Log: log.Logger},
		Logger:   &tracer.IterationLogger{Root: cfg.TraceRoot, QueryID: fixture.Query},
		Models:   models,
	}

	orch := orchestrator.New(cfg, deps)

	req := orchestrator.RunRequest{
		TraceID:           uuid.NewString(),
		QueryID:           uuid.NewString(),
		Query:             fixture.Query,
		Mode:              domain.Mode(fixture.Mode),
		Candidates:        toCandidates(fixture.Sources),
		TemporalHint:      toTemporalHint(fixture),
		SkipClarification: f.skipClarification || fixture.SkipClarification,
	}

	outcome, err := orch.RunResearch(context.Background(), req)
	if outcome.Clarification != nil {
		data, merr := json.MarshalIndent(outcome.Clarification, "", "  ")
		if merr != nil {
			return fmt.Errorf("marshal clarification request: %w", merr)
		}
		fmt.Println(string(data))
		return nil
	}
	if outcome.Report == nil {
		if err != nil {
			return err
		}
		return fmt.Errorf("orchestrator returned neither a clarification nor a report")
	}

	if werr := report.WriteMarkdown(f.outputPath, *outcome.Report); werr != nil {
		return werr
	}
	if werr := report.WriteManifestSidecar(report.DeriveManifestSidecarPath(f.outputPath), *outcome.Report); werr != nil {
		return werr
	}
	if f.writePDF {
		pdfPath := f.outputPath + ".pdf"
		if werr := report.WritePDF(pdfPath, *outcome.Report); werr != nil {
			return werr
		}
	}

	// A degraded-but-present report is not itself a failure: the caller
	// decides whether to treat the accompanying warnings as fatal.
	if err != nil {
		log.Warn().Err(err).Msg("session completed with a degraded, best-effort report")
	}
	return nil
}

// prepareCacheDir applies any requested cache-clear or max-age purge before
// the session starts using it.
func prepareCacheDir(cfg config.Config) error {
	if cfg.CacheDir == "" {
		return nil
	}
	if cfg.CacheClear {
		if err := filecache.ClearDir(cfg.CacheDir); err != nil {
			return fmt.Errorf("clear cache dir: %w", err)
		}
	}
	if cfg.CacheMaxAge > 0 {
		if _, err := filecache.PurgeLLMCacheByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
			return fmt.Errorf("purge llm cache: %w", err)
		}
	}
	return nil
}

// userAgent is the identifier the SearxNG client presents on its search
// requests.
func userAgent(cfg config.Config) string {
	if cfg.Tier6.WebSearch.Endpoint != "" {
		return "reasoncore-websearch/1.0 (+" + cfg.Tier6.WebSearch.Endpoint + ")"
	}
	return "reasoncore-websearch/1.0"
}

func loadConfig(path string) (config.Config, error) {
	var cfg config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
		if err != nil {
			return config.Config{}, err
		}
	} else {
		cfg = config.Default()
	}
	config.ApplyEnv(&cfg)
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func readFixture(path string) (fixtureInput, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return fixtureInput{}, err
	}
	var f fixtureInput
	if err := json.Unmarshal(b, &f); err != nil {
		return fixtureInput{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.Query == "" {
		return fixtureInput{}, fmt.Errorf("%s: missing required field \"query\"", path)
	}
	return f, nil
}

func toCandidates(sources []fixtureSource) []domain.CandidateSource {
	out := make([]domain.CandidateSource, 0, len(sources))
	for _, s := range sources {
		c := domain.CandidateSource{
			ID:         s.ID,
			URL:        s.URL,
			Title:      s.Title,
			BodyText:   s.BodyText,
			Publisher:  s.Publisher,
			OriginType: domain.OriginType(s.OriginType),
		}
		if s.PublishedAt != "" {
			if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
				c.PublishedAt = &t
			}
		}
		out = append(out, c)
	}
	return out
}

func toTemporalHint(f fixtureInput) *domain.TemporalHint {
	if f.TemporalStart == "" && f.TemporalEnd == "" {
		return nil
	}
	return &domain.TemporalHint{Start: f.TemporalStart, End: f.TemporalEnd, Confidence: 1.0}
}

// buildStructuredRegistry wires whatever tier-6 structured-API channels are
// enabled in cfg. None of them call a real upstream here: this demo harness
// has no stock/weather/registry credentials to hand out, so each handler
// reports no results rather than fabricating data, leaving LLM_KNOWLEDGE and
// WEB_SEARCH to cover those gaps when enabled.
func buildStructuredRegistry(cfg config.Config) *gapresolve.StructuredRegistry {
	noResults := func(_ context.Context, _ map[string]string) ([]gapresolve.NormalizedSource, error) {
		return nil, nil
	}
	defs := []gapresolve.StructuredDefinition{
		{Channel: domain.ChannelStockTW, Cfg: cfg.Tier6.StockTW, Handler: noResults},
		{Channel: domain.ChannelStockGlobal, Cfg: cfg.Tier6.StockGlobal, Handler: noResults},
		{Channel: domain.ChannelWeatherTW, Cfg: cfg.Tier6.WeatherTW, Handler: noResults},
		{Channel: domain.ChannelWeatherGlobal, Cfg: cfg.Tier6.WeatherGlobal, Handler: noResults},
		{Channel: domain.ChannelCompanyTW, Cfg: cfg.Tier6.CompanyTW, Handler: noResults},
		{Channel: domain.ChannelCompanyGlobal, Cfg: cfg.Tier6.CompanyGlobal, Handler: noResults},
	}
	return gapresolve.NewStructuredRegistry(defs)
}
