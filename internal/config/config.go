// Package config loads the reasoning core's frozen runtime configuration.
// A Config is built once (defaults, then an optional YAML file, then
// environment overrides) and passed explicitly to every component; nothing
// in this module reads a package-level global afterward.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

// PublisherRule is one entry of the publisher → (tier, category) table.
type PublisherRule struct {
	Tier     domain.Tier           `yaml:"tier"`
	Category domain.SourceCategory `yaml:"category"`
}

// ModeConfig is the admission policy for one research mode.
type ModeConfig struct {
	MaxTier      domain.Tier `yaml:"max_tier"`
	CompareTiers []domain.Tier `yaml:"compare_tiers,omitempty"`
}

// AdapterCacheConfig bounds one gap-adapter's LRU+TTL cache.
type AdapterCacheConfig struct {
	TTLHours time.Duration `yaml:"ttl_hours"`
	MaxSize  int           `yaml:"max_size"`
}

// AdapterConfig is the shared shape of a tier-6 gap-resolution adapter's
// settings; StructuredParams carries adapter-specific extras (e.g. the
// upstream endpoint for a structured API) as opaque key/value pairs.
type AdapterConfig struct {
	Enabled          bool               `yaml:"enabled"`
	Timeout          time.Duration      `yaml:"timeout"`
	MaxResults       int                `yaml:"max_results"`
	MaxSnippetLength int                `yaml:"max_snippet_length"`
	Language         string             `yaml:"language,omitempty"`
	FallbackToLocal  bool               `yaml:"fallback_to_local"`
	Cache            AdapterCacheConfig `yaml:"cache"`
	Endpoint         string             `yaml:"endpoint,omitempty"`
	StructuredParams map[string]string  `yaml:"params,omitempty"`
}

// EnrichmentStrategy selects how multiple gap resolutions in one round are
// dispatched.
type EnrichmentStrategy string

const (
	EnrichParallel   EnrichmentStrategy = "parallel"
	EnrichSequential EnrichmentStrategy = "sequential"
)

// Tier6Config groups every gap-resolution adapter's settings.
type Tier6Config struct {
	WebSearch          AdapterConfig `yaml:"web_search"`
	Wikipedia          AdapterConfig `yaml:"wikipedia"`
	StockTW            AdapterConfig `yaml:"stock_tw"`
	StockGlobal        AdapterConfig `yaml:"stock_global"`
	WeatherTW          AdapterConfig `yaml:"weather_tw"`
	WeatherGlobal      AdapterConfig `yaml:"weather_global"`
	CompanyTW          AdapterConfig `yaml:"company_tw"`
	CompanyGlobal      AdapterConfig `yaml:"company_global"`
	EnrichmentStrategy EnrichmentStrategy `yaml:"enrichment_strategy"`
}

// ReasoningConfig bounds the Actor-Critic convergence loop.
type ReasoningConfig struct {
	MaxIterations  int           `yaml:"max_iterations"`
	AnalystTimeout time.Duration `yaml:"analyst_timeout"`
	CriticTimeout  time.Duration `yaml:"critic_timeout"`
	WriterTimeout  time.Duration `yaml:"writer_timeout"`

	// MaxRejects bounds consecutive CriticReject verdicts before the session
	// degrades early; it defaults to MaxIterations so a continuous-REJECT
	// session only degrades once the iteration cap itself is reached, not
	// before it.
	MaxRejects int `yaml:"max_rejects"`

	// ReservedOutputTokens is subtracted from a model's context window before
	// checking whether the rendered prompt still fits, leaving room for the
	// model's own response.
	ReservedOutputTokens int `yaml:"reserved_output_tokens"`
}

// ContextConfig bounds the Context Builder's output.
type ContextConfig struct {
	MaxTotalChars     int    `yaml:"max_total_chars"`
	MaxSnippetLength  int    `yaml:"max_snippet_length"`
	MinSnippetLength  int    `yaml:"min_snippet_length"`
	Timezone          string `yaml:"timezone"`
}

// ModeDetectConfig holds the keyword heuristics used to infer a mode from a
// bare query when the caller supplies none, plus ambiguity patterns that
// trigger a clarification round before research begins. Spec.md treats this
// as configuration, not contract (Open Question 2).
type ModeDetectConfig struct {
	StrictKeywords     []string `yaml:"strict_keywords"`
	MonitorKeywords    []string `yaml:"monitor_keywords"`
	AmbiguityPatterns  []string `yaml:"ambiguity_patterns"`
}

// LLMConfig names the model endpoint and the low/high quality models.
type LLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	LowModel  string `yaml:"low_model"`
	HighModel string `yaml:"high_model"`
}

// Config is the reasoning core's complete, frozen runtime configuration.
type Config struct {
	LLM           LLMConfig                        `yaml:"llm"`
	Reasoning     ReasoningConfig                   `yaml:"reasoning"`
	Context       ContextConfig                     `yaml:"context"`
	SourceTiers   map[string]PublisherRule          `yaml:"source_tiers"`
	ModeConfigs   map[domain.Mode]ModeConfig        `yaml:"mode_configs"`
	Tier6         Tier6Config                       `yaml:"tier_6"`
	ModeDetect    ModeDetectConfig                  `yaml:"mode_detect"`
	TraceRoot     string                            `yaml:"trace_root"`
	Verbose       bool                              `yaml:"verbose"`

	// CacheDir holds the on-disk LLM response cache. Empty disables it.
	CacheDir         string        `yaml:"cache_dir"`
	CacheMaxAge      time.Duration `yaml:"cache_max_age"`
	CacheClear       bool          `yaml:"cache_clear"`
	CacheStrictPerms bool          `yaml:"cache_strict_perms"`
}

// Default returns the built-in configuration used when no file is supplied,
// so a basic run never requires a config file.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			LowModel:  "gpt-4o-mini",
			HighModel: "gpt-4o",
		},
		Reasoning: ReasoningConfig{
			MaxIterations:        3,
			AnalystTimeout:       60 * time.Second,
			CriticTimeout:        30 * time.Second,
			WriterTimeout:        45 * time.Second,
			MaxRejects:           3,
			ReservedOutputTokens: 2048,
		},
		Context: ContextConfig{
			MaxTotalChars:    20000,
			MaxSnippetLength: 500,
			MinSnippetLength: 80,
			Timezone:         "Asia/Taipei",
		},
		SourceTiers: map[string]PublisherRule{},
		ModeConfigs: map[domain.Mode]ModeConfig{
			domain.ModeStrict:    {MaxTier: 2},
			domain.ModeDiscovery: {MaxTier: 5},
			domain.ModeMonitor:   {MaxTier: 5, CompareTiers: []domain.Tier{1, 5}},
		},
		Tier6: Tier6Config{
			WebSearch: AdapterConfig{
				Enabled: true, Timeout: 3 * time.Second, MaxResults: 5, MaxSnippetLength: 500,
				Cache: AdapterCacheConfig{TTLHours: 6 * time.Hour, MaxSize: 256},
			},
			Wikipedia: AdapterConfig{
				Enabled: true, Timeout: 5 * time.Second, MaxResults: 3, MaxSnippetLength: 500, Language: "zh",
				Cache: AdapterCacheConfig{TTLHours: 24 * time.Hour, MaxSize: 256},
			},
			StockTW:       AdapterConfig{Enabled: false, Timeout: 5 * time.Second, Cache: AdapterCacheConfig{TTLHours: time.Hour, MaxSize: 128}},
			StockGlobal:   AdapterConfig{Enabled: false, Timeout: 5 * time.Second, Cache: AdapterCacheConfig{TTLHours: time.Hour, MaxSize: 128}},
			WeatherTW:     AdapterConfig{Enabled: false, Timeout: 5 * time.Second, Cache: AdapterCacheConfig{TTLHours: time.Hour, MaxSize: 128}},
			WeatherGlobal: AdapterConfig{Enabled: false, Timeout: 5 * time.Second, Cache: AdapterCacheConfig{TTLHours: time.Hour, MaxSize: 128}},
			CompanyTW:     AdapterConfig{Enabled: false, Timeout: 5 * time.Second, Cache: AdapterCacheConfig{TTLHours: 24 * time.Hour, MaxSize: 128}},
			CompanyGlobal: AdapterConfig{Enabled: false, Timeout: 5 * time.Second, Cache: AdapterCacheConfig{TTLHours: 24 * time.Hour, MaxSize: 128}},
			EnrichmentStrategy: EnrichParallel,
		},
		ModeDetect: ModeDetectConfig{
			StrictKeywords:    []string{"查證", "核實", "確認", "verify", "fact-check", "正確性"},
			MonitorKeywords:   []string{"追蹤", "持續關注", "監控", "monitor", "track", "watch"},
			AmbiguityPatterns: []string{"政策", "立場", "評價", "看法"},
		},
		TraceRoot: ".reasoncore-trace",
		CacheDir:  ".reasoncore-cache",
	}
}

// LoadFile overlays a YAML configuration file onto the defaults. Only
// fields explicitly present in the file are applied; the base struct is
// decoded into directly since yaml.v3 leaves unspecified fields untouched.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg for the handful of
// settings operators most commonly override out-of-band. The LLM base URL
// and API key are filled from env only when empty; the low/high model,
// max iterations (when it parses to a positive number), verbose, trace root
// and cache dir are overridden by any non-empty env value.
func ApplyEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = os.Getenv("REASONCORE_LLM_BASE_URL")
	}
	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("REASONCORE_LLM_API_KEY")
	}
	if v := os.Getenv("REASONCORE_LLM_LOW_MODEL"); v != "" {
		cfg.LLM.LowModel = v
	}
	if v := os.Getenv("REASONCORE_LLM_HIGH_MODEL"); v != "" {
		cfg.LLM.HighModel = v
	}
	if v := os.Getenv("REASONCORE_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Reasoning.MaxIterations = n
		}
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("REASONCORE_VERBOSE"))); v != "" {
		cfg.Verbose = v == "1" || v == "true" || v == "yes" || v == "on"
	}
	if v := os.Getenv("REASONCORE_TRACE_ROOT"); v != "" {
		cfg.TraceRoot = v
	}
	if v := os.Getenv("REASONCORE_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
}

// Validate performs minimal required-field and range checks, mirroring the
// teacher's ValidateConfig.
func Validate(cfg Config) error {
	if cfg.Reasoning.MaxIterations <= 0 {
		return fmt.Errorf("config: reasoning.max_iterations must be positive")
	}
	if cfg.Context.MaxTotalChars <= 0 {
		return fmt.Errorf("config: context.max_total_chars must be positive")
	}
	if cfg.Context.MinSnippetLength <= 0 || cfg.Context.MinSnippetLength > cfg.Context.MaxSnippetLength {
		return fmt.Errorf("config: context.min_snippet_length must be positive and <= max_snippet_length")
	}
	for _, m := range []domain.Mode{domain.ModeStrict, domain.ModeDiscovery, domain.ModeMonitor} {
		if _, ok := cfg.ModeConfigs[m]; !ok {
			return fmt.Errorf("config: mode_configs missing entry for %q", m)
		}
	}
	return nil
}
