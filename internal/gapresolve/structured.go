package gapresolve

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/gapresolve/cache"
)

// StructuredHandler executes one structured-API call (stock quote, weather
// report, company registry lookup) given its normalized api_params and
// returns zero or more normalized sources.
type StructuredHandler func(ctx context.Context, params map[string]string) ([]NormalizedSource, error)

// StructuredDefinition registers one feature-flagged structured-API
// channel: the GapResolutionChannel it answers, its config, and its
// handler.
type StructuredDefinition struct {
	Channel domain.GapResolutionChannel
	Cfg     config.AdapterConfig
	Handler StructuredHandler
}

var channelNameRe = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// StructuredRegistry holds the configured structured-API adapters, enabled
// or not, keyed by channel, with a register-then-look-up shape; Adapter
// hands out only the enabled ones.
type StructuredRegistry struct {
	byChannel map[domain.GapResolutionChannel]*structuredAdapter
}

// NewStructuredRegistry builds a registry from the configured definitions,
// silently skipping any definition without a Handler or whose name fails
// the (loose) validation every registered channel must satisfy. Disabled
// channels are registered too.
func NewStructuredRegistry(defs []StructuredDefinition) *StructuredRegistry {
	r := &StructuredRegistry{byChannel: map[domain.GapResolutionChannel]*structuredAdapter{}}
	for _, d := range defs {
		if !channelNameRe.MatchString(string(d.Channel)) || d.Handler == nil {
			continue
		}
		r.byChannel[d.Channel] = &structuredAdapter{
			def:   d,
			cache: cache.New[[]NormalizedSource](d.Cfg.Cache.MaxSize, d.Cfg.Cache.TTLHours),
		}
	}
	return r
}

// Adapter returns the adapter registered for channel, if enabled.
func (r *StructuredRegistry) Adapter(channel domain.GapResolutionChannel) (Adapter, bool) {
	a, ok := r.byChannel[channel]
	if !ok || !a.def.Cfg.Enabled {
		return nil, false
	}
	return a, true
}

// Channels returns every registered channel name, sorted, for diagnostics.
func (r *StructuredRegistry) Channels() []string {
	names := make([]string, 0, len(r.byChannel))
	for c := range r.byChannel {
		names = append(names, string(c))
	}
	sort.Strings(names)
	return names
}

type structuredAdapter struct {
	def   StructuredDefinition
	cache *cache.Cache[[]NormalizedSource]
}

func (a *structuredAdapter) IsAvailable() bool { return a.def.Cfg.Enabled }

func (a *structuredAdapter) Search(ctx context.Context, res domain.GapResolution) ([]NormalizedSource, error) {
	if len(res.APIParams) == 0 {
		return nil, fmt.Errorf("structured adapter %s: empty api_params", a.def.Channel)
	}
	key := cache.Key(string(a.def.Channel), paramsKey(res.APIParams))
	if cached, ok := a.cache.Get(key); ok {
		return cached, nil
	}

	results, fresh := withTimeoutStaleFallback(ctx, a.def.Cfg.Timeout, a.cache, key, func(ctx context.Context) ([]NormalizedSource, error) {
		return a.def.Handler(ctx, res.APIParams)
	})
	if fresh {
		a.cache.Set(key, results)
	}
	return results, nil
}

func paramsKey(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += k + "=" + params[k] + "&"
	}
	return s
}
