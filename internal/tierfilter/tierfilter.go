// Package tierfilter classifies candidate sources into credibility tiers
// and applies the mode-specific admission policy, generalizing the
// teacher's URL-diversity selection (internal/select.Select) from "domain"
// diversity to "publisher tier" admission.
package tierfilter

import (
	"strings"

	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
)

// Result is the outcome of filtering one batch of candidate sources.
type Result struct {
	Admitted        []domain.TieredSource
	Warnings        []string
	FellBackToMode  domain.Mode
	Fallback        bool
}

// classify resolves a publisher name to its (tier, category) via the
// configured table, defaulting unknown publishers to tier 5/social unless
// the effective mode is strict, in which case the caller drops them.
func classify(cfg config.Config, publisher string) (domain.Tier, domain.SourceCategory, bool) {
	key := strings.TrimSpace(strings.ToLower(publisher))
	for name, rule := range cfg.SourceTiers {
		if strings.TrimSpace(strings.ToLower(name)) == key {
			return rule.Tier, rule.Category, true
		}
	}
	return domain.TierSocial, domain.CategorySocial, false
}

// Filter admits CandidateSources per mode policy. On an empty strict-mode
// result it automatically retries as discovery, tagging every admitted item
// with a fallback_warning. If the set is still empty, it returns a
// NO_VALID_SOURCES SessionError; the caller is responsible for surfacing it.
func Filter(cfg config.Config, candidates []domain.CandidateSource, mode domain.Mode) (Result, error) {
	res := admit(cfg, candidates, mode)
	if len(res.Admitted) > 0 || mode != domain.ModeStrict {
		return res, nil
	}

	fallback := admit(cfg, candidates, domain.ModeDiscovery)
	if len(fallback.Admitted) == 0 {
		return Result{}, domain.NewSessionError(domain.ErrNoValidSources, "no candidate source satisfies any mode's admission policy", nil)
	}
	for i := range fallback.Admitted {
		fallback.Admitted[i].FallbackWarning = "strict mode filtering produced an empty set; fell back to discovery admission"
	}
	fallback.Fallback = true
	fallback.FellBackToMode = domain.ModeDiscovery
	fallback.Warnings = append(fallback.Warnings, "strict→discovery fallback: no source met strict admission, discovery-tier sources were admitted instead")
	return fallback, nil
}

func admit(cfg config.Config, candidates []domain.CandidateSource, mode domain.Mode) Result {
	modeCfg := cfg.ModeConfigs[mode]
	var res Result

	for _, c := range candidates {
		tier, category, known := classify(cfg, c.Publisher)
		if !known && mode == domain.ModeStrict {
			continue
		}
		if modeCfg.MaxTier > 0 && tier > modeCfg.MaxTier {
			continue
		}

		ts := domain.TieredSource{
			CandidateSource: c,
			Tier:            tier,
			SourceCategory:  category,
		}

		warnPrefix := false
		if mode == domain.ModeDiscovery && tier >= domain.TierNews {
			warnPrefix = true
		}

		prefix := domain.TierPrefix(tier, category)
		if warnPrefix {
			prefix += " ⚠"
		}
		ts.TierPrefixedBody = prefix + " " + c.BodyText

		res.Admitted = append(res.Admitted, ts)
	}

	if mode == domain.ModeMonitor {
		res.Warnings = append(res.Warnings, monitorCoverageWarnings(res.Admitted, modeCfg.CompareTiers)...)
	}

	return res
}

// AdmitResolved converts gap-resolver output into TieredSources forced to
// tier 6. Unlike Filter, this never drops an item and never falls back
// between modes: a gap resolution was requested by the Analyst
// specifically, so every item it yields is admitted.
func AdmitResolved(resolved []domain.ResolvedSource) []domain.TieredSource {
	out := make([]domain.TieredSource, 0, len(resolved))
	for _, r := range resolved {
		prefix := domain.TierPrefix(domain.TierEnrichment, r.Category)
		out = append(out, domain.TieredSource{
			CandidateSource:  r.CandidateSource,
			Tier:             domain.TierEnrichment,
			SourceCategory:   r.Category,
			TierPrefixedBody: prefix + " " + r.CandidateSource.BodyText,
		})
	}
	return out
}

// monitorCoverageWarnings flags when monitor mode's cross-tier comparison
// (tier 1 vs tier 5) has nothing on one side to compare.
func monitorCoverageWarnings(admitted []domain.TieredSource, compareTiers []domain.Tier) []string {
	if len(compareTiers) == 0 {
		return nil
	}
	seen := map[domain.Tier]bool{}
	for _, a := range admitted {
		seen[a.Tier] = true
	}
	var warnings []string
	for _, t := range compareTiers {
		if !seen[t] {
			warnings = append(warnings, "monitor mode: no tier source available for cross-tier comparison")
			break
		}
	}
	return warnings
}
