// Package modedetect resolves a research mode and flags query ambiguity
// using configured keyword lists, with a conservative, deterministic
// scanning pass over the query text.
package modedetect

import (
	"strings"

	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
)

// Resolve picks a Mode following the precedence explicit > heuristic >
// default: an explicit caller-supplied mode always wins; otherwise the
// first keyword list (strict, then monitor) that matches the query wins;
// otherwise discovery.
func Resolve(cfg config.Config, explicit domain.Mode, query string) domain.Mode {
	if explicit != "" {
		return explicit
	}
	q := strings.ToLower(query)
	for _, kw := range cfg.ModeDetect.StrictKeywords {
		if containsFold(q, kw) {
			return domain.ModeStrict
		}
	}
	for _, kw := range cfg.ModeDetect.MonitorKeywords {
		if containsFold(q, kw) {
			return domain.ModeMonitor
		}
	}
	return domain.ModeDiscovery
}

// IsAmbiguous reports whether the query matches a configured ambiguity
// pattern, which by itself is only a signal: the orchestrator also
// considers temporal-extractor confidence before triggering clarification.
func IsAmbiguous(cfg config.Config, query string) bool {
	q := strings.ToLower(query)
	for _, pat := range cfg.ModeDetect.AmbiguityPatterns {
		if containsFold(q, pat) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	n := strings.ToLower(strings.TrimSpace(needle))
	if n == "" {
		return false
	}
	return strings.Contains(haystack, n)
}
