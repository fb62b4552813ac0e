// Package citecheck implements the Hallucination Guard's citation-range
// invariants: scanning a report for [n] markers, reconciling writer output
// against the analyst's declared citations, and enforcing tier compliance.
package citecheck

import (
	"fmt"
	"regexp"
	"sort"

	"golang.org/x/text/width"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

var citeRe = regexp.MustCompile(`\[(\d+)\]`)

// Citations is the result of scanning a report body for [n] markers against
// a known source count.
type Citations struct {
	InRange           []int
	OutOfRange        []int
	MissingReferences bool
}

// ScanMarkdown finds every [n] marker in markdown and classifies it against
// numSources.
func ScanMarkdown(markdown string, numSources int) Citations {
	// A Chinese-fluent model occasionally emits full-width brackets and
	// digits (［１］) instead of ASCII ones; fold to narrow form first so
	// those markers aren't silently missed.
	matches := citeRe.FindAllStringSubmatch(width.Narrow.String(markdown), -1)
	seen := map[int]struct{}{}
	var inRange, outOfRange []int
	for _, m := range matches {
		if len(m) != 2 {
			continue
		}
		n := 0
		for _, ch := range m[1] {
			n = n*10 + int(ch-'0')
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if n >= 1 && n <= numSources {
			inRange = append(inRange, n)
		} else {
			outOfRange = append(outOfRange, n)
		}
	}
	sort.Ints(inRange)
	sort.Ints(outOfRange)
	return Citations{
		InRange:           inRange,
		OutOfRange:        outOfRange,
		MissingReferences: numSources == 0 && len(matches) > 0,
	}
}

// ReconcileSourcesUsed is the Hallucination Guard as the Orchestrator runs
// it: compute extra = sources_used \ citations_used; if
// non-empty, replace sources_used with the intersection, force
// confidence_level to Low, and report that a violation occurred so the
// caller can append a session warning. This is a recovery, not a rejection
// — the report is still emitted.
func ReconcileSourcesUsed(out *domain.WriterOutput, citationsUsed []int) bool {
	allowed := make(map[int]bool, len(citationsUsed))
	for _, i := range citationsUsed {
		allowed[i] = true
	}
	kept := make([]int, 0, len(out.SourcesUsed))
	violated := false
	for _, i := range out.SourcesUsed {
		if allowed[i] {
			kept = append(kept, i)
		} else {
			violated = true
		}
	}
	if violated {
		out.SourcesUsed = kept
		out.ConfidenceLevel = domain.ConfidenceLow
	}
	return violated
}

// EnforceSubset is a pure check of the same invariant (no mutation), used by
// tests and by callers that want an error value instead of in-place repair.
func EnforceSubset(sourcesUsed, citationsUsed []int) error {
	allowed := make(map[int]bool, len(citationsUsed))
	for _, i := range citationsUsed {
		allowed[i] = true
	}
	for _, i := range sourcesUsed {
		if !allowed[i] {
			return domain.NewSessionError(domain.ErrHallucinationViolation,
				fmt.Sprintf("final report cites source %d which the analyst never used", i), nil)
		}
	}
	return nil
}

// EnforceWithinSourceMap checks that every index the Analyst cited exists
// in the current SourceMap.
func EnforceWithinSourceMap(citationsUsed []int, sourceMap *domain.SourceMap) error {
	if err := sourceMap.ContainsAll(citationsUsed); err != nil {
		return domain.NewSessionError(domain.ErrHallucinationViolation, err.Error(), err)
	}
	return nil
}

// EnforceTierCompliance is property 4: in strict mode without a filter
// fallback, no cited source may exceed tier 2.
func EnforceTierCompliance(citationsUsed []int, sourceMap *domain.SourceMap, mode domain.Mode, maxTier domain.Tier) []string {
	if mode != domain.ModeStrict || maxTier <= 0 {
		return nil
	}
	var violations []string
	for _, i := range citationsUsed {
		src, ok := sourceMap.Get(i)
		if !ok || src.FallbackWarning != "" {
			continue
		}
		if src.Tier > maxTier {
			violations = append(violations, fmt.Sprintf("citation [%d] is tier %d, exceeding strict mode's tier %d ceiling", i, src.Tier, maxTier))
		}
	}
	return violations
}
