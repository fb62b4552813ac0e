// Package contextbuilder assembles the FormattedContext text block handed
// to the reasoning agents: a time header, numbered tier-prefixed source
// blocks, scaled toward a character budget by proportional,
// sentence-boundary-aware truncation. At the minimum snippet length the
// result can still exceed the budget; the orchestrator then drops sources.
package contextbuilder

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/reasoncore/internal/config"
	"github.com/hyperifyio/reasoncore/internal/domain"
)

// Build renders every entry currently in sourceMap into FormattedContext,
// shortening snippets toward cfg.Context.MaxTotalChars (never below the
// minimum snippet length, so the result can exceed it). now is injected so the time
// header and weekday are deterministic in tests.
func Build(cfg config.Config, mode domain.Mode, sourceMap *domain.SourceMap, now time.Time) string {
	return BuildFromEntries(cfg, mode, sourceMap.All(), now)
}

// BuildFromEntries is Build generalized to an explicit entry list rather
// than a SourceMap, so the Orchestrator's context-overflow recovery path
// (dropping lowest-ranked sources until the budget holds) can
// rebuild from a trimmed copy without renumbering the session's SourceMap,
// which must never shrink.
func BuildFromEntries(cfg config.Config, mode domain.Mode, entries []domain.IndexedSource, now time.Time) string {
	loc, err := time.LoadLocation(cfg.Context.Timezone)
	if err != nil {
		loc = time.UTC
	}
	local := now.In(loc)

	var prelude strings.Builder
	prelude.WriteString(timeHeader(local))
	prelude.WriteString("\n")
	prelude.WriteString(modePreamble(mode))
	prelude.WriteString("\n\n")

	budget := cfg.Context.MaxTotalChars - prelude.Len()
	if budget < 0 {
		budget = 0
	}

	maxSnippet := cfg.Context.MaxSnippetLength
	if maxSnippet <= 0 {
		maxSnippet = 500
	}
	minSnippet := cfg.Context.MinSnippetLength
	if minSnippet <= 0 || minSnippet > maxSnippet {
		minSnippet = maxSnippet
	}

	snippetLen := computeSnippetLength(entries, budget, maxSnippet, minSnippet)

	var body strings.Builder
	for _, e := range entries {
		body.WriteString(renderBlock(e, snippetLen))
		body.WriteString("\n")
	}

	return prelude.String() + body.String()
}

func timeHeader(local time.Time) string {
	return fmt.Sprintf("現在時間：%s（%s）", local.Format("2006-01-02 15:04"), weekdayLabel(local.Weekday()))
}

func weekdayLabel(d time.Weekday) string {
	labels := map[time.Weekday]string{
		time.Sunday:    "週日",
		time.Monday:    "週一",
		time.Tuesday:   "週二",
		time.Wednesday: "週三",
		time.Thursday:  "週四",
		time.Friday:    "週五",
		time.Saturday:  "週六",
	}
	return labels[d]
}

func modePreamble(mode domain.Mode) string {
	switch mode {
	case domain.ModeStrict:
		return "研究模式：strict（僅採用一、二級來源，不作推測）"
	case domain.ModeMonitor:
		return "研究模式：monitor（比對一級與五級來源的訊號差異）"
	default:
		return "研究模式：discovery（允許三至五級來源，附帶警示）"
	}
}

// computeSnippetLength picks a single snippet length applied uniformly to
// every source: maxSnippet unless the projected total at that length would
// exceed budget, in which case it scales down proportionally to
// budget/projected_total, floored at minSnippet.
func computeSnippetLength(entries []domain.IndexedSource, budget, maxSnippet, minSnippet int) int {
	if len(entries) == 0 {
		return maxSnippet
	}

	projected := 0
	for _, e := range entries {
		projected += blockOverhead(e) + capLen(e.Source.TierPrefixedBody, maxSnippet)
	}
	if projected <= budget || projected == 0 {
		return maxSnippet
	}

	scaled := maxSnippet * budget / projected
	if scaled < minSnippet {
		return minSnippet
	}
	if scaled > maxSnippet {
		return maxSnippet
	}
	return scaled
}

func blockOverhead(e domain.IndexedSource) int {
	// "[i] publisher — title\n" plus a trailing newline separator.
	return len(fmt.Sprintf("[%d] %s — %s\n", e.Index, e.Source.Publisher, e.Source.Title)) + 1
}

func capLen(s string, n int) int {
	if len(s) <= n {
		return len(s)
	}
	return n
}

func renderBlock(e domain.IndexedSource, snippetLen int) string {
	snippet := truncateAtSentence(e.Source.TierPrefixedBody, snippetLen)
	return fmt.Sprintf("[%d] %s — %s\n%s", e.Index, e.Source.Publisher, e.Source.Title, snippet)
}

// truncateAtSentence cuts s to at most maxLen bytes (at a rune boundary) and
// appends "…", then backs up to the last sentence boundary (an ASCII period
// or Chinese 。) in that result, dropping the ellipsis, if the boundary lies
// past its halfway point, to avoid mid-sentence truncation.
func truncateAtSentence(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !isRuneBoundary(s, cut) {
		cut--
	}
	truncated := s[:cut] + "…"

	lastDot := strings.LastIndexByte(truncated, '.')
	lastCJKPeriod := strings.LastIndex(truncated, "。")
	boundary, boundaryLen := lastDot, 1
	if lastCJKPeriod > boundary {
		boundary, boundaryLen = lastCJKPeriod, len("。")
	}
	if boundary > len(truncated)/2 {
		return truncated[:boundary+boundaryLen]
	}
	return truncated
}

func isRuneBoundary(s string, i int) bool {
	if i <= 0 || i >= len(s) {
		return true
	}
	return s[i]&0xC0 != 0x80
}
