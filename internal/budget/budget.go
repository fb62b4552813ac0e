// Package budget estimates prompt token counts against a model's context
// window, as a secondary safety net alongside the Context Builder's character
// budget. Token counting itself is never exact without the model's own
// tokenizer, so everything here is a conservative over-estimate.
package budget

import (
	"math"
	"regexp"
	"strings"
)

const defaultContextTokens = 8192

// charsPerToken is the conservative chars-per-token ratio used for the
// estimate; CJK text tokenizes denser than this, which is exactly why this
// guard exists as a backstop to the character budget rather than a
// replacement for it.
const charsPerToken = 4.0

// EstimateTokens converts a rune-agnostic byte length into an estimated
// token count, rounding up so the estimate never underreports usage.
func EstimateTokens(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / charsPerToken))
}

// EstimatePromptTokens sums the estimated tokens of a system message, a user
// message, and any number of context excerpts.
func EstimatePromptTokens(system, user string, excerpts []string) int {
	total := EstimateTokens(len(system)) + EstimateTokens(len(user))
	for _, ex := range excerpts {
		total += EstimateTokens(len(ex))
	}
	return total
}

// contextWindows holds the models this deployment is actually configured to
// reach via llmclient.ModelSelector; everything else falls through to the
// suffix heuristics below.
var contextWindows = map[string]int{
	"gpt-4o":      128_000,
	"gpt-4o-mini": 128_000,
}

var sizeSuffix = regexp.MustCompile(`(?i)(\d+)(k|m)\b`)

// ModelContextTokens estimates a model's context window from its name,
// falling back to a declared size suffix (e.g. "...-128k") or a conservative
// default when the model isn't recognized at all.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return defaultContextTokens
	}
	if v, ok := contextWindows[name]; ok {
		return v
	}
	if m := sizeSuffix.FindStringSubmatch(name); m != nil {
		n := 0
		for _, r := range m[1] {
			n = n*10 + int(r-'0')
		}
		unit := 1_000
		if strings.EqualFold(m[2], "m") {
			unit = 1_000_000
		}
		return n * unit
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return defaultContextTokens
}

// reservedHeadroomFraction is the share of a model's context window held
// back beyond the caller's own output reservation, absorbing tokenizer and
// chat-framing overhead the char-based estimate can't see.
const reservedHeadroomFraction = 0.05

// minHeadroomTokens is the floor for reservedHeadroomFraction on small
// context windows, where 5% alone would be too thin to matter.
const minHeadroomTokens = 512

func headroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * reservedHeadroomFraction))
	if dyn < minHeadroomTokens {
		return minHeadroomTokens
	}
	return dyn
}

// RemainingContextWithHeadroom returns how many input tokens remain in
// modelName's context window after reservedForOutput and promptTokens, minus
// a conservative headroom. Never negative.
func RemainingContextWithHeadroom(modelName string, reservedForOutput, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - reservedForOutput - headroomTokens(modelName) - promptTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FitsInContext reports whether promptTokens fits within modelName's context
// window once reservedForOutput and the built-in headroom are set aside.
func FitsInContext(modelName string, reservedForOutput, promptTokens int) bool {
	return RemainingContextWithHeadroom(modelName, reservedForOutput, promptTokens) > 0
}
