package gapresolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

// LLMKnowledgeAdapter synthesizes a pseudo-source from the Analyst's own
// stated answer for an LLM_KNOWLEDGE gap resolution: no external call.
// It is always available and never cached — it has no
// upstream to go stale against.
type LLMKnowledgeAdapter struct{}

func (a *LLMKnowledgeAdapter) IsAvailable() bool { return true }

func (a *LLMKnowledgeAdapter) Search(_ context.Context, res domain.GapResolution) ([]NormalizedSource, error) {
	if strings.TrimSpace(res.LLMAnswer) == "" {
		return nil, fmt.Errorf("llm knowledge: empty llm_answer")
	}
	topic := urnSlug(res.GapType)
	return []NormalizedSource{{
		URLOrURN:  "urn:llm:knowledge:" + topic,
		Title:     "模型內部知識：" + res.GapType,
		BodyText:  res.LLMAnswer,
		Publisher: "LLM parametric knowledge",
		Category:  domain.CategoryLLMKnowledge,
	}}, nil
}

func urnSlug(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.ReplaceAll(s, " ", "-")
	if s == "" {
		return "unspecified"
	}
	return s
}
