package gapresolve

import (
	"context"
	"testing"

	"github.com/hyperifyio/reasoncore/internal/domain"
)

func TestLLMKnowledgeAdapter_Search_Success(t *testing.T) {
	a := &LLMKnowledgeAdapter{}
	if !a.IsAvailable() {
		t.Fatalf("expected LLMKnowledgeAdapter to always be available")
	}
	out, err := a.Search(context.Background(), domain.GapResolution{GapType: "歷史背景", LLMAnswer: "這是模型自身的回答。"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].BodyText != "這是模型自身的回答。" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out[0].Category != domain.CategoryLLMKnowledge {
		t.Fatalf("expected CategoryLLMKnowledge, got %v", out[0].Category)
	}
}

func TestLLMKnowledgeAdapter_Search_EmptyAnswer_Errors(t *testing.T) {
	a := &LLMKnowledgeAdapter{}
	_, err := a.Search(context.Background(), domain.GapResolution{GapType: "x", LLMAnswer: "   "})
	if err == nil {
		t.Fatalf("expected an error for a blank llm_answer")
	}
}

func TestUrnSlug(t *testing.T) {
	cases := map[string]string{
		"Historical Context": "historical-context",
		"  ":                 "unspecified",
		"":                   "unspecified",
	}
	for in, want := range cases {
		if got := urnSlug(in); got != want {
			t.Fatalf("urnSlug(%q) = %q, want %q", in, got, want)
		}
	}
}
