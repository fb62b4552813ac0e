package agents

import (
	"context"
	"testing"

	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/llmclient"
)

func TestCritic_Review_Success(t *testing.T) {
	want := domain.CriticOutput{Status: domain.CriticPass, ModeCompliance: domain.ModeCompliant}
	client := &fakeClient{responses: []string{mustJSON(want)}}

	c := Critic{
		Client:    client,
		Models:    llmclient.ModelSelector{HighModel: "gpt-4o"},
		Templates: fakeTemplates{},
	}
	sess := &domain.ResearchSession{Query: "測試", Mode: domain.ModeStrict, FormattedContext: "來源"}
	draft := domain.AnalystOutput{Draft: "草稿", ReasoningChain: "推理", CitationsUsed: []int{1}}

	got, err := c.Review(context.Background(), sess, draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.CriticPass {
		t.Fatalf("unexpected output: %+v", got)
	}
}

func TestCritic_Review_RetriesOnMalformedJSON(t *testing.T) {
	want := domain.CriticOutput{Status: domain.CriticWarn}
	client := &fakeClient{responses: []string{"not json at all, sorry", mustJSON(want)}}

	c := Critic{
		Client:    client,
		Models:    llmclient.ModelSelector{HighModel: "gpt-4o"},
		Templates: fakeTemplates{},
	}
	sess := &domain.ResearchSession{Query: "測試", FormattedContext: "來源"}
	draft := domain.AnalystOutput{Draft: "草稿"}

	got, err := c.Review(context.Background(), sess, draft)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.CriticWarn {
		t.Fatalf("unexpected output after retry: %+v", got)
	}
	if client.calls != 2 {
		t.Fatalf("expected a retry after the first malformed response, got %d calls", client.calls)
	}
}
