package agents

import (
	"context"
	"testing"
	"time"

	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/llmclient"
)

func TestAnalyst_Draft_Success(t *testing.T) {
	want := domain.AnalystOutput{
		Status:        domain.AnalystDraftReady,
		Draft:         "草稿內容",
		CitationsUsed: []int{1},
	}
	client := &fakeClient{responses: []string{mustJSON(want)}}

	a := Analyst{
		Client:    client,
		Models:    llmclient.ModelSelector{HighModel: "gpt-4o"},
		Templates: fakeTemplates{},
		Timeout:   time.Second,
	}
	sess := &domain.ResearchSession{Query: "測試問題", Mode: domain.ModeDiscovery, FormattedContext: "來源內容"}

	got, err := a.Draft(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != want.Status || got.Draft != want.Draft {
		t.Fatalf("unexpected output: %+v", got)
	}
	if client.calls != 1 {
		t.Fatalf("expected exactly one call, got %d", client.calls)
	}
}

func TestAnalyst_Draft_TemplateError(t *testing.T) {
	a := Analyst{
		Client:    &fakeClient{},
		Models:    llmclient.ModelSelector{HighModel: "gpt-4o"},
		Templates: fakeTemplates{err: context.DeadlineExceeded},
	}
	sess := &domain.ResearchSession{Query: "x"}
	_, err := a.Draft(context.Background(), sess)
	if err == nil {
		t.Fatalf("expected template resolution error to propagate")
	}
}

func TestAnalyst_Draft_IncludesPriorRejectCritique(t *testing.T) {
	want := domain.AnalystOutput{Status: domain.AnalystDraftReady, Draft: "修正後草稿"}
	client := &fakeClient{responses: []string{mustJSON(want)}}

	a := Analyst{
		Client:    client,
		Models:    llmclient.ModelSelector{HighModel: "gpt-4o"},
		Templates: fakeTemplates{},
	}
	sess := &domain.ResearchSession{
		Query:            "測試問題",
		FormattedContext: "來源",
		LastReview: &domain.CriticOutput{
			Status:      domain.CriticReject,
			Critique:    "缺乏引用",
			Suggestions: []string{"補充來源"},
		},
	}
	got, err := a.Draft(context.Background(), sess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Draft != want.Draft {
		t.Fatalf("unexpected output: %+v", got)
	}
}
