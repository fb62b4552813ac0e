package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/llmclient"
)

func TestWriter_Compose_Success(t *testing.T) {
	want := domain.WriterOutput{
		FinalReport:     "最終報告內文[1]",
		SourcesUsed:     []int{1},
		ConfidenceLevel: domain.ConfidenceHigh,
	}
	client := &fakeClient{responses: []string{mustJSON(want)}}

	w := Writer{
		Client:    client,
		Models:    llmclient.ModelSelector{HighModel: "gpt-4o"},
		Templates: fakeTemplates{},
	}
	sess := &domain.ResearchSession{Query: "測試", FormattedContext: "來源"}
	draft := domain.AnalystOutput{Draft: "草稿", CitationsUsed: []int{1}}
	review := domain.CriticOutput{Suggestions: []string{"加強結論"}}

	got, err := w.Compose(context.Background(), sess, draft, review)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FinalReport != want.FinalReport || got.ConfidenceLevel != domain.ConfidenceHigh {
		t.Fatalf("unexpected output: %+v", got)
	}
}

func TestWriter_Compose_TemplateMissing(t *testing.T) {
	w := Writer{
		Client:    &fakeClient{},
		Models:    llmclient.ModelSelector{HighModel: "gpt-4o"},
		Templates: fakeTemplates{err: errors.New("template not found")},
	}
	sess := &domain.ResearchSession{Query: "x"}
	_, err := w.Compose(context.Background(), sess, domain.AnalystOutput{}, domain.CriticOutput{})
	if err == nil {
		t.Fatalf("expected template error to propagate")
	}
}
