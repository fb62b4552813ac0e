package agents

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/llmclient"
	"github.com/hyperifyio/reasoncore/internal/ports"
	"github.com/hyperifyio/reasoncore/internal/safellm"
)

// Clarification proposes disambiguation options before research begins,
// LLM-first with a deterministic fallback if the model call fails or a
// prompt template can't be resolved.
type Clarification struct {
	Client    llmclient.Client
	Models    llmclient.ModelSelector
	Templates ports.TemplateStore
	Timeout   time.Duration
	Cache     safellm.ResponseCache
}

func (c Clarification) Ask(ctx context.Context, query string, hint ports.TimeRangeExtraction) (domain.ClarificationRequest, error) {
	system, err := c.Templates.GetPromptTemplate("clarification.system", nil)
	if err != nil {
		return deterministicClarification(query), nil
	}

	user := fmt.Sprintf("問題：%s\n時間推斷信心：%.2f\n", query, hint.Confidence)

	out, err := safellm.Call[domain.ClarificationRequest](ctx, safellm.Request{
		Client:       c.Client,
		Model:        c.Models.Model(llmclient.QualityLow),
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  0.2,
		Timeout:      orDefault(c.Timeout, 20*time.Second),
		Cache:        c.Cache,
	})
	if err != nil {
		return deterministicClarification(query), nil
	}
	return out, nil
}

// deterministicClarification is the no-LLM fallback: a single time-scope
// question with a comprehensive "all time" option.
func deterministicClarification(query string) domain.ClarificationRequest {
	return domain.ClarificationRequest{
		Instruction: "請選擇本次研究要涵蓋的時間範圍：",
		SubmitLabel: "開始研究",
		Questions: []domain.ClarificationQuestion{
			{
				QuestionID:        "time_scope",
				Question:          fmt.Sprintf("「%s」應聚焦於哪個時間範圍？", query),
				ClarificationType: domain.ClarifyTime,
				Required:          true,
				Options: []domain.ClarificationOption{
					{ID: "recent", Label: "最近一年", QueryModifier: "最近一年"},
					{ID: "all", Label: "所有時間（不限定）", QueryModifier: "", IsComprehensive: true},
				},
			},
		},
	}
}
