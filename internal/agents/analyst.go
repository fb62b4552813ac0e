// Package agents implements the four reasoning roles (Analyst, Critic,
// Writer, Clarification) as thin wrappers over safellm.Call and a prompt
// template: a small struct holding a Client plus whatever fixed inputs the
// call needs, with one method that builds the prompt and delegates
// validation/retry to the shared call path.
package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/reasoncore/internal/domain"
	"github.com/hyperifyio/reasoncore/internal/llmclient"
	"github.com/hyperifyio/reasoncore/internal/ports"
	"github.com/hyperifyio/reasoncore/internal/safellm"
)

// Analyst drafts a cited answer from the current FormattedContext, or
// declares an information gap.
type Analyst struct {
	Client    llmclient.Client
	Models    llmclient.ModelSelector
	Templates ports.TemplateStore
	Timeout   time.Duration
	// Cache, when set, lets identical (model, prompt) calls skip the
	// network; nil disables it.
	Cache safellm.ResponseCache
}

func (a Analyst) Draft(ctx context.Context, sess *domain.ResearchSession) (domain.AnalystOutput, error) {
	system, err := a.Templates.GetPromptTemplate("analyst.system", map[string]string{"mode": string(sess.Mode)})
	if err != nil {
		return domain.AnalystOutput{}, err
	}

	var user strings.Builder
	fmt.Fprintf(&user, "研究問題：%s\n\n", sess.Query)
	if sess.TemporalHint != nil {
		fmt.Fprintf(&user, "時間範圍限制：%s 至 %s\n\n", sess.TemporalHint.Start, sess.TemporalHint.End)
	}
	if len(sess.Warnings) > 0 {
		fmt.Fprintf(&user, "系統提示：%s\n\n", strings.Join(sess.Warnings, "；"))
	}
	if sess.LastReview != nil && sess.LastReview.Status == domain.CriticReject {
		fmt.Fprintf(&user, "上一輪審查意見（REJECT，請修正）：%s\n建議：%s\n\n",
			sess.LastReview.Critique, strings.Join(sess.LastReview.Suggestions, "；"))
	}
	user.WriteString("可用來源：\n")
	user.WriteString(sess.FormattedContext)

	return safellm.Call[domain.AnalystOutput](ctx, safellm.Request{
		Client:       a.Client,
		Model:        a.Models.Model(llmclient.QualityHigh),
		SystemPrompt: system,
		UserPrompt:   user.String(),
		Temperature:  0.2,
		Timeout:      orDefault(a.Timeout, 60*time.Second),
		Cache:        a.Cache,
	})
}
