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

// Critic audits an Analyst draft for logical gaps, tier compliance, and
// evidence use.
type Critic struct {
	Client    llmclient.Client
	Models    llmclient.ModelSelector
	Templates ports.TemplateStore
	Timeout   time.Duration
	Cache     safellm.ResponseCache
}

func (c Critic) Review(ctx context.Context, sess *domain.ResearchSession, draft domain.AnalystOutput) (domain.CriticOutput, error) {
	system, err := c.Templates.GetPromptTemplate("critic.system", map[string]string{"mode": string(sess.Mode)})
	if err != nil {
		return domain.CriticOutput{}, err
	}

	var user strings.Builder
	fmt.Fprintf(&user, "研究問題：%s\n\n草稿：\n%s\n\n", sess.Query, draft.Draft)
	fmt.Fprintf(&user, "推理鏈：%s\n引用編號：%v\n\n", draft.ReasoningChain, draft.CitationsUsed)
	user.WriteString("可用來源：\n")
	user.WriteString(sess.FormattedContext)

	return safellm.Call[domain.CriticOutput](ctx, safellm.Request{
		Client:       c.Client,
		Model:        c.Models.Model(llmclient.QualityHigh),
		SystemPrompt: system,
		UserPrompt:   user.String(),
		Temperature:  0.1,
		Timeout:      orDefault(c.Timeout, 30*time.Second),
		Cache:        c.Cache,
	})
}
