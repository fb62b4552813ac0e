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

// Writer composes the final report, constrained to the citations the
// Analyst actually used. The prompt states the sources_used ⊆
// citations_used contract, but enforcing it is the Orchestrator's job: the
// Hallucination Guard runs after Compose returns, since
// it needs to decide recovery policy, not just reject the call.
type Writer struct {
	Client    llmclient.Client
	Models    llmclient.ModelSelector
	Templates ports.TemplateStore
	Timeout   time.Duration
	Cache     safellm.ResponseCache
}

func (w Writer) Compose(ctx context.Context, sess *domain.ResearchSession, draft domain.AnalystOutput, review domain.CriticOutput) (domain.WriterOutput, error) {
	system, err := w.Templates.GetPromptTemplate("writer.system", nil)
	if err != nil {
		return domain.WriterOutput{}, err
	}

	var user strings.Builder
	fmt.Fprintf(&user, "研究問題：%s\n\n通過審查的草稿：\n%s\n\n", sess.Query, draft.Draft)
	fmt.Fprintf(&user, "允許引用的編號（citations_used）：%v\n", draft.CitationsUsed)
	if len(review.Suggestions) > 0 {
		fmt.Fprintf(&user, "審查建議：%s\n", strings.Join(review.Suggestions, "；"))
	}
	user.WriteString("\n可用來源：\n")
	user.WriteString(sess.FormattedContext)

	return safellm.Call[domain.WriterOutput](ctx, safellm.Request{
		Client:       w.Client,
		Model:        w.Models.Model(llmclient.QualityHigh),
		SystemPrompt: system,
		UserPrompt:   user.String(),
		Temperature:  0.3,
		Timeout:      orDefault(w.Timeout, 45*time.Second),
		Cache:        w.Cache,
	})
}
