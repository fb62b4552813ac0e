package agents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/reasoncore/internal/llmclient"
)

// fakeClient is a scripted llmclient.Client: each call pops the next
// response or error off its queue.
type fakeClient struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return openai.ChatCompletionResponse{}, f.errs[i]
	}
	if i >= len(f.responses) {
		return openai.ChatCompletionResponse{}, errors.New("fakeClient: no more scripted responses")
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.responses[i]}},
		},
	}, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mustJSON: %v", err))
	}
	return string(b)
}

// fakeTemplates returns err when set, otherwise the template registered
// under name, otherwise a placeholder naming the template, so a test that
// doesn't care about prompt wording only needs an empty value.
type fakeTemplates struct {
	templates map[string]string
	err       error
}

func (f fakeTemplates) GetPromptTemplate(name string, vars map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if t, ok := f.templates[name]; ok {
		return t, nil
	}
	return "system prompt for " + name, nil
}
