// Package llmclient adapts an OpenAI-compatible chat completion API to the
// narrow interface the reasoning core needs. Any OpenAI-compatible or local
// backend can be substituted by implementing Client.
package llmclient

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface the core requires to call a chat model. It
// mirrors the CreateChatCompletion method used throughout the codebase so
// that a fake can be substituted in tests without pulling in HTTP.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// QualityLevel selects a coarse quality/cost tier for a call.
type QualityLevel string

const (
	QualityLow  QualityLevel = "low"
	QualityHigh QualityLevel = "high"
)

// OpenAIProvider adapts *openai.Client to the Client interface.
type OpenAIProvider struct {
	Inner *openai.Client
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

// ModelSelector maps a quality level onto a concrete model name. Callers
// supply the low/high model names once at construction (from config); this
// keeps the mapping out of agent code.
type ModelSelector struct {
	LowModel  string
	HighModel string
}

func (s ModelSelector) Model(level QualityLevel) string {
	if level == QualityHigh && s.HighModel != "" {
		return s.HighModel
	}
	if s.LowModel != "" {
		return s.LowModel
	}
	return s.HighModel
}
