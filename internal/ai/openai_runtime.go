package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIRuntime adapts a langchaingo OpenAI LLM to the Runtime interface.
type OpenAIRuntime struct {
	llm *openai.LLM
}

// NewOpenAIRuntime builds a runtime against api.openai.com or an
// OpenAI-compatible gateway when baseURL is set.
func NewOpenAIRuntime(apiKey, baseURL string) (*OpenAIRuntime, error) {
	opts := []openai.Option{openai.WithToken(strings.TrimPrefix(apiKey, "Bearer "))}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai runtime: %w", err)
	}
	return &OpenAIRuntime{llm: llm}, nil
}

func (r *OpenAIRuntime) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	callOpts := []llms.CallOption{llms.WithModel(req.Model)}
	if req.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(req.MaxTokens))
	}
	resp, err := r.llm.GenerateContent(ctx, toLangchainMessages(req.Messages), callOpts...)
	if err != nil {
		return nil, fmt.Errorf("openai generate: %w", err)
	}
	out := &GenerateResponse{}
	for _, c := range resp.Choices {
		if c == nil {
			continue
		}
		out.Choices = append(out.Choices, Choice{Message: Message{Role: "assistant", Content: c.Content}})
	}
	return out, nil
}

func toLangchainMessages(msgs []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "assistant":
			role = llms.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}
