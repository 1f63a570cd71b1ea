package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiRuntime calls Google's Gemini API through generative-ai-go.
// A client is opened per call; narrative generation is one request per run.
type GeminiRuntime struct {
	apiKey string
}

func NewGeminiRuntime(apiKey string) (*GeminiRuntime, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is missing (set gemini_api_key or REPORTLOOM_GEMINI_API_KEY)")
	}
	return &GeminiRuntime{apiKey: apiKey}, nil
}

func (g *GeminiRuntime) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Model == "" {
		return nil, errors.New("model cannot be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(req.Model)
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	var system []string
	var parts []genai.Part
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	if len(parts) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	if len(system) > 0 {
		model.SystemInstruction = genai.NewUserContent(genai.Text(strings.Join(system, "\n")))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	return &GenerateResponse{Choices: geminiChoices(resp)}, nil
}

func geminiChoices(resp *genai.GenerateContentResponse) []Choice {
	if resp == nil {
		return nil
	}
	var out []Choice
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		out = append(out, Choice{Message: Message{Role: "assistant", Content: b.String()}})
	}
	return out
}
