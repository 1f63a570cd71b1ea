package ai

import (
	"context"
	"strings"
	"testing"
)

func TestGetRuntimeKnownProviders(t *testing.T) {
	cases := []struct {
		name string
		cfg  RuntimeConfig
	}{
		{ProviderOpenRouter, RuntimeConfig{APIKey: "k"}},
		{ProviderOllama, RuntimeConfig{Host: "http://127.0.0.1:11434"}},
		{ProviderOpenAI, RuntimeConfig{APIKey: "k", BaseURL: "http://127.0.0.1:9/v1"}},
		{ProviderGemini, RuntimeConfig{APIKey: "k"}},
	}
	for _, tc := range cases {
		rt, err := GetRuntime(tc.name, tc.cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if rt == nil {
			t.Fatalf("%s: nil runtime", tc.name)
		}
	}
}

func TestGetRuntimeUnknownProvider(t *testing.T) {
	_, err := GetRuntime("carrier-pigeon", RuntimeConfig{})
	if err == nil || !strings.Contains(err.Error(), "unknown provider") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), ProviderOllama) {
		t.Fatalf("error should list available providers: %v", err)
	}
}

func TestGeminiRequiresKey(t *testing.T) {
	if _, err := GetRuntime(ProviderGemini, RuntimeConfig{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestDefaultModel(t *testing.T) {
	if DefaultModel(ProviderOpenRouter) != "openai/gpt-4o-mini" {
		t.Fatalf("openrouter default = %q", DefaultModel(ProviderOpenRouter))
	}
	if DefaultModel(ProviderOpenAI) != "gpt-4o-mini" {
		t.Fatalf("openai default = %q", DefaultModel(ProviderOpenAI))
	}
	if DefaultModel("") == "" {
		t.Fatalf("empty provider should fall back to a model")
	}
}

func TestOpenAIRuntimeValidatesRequest(t *testing.T) {
	rt, err := NewOpenAIRuntime("k", "http://127.0.0.1:9/v1")
	if err != nil {
		t.Fatalf("NewOpenAIRuntime: %v", err)
	}
	if _, err := rt.Generate(context.Background(), GenerateRequest{Messages: []Message{{Role: "user", Content: "hi"}}}); err == nil {
		t.Fatalf("expected error for empty model")
	}
	if _, err := rt.Generate(context.Background(), GenerateRequest{Model: "m"}); err == nil {
		t.Fatalf("expected error for empty messages")
	}
}

func TestToLangchainMessagesRoles(t *testing.T) {
	got := toLangchainMessages([]Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "u"},
		{Role: "assistant", Content: "a"},
	})
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	want := []string{"system", "human", "ai"}
	for i, w := range want {
		if string(got[i].Role) != w {
			t.Fatalf("message %d role = %q, want %q", i, got[i].Role, w)
		}
	}
}
