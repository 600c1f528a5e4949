package llm

import (
	"context"
	"testing"

	"github.com/fabfab/herhaq/config"
)

func TestNewClientDefaults(t *testing.T) {
	cfg := config.Config{
		LLM: config.LLMConfig{
			Provider: config.ProviderOllama,
			Model:    "llama3.1:8b",
		},
		OllamaHost: "http://localhost:11434",
	}

	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("expected llm client, got error: %v", err)
	}

	if client == nil {
		t.Fatal("expected non-nil client")
	}
}

func TestNewClientRequiresAPIKeys(t *testing.T) {
	for _, provider := range []string{config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderGemini} {
		cfg := config.Config{LLM: config.LLMConfig{Provider: provider, Model: "m"}}
		if _, err := NewClient(context.Background(), cfg); err == nil {
			t.Fatalf("expected error for %s without an API key", provider)
		}
	}
}

func TestNewClientWithKeys(t *testing.T) {
	cfg := config.Config{
		LLM:             config.LLMConfig{Provider: config.ProviderAnthropic, Model: "claude-3-5-haiku-latest"},
		AnthropicAPIKey: "test-key",
	}
	if _, err := NewClient(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg = config.Config{
		LLM:          config.LLMConfig{Provider: config.ProviderOpenAI, Model: "gpt-4o-mini"},
		OpenAIAPIKey: "test-key",
	}
	if _, err := NewClient(context.Background(), cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	cfg := config.Config{LLM: config.LLMConfig{Provider: "cohere"}}
	if _, err := NewClient(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestOpenAITemperatureKeepsZero(t *testing.T) {
	if got := openAITemperature(0); got <= 0 {
		t.Fatalf("expected a positive stand-in for zero, got %v", got)
	}
	if got := openAITemperature(0.3); got != float32(0.3) {
		t.Fatalf("expected 0.3, got %v", got)
	}
}

func TestSplitSystem(t *testing.T) {
	system, turns := splitSystem([]Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "question"},
		{Role: RoleSystem, Content: "rules"},
		{Role: RoleAssistant, Content: "answer"},
	})

	if system != "persona\n\nrules" {
		t.Fatalf("unexpected system text %q", system)
	}
	if len(turns) != 2 || turns[0].Role != RoleUser || turns[1].Role != RoleAssistant {
		t.Fatalf("unexpected turns %#v", turns)
	}
}

func TestToLangchainMessages(t *testing.T) {
	converted := toLangchainMessages([]Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleAssistant, Content: "a"},
	})
	if len(converted) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(converted))
	}
	if converted[0].Role != "system" || converted[1].Role != "human" || converted[2].Role != "ai" {
		t.Fatalf("unexpected roles: %v %v %v", converted[0].Role, converted[1].Role, converted[2].Role)
	}
}
