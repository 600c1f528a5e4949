package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks field ranges and that the selected providers have the
// credentials they need.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := c.requireKey(c.LLM.Provider, "llm"); err != nil {
		return err
	}
	if err := c.requireKey(c.Embeddings.Provider, "embeddings"); err != nil {
		return err
	}

	if c.Index.Backend == BackendPostgres && strings.TrimSpace(c.PostgresDSN) == "" {
		return fmt.Errorf("postgres index backend selected but POSTGRES_DSN not set")
	}

	for i, g := range c.Persona.Glossary {
		if g.Term == "" {
			return fmt.Errorf("persona glossary entry %d has an empty term", i)
		}
	}

	return nil
}

func (c Config) requireKey(provider, role string) error {
	switch provider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%s: openai provider selected but OPENAI_API_KEY not set", role)
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%s: anthropic provider selected but ANTHROPIC_API_KEY not set", role)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%s: gemini provider selected but GEMINI_API_KEY not set", role)
		}
	}
	return nil
}
