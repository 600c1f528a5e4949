package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

type ollamaClient struct {
	llm         *ollama.LLM
	maxTokens   int
	temperature float64
}

func NewOllamaClient(opts Options) (Client, error) {
	host := strings.TrimRight(opts.OllamaHost, "/")
	if host == "" {
		host = "http://localhost:11434"
	}

	model, err := ollama.New(
		ollama.WithServerURL(host),
		ollama.WithModel(opts.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}

	return &ollamaClient{llm: model, maxTokens: opts.MaxTokens, temperature: opts.Temperature}, nil
}

func (c *ollamaClient) Generate(ctx context.Context, messages []Message) (string, error) {
	callOpts := []llms.CallOption{llms.WithTemperature(c.temperature)}
	if c.maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(c.maxTokens))
	}

	resp, err := c.llm.GenerateContent(ctx, toLangchainMessages(messages), callOpts...)
	if err != nil {
		return "", fmt.Errorf("call ollama chat API: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("ollama chat returned no choices")
	}

	return resp.Choices[0].Content, nil
}

func toLangchainMessages(messages []Message) []llms.MessageContent {
	converted := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		role := llms.ChatMessageTypeHuman
		switch msg.Role {
		case RoleSystem:
			role = llms.ChatMessageTypeSystem
		case RoleAssistant:
			role = llms.ChatMessageTypeAI
		}
		converted[i] = llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextContent{Text: msg.Content}},
		}
	}
	return converted
}
