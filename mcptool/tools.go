// Package mcptool exposes the query engine to MCP clients over stdio.
package mcptool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/chat"
	"github.com/fabfab/herhaq/tone"
)

const (
	ServerName    = "HerHaq"
	ServerVersion = "1.0.0"
)

// Engine is the part of the query engine the tools call.
type Engine interface {
	Chat(ctx context.Context, question string, cfg chat.Config) (chat.Response, error)
}

type Handlers struct {
	engine Engine
	tone   tone.Processor
	logger zerolog.Logger
}

// NewServer builds an MCP server with every HerHaq tool registered.
func NewServer(engine Engine, toneProc tone.Processor, logger zerolog.Logger) *mcpserver.MCPServer {
	server := mcpserver.NewMCPServer(ServerName, ServerVersion)
	RegisterTools(server, engine, toneProc, logger)
	return server
}

func RegisterTools(server *mcpserver.MCPServer, engine Engine, toneProc tone.Processor, logger zerolog.Logger) *Handlers {
	handlers := &Handlers{engine: engine, tone: toneProc, logger: logger}

	server.AddTool(mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about women's rights using the HerHaq document collection.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
				"tone": map[string]interface{}{
					"type":        "boolean",
					"description": "Wrap the answer in the supportive persona voice (default: false)",
					"default":     false,
				},
				"limit": map[string]interface{}{
					"type":        "number",
					"description": "Number of passages to retrieve (default: configured top_k)",
				},
			},
			Required: []string{"query"},
		},
	}, handlers.Ask)

	return handlers
}

// Ask handles the ask tool.
func (h *Handlers) Ask(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query argument is required and must be a string"), nil
	}

	resp, err := h.engine.Chat(ctx, query, chat.Config{SimilarityLimit: request.GetInt("limit", 0)})
	if err != nil {
		if errors.Is(err, chat.ErrEmptyQuery) {
			return mcp.NewToolResultError("query must not be empty"), nil
		}
		h.logger.Error().Err(err).Msg("mcp ask failed")
		return mcp.NewToolResultError("Sorry behn, kuch masla ho gaya. Please try again."), nil
	}

	answer := resp.Answer
	if request.GetBool("tone", false) {
		answer = h.tone.Apply(answer)
	}

	return mcp.NewToolResultText(formatAnswer(answer, resp.Sources)), nil
}

func formatAnswer(answer string, sources []chat.Source) string {
	if len(sources) == 0 {
		return answer
	}
	var sb strings.Builder
	sb.WriteString(answer)
	sb.WriteString("\n\nSources:\n")
	for i, src := range sources {
		sb.WriteString(fmt.Sprintf("%d. %s (%s)\n", i+1, src.Title, src.Path))
	}
	return strings.TrimRight(sb.String(), "\n")
}
