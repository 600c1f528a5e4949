package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/fabfab/herhaq/mcptool"
)

// NewMCPCmd creates the MCP stdio server command.
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ask tool over MCP on stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing an
"ask" tool backed by the indexed corpus. Logs are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
	}
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, logger, err := bootstrap(ctx, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	server := mcptool.NewServer(a.Engine, a.Tone, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- mcpserver.ServeStdio(server)
	}()

	logger.Info().Str("server", mcptool.ServerName).Msg("mcp server ready on stdio")

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info().Msg("shutting down mcp server")
		return nil
	}
}
