package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fabfab/herhaq/api"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the HTTP server command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Load and index the corpus, then serve the chat API.

Routes:
  GET  /             question form
  POST /api/chat     plain answer
  POST /chat         answer in the persona voice
  GET  /health       liveness check
  GET  /openapi.yaml API description`,
		Example: `  herhaq serve
  PORT=8080 herhaq serve --config prod.yaml`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, logger, err := bootstrap(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := api.New(a.Config.Server, a.Engine, a.Tone, logger).HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
