package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/app"
)

// bootstrap loads config, builds the logger and initializes the app.
// logOut overrides where logs go; nil means stderr.
func bootstrap(ctx context.Context, logOut io.Writer) (*app.App, zerolog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	logger := newLogger(cfg.Log, logOut)
	a, err := app.Initialize(ctx, cfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return a, logger, nil
}

func summary(a *app.App) string {
	return fmt.Sprintf("%d documents, %d chunks (%s index, %s)",
		len(a.Corpus.Documents), a.Index.Len(), a.Config.Index.Backend, a.Config.LLM.Provider)
}
