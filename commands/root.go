package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fabfab/herhaq/config"
)

var (
	verbose    bool
	quiet      bool
	configPath string
)

// NewRootCmd creates the herhaq root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "herhaq",
		Short: "Answer questions about women's rights from a local document collection",
		Long: `HerHaq answers questions about women's rights.

Documents in the corpus directory are split into chunks, embedded and
indexed at startup. Each question is embedded, the closest chunks are
retrieved and a language model answers from them, optionally in the
supportive "behn" persona voice.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the YAML config file")

	cmd.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewIndexCmd(),
		NewMCPCmd(),
		NewTUICmd(),
		NewVersionCmd(),
	)

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// loadConfig reads .env, then the config file and environment overrides.
func loadConfig() (config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger configures the global zerolog logger from config and the
// --verbose/--quiet flags. Logs go to stderr so stdout stays usable.
func newLogger(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.WarnLevel
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	writer := out
	if cfg.Format != "json" {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Caller().Logger()
	log.Logger = logger
	return logger
}
