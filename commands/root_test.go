package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fabfab/herhaq/config"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "herhaq" {
		t.Errorf("Expected Use to be 'herhaq', got '%s'", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if cmd.Long == "" {
		t.Error("Expected Long description to be set")
	}

	flags := cmd.PersistentFlags()

	verboseFlag := flags.Lookup("verbose")
	if verboseFlag == nil {
		t.Error("Expected verbose flag to be defined")
	} else if verboseFlag.Shorthand != "v" {
		t.Errorf("Expected verbose shorthand to be 'v', got '%s'", verboseFlag.Shorthand)
	}

	quietFlag := flags.Lookup("quiet")
	if quietFlag == nil {
		t.Error("Expected quiet flag to be defined")
	} else if quietFlag.Shorthand != "q" {
		t.Errorf("Expected quiet shorthand to be 'q', got '%s'", quietFlag.Shorthand)
	}

	configFlag := flags.Lookup("config")
	if configFlag == nil {
		t.Error("Expected config flag to be defined")
	} else if configFlag.DefValue != "config.yaml" {
		t.Errorf("Expected config default to be 'config.yaml', got '%s'", configFlag.DefValue)
	}
}

func TestRootSubcommands(t *testing.T) {
	cmd := NewRootCmd()

	want := []string{"serve", "ask", "index", "mcp", "tui", "version"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub == nil || sub.Name() != name {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestAskFlags(t *testing.T) {
	cmd := NewAskCmd()

	if cmd.Flags().Lookup("tone") == nil {
		t.Error("Expected tone flag to be defined")
	}
	if f := cmd.Flags().Lookup("limit"); f == nil {
		t.Error("Expected limit flag to be defined")
	} else if f.DefValue != "0" {
		t.Errorf("Expected limit default to be '0', got '%s'", f.DefValue)
	}

	if err := cmd.Args(cmd, nil); err == nil {
		t.Error("Expected ask to require a question")
	}
}

func TestIndexFailsOnMissingCorpus(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	t.Setenv("HERHAQ_DATA_DIR", filepath.Join(dir, "missing"))
	t.Setenv("LLM_PROVIDER", config.ProviderOllama)
	t.Setenv("EMBEDDINGS_PROVIDER", config.ProviderOllama)

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "none.yaml"), "--quiet", "index"})

	err := cmd.Execute()
	if err == nil {
		t.Fatal("Expected index to fail without a corpus directory")
	}
	if strings.Contains(out.String(), "Indexed") {
		t.Errorf("Expected no index report, got %q", out.String())
	}
}

func resetFlags(t *testing.T) {
	t.Helper()
	verbose, quiet, configPath = false, false, "config.yaml"
	t.Cleanup(func() {
		verbose, quiet, configPath = false, false, "config.yaml"
	})
}

func TestNewLoggerLevels(t *testing.T) {
	resetFlags(t)

	logger := newLogger(config.LogConfig{Level: "error", Format: "json"}, &bytes.Buffer{})
	if logger.GetLevel() != zerolog.ErrorLevel {
		t.Errorf("Expected error level, got %s", logger.GetLevel())
	}

	logger = newLogger(config.LogConfig{Level: "bogus"}, &bytes.Buffer{})
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Expected info level fallback, got %s", logger.GetLevel())
	}

	verbose = true
	logger = newLogger(config.LogConfig{Level: "error"}, &bytes.Buffer{})
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Errorf("Expected --verbose to force debug, got %s", logger.GetLevel())
	}

	verbose = false
	quiet = true
	logger = newLogger(config.LogConfig{Level: "debug"}, &bytes.Buffer{})
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Errorf("Expected --quiet to force warn, got %s", logger.GetLevel())
	}
}

func TestNewLoggerJSONOutput(t *testing.T) {
	resetFlags(t)
	var buf bytes.Buffer
	logger := newLogger(config.LogConfig{Level: "info", Format: "json"}, &buf)
	logger.Info().Str("k", "v").Msg("hello")

	if !strings.Contains(buf.String(), `"message":"hello"`) || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Errorf("Expected JSON log line, got %q", buf.String())
	}
}
