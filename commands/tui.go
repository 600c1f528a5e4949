package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fabfab/herhaq/tui"
)

var tuiLogFile string

// NewTUICmd creates the interactive terminal chat command.
func NewTUICmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Chat with the corpus in an interactive terminal UI",
		Long: `Open a full-screen chat. Enter sends a question, ctrl+t toggles the
persona voice, ctrl+c quits. Logs, including the cause of failed answers,
go to the --log-file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Logs on stderr would corrupt the alt screen.
			f, err := tea.LogToFile(tuiLogFile, "herhaq")
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()

			a, logger, err := bootstrap(cmd.Context(), f)
			if err != nil {
				return err
			}
			defer a.Close()

			model := tui.New(a.Engine, a.Tone, summary(a), a.Config.ProviderTimeout, logger)
			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tuiLogFile, "log-file", "herhaq-tui.log", "File that receives logs while the TUI is open")

	return cmd
}
