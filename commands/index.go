package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewIndexCmd creates the command that builds the index and reports on it.
func NewIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Load and index the corpus, then report what was indexed",
		Long: `Run the startup path without serving: read every document in the
corpus directory, chunk and embed it, and print the resulting counts.
A non-zero exit means the server would refuse to start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := bootstrap(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %s\n", summary(a))
			for _, doc := range a.Corpus.Documents {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s)\n", doc.Path, doc.Format)
			}
			return nil
		},
	}
}
