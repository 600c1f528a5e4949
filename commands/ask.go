package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fabfab/herhaq/chat"
	"github.com/fabfab/herhaq/tone"
)

var (
	askTone  bool
	askLimit int
)

// NewAskCmd creates the one-shot question command.
func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a single question and print the answer",
		Long: `Index the corpus, answer one question and print the answer
followed by the documents it was drawn from.`,
		Example: `  herhaq ask "Can my employer fire me for being pregnant?"
  herhaq ask --tone --limit 4 "What is khula?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().BoolVar(&askTone, "tone", false, "Wrap the answer in the persona voice")
	cmd.Flags().IntVar(&askLimit, "limit", 0, "Number of chunks to retrieve (0 uses index.top_k)")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	a, _, err := bootstrap(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.Engine.Chat(cmd.Context(), question, chat.Config{SimilarityLimit: askLimit})
	if err != nil {
		return err
	}

	printAnswer(cmd.OutOrStdout(), resp, a.Tone, askTone)
	return nil
}

func printAnswer(out io.Writer, resp chat.Response, toneProc tone.Processor, useTone bool) {
	answer := resp.Answer
	if useTone {
		answer = toneProc.Apply(answer)
	}
	fmt.Fprintln(out, answer)

	if len(resp.Sources) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Sources:")
	for i, src := range resp.Sources {
		fmt.Fprintf(out, "  %d. %s (%s) score=%.3f\n", i+1, src.Title, src.Path, src.Score)
	}
}
