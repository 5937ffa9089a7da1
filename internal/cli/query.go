package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/recallkb/recall/internal/config"
	"github.com/recallkb/recall/internal/engine"
	"github.com/recallkb/recall/internal/llm"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question against your notes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	st, err := openStore(ctx, cfg.Store.URI)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close(context.Background())

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		fmt.Fprintf(os.Stderr, "note: %v, answering from notes only\n", err)
		llmClient = nil
	}

	eng := engine.New(st, llmClient, nil, cfg.Decay.RatePerDay)
	result, err := eng.Answer(ctx, question)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, src := range result.Sources {
			fmt.Printf("  - %s (%s)\n", src.Title, src.ID)
		}
	}
	return nil
}
