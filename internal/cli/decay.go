package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/recallkb/recall/internal/config"
	"github.com/recallkb/recall/internal/engine"
)

// decayCmd runs one decay pass directly against the store, for hosts
// that prefer cron over hitting POST /decay.
var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run one confidence decay pass over all notes",
	RunE:  runDecay,
}

func runDecay(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	st, err := openStore(ctx, cfg.Store.URI)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close(context.Background())

	eng := engine.New(st, nil, nil, cfg.Decay.RatePerDay)
	report, err := eng.RunDecay(ctx)
	if err != nil {
		return fmt.Errorf("decay run: %w", err)
	}

	fmt.Printf("processed %d notes, updated %d (rate %.4f/day)\n",
		report.Processed, report.Updated, report.DecayRate)
	return nil
}
