package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recallkb/recall/internal/config"
	"github.com/recallkb/recall/internal/engine"
	"github.com/recallkb/recall/internal/llm"
	"github.com/recallkb/recall/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	// A store that won't connect is fatal; the process must not come up.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	st, err := openStore(ctx, cfg.Store.URI)
	cancel()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close(context.Background())

	// A missing model is not: every code path has a local fallback.
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		logger.Warn("language model not configured, using local fallbacks", zap.Error(err))
		llmClient = nil
	} else {
		logger.Info("language model configured", zap.String("provider", cfg.LLM.Provider))
	}

	eng := engine.New(st, llmClient, logger, cfg.Decay.RatePerDay)
	if cfg.Decay.Timer {
		eng.StartDecayTimer()
		defer eng.Stop()
	}

	srv := server.New(eng, logger, cfg.Decay.CronSecret, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("recall serving", zap.String("addr", addr), zap.String("store", cfg.Store.URI))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	return httpServer.Shutdown(shutdownCtx)
}
