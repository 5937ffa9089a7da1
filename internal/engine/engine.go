// Package engine holds the note-facing behavior: the lifecycle operations,
// the summarize-and-tag step, the question-answering pipeline, and the
// confidence decay job. Every external call it makes is paired with a
// deterministic local fallback so a language-model outage never fails a
// user-facing request.
package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/recallkb/recall/internal/config"
	"github.com/recallkb/recall/internal/llm"
	"github.com/recallkb/recall/internal/store"
)

// Engine orchestrates note lifecycle, question answering, and decay.
// LLM may be nil, which activates the local fallbacks everywhere.
type Engine struct {
	Store     store.Store
	LLM       llm.Client
	DecayRate float64

	log    *zap.Logger
	stopCh chan struct{}
}

// New creates a new Engine. A zero decayRate falls back to the default.
func New(st store.Store, client llm.Client, logger *zap.Logger, decayRate float64) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if decayRate == 0 {
		decayRate = config.DefaultDecayRate
	}
	return &Engine{
		Store:     st,
		LLM:       client,
		DecayRate: decayRate,
		log:       logger,
		stopCh:    make(chan struct{}),
	}
}

// StartDecayTimer runs the decay job once at startup and then daily.
// External cron hitting POST /decay remains the primary trigger; the timer
// covers deployments without one.
func (e *Engine) StartDecayTimer() {
	e.runDecayLogged()

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.runDecayLogged()
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	close(e.stopCh)
}
