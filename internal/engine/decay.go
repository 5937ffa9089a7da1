package engine

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/recallkb/recall/internal/store"
)

// confidenceFloor is the lowest confidence decay can reach. Notes are never
// fully forgotten.
const confidenceFloor = 0.1

// DecayReport summarizes one decay run.
type DecayReport struct {
	Processed int     `json:"processed"`
	Updated   int     `json:"updated"`
	DecayRate float64 `json:"decayRate"`
}

// RunDecay lowers each note's confidence by elapsed days since its last
// touch times the configured rate, floored at 0.1 and rounded to four
// decimals. Notes whose recomputed confidence would not strictly decrease
// are skipped, which also makes an immediate re-run a no-op. All qualifying
// notes go out in one batched write.
func (e *Engine) RunDecay(ctx context.Context) (DecayReport, error) {
	report := DecayReport{DecayRate: e.DecayRate}

	notes, err := e.Store.All(ctx)
	if err != nil {
		return report, err
	}
	report.Processed = len(notes)

	now := time.Now().UTC()
	var updates []store.ConfidenceUpdate
	for _, n := range notes {
		ref := n.CreatedAt
		if n.LastAccessedAt != nil {
			ref = *n.LastAccessedAt
		} else if !n.UpdatedAt.IsZero() {
			ref = n.UpdatedAt
		}

		elapsedDays := now.Sub(ref).Hours() / 24
		if elapsedDays <= 0 {
			continue
		}

		current := n.Confidence
		if current == 0 {
			current = 0.9
		}

		next := math.Max(confidenceFloor, round4(current-elapsedDays*e.DecayRate))
		if next >= current {
			continue
		}

		updates = append(updates, store.ConfidenceUpdate{ID: n.ID, Confidence: next})
	}

	if len(updates) > 0 {
		if _, err := e.Store.BulkSetConfidence(ctx, updates); err != nil {
			return report, err
		}
	}
	report.Updated = len(updates)
	return report, nil
}

func (e *Engine) runDecayLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := e.RunDecay(ctx)
	if err != nil {
		e.log.Error("decay run failed", zap.Error(err))
		return
	}
	if report.Updated > 0 {
		e.log.Info("decay run",
			zap.Int("processed", report.Processed),
			zap.Int("updated", report.Updated),
			zap.Float64("rate", report.DecayRate))
	}
}

// round4 rounds to four decimal places.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
