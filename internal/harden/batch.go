package harden

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/girste/shieldctl/internal/util"
)

// BatchRunner hardens every high-exposure service in sequence. No
// parallelism: services are processed one at a time in enumeration
// order with a visible progress indicator.
type BatchRunner struct {
	engine *Engine
	logger *zap.Logger
	out    io.Writer
}

// NewBatchRunner returns a batch runner over the given engine.
func NewBatchRunner(e *Engine) *BatchRunner {
	return &BatchRunner{
		engine: e,
		logger: util.NewLogger("batch"),
		out:    os.Stdout,
	}
}

// WithOutput redirects progress output. Used by tests.
func (b *BatchRunner) WithOutput(w io.Writer) *BatchRunner {
	b.out = w
	return b
}

// Run analyzes all services and applies hardening to those at or above
// threshold. Excluded services are filtered out before any analysis so
// no scoring work is wasted on them.
func (b *BatchRunner) Run(ctx context.Context, threshold float64, dryRun bool) []Result {
	runID := uuid.NewString()
	b.logger.Info("starting batch hardening",
		zap.String("run_id", runID),
		zap.Float64("threshold", threshold),
		zap.Bool("dry_run", dryRun))

	var candidates []string
	for _, name := range b.engine.Analyzer().ListServices(ctx) {
		if excluded, reason := b.engine.Excluded(name); excluded {
			fmt.Fprintf(b.out, "skipping excluded service %s", name)
			if reason != "" {
				fmt.Fprintf(b.out, " (%s)", reason)
			}
			fmt.Fprintln(b.out)
			continue
		}
		candidates = append(candidates, name)
	}

	var results []Result
	for i, name := range candidates {
		fmt.Fprintf(b.out, "[%d/%d] %s\n", i+1, len(candidates), name)

		analysis := b.engine.Analyzer().Analyze(ctx, name)
		if analysis == nil {
			b.logger.Warn("analysis failed, skipping", zap.String("service", name))
			continue
		}
		if analysis.ExposureScore == nil || *analysis.ExposureScore < threshold {
			continue
		}

		result := b.engine.Apply(ctx, name, "", dryRun)
		results = append(results, result)

		if result.Success {
			improvement := ""
			if result.PreviousScore != nil && result.NewScore != nil {
				improvement = fmt.Sprintf(" (%.1f -> %.1f)", *result.PreviousScore, *result.NewScore)
			}
			fmt.Fprintf(b.out, "  hardened %s with %s%s\n", name, result.ProfileApplied, improvement)
			b.logger.Info("service hardened",
				zap.String("run_id", runID),
				zap.String("service", name),
				zap.String("profile", result.ProfileApplied))
		} else {
			fmt.Fprintf(b.out, "  failed %s: %s\n", name, result.Error)
			b.logger.Warn("hardening failed",
				zap.String("run_id", runID),
				zap.String("service", name),
				zap.String("error", result.Error),
				zap.Bool("rollback", result.RollbackPerformed))
		}
	}

	b.logger.Info("batch hardening finished",
		zap.String("run_id", runID),
		zap.Int("hardened", countSuccesses(results)),
		zap.Int("attempted", len(results)))
	return results
}

func countSuccesses(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Success {
			n++
		}
	}
	return n
}
