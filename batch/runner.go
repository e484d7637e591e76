package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-band/logging"
	"github.com/RyanBlaney/sonido-band/scoring"
)

// BandBuilder builds the band mapper once all rows are scored. reference
// holds the overall scores of every scoreable row.
type BandBuilder func(reference []float64) (scoring.BandMapper, error)

// Report is the outcome of a batch run. Results are in manifest order.
type Report struct {
	RunID    string
	Results  []scoring.Result
	Failed   int
	Duration time.Duration
}

// Runner scores manifest rows in parallel.
type Runner struct {
	scorer  *scoring.Scorer
	workers int
	bands   BandBuilder
	logger  logging.Logger
}

// NewRunner creates a runner. workers below 1 means one worker; bands may
// be nil to leave band_estimate missing.
func NewRunner(scorer *scoring.Scorer, workers int, bands BandBuilder) *Runner {
	return &Runner{
		scorer:  scorer,
		workers: max(workers, 1),
		bands:   bands,
		logger:  logging.GetGlobalLogger(),
	}
}

// SetLogger overrides the global logger.
func (r *Runner) SetLogger(l logging.Logger) {
	r.logger = l
}

// Run scores every request. Rows without scoreable input are kept with
// their error; only cancellation or a band fit failure aborts the run.
func (r *Runner) Run(ctx context.Context, reqs []scoring.Request) (*Report, error) {
	runID := uuid.NewString()
	ctx, span := tracer.Start(ctx, "batch run")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.run_id", runID),
		attribute.Int("batch.rows", len(reqs)),
	)

	logger := r.logger.WithFields(logging.Fields{
		"component": "batch_runner",
		"run_id":    runID,
	})
	logger.Info("Starting batch run", logging.Fields{
		"rows":    len(reqs),
		"workers": r.workers,
	})

	start := time.Now()
	results := make([]scoring.Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := r.scorer.Score(gctx, req)
			results[i] = res
			outcome := "scored"
			if err != nil {
				outcome = "failed"
				logger.Warn("Sample not scoreable", logging.Fields{
					"sample": req.ID,
					"error":  err.Error(),
				})
			}
			if rowCounter != nil {
				rowCounter.Add(gctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("batch run %s: %w", runID, err)
	}

	report := &Report{RunID: runID, Results: results}
	for _, res := range results {
		if res.Err != nil {
			report.Failed++
		}
	}

	if err := r.applyBands(results); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("batch run %s: %w", runID, err)
	}

	report.Duration = time.Since(start)
	logger.Info("Batch run finished", logging.Fields{
		"rows":     len(results),
		"failed":   report.Failed,
		"duration": report.Duration.String(),
	})
	return report, nil
}

func (r *Runner) applyBands(results []scoring.Result) error {
	if r.bands == nil {
		return nil
	}
	reference := make([]float64, 0, len(results))
	for _, res := range results {
		if res.Err == nil {
			reference = append(reference, res.Fused.Overall01)
		}
	}
	mapper, err := r.bands(reference)
	if err != nil {
		return fmt.Errorf("failed to build calibrator: %w", err)
	}
	for i := range results {
		if results[i].Err == nil {
			results[i].Fused.Band = scoring.Some(mapper.Band(results[i].Fused.Overall01))
		}
	}
	return nil
}

// Failures returns the rows that could not be scored.
func (rep *Report) Failures() []scoring.Result {
	var out []scoring.Result
	for _, res := range rep.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}
