package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

// BatchProcessor audits multiple URLs concurrently.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: We use a separate BatchProcessor rather than adding batch
// functionality to Runner because:
// 1. It keeps the Runner focused on single-audit execution
// 2. It allows different batch strategies (e.g., rate limiting, retries)
// 3. It provides cleaner separation of concerns
type BatchProcessor struct {
	// runnerFactory creates a fresh Runner for each audit, so state never
	// leaks between concurrent audits.
	runnerFactory func() *Runner

	// concurrency is the maximum number of concurrent audits.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent audits.
// Default is 4 if not specified.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(runnerFactory func() *Runner, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		runnerFactory: runnerFactory,
		concurrency:   4,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch audits the given URLs concurrently.
//
// Design decision: We use errgroup.SetLimit rather than a worker pool
// because it's simpler and errgroup handles the concurrency correctly.
// Each URL gets its own goroutine, but only 'concurrency' goroutines run
// simultaneously.
//
// The returned slice matches the input order; a URL whose audit failed
// leaves a nil entry. One failed audit never stops the others, so the error
// return only reflects batch-level cancellation.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.AuditReport, error) {
	bp.logger.Info("starting batch audit",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	reports := make([]*model.AuditReport, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, url := range urls {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			bp.logger.Info("auditing url",
				"url", url,
				"index", i+1,
				"total", len(urls),
			)

			report, err := bp.runnerFactory().Run(ctx, url)
			if err != nil {
				// Record and move on; other audits continue.
				bp.logger.Error("audit failed", "url", url, "error", err)
				return nil
			}
			reports[i] = report
			return nil
		})
	}

	err := g.Wait()

	succeeded := 0
	for _, report := range reports {
		if report != nil {
			succeeded++
		}
	}
	bp.logger.Info("batch audit complete",
		"total_urls", len(urls),
		"succeeded", succeeded,
		"failed", len(urls)-succeeded,
		"duration", time.Since(startTime),
	)
	return reports, err
}
