package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pixelaudit/pixelaudit/internal/config"
	"github.com/pixelaudit/pixelaudit/internal/detect"
	"github.com/pixelaudit/pixelaudit/internal/fetch"
	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/score"
)

// Runner audits a single URL end to end. It owns nothing mutable across
// runs, so one Runner can serve sequential audits; batch runs create one
// per audit through a factory instead.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRunner creates a Runner for the given configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger}
}

// Run audits rawURL and returns the finished report.
//
// The report echoes rawURL verbatim; internal resolution follows redirects
// separately. A deadline that expires after the page fetch yields a partial
// report with Status set to StatusPartial and a nil error: whatever the
// completed steps produced is scored and returned. Only an invalid URL or
// a failed page fetch returns an error.
func (r *Runner) Run(ctx context.Context, rawURL string) (*model.AuditReport, error) {
	parsed, err := fetch.ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	fetcher := r.newFetcher(parsed.Hostname())
	report := model.NewAuditReport(rawURL)

	p := New(WithLogger(r.logger))
	p.AddSteps(
		NewFetchStep(fetcher),
		NewCollectStep(),
		NewFetchScriptsStep(fetcher, r.cfg.MaxScripts, r.cfg.FetchConcurrency),
		NewDetectStep(detect.NewCoordinator(
			detect.WithLogger(r.logger),
			detect.WithAllowMixedCaseIDs(r.cfg.AllowMixedCaseIDs),
			detect.WithExtraIDDenylist(r.cfg.IDDenylist),
		)),
		NewExtractStep(),
		NewValidateStep(r.cfg.IncludeDetails),
		NewScoreStep(),
	)

	if err := p.Execute(ctx, report); err != nil {
		if report.Page != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			report.Status = model.StatusPartial
			r.finalize(report)
			r.logger.Warn("audit finished partially", "url", rawURL, "reason", err)
			return report, nil
		}
		return nil, fmt.Errorf("audit %s: %w", rawURL, err)
	}

	r.logger.Info("audit complete",
		"url", rawURL,
		"score", report.Summary.TrackingHealthScore,
		"issues", report.Summary.IssuesCount,
		"events", report.Summary.EventsCount,
	)
	return report, nil
}

// newFetcher builds the fetcher for one target host, applying any per-site
// overrides from the config file.
func (r *Runner) newFetcher(host string) *fetch.Fetcher {
	opts := []fetch.Option{
		fetch.WithPageTimeout(r.cfg.PageTimeout),
		fetch.WithScriptTimeout(r.cfg.ScriptTimeout),
		fetch.WithLogger(r.logger),
	}
	if r.cfg.SiteConfigs != nil {
		opts = append(opts, fetch.WithSiteConfig(r.cfg.SiteConfigs.GetSiteConfig(host)))
	}
	return fetch.NewFetcher(opts...)
}

// finalize fills the score and summary on a report whose pipeline stopped
// before the scoring step.
func (r *Runner) finalize(report *model.AuditReport) {
	if len(report.Issues) == 0 {
		// Validation never ran; merge whatever the detectors raised.
		report.CollectIssues()
	}
	report.BuildSummary(score.Compute(report))
}
