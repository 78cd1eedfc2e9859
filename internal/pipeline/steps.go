package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pixelaudit/pixelaudit/internal/detect"
	"github.com/pixelaudit/pixelaudit/internal/event"
	"github.com/pixelaudit/pixelaudit/internal/fetch"
	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/score"
	"github.com/pixelaudit/pixelaudit/internal/script"
)

// FetchStep downloads the target page. It is the only step whose failure
// aborts the audit: without page content there is nothing to analyze.
type FetchStep struct {
	fetcher *fetch.Fetcher
}

// NewFetchStep creates a FetchStep.
func NewFetchStep(fetcher *fetch.Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string { return "fetch_page" }

// Do fetches report.URL and stores the page snapshot on the report.
func (s *FetchStep) Do(ctx context.Context, report *model.AuditReport) error {
	page, err := s.fetcher.FetchPage(ctx, report.URL)
	if err != nil {
		return err
	}
	report.Page = page
	return nil
}

// CollectStep extracts script tags from the page and annotates each with
// its absolute URL and event eligibility.
type CollectStep struct{}

// NewCollectStep creates a CollectStep.
func NewCollectStep() *CollectStep {
	return &CollectStep{}
}

// Name returns the step name.
func (s *CollectStep) Name() string { return "collect_scripts" }

// Do collects and annotates the page's scripts. Annotation resolves against
// the post-redirect URL, not the caller-supplied one, so relative sources
// land on the host that actually served the page.
func (s *CollectStep) Do(_ context.Context, report *model.AuditReport) error {
	records := script.Collect(report.Page)

	resolver, err := script.NewResolver(report.Page.FinalURL)
	if err != nil {
		// Unresolvable final URL: keep the inline scripts, skip externals.
		report.Scripts = records
		return nil
	}
	report.Scripts = resolver.Annotate(records)
	return nil
}

// FetchScriptsStep downloads the bodies of fetch-worthy external scripts
// concurrently. Every download is best-effort; a page whose scripts all
// fail to download still gets a page-only audit.
type FetchScriptsStep struct {
	fetcher     *fetch.Fetcher
	maxScripts  int
	concurrency int
}

// NewFetchScriptsStep creates a FetchScriptsStep.
func NewFetchScriptsStep(fetcher *fetch.Fetcher, maxScripts, concurrency int) *FetchScriptsStep {
	return &FetchScriptsStep{
		fetcher:     fetcher,
		maxScripts:  maxScripts,
		concurrency: concurrency,
	}
}

// Name returns the step name.
func (s *FetchScriptsStep) Name() string { return "fetch_scripts" }

// Do downloads the selected external scripts and merges their bodies back
// into the script records, keyed by absolute URL.
func (s *FetchScriptsStep) Do(ctx context.Context, report *model.AuditReport) error {
	resolver, err := script.NewResolver(report.Page.FinalURL)
	if err != nil {
		return nil
	}

	worthy := resolver.FetchWorthy(report.Scripts, s.maxScripts)
	if len(worthy) == 0 {
		return nil
	}

	contents := make(map[string]string, len(worthy))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, record := range worthy {
		g.Go(func() error {
			body, ok := s.fetcher.FetchScript(ctx, record.AbsoluteSrc)
			if !ok {
				return nil
			}
			mu.Lock()
			contents[record.AbsoluteSrc] = body
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck // script downloads never return errors

	script.MergeFetched(report.Scripts, contents)
	return nil
}

// DetectStep runs every platform detector over the assembled text.
type DetectStep struct {
	coordinator *detect.Coordinator
}

// NewDetectStep creates a DetectStep.
func NewDetectStep(coordinator *detect.Coordinator) *DetectStep {
	return &DetectStep{coordinator: coordinator}
}

// Name returns the step name.
func (s *DetectStep) Name() string { return "detect_platforms" }

// Do runs the detectors and applies their results to the report.
func (s *DetectStep) Do(ctx context.Context, report *model.AuditReport) error {
	in := detect.NewInput(report.Page, report.Scripts)
	s.coordinator.Run(ctx, in).Apply(report)
	return nil
}

// ExtractStep extracts tracking events from the page and its
// event-eligible scripts.
type ExtractStep struct{}

// NewExtractStep creates an ExtractStep.
func NewExtractStep() *ExtractStep {
	return &ExtractStep{}
}

// Name returns the step name.
func (s *ExtractStep) Name() string { return "extract_events" }

// Do extracts events onto the report.
func (s *ExtractStep) Do(_ context.Context, report *model.AuditReport) error {
	report.Events = event.Extract(report.Page, report.Scripts)
	return nil
}

// ValidateStep checks the extracted events for duplicates and missing
// required parameters, merges all issues onto the report, and attaches raw
// details when requested.
type ValidateStep struct {
	includeDetails bool
}

// NewValidateStep creates a ValidateStep.
func NewValidateStep(includeDetails bool) *ValidateStep {
	return &ValidateStep{includeDetails: includeDetails}
}

// Name returns the step name.
func (s *ValidateStep) Name() string { return "validate_events" }

// Do validates events and finalizes the report-level issue list.
func (s *ValidateStep) Do(_ context.Context, report *model.AuditReport) error {
	duplicates := event.FindDuplicates(report.Events)
	findings := event.ValidateParameters(report.Events)

	extra := append(event.DuplicateIssues(duplicates), event.ParamIssues(findings)...)
	report.CollectIssues(extra...)

	if s.includeDetails {
		report.Details = &model.Details{
			FetchedScripts:    fetchedScripts(report.Scripts),
			DuplicateEvents:   duplicates,
			ParameterFindings: findings,
		}
	}
	return nil
}

// fetchedScripts returns the external scripts whose bodies were downloaded.
func fetchedScripts(records []*model.ScriptRecord) []*model.ScriptRecord {
	fetched := make([]*model.ScriptRecord, 0)
	for _, record := range records {
		if record.IsExternal() && record.Content != "" {
			fetched = append(fetched, record)
		}
	}
	return fetched
}

// ScoreStep computes the tracking health score and builds the summary.
// It runs last so the formula sees the final issue list.
type ScoreStep struct{}

// NewScoreStep creates a ScoreStep.
func NewScoreStep() *ScoreStep {
	return &ScoreStep{}
}

// Name returns the step name.
func (s *ScoreStep) Name() string { return "score" }

// Do scores the report and fills the summary.
func (s *ScoreStep) Do(_ context.Context, report *model.AuditReport) error {
	report.BuildSummary(score.Compute(report))
	return nil
}
