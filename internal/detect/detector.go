package detect

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/pixelaudit/pixelaudit/internal/model"
)

// Input carries everything a detector may scan. The combined texts are
// computed once so the detectors share them instead of re-joining script
// bodies per platform.
//
// Design decision: We pass all data in a single struct rather than
// multiple parameters because:
//  1. Not every detector needs every field
//  2. Adding new inputs doesn't change detector signatures
//  3. Easier to build in tests
type Input struct {
	// Page is the fetched page snapshot.
	Page *model.PageContent

	// Scripts is the resolved script set, external bodies merged in.
	Scripts []*model.ScriptRecord

	// ScanText is the page HTML plus every script body, including
	// event-excluded third-party scripts. Used for install detection.
	ScanText string

	// EventText is the page HTML plus only event-eligible script bodies.
	// Event-adjacent signals (track calls, conversion events) scan this so
	// a third-party vendor bundle cannot fake first-party activity.
	EventText string
}

// NewInput builds a detector input from a fetched page and its scripts.
func NewInput(page *model.PageContent, scripts []*model.ScriptRecord) *Input {
	return &Input{
		Page:      page,
		Scripts:   scripts,
		ScanText:  model.CombinedText(page, scripts),
		EventText: model.EventScanText(page, scripts),
	}
}

// PageHTML returns the raw page HTML, or "" when no page was fetched.
// Duplicate-installation checks count occurrences here only, because a
// snippet repeated across downloaded script files is normal bundling while
// a snippet repeated in the HTML is a double install.
func (in *Input) PageHTML() string {
	if in.Page == nil {
		return ""
	}
	return in.Page.HTML
}

// Detector is one platform's detection pass.
//
// Detectors never fail: a detector that finds nothing returns an empty
// result, and malformed input degrades to fewer signals rather than an
// error. This keeps one broken platform from sinking the whole audit.
type Detector interface {
	// Name returns the detector's name for logging.
	Name() string

	// Detect scans the input and returns the platform result.
	// The returned result is always non-nil.
	Detect(ctx context.Context, in *Input) *model.DetectionResult
}

// Options configures detector behavior.
type Options struct {
	// AllowMixedCaseIDs accepts GA4/GTM identifiers containing lowercase
	// characters. Real measurement IDs are uppercase; lowercase usually
	// means a template placeholder, so mixed case is rejected by default.
	AllowMixedCaseIDs bool

	// ExtraIDDenylist adds identifiers to the built-in false-positive
	// denylists. Matching is exact after case normalization.
	ExtraIDDenylist []string

	// Logger receives per-detector debug output. Nil disables logging.
	Logger *slog.Logger
}

// Results holds every platform's detection outcome. All fields are non-nil
// after Run.
type Results struct {
	GA4            *model.DetectionResult
	GTM            *model.DetectionResult
	GoogleAds      *model.DetectionResult
	MerchantCenter *model.DetectionResult
	MetaPixel      *model.DetectionResult
	Shopify        *model.DetectionResult
}

// Apply copies the results onto the report's platform fields.
func (r *Results) Apply(report *model.AuditReport) {
	report.GA4 = r.GA4
	report.GTM = r.GTM
	report.GoogleAds = r.GoogleAds
	report.MerchantCenter = r.MerchantCenter
	report.MetaPixel = r.MetaPixel
	report.Shopify = r.Shopify
}

// Coordinator runs all platform detectors over one input.
//
// Design decision: We use a coordinator rather than letting callers run
// detectors directly because:
//  1. GA4/GTM and Ads/Merchant Center results come from shared passes
//  2. Detectors run concurrently with each writing its own result slot
//  3. Cross-platform issues (Merchant Center without an Ads tag) need
//     visibility into more than one result
type Coordinator struct {
	options Options

	ga4     *GA4Detector
	ads     *GoogleAdsDetector
	pixel   *MetaPixelDetector
	shopify *ShopifyDetector
}

// NewCoordinator creates a Coordinator with all built-in detectors.
func NewCoordinator(opts ...func(*Options)) *Coordinator {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	return &Coordinator{
		options: options,
		ga4:     NewGA4Detector(options),
		ads:     NewGoogleAdsDetector(options),
		pixel:   NewMetaPixelDetector(options),
		shopify: NewShopifyDetector(options),
	}
}

// WithAllowMixedCaseIDs accepts mixed-case measurement IDs.
func WithAllowMixedCaseIDs(allow bool) func(*Options) {
	return func(o *Options) { o.AllowMixedCaseIDs = allow }
}

// WithExtraIDDenylist adds identifiers to the false-positive denylists.
func WithExtraIDDenylist(ids []string) func(*Options) {
	return func(o *Options) { o.ExtraIDDenylist = ids }
}

// WithLogger sets the debug logger.
func WithLogger(logger *slog.Logger) func(*Options) {
	return func(o *Options) { o.Logger = logger }
}

// Run executes every detector and returns the aggregated results.
// Detectors run concurrently; each one owns exactly one result slot, so no
// synchronization beyond the group wait is needed. A canceled context stops
// scheduling new detectors but never yields nil slots.
func (c *Coordinator) Run(ctx context.Context, in *Input) *Results {
	results := &Results{
		GA4:            emptyResult(),
		GTM:            emptyResult(),
		GoogleAds:      emptyResult(),
		MerchantCenter: emptyResult(),
		MetaPixel:      emptyResult(),
		Shopify:        emptyResult(),
	}
	if in == nil {
		return results
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		results.GA4 = c.ga4.Detect(ctx, in)
		results.GTM = c.ga4.DetectGTM(ctx, in)
		return nil
	})
	g.Go(func() error {
		results.GoogleAds = c.ads.Detect(ctx, in)
		return nil
	})
	g.Go(func() error {
		results.MetaPixel = c.pixel.Detect(ctx, in)
		return nil
	})
	g.Go(func() error {
		results.Shopify = c.shopify.Detect(ctx, in)
		return nil
	})

	g.Wait() //nolint:errcheck // detectors never return errors

	// Merchant Center needs the Ads outcome for the cross-account check.
	results.MerchantCenter = c.ads.DetectMerchantCenter(ctx, in, results.GoogleAds)

	c.log(ctx, results)
	return results
}

// emptyResult returns the nothing-detected result shape shared by every
// platform: non-nil with an empty (not nil) ID list.
func emptyResult() *model.DetectionResult {
	return &model.DetectionResult{IDs: []string{}}
}

func (c *Coordinator) log(ctx context.Context, results *Results) {
	if c.options.Logger == nil {
		return
	}
	c.options.Logger.DebugContext(ctx, "detection complete",
		"ga4", results.GA4.Detected,
		"gtm", results.GTM.Detected,
		"google_ads", results.GoogleAds.Detected,
		"merchant_center", results.MerchantCenter.Detected,
		"meta_pixel", results.MetaPixel.Detected,
		"shopify", results.Shopify.Detected,
	)
}
