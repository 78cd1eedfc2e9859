package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pixelaudit/pixelaudit/internal/config"
	"github.com/pixelaudit/pixelaudit/internal/log"
	"github.com/pixelaudit/pixelaudit/internal/model"
	"github.com/pixelaudit/pixelaudit/internal/pipeline"
	"github.com/pixelaudit/pixelaudit/internal/report"
	"github.com/spf13/cobra"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [page-url]",
		Short: "Audit the tracking setup of one or more web pages",
		Long: `Audit fetches a page, resolves and downloads its external scripts, and
analyzes the tracking setup without running a browser:

- Platform detection (GA4, Google Tag Manager, Google Ads, Merchant Center,
  Meta Pixel, Shopify)
- Tracking event extraction (gtag, fbq, dataLayer pushes)
- Installation issues (missing configs, duplicate installs, missing
  required event parameters)
- A 0-100 tracking health score

Examples:
  # Audit a single page
  pixelaudit audit https://shop.example.com

  # Audit multiple pages concurrently
  pixelaudit audit https://a.example.com https://b.example.com

  # Output JSON report with raw fetch details
  pixelaudit audit --json --details https://shop.example.com

  # Use a custom configuration file
  pixelaudit audit -c myconfig.yaml https://shop.example.com

Configuration file (.pixelaudit) example:
  sites:
    shop.example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runAuditCmd,
	}

	// Fetch behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultPageTimeout,
		"Timeout for the primary page fetch")
	cmd.Flags().Duration("script-timeout", config.DefaultScriptTimeout,
		"Timeout for each external script fetch")
	cmd.Flags().Int("concurrency", config.DefaultFetchConcurrency,
		"Maximum number of parallel script fetches per audit")
	cmd.Flags().Int("max-scripts", config.DefaultMaxScripts,
		"Maximum number of external scripts downloaded per audit")

	// Detection tuning flags
	cmd.Flags().Bool("allow-mixed-case-ids", false,
		"Accept lowercase or mixed-case measurement IDs (normalized to uppercase)")
	cmd.Flags().StringSlice("id-denylist", nil,
		"Additional measurement IDs to ignore (e.g. template placeholders)")

	// Batch auditing flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of concurrent audits for multi-URL runs")

	// Report flags
	cmd.Flags().Bool("details", false,
		"Include fetched script inventory and raw findings in the report")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .pixelaudit in current or home directory)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	cfg.Verbose = getVerboseFlag(cmd)
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAudit(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.PageTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.ScriptTimeout, err = cmd.Flags().GetDuration("script-timeout")
	if err != nil {
		return nil, err
	}

	cfg.FetchConcurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.MaxScripts, err = cmd.Flags().GetInt("max-scripts")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.IncludeDetails, err = cmd.Flags().GetBool("details")
	if err != nil {
		return nil, err
	}

	cfg.AllowMixedCaseIDs, err = cmd.Flags().GetBool("allow-mixed-case-ids")
	if err != nil {
		return nil, err
	}

	cfg.IDDenylist, err = cmd.Flags().GetStringSlice("id-denylist")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Get positional arguments (page URLs)
	cfg.Targets = args

	return cfg, nil
}

// runAudit executes the audit.
func runAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more page URLs as arguments)")
	}

	logger.Info("starting audit",
		"targets", cfg.Targets,
		"batchSize", cfg.BatchSize,
		"includeDetails", cfg.IncludeDetails,
	)

	// Use batch processor for parallel auditing if multiple targets
	if len(cfg.Targets) > 1 && cfg.BatchSize > 1 {
		return runBatchAudit(ctx, cfg, logger)
	}

	// Single target or sequential auditing
	return runSequentialAudit(ctx, cfg, logger)
}

// runSequentialAudit audits targets one at a time.
func runSequentialAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	runner := pipeline.NewRunner(cfg, logger)

	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Auditing %s...\n", target)
		startTime := time.Now()

		auditReport, err := runner.Run(ctx, target)
		if err != nil {
			logger.Error("audit failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Audit error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Audit completed in %s\n\n", elapsed.Round(time.Millisecond))

		// Generate and output report
		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchAudit audits multiple targets concurrently using BatchProcessor.
func runBatchAudit(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	fmt.Printf("Starting batch audit of %d targets (concurrency: %d)...\n\n",
		len(cfg.Targets), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Runner {
			return pipeline.NewRunner(cfg, logger)
		},
		pipeline.WithBatchConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	reports, err := bp.ProcessBatch(ctx, cfg.Targets)

	// Output whatever completed, in input order. A failed audit leaves a
	// nil slot; the error has already been logged by the processor.
	for i, auditReport := range reports {
		if auditReport == nil {
			fmt.Fprintf(os.Stderr, "[%d/%d] Audit failed: %s\n", i+1, len(cfg.Targets), cfg.Targets[i])
			continue
		}

		fmt.Printf("[%d/%d] Audit completed: %s\n", i+1, len(cfg.Targets), auditReport.URL)

		if err := outputReport(cfg, auditReport); err != nil {
			logger.Error("report failed", "target", auditReport.URL, "error", err)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch audit completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// outputReport writes the audit report in the configured format.
func outputReport(cfg *config.Config, auditReport *model.AuditReport) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (detailed report with all data)
	if cfg.JSONReport {
		writer := report.NewJSONWriter(output, report.WithPrettyPrint())
		_, err := writer.Write(auditReport)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		writer := report.NewMarkdownWriter(output)
		_, err := writer.Write(auditReport)
		return err
	}

	// Human-readable report (default)
	writer := report.NewTextWriter(output, report.WithVerbose(cfg.Verbose))
	_, err := writer.Write(auditReport)
	return err
}
