// Package main provides the entry point for the pixelaudit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pixelaudit.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pixelaudit",
		Short: "Marketing tracking audit tool for web pages",
		Long: `Pixelaudit audits the marketing tracking setup of a web page.
It detects analytics and advertising platforms (GA4, Google Tag Manager,
Google Ads, Meta Pixel, and more), extracts the tracking events the page
fires, and reports installation issues with a health score.

No browser is involved: the audit works from the served HTML and the
JavaScript it references.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewAuditCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
