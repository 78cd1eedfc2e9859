// Package main provides the entry point for the pixelaudit CLI.
//
// Pixelaudit audits the marketing tracking setup of a web page.
// It fetches the page, resolves and downloads its scripts, detects
// tracking platforms, and reports installation issues.
//
// Usage:
//
//	pixelaudit audit <page-url>
//	pixelaudit audit --json <page-url>
//
// See --help for all available options.
package main

// main is the entry point for pixelaudit.
func main() {
	Execute()
}
