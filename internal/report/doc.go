// Package report renders audit reports in multiple output formats.
//
// Supported formats are human-readable text for terminal display, JSON for
// tool integration, and Markdown for documentation and sharing. All writers
// implement the same Writer interface, and MultiWriter fans one report out
// to several destinations.
package report
