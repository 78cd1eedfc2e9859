// Package model defines the data structures shared across the audit engine:
// page content, script records, detection results, issues, events, and the
// final audit report. All types here are created fresh per audit invocation
// and are read-only once the report is assembled.
package model
