// Package pipeline orchestrates a tracking audit as an ordered sequence of
// steps: fetch the page, collect and resolve its scripts, download the
// first-party externals, run the platform detectors, extract and validate
// events, and score the result.
//
// The Runner is the high-level entry point for one URL; BatchProcessor runs
// many URLs concurrently with a shared limit.
package pipeline
