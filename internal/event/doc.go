// Package event extracts tracking events from page and script text and
// validates them for duplicates and missing required parameters.
//
// Extraction is a cascade per platform: explicit call forms run first, then
// minified forms gated by the platform's standard event catalog. Every
// occurrence of a call becomes one event, so a page that fires the same
// event three times yields three entries; deduplication is the validator's
// job, not the extractor's.
package event
