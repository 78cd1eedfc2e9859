// Package script turns raw page HTML into the flat, ordered list of script
// records the detectors operate on, and decides which external scripts are
// worth downloading.
package script
