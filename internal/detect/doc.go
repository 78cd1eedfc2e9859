// Package detect implements the per-platform tracking detectors.
//
// Each detector scans the combined page and script text for one platform's
// install signals (official loaders, configuration calls, identifiers) and
// returns a model.DetectionResult. Detection is text-level pattern matching
// over static content; detectors do not execute JavaScript and never report
// an identifier that fails the platform's format validator.
package detect
