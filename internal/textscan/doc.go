// Package textscan provides regex scanning and tolerant object-literal
// parsing helpers shared by the platform detectors and the event extractor.
package textscan
