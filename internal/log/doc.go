// Package log provides logging with automatic sanitization of sensitive
// request material, built on top of the standard slog package.
//
// Audits may carry per-site cookies and authorization headers from the
// .pixelaudit config file. The SecureHandler masks those values before any
// record reaches the underlying handler, so verbose logs stay safe to share.
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("fetching page",
//	    "cookie", "session=abc123", // masked
//	    "url", "https://example.com",
//	)
//	slog.SetDefault(logger)
package log
