// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Output defaults to stderr, keeping stdout free for tools that stream a
// framebuffer there.
//
// Example Usage:
//
//	logger := logging.NewFor(cfg.Logging.Level, cfg.Logging.Development)
//	logger.Info("Bridge starting", zap.String("port", "8000"))
//	logger.Error("Capture failed", zap.Error(err))
package logging
