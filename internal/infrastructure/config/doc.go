// Package config provides 12-factor configuration for the framebuffer bridge.
//
// Values are layered: built-in defaults, then an optional TOML or YAML file
// named by FB_CONFIG_FILE, then environment variables. CLI flags in
// cmd/server override all three.
//
// Configuration Sections:
//   - Server: HTTP listener and the raw TCP sink listener
//   - Capture: producer command, copy chunk size, concurrent capture slots
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting of capture endpoints
//   - Breaker: producer launch circuit breaker
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	launcher := framebuffer.NewLauncher(cfg.Capture.Argv(), logger.Logger)
//
// Environment Variables:
//   - PORT, HOST, FB_TCP_ADDR
//   - FB_PRODUCER, FB_CHUNK_SIZE, FB_MAX_CONCURRENT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - BREAKER_FAILURES, BREAKER_TIMEOUT
package config
