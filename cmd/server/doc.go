// Command server runs the framebuffer bridge.
//
// Configuration comes from defaults, then the TOML or YAML file named by
// FB_CONFIG_FILE, then environment variables, then flags.
//
// Usage:
//
//	server [flags]
//
// Flags:
//
//	-host string            HTTP listen host (default "0.0.0.0")
//	-port string            HTTP listen port (default "8000")
//	-tcp string             raw TCP listen address, empty to disable
//	-producer string        screen capture command (default "screencap")
//	-max-concurrent int     concurrent captures (default 4)
//	-log-level string       log level (default "info")
//	-dev                    development logging
//
// Environment:
//
//	HOST, PORT, FB_TCP_ADDR, FB_PRODUCER, FB_CHUNK_SIZE, FB_MAX_CONCURRENT,
//	LOG_LEVEL, LOG_DEV, RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED,
//	BREAKER_FAILURES, BREAKER_TIMEOUT, FB_CONFIG_FILE
package main
