// Package server wires the capture bridge to its transports.
//
// Server Lifecycle:
//  1. Load configuration from defaults, file, environment and flags
//  2. Initialize logger, metrics, tracer and the launch breaker
//  3. Build the bridge (chunk size, concurrency limit, breaker)
//  4. Setup HTTP routes and middleware
//  5. Start HTTP, and the raw TCP listener when an address is set
//  6. Graceful shutdown when the context ends
//
// Routes:
//
//	GET /                   service banner
//	GET /health             breaker state and capture totals
//	GET /metrics            Prometheus exposition
//	GET /framebuffer        one legacy stream (?encoding=gzip|zstd)
//	GET /framebuffer/info   capture report as JSON
//	GET /framebuffer/ws     captures over a WebSocket
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	err = srv.Run(ctx)
package server
