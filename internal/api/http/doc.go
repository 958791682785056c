// Package http provides the HTTP handlers that expose framebuffer captures.
//
// Endpoints:
//   - Service: / and /health
//   - Captures: /framebuffer and /framebuffer/info
//
// /framebuffer answers with the legacy stream. The optional encoding query
// parameter (gzip or zstd) compresses the body; without it the response
// carries a Content-Length taken from the legacy header. Failures before the
// header is written are reported as JSON with a mapped status:
//
//	429  every capture slot is busy
//	503  the producer could not be launched or the breaker is open
//	502  the producer emitted a bad header or an unknown pixel format
//
// Example Usage:
//
//	handlers := http.NewHandlers(bridge, breaker, metrics, logger)
//	router.GET("/framebuffer", handlers.Framebuffer)
//	router.GET("/health", handlers.Health)
package http
