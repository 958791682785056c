// Package tcp serves framebuffer captures over raw TCP.
//
// A client connects, reads the legacy header and payload until EOF, and
// the server closes the connection. A capture that fails before the header
// closes the connection with nothing written.
//
// Example Usage:
//
//	srv := tcp.NewServer(bridge, metrics, logger)
//	go srv.ListenAndServe(":5039")
//	defer srv.Shutdown(ctx)
package tcp
