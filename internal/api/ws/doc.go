// Package ws streams framebuffer captures over a WebSocket.
//
// Each capture request yields a legacy stream split into binary messages,
// one per pipeline write: the first carries the 56-byte header, the rest
// carry pixel chunks.
//
// Message Types (Client → Server):
//   - capture: run one capture
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - system: sent once after the upgrade
//   - capture_start: binary frames follow
//   - complete: capture finished, carries the report
//   - error: capture or request failed
//   - pong
//
// Example Usage:
//
//	handler := ws.NewHandler(bridge, metrics, logger)
//	router.GET("/framebuffer/ws", handler.HandleConnection)
package ws
