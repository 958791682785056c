// Package framebuffer bridges a screen capture producer to the legacy raw
// image stream consumed by debugging clients.
//
// One capture runs three stages in sequence on the caller's goroutine:
//
//	Launcher    spawn the producer, stdout on a close-on-exec pipe
//	Translate   16-byte producer header -> 56-byte legacy header (one write)
//	Stream      exactly header.Size payload bytes, one bounded chunk at a time
//
// Producer header (native byte order):
//
//	width:u32 height:u32 format:u32 color_space:u32
//
// Legacy header (native byte order, packed):
//
//	version:u32 bpp:u32 color_space:u32 size:u32 width:u32 height:u32
//	red{offset,length} blue{offset,length} green{offset,length} alpha{offset,length}
//
// Every stage failure ends the capture. The producer is always reaped and
// the pipe always closed. Nothing reaches the sink when the failure happens
// before the header is written; a payload failure leaves the header and the
// bytes copied so far on the sink, declaring more bytes than were sent.
//
// Example Usage:
//
//	bridge := framebuffer.NewBridge(framebuffer.NewLauncher(nil, logger), logger)
//	report, err := bridge.Serve(ctx, conn)
package framebuffer
