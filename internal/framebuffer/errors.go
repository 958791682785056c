package framebuffer

import (
	"errors"
	"fmt"
)

var (
	ErrChannelSetup      = errors.New("framebuffer channel setup failed")
	ErrSpawn             = errors.New("framebuffer producer spawn failed")
	ErrTruncatedHeader   = errors.New("truncated capture header")
	ErrInvalidHeader     = errors.New("invalid capture header")
	ErrUnsupportedFormat = errors.New("unsupported capture format")
	ErrSinkWrite         = errors.New("framebuffer sink write failed")
	ErrPayloadTruncated  = errors.New("capture payload truncated")
)

// FormatError reports a pixel format code missing from the format table.
type FormatError struct {
	Code uint32
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("bad screencap format: %d", e.Code)
}

// Unwrap lets errors.Is match ErrUnsupportedFormat.
func (e *FormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// Kind maps a pipeline error to a stable label for metrics and logs.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrChannelSetup):
		return "channel_setup_failed"
	case errors.Is(err, ErrSpawn):
		return "spawn_failed"
	case errors.Is(err, ErrTruncatedHeader):
		return "truncated_header"
	case errors.Is(err, ErrInvalidHeader):
		return "invalid_header"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrSinkWrite):
		return "sink_write_failed"
	case errors.Is(err, ErrPayloadTruncated):
		return "payload_truncated"
	default:
		return "unknown"
	}
}

// IsLaunchFailure reports whether err happened before the producer ran.
func IsLaunchFailure(err error) bool {
	return errors.Is(err, ErrChannelSetup) || errors.Is(err, ErrSpawn)
}
