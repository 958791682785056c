package framebuffer

import (
	"fmt"
	"io"
)

// DefaultChunkSize bounds a single payload read.
const DefaultChunkSize = 8192

// Stream copies exactly total bytes from src to sink through buf, one chunk
// at a time, and returns how many bytes reached sink. It never reads past
// total. A read that yields no data before total is reached fails with
// ErrPayloadTruncated; bytes forwarded up to that point stay on the sink.
func Stream(src io.Reader, sink io.Writer, total uint32, buf []byte) (int64, error) {
	if len(buf) == 0 {
		buf = make([]byte, DefaultChunkSize)
	}

	var written int64
	left := int64(total)
	for left > 0 {
		chunk := buf
		if int64(len(chunk)) > left {
			chunk = chunk[:left]
		}

		n, rerr := src.Read(chunk)
		if n > 0 {
			if err := writeExactly(sink, chunk[:n]); err != nil {
				return written, fmt.Errorf("payload: %w", err)
			}
			written += int64(n)
			left -= int64(n)
			continue
		}

		if rerr == nil || rerr == io.EOF {
			return written, fmt.Errorf("%w: %d of %d bytes", ErrPayloadTruncated, written, total)
		}
		return written, fmt.Errorf("%w after %d of %d bytes: %v", ErrPayloadTruncated, written, total, rerr)
	}
	return written, nil
}
