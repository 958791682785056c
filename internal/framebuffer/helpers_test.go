package framebuffer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingSink counts writes.
type recordingSink struct {
	bytes.Buffer
	writes int
}

func (s *recordingSink) Write(p []byte) (int, error) {
	s.writes++
	return s.Buffer.Write(p)
}

// shortSink accepts one byte less than asked.
type shortSink struct {
	bytes.Buffer
}

func (s *shortSink) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return s.Buffer.Write(p[:len(p)-1])
}

// failingSink accepts limit bytes, then fails.
type failingSink struct {
	bytes.Buffer
	limit int
}

var errSinkClosed = errors.New("connection reset by peer")

func (s *failingSink) Write(p []byte) (int, error) {
	if s.Len()+len(p) > s.limit {
		return 0, errSinkClosed
	}
	return s.Buffer.Write(p)
}

// chunkReader records the largest read request it sees.
type chunkReader struct {
	r       *bytes.Reader
	maxRead int
	reads   int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	c.reads++
	if len(p) > c.maxRead {
		c.maxRead = len(p)
	}
	return c.r.Read(p)
}

func upstream(t *testing.T, w, h uint32, format PixelFormat, colorSpace uint32) []byte {
	t.Helper()
	b, err := UpstreamHeader{Width: w, Height: h, PixelFormat: format, ColorSpace: colorSpace}.MarshalBinary()
	require.NoError(t, err)
	return b
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}
