package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
)

// ContentType labels a legacy framebuffer stream.
const ContentType = "application/vnd.android.framebuffer"

// Encodings accepted by the encoding query parameter.
const (
	EncodingIdentity = ""
	EncodingGzip     = "gzip"
	EncodingZstd     = "zstd"
)

// StatusFor maps a capture error to the response status used when nothing
// has been written yet.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, framebuffer.ErrBusy):
		return http.StatusTooManyRequests
	case errors.Is(err, framebuffer.ErrUnavailable), framebuffer.IsLaunchFailure(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, framebuffer.ErrTruncatedHeader),
		errors.Is(err, framebuffer.ErrInvalidHeader),
		errors.Is(err, framebuffer.ErrUnsupportedFormat):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Framebuffer streams one capture as the legacy header followed by the raw
// pixels. The response status is only committed once the header is ready,
// so launch and header failures still get a JSON error. A payload failure
// after that point leaves the client with fewer bytes than the header
// declares.
func (h *Handlers) Framebuffer(c *gin.Context) {
	encoding := c.Query("encoding")
	switch encoding {
	case EncodingIdentity, EncodingGzip, EncodingZstd:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   fmt.Sprintf("unsupported encoding %q", encoding),
		})
		return
	}

	sink := &responseSink{w: c.Writer, encoding: encoding}
	report, err := h.capturer.Serve(c.Request.Context(), sink)
	if cerr := sink.Close(); cerr != nil {
		h.logger.Warn("failed to finish encoded response", zap.Error(cerr))
	}

	if err == nil {
		return
	}
	if !sink.started() {
		h.fail(c, report, err)
		return
	}
	_ = c.Error(err)
}

// responseSink defers committing the response until the first write, which
// is always the complete legacy header.
type responseSink struct {
	w        gin.ResponseWriter
	encoding string
	out      io.Writer
	enc      io.WriteCloser
}

func (s *responseSink) Write(p []byte) (int, error) {
	if s.out == nil {
		if err := s.begin(p); err != nil {
			return 0, err
		}
	}
	return s.out.Write(p)
}

func (s *responseSink) begin(first []byte) error {
	header := s.w.Header()
	header.Set("Content-Type", ContentType)

	switch s.encoding {
	case EncodingGzip:
		s.enc = gzip.NewWriter(s.w)
	case EncodingZstd:
		enc, err := zstd.NewWriter(s.w)
		if err != nil {
			return err
		}
		s.enc = enc
	default:
		var legacy framebuffer.LegacyHeader
		if len(first) == framebuffer.LegacyHeaderSize && legacy.UnmarshalBinary(first) == nil {
			total := int64(framebuffer.LegacyHeaderSize) + int64(legacy.Size)
			header.Set("Content-Length", strconv.FormatInt(total, 10))
		}
	}

	if s.enc != nil {
		header.Set("Content-Encoding", s.encoding)
		s.out = s.enc
	} else {
		s.out = s.w
	}
	s.w.WriteHeader(http.StatusOK)
	return nil
}

func (s *responseSink) started() bool {
	return s.out != nil
}

func (s *responseSink) Close() error {
	if s.enc == nil {
		return nil
	}
	return s.enc.Close()
}
