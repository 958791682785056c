// Package fbtest provides an in-memory capturer for testing code that sits
// in front of a framebuffer bridge.
package fbtest

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
	"github.com/GriffinCanCode/fbbridge/internal/shared/id"
)

// Capturer replays a canned producer output through the real translate and
// stream stages on every call.
type Capturer struct {
	// Producer is what the fake producer writes to its stdout.
	Producer []byte
	// Err, when set, fails the capture before anything reaches the sink.
	Err error

	mu    sync.Mutex
	calls int
}

// New returns a capturer whose producer emits a w x h frame of format
// followed by payload.
func New(w, h uint32, format framebuffer.PixelFormat, payload []byte) *Capturer {
	return &Capturer{Producer: append(Upstream(w, h, format), payload...)}
}

// Failing returns a capturer that always fails with err.
func Failing(err error) *Capturer {
	return &Capturer{Err: err}
}

// Serve implements the bridge contract against the canned output.
func (c *Capturer) Serve(_ context.Context, sink io.Writer) (*framebuffer.Report, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	report := &framebuffer.Report{
		CaptureID: id.NewCaptureID(),
		StartedAt: time.Now(),
	}
	done := func(err error) (*framebuffer.Report, error) {
		report.Outcome = framebuffer.Kind(err)
		report.FormatName = report.Format.String()
		report.Duration = time.Since(report.StartedAt)
		return report, err
	}

	if c.Err != nil {
		return done(c.Err)
	}

	src := bytes.NewReader(c.Producer)
	up, header, err := framebuffer.TranslateHeader(src, sink)
	report.Format = up.PixelFormat
	if err != nil {
		return done(err)
	}
	report.Header = &header

	n, err := framebuffer.Stream(src, sink, header.Size, nil)
	report.PayloadBytes = n
	return done(err)
}

// Calls returns how many captures were served.
func (c *Capturer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Upstream encodes a producer header with color space 1.
func Upstream(w, h uint32, format framebuffer.PixelFormat) []byte {
	b, _ := framebuffer.UpstreamHeader{Width: w, Height: h, PixelFormat: format, ColorSpace: 1}.MarshalBinary()
	return b
}

// Pattern returns n bytes counting up from zero.
func Pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}
