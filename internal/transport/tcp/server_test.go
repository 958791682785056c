package tcp

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
	"github.com/GriffinCanCode/fbbridge/internal/framebuffer/fbtest"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/monitoring"
)

func start(t *testing.T, capturer Capturer, metrics *monitoring.Metrics) (*Server, <-chan error) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewServer(capturer, metrics, zap.NewNop())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, time.Second, time.Millisecond)
	return srv, errc
}

func pull(t *testing.T, srv *Server) []byte {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	out, err := io.ReadAll(conn)
	require.NoError(t, err)
	return out
}

func TestServeOneCapturePerConnection(t *testing.T) {
	metrics := monitoring.NewMetrics()
	capturer := fbtest.New(4, 2, framebuffer.FormatRGB565, fbtest.Pattern(16))
	srv, errc := start(t, capturer, metrics)

	for i := 0; i < 2; i++ {
		header, payload, err := framebuffer.DecodeLegacy(bytes.NewReader(pull(t, srv)))
		require.NoError(t, err)
		assert.Equal(t, uint32(16), header.Size)
		assert.Equal(t, fbtest.Pattern(16), payload)
	}
	assert.Equal(t, 2, capturer.Calls())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Connections.WithLabelValues("tcp")))

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.ErrorIs(t, <-errc, ErrServerClosed)
}

func TestServeFailureClosesWithoutBytes(t *testing.T) {
	srv, _ := start(t, fbtest.New(4, 2, 99, fbtest.Pattern(16)), nil)
	defer srv.Shutdown(context.Background())

	assert.Empty(t, pull(t, srv))
}

func TestServeAfterShutdown(t *testing.T) {
	srv := NewServer(fbtest.New(1, 1, framebuffer.FormatRGB565, nil), nil, nil)
	require.NoError(t, srv.Shutdown(context.Background()))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	assert.ErrorIs(t, srv.Serve(ln), ErrServerClosed)
}

// stallingCapturer writes the header and then waits for cancellation.
type stallingCapturer struct {
	started chan struct{}
}

func (s *stallingCapturer) Serve(ctx context.Context, sink io.Writer) (*framebuffer.Report, error) {
	_, err := sink.Write(make([]byte, framebuffer.LegacyHeaderSize))
	close(s.started)
	<-ctx.Done()
	if err == nil {
		_, err = sink.Write([]byte{1})
	}
	return &framebuffer.Report{Outcome: framebuffer.Kind(err)}, err
}

func TestShutdownTimeoutClosesConnections(t *testing.T) {
	capturer := &stallingCapturer{started: make(chan struct{})}
	srv, _ := start(t, capturer, nil)

	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	<-capturer.started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, srv.Shutdown(ctx), context.DeadlineExceeded)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	out, _ := io.ReadAll(conn)
	assert.Len(t, out, framebuffer.LegacyHeaderSize)
}
