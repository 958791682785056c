package framebuffer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/fbbridge/internal/shared/id"
)

var (
	// ErrUnavailable is returned while the launch breaker is open.
	ErrUnavailable = errors.New("framebuffer producer unavailable")
	// ErrBusy is returned when every capture slot is taken.
	ErrBusy = errors.New("too many concurrent captures")
)

// Report summarizes one capture.
type Report struct {
	CaptureID    id.CaptureID  `json:"capture_id"`
	Format       PixelFormat   `json:"format"`
	FormatName   string        `json:"format_name"`
	Header       *LegacyHeader `json:"header,omitempty"`
	PayloadBytes int64         `json:"payload_bytes"`
	ExitCode     int           `json:"exit_code"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration"`
	Outcome      string        `json:"outcome"`
}

// Bridge runs the launch, translate and stream pipeline for each capture.
type Bridge struct {
	launcher  *Launcher
	chunkSize int
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	breaker   *resilience.Breaker
	limiter   *Limiter
}

// NewBridge creates a bridge around launcher.
func NewBridge(launcher *Launcher, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{
		launcher:  launcher,
		chunkSize: DefaultChunkSize,
		logger:    logger,
	}
}

// WithChunkSize sets the payload copy buffer size.
func (b *Bridge) WithChunkSize(n int) *Bridge {
	if n > 0 {
		b.chunkSize = n
	}
	return b
}

// WithMetrics records capture metrics.
func (b *Bridge) WithMetrics(m *monitoring.Metrics) *Bridge {
	b.metrics = m
	return b
}

// WithTracer emits one span per pipeline stage.
func (b *Bridge) WithTracer(t *tracing.Tracer) *Bridge {
	b.tracer = t
	return b
}

// WithBreaker fails captures fast while the producer keeps failing to launch.
func (b *Bridge) WithBreaker(br *resilience.Breaker) *Bridge {
	b.breaker = br
	return b
}

// WithLimiter caps concurrent captures.
func (b *Bridge) WithLimiter(l *Limiter) *Bridge {
	b.limiter = l
	return b
}

// Breaker returns the launch breaker, or nil.
func (b *Bridge) Breaker() *resilience.Breaker {
	return b.breaker
}

// Run serves one capture into sink. Outcomes are only logged.
func (b *Bridge) Run(ctx context.Context, sink io.Writer) {
	_, _ = b.Serve(ctx, sink)
}

// Serve serves one capture into sink. On a launch, header or format failure
// sink receives nothing. On a payload failure sink holds the legacy header
// followed by the bytes copied so far.
func (b *Bridge) Serve(ctx context.Context, sink io.Writer) (*Report, error) {
	report := &Report{
		CaptureID: id.NewCaptureID(),
		StartedAt: time.Now(),
		ExitCode:  -1,
	}
	logger := b.logger.With(zap.String("capture_id", report.CaptureID.String()))

	if b.limiter != nil {
		if !b.limiter.TryAcquire() {
			return b.finish(logger, report, ErrBusy)
		}
		defer b.limiter.Release()
	}

	if b.metrics != nil {
		b.metrics.IncCapturesActive()
		defer b.metrics.DecCapturesActive()
	}

	capture, err := b.launch(ctx)
	if err != nil {
		return b.finish(logger, report, err)
	}
	defer func() {
		capture.Close()
		report.ExitCode = capture.ExitCode()
	}()

	logger = logger.With(zap.Int("producer_pid", capture.Pid()))

	up, header, err := b.translate(ctx, capture, sink)
	report.Format = up.PixelFormat
	if err != nil {
		return b.finish(logger, report, err)
	}
	report.Header = &header

	n, err := b.stream(ctx, capture, sink, header.Size)
	report.PayloadBytes = n
	return b.finish(logger, report, err)
}

func (b *Bridge) launch(ctx context.Context) (*Capture, error) {
	span := b.startSpan(ctx, "framebuffer.launch")

	var capture *Capture
	start := func() error {
		c, err := b.launcher.Start()
		capture = c
		return err
	}

	var err error
	if b.breaker != nil {
		err = b.breaker.Execute(start)
		if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
			err = fmt.Errorf("%w: breaker %s: %v", ErrUnavailable, b.breaker.Name(), err)
		}
		if b.metrics != nil {
			b.metrics.SetBreakerState(int(b.breaker.State()))
		}
	} else {
		err = start()
	}

	b.finishSpan(span, err)
	return capture, err
}

func (b *Bridge) translate(ctx context.Context, src io.Reader, sink io.Writer) (UpstreamHeader, LegacyHeader, error) {
	span := b.startSpan(ctx, "framebuffer.translate")
	up, header, err := TranslateHeader(src, sink)
	if span != nil {
		span.SetTag("format", fmt.Sprint(uint32(up.PixelFormat)))
		if err == nil {
			span.SetTag("size", fmt.Sprint(header.Size))
		}
	}
	b.finishSpan(span, err)
	return up, header, err
}

func (b *Bridge) stream(ctx context.Context, src io.Reader, sink io.Writer, size uint32) (int64, error) {
	span := b.startSpan(ctx, "framebuffer.stream")
	n, err := Stream(src, sink, size, make([]byte, b.chunkSize))
	if span != nil {
		span.SetTag("bytes", fmt.Sprint(n))
	}
	b.finishSpan(span, err)
	return n, err
}

func (b *Bridge) startSpan(ctx context.Context, name string) *tracing.Span {
	if b.tracer == nil {
		return nil
	}
	span, _ := b.tracer.StartSpan(ctx, name)
	return span
}

func (b *Bridge) finishSpan(span *tracing.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.SetError(err)
	}
	span.Finish()
	b.tracer.Submit(span)
}

func (b *Bridge) finish(logger *zap.Logger, report *Report, err error) (*Report, error) {
	report.Duration = time.Since(report.StartedAt)
	report.Outcome = outcome(err)
	report.FormatName = report.Format.String()

	if b.metrics != nil {
		b.metrics.RecordCapture(report.Outcome, report.Duration, report.PayloadBytes)
	}

	fields := []zap.Field{
		zap.String("outcome", report.Outcome),
		zap.Duration("duration", report.Duration),
		zap.Int64("payload_bytes", report.PayloadBytes),
	}
	if report.Header != nil {
		fields = append(fields,
			zap.Uint32("width", report.Header.Width),
			zap.Uint32("height", report.Header.Height),
			zap.Uint32("size", report.Header.Size),
		)
	}
	if report.Format != 0 {
		fields = append(fields, zap.Uint32("format", uint32(report.Format)))
	}

	if err != nil {
		logger.Error("framebuffer capture failed", append(fields, zap.Error(err))...)
		return report, err
	}
	logger.Info("framebuffer capture complete", fields...)
	return report, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrBusy):
		return "busy"
	default:
		return Kind(err)
	}
}
