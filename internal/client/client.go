package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/resilience"
)

// Client pulls captures from a bridge over HTTP.
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	Mu      sync.RWMutex

	retry *retryablehttp.Client
}

// APIError is a non-200 answer from the bridge.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Outcome string `json:"outcome"`
}

func (e *APIError) Error() string {
	if e.Outcome != "" {
		return fmt.Sprintf("bridge returned %d (%s): %s", e.Status, e.Outcome, e.Message)
	}
	return fmt.Sprintf("bridge returned %d: %s", e.Status, e.Message)
}

// Frame is one decoded legacy stream.
type Frame struct {
	Header framebuffer.LegacyHeader
	Pixels []byte
	// WireBytes is the response body size before decompression.
	WireBytes int
}

// Image converts the frame to NRGBA.
func (f *Frame) Image() (*image.NRGBA, error) {
	return f.Header.Image(f.Pixels)
}

// Health is the bridge health answer.
type Health struct {
	Status  string `json:"status"`
	Breaker string `json:"breaker"`
}

// NewClient creates a client for the bridge at baseURL. Connection errors,
// 429 and 503 answers are retried by the transport.
func NewClient(baseURL string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil
	retryClient.CheckRetry = retryPolicy
	// hand the last answer back so its JSON error can be read
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "fbpull/1.0").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	breaker := resilience.New("bridge", resilience.Settings{
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsFailure: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status >= http.StatusInternalServerError
			}
			return err != nil
		},
	})

	return &Client{
		Resty:   restyClient,
		Limiter: rate.NewLimiter(rate.Inf, 0),
		Breaker: breaker,
		retry:   retryClient,
	}
}

// retryPolicy retries only answers that say no producer ran. Every other
// 5xx means a capture was attempted, and repeating it forks another one.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true, nil
	}
	return false, nil
}

// SetRetry configures transport retries. Call before issuing requests.
func (c *Client) SetRetry(maxRetries int, minWait, maxWait time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.retry.RetryMax = maxRetries
	c.retry.RetryWaitMin = minWait
	c.retry.RetryWaitMax = maxWait
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// Fetch downloads and decodes one capture. encoding is "", "gzip" or "zstd".
// A truncated payload returns the partial frame together with
// framebuffer.ErrPayloadTruncated.
func (c *Client) Fetch(ctx context.Context, encoding string) (*Frame, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	req.SetDoNotParseResponse(true)
	if encoding != "" {
		req.SetQueryParam("encoding", encoding)
	}

	resp, err := c.do(true, func() (*resty.Response, error) {
		return req.Get("/framebuffer")
	})
	if err != nil {
		return nil, err
	}
	rawBody := resp.RawBody()
	defer rawBody.Close()

	// a short identity body ends in ErrUnexpectedEOF; decode what arrived
	wire, err := io.ReadAll(rawBody)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("read body: %w", err)
	}

	body, err := decompress(resp.Header().Get("Content-Encoding"), wire)
	if err != nil {
		return nil, err
	}

	header, pixels, err := framebuffer.DecodeLegacy(body)
	if errors.Is(err, framebuffer.ErrTruncatedHeader) || errors.Is(err, framebuffer.ErrInvalidHeader) {
		return nil, err
	}
	return &Frame{Header: header, Pixels: pixels, WireBytes: len(wire)}, err
}

// Info runs a capture on the bridge and returns its report.
func (c *Client) Info(ctx context.Context) (*framebuffer.Report, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	report := &framebuffer.Report{}
	if _, err := c.do(false, func() (*resty.Response, error) {
		return req.SetResult(report).Get("/framebuffer/info")
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// Health fetches the bridge health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}

	health := &Health{}
	if _, err := c.do(false, func() (*resty.Response, error) {
		return req.SetResult(health).Get("/health")
	}); err != nil {
		return nil, err
	}
	return health, nil
}

// request waits for the rate limiter and prepares a request.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.Resty.R().SetContext(ctx).SetError(&APIError{}), nil
}

// do runs fn through the breaker and turns non-200 answers into APIError.
// raw marks requests sent with SetDoNotParseResponse.
func (c *Client) do(raw bool, fn func() (*resty.Response, error)) (*resty.Response, error) {
	var resp *resty.Response
	err := c.Breaker.Execute(func() error {
		r, err := fn()
		if err != nil {
			return err
		}
		resp = r
		if r.StatusCode() == http.StatusOK {
			return nil
		}

		apiErr, _ := r.Error().(*APIError)
		if apiErr == nil {
			apiErr = &APIError{}
		}
		if raw {
			data, _ := io.ReadAll(r.RawBody())
			r.RawBody().Close()
			_ = sonic.Unmarshal(data, apiErr)
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(r.StatusCode())
		}
		apiErr.Status = r.StatusCode()
		return apiErr
	})
	return resp, err
}

var gzipMagic = []byte{0x1f, 0x8b}

func decompress(encoding string, body []byte) (io.Reader, error) {
	switch encoding {
	case "":
		return bytes.NewReader(body), nil
	case "gzip":
		// the transport may already have inflated it
		if !bytes.HasPrefix(body, gzipMagic) {
			return bytes.NewReader(body), nil
		}
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("gzip body: %w", err)
		}
		return bytes.NewReader(raw), nil
	case "zstd":
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		raw, err := dec.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd body: %w", err)
		}
		return bytes.NewReader(raw), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}
