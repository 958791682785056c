// Package client pulls framebuffer captures from a bridge over HTTP.
//
// Built on go-resty/resty with a go-retryablehttp transport:
//   - 429 and 5xx answers are retried with backoff
//   - a breaker stops hammering a bridge whose producer keeps failing
//   - an optional rate limit spaces out captures
//
// Example Usage:
//
//	c := client.NewClient("http://127.0.0.1:8000")
//	frame, err := c.Fetch(ctx, "zstd")
//	img, err := frame.Image()
package client
