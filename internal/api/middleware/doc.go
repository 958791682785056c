// Package middleware provides the Gin middleware placed in front of the
// capture endpoints.
//
//   - CORS: read-only cross-origin access for browser tools
//   - RateLimit: per-IP token bucket, idle clients are evicted
//   - GlobalRateLimit: one token bucket for the whole server
//
// Rejected requests get 429 with a Retry-After header.
package middleware
