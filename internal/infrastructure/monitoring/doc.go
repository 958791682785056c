/*
Package monitoring provides Prometheus metrics for the bridge.

# Overview

Metrics live on a private registry so several bridges (or tests) can run
in one process. The collector tracks HTTP traffic, capture outcomes and
durations, forwarded payload bytes, in-flight captures, the launch breaker
state and transport connections.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordCapture("ok", time.Since(start), n)

# Capture outcomes

The outcome label is one of ok, channel_setup_failed, spawn_failed,
truncated_header, invalid_header, unsupported_format, sink_write_failed,
payload_truncated, unavailable or busy.
*/
package monitoring
