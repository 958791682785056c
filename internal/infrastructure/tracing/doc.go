/*
Package tracing provides lightweight request tracing for the bridge.

# Overview

Every HTTP request gets a span, and every capture adds one child span per
pipeline stage (framebuffer.launch, framebuffer.translate,
framebuffer.stream). Finished spans are handed to a buffered collector
that writes them through zap.

# Usage

	tracer := tracing.New("fbbridge", logger.Logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "operation")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Propagation

Trace context travels in the X-Trace-ID and X-Span-ID headers and is echoed
on every response.
*/
package tracing
