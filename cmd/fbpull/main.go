package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/fbbridge/internal/client"
	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/logging"
)

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8000", "bridge base URL")
	out := flag.String("o", "screen.png", "output PNG path")
	encoding := flag.String("encoding", "zstd", "transfer encoding: identity, gzip or zstd")
	raw := flag.String("raw", "", "also write the legacy pixel payload to this path")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	info := flag.Bool("info", false, "print the capture report instead of pulling pixels")
	flag.Parse()

	os.Exit(pull(*addr, *out, *encoding, *raw, *timeout, *info))
}

// pull runs one pull and returns the process exit code.
func pull(addr, out, encoding, raw string, timeout time.Duration, info bool) int {
	logger := logging.NewFor("info", true)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := run(ctx, logger, addr, out, encoding, raw, info); err != nil {
		logger.Error("pull failed", zap.Error(err))
		return 1
	}
	return 0
}

func run(ctx context.Context, logger *logging.Logger, addr, out, encoding, raw string, info bool) error {
	c := client.NewClient(addr)

	if info {
		report, err := c.Info(ctx)
		if err != nil {
			return err
		}
		logger.Info("capture report",
			zap.String("capture_id", report.CaptureID.String()),
			zap.String("format", report.FormatName),
			zap.Any("header", report.Header),
			zap.Duration("duration", report.Duration),
		)
		return nil
	}

	if encoding == "identity" {
		encoding = ""
	}
	start := time.Now()
	frame, err := c.Fetch(ctx, encoding)
	if errors.Is(err, framebuffer.ErrPayloadTruncated) {
		logger.Warn("payload truncated", zap.Int("got", len(frame.Pixels)), zap.Uint32("want", frame.Header.Size))
	}
	if err != nil {
		return err
	}

	if raw != "" {
		if err := os.WriteFile(raw, frame.Pixels, 0o644); err != nil {
			return fmt.Errorf("write raw payload: %w", err)
		}
	}

	img, err := frame.Image()
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	logger.Info("frame saved",
		zap.String("path", out),
		zap.Uint32("width", frame.Header.Width),
		zap.Uint32("height", frame.Header.Height),
		zap.Uint32("bpp", frame.Header.BPP),
		zap.Int("wire_bytes", frame.WireBytes),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
