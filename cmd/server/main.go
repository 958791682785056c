package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/fbbridge/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Flags override the environment and the config file
	flag.StringVar(&cfg.Server.Host, "host", cfg.Server.Host, "HTTP listen host")
	flag.StringVar(&cfg.Server.Port, "port", cfg.Server.Port, "HTTP listen port")
	flag.StringVar(&cfg.Server.TCPAddr, "tcp", cfg.Server.TCPAddr, "raw TCP listen address, empty to disable")
	flag.StringVar(&cfg.Capture.Producer, "producer", cfg.Capture.Producer, "screen capture command")
	flag.IntVar(&cfg.Capture.MaxConcurrent, "max-concurrent", cfg.Capture.MaxConcurrent, "concurrent captures")
	flag.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level")
	flag.BoolVar(&cfg.Logging.Development, "dev", cfg.Logging.Development, "development logging")
	flag.Parse()

	if err := serve(cfg); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// serve runs the server until SIGINT or SIGTERM and releases it on return.
func serve(cfg *config.Config) error {
	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer srv.Close()

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
