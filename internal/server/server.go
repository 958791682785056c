package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apihttp "github.com/GriffinCanCode/fbbridge/internal/api/http"
	"github.com/GriffinCanCode/fbbridge/internal/api/middleware"
	"github.com/GriffinCanCode/fbbridge/internal/api/ws"
	"github.com/GriffinCanCode/fbbridge/internal/framebuffer"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/fbbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/fbbridge/internal/transport/tcp"
)

// ShutdownTimeout bounds how long in-flight captures may finish on exit.
const ShutdownTimeout = 10 * time.Second

// Server wraps the listeners and their dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	tcp     *tcp.Server
	tracer  *tracing.Tracer
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewFor(cfg.Logging.Level, cfg.Logging.Development)
	logger.Info("Initializing fbbridge",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("tcp_addr", cfg.Server.TCPAddr),
		zap.Strings("producer", cfg.Capture.Argv()),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("fbbridge", logger.Logger)

	breaker := resilience.New("producer", resilience.Settings{
		Timeout: cfg.Breaker.Timeout(),
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.Breaker.Failures)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("Breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.SetBreakerState(int(to))
		},
	})

	limiter := framebuffer.NewLimiter(cfg.Capture.MaxConcurrent)
	captureLogger := logger.Named("capture").Logger
	bridge := framebuffer.NewBridge(framebuffer.NewLauncher(cfg.Capture.Argv(), captureLogger), captureLogger).
		WithChunkSize(cfg.Capture.ChunkSize).
		WithLimiter(limiter).
		WithBreaker(breaker).
		WithMetrics(metrics).
		WithTracer(tracer)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	handlers := apihttp.NewHandlers(bridge, breaker, metrics, logger.Named("http").Logger).WithLimiter(limiter)
	wsHandler := ws.NewHandler(bridge, metrics, logger.Named("ws").Logger)

	// Register routes
	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	promHandler := metrics.Handler()
	router.GET("/metrics", func(c *gin.Context) {
		// an expired open breaker only moves to half-open when its state is read
		breaker.State()
		promHandler.ServeHTTP(c.Writer, c.Request)
	})

	captures := router.Group("/framebuffer")
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		captures.Use(middleware.RateLimit(rl))

		if cfg.RateLimit.GlobalRequestsPerSecond > 0 {
			logger.Info("Global capture limit enabled",
				zap.Int("rps", cfg.RateLimit.GlobalRequestsPerSecond),
				zap.Int("burst", cfg.RateLimit.GlobalBurst),
			)
			global := middleware.DefaultRateLimitConfig()
			global.RequestsPerSecond = cfg.RateLimit.GlobalRequestsPerSecond
			global.Burst = cfg.RateLimit.GlobalBurst
			captures.Use(middleware.GlobalRateLimit(global))
		}
	}
	captures.GET("", handlers.Framebuffer)
	captures.GET("/info", handlers.Info)
	captures.GET("/ws", wsHandler.HandleConnection)

	s := &Server{
		router:  router,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	if cfg.Server.TCPAddr != "" {
		s.tcp = tcp.NewServer(bridge, metrics, logger.Named("tcp").Logger)
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the HTTP router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP, and raw TCP when configured, until ctx is done or a
// listener fails. Either way every listener is shut down before Run returns.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if s.tcp != nil {
		g.Go(func() error {
			s.logger.Info("Starting TCP server", zap.String("addr", s.config.Server.TCPAddr))
			if err := s.tcp.ListenAndServe(s.config.Server.TCPAddr); !errors.Is(err, tcp.ErrServerClosed) {
				return fmt.Errorf("tcp server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.tcp != nil {
		if err := s.tcp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tcp shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close releases the tracer and flushes the logger. Call it after Run.
func (s *Server) Close() error {
	s.tracer.Close()
	_ = s.logger.Sync()
	return nil
}
