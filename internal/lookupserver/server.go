// Package lookupserver serves a mock address lookup endpoint compatible
// with the lookup client.
package lookupserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/zarlcorp/zbook/internal/logger"
	"golang.org/x/time/rate"
)

// SearchPath is the lookup route.
const SearchPath = "/api/getAddresses"

const shutdownTimeout = 5 * time.Second

// Config holds server settings.
type Config struct {
	// Delay holds back successful responses.
	Delay       time.Duration
	CORSOrigins []string
	// RateLimit is requests per second per client IP; zero disables limiting.
	RateLimit float64
	RateBurst int
	Logger    *slog.Logger
}

// Server is the mock lookup endpoint.
type Server struct {
	cfg    Config
	log    *slog.Logger
	val    *validator.Validate
	engine *gin.Engine
}

// New builds the server and its routes.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	s := &Server{
		cfg: cfg,
		log: log,
		val: validator.New(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if cfg.RateLimit > 0 {
		limiter := newIPRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst, log)
		engine.Use(limiter.middleware())
	}

	engine.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET(SearchPath, s.getAddresses)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("lookup server listening", "addr", addr, "delay", s.cfg.Delay)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("lookup server stopped")
	return nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodOptions}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
