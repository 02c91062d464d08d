// Package api serves the catalog over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cine-catalog/catalog"
	"cine-catalog/logging"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server owns the gin router and the underlying http.Server.
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger zerolog.Logger
}

// NewServer builds the router for store and refresher, listening on addr.
func NewServer(addr string, store *catalog.Store, refresher Refresher) *Server {
	logger := logging.WithComponent("api")

	router := gin.New()
	router.Use(requestLogger(logger), recovery(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"items":      store.Len(),
			"updated_at": store.UpdatedAt(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	NewHandler(store, refresher).RegisterRoutes(router.Group("/api"))

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not
// reported as an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info().Str("event", "http.listen").Str("addr", s.http.Addr).Msg("HTTP API listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := logger.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = logger.Error()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("event", "http.request").
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// recovery turns a panic into a generic 500.
func recovery(logger zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error().
			Interface("panic", recovered).
			Str("event", "http.panic").
			Str("path", c.Request.URL.Path).
			Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
