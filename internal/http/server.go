package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	authHTTP "github.com/sackofdump/pcompass/internal/auth/http"
	"github.com/sackofdump/pcompass/internal/config"
)

// Handlers groups the request handlers mounted on the API server.
type Handlers struct {
	Session *authHTTP.SessionHandler
}

// Middlewares groups the cross-cutting middlewares mounted on the API server.
// Nil entries are skipped.
type Middlewares struct {
	// Authentication runs the guard and populates the request identity.
	Authentication gin.HandlerFunc
	// RateLimit applies the shared SQL sliding window.
	RateLimit gin.HandlerFunc
	// SignInRateLimit applies the in-process token bucket on sign-in.
	SignInRateLimit gin.HandlerFunc
	// Metrics records request counts and durations.
	Metrics gin.HandlerFunc
}

// Server is the API HTTP server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer assembles the Gin engine and wraps it in an http.Server.
func NewServer(cfg *config.Config, handlers Handlers, middlewares Middlewares, logger *slog.Logger) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if middlewares.Metrics != nil {
		router.Use(middlewares.Metrics)
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	registerRoutes(router, handlers, middlewares, logger)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// registerRoutes mounts health checks, the session endpoints and the
// protected groups.
//
// Sign-in is unauthenticated, so it carries both limiter layers itself; the
// protected group authenticates first and then applies the shared window, so
// the budget keys on the caller's email rather than the source address.
func registerRoutes(router *gin.Engine, handlers Handlers, middlewares Middlewares, logger *slog.Logger) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/sign-up", handlers.Session.SignUp)

	signIn := auth.Group("")
	if middlewares.SignInRateLimit != nil {
		signIn.Use(middlewares.SignInRateLimit)
	}
	if middlewares.RateLimit != nil {
		signIn.Use(middlewares.RateLimit)
	}
	signIn.POST("/sign-in", handlers.Session.SignIn)

	protected := v1.Group("")
	if middlewares.Authentication != nil {
		protected.Use(middlewares.Authentication)
	}
	if middlewares.RateLimit != nil {
		protected.Use(middlewares.RateLimit)
	}
	protected.POST("/auth/sign-out", handlers.Session.SignOut)
	protected.GET("/me", handlers.Session.Me)
	protected.DELETE("/account", handlers.Session.DeleteAccount)

	pro := protected.Group("/pro")
	pro.Use(authHTTP.RequirePro(logger))
	pro.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pro": true})
	})
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API HTTP server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}
