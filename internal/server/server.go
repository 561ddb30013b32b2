// Package server wires the dashboard, the JSON API and the chart endpoints
// into one gin engine.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/cache"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/charts"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/config"
	apperrors "github.com/ZanzyTHEbar/sizefit-dashboard/internal/errors"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/frontend"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/leaderboard"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/loader"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/middleware"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/monitoring"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/ratelimit"
	"github.com/ZanzyTHEbar/sizefit-dashboard/internal/security"

	_ "github.com/ZanzyTHEbar/sizefit-dashboard/internal/server/docs"
)

// Version is reported by /health
const Version = "1.0.0"

const shutdownTimeout = 30 * time.Second

// Deps are the long-lived collaborators the server is built from. Redis may
// be nil; Store, Metrics and Logger are created when nil.
type Deps struct {
	Config  *config.Config
	Bundle  *loader.Bundle
	Store   cache.Store
	Redis   *cache.RedisClient
	Metrics *monitoring.Metrics
	Logger  *monitoring.Logger
}

// Server serves one loaded survey
type Server struct {
	cfg         *config.Config
	bundle      *loader.Bundle
	store       cache.Store
	redis       *cache.RedisClient
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	svc         *leaderboard.Service
	renderer    *charts.Renderer
	limiter     *ratelimit.RateLimiter
	compression *middleware.CompressionMiddleware
	security    *security.SecurityMiddleware
	dashboard   *frontend.Handler
	router      *gin.Engine
	ownStore    *cache.Cache
}

// New builds the server and its routes
func New(deps Deps) (*Server, error) {
	if deps.Config == nil || deps.Bundle == nil {
		return nil, errors.New("server: config and bundle are required")
	}
	cfg := deps.Config

	s := &Server{
		cfg:     cfg,
		bundle:  deps.Bundle,
		store:   deps.Store,
		redis:   deps.Redis,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
	if s.redis == nil {
		s.redis = &cache.RedisClient{}
	}
	if s.metrics == nil {
		s.metrics = monitoring.NewMetrics()
	}
	if s.logger == nil {
		s.logger = monitoring.NewLogger(cfg.SlogLevel())
	}
	if s.store == nil {
		s.ownStore = cache.NewCache(cfg.CacheTTL)
		s.store = s.ownStore
	}

	policy := cfg.Policy()
	if err := policy.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError("invalid priority thresholds", err)
	}

	content := &s.bundle.Content
	s.svc = leaderboard.NewService(s.bundle.Report, &policy, s.store, s.metrics, s.logger)
	s.renderer = charts.NewRenderer(s.bundle.Report, content, s.store, s.metrics, s.logger)

	limiterConfig := ratelimit.DefaultConfig()
	limiterConfig.IPLimitPerMin = cfg.RateLimitPerMin
	s.limiter = ratelimit.NewRateLimiter(s.redis, limiterConfig, s.metrics)

	s.compression = middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig())

	securityConfig := security.DefaultSecurityConfig()
	securityConfig.AllowedOrigins = cfg.AllowedOrigins
	securityConfig.RequestTimeout = cfg.RequestTimeout
	securityConfig.EnableHSTS = cfg.EnableHSTS
	s.security = security.NewSecurityMiddleware(securityConfig)

	dashboard, err := frontend.NewHandler(s.svc, content)
	if err != nil {
		s.limiter.Close()
		return nil, fmt.Errorf("load dashboard templates: %w", err)
	}
	s.dashboard = dashboard

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()

	r.Use(RequestIDMiddleware())
	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())
	r.Use(s.compression.Handler())
	r.Use(s.security.Middlewares()...)

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/cache/stats", s.handleCacheStats)
	r.GET("/ratelimit/status", s.limiter.HandleRateLimitStatus())
	r.GET("/ratelimit/stats", s.limiter.HandleRateLimitStats())
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/static/*filepath", s.dashboard.Static())

	limited := r.Group("/", s.limiter.IPRateLimitMiddleware())

	pages := limited.Group("/", s.security.CSP())
	pages.GET("/", s.dashboard.Index)
	pages.GET("/tabs/:tab", s.security.ValidateRequest, s.dashboard.Tab)

	api := limited.Group("/api/v1",
		s.security.CORSMiddleware(),
		s.security.ValidateRequest,
		cache.Middleware(s.store, s.metrics, "/api/"),
	)
	api.GET("/buckets", s.handleListBuckets)
	api.GET("/buckets/:bucket", s.handleGetBucket)
	api.GET("/buckets/:bucket/percentages/:category", s.handleGetPercentage)
	api.GET("/buckets/:bucket/dominant", s.handleGetDominant)
	api.GET("/ranking", s.handleGetRanking)

	chartGroup := limited.Group("/charts", s.security.ValidateRequest)
	chartGroup.GET("/overview.svg", s.handleOverviewChart)
	chartGroup.GET("/buckets/:bucket/pie.svg", s.handleBucketPieChart)
	chartGroup.GET("/ranking.svg", s.handleRankingChart)

	return r
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Service returns the ranking service backing the API
func (s *Server) Service() *leaderboard.Service {
	return s.svc
}

// WarmUp fills the ranking cache and pre-renders every chart
func (s *Server) WarmUp(ctx context.Context) error {
	s.svc.WarmCache(ctx)
	if err := s.renderer.WarmUp(ctx); err != nil {
		return fmt.Errorf("warm up charts: %w", err)
	}
	return nil
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", srv.Addr, "source", s.bundle.Source)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server exited")
	return nil
}

// Close releases the limiter and any cache the server created itself
func (s *Server) Close() {
	s.limiter.Close()
	if s.ownStore != nil {
		s.ownStore.Close()
	}
}
