package relay

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/opfskit/bridge/internal/infrastructure/config"
	"github.com/opfskit/bridge/internal/infrastructure/logging"
	"github.com/opfskit/bridge/internal/infrastructure/monitoring"
)

// Server wraps the HTTP surface around a relay: target lifecycle routes,
// the websocket RPC endpoint, health, and metrics.
type Server struct {
	router  *gin.Engine
	relay   *Relay
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	http    *http.Server
}

// NewServer creates a relay server from configuration.
func NewServer(cfg *config.Config) (*Server, error) {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Development = cfg.Logging.Development
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	logger.Info("Initializing relay",
		zap.String("port", cfg.Server.Port),
		zap.String("store_backend", cfg.Store.Backend),
	)

	metrics := monitoring.NewMetrics()

	var factory StoreFactory
	switch cfg.Store.Backend {
	case "disk":
		factory = DiskFactory(cfg.Store.Root, cfg.Store.Quota)
	default:
		factory = MemoryFactory(cfg.Store.Quota)
	}

	rly := New(factory, logger.Logger, WithMetrics(metrics))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(CORS(DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(RateLimit(RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	s := &Server{
		router:  router,
		relay:   rly,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}

	router.GET("/health", s.health)

	// Target lifecycle
	router.GET("/targets", s.listTargets)
	router.POST("/targets", s.createTarget)
	router.DELETE("/targets/:id", s.deleteTarget)

	// RPC over websocket
	router.GET("/rpc", s.handleRPC)

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Relay initialized")
	return s, nil
}

// Relay returns the underlying relay, mainly for tests.
func (s *Server) Relay() *Relay { return s.relay }

// Router returns the gin engine, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting relay server", zap.String("addr", addr))
	s.http = &http.Server{Addr: addr, Handler: s.router}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close drains the HTTP server and stops every target.
func (s *Server) Close() error {
	s.logger.Info("Shutting down relay...")
	if s.http != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP shutdown failed", zap.Error(err))
		}
	}
	s.relay.Close()
	s.logger.Sync()
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "opfs-relay",
		"targets": len(s.relay.Targets()),
	})
}

func (s *Server) listTargets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"targets": s.relay.Targets()})
}

func (s *Server) createTarget(c *gin.Context) {
	info, err := s.relay.CreateTarget()
	if err != nil {
		s.logger.Error("Failed to create target", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (s *Server) deleteTarget(c *gin.Context) {
	if err := s.relay.CloseTarget(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
