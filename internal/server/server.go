package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	agenterrors "copilot/internal/errors"
	"copilot/internal/logging"
	"copilot/internal/orchestrator"
	"copilot/internal/skills"
)

// Config - HTTP server settings
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	Debug          bool
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// DefaultConfig returns the local development server settings.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server exposes the agent over HTTP.
type Server struct {
	orchestrator *orchestrator.Orchestrator
	registry     skills.Registry
	engine       *gin.Engine
	httpServer   *http.Server
	logger       logging.Logger
	startTime    time.Time
}

// New builds the HTTP server and its routes.
func New(orch *orchestrator.Orchestrator, registry skills.Registry, gatherer prometheus.Gatherer, config Config) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(config.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = config.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Requested-With"}
	engine.Use(cors.New(corsConfig))

	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 30 * time.Second
	}

	s := &Server{
		orchestrator: orch,
		registry:     registry,
		engine:       engine,
		logger:       logging.NewComponentLogger("HTTPServer"),
		startTime:    time.Now(),
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	s.setupRoutes(gatherer)
	return s
}

func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	api := s.engine.Group("/api")

	api.GET("/health", s.handleHealth)
	api.POST("/generate", s.handleGenerate)

	sessions := api.Group("/sessions")
	{
		sessions.POST("", s.handleCreateSession)
		sessions.GET("", s.handleListSessions)
		sessions.GET("/:id", s.handleGetSession)
		sessions.PUT("/:id/end", s.handleEndSession)
		sessions.PUT("/:id/pause", s.handlePauseSession)
		sessions.PUT("/:id/resume", s.handleResumeSession)
		sessions.POST("/:id/messages", s.handleSendMessage)
	}

	skillRoutes := api.Group("/skills")
	{
		skillRoutes.GET("", s.handleListSkills)
		skillRoutes.GET("/available", s.handleAvailableSkills)
		skillRoutes.POST("/:name/execute", s.handleExecuteSkill)
		skillRoutes.GET("/:name/validate", s.handleValidateSkill)
	}

	if gatherer != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
}

// Handler exposes the routing tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("Starting agent server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping agent server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data: HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC(),
			Uptime:    time.Since(s.startTime).String(),
		},
	})
}

// respondError maps the error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	c.JSON(agenterrors.HTTPStatus(agenterrors.KindOf(err)), APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}
