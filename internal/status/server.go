// filename: internal/status/server.go
package status

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/attackmap/dataserver/internal/common/config"
	"github.com/attackmap/dataserver/internal/common/logging"
	"github.com/attackmap/dataserver/internal/dataserver"
)

// Pinger проверяет доступность внешней зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server представляет status HTTP сервер // v1.0
type Server struct {
	cfg        config.StatusConfig
	logger     *logging.Logger
	state      *dataserver.AggregateState
	search     Pinger
	sink       Pinger
	router     *gin.Engine
	server     *http.Server
	instanceID string
	startTime  time.Time
}

// NewServer создает новый status сервер // v1.0
func NewServer(cfg config.StatusConfig, state *dataserver.AggregateState, search, sink Pinger, logger *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		state:      state,
		search:     search,
		sink:       sink,
		router:     router,
		instanceID: uuid.New().String(),
		startTime:  time.Now(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

// setupRoutes настраивает роуты status сервера // v1.0
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/readyz", s.handleReady)
	s.router.GET("/stats", s.handleStats)

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Endpoint not found",
			"message": fmt.Sprintf("Method %s %s not found", c.Request.Method, c.Request.URL.Path),
		})
	})
}

// handleHealth отвечает на liveness-проверку // v1.0
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     "attackmap-dataserver",
		"instance_id": s.instanceID,
		"timestamp":   time.Now().Format(time.RFC3339),
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleReady проверяет доступность поискового бэкенда и канала
// публикации // v1.0
func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dependencies := gin.H{}
	ready := true

	if err := s.search.Ping(ctx); err != nil {
		dependencies["search"] = gin.H{"status": "unavailable", "error": err.Error()}
		ready = false
	} else {
		dependencies["search"] = gin.H{"status": "ready"}
	}

	if err := s.sink.Ping(ctx); err != nil {
		dependencies["sink"] = gin.H{"status": "unavailable", "error": err.Error()}
		ready = false
	} else {
		dependencies["sink"] = gin.H{"status": "ready"}
	}

	httpStatus := http.StatusOK
	overall := "ready"
	if !ready {
		httpStatus = http.StatusServiceUnavailable
		overall = "not_ready"
	}

	c.JSON(httpStatus, gin.H{
		"status":       overall,
		"dependencies": dependencies,
		"timestamp":    time.Now().Format(time.RFC3339),
	})
}

// handleStats отдает снимок агрегированного состояния процесса // v1.0
func (s *Server) handleStats(c *gin.Context) {
	snapshot := s.state.Snapshot()

	c.JSON(http.StatusOK, gin.H{
		"instance_id": s.instanceID,
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
		"event_count": snapshot.EventCount,
		"unique_ips":  len(snapshot.IPsTracked),
		"continents":  len(snapshot.ContinentsTracked),
		"countries":   len(snapshot.CountriesTracked),
		"ports":       snapshot.Ports,
		"go_routines": runtime.NumGoroutine(),
	})
}

// Start запускает status сервер // v1.0
func (s *Server) Start() error {
	s.logger.WithFields(map[string]interface{}{
		"addr":        s.server.Addr,
		"instance_id": s.instanceID,
	}).Info("Starting status server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start status server: %w", err)
	}
	return nil
}

// Stop останавливает status сервер // v1.0
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping status server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown status server: %w", err)
	}
	return nil
}

// GetRouter возвращает роутер для тестирования // v1.0
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// loggingMiddleware добавляет логирование запросов // v1.0
func loggingMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		logger.WithFields(map[string]interface{}{
			"method":  param.Method,
			"path":    param.Path,
			"status":  param.StatusCode,
			"latency": param.Latency,
		}).Info("HTTP request")

		return ""
	})
}
