// Package http exposes the procurement workflow as a JSON API.
// Handlers are thin: they bind input, call one application service, and map errors.
package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/training-procurement/internal/application/service"
	"github.com/garyjia/training-procurement/internal/domain/entity"
	"github.com/garyjia/training-procurement/internal/metrics"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the API calls
type Services struct {
	Auth           service.AuthService
	PurchaseOrders service.PurchaseOrderService
	Assignments    service.AssignmentService
	Invoices       service.InvoiceService
	Trainers       service.TrainerService
	Dashboard      service.DashboardService
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.config.AllowedOrigins) > 0 {
		cfg.AllowOrigins = s.config.AllowedOrigins
	} else {
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}

// loggingMiddleware logs every request and records its latency
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(latency.Seconds())

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.logger)
	authed := authMiddleware(s.services.Auth)

	s.router.GET("/health", h.HealthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api/v1")
	api.POST("/auth/login", h.Login)

	protected := api.Group("", authed)
	{
		protected.POST("/auth/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.GET("/dashboard", h.Dashboard)
		protected.GET("/dashboard/invoice-totals", h.InvoiceTotals)

		protected.GET("/purchase-orders", h.ListPurchaseOrders)
		protected.GET("/purchase-orders/:id", h.GetPurchaseOrder)
		protected.POST("/purchase-orders", requireRoles(entity.RoleClient), h.SubmitPurchaseOrder)

		protected.GET("/training-requests", requireRoles(entity.RoleAdmin, entity.RoleTrainer), h.ListTrainingRequests)
		protected.GET("/invoices", h.ListInvoices)
		protected.GET("/trainers/by-user/:userId", requireRoles(entity.RoleAdmin, entity.RoleTrainer), h.GetTrainerByUser)
	}

	admin := protected.Group("", requireRoles(entity.RoleAdmin))
	{
		admin.POST("/users", h.RegisterUser)
		admin.POST("/purchase-orders/:id/assign", h.AssignTrainer)
		admin.GET("/history/:entity/:id", h.History)
		admin.GET("/trainers", h.ListTrainers)
		admin.POST("/invoices/:id/approve", h.ApproveInvoice)
		admin.POST("/invoices/:id/pay", h.PayInvoice)
		admin.GET("/invoices/export", h.ExportInvoices)
	}

	trainer := protected.Group("", requireRoles(entity.RoleTrainer))
	{
		trainer.POST("/training-requests/:id/respond", h.RespondToRequest)
		trainer.POST("/training-requests/:id/complete", h.CompleteRequest)
		trainer.POST("/training-requests/:id/invoice", h.FileInvoice)
		trainer.PUT("/trainers/me", h.UpdateOwnProfile)
		trainer.POST("/trainers/me/certifications", h.AddCertification)
		trainer.DELETE("/trainers/me/certifications/:name", h.RemoveCertification)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
