// Package server
//
// @title Jobtrack API
// @version 1.0
// @description Job application tracking API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"unicode"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/jobtrack-dev/jobtrack/internal/audit"
	"github.com/jobtrack-dev/jobtrack/internal/auth"
	"github.com/jobtrack-dev/jobtrack/internal/config"
	"github.com/jobtrack-dev/jobtrack/internal/models"
	"github.com/jobtrack-dev/jobtrack/internal/revocation"
)

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	revocations revocation.Store
	audit       *audit.Recorder
	version     string
}

// New creates a new server instance backed by the configured database and
// revocation store
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := OpenDatabase(cfg.Database.URL, zlog)
	if err != nil {
		return nil, err
	}

	revocations, err := revocation.New(cfg.Auth.RevocationBackend, db, cfg.Redis.Address)
	if err != nil {
		return nil, err
	}

	return NewWithDeps(cfg, zlog, version, db, revocations)
}

// NewWithDeps creates a server around an already opened database
func NewWithDeps(cfg *config.Config, zlog zerolog.Logger, version string, db *gorm.DB, revocations revocation.Store) (*Server, error) {
	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret, err := loadOrCreateJWTSecret(db)
	if err != nil {
		return nil, err
	}
	auth.InitializeJWT(secret)
	auth.SetTokenTTL(cfg.Auth.TokenTTL)

	if err := registerValidations(); err != nil {
		return nil, err
	}

	server := &Server{
		db:          db,
		config:      cfg,
		logger:      zlog,
		revocations: revocations,
		audit:       audit.NewRecorder(db, zlog),
		version:     version,
	}

	server.setupRouter()

	return server, nil
}

// loadOrCreateJWTSecret returns the persisted signing secret, generating it on
// the very first start
func loadOrCreateJWTSecret(db *gorm.DB) (string, error) {
	var cfg models.Config
	err := db.First(&cfg).Error
	if err == nil {
		return cfg.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	// 64 hex characters = 32 bytes of randomness
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	cfg = models.Config{JWTSecret: hex.EncodeToString(secretBytes)}
	if err := db.Create(&cfg).Error; err != nil {
		return "", fmt.Errorf("failed to persist JWT secret: %w", err)
	}
	return cfg.JWTSecret, nil
}

// registerValidations adds the custom binding rules used by request structs
func registerValidations() error {
	validate, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}

	// Letters, digits, dots, hyphens and underscores
	return validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		for _, char := range fl.Field().String() {
			if !(unicode.IsLetter(char) || unicode.IsDigit(char) || char == '.' || char == '-' || char == '_') {
				return false
			}
		}
		return true
	})
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints
	s.router.POST("/api/auth/register", s.register)
	s.router.POST("/api/auth/login", s.login)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.revocations, s.logger))
	{
		api.POST("/auth/logout", s.logout)
		api.GET("/auth/me", s.getCurrentUser)

		api.GET("/companies", s.listCompanies)
		api.POST("/companies", s.createCompany)
		api.GET("/companies/:id", s.getCompany)
		api.PUT("/companies/:id", s.updateCompany)
		api.DELETE("/companies/:id", s.deleteCompany)
		api.GET("/companies/:id/applications", s.listCompanyApplications)
		api.GET("/companies/:id/contacts", s.listCompanyContacts)

		api.POST("/applications", s.createApplication)
		api.GET("/applications/:id", s.getApplication)
		api.PUT("/applications/:id", s.updateApplication)
		api.DELETE("/applications/:id", s.deleteApplication)

		api.POST("/contacts", s.createContact)
		api.PUT("/contacts/:id", s.updateContact)
		api.DELETE("/contacts/:id", s.deleteContact)

		admin := api.Group("/admin")
		admin.Use(AdminOnlyMiddleware(s.logger))
		{
			admin.GET("/users", s.listUsers)
			admin.POST("/users/:id/status", s.setUserStatus)
			admin.DELETE("/users/:id", s.deleteUser)
			admin.GET("/logs", s.listAuditLogs)
			admin.GET("/export-logs", s.exportAuditLogs)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "jobtrack-api",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Revocations returns the revocation store for use by workers
func (s *Server) Revocations() revocation.Store {
	return s.revocations
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	addr := ":" + s.config.HTTP.Port

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
