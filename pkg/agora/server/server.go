// Package server assembles the agora HTTP API and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mikepea/agora/pkg/agora/auth"
	"github.com/mikepea/agora/pkg/agora/config"
	"github.com/mikepea/agora/pkg/agora/groups"
	"github.com/mikepea/agora/pkg/agora/members"
	"github.com/mikepea/agora/pkg/agora/observability"
	"github.com/mikepea/agora/pkg/agora/posts"
	"github.com/mikepea/agora/pkg/agora/store"
	"github.com/mikepea/agora/pkg/agora/users"
	"github.com/mikepea/agora/pkg/agora/validation"
	"github.com/mikepea/agora/pkg/agora/votes"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Server owns the router and the HTTP listener.
type Server struct {
	cfg     *config.Config
	logger  *slog.Logger
	router  *gin.Engine
	metrics *observability.Metrics
}

// New wires every feature onto a fresh gin engine.
func New(cfg *config.Config, db *gorm.DB, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tokens, err := auth.NewTokens(cfg.AuthSecretKey, cfg.AuthAlgorithm, cfg.TokenTTL())
	if err != nil {
		return nil, fmt.Errorf("configure tokens: %w", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.Register()

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		router:  gin.New(),
		metrics: observability.NewMetrics(),
	}
	s.routes(store.New(db, logger), tokens)
	return s, nil
}

// Router exposes the handler chain, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) routes(st *store.Store, tokens *auth.Tokens) {
	r := s.router
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(s.logger))
	r.Use(s.metrics.Middleware())
	r.Use(cors.New(corsConfig(s.cfg.Origins())))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "agora",
		})
	})
	r.GET("/metrics", s.metrics.Handler())

	authSvc := auth.NewService(st, tokens, s.logger)
	requireUser := auth.RequireUser(authSvc)

	api := &r.RouterGroup
	auth.NewHandler(authSvc).RegisterRoutes(api)
	users.NewHandler(users.NewService(st)).RegisterRoutes(api, requireUser)
	posts.NewHandler(posts.NewService(st)).RegisterRoutes(api, requireUser)
	votes.NewHandler(votes.NewService(st)).RegisterRoutes(api, requireUser)
	groups.NewHandler(groups.NewService(st)).RegisterRoutes(api, requireUser)
	members.NewHandler(members.NewService(st)).RegisterRoutes(api, requireUser)
}

// corsConfig allows every origin when origins is nil.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", observability.HeaderRequestID},
		ExposeHeaders: []string{observability.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if origins == nil {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("addr", srv.Addr), slog.String("env", s.cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
