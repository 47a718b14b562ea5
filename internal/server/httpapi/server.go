// Package httpapi is the narrow HTTP boundary the chat front end calls.
// Identity arrives in trusted headers and becomes auth.Capabilities before
// any handler runs.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dmitrijs2005/clipvault/internal/logging"
	"github.com/dmitrijs2005/clipvault/internal/server/auth"
	"github.com/dmitrijs2005/clipvault/internal/server/pipeline"
	"github.com/dmitrijs2005/clipvault/internal/server/reconciler"
	"github.com/dmitrijs2005/clipvault/internal/server/services"
)

const shutdownTimeout = 10 * time.Second

type Uploader interface {
	Submit(ctx context.Context, caps auth.Capabilities, req pipeline.Request) (string, error)
}

type Files interface {
	List(ctx context.Context, caps auth.Capabilities, ownerID string) ([]services.FileView, error)
	Delete(ctx context.Context, caps auth.Capabilities, ownerID, logicalName string) error
}

type Admin interface {
	SetQuota(ctx context.Context, caps auth.Capabilities, ownerID string, limit uint) error
	SetFolder(ctx context.Context, caps auth.Capabilities, ownerID, folder string) error
	Usage(ctx context.Context, caps auth.Capabilities, ownerID string) (services.Usage, error)
	Reconcile(ctx context.Context, caps auth.Capabilities) (reconciler.Report, error)
}

// Roles maps front end role names to capabilities.
type Roles struct {
	Admin    string
	Uploader string
}

type Server struct {
	address string
	echo    *echo.Echo
	uploads Uploader
	files   Files
	admin   Admin
	roles   Roles
	logger  logging.Logger
}

func NewServer(address string, l logging.Logger, uploads Uploader, files Files, admin Admin, roles Roles) *Server {
	s := &Server{
		address: address,
		echo:    echo.New(),
		uploads: uploads,
		files:   files,
		admin:   admin,
		roles:   roles,
		logger:  l.With("module", "http_server"),
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupRoutes() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info(c.Request().Context(), "request",
				"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	e.GET("/healthz", s.health)

	api := e.Group("/api/v1", s.identity)
	api.POST("/uploads", s.submitUpload)
	api.GET("/owners/:owner/files", s.listFiles)
	api.DELETE("/owners/:owner/files/:name", s.deleteFile)
	api.GET("/owners/:owner/usage", s.usage)

	adm := api.Group("/admin")
	adm.PUT("/owners/:owner/quota", s.setQuota)
	adm.PUT("/owners/:owner/folder", s.setFolder)
	adm.POST("/reconcile", s.reconcile)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	s.echo.Listener = listen

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.echo.Shutdown(sctx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := s.echo.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
