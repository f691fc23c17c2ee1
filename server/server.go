// Package server assembles the HTTP server over the session engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/mazvydas/kasdien/internal/profile"
	"github.com/mazvydas/kasdien/plugin/questionsource"
	"github.com/mazvydas/kasdien/plugin/statsbackend"
	"github.com/mazvydas/kasdien/server/dayclock"
	"github.com/mazvydas/kasdien/server/router/apiv1"
	"github.com/mazvydas/kasdien/server/runner"
	"github.com/mazvydas/kasdien/server/service/session"
	"github.com/mazvydas/kasdien/server/service/stats"
	"github.com/mazvydas/kasdien/store"
)

// Server owns the echo instance and the background runners.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	clock      *dayclock.Clock
	reconciler *stats.Reconciler
	runner     *runner.Runner
}

// NewServer wires the engine, its collaborators and the API routes.
func NewServer(ctx context.Context, p *profile.Profile, st *store.Store) (*Server, error) {
	questionClient := questionsource.NewClient(&questionsource.Config{BaseURL: p.QuestionSourceURL})
	statsClient := statsbackend.NewClient(&statsbackend.Config{BaseURL: p.StatsBackendURL})

	var timeSource dayclock.TimeSource
	if p.TimeSyncEnabled {
		timeSource = questionClient
	}
	clock := dayclock.New(timeSource)
	clock.Sync(ctx)

	reconciler := stats.NewReconciler(st, statsClient, clock)
	engine := session.NewEngine(p, st, questionClient, clock, reconciler, slog.Default())

	echoServer := echo.New()
	echoServer.Debug = p.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(requestLogger())

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiService := apiv1.NewAPIV1Service(p, st, engine, reconciler, clock)
	apiService.Register(echoServer)

	return &Server{
		Profile:    p,
		Store:      st,
		echoServer: echoServer,
		clock:      clock,
		reconciler: reconciler,
		runner:     runner.NewRunner(clock, timeSource != nil),
	}, nil
}

// Start begins serving and launches the background runner.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", slog.String("address", address), slog.String("mode", s.Profile.Mode))

	go s.runner.Run(ctx)

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Shutdown stops the HTTP server, drains pending stats submissions and closes
// the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	s.reconciler.Drain()

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", slog.String("error", err.Error()))
	}

	slog.Info("kasdien stopped properly")
}

// requestLogger logs one structured line per request.
func requestLogger() echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			slog.Info("http request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Int64("latency_ms", v.Latency.Milliseconds()),
			)
			return nil
		},
	})
}
