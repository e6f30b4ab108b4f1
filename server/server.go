package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/internal/observability"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/internal/profile"
	apiv1 "github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/router/api/v1"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/service/analysis"
)

// Server serves the API over the analysis service.
type Server struct {
	Profile  *profile.Profile
	Analysis analysis.Service

	echoServer *echo.Echo
	logger     *slog.Logger
}

// NewServer creates a server and registers the API routes.
func NewServer(p *profile.Profile, svc analysis.Service, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	apiv1.NewAPIV1Service(p, svc, metrics, logger).Register(echoServer)

	return &Server{
		Profile:    p,
		Analysis:   svc,
		echoServer: echoServer,
		logger:     logger,
	}
}

// Handler exposes the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", slog.String("addr", addr), slog.String("mode", s.Profile.Mode))
		if err := s.echoServer.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrapf(err, "failed to start server on %s", addr)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	if err := s.echoServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shutdown server")
	}
	return nil
}
