// Package v1 serves a computed discovery report as a read-only JSON API.
package v1

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/internal/observability"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/internal/profile"
	apierrors "github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/internal/errors"
	mid "github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/middleware"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/service/analysis"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Analysis analysis.Service
	Metrics  *observability.Metrics
	Logger   *slog.Logger

	limiter *mid.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, analysisService analysis.Service, metrics *observability.Metrics, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIV1Service{
		Profile:  profile,
		Analysis: analysisService,
		Metrics:  metrics,
		Logger:   logger,
		limiter:  mid.NewRateLimiter(profile.Server.RateLimit, profile.Server.Burst),
	}
}

// CustomValidator adapts go-playground/validator to echo.
type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    apierrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// Register installs middleware and routes on echoServer.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	echoServer.Validator = &CustomValidator{validator: validator.New()}
	echoServer.Use(middleware.Recover())
	echoServer.Use(mid.Metrics(s.Metrics))
	echoServer.Use(mid.RequestLogger(s.Logger))
	echoServer.Use(middleware.CORS())

	echoServer.GET("/healthz", s.Healthz)
	echoServer.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	api := echoServer.Group("/api/v1")
	api.GET("/summary", s.GetSummary)
	api.GET("/network", s.GetNetwork)
	api.GET("/nodes", s.ListNodes)
	api.GET("/nodes/:id", s.GetNode)
	api.GET("/centrality", s.GetCentrality)
	api.GET("/communities", s.ListCommunities)
	api.GET("/gaps", s.ListGaps)
	api.GET("/gaps/atlas", s.GetGapAtlas)
	api.GET("/innovation", s.GetInnovation)
	api.GET("/trajectories", s.GetTrajectory, s.limiter.Middleware())
}

// HealthResponse reports liveness and whether a report is loaded.
type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
	RunID  string `json:"run_id,omitempty"`
}

// Healthz returns the service health.
// GET /healthz
func (s *APIV1Service) Healthz(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if report, ok := s.Analysis.Report(); ok {
		resp.Ready = true
		resp.RunID = report.RunID
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) currentReport() (*analysis.Report, error) {
	report, ok := s.Analysis.Report()
	if !ok {
		return nil, apierrors.ReportUnavailable(analysis.ErrNoReport)
	}
	return report, nil
}

// respondError writes err as an ErrorResponse with the matching status.
func (s *APIV1Service) respondError(c echo.Context, err error) error {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			apiErr = apierrors.ContextCanceled(err)
		case errors.Is(err, analysis.ErrNoReport):
			apiErr = apierrors.ReportUnavailable(err)
		default:
			apiErr = apierrors.Wrap(err, apierrors.ErrCodeInternal, "internal error")
		}
	}
	if apiErr.Code == apierrors.ErrCodeInternal {
		s.Logger.Error("request failed",
			slog.String("path", c.Path()),
			slog.String(observability.LogFieldErrorCode, string(apiErr.Code)),
			slog.String("error", err.Error()))
	}
	return c.JSON(apiErr.HTTPStatus(), ErrorResponse{Code: apiErr.Code, Message: apiErr.Message})
}
