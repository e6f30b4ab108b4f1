package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/trajectory"
	apierrors "github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/internal/errors"
)

type trajectoryParams struct {
	Start     string  `query:"start" validate:"required"`
	End       string  `query:"end" validate:"required"`
	MaxHops   int     `query:"max_hops" validate:"gte=1,lte=8"`
	MinWeight float64 `query:"min_weight" validate:"gte=0,lt=1"`
	TopK      int     `query:"top_k" validate:"gte=0,lte=1000"`
}

// GetTrajectory synthesizes ranked research trajectories between two
// concepts. Omitted parameters take the configured defaults; missing
// endpoints yield the fallback path rather than an error.
// GET /api/v1/trajectories?start=&end=&max_hops=&min_weight=&top_k=
func (s *APIV1Service) GetTrajectory(c echo.Context) error {
	cfg := s.Profile.Trajectory
	params := &trajectoryParams{
		Start:     s.Profile.TrajectoryStart,
		End:       s.Profile.TrajectoryEnd,
		MaxHops:   cfg.MaxHops,
		MinWeight: cfg.MinWeight,
		TopK:      cfg.TopK,
	}
	if err := c.Bind(params); err != nil {
		return s.respondError(c, apierrors.InvalidArgument("invalid trajectory query"))
	}
	if err := c.Validate(params); err != nil {
		return s.respondError(c, apierrors.InvalidArgument(err.Error()))
	}

	q := trajectory.Query{Start: params.Start, End: params.End}
	if params.MaxHops != cfg.MaxHops || params.MinWeight != cfg.MinWeight || params.TopK != cfg.TopK {
		custom := cfg
		custom.MaxHops = params.MaxHops
		custom.MinWeight = params.MinWeight
		custom.TopK = params.TopK
		q.Config = &custom
	}

	res, err := s.Analysis.Trajectory(c.Request().Context(), q)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
