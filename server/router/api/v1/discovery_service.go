package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/graph"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
	apierrors "github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/internal/errors"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/service/analysis"
)

// GetSummary returns the headline numbers of the current report.
// GET /api/v1/summary
func (s *APIV1Service) GetSummary(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, report.Summary())
}

type networkParams struct {
	Categories  []string `query:"category"`
	MinPageRank float64  `query:"min_pagerank" validate:"gte=0,lte=1"`
	Communities []int    `query:"community"`
}

// GetNetwork returns the link graph annotated for visualization.
// GET /api/v1/network?category=&min_pagerank=&community=
func (s *APIV1Service) GetNetwork(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	params := new(networkParams)
	if err := c.Bind(params); err != nil {
		return s.respondError(c, apierrors.InvalidArgument("invalid network filter"))
	}
	if err := c.Validate(params); err != nil {
		return s.respondError(c, apierrors.InvalidArgument(err.Error()))
	}
	categories, err := s.parseCategories(params.Categories)
	if err != nil {
		return s.respondError(c, err)
	}
	network := graph.ApplyFilter(report.Network, graph.NetworkFilter{
		Categories:  categories,
		MinPageRank: params.MinPageRank,
		Communities: params.Communities,
	})
	return c.JSON(http.StatusOK, network)
}

func (s *APIV1Service) parseCategories(names []string) ([]taxonomy.Category, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tax, err := s.Profile.Taxonomy()
	if err != nil {
		return nil, err
	}
	out := make([]taxonomy.Category, 0, len(names))
	for _, name := range names {
		c := taxonomy.Category(name)
		if _, ok := tax.Rank(c); !ok {
			return nil, apierrors.InvalidArgument("unknown category " + name).WithContext("category", name)
		}
		out = append(out, c)
	}
	return out, nil
}

// ListNodes returns the node master table, optionally restricted to categories.
// GET /api/v1/nodes?category=
func (s *APIV1Service) ListNodes(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	categories, err := s.parseCategories(c.QueryParams()["category"])
	if err != nil {
		return s.respondError(c, err)
	}
	if len(categories) == 0 {
		return c.JSON(http.StatusOK, report.Nodes)
	}
	nodes := make([]analysis.NodeRecord, 0)
	for _, n := range report.Nodes {
		for _, cat := range categories {
			if n.Category == cat {
				nodes = append(nodes, n)
				break
			}
		}
	}
	return c.JSON(http.StatusOK, nodes)
}

// GetNode returns one node master table row.
// GET /api/v1/nodes/:id
func (s *APIV1Service) GetNode(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	id := c.Param("id")
	node, ok := report.Node(id)
	if !ok {
		return s.respondError(c, apierrors.NotFound("concept not found: "+id))
	}
	return c.JSON(http.StatusOK, node)
}

type limitParams struct {
	Limit int `query:"limit" validate:"gte=0,lte=10000"`
}

// GetCentrality returns the most influential concepts by PageRank.
// GET /api/v1/centrality?limit=
func (s *APIV1Service) GetCentrality(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	params := &limitParams{Limit: s.Profile.ReportTopN}
	if err := c.Bind(params); err != nil {
		return s.respondError(c, apierrors.InvalidArgument("invalid limit"))
	}
	if err := c.Validate(params); err != nil {
		return s.respondError(c, apierrors.InvalidArgument(err.Error()))
	}
	return c.JSON(http.StatusOK, analysis.TopByPageRank(report.Nodes, params.Limit))
}

// CommunitiesResponse is the community partition of the link graph.
type CommunitiesResponse struct {
	Count      int                        `json:"count"`
	Modularity float64                    `json:"modularity"`
	Skipped    bool                       `json:"skipped,omitempty"`
	Members    []analysis.CommunityRecord `json:"members"`
}

// ListCommunities returns concepts grouped by community.
// GET /api/v1/communities
func (s *APIV1Service) ListCommunities(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, CommunitiesResponse{
		Count:      report.Partition.Count,
		Modularity: report.Partition.Modularity,
		Skipped:    report.Partition.Skipped,
		Members:    report.Communities,
	})
}

type gapParams struct {
	Where string `query:"where"`
	Limit int    `query:"limit" validate:"gte=0,lte=100000"`
}

// GapsResponse is a filtered page of gap candidates.
type GapsResponse struct {
	Total      int             `json:"total"`
	Filter     string          `json:"filter,omitempty"`
	Candidates []gap.Candidate `json:"candidates"`
}

// ListGaps returns ranked gap candidates matching an optional CEL filter,
// e.g. where=strength > 2.0 && target_category == "Application".
// GET /api/v1/gaps?where=&limit=
func (s *APIV1Service) ListGaps(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	params := new(gapParams)
	if err := c.Bind(params); err != nil {
		return s.respondError(c, apierrors.InvalidArgument("invalid gap query"))
	}
	if err := c.Validate(params); err != nil {
		return s.respondError(c, apierrors.InvalidArgument(err.Error()))
	}
	filter, err := gap.CompileFilter(params.Where)
	if err != nil {
		return s.respondError(c, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "invalid where expression"))
	}
	candidates, err := gap.Top(report.Gaps.Candidates, filter, params.Limit)
	if err != nil {
		return s.respondError(c, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "failed to evaluate where expression"))
	}
	return c.JSON(http.StatusOK, GapsResponse{
		Total:      len(report.Gaps.Candidates),
		Filter:     params.Where,
		Candidates: candidates,
	})
}

// GetGapAtlas returns the category×category opportunity matrix.
// GET /api/v1/gaps/atlas
func (s *APIV1Service) GetGapAtlas(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, report.Gaps.Atlas)
}

// GetInnovation returns the innovation strategy profile of every concept.
// GET /api/v1/innovation
func (s *APIV1Service) GetInnovation(c echo.Context) error {
	report, err := s.currentReport()
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, report.Innovation)
}
