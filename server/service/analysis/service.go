// Package analysis runs the discovery pipeline over a corpus snapshot and
// serves trajectory queries against the latest report.
//
// A run loads the category documents, extracts the concept registry, builds
// the link graph and the co-occurrence matrix, annotates the graph with
// centrality and communities, scores knowledge gaps and profiles innovation
// strategies. The graph is never mutated; every stage returns a new value
// and the service merges them into an immutable Report.
package analysis

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/internal/observability"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/internal/profile"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cache"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/cooccurrence"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/corpus"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/graph"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/innovation"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/trajectory"
)

// ErrNoReport is returned by queries issued before the first successful run.
var ErrNoReport = errors.New("no analysis report available")

// Service runs the pipeline and answers queries against its latest report.
type Service interface {
	// Run recomputes the report from the corpus and makes it current.
	Run(ctx context.Context) (*Report, error)

	// Report returns the current report, if any.
	Report() (*Report, bool)

	// Trajectory answers a trajectory query against the current report.
	// Identical concurrent queries share one computation and results are
	// cached until the next run.
	Trajectory(ctx context.Context, q trajectory.Query) (*trajectory.Result, error)

	// GapTrajectories synthesizes a trajectory for each of the n strongest
	// gap candidates leading from one category to another.
	GapTrajectories(ctx context.Context, from, to taxonomy.Category, n int) ([]*trajectory.Result, error)
}

// Config contains the pipeline settings.
type Config struct {
	CorpusDir  string
	Taxonomy   *taxonomy.Taxonomy
	Bridges    *taxonomy.BridgeTable
	Graph      graph.Config
	Gaps       gap.Config
	Trajectory trajectory.Config
	TopN       int
	CacheSize  int
	CacheTTL   time.Duration
}

// ConfigFromProfile builds the pipeline settings of a validated profile.
func ConfigFromProfile(p *profile.Profile) (Config, error) {
	tax, err := p.Taxonomy()
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid taxonomy")
	}
	bridges, err := p.BridgeTable()
	if err != nil {
		return Config{}, errors.Wrap(err, "invalid bridge table")
	}
	return Config{
		CorpusDir:  p.Corpus,
		Taxonomy:   tax,
		Bridges:    bridges,
		Graph:      p.GraphConfig(),
		Gaps:       p.Gaps,
		Trajectory: p.Trajectory,
		TopN:       p.ReportTopN,
		CacheSize:  p.Server.CacheSize,
		CacheTTL:   p.Server.CacheTTL,
	}, nil
}

type service struct {
	config  Config
	logger  *slog.Logger
	metrics *observability.Metrics

	// runMu serializes runs; queries read current without locking.
	runMu   sync.Mutex
	current atomic.Pointer[Report]

	flight singleflight.Group
	cache  *cache.LRU[*trajectory.Result]
}

// NewService creates an analysis service. logger and metrics may be nil.
func NewService(config Config, logger *slog.Logger, metrics *observability.Metrics) Service {
	if config.Taxonomy == nil {
		config.Taxonomy = taxonomy.Default()
	}
	if config.Bridges == nil {
		config.Bridges = taxonomy.DefaultBridgeTable()
	}
	if config.Graph.Partitioner == nil {
		config.Graph = graph.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		config:  config,
		logger:  logger,
		metrics: metrics,
		cache:   cache.NewLRU[*trajectory.Result](config.CacheSize, config.CacheTTL),
	}
}

func (s *service) Run(ctx context.Context) (*Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	rc := observability.NewRunContext(s.logger, s.metrics, "analyze")
	ctx = observability.WithRunContext(ctx, rc)
	rc.Info("analysis started", slog.String("corpus", s.config.CorpusDir))

	report, err := s.run(ctx, rc)
	if err != nil {
		s.metrics.RecordRun("error")
		rc.Error("analysis failed", err)
		return nil, err
	}

	s.current.Store(report)
	s.cache.Clear()
	s.metrics.RecordRun("ok")
	summary := report.Summary()
	s.metrics.SetReportSize(summary.Concepts, summary.Edges, summary.Communities, summary.GapCandidates)
	rc.Info("analysis completed",
		slog.Int("concepts", summary.Concepts),
		slog.Int("edges", summary.Edges),
		slog.Int("communities", summary.Communities),
		slog.Int("gaps", summary.GapCandidates),
		slog.Int64(observability.LogFieldDuration, rc.DurationMs()))
	return report, nil
}

func (s *service) run(ctx context.Context, rc *observability.RunContext) (*Report, error) {
	cfg := s.config

	done := rc.Stage("load")
	docs, err := corpus.LoadDir(ctx, cfg.CorpusDir, cfg.Taxonomy)
	if err != nil {
		return nil, err
	}
	for _, w := range docs.Warnings {
		rc.Warn("category document missing",
			slog.String("category", string(w.Category)),
			slog.String("file", w.File))
	}
	done(slog.Int("documents", len(docs.Documents)))

	done = rc.Stage("registry")
	reg := corpus.ExtractRegistry(docs.Documents)
	done(slog.Int("concepts", reg.Len()))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = rc.Stage("graph")
	g := graph.Build(docs.Documents, reg)
	done(slog.Int("edges", g.EdgeCount()))

	done = rc.Stage("cooccurrence")
	abundance := cooccurrence.BuildAbundance(docs.Documents, reg)
	matrix := cooccurrence.FromAbundance(abundance)
	done(slog.Int("concepts", matrix.Len()), slog.Int("documents", len(abundance.Documents)))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done = rc.Stage("centrality")
	cent, part, err := graph.Analyze(ctx, g, cfg.Graph)
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze graph")
	}
	done(slog.Int("communities", part.Count), slog.Bool("pagerank_converged", cent.PageRankConverged))

	done = rc.Stage("gaps")
	scorer := gap.NewScorer(cfg.Gaps, cfg.Taxonomy, cfg.Bridges)
	gaps, err := scorer.Score(ctx, gap.Input{Graph: g, Matrix: matrix, Registry: reg})
	if err != nil {
		return nil, errors.Wrap(err, "failed to score gaps")
	}
	done(slog.Int("candidates", len(gaps.Candidates)), slog.Bool("skipped", gaps.Skipped))

	done = rc.Stage("innovation")
	inno := innovation.Analyze(matrix, reg, cent.PageRank)
	done(slog.Int("concepts", len(inno.Scores)))

	nodes := nodeRecords(reg, cent, part, inno, gaps)
	report := &Report{
		RunID:         rc.RunID,
		GeneratedAt:   time.Now().UTC(),
		Registry:      reg,
		Graph:         g,
		Abundance:     abundance,
		Matrix:        matrix,
		Centrality:    cent,
		Partition:     part,
		Network:       graph.NewNetwork(g, reg, cent, part),
		Nodes:         nodes,
		TopCentrality: TopByPageRank(nodes, cfg.TopN),
		Communities:   communityRecords(nodes),
		Gaps:          gaps,
		Innovation:    inno,
		Warnings:      docs.Warnings,
		Categories:    cfg.Taxonomy.Categories(),
	}
	report.synthesizer = trajectory.NewSynthesizer(
		trajectory.Input{Graph: g, Matrix: matrix, Registry: reg},
		cfg.Trajectory,
		cfg.Taxonomy,
	)
	return report, nil
}

func (s *service) Report() (*Report, bool) {
	r := s.current.Load()
	return r, r != nil
}

func (s *service) Trajectory(ctx context.Context, q trajectory.Query) (*trajectory.Result, error) {
	report, ok := s.Report()
	if !ok {
		return nil, ErrNoReport
	}
	key := report.RunID + "\x00" + q.Key()
	if res, ok := s.cache.Get(key); ok {
		s.metrics.RecordTrajectory(observability.OutcomeCached, 0)
		return res, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		start := time.Now()
		res, err := report.Synthesizer().Synthesize(ctx, q)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, res)

		outcome := observability.OutcomeFound
		if res.Fallback {
			outcome = observability.OutcomeFallback
		}
		s.metrics.RecordTrajectory(outcome, res.Enumerated)
		s.logger.Debug("trajectory synthesized",
			slog.String(observability.LogFieldRunID, report.RunID),
			slog.String("start", q.Start),
			slog.String("end", q.End),
			slog.Int("enumerated", res.Enumerated),
			slog.Bool("fallback", res.Fallback),
			slog.Bool("truncated", res.Truncated),
			slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()))
		return res, nil
	})
	if err != nil {
		s.metrics.RecordTrajectory(observability.OutcomeError, 0)
		return nil, err
	}
	return v.(*trajectory.Result), nil
}

func (s *service) GapTrajectories(ctx context.Context, from, to taxonomy.Category, n int) ([]*trajectory.Result, error) {
	report, ok := s.Report()
	if !ok {
		return nil, ErrNoReport
	}
	endpoints := trajectory.SuggestEndpoints(report.Gaps.Candidates, from, to, n)
	results := make([]*trajectory.Result, 0, len(endpoints))
	for _, e := range endpoints {
		res, err := s.Trajectory(ctx, trajectory.Query{Start: e.Start, End: e.End})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to synthesize trajectory %s -> %s", e.Start, e.End)
		}
		results = append(results, res)
	}
	return results, nil
}
