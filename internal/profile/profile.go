package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/graph"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/trajectory"
)

// Profile is the configuration of one engine invocation.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Corpus is the directory holding one Markdown document per category
	Corpus string
	// Output is the directory export files are written to
	Output string
	// Addr is the binding address for the API server
	Addr string
	// Port is the binding port for the API server
	Port int
	// Version is the current version of the engine
	Version string

	LogLevel  string // DISCOVERY_LOG_LEVEL (default: info)
	LogFormat string // DISCOVERY_LOG_FORMAT (default: console in dev, json in prod)

	// Categories overrides the default taxonomy when set.
	Categories []taxonomy.Spec
	PageRank   graph.PageRankConfig
	Community  graph.Louvain
	Gaps       gap.Config
	// Bridges overrides the default bridge table when set.
	Bridges    []taxonomy.BridgeRule
	Trajectory trajectory.Config

	// TrajectoryStart and TrajectoryEnd name the default trajectory query.
	TrajectoryStart string
	TrajectoryEnd   string

	// ReportTopN bounds the centrality ranking table.
	ReportTopN int

	Server ServerConfig
}

// ServerConfig contains API server settings.
type ServerConfig struct {
	RateLimit float64       // trajectory requests per second per client
	Burst     int           // rate limiter burst
	CacheSize int           // cached trajectory results
	CacheTTL  time.Duration // lifetime of a cached trajectory result
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// Taxonomy returns the configured category taxonomy.
func (p *Profile) Taxonomy() (*taxonomy.Taxonomy, error) {
	if len(p.Categories) == 0 {
		return taxonomy.Default(), nil
	}
	return taxonomy.New(p.Categories)
}

// BridgeTable returns the configured bridge table.
func (p *Profile) BridgeTable() (*taxonomy.BridgeTable, error) {
	if len(p.Bridges) == 0 {
		return taxonomy.DefaultBridgeTable(), nil
	}
	return taxonomy.NewBridgeTable(p.Bridges)
}

// GraphConfig returns the centrality and community settings.
func (p *Profile) GraphConfig() graph.Config {
	return graph.Config{PageRank: p.PageRank, Partitioner: p.Community}
}

func checkCorpusDir(corpusDir string) (string, error) {
	if corpusDir == "" {
		return "", errors.New("corpus directory is required")
	}
	// Convert to absolute path if relative path is supplied.
	absDir, err := filepath.Abs(corpusDir)
	if err != nil {
		return "", errors.Wrapf(err, "unable to resolve corpus folder %s", corpusDir)
	}

	// Trim trailing \ or / in case user supplies
	absDir = strings.TrimRight(absDir, "\\/")
	info, err := os.Stat(absDir)
	if err != nil {
		return "", errors.Wrapf(err, "unable to access corpus folder %s", absDir)
	}
	if !info.IsDir() {
		return "", errors.Errorf("corpus path %s is not a directory", absDir)
	}
	return absDir, nil
}

// Validate normalizes the profile and checks that every setting is usable.
func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}
	if p.LogFormat == "" {
		p.LogFormat = "console"
		if !p.IsDev() {
			p.LogFormat = "json"
		}
	}

	corpusDir, err := checkCorpusDir(p.Corpus)
	if err != nil {
		slog.Error("failed to check corpus", slog.String("corpus", p.Corpus), slog.String("error", err.Error()))
		return err
	}
	p.Corpus = corpusDir

	if p.Output == "" {
		p.Output = "output"
	}
	if p.Port < 0 || p.Port > 65535 {
		return errors.Errorf("invalid port %d", p.Port)
	}

	if p.PageRank.Damping <= 0 || p.PageRank.Damping >= 1 {
		return errors.Errorf("centrality.damping must be in (0, 1), got %g", p.PageRank.Damping)
	}
	if p.PageRank.Tolerance <= 0 {
		return errors.Errorf("centrality.tolerance must be positive, got %g", p.PageRank.Tolerance)
	}
	if p.PageRank.MaxIterations <= 0 {
		return errors.Errorf("centrality.max_iterations must be positive, got %d", p.PageRank.MaxIterations)
	}
	if p.Community.Resolution <= 0 {
		return errors.Errorf("community.resolution must be positive, got %g", p.Community.Resolution)
	}
	if p.Gaps.Threshold < 0 || p.Gaps.TopologyWeight < 0 || p.Gaps.CooccurrenceWeight < 0 {
		return errors.New("gaps threshold and weights must not be negative")
	}
	if err := p.Trajectory.Validate(); err != nil {
		return errors.Wrap(err, "invalid trajectory settings")
	}
	if p.ReportTopN <= 0 {
		return errors.Errorf("report.top_n must be positive, got %d", p.ReportTopN)
	}
	if p.Server.RateLimit <= 0 || p.Server.Burst <= 0 {
		return errors.New("server.rate_limit and server.burst must be positive")
	}

	tax, err := p.Taxonomy()
	if err != nil {
		return errors.Wrap(err, "invalid taxonomy")
	}
	bridges, err := p.BridgeTable()
	if err != nil {
		return errors.Wrap(err, "invalid bridge table")
	}
	if err := bridges.Validate(tax); err != nil {
		return errors.Wrap(err, "invalid bridge table")
	}
	return nil
}
