package graph

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
)

// Config contains the centrality and community settings.
type Config struct {
	PageRank    PageRankConfig
	Partitioner Partitioner
}

// DefaultConfig returns default analysis settings.
func DefaultConfig() Config {
	return Config{
		PageRank:    DefaultPageRankConfig(),
		Partitioner: DefaultLouvain(),
	}
}

// Analyze computes centrality and communities for g. The graph is not
// modified. An empty graph yields empty maps and a skipped partition.
func Analyze(ctx context.Context, g *LinkGraph, cfg Config) (*Centrality, *Partition, error) {
	if g.Len() == 0 {
		return &Centrality{
				Degree:            map[string]float64{},
				Betweenness:       map[string]float64{},
				PageRank:          map[string]float64{},
				PageRankConverged: true,
			}, &Partition{
				Community: map[string]int{},
				Skipped:   true,
			}, nil
	}
	if cfg.Partitioner == nil {
		cfg.Partitioner = DefaultLouvain()
	}

	pr := PageRank(g, cfg.PageRank)
	if !pr.Converged {
		slog.Warn("pagerank did not converge",
			slog.Int("iterations", pr.Iterations),
			slog.Int("nodes", g.Len()))
	}
	cent := &Centrality{
		Degree:             DegreeCentrality(g),
		Betweenness:        BetweennessCentrality(g),
		PageRank:           pr.Scores,
		PageRankIterations: pr.Iterations,
		PageRankConverged:  pr.Converged,
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	part, err := cfg.Partitioner.Partition(ctx, ToUndirected(g))
	if err != nil {
		return nil, nil, errors.Wrap(err, "detect communities")
	}
	return cent, part, nil
}
