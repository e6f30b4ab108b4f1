package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/internal/observability"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/internal/profile"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/export"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/taxonomy"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/trajectory"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/server/service/analysis"
)

// version is set at build time.
var version = "dev"

var (
	rootCmd = &cobra.Command{
		Use:           "discovery",
		Short:         "Research discovery engine: knowledge graph, gaps and trajectories from categorized Markdown",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	analyzeCmd = &cobra.Command{
		Use:   "analyze",
		Short: "Run the full pipeline and export every result table",
		RunE:  runAnalyze,
	}

	trajectoryCmd = &cobra.Command{
		Use:   "trajectory",
		Short: "Synthesize research trajectories between two concepts",
		RunE:  runTrajectory,
	}

	gapsCmd = &cobra.Command{
		Use:   "gaps",
		Short: "List knowledge gap candidates",
		RunE:  runGaps,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis report as a JSON API",
		RunE:  runServe,
	}
)

// app is the wiring shared by every command.
type app struct {
	profile *profile.Profile
	logger  *slog.Logger
	metrics *observability.Metrics
	service analysis.Service
}

func newApp(cmd *cobra.Command) (*app, error) {
	configFile, _ := cmd.Flags().GetString("config")
	p, err := profile.Load(viper.GetViper(), configFile)
	if err != nil {
		return nil, err
	}
	p.Version = version

	logger := observability.Setup(p.LogLevel, p.LogFormat)
	metrics := observability.NewMetrics()
	cfg, err := analysis.ConfigFromProfile(p)
	if err != nil {
		return nil, err
	}
	return &app{
		profile: p,
		logger:  logger,
		metrics: metrics,
		service: analysis.NewService(cfg, logger, metrics),
	}, nil
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	report, err := a.service.Run(ctx)
	if err != nil {
		return err
	}

	results := make([]*trajectory.Result, 0)
	res, err := a.service.Trajectory(ctx, trajectory.Query{Start: a.profile.TrajectoryStart, End: a.profile.TrajectoryEnd})
	if err != nil {
		return err
	}
	results = append(results, res)

	fromGaps, _ := cmd.Flags().GetInt("gap-trajectories")
	if fromGaps > 0 {
		suggested, err := a.service.GapTrajectories(ctx, taxonomy.Theory, taxonomy.Application, fromGaps)
		if err != nil {
			return err
		}
		results = append(results, suggested...)
	}

	paths, err := report.Export(export.NewWriter(a.profile.Output), results...)
	if err != nil {
		return err
	}
	for _, p := range paths {
		a.logger.Debug("wrote export file", slog.String("path", p))
	}
	summary := report.Summary()
	a.logger.Info("analysis exported",
		slog.String("output", a.profile.Output),
		slog.Int("files", len(paths)),
		slog.Int("concepts", summary.Concepts),
		slog.Int("edges", summary.Edges),
		slog.Int("gaps", summary.GapCandidates))
	return nil
}

func runTrajectory(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.service.Run(ctx); err != nil {
		return err
	}

	var results []*trajectory.Result
	fromGaps, _ := cmd.Flags().GetInt("from-gaps")
	if fromGaps > 0 {
		results, err = a.service.GapTrajectories(ctx, taxonomy.Theory, taxonomy.Application, fromGaps)
		if err != nil {
			return err
		}
	} else {
		res, err := a.service.Trajectory(ctx, trajectory.Query{Start: a.profile.TrajectoryStart, End: a.profile.TrajectoryEnd})
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	out := cmd.OutOrStdout()
	w := export.NewWriter(a.profile.Output)
	for _, res := range results {
		printTrajectory(out, res)
		if _, err := w.WriteTable(export.TrajectoryTable(res)); err != nil {
			return err
		}
	}
	return nil
}

func printTrajectory(out io.Writer, res *trajectory.Result) {
	fmt.Fprintf(out, "%s -> %s", res.Start, res.End)
	if res.Fallback {
		fmt.Fprintf(out, " (fallback: %s)", res.Reason)
	}
	if res.Truncated {
		fmt.Fprint(out, " (truncated)")
	}
	fmt.Fprintln(out)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tHOPS\tPATH")
	for i, p := range res.Paths {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, export.Round3(p.Score), p.Hops, p.String())
	}
	tw.Flush()
	if len(res.Bridges) > 0 {
		fmt.Fprintf(out, "bridges: %v\n", res.Bridges)
	}
	fmt.Fprintln(out)
}

func runGaps(cmd *cobra.Command, _ []string) error {
	where, _ := cmd.Flags().GetString("where")
	limit, _ := cmd.Flags().GetInt("limit")
	filter, err := gap.CompileFilter(where)
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	report, err := a.service.Run(cmd.Context())
	if err != nil {
		return err
	}
	candidates, err := gap.Top(report.Gaps.Candidates, filter, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tTARGET\tCATEGORIES\tTOPO\tCOOC\tBRIDGE\tSTRENGTH")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s/%s\t%d\t%s\t%s\t%s\n",
			c.Source, c.Target, c.SourceCategory, c.TargetCategory,
			c.Topological, export.Round3(c.Cooccurrence), export.Round3(c.Bridge), export.Round3(c.Strength))
	}
	return tw.Flush()
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if _, err := a.service.Run(ctx); err != nil {
		return err
	}
	return server.NewServer(a.profile, a.service, a.metrics, a.logger).Start(ctx)
}

func mustBind(key string, cmd *cobra.Command, flag string) {
	f := cmd.PersistentFlags().Lookup(flag)
	if f == nil {
		f = cmd.Flags().Lookup(flag)
	}
	if err := viper.BindPFlag(key, f); err != nil {
		panic(err)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./discovery.yaml if present)")
	pf.String("mode", "dev", `mode of the engine, can be "prod" or "dev"`)
	pf.String("corpus", ".", "directory holding the category Markdown documents")
	pf.String("output", "output", "directory export files are written to")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console, text, json (default: console in dev, json in prod)")
	mustBind("mode", rootCmd, "mode")
	mustBind("corpus", rootCmd, "corpus")
	mustBind("output", rootCmd, "output")
	mustBind("log.level", rootCmd, "log-level")
	mustBind("log.format", rootCmd, "log-format")

	for _, cmd := range []*cobra.Command{analyzeCmd, trajectoryCmd} {
		f := cmd.Flags()
		f.String("start", "", "trajectory start concept")
		f.String("end", "", "trajectory end concept")
		f.Int("max-hops", 0, "maximum edges per trajectory")
		f.Float64("min-weight", 0, "minimum co-occurrence weight of trajectory edges")
		f.Int("top-k", 0, "number of ranked trajectories to keep")
	}
	analyzeCmd.Flags().Int("gap-trajectories", 3, "also synthesize trajectories for the strongest Theory to Application gaps")
	trajectoryCmd.Flags().Int("from-gaps", 0, "synthesize trajectories for the N strongest Theory to Application gaps instead")

	gapsCmd.Flags().String("where", "", `CEL filter, e.g. 'strength > 2.0 && target_category == "Application"'`)
	gapsCmd.Flags().Int("limit", 20, "maximum candidates to print, 0 for all")

	serveCmd.Flags().String("addr", "", "address of the API server")
	serveCmd.Flags().Int("port", 8081, "port of the API server")

	rootCmd.AddCommand(analyzeCmd, trajectoryCmd, gapsCmd, serveCmd)
}

// bindCommandFlags binds the flags of the command being executed. Trajectory
// flags exist on two commands, so binding happens per invocation.
func bindCommandFlags(cmd *cobra.Command) {
	bindings := map[string]string{
		"start":      "trajectory.start",
		"end":        "trajectory.end",
		"max-hops":   "trajectory.max_hops",
		"min-weight": "trajectory.min_weight",
		"top-k":      "trajectory.top_k",
		"addr":       "addr",
		"port":       "port",
	}
	for flag, key := range bindings {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			mustBind(key, cmd, flag)
		}
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		bindCommandFlags(cmd)
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
