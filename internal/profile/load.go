package profile

import (
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/gap"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/graph"
	"github.com/ActiveInferenceInstitute/Research-Discovery-Engine/plugin/trajectory"
)

// EnvPrefix is the prefix of environment variables, e.g. DISCOVERY_CORPUS.
const EnvPrefix = "discovery"

// DefaultConfigName is the config file looked up in the working directory.
const DefaultConfigName = "discovery"

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	pr := graph.DefaultPageRankConfig()
	louvain := graph.DefaultLouvain()
	gaps := gap.DefaultConfig()
	traj := trajectory.DefaultConfig()

	v.SetDefault("mode", "dev")
	v.SetDefault("corpus", ".")
	v.SetDefault("output", "output")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "")

	v.SetDefault("centrality.damping", pr.Damping)
	v.SetDefault("centrality.tolerance", pr.Tolerance)
	v.SetDefault("centrality.max_iterations", pr.MaxIterations)
	v.SetDefault("community.seed", louvain.Seed)
	v.SetDefault("community.resolution", louvain.Resolution)

	v.SetDefault("gaps.threshold", gaps.Threshold)
	v.SetDefault("gaps.topology_weight", gaps.TopologyWeight)
	v.SetDefault("gaps.cooccurrence_weight", gaps.CooccurrenceWeight)

	v.SetDefault("trajectory.max_hops", traj.MaxHops)
	v.SetDefault("trajectory.min_weight", traj.MinWeight)
	v.SetDefault("trajectory.top_k", traj.TopK)
	v.SetDefault("trajectory.max_paths", traj.MaxPaths)
	v.SetDefault("trajectory.start", "nanowires")
	v.SetDefault("trajectory.end", "neuromorphic-computing--hardware")

	v.SetDefault("report.top_n", 20)

	v.SetDefault("server.rate_limit", 5.0)
	v.SetDefault("server.burst", 10)
	v.SetDefault("server.cache_size", 256)
	v.SetDefault("server.cache_ttl", "10m")
}

// LoadDotEnv loads environment variables from path when the file exists.
func LoadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil {
		slog.Debug("no dotenv file loaded", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// ReadConfig wires environment variables into v and reads configFile. An
// empty configFile looks for discovery.yaml in the working directory and
// tolerates its absence.
func ReadConfig(v *viper.Viper, configFile string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "failed to read config file %s", configFile)
		}
		return nil
	}

	v.SetConfigName(DefaultConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return errors.Wrap(err, "failed to read config file")
	}
	return nil
}

// FromViper builds a profile from the resolved settings of v.
func FromViper(v *viper.Viper) (*Profile, error) {
	p := &Profile{
		Mode:      v.GetString("mode"),
		Corpus:    v.GetString("corpus"),
		Output:    v.GetString("output"),
		Addr:      v.GetString("addr"),
		Port:      v.GetInt("port"),
		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		PageRank: graph.PageRankConfig{
			Damping:       v.GetFloat64("centrality.damping"),
			Tolerance:     v.GetFloat64("centrality.tolerance"),
			MaxIterations: v.GetInt("centrality.max_iterations"),
		},
		Community: graph.Louvain{
			Seed:       v.GetInt64("community.seed"),
			Resolution: v.GetFloat64("community.resolution"),
		},
		Gaps: gap.Config{
			Threshold:          v.GetFloat64("gaps.threshold"),
			TopologyWeight:     v.GetFloat64("gaps.topology_weight"),
			CooccurrenceWeight: v.GetFloat64("gaps.cooccurrence_weight"),
		},
		TrajectoryStart: v.GetString("trajectory.start"),
		TrajectoryEnd:   v.GetString("trajectory.end"),
		ReportTopN:      v.GetInt("report.top_n"),
		Server: ServerConfig{
			RateLimit: v.GetFloat64("server.rate_limit"),
			Burst:     v.GetInt("server.burst"),
			CacheSize: v.GetInt("server.cache_size"),
			CacheTTL:  v.GetDuration("server.cache_ttl"),
		},
	}

	p.Trajectory = trajectory.DefaultConfig()
	p.Trajectory.MaxHops = v.GetInt("trajectory.max_hops")
	p.Trajectory.MinWeight = v.GetFloat64("trajectory.min_weight")
	p.Trajectory.TopK = v.GetInt("trajectory.top_k")
	p.Trajectory.MaxPaths = v.GetInt("trajectory.max_paths")

	// Lists only come from the config file.
	if v.IsSet("taxonomy.categories") {
		if err := v.UnmarshalKey("taxonomy.categories", &p.Categories); err != nil {
			return nil, errors.Wrap(err, "failed to decode taxonomy.categories")
		}
	}
	if v.IsSet("gaps.bridges") {
		if err := v.UnmarshalKey("gaps.bridges", &p.Bridges); err != nil {
			return nil, errors.Wrap(err, "failed to decode gaps.bridges")
		}
	}
	return p, nil
}

// Load resolves defaults, .env, config file and environment into a
// validated profile. Flags must already be bound to v.
func Load(v *viper.Viper, configFile string) (*Profile, error) {
	LoadDotEnv(".env")
	SetDefaults(v)
	if err := ReadConfig(v, configFile); err != nil {
		return nil, err
	}
	p, err := FromViper(v)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
