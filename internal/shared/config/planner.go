package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PlannerConfig contains all configuration for the gridplan planner.
type PlannerConfig struct {
	REST    RESTConfig    `mapstructure:"rest"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Submit  SubmitConfig  `mapstructure:"submit"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// RESTConfig contains REST API server configuration.
type RESTConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// SubmitConfig carries the submission defaults: how datasets are split, how
// outputs are named, and how the DAG description is written.
type SubmitConfig struct {
	UnitsPerJob      int    `mapstructure:"units_per_job"`
	GroupSize        int    `mapstructure:"group_size"`
	OutputDir        string `mapstructure:"output_dir"`
	LogDir           string `mapstructure:"log_dir"`
	OutputBase       string `mapstructure:"output_base"`
	Retries          int    `mapstructure:"retries"`
	StatusInterval   int    `mapstructure:"status_interval"`
	WorkerExecutable string `mapstructure:"worker_executable"`
	MergeTool        string `mapstructure:"merge_tool"`
}

// RunnerConfig configures local plan execution.
type RunnerConfig struct {
	Workers int    `mapstructure:"workers"`
	WorkDir string `mapstructure:"work_dir"`
}

// LoadPlanner loads the planner configuration from the given path.
// If configPath is empty, it looks for planner.yaml in the config/ directory.
// Environment variables with GRIDPLAN_ prefix override config file values.
func LoadPlanner(configPath string) (*PlannerConfig, error) {
	v := viper.New()

	v.SetDefault("rest.addr", ":8080")
	v.SetDefault("rest.read_timeout", 15*time.Second)
	v.SetDefault("rest.write_timeout", 15*time.Second)
	v.SetDefault("rest.idle_timeout", 60*time.Second)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("submit.units_per_job", 10)
	v.SetDefault("submit.group_size", 20)
	v.SetDefault("submit.output_dir", "output")
	v.SetDefault("submit.log_dir", "logs")
	v.SetDefault("submit.output_base", "output.root")
	v.SetDefault("submit.retries", 5)
	v.SetDefault("submit.status_interval", 30)
	v.SetDefault("submit.worker_executable", "gridplan-worker")
	v.SetDefault("submit.merge_tool", "hadd")
	v.SetDefault("runner.workers", 4)
	v.SetDefault("runner.work_dir", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("planner")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("GRIDPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg PlannerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &cfg, nil
}
