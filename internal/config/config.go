package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/FranksOps/serprank/internal/fingerprint"
	"github.com/FranksOps/serprank/internal/pipeline"
	"github.com/FranksOps/serprank/internal/report"
	"github.com/FranksOps/serprank/internal/serp"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. SERPRANK_ENGINE.
const EnvPrefix = "SERPRANK"

// Config stores all configuration for a run.
type Config struct {
	File          string `mapstructure:"file"`
	Rows          string `mapstructure:"rows"` // a count or "all"; empty prompts
	KeywordColumn string `mapstructure:"keyword-column"`
	URLColumn     string `mapstructure:"url-column"`
	RankColumn    string `mapstructure:"rank-column"`

	Engine     string        `mapstructure:"engine"`
	Endpoint   string        `mapstructure:"endpoint"` // overrides the engine's search URL
	MaxResults int           `mapstructure:"max-results"`
	RawLinks   bool          `mapstructure:"raw-links"`
	Delay      time.Duration `mapstructure:"delay"`
	OnError    string        `mapstructure:"on-error"`

	Timeout     time.Duration `mapstructure:"timeout"`
	Fingerprint string        `mapstructure:"fingerprint"`
	UserAgents  []string      `mapstructure:"user-agent"`
	RPS         float64       `mapstructure:"rps"`
	Jitter      float64       `mapstructure:"jitter"`

	Report      string `mapstructure:"report"`
	MetricsPort int    `mapstructure:"metrics-port"`
	LogLevel    string `mapstructure:"log-level"`
}

// SetDefaults registers the default of every key on v.
// Every key needs one so viper's Unmarshal consults its SERPRANK_* variable.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("file", "")
	v.SetDefault("rows", "")
	v.SetDefault("keyword-column", "")
	v.SetDefault("url-column", "")
	v.SetDefault("rank-column", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("raw-links", false)
	v.SetDefault("user-agent", []string{})
	v.SetDefault("rps", 0.0)
	v.SetDefault("jitter", 0.0)
	v.SetDefault("metrics-port", 0)
	v.SetDefault("engine", "google")
	v.SetDefault("max-results", serp.DefaultLimit)
	v.SetDefault("delay", pipeline.DefaultDelay)
	v.SetDefault("on-error", string(pipeline.Abort))
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("fingerprint", string(fingerprint.ProfileChrome))
	v.SetDefault("report", "text")
	v.SetDefault("log-level", "info")
}

// New returns a viper instance wired for SERPRANK_* variables, where a dash
// in a key becomes an underscore (max-results -> SERPRANK_MAX_RESULTS).
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the optional config file, binds flags and unmarshals the
// result. Precedence is flag, env, file, default.
func Load(v *viper.Viper, configFile string, flags *pflag.FlagSet) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values that do not depend on the input file.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(serp.Engines(), strings.ToLower(c.Engine)) {
		errs = append(errs, fmt.Errorf("%w: %q", serp.ErrUnknownEngine, c.Engine))
	}
	if c.Rows != "" {
		if _, err := pipeline.ParseRowLimit(c.Rows); err != nil {
			errs = append(errs, err)
		}
	}
	if c.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("max-results must be >= 0, got %d", c.MaxResults))
	}
	if c.Delay < 0 {
		errs = append(errs, fmt.Errorf("delay must be >= 0, got %s", c.Delay))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be > 0, got %s", c.Timeout))
	}
	if c.RPS < 0 {
		errs = append(errs, fmt.Errorf("rps must be >= 0, got %g", c.RPS))
	}
	if c.Jitter < 0 || c.Jitter > 1 {
		errs = append(errs, fmt.Errorf("jitter must be within [0, 1], got %g", c.Jitter))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics-port out of range: %d", c.MetricsPort))
	}
	if _, err := pipeline.ParsePolicy(c.OnError); err != nil {
		errs = append(errs, err)
	}
	if _, err := fingerprint.ParseProfile(c.Fingerprint); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(report.Formats(), c.Report) {
		errs = append(errs, fmt.Errorf("unknown report format %q (expected %s)", c.Report, strings.Join(report.Formats(), ", ")))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// PipelineConfig maps the run settings onto the row processor. Rows must be
// set by then. A zero delay disables pacing.
func (c *Config) PipelineConfig() (pipeline.Config, error) {
	policy, err := pipeline.ParsePolicy(c.OnError)
	if err != nil {
		return pipeline.Config{}, err
	}
	rows, err := pipeline.ParseRowLimit(c.Rows)
	if err != nil {
		return pipeline.Config{}, err
	}
	delay := c.Delay
	if delay == 0 {
		delay = -1
	}
	return pipeline.Config{
		RowLimit:   rows,
		Delay:      delay,
		MaxResults: c.MaxResults,
		OnError:    policy,
	}, nil
}
