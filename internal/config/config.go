// Package config loads the behave driver configuration.
//
// Precedence, highest first: explicit command-line flags, BEHAVE_* environment
// variables, the config file, built-in defaults.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/zeusync/behave/internal/core/observability/log"
)

const EnvPrefix = "BEHAVE"

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Loop      LoopConfig      `mapstructure:"loop"`
	Runner    RunnerConfig    `mapstructure:"runner"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Inspector InspectorConfig `mapstructure:"inspector"`
	Trees     []TreeConfig    `mapstructure:"trees"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type LoopConfig struct {
	// Tick is the frame interval of the driver.
	Tick time.Duration `mapstructure:"tick"`
	// MaxDT caps the delta handed to trees after a stall.
	MaxDT time.Duration `mapstructure:"max_dt"`
}

type RunnerConfig struct {
	// Workers bounds parallel tree ticks; 0 means one goroutine per tree.
	Workers int `mapstructure:"workers"`
}

type MetricsConfig struct {
	// Addr of the /metrics listener; empty disables it.
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
	Runtime   bool   `mapstructure:"runtime"`
}

type InspectorConfig struct {
	// Addr of the /ws listener; empty disables it.
	Addr string `mapstructure:"addr"`
	// Every broadcasts one frame out of Every ticks.
	Every int `mapstructure:"every"`
}

// TreeConfig spawns Count trees (at least one) from the definition file at Path.
type TreeConfig struct {
	Path  string `mapstructure:"path"`
	Count int    `mapstructure:"count"`
}

func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info"},
		Loop:      LoopConfig{Tick: 50 * time.Millisecond, MaxDT: 250 * time.Millisecond},
		Runner:    RunnerConfig{Workers: 0},
		Metrics:   MetricsConfig{Addr: ":9090", Namespace: "behave", Runtime: true},
		Inspector: InspectorConfig{Addr: ":8080", Every: 1},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("loop.tick", d.Loop.Tick)
	v.SetDefault("loop.max_dt", d.Loop.MaxDT)
	v.SetDefault("runner.workers", d.Runner.Workers)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.runtime", d.Metrics.Runtime)
	v.SetDefault("inspector.addr", d.Inspector.Addr)
	v.SetDefault("inspector.every", d.Inspector.Every)
}

// Flags registers the command-line flags Load understands.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to config file (env "+EnvPrefix+"_CONFIG)")
	fs.String("log.level", "", "log level: debug, info, warn, error, silent")
	fs.Duration("loop.tick", 0, "frame interval")
	fs.Int("runner.workers", 0, "parallel tree ticks, 0 for unbounded")
	fs.String("metrics.addr", "", "metrics listen address")
	fs.String("inspector.addr", "", "inspector websocket listen address")
	return fs
}

// Load parses args with fs (see Flags) and resolves the configuration.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, errors.Wrap(err, "parse flags")
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	// Only flags that were set on the command line take precedence.
	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || !f.Changed {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = errors.CombineErrors(bindErr, err)
		}
	})
	if bindErr != nil {
		return nil, errors.Wrap(bindErr, "bind flags")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(ErrInvalid, "log.level: %v", err)
	}
	if c.Loop.Tick <= 0 {
		return errors.Wrapf(ErrInvalid, "loop.tick must be positive, got %s", c.Loop.Tick)
	}
	if c.Loop.MaxDT < 0 {
		return errors.Wrapf(ErrInvalid, "loop.max_dt must not be negative, got %s", c.Loop.MaxDT)
	}
	if c.Runner.Workers < 0 {
		return errors.Wrapf(ErrInvalid, "runner.workers must not be negative, got %d", c.Runner.Workers)
	}
	if c.Metrics.Addr != "" && c.Metrics.Namespace == "" {
		return errors.Wrap(ErrInvalid, "metrics.namespace is required when metrics are served")
	}
	if c.Inspector.Every < 1 {
		return errors.Wrapf(ErrInvalid, "inspector.every must be at least 1, got %d", c.Inspector.Every)
	}
	for i, t := range c.Trees {
		if t.Path == "" {
			return errors.Wrapf(ErrInvalid, "trees[%d].path is empty", i)
		}
		if t.Count < 0 {
			return errors.Wrapf(ErrInvalid, "trees[%d].count must not be negative", i)
		}
	}
	return nil
}
