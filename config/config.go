package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug         = "debug"
	ConfigRounds        = "rounds"
	ConfigThreads       = "threads"
	ConfigShowProgress  = "show-progress"
	ConfigRoundLogFile  = "round-log-file"
	ConfigWalkSteps     = "walk-steps"
	ConfigWalkRank      = "walk-rank"
	ConfigFrontierPlies = "frontier-plies"
	ConfigCPUProfile    = "cpu-profile"
	ConfigMemProfile    = "mem-profile"
	ConfigFile          = "config"
)

// MaxRounds bounds the round budget; no position needs more plies than this
// to be resolved.
const MaxRounds = 1000

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	*viper.Viper
}

func DefaultConfig() *Config {
	c := &Config{Viper: viper.New()}
	c.SetDefault(ConfigDebug, false)
	c.SetDefault(ConfigRounds, 140)
	c.SetDefault(ConfigThreads, runtime.NumCPU())
	c.SetDefault(ConfigShowProgress, false)
	c.SetDefault(ConfigRoundLogFile, "")
	c.SetDefault(ConfigWalkSteps, 9)
	c.SetDefault(ConfigWalkRank, 1)
	c.SetDefault(ConfigFrontierPlies, 42)
	c.SetDefault(ConfigCPUProfile, "")
	c.SetDefault(ConfigMemProfile, "")
	return c
}

// Load reads settings from args, then STACKRING_* environment variables,
// then an optional config file. Flags win over everything else. Arguments
// that are not flags are returned.
func (c *Config) Load(args []string) ([]string, error) {
	if c.Viper == nil {
		c.Viper = DefaultConfig().Viper
	}
	fs := pflag.NewFlagSet("stackring", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, c.GetBool(ConfigDebug), "debug logging on")
	fs.Int(ConfigRounds, c.GetInt(ConfigRounds), "maximum number of backward rounds")
	fs.Int(ConfigThreads, c.GetInt(ConfigThreads), "worker goroutines per round")
	fs.Bool(ConfigShowProgress, c.GetBool(ConfigShowProgress), "report solver progress")
	fs.String(ConfigRoundLogFile, c.GetString(ConfigRoundLogFile), "write a YAML log of every round to this file")
	fs.Int(ConfigWalkSteps, c.GetInt(ConfigWalkSteps), "plies shown by the walk report")
	fs.Int(ConfigWalkRank, c.GetInt(ConfigWalkRank), "which best action to follow (0 is the best)")
	fs.Int(ConfigFrontierPlies, c.GetInt(ConfigFrontierPlies), "plies counted by the frontier report")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this file")
	fs.String(ConfigMemProfile, "", "write a memory profile to this file")
	fs.String(ConfigFile, "", "optional config file (yaml, json or toml)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	c.SetEnvPrefix("stackring")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path, _ := fs.GetString(ConfigFile); path != "" {
		c.SetConfigFile(path)
		if err := c.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}
	// only flags the user actually set override env and file values
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == ConfigFile || err != nil {
			return
		}
		err = c.BindPFlag(f.Name, f)
	})
	if err != nil {
		return nil, err
	}
	return fs.Args(), c.Validate()
}

func (c *Config) Validate() error {
	if r := c.GetInt(ConfigRounds); r < 1 || r > MaxRounds {
		return fmt.Errorf("%w: rounds must be in 1..%d, got %d", ErrInvalidConfig, MaxRounds, r)
	}
	if t := c.GetInt(ConfigThreads); t < 1 {
		return fmt.Errorf("%w: threads must be positive, got %d", ErrInvalidConfig, t)
	}
	if s := c.GetInt(ConfigWalkSteps); s < 0 {
		return fmt.Errorf("%w: walk-steps must not be negative, got %d", ErrInvalidConfig, s)
	}
	if r := c.GetInt(ConfigWalkRank); r < 0 {
		return fmt.Errorf("%w: walk-rank must not be negative, got %d", ErrInvalidConfig, r)
	}
	if p := c.GetInt(ConfigFrontierPlies); p < 0 {
		return fmt.Errorf("%w: frontier-plies must not be negative, got %d", ErrInvalidConfig, p)
	}
	return nil
}

// SanitizedSettings returns every setting for logging.
func (c *Config) SanitizedSettings() map[string]any {
	return c.AllSettings()
}
