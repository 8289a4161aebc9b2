package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestDefaults(t *testing.T) {
	is := is.New(t)
	cfg := DefaultConfig()
	rest, err := cfg.Load(nil)
	is.NoErr(err)
	is.Equal(len(rest), 0)
	is.Equal(cfg.GetInt(ConfigRounds), 140)
	is.Equal(cfg.GetInt(ConfigWalkRank), 1)
	is.Equal(cfg.GetInt(ConfigWalkSteps), 9)
	is.Equal(cfg.GetInt(ConfigFrontierPlies), 42)
	is.True(cfg.GetInt(ConfigThreads) >= 1)
	is.True(!cfg.GetBool(ConfigDebug))
}

func TestFlagsAndEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("STACKRING_WALK_STEPS", "4")
	t.Setenv("STACKRING_ROUNDS", "77")
	cfg := DefaultConfig()
	rest, err := cfg.Load([]string{"--rounds", "12", "--threads=3", "--show-progress", "forecast"})
	is.NoErr(err)
	is.Equal(rest, []string{"forecast"})
	// flags beat the environment
	is.Equal(cfg.GetInt(ConfigRounds), 12)
	is.Equal(cfg.GetInt(ConfigThreads), 3)
	is.Equal(cfg.GetInt(ConfigWalkSteps), 4)
	is.True(cfg.GetBool(ConfigShowProgress))
}

func TestConfigFile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "stackring.yaml")
	is.NoErr(os.WriteFile(path, []byte("rounds: 30\nwalk-rank: 0\n"), 0o644))
	cfg := DefaultConfig()
	_, err := cfg.Load([]string{"--config", path, "--walk-rank", "2"})
	is.NoErr(err)
	is.Equal(cfg.GetInt(ConfigRounds), 30)
	is.Equal(cfg.GetInt(ConfigWalkRank), 2)
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	for _, args := range [][]string{
		{"--rounds", "0"},
		{"--rounds", "100000"},
		{"--threads", "0"},
		{"--walk-rank", "-1"},
	} {
		_, err := DefaultConfig().Load(args)
		is.True(errors.Is(err, ErrInvalidConfig))
	}
	_, err := DefaultConfig().Load([]string{"--no-such-flag"})
	is.True(err != nil)
}
