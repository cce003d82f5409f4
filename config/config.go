package config

import (
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// OptimizerConfig selects and shapes the pass pipeline.
type OptimizerConfig struct {
	// DisablePasses lists pass names to skip, e.g. "choice-conversion".
	DisablePasses []string `yaml:"disablePasses"`
	// Fixpoint re-runs the pipeline until nothing changes.
	Fixpoint bool `yaml:"fixpoint"`
	// MaxIterations bounds the fixpoint loop; zero means the default.
	MaxIterations int `yaml:"maxIterations"`
}

type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
}

func defaultConfig() *Config {
	return &Config{
		Optimizer: OptimizerConfig{
			Fixpoint: true,
		},
	}
}

// Read loads the configuration from the given path, or from
// ~/.ramjet/config.yml when path is empty. A missing file yields defaults;
// a present but malformed file is an error.
func Read(path string) (*Config, error) {
	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return nil, errors.Wrap(err, "couldn't resolve home directory")
		}
		path = filepath.Join(home, ".ramjet", "config.yml")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return defaultConfig(), nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't open config file")
	}
	defer f.Close()

	config := defaultConfig()
	if err := yaml.NewDecoder(f).Decode(config); err != nil {
		return nil, errors.Wrap(err, "couldn't decode yaml configuration")
	}
	return config, nil
}

// PassDisabled reports whether a pass name is on the disabled list.
func (c *Config) PassDisabled(name string) bool {
	for _, disabled := range c.Optimizer.DisablePasses {
		if disabled == name {
			return true
		}
	}
	return false
}
