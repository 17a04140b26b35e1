// Package config loads the argpipe settings from an optional YAML file and the environment.
package config

import (
	"os"

	"github.com/google/shlex"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-argpipe/pkg/pipeline/model"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ARGPIPE"

// Config holds the argpipe settings.
type Config struct {
	// Mode is "serialized" or "parallel".
	Mode    string           `yaml:"mode" envconfig:"MODE"`
	Log     LogConfig        `yaml:"log" envconfig:"LOG"`
	Aliases map[string]Alias `yaml:"aliases" ignored:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Development bool   `yaml:"development" envconfig:"DEV"`
}

// Alias is the command line an alias expands to.
// In YAML, it is written as a single line or as a list of tokens:
//
//	aliases:
//	  evens: seq --to 10 => $filter . gt 5
//	  hello:
//	    - greet
//	    - --greeting
//	    - good morning
type Alias []string

// UnmarshalYAML allows an alias to be a string split with shell rules or a list of tokens.
func (a *Alias) UnmarshalYAML(value *yaml.Node) error {
	var line string
	if err := value.Decode(&line); err == nil {
		tokens, err := shlex.Split(line)
		if err != nil {
			return errors.Wrapf(err, "alias %q", line)
		}
		*a = tokens
		return nil
	}

	var tokens []string
	if err := value.Decode(&tokens); err != nil {
		return errors.Wrap(err, "alias must be a string or a list of strings")
	}
	*a = tokens

	return nil
}

// Parse parses YAML bytes into a Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to parse config")
	}

	return &cfg, nil
}

// Load reads the YAML file at path, when path is not empty, then applies the ARGPIPE_*
// environment variables on top of it.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %s", path)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, errors.Wrapf(err, "config file %s", path)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to load config from environment")
	}

	if _, err := cfg.PipelineMode(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PipelineMode returns the validated execution mode.
func (c *Config) PipelineMode() (model.Mode, error) {
	return model.ParseMode(c.Mode)
}

// ExpandAliases replaces the first token of every stage of args when it names an alias.
// Expansions are not expanded again.
func (c *Config) ExpandAliases(args []string, pipe string) []string {
	if len(c.Aliases) == 0 {
		return args
	}

	out := make([]string, 0, len(args))
	head := true
	for _, arg := range args {
		if head {
			head = false
			if alias, ok := c.Aliases[arg]; ok {
				out = append(out, alias...)
				continue
			}
		}
		if arg == pipe {
			head = true
		}
		out = append(out, arg)
	}

	return out
}
