package analyzer

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"
	yaml "gopkg.in/yaml.v2"
)

const (
	pruningEnvKey      = "DIPS_PRUNING"
	rootStrategyEnvKey = "DIPS_ROOT_STRATEGY"
)

// ErrInvalidRootStrategy is returned when the configured root strategy is
// not known.
var ErrInvalidRootStrategy = errors.NewKind("invalid root strategy %q, expected one of: %s")

// RootStrategy names the way the root of a join graph is chosen.
type RootStrategy string

const (
	// RootFirst roots the graph at the first table found in the plan.
	RootFirst RootStrategy = "first"
	// RootFewestChunks roots the graph at the table with the fewest
	// surviving chunks.
	RootFewestChunks RootStrategy = "fewest_chunks"
	// RootMostChunks roots the graph at the table with the most surviving
	// chunks.
	RootMostChunks RootStrategy = "most_chunks"
)

var rootStrategies = []RootStrategy{RootFirst, RootFewestChunks, RootMostChunks}

// Config of the chunk pruning performed by the analyzer.
type Config struct {
	// Enabled turns the dips_pruning rule on.
	Enabled bool `yaml:"enabled"`
	// RootStrategy is the way the root of every join graph is chosen.
	RootStrategy RootStrategy `yaml:"root_strategy"`
	// PruneOnAnyPredicate prunes a chunk when any of the predicates between
	// two tables proves it can't match. By default all of them must.
	PruneOnAnyPredicate bool `yaml:"prune_on_any_predicate"`
	// Debug enables the debug logging of the analyzer.
	Debug bool `yaml:"debug"`
}

// DefaultConfig returns the configuration used when nothing else is given.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		RootStrategy: RootFirst,
	}
}

// Validate returns an error if the configuration is not valid.
func (c Config) Validate() error {
	for _, s := range rootStrategies {
		if c.RootStrategy == s {
			return nil
		}
	}

	return ErrInvalidRootStrategy.New(c.RootStrategy, joinStrategies())
}

func joinStrategies() string {
	names := make([]string, len(rootStrategies))
	for i, s := range rootStrategies {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// WithEnv returns the configuration overridden by the environment variables.
// Invalid values are ignored with a warning.
func (c Config) WithEnv() Config {
	if v, ok := os.LookupEnv(pruningEnvKey); ok {
		switch strings.TrimSpace(strings.ToLower(v)) {
		case "off", "0", "false":
			c.Enabled = false
		case "on", "1", "true":
			c.Enabled = true
		default:
			logrus.Warnf("invalid value %q given to %s environment variable", v, pruningEnvKey)
		}
	}

	if v, ok := os.LookupEnv(rootStrategyEnvKey); ok {
		s := RootStrategy(strings.TrimSpace(strings.ToLower(v)))
		candidate := c
		candidate.RootStrategy = s
		if err := candidate.Validate(); err != nil {
			logrus.Warnf("invalid value %q given to %s environment variable", v, rootStrategyEnvKey)
		} else {
			c = candidate
		}
	}

	if _, ok := os.LookupEnv(debugAnalyzerKey); ok {
		c.Debug = true
	}

	return c
}

// ReadConfigFile reads a configuration from the YAML file at path. Missing
// keys take their default value.
func ReadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, err
	}

	return c, c.Validate()
}

// WriteConfigFile writes the configuration as YAML to the file at path.
func WriteConfigFile(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0640)
}

// LoadConfig returns the default configuration, overridden by the file at
// path, if any, and by the environment.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	if path != "" {
		var err error
		if c, err = ReadConfigFile(path); err != nil {
			return Config{}, err
		}
	}

	return c.WithEnv(), nil
}
