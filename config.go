package ripple

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/warxhead1/ripple/internal/graph"
	"github.com/warxhead1/ripple/internal/impact"
)

// ConfigFileNames are tried in order by LoadConfig.
var ConfigFileNames = []string{"ripple.yml", "ripple.yaml"}

// ErrInvalidConfig is returned for out-of-range configuration values.
var ErrInvalidConfig = errors.New("invalid config")

// Config tunes graph construction and analysis. Zero values take defaults.
type Config struct {
	MinConfidence   float64          `yaml:"minConfidence"`
	MaxCallDepth    int              `yaml:"maxCallDepth"`
	MaxImpactDepth  int              `yaml:"maxImpactDepth"`
	EntryPointKinds []string         `yaml:"entryPointKinds"`
	CriticalPaths   []string         `yaml:"criticalPaths"`
	TagRules        []impact.TagRule `yaml:"tagRules"`
	RulesDir        string           `yaml:"rulesDir"`
	Workers         int              `yaml:"workers"`
	Hotspots        int              `yaml:"hotspots"`
}

// DefaultHotspots is how many of the most depended-on symbols Analyze
// predicts impact for.
const DefaultHotspots = 10

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.MinConfidence == 0 {
		c.MinConfidence = graph.DefaultMinConfidence
	}
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = graph.DefaultMaxCallDepth
	}
	if c.MaxImpactDepth == 0 {
		c.MaxImpactDepth = impact.DefaultMaxDepth
	}
	if len(c.EntryPointKinds) == 0 {
		c.EntryPointKinds = append([]string(nil), graph.DefaultEntryPointKinds...)
	}
	if c.TagRules == nil {
		c.TagRules = impact.DefaultTagRules()
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Hotspots == 0 {
		c.Hotspots = DefaultHotspots
	}
	return c
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return fmt.Errorf("minConfidence %v outside [0, 1]: %w", c.MinConfidence, ErrInvalidConfig)
	case c.MaxCallDepth < 0:
		return fmt.Errorf("maxCallDepth %d: %w", c.MaxCallDepth, ErrInvalidConfig)
	case c.MaxImpactDepth < 0:
		return fmt.Errorf("maxImpactDepth %d: %w", c.MaxImpactDepth, ErrInvalidConfig)
	case c.Hotspots < 0:
		return fmt.Errorf("hotspots %d: %w", c.Hotspots, ErrInvalidConfig)
	}
	for _, rule := range c.TagRules {
		if rule.Tag == "" {
			return fmt.Errorf("tag rule without tag: %w", ErrInvalidConfig)
		}
	}
	return nil
}

func (c Config) impactSettings() impact.Settings {
	return impact.Settings{
		MaxDepth:      c.MaxImpactDepth,
		TagRules:      c.TagRules,
		CriticalPaths: c.CriticalPaths,
	}
}

// LoadConfig reads the first of ConfigFileNames found in dir. A directory
// without a config file yields DefaultConfig.
func LoadConfig(dir string) (Config, error) {
	for _, name := range ConfigFileNames {
		cfg, err := LoadConfigFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return DefaultConfig(), nil
}

// LoadConfigFile reads one YAML config file. A relative rulesDir is resolved
// against the file's directory.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.RulesDir != "" && !filepath.IsAbs(cfg.RulesDir) {
		cfg.RulesDir = filepath.Join(filepath.Dir(path), cfg.RulesDir)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
