package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/portent-dev/portent/pkg/analyzer/score"
)

// Config holds all configuration options for portent.
type Config struct {
	// Corpus settings
	Corpus CorpusConfig `koanf:"corpus"`

	// Weights for the final score combination
	Weights score.Weights `koanf:"weights"`

	// Thresholds for pass/fail gating
	Thresholds ThresholdConfig `koanf:"thresholds"`

	// Source scanning settings
	Scan ScanConfig `koanf:"scan"`

	// Output settings
	Output OutputConfig `koanf:"output"`
}

// CorpusConfig locates the reference corpus artifact.
type CorpusConfig struct {
	Path string `koanf:"path"`
}

// ThresholdConfig defines pass/fail thresholds.
type ThresholdConfig struct {
	// MinScore fails the run when the final score falls below it.
	// Zero disables gating.
	MinScore float64 `koanf:"min_score"`
}

// ScanConfig controls source tree scanning.
type ScanConfig struct {
	ExcludeDirs []string `koanf:"exclude_dirs"`
	// MaxFileSize in bytes; larger source files are skipped.
	MaxFileSize int64 `koanf:"max_file_size"`
}

// OutputConfig controls output formatting. Format is the default for the
// --format flag; an explicit flag wins.
type OutputConfig struct {
	Format string `koanf:"format"` // text, json, markdown
	Color  bool   `koanf:"color"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Path: "corpus.yaml",
		},
		Weights: score.DefaultWeights(),
		Thresholds: ThresholdConfig{
			MinScore: 0,
		},
		Scan: ScanConfig{
			ExcludeDirs: []string{
				".git",
				"build",
				"cmake-build-debug",
				"cmake-build-release",
				"third_party",
				"vendor",
			},
			MaxFileSize: 1 << 20,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file. Values not present in the file keep
// their defaults; the merged weight tables are validated before use.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	configNames := []string{
		"portent.toml",
		"portent.yaml",
		"portent.yml",
		"portent.json",
		".portent.toml",
		".portent.yaml",
		".portent.yml",
		".portent.json",
	}

	for _, name := range configNames {
		if _, err := os.Stat(name); err == nil {
			cfg, err := Load(name)
			if err == nil {
				return cfg
			}
		}
	}
	return DefaultConfig()
}
