package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harrison/toygrep/internal/logger"
	"gopkg.in/yaml.v3"
)

// Tri-state switches for grouping and colour.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

// DirName is the per-directory configuration folder.
const DirName = ".toygrep"

// Config represents toygrep configuration options
type Config struct {
	// Workers bounds concurrent search tasks and crawler workers (0 = number of CPUs)
	Workers int `yaml:"workers"`

	// MaxBufferBytes caps the size of a freshly built line buffer
	MaxBufferBytes int `yaml:"max_buffer_bytes"`

	// PrewarmBuffers is the number of line buffers allocated before searching
	PrewarmBuffers int `yaml:"prewarm_buffers"`

	// BinarySampleBytes is how many leading bytes must be UTF-8 for a file to
	// be searched. Negative disables binary detection.
	BinarySampleBytes int `yaml:"binary_sample_bytes"`

	// GroupByTarget selects grouped output (auto, always, never)
	GroupByTarget string `yaml:"group_by_target"`

	// Color selects coloured output (auto, always, never)
	Color string `yaml:"color"`

	// LineNumbers prefixes matches with their line number
	LineNumbers bool `yaml:"line_numbers"`

	// Decompress searches inside .gz, .zst and .lz4 files
	Decompress bool `yaml:"decompress"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// StatsFile, when set, receives a YAML run report after every search
	StatsFile string `yaml:"stats_file"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Workers:           0, // NumCPU
		MaxBufferBytes:    2_000_000,
		PrewarmBuffers:    4,
		BinarySampleBytes: 512,
		GroupByTarget:     ModeAuto,
		Color:             ModeAuto,
		LineNumbers:       true,
		Decompress:        false,
		LogLevel:          "warn",
		StatsFile:         "",
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Pointers distinguish "absent" from an explicit zero or false.
	type yamlConfig struct {
		Workers           *int   `yaml:"workers"`
		MaxBufferBytes    *int   `yaml:"max_buffer_bytes"`
		PrewarmBuffers    *int   `yaml:"prewarm_buffers"`
		BinarySampleBytes *int   `yaml:"binary_sample_bytes"`
		GroupByTarget     string `yaml:"group_by_target"`
		Color             string `yaml:"color"`
		LineNumbers       *bool  `yaml:"line_numbers"`
		Decompress        *bool  `yaml:"decompress"`
		LogLevel          string `yaml:"log_level"`
		StatsFile         string `yaml:"stats_file"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.Workers != nil {
		cfg.Workers = *yamlCfg.Workers
	}
	if yamlCfg.MaxBufferBytes != nil {
		cfg.MaxBufferBytes = *yamlCfg.MaxBufferBytes
	}
	if yamlCfg.PrewarmBuffers != nil {
		cfg.PrewarmBuffers = *yamlCfg.PrewarmBuffers
	}
	if yamlCfg.BinarySampleBytes != nil {
		cfg.BinarySampleBytes = *yamlCfg.BinarySampleBytes
	}
	if yamlCfg.GroupByTarget != "" {
		cfg.GroupByTarget = yamlCfg.GroupByTarget
	}
	if yamlCfg.Color != "" {
		cfg.Color = yamlCfg.Color
	}
	if yamlCfg.LineNumbers != nil {
		cfg.LineNumbers = *yamlCfg.LineNumbers
	}
	if yamlCfg.Decompress != nil {
		cfg.Decompress = *yamlCfg.Decompress
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.StatsFile != "" {
		cfg.StatsFile = yamlCfg.StatsFile
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .toygrep/config.yaml in the specified directory
// If the directory or file doesn't exist, returns default configuration without error
func LoadConfigFromDir(dir string) (*Config, error) {
	configPath := filepath.Join(dir, DirName, "config.yaml")
	return LoadConfig(configPath)
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(workers *int, groupBy *string, color *string, lineNumbers *bool, decompress *bool, logLevel *string, statsFile *string) {
	if workers != nil {
		c.Workers = *workers
	}
	if groupBy != nil {
		c.GroupByTarget = *groupBy
	}
	if color != nil {
		c.Color = *color
	}
	if lineNumbers != nil {
		c.LineNumbers = *lineNumbers
	}
	if decompress != nil {
		c.Decompress = *decompress
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if statsFile != nil {
		c.StatsFile = *statsFile
	}
}

// Validate validates the configuration values
// Returns an error if any values are invalid
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MaxBufferBytes <= 0 {
		return fmt.Errorf("max_buffer_bytes must be > 0, got %d", c.MaxBufferBytes)
	}
	if c.PrewarmBuffers < 0 {
		return fmt.Errorf("prewarm_buffers must be >= 0, got %d", c.PrewarmBuffers)
	}
	if c.BinarySampleBytes == 0 {
		return fmt.Errorf("binary_sample_bytes must be non-zero (negative disables detection)")
	}

	if !validMode(c.GroupByTarget) {
		return fmt.Errorf("invalid group_by_target %q, must be one of: auto, always, never", c.GroupByTarget)
	}
	if !validMode(c.Color) {
		return fmt.Errorf("invalid color %q, must be one of: auto, always, never", c.Color)
	}

	if !logger.ValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	return nil
}

func validMode(m string) bool {
	return m == ModeAuto || m == ModeAlways || m == ModeNever
}

// Resolve turns a tri-state mode into a decision, using auto for ModeAuto.
func Resolve(mode string, auto bool) bool {
	switch mode {
	case ModeAlways:
		return true
	case ModeNever:
		return false
	default:
		return auto
	}
}
