package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"nbdt-analysis/internal/analysis"
	"nbdt-analysis/internal/metrics"
)

// Config captures the runtime knobs for an analysis run.
type Config struct {
	Analyzer        string   `yaml:"analyzer"`
	Classes         []string `yaml:"classes"`
	Dataset         string   `yaml:"dataset"`
	PathGraph       string   `yaml:"path_graph"`
	PathWNIDs       string   `yaml:"path_wnids"`
	GraphRoot       string   `yaml:"graph_root"`
	Metric          string   `yaml:"metric"`
	TestRoot        string   `yaml:"test_root"`
	StartEpoch      int      `yaml:"start_epoch"`
	Epochs          int      `yaml:"epochs"`
	TrainPhase      bool     `yaml:"train_phase"`
	BatchSize       int      `yaml:"batch_size"`
	LogEvery        int      `yaml:"log_every"`
	LogLevel        string   `yaml:"log_level"`
	MetricsTextfile string   `yaml:"metrics_textfile"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	Analyzer        string
	Metric          string
	PathGraph       string
	TestRoot        string
	Epochs          int
	BatchSize       int
	LogEvery        int
	LogLevel        string
	MetricsTextfile string
}

// Load reads a Config from YAML. Call Validate after applying overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML, rejecting unknown keys.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.Analyzer != "" {
		c.Analyzer = o.Analyzer
	}
	if o.Metric != "" {
		c.Metric = o.Metric
	}
	if o.PathGraph != "" {
		c.PathGraph = o.PathGraph
	}
	if o.TestRoot != "" {
		c.TestRoot = o.TestRoot
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.LogEvery > 0 {
		c.LogEvery = o.LogEvery
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
	if o.MetricsTextfile != "" {
		c.MetricsTextfile = o.MetricsTextfile
	}
}

// Validate verifies the config is runnable and fills defaults.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if _, err := analysis.Lookup(c.Analyzer); err != nil {
		return err
	}
	if len(c.Classes) == 0 {
		return errors.New("classes must not be empty")
	}
	if c.TestRoot == "" {
		return errors.New("test_root must be set")
	}
	if c.Epochs <= 0 {
		c.Epochs = 1
	}
	if c.StartEpoch < 0 {
		return fmt.Errorf("start_epoch must be >= 0 (got %d)", c.StartEpoch)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.LogEvery <= 0 {
		c.LogEvery = 50
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if analysis.Accepts(c.Analyzer, analysis.OptMetric) {
		if c.Metric == "" {
			c.Metric = analysis.DefaultMetric
		}
		if _, err := metrics.Lookup(c.Metric); err != nil {
			return err
		}
	}
	if c.PathWNIDs != "" && c.PathGraph == "" && c.Dataset == "" {
		return errors.New("path_wnids needs path_graph or dataset to locate a hierarchy")
	}
	for key, set := range map[string]bool{
		analysis.OptMetric:    c.Metric != "",
		analysis.OptPathGraph: c.PathGraph != "",
		analysis.OptPathWNIDs: c.PathWNIDs != "",
		analysis.OptDataset:   c.Dataset != "",
	} {
		if set && !analysis.Accepts(c.Analyzer, key) {
			return fmt.Errorf("%s does not accept %s", c.Analyzer, key)
		}
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return lvl, nil
}
