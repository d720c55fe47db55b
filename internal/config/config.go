package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// AnalysisConfig contains every numeric knob of the correction and metric
// pipeline. Times are seconds from recording start unless stated otherwise.
type AnalysisConfig struct {
	// Mode selects the normalization: "zscore" or "dff".
	Mode string `yaml:"mode" envconfig:"MODE"`
	// DriftStrategy selects the photobleaching correction: "linear" for the
	// anchored two-interval fit, "median" for rolling-median subtraction.
	DriftStrategy string `yaml:"drift_strategy" envconfig:"DRIFT_STRATEGY"`

	// Baseline is the normalization reference interval.
	Baseline IntervalConfig `yaml:"baseline" envconfig:"BASELINE"`
	// DriftPre and DriftPost anchor the linear drift fit. The post interval
	// is expressed as offsets back from each recording's final timestamp.
	DriftPre  IntervalConfig       `yaml:"drift_pre" envconfig:"DRIFT_PRE"`
	DriftPost OffsetIntervalConfig `yaml:"drift_post" envconfig:"DRIFT_POST"`

	// PlotStart and PlotEndCap bound the analyzed span. A recording shorter
	// than the cap ends the span at its own final timestamp.
	PlotStart  float64 `yaml:"plot_start" envconfig:"PLOT_START"`
	PlotEndCap float64 `yaml:"plot_end_cap" envconfig:"PLOT_END_CAP"`

	// Windows are the named metric spans. Not settable via environment.
	Windows []WindowConfig `yaml:"windows" ignored:"true"`

	// Median holds the sampling assumptions of the rolling-median strategy.
	Median MedianConfig `yaml:"median" envconfig:"MEDIAN"`

	// PeakThreshold is the minimum normalized amplitude for a detected peak.
	PeakThreshold float64 `yaml:"peak_threshold" envconfig:"PEAK_THRESHOLD"`

	// MaxConcurrency bounds the number of subjects processed in parallel.
	// 1 processes the batch sequentially.
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY"`
}

// IntervalConfig is an absolute [start, end] span in seconds.
type IntervalConfig struct {
	Start float64 `yaml:"start" envconfig:"START"`
	End   float64 `yaml:"end" envconfig:"END"`
}

// OffsetIntervalConfig is a span expressed as offsets back from the end of a
// recording, so it tracks recordings of different lengths.
type OffsetIntervalConfig struct {
	StartOffset float64 `yaml:"start_offset" envconfig:"START_OFFSET"`
	EndOffset   float64 `yaml:"end_offset" envconfig:"END_OFFSET"`
}

// WindowConfig is one named metric window.
type WindowConfig struct {
	Name  string  `yaml:"name"`
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// MedianConfig contains the sampling assumptions of the rolling-median drift
// strategy.
type MedianConfig struct {
	// WindowSamples is the centered median window length. Must be odd.
	WindowSamples int `yaml:"window_samples" envconfig:"WINDOW_SAMPLES"`
	// BlockSeconds is the nominal acquisition block duration used when
	// reporting median-corrected runs.
	BlockSeconds float64 `yaml:"block_seconds" envconfig:"BLOCK_SECONDS"`
	// BaselineSamples overrides the baseline interval with the first N
	// samples of each trace when the median strategy is active.
	BaselineSamples int `yaml:"baseline_samples" envconfig:"BASELINE_SAMPLES"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// PathsConfig contains file system paths configuration. Relative entries are
// resolved against the working directory by ResolvePaths.
type PathsConfig struct {
	// DataDir holds the raw per-subject CSV recordings.
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`
	// OutputDir receives per-subject processed CSVs and trace charts.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	// SummaryDir receives the summary and cohort workbooks.
	SummaryDir string `yaml:"summary_dir" envconfig:"SUMMARY_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// Load loads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty configFile falls
// back to searching the usual locations.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := cfg.loadFile(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process("FP", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file onto the receiver. Absent keys keep their
// current values.
func (c *Config) loadFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// findConfigFile returns the first config file found in the common
// locations, or "" when none exists.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		filepath.Join("configs", "config.yaml"),
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// validate checks the configuration for values that would make every subject
// fail before any file is read.
func (c *Config) validate() error {
	a := &c.Analysis

	switch a.Mode {
	case "zscore", "dff":
	default:
		return fmt.Errorf("invalid normalization mode %q (want zscore or dff)", a.Mode)
	}

	switch a.DriftStrategy {
	case "linear", "median":
	default:
		return fmt.Errorf("invalid drift strategy %q (want linear or median)", a.DriftStrategy)
	}

	if a.PlotStart >= a.PlotEndCap {
		return fmt.Errorf("plot span [%g, %g] has no extent", a.PlotStart, a.PlotEndCap)
	}

	if a.DriftStrategy == "median" {
		m := a.Median
		if m.WindowSamples <= 0 || m.WindowSamples%2 == 0 {
			return fmt.Errorf("median window must be a positive odd sample count, got %d", m.WindowSamples)
		}
		if m.BlockSeconds <= 0 {
			return fmt.Errorf("median block duration must be positive, got %g", m.BlockSeconds)
		}
		if m.BaselineSamples <= 0 {
			return fmt.Errorf("median baseline must cover at least one sample, got %d", m.BaselineSamples)
		}
	}

	if math.IsNaN(a.PeakThreshold) || math.IsInf(a.PeakThreshold, 0) {
		return fmt.Errorf("peak threshold must be finite")
	}

	if a.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1, got %d", a.MaxConcurrency)
	}

	seen := make(map[string]bool, len(a.Windows))
	for _, w := range a.Windows {
		if w.Name == "" {
			return fmt.Errorf("metric window [%g, %g] has no name", w.Start, w.End)
		}
		if seen[w.Name] {
			return fmt.Errorf("duplicate metric window name %q", w.Name)
		}
		seen[w.Name] = true
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q (want json or text)", c.Logging.Format)
	}
	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		return fmt.Errorf("invalid log output %q (want stdout, file or both)", c.Logging.Output)
	}
	if c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		return fmt.Errorf("log output %q requires a file path", c.Logging.Output)
	}

	if c.Paths.DataDir == "" {
		return fmt.Errorf("data directory must be set")
	}
	if c.Paths.OutputDir == "" {
		return fmt.Errorf("output directory must be set")
	}
	if c.Paths.SummaryDir == "" {
		return fmt.Errorf("summary directory must be set")
	}

	return nil
}

// Default returns the built-in configuration: a six-and-three-quarter hour
// recording analyzed from 45 min in, with the baseline at 25-35 min and the
// linear drift fit anchored early and at the recording end.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Mode:          "zscore",
			DriftStrategy: "linear",
			Baseline:      IntervalConfig{Start: 1500, End: 2100},
			DriftPre:      IntervalConfig{Start: 100, End: 600},
			DriftPost:     OffsetIntervalConfig{StartOffset: 500, EndOffset: 0},
			PlotStart:     2700,
			PlotEndCap:    24300,
			Windows: []WindowConfig{
				{Name: "2-4h", Start: 7200, End: 14400},
				{Name: "4-6h", Start: 14400, End: 21600},
			},
			Median: MedianConfig{
				WindowSamples:   601,
				BlockSeconds:    600,
				BaselineSamples: 600,
			},
			PeakThreshold:  2,
			MaxConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: filepath.Join("logs", "analyzer.log"),
		},
		Paths: PathsConfig{
			DataDir:    "data",
			OutputDir:  filepath.Join("data", "processed"),
			SummaryDir: filepath.Join("data", "summary"),
			LogsDir:    "logs",
		},
	}
}
