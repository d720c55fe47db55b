// Package config provides centralized configuration management for the
// photometry batch pipeline. It handles loading configuration from multiple
// sources, validation, and path resolution for the analyzer binaries.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file
//	3. Built-in defaults (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FP_* for namespacing:
//
//	FP_ANALYSIS_MODE=dff
//	FP_ANALYSIS_DRIFT_STRATEGY=median
//	FP_ANALYSIS_PEAK_THRESHOLD=2.5
//	FP_PATHS_DATA_DIR=/srv/recordings
//	FP_LOGGING_LEVEL=debug
//
// The named metric windows cannot be expressed as environment variables;
// change them through the YAML file.
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load(configFile)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths, err := config.ResolvePaths(cfg)
//
// All numeric analysis knobs live under the analysis section: the baseline
// interval, the drift anchor intervals (the post anchor is expressed as
// offsets back from each recording's end), the plotted span, the named
// metric windows, the rolling-median sampling assumptions, and the peak
// amplitude threshold.
package config
