package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathsAnchorsRelativeEntries(t *testing.T) {
	cfg := Default()
	cfg.Paths = PathsConfig{
		DataDir:    "data",
		OutputDir:  filepath.Join("data", "processed"),
		SummaryDir: "/srv/summary",
		LogsDir:    "logs",
	}

	p, err := ResolvePaths(cfg)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(wd, "data"), p.DataDir)
	assert.Equal(t, filepath.Join(wd, "data", "processed"), p.OutputDir)
	assert.Equal(t, "/srv/summary", p.SummaryDir, "absolute entries pass through")
	assert.Equal(t, filepath.Join(wd, "logs"), p.LogsDir)

	assert.Equal(t, filepath.Join("/srv/summary", "summary_analysis.xlsx"), p.SummaryWorkbook)
	assert.Equal(t, filepath.Join("/srv/summary", "all_animals_traces.xlsx"), p.CohortWorkbook)
	assert.Equal(t, filepath.Join("/srv/summary", "failures.csv"), p.FailureReport)
}

func TestEnsureDirectoriesCreatesOutputs(t *testing.T) {
	base := t.TempDir()
	p := &Paths{
		DataDir:    filepath.Join(base, "data"),
		OutputDir:  filepath.Join(base, "out"),
		SummaryDir: filepath.Join(base, "out", "summary"),
		LogsDir:    filepath.Join(base, "logs"),
	}

	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.OutputDir, p.SummaryDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	// The data directory is an input and must not be conjured up.
	_, err := os.Stat(p.DataDir)
	assert.True(t, os.IsNotExist(err))

	// Idempotent.
	assert.NoError(t, p.EnsureDirectories())
}

func TestPerSubjectPaths(t *testing.T) {
	p := &Paths{OutputDir: "/out"}
	assert.Equal(t, filepath.Join("/out", "m12-processed.csv"), p.ProcessedCSVPath("m12"))
	assert.Equal(t, filepath.Join("/out", "m12-trace.svg"), p.ChartPath("m12"))
}
