package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpcli/internal/config"
	batcherrors "fpcli/internal/errors"
)

// Setup test environment
func setupTestEnv(t *testing.T) (*config.Paths, string, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "exporter_test_*")
	require.NoError(t, err)

	paths := &config.Paths{
		DataDir:    filepath.Join(tempDir, "data"),
		OutputDir:  filepath.Join(tempDir, "processed"),
		SummaryDir: filepath.Join(tempDir, "summary"),
		LogsDir:    filepath.Join(tempDir, "logs"),
	}
	paths.SummaryWorkbook = filepath.Join(paths.SummaryDir, "summary_analysis.xlsx")
	paths.CohortWorkbook = filepath.Join(paths.SummaryDir, "all_animals_traces.xlsx")
	paths.FailureReport = filepath.Join(paths.SummaryDir, "failures.csv")

	require.NoError(t, os.MkdirAll(paths.OutputDir, 0755))
	require.NoError(t, os.MkdirAll(paths.SummaryDir, 0755))

	cleanup := func() {
		os.RemoveAll(tempDir)
	}

	return paths, tempDir, cleanup
}

// readCSVFile parses a written file back, stripping any UTF-8 BOM first.
func readCSVFile(t *testing.T, filePath string) [][]string {
	t.Helper()

	content, err := os.ReadFile(filePath)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{}
	writer := NewCSVWriter(paths)

	assert.NotNil(t, writer)
	assert.Equal(t, paths, writer.paths)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	paths, _, cleanup := setupTestEnv(t)
	defer cleanup()
	writer := NewCSVWriter(paths)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, fullPath string)
	}{
		{
			name:     "basic write with headers",
			filePath: "basic.csv",
			options: WriteOptions{
				Headers: []string{"subject", "value"},
				Records: [][]string{
					{"965", "1.5"},
					{"966", "-0.25"},
				},
			},
			validate: func(t *testing.T, fullPath string) {
				rows := readCSVFile(t, fullPath)
				require.Len(t, rows, 3) // header + 2 records
				assert.Equal(t, []string{"subject", "value"}, rows[0])
				assert.Equal(t, []string{"965", "1.5"}, rows[1])
				assert.Equal(t, []string{"966", "-0.25"}, rows[2])
			},
		},
		{
			name:     "write with BOM prefix",
			filePath: "bom.csv",
			options: WriteOptions{
				Headers:   []string{"time", "normalized"},
				Records:   [][]string{{"0", "0.5"}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, fullPath string) {
				content, err := os.ReadFile(fullPath)
				require.NoError(t, err)
				assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))

				rows := readCSVFile(t, fullPath)
				require.Len(t, rows, 2)
				assert.Equal(t, []string{"time", "normalized"}, rows[0])
			},
		},
		{
			name:     "write without headers",
			filePath: "headless.csv",
			options: WriteOptions{
				Records: [][]string{
					{"a", "b"},
					{"c", "d"},
				},
			},
			validate: func(t *testing.T, fullPath string) {
				rows := readCSVFile(t, fullPath)
				require.Len(t, rows, 2) // records only
				assert.Equal(t, []string{"a", "b"}, rows[0])
			},
		},
		{
			name:     "creates missing subdirectories",
			filePath: filepath.Join("nested", "deep", "out.csv"),
			options: WriteOptions{
				Headers: []string{"x"},
				Records: [][]string{{"1"}},
			},
			validate: func(t *testing.T, fullPath string) {
				_, err := os.Stat(fullPath)
				assert.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := writer.WriteCSV(tt.filePath, tt.options)
			require.NoError(t, err)

			fullPath := filepath.Join(paths.OutputDir, tt.filePath)
			tt.validate(t, fullPath)
		})
	}
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	paths, tempDir, cleanup := setupTestEnv(t)
	defer cleanup()
	writer := NewCSVWriter(paths)

	t.Run("relative paths land in the output directory", func(t *testing.T) {
		assert.Equal(t, filepath.Join(paths.OutputDir, "a.csv"), writer.resolvePath("a.csv"))
	})

	t.Run("absolute paths pass through", func(t *testing.T) {
		abs := filepath.Join(tempDir, "elsewhere", "b.csv")
		assert.Equal(t, abs, writer.resolvePath(abs))

		err := writer.WriteSimpleCSV(abs, []string{"h"}, [][]string{{"v"}})
		require.NoError(t, err)
		_, err = os.Stat(abs)
		assert.NoError(t, err)
	})
}

func TestCSVWriter_WriteSimpleCSV(t *testing.T) {
	paths, _, cleanup := setupTestEnv(t)
	defer cleanup()
	writer := NewCSVWriter(paths)

	err := writer.WriteSimpleCSV("simple.csv", []string{"subject"}, [][]string{{"965"}})
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(paths.OutputDir, "simple.csv"))
	require.NoError(t, err)
	// Simple writes always carry the BOM for Excel.
	assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))
}

func TestStreamWriter(t *testing.T) {
	paths, _, cleanup := setupTestEnv(t)
	defer cleanup()
	writer := NewCSVWriter(paths)

	stream, err := writer.CreateStreamWriter("streamed.csv", []string{"time", "value"})
	require.NoError(t, err)

	require.NoError(t, stream.WriteRecord([]string{"0", "1.25"}))
	require.NoError(t, stream.WriteRecord([]string{"1", "2.5"}))
	require.NoError(t, stream.Close())

	fullPath := filepath.Join(paths.OutputDir, "streamed.csv")
	content, err := os.ReadFile(fullPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte{0xEF, 0xBB, 0xBF}))

	rows := readCSVFile(t, fullPath)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"time", "value"}, rows[0])
	assert.Equal(t, []string{"0", "1.25"}, rows[1])
	assert.Equal(t, []string{"1", "2.5"}, rows[2])
}

func TestCSVWriter_WriteFailureReport(t *testing.T) {
	paths, _, cleanup := setupTestEnv(t)
	defer cleanup()
	writer := NewCSVWriter(paths)

	failures := []*batcherrors.SubjectError{
		batcherrors.NewSubjectError("965", batcherrors.StageIngest, errors.New("no rows")),
		batcherrors.NewSubjectError("981", batcherrors.StageDrift, errors.New("empty anchor")),
	}

	err := writer.WriteFailureReport(paths.FailureReport, failures)
	require.NoError(t, err)

	rows := readCSVFile(t, paths.FailureReport)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"subject", "stage", "error"}, rows[0])
	assert.Equal(t, []string{"965", "ingest", "no rows"}, rows[1])
	assert.Equal(t, []string{"981", "drift", "empty anchor"}, rows[2])
}

func TestCSVWriter_WriteFailureReport_Empty(t *testing.T) {
	paths, _, cleanup := setupTestEnv(t)
	defer cleanup()
	writer := NewCSVWriter(paths)

	err := writer.WriteFailureReport(paths.FailureReport, nil)
	require.NoError(t, err)

	rows := readCSVFile(t, paths.FailureReport)
	require.Len(t, rows, 1) // header only
	assert.Contains(t, strings.Join(rows[0], ","), "subject")
}
