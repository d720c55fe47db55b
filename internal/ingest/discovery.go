package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Discover lists the CSV recordings in dataDir, sorted by filename. The
// listing is non-recursive: subdirectories are left alone.
func Discover(dataDir string) ([]string, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dataDir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			files = append(files, filepath.Join(dataDir, entry.Name()))
		}
	}

	return files, nil
}

// DiscoverProcessed lists previously exported processed traces in dir.
func DiscoverProcessed(dir string) ([]string, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, err
	}

	var processed []string
	for _, f := range files {
		if strings.HasSuffix(filepath.Base(f), processedSuffix+".csv") {
			processed = append(processed, f)
		}
	}
	return processed, nil
}

// SubjectID derives the subject identifier from a recording filename: the
// stem up to the first underscore, so "m12_day3_export.csv" names subject
// "m12".
func SubjectID(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.Index(name, "_"); i >= 0 {
		name = name[:i]
	}
	return name
}
