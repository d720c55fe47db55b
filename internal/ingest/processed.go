package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// processedSuffix tags the per-subject files the exporter writes.
const processedSuffix = "-processed"

// ProcessedTrace is a previously exported processed recording read back for
// re-aggregation. Only the columns cohort aggregation needs are retained.
type ProcessedTrace struct {
	Subject    string
	Time       []float64
	Normalized []float64
}

// ReadProcessed reads one processed CSV back. Unlike raw recordings these
// files are our own output: the header is the first row and the column names
// are exact.
func ReadProcessed(path string) (*ProcessedTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open processed trace: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read processed trace %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoHeader)
	}

	timeIdx, normIdx := -1, -1
	for j, h := range rows[0] {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "time":
			timeIdx = j
		case "normalized":
			normIdx = j
		}
	}
	if timeIdx < 0 || normIdx < 0 {
		return nil, fmt.Errorf("%s: %w: time, normalized", path, ErrMissingColumn)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out := &ProcessedTrace{Subject: strings.TrimSuffix(name, processedSuffix)}

	for _, row := range rows[1:] {
		t, okT := parseCell(row, timeIdx)
		v, okV := parseCell(row, normIdx)
		if !okT || !okV {
			continue
		}
		out.Time = append(out.Time, t)
		out.Normalized = append(out.Normalized, v)
	}

	if len(out.Time) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoRows)
	}

	return out, nil
}
